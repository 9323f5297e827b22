// Package config loads the effectviz configuration from defaults, an optional
// YAML file, an optional .env file and EFFECTVIZ_* environment variables, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "EFFECTVIZ"
	fileName  = "effectviz"
)

type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Sound    SoundConfig    `mapstructure:"sound"`
	Playback PlaybackConfig `mapstructure:"playback"`
	Demo     DemoConfig     `mapstructure:"demo"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=console json"`
}

type SoundConfig struct {
	Muted   bool `mapstructure:"muted"`
	Buffer  int  `mapstructure:"buffer" validate:"min=1"`
	Workers int  `mapstructure:"workers" validate:"min=1"`
}

type PlaybackConfig struct {
	// Tick is how often the terminal renderer redraws running timers.
	Tick time.Duration `mapstructure:"tick" validate:"gt=0"`
}

type DemoConfig struct {
	MinDelay    time.Duration `mapstructure:"min_delay" validate:"gte=0"`
	MaxDelay    time.Duration `mapstructure:"max_delay" validate:"gtefield=MinDelay"`
	// Stagger shifts the delay window of each successive source of a demo.
	Stagger     time.Duration `mapstructure:"stagger" validate:"gte=0"`
	FailureRate float64       `mapstructure:"failure_rate" validate:"gte=0,lte=1"`
	// Seed makes demo delays and failures reproducible. Zero seeds from the clock.
	Seed int64 `mapstructure:"seed"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("sound.muted", true)
	v.SetDefault("sound.buffer", 16)
	v.SetDefault("sound.workers", 2)
	v.SetDefault("playback.tick", 50*time.Millisecond)
	v.SetDefault("demo.min_delay", 300*time.Millisecond)
	v.SetDefault("demo.max_delay", 600*time.Millisecond)
	v.SetDefault("demo.stagger", 100*time.Millisecond)
	v.SetDefault("demo.failure_rate", 0.6)
	v.SetDefault("demo.seed", 0)
}

type loaderConfig struct {
	configFile string
	envFile    string
	searchDirs []string
}

type LoaderOption func(*loaderConfig)

// WithConfigFile reads path instead of searching for effectviz.yaml.
func WithConfigFile(path string) LoaderOption {
	return func(lc *loaderConfig) { lc.configFile = path }
}

// WithEnvFile loads path as a .env file. Variables already set win.
func WithEnvFile(path string) LoaderOption {
	return func(lc *loaderConfig) { lc.envFile = path }
}

// WithSearchDirs replaces the directories searched for effectviz.yaml.
func WithSearchDirs(dirs ...string) LoaderOption {
	return func(lc *loaderConfig) { lc.searchDirs = dirs }
}

func Load(opts ...LoaderOption) (*Config, error) {
	lc := loaderConfig{searchDirs: []string{"."}}
	for _, opt := range opts {
		opt(&lc)
	}

	if lc.envFile != "" {
		if err := godotenv.Load(lc.envFile); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", lc.envFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if lc.configFile != "" {
		v.SetConfigFile(lc.configFile)
	} else {
		v.SetConfigName(fileName)
		v.SetConfigType("yaml")
		for _, dir := range lc.searchDirs {
			v.AddConfigPath(dir)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if lc.configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and reports every violation at once.
func Validate(cfg *Config) error {
	err := validator.New(validator.WithRequiredStructEnabled()).Struct(cfg)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("invalid config: %w", err)
	}
	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.ActualTag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(messages, "; "))
}

// Exists reports whether path names a readable file.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
