package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/on-the-ground/effect_ive_visual/effects/concurrency"
	"github.com/on-the-ground/effect_ive_visual/effects/log"
	"github.com/on-the-ground/effect_ive_visual/effects/sound"
	"github.com/on-the-ground/effect_ive_visual/internal/catalog"
	"github.com/on-the-ground/effect_ive_visual/internal/config"
	"github.com/on-the-ground/effect_ive_visual/visual"
	"github.com/on-the-ground/effect_ive_visual/visual/observe"
	"github.com/on-the-ground/effect_ive_visual/visual/timeline"
	"github.com/spf13/cobra"
)

type RunOptions struct {
	Mute bool
	Seed int64
}

func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run <example-id>",
		Short: "Play one example and print its timeline",
		Long: `Play one example: every effect of the composition is rendered as it
changes state, then the recorded timeline is printed.

Exit code 0 means the composed result succeeded, 1 that it failed or was
interrupted, 2 that the command itself could not run.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExample(cmd, rootOpts, opts, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.Mute, "mute", false, "drop sound cues regardless of config")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "seed for delays and failures (overrides demo.seed)")

	return cmd
}

// Event is the rendered form of a timeline event.
type Event struct {
	Seq    uint64 `json:"seq" yaml:"seq"`
	Label  string `json:"label" yaml:"label"`
	State  string `json:"state" yaml:"state"`
	At     string `json:"at" yaml:"at"`
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// Report is what run prints once the example has settled.
type Report struct {
	Example string  `json:"example" yaml:"example"`
	Seed    int64   `json:"seed" yaml:"seed"`
	State   string  `json:"state" yaml:"state"`
	Result  string  `json:"result,omitempty" yaml:"result,omitempty"`
	Elapsed string  `json:"elapsed" yaml:"elapsed"`
	Runs    int     `json:"runs" yaml:"runs"`
	Events  []Event `json:"events" yaml:"events"`
}

func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s  %s in %s\n", r.Example, r.State, r.Elapsed)
	if r.Result != "" {
		fmt.Fprintf(&b, "result: %s\n", r.Result)
	}
	b.WriteString("timeline:\n")
	for _, ev := range r.Events {
		line := fmt.Sprintf("  %3d  %s  %-14s %s", ev.Seq, ev.At, ev.Label, ev.State)
		if ev.Detail != "" {
			line += "  " + ev.Detail
		}
		b.WriteString(line + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func loadConfig(rootOpts *RootOptions) (*config.Config, error) {
	var opts []config.LoaderOption
	if rootOpts.ConfigFile != "" {
		opts = append(opts, config.WithConfigFile(rootOpts.ConfigFile))
	}
	if config.Exists(".env") {
		opts = append(opts, config.WithEnvFile(".env"))
	}
	return config.Load(opts...)
}

func runExample(cmd *cobra.Command, rootOpts *RootOptions, opts *RunOptions, id string) error {
	formatter := newFormatter(rootOpts, cmd)

	cfg, err := loadConfig(rootOpts)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	example, err := catalog.Lookup(id)
	if err != nil {
		return WrapExitError(ExitCommandError, "cannot play example", err)
	}
	logger, err := newLogger(cfg.Log, rootOpts.Verbose, cmd.ErrOrStderr())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build logger", err)
	}

	seed := cfg.Demo.Seed
	if cmd.Flags().Changed("seed") {
		seed = opts.Seed
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, endOfLogHandler := log.WithZapEffectHandler(ctx, 64, logger)
	defer endOfLogHandler()

	mute := sound.NewMute(cfg.Sound.Muted || opts.Mute)
	ctx, endOfSoundHandler := sound.WithEffectHandler(ctx, cfg.Sound.Buffer, cfg.Sound.Workers, mute,
		func(_ context.Context, p sound.Payload) {
			formatter.Notice("\a♪ %s %s", p.Label, p.Cue)
		},
	)
	defer endOfSoundHandler()

	composition := example.Build(catalog.Settings{
		MinDelay:    cfg.Demo.MinDelay,
		MaxDelay:    cfg.Demo.MaxDelay,
		Stagger:     cfg.Demo.Stagger,
		FailureRate: cfg.Demo.FailureRate,
		Seed:        uint64(seed),
		Options:     []visual.Option{visual.WithLogger(logger)},
	})

	recorder, err := timeline.NewRecorder(timeline.WithLogger(logger))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create timeline", err)
	}

	handles := composition.Handles()
	for _, h := range handles {
		defer recorder.Attach(h.Label(), h)()
		defer sound.Attach(ctx, h.Label(), h)()
	}

	started := time.Now()
	playCtx, stopPlayback := context.WithCancel(ctx)
	defer stopPlayback()
	playCtx, endOfConcurrencyHandler := concurrency.WithEffectHandler(playCtx, len(handles))
	for _, h := range handles {
		obs := observe.Bind(playCtx, h)
		label := h.Label()
		concurrency.Eff(playCtx, func(ctx context.Context) {
			render(ctx, formatter, obs, label, started, cfg.Playback.Tick)
		})
	}

	log.LogEff(ctx, log.LogInfo, "playing example", map[string]interface{}{
		"example": example.ID(),
		"seed":    seed,
	})
	outcome := composition.Result.Run(ctx)
	<-outcome.Done()
	// race losers and timed out children settle right after the result
	if err := composition.Children.Wait(ctx); err != nil {
		log.LogEff(ctx, log.LogWarn, "children still running", map[string]interface{}{"error": err.Error()})
	}

	stopPlayback()
	endOfConcurrencyHandler()

	report := buildReport(example.ID(), seed, outcome.State(), recorder)
	if outcome.State().Kind() != visual.KindSucceeded {
		if err := formatter.Failure(report, report.State); err != nil {
			return WrapExitError(ExitCommandError, "failed to write output", err)
		}
		_, runErr := outcome.Await(ctx)
		return WrapExitError(ExitFailure, fmt.Sprintf("%s did not succeed", example.ID()), runErr)
	}
	if err := formatter.Success(report); err != nil {
		return WrapExitError(ExitCommandError, "failed to write output", err)
	}
	return nil
}

// render prints a line for every state change of one handle. With verbose
// output it also prints the running timer on every tick.
func render(
	ctx context.Context,
	formatter *OutputFormatter,
	obs *observe.Observer,
	label string,
	started time.Time,
	tick time.Duration,
) {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	var last *observe.Snapshot
	flush := func(now time.Time) {
		if s := obs.Snapshot(); s != last {
			last = s
			formatter.Live("%8s  %-14s %s", offset(started, now), label, s.State)
		}
	}
	for {
		flush(time.Now())
		select {
		case <-ctx.Done():
			flush(time.Now())
			return
		case <-obs.Done():
			flush(time.Now())
			return
		case <-obs.Changed():
		case now := <-ticker.C:
			if running, ok := last.State.(visual.Running); ok {
				formatter.VerboseLog("%8s  %-14s running for %s",
					offset(started, now), label, visual.Elapsed(running, now).Round(time.Millisecond))
			}
		}
	}
}

func offset(started, now time.Time) string {
	return "+" + now.Sub(started).Round(time.Millisecond).String()
}

func buildReport(id string, seed int64, final visual.State, recorder *timeline.Recorder) Report {
	report := Report{
		Example: id,
		Seed:    seed,
		State:   string(final.Kind()),
		Elapsed: visual.Elapsed(final, time.Now()).Round(time.Millisecond).String(),
		Runs:    recorder.Runs(catalog.ResultName),
	}
	if s, ok := final.(visual.Succeeded); ok && s.Value != nil {
		report.Result = s.Value.String()
	}
	if f, ok := final.(visual.Failed); ok && f.Err != nil {
		report.Result = f.Err.Error()
	}

	var first time.Time
	for _, ev := range recorder.All() {
		if first.IsZero() {
			first = ev.At
		}
		report.Events = append(report.Events, Event{
			Seq:    ev.Seq,
			Label:  ev.Label,
			State:  string(ev.Kind),
			At:     offset(first, ev.At),
			Detail: ev.Detail,
		})
	}
	return report
}
