// Package catalog holds the demo compositions effectviz can play.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/on-the-ground/effect_ive_visual/visual"
	"github.com/on-the-ground/effect_ive_visual/visual/combinator"
	"github.com/on-the-ground/effect_ive_visual/visual/compose"
	"github.com/on-the-ground/effect_ive_visual/visual/result"
)

// ResultName is the label of the handle running a demo's composite computation.
const ResultName = "result"

type Settings struct {
	MinDelay time.Duration
	MaxDelay time.Duration
	// Stagger shifts the delay window of each successive source, so the
	// sources of one demo tend to settle one after another.
	Stagger time.Duration
	// FailureRate is the chance that a flaky source fails.
	FailureRate float64
	Seed        uint64
	Options     []visual.Option
}

// Composition is a built demo: the children shown side by side and the handle
// that composes them.
type Composition struct {
	Children *compose.Group
	Order    []string
	Result   *visual.Handle
}

// Handles lists the children in display order followed by the result handle.
func (c *Composition) Handles() []*visual.Handle {
	handles := make([]*visual.Handle, 0, len(c.Order)+1)
	for _, name := range c.Order {
		handles = append(handles, c.Children.MustHandle(name))
	}
	return append(handles, c.Result)
}

type Example struct {
	Name        string
	Variant     string
	Description string
	build       func(*dice, Settings) *Composition
}

func (e Example) ID() string { return ExampleID(e.Name, e.Variant) }

func (e Example) Build(s Settings) *Composition {
	return e.build(newDice(s), s)
}

var examples = []Example{
	{
		Name:        "Effect.all",
		Description: "Run effects one after another and collect every result, failing on the first failure.",
		build:       buildAll,
	},
	{
		Name:        "Effect.race",
		Description: "Run effects at the same time; the first success wins and the rest are interrupted.",
		build:       buildRace,
	},
	{
		Name:        "Effect.firstSuccessOf",
		Description: "Try fallbacks in order until one of them succeeds.",
		build:       buildFirstSuccessOf,
	},
	{
		Name:        "Effect.retry",
		Description: "Re-run a flaky effect until it succeeds or the retries run out.",
		build:       buildRetry,
	},
	{
		Name:        "Effect.timeout",
		Description: "Fail an effect that takes longer than its deadline.",
		build:       buildTimeout,
	},
	{
		Name:        "Stream.range",
		Description: "Emit a range of numbers and collect them into a chunk.",
		build:       buildStreamRange,
	},
}

// Examples returns every example ordered by id.
func Examples() []Example {
	out := append([]Example(nil), examples...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

func Lookup(id string) (Example, error) {
	for _, e := range examples {
		if e.ID() == id {
			return e, nil
		}
	}
	return Example{}, fmt.Errorf("unknown example %q", id)
}

// dice draws delays and failures. Factories of different handles run
// concurrently, so draws are serialized.
type dice struct {
	mu  sync.Mutex
	rnd *rand.Rand
	lo  time.Duration
	hi  time.Duration
}

func newDice(s Settings) *dice {
	seed := s.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &dice{
		rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		lo:  s.MinDelay,
		hi:  s.MaxDelay,
	}
}

func (d *dice) delay() time.Duration {
	return d.delayBetween(d.lo, d.hi)
}

func (d *dice) delayBetween(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return lo + time.Duration(d.rnd.Int64N(int64(hi-lo)))
}

func (d *dice) fails(rate float64) bool {
	if rate <= 0 {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rnd.Float64() < rate
}

// Window is the delay range of the i-th source of a demo, counting from zero.
func (s Settings) Window(i int) (lo, hi time.Duration) {
	shift := time.Duration(i) * s.Stagger
	return s.MinDelay + shift, s.MaxDelay + shift
}

// flaky resolves with r after a delay within [lo, hi) unless the dice say it fails.
func flaky(d *dice, lo, hi time.Duration, rate float64, r result.Result, failure string) visual.Factory {
	return func() visual.Computation {
		delay := d.delayBetween(lo, hi)
		failed := d.fails(rate)
		return func(ctx context.Context) (result.Result, error) {
			if _, err := combinator.Sleep(delay, nil)(ctx); err != nil {
				return nil, err
			}
			if failed {
				return nil, errors.New(failure)
			}
			return r, nil
		}
	}
}

// composite wires the children, in order, into the result handle.
func composite(
	children *compose.Group,
	order []string,
	s Settings,
	build func(...visual.Computation) visual.Computation,
) *Composition {
	cs := make([]visual.Computation, 0, len(order))
	for _, name := range order {
		cs = append(cs, children.MustHandle(name).Computation())
	}
	return &Composition{
		Children: children,
		Order:    order,
		Result: visual.New(ResultName, func() visual.Computation {
			return build(cs...)
		}, s.Options...),
	}
}

var weatherOrder = []string{"weatherAPI", "localSensor", "backupService"}

type weatherSource struct {
	name    string
	degrees float64
	source  string
}

var weather = []weatherSource{
	{"weatherAPI", 72, "Weather API"},
	{"localSensor", 73, "Local Sensor"},
	{"backupService", 74, "Backup Service"},
}

func weatherSources(d *dice, s Settings) *compose.Group {
	entries := make(map[string]visual.Factory, len(weather))
	for i, w := range weather {
		lo, hi := s.Window(i)
		entries[w.name] = flaky(d, lo, hi, s.FailureRate,
			result.Temperature{Degrees: w.degrees, Source: w.source}, w.source+" Down")
	}
	return compose.New(entries, s.Options...)
}

func buildAll(d *dice, s Settings) *Composition {
	return composite(weatherSources(d, s), weatherOrder, s, combinator.All)
}

func buildRace(d *dice, s Settings) *Composition {
	return composite(weatherSources(d, s), weatherOrder, s, combinator.Race)
}

func buildFirstSuccessOf(d *dice, s Settings) *Composition {
	return composite(weatherSources(d, s), weatherOrder, s, combinator.FirstSuccessOf)
}

func buildRetry(d *dice, s Settings) *Composition {
	children := compose.New(map[string]visual.Factory{
		"attempt": flaky(d, s.MinDelay, s.MaxDelay, s.FailureRate, result.Emoji{Value: "🌤️"}, "Connection reset"),
	}, s.Options...)
	return composite(children, []string{"attempt"}, s, func(cs ...visual.Computation) visual.Computation {
		return combinator.Retry(cs[0], combinator.Policy{Times: 3, Delay: s.MinDelay / 2, Factor: 2})
	})
}

func buildTimeout(d *dice, s Settings) *Composition {
	children := compose.New(map[string]visual.Factory{
		"slowQuery": func() visual.Computation {
			return combinator.Sleep(d.delayBetween(s.MinDelay, 2*s.MaxDelay), result.Text{Value: "rows loaded"})
		},
	}, s.Options...)
	return composite(children, []string{"slowQuery"}, s, func(cs ...visual.Computation) visual.Computation {
		return combinator.Timeout(cs[0], s.MaxDelay)
	})
}

func buildStreamRange(d *dice, s Settings) *Composition {
	entries := make(map[string]visual.Factory, 5)
	order := make([]string, 0, 5)
	for n := 1; n <= 5; n++ {
		name := fmt.Sprintf("emit%d", n)
		value := result.Number{Value: float64(n)}
		entries[name] = func() visual.Computation {
			return combinator.Sleep(d.delay(), value)
		}
		order = append(order, name)
	}
	children := compose.New(entries, s.Options...)
	return composite(children, order, s, func(cs ...visual.Computation) visual.Computation {
		collect := combinator.All(cs...)
		return func(ctx context.Context) (result.Result, error) {
			r, err := collect(ctx)
			if err != nil {
				return nil, err
			}
			return result.Numbers(result.Values(r.(result.Chunk))...), nil
		}
	})
}
