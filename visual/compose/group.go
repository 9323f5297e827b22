// Package compose groups execution handles that are displayed side by side.
//
// A Group owns one visual.Handle per name. A Registry hands out the same Group
// for the same set of names, so a page that re-renders keeps its handles and
// their state.
package compose

import (
	"context"
	"fmt"
	"sort"

	"github.com/on-the-ground/effect_ive_visual/visual"
)

type Group struct {
	names   []string
	handles map[string]*visual.Handle
}

// New creates one idle handle per entry, labelled with the entry's name.
// No factory is invoked.
func New(entries map[string]visual.Factory, opts ...visual.Option) *Group {
	g := &Group{
		names:   sortedNames(entries),
		handles: make(map[string]*visual.Handle, len(entries)),
	}
	for _, name := range g.names {
		g.handles[name] = visual.New(name, entries[name], opts...)
	}
	return g
}

func (g *Group) Handle(name string) (*visual.Handle, bool) {
	h, ok := g.handles[name]
	return h, ok
}

func (g *Group) MustHandle(name string) *visual.Handle {
	h, ok := g.handles[name]
	if !ok {
		panic(fmt.Sprintf("compose: no handle named %q", name))
	}
	return h
}

// Names returns the handle names in sorted order.
func (g *Group) Names() []string {
	return append([]string(nil), g.names...)
}

func (g *Group) Len() int { return len(g.names) }

// Handles returns a copy of the name to handle mapping.
func (g *Group) Handles() map[string]*visual.Handle {
	out := make(map[string]*visual.Handle, len(g.handles))
	for name, h := range g.handles {
		out[name] = h
	}
	return out
}

// RunAll starts every handle. Handles already running keep their in-flight run.
func (g *Group) RunAll(ctx context.Context) map[string]*visual.Outcome {
	outcomes := make(map[string]*visual.Outcome, len(g.names))
	for _, name := range g.names {
		outcomes[name] = g.handles[name].Run(ctx)
	}
	return outcomes
}

func (g *Group) ResetAll() {
	for _, name := range g.names {
		g.handles[name].Reset()
	}
}

func (g *Group) InterruptAll() {
	for _, name := range g.names {
		g.handles[name].Interrupt()
	}
}

// Wait blocks until no handle of the group is running or ctx ends.
func (g *Group) Wait(ctx context.Context) error {
	wake := make(chan struct{}, 1)
	for _, name := range g.names {
		unsubscribe := g.handles[name].Subscribe(func(s visual.State) {
			if s.Kind() != visual.KindRunning {
				select {
				case wake <- struct{}{}:
				default:
				}
			}
		})
		defer unsubscribe()
	}

	for {
		if !g.anyRunning() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-wake:
		}
	}
}

func (g *Group) anyRunning() bool {
	for _, h := range g.handles {
		if h.State().Kind() == visual.KindRunning {
			return true
		}
	}
	return false
}

// Registry memoizes groups by their set of names.
type Registry struct {
	memo *shapeMemo[*Group]
	opts []visual.Option
}

// NewRegistry keeps at least maxShapes recently used groups. A shape that
// falls out of the last two generations of maxShapes is forgotten, and the
// next Use of it builds a new group with idle handles. A maxShapes of zero
// keeps every group for the life of the registry.
// The options apply to every handle the registry creates.
func NewRegistry(maxShapes uint32, opts ...visual.Option) *Registry {
	return &Registry{
		memo: newShapeMemo[*Group](maxShapes),
		opts: opts,
	}
}

// Use returns the group for the names of entries, creating it on first use.
// Factories passed for a shape that already has a group are ignored.
func (r *Registry) Use(entries map[string]visual.Factory) *Group {
	return r.memo.loadOrStore(sortedNames(entries), func() *Group {
		return New(entries, r.opts...)
	})
}

func sortedNames(entries map[string]visual.Factory) []string {
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
