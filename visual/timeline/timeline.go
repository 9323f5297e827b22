// Package timeline records the transitions of execution handles so they can be
// drawn as a timeline: one dot per emission, one span per run, every retry
// visible as its own run.
package timeline

import (
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	memdb "github.com/hashicorp/go-memdb"
	"github.com/on-the-ground/effect_ive_visual/effects"
	"github.com/on-the-ground/effect_ive_visual/visual"
	"github.com/on-the-ground/effect_ive_visual/visual/observe"
	"go.uber.org/zap"
)

const (
	table          = "events"
	indexID        = "id"
	indexLabel     = "label"
	indexLabelKind = "label_kind"
)

// Event is one transition of one handle.
type Event struct {
	ID     string
	Seq    uint64
	Label  string
	Kind   visual.Kind
	At     time.Time
	Detail string
}

func schema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			table: {
				Name: table,
				Indexes: map[string]*memdb.IndexSchema{
					indexID: {
						Name:    indexID,
						Unique:  true,
						Indexer: &memdb.UintFieldIndex{Field: "Seq"},
					},
					indexLabel: {
						Name:    indexLabel,
						Indexer: &memdb.StringFieldIndex{Field: "Label"},
					},
					indexLabelKind: {
						Name: indexLabelKind,
						Indexer: &memdb.CompoundIndex{
							Indexes: []memdb.Indexer{
								&memdb.StringFieldIndex{Field: "Label"},
								&memdb.StringFieldIndex{Field: "Kind"},
							},
						},
					},
				},
			},
		},
	}
}

type Recorder struct {
	db     *memdb.MemDB
	seq    atomic.Uint64
	clock  effects.Clock
	logger *zap.Logger
}

type Option func(*Recorder)

// WithClock stamps idle events. Other events carry the times of their state.
func WithClock(clock effects.Clock) Option {
	return func(r *Recorder) { r.clock = clock }
}

func WithLogger(logger *zap.Logger) Option {
	return func(r *Recorder) { r.logger = logger }
}

func NewRecorder(opts ...Option) (*Recorder, error) {
	db, err := memdb.NewMemDB(schema())
	if err != nil {
		return nil, fmt.Errorf("timeline: create store: %w", err)
	}
	r := &Recorder{db: db, clock: effects.SystemClock, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Attach records every transition src reports under label. The state src
// replays on subscription is not a transition and is not recorded.
func (r *Recorder) Attach(label string, src observe.Subscribable) (detach func()) {
	replayed := false
	return src.Subscribe(func(s visual.State) {
		if !replayed {
			replayed = true
			return
		}
		if err := r.Record(label, s); err != nil {
			r.logger.Error("failed to record transition",
				zap.String("label", label),
				zap.String("state", string(s.Kind())),
				zap.Error(err),
			)
		}
	})
}

// Record stores s as the next event of label.
func (r *Recorder) Record(label string, s visual.State) error {
	ev := Event{
		ID:    uuid.NewString(),
		Seq:   r.seq.Add(1),
		Label: label,
		Kind:  s.Kind(),
		At:    r.clock.Now(),
	}
	switch s := s.(type) {
	case visual.Running:
		ev.At = s.StartedAt
	case visual.Succeeded:
		ev.At = s.EndedAt
		if s.Value != nil {
			ev.Detail = s.Value.String()
		}
	case visual.Failed:
		ev.At = s.EndedAt
		if s.Err != nil {
			ev.Detail = s.Err.Error()
		}
	case visual.Interrupted:
		ev.At = s.EndedAt
	}

	txn := r.db.Txn(true)
	defer txn.Abort()
	if err := txn.Insert(table, &ev); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

// Events returns the events of label in recording order.
func (r *Recorder) Events(label string) []Event {
	return r.query(indexLabel, label)
}

// All returns every event in recording order.
func (r *Recorder) All() []Event {
	return r.query(indexID)
}

func (r *Recorder) Count(label string, kind visual.Kind) int {
	return len(r.query(indexLabelKind, label, string(kind)))
}

// Runs is the number of runs label has started.
func (r *Recorder) Runs(label string) int {
	return r.Count(label, visual.KindRunning)
}

func (r *Recorder) Last(label string) (Event, bool) {
	events := r.Events(label)
	if len(events) == 0 {
		return Event{}, false
	}
	return events[len(events)-1], true
}

// Clear drops the events of label.
func (r *Recorder) Clear(label string) error {
	txn := r.db.Txn(true)
	defer txn.Abort()
	if _, err := txn.DeleteAll(table, indexLabel, label); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

func (r *Recorder) query(index string, args ...interface{}) []Event {
	txn := r.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(table, index, args...)
	if err != nil {
		r.logger.Error("failed to query timeline", zap.String("index", index), zap.Error(err))
		return nil
	}

	var events []Event
	for obj := it.Next(); obj != nil; obj = it.Next() {
		events = append(events, *obj.(*Event))
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Seq < events[j].Seq })
	return events
}
