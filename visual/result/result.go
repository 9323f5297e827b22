// Package result holds the values a visualized computation can produce.
//
// A Result is what a succeeded state displays: a number, a piece of text, an
// emoji, a temperature reading or a chunk of further results. The set of
// variants is closed.
package result

import (
	"encoding/json"
	"strconv"
	"strings"
)

type Kind string

const (
	KindNumber      Kind = "number"
	KindText        Kind = "text"
	KindEmoji       Kind = "emoji"
	KindTemperature Kind = "temperature"
	KindChunk       Kind = "chunk"
)

type Result interface {
	Kind() Kind
	String() string
	json.Marshaler
	sealed()
}

type Number struct {
	Value float64
}

func (Number) Kind() Kind { return KindNumber }
func (n Number) String() string {
	return formatFloat(n.Value)
}
func (n Number) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind  Kind    `json:"kind"`
		Value float64 `json:"value"`
	}{KindNumber, n.Value})
}
func (Number) sealed() {}

type Text struct {
	Value string
}

func (Text) Kind() Kind       { return KindText }
func (t Text) String() string { return t.Value }
func (t Text) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind  Kind   `json:"kind"`
		Value string `json:"value"`
	}{KindText, t.Value})
}
func (Text) sealed() {}

type Emoji struct {
	Value string
}

func (Emoji) Kind() Kind       { return KindEmoji }
func (e Emoji) String() string { return e.Value }
func (e Emoji) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind  Kind   `json:"kind"`
		Value string `json:"value"`
	}{KindEmoji, e.Value})
}
func (Emoji) sealed() {}

// Temperature is a reading together with where it came from,
// rendered as "72° from Weather API".
type Temperature struct {
	Degrees float64
	Source  string
}

func (Temperature) Kind() Kind { return KindTemperature }
func (t Temperature) String() string {
	s := formatFloat(t.Degrees) + "°"
	if t.Source != "" {
		s += " from " + t.Source
	}
	return s
}
func (t Temperature) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind    Kind    `json:"kind"`
		Degrees float64 `json:"degrees"`
		Source  string  `json:"source,omitempty"`
	}{KindTemperature, t.Degrees, t.Source})
}
func (Temperature) sealed() {}

// Chunk is an immutable ordered sequence of results.
type Chunk struct {
	items []Result
}

// NewChunk copies items; later changes to the argument slice are not seen.
func NewChunk(items ...Result) Chunk {
	return Chunk{items: append([]Result(nil), items...)}
}

func (Chunk) Kind() Kind { return KindChunk }

func (c Chunk) Len() int { return len(c.items) }

func (c Chunk) Items() []Result {
	return append([]Result(nil), c.items...)
}

// String renders nil items as "nil".
func (c Chunk) String() string {
	parts := make([]string, len(c.items))
	for i, item := range c.items {
		if item == nil {
			parts[i] = "nil"
			continue
		}
		parts[i] = item.String()
	}
	return "Chunk(" + strings.Join(parts, ", ") + ")"
}

func (c Chunk) MarshalJSON() ([]byte, error) {
	items := c.items
	if items == nil {
		items = []Result{}
	}
	return json.Marshal(struct {
		Kind  Kind     `json:"kind"`
		Items []Result `json:"items"`
	}{KindChunk, items})
}
func (Chunk) sealed() {}

// Numbers builds a chunk of Number results.
func Numbers(values ...float64) Chunk {
	items := make([]Result, len(values))
	for i, v := range values {
		items[i] = Number{Value: v}
	}
	return Chunk{items: items}
}

// Values collects the raw numbers of a chunk, skipping any non-number item.
func Values(c Chunk) []float64 {
	out := make([]float64, 0, len(c.items))
	for _, item := range c.items {
		if n, ok := item.(Number); ok {
			out = append(out, n.Value)
		}
	}
	return out
}

// Equal reports structural equality. Chunks compare item by item.
func Equal(a, b Result) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ca, aIsChunk := a.(Chunk)
	cb, bIsChunk := b.(Chunk)
	if aIsChunk || bIsChunk {
		if !aIsChunk || !bIsChunk || ca.Len() != cb.Len() {
			return false
		}
		for i := range ca.items {
			if !Equal(ca.items[i], cb.items[i]) {
				return false
			}
		}
		return true
	}
	return a == b
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
