package effectmodel

import "errors"

type EffectEnum string

const (
	EffectLog         EffectEnum = "effect_ive_visual_effect_enum_log"
	EffectConcurrency EffectEnum = "effect_ive_visual_effect_enum_concurrency"
	EffectSound       EffectEnum = "effect_ive_visual_effect_enum_sound"
)

var ErrNoEffectHandler = errors.New("no effect handler registered for this effect")

type EffectScopeConfig struct {
	BufferSize int // default: 1
	NumWorkers int // default: 1
}

func NewEffectScopeConfig(bufferSize int, numWorkers int) EffectScopeConfig {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	if numWorkers <= 0 {
		numWorkers = 1
	}
	return EffectScopeConfig{
		BufferSize: bufferSize,
		NumWorkers: numWorkers,
	}
}

// Partitionable payloads are routed to a worker lane by PartitionKey.
// Payloads sharing a key are handled in the order they were performed.
type Partitionable interface {
	PartitionKey() string
}
