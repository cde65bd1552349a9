// Package id provides layer identifier generation strategies. Identifiers
// are opaque strings, unique for the lifetime of a document session. The
// sequential strategy never rewinds: history restores record snapshots but
// leaves the allocator's counter untouched, so ids are never reused even
// across undo.
package id

import (
	"crypto/rand"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// Generator produces a new unique identifier on each call. Generators are
// safe for concurrent use.
type Generator func() string

const nanoAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// DefaultNanoLength is the id length used by Nano when none is configured.
const DefaultNanoLength = 12

// Sequential returns a generator that yields prefix-1, prefix-2, and so on.
// The counter only ever advances.
func Sequential(prefix string) Generator {
	var n atomic.Uint64
	return func() string {
		return fmt.Sprintf("%s-%d", prefix, n.Add(1))
	}
}

// Nano returns a generator that yields random base-36 strings of the given
// length, suitable when ids must not reveal creation order.
func Nano(length int) Generator {
	if length <= 0 {
		length = DefaultNanoLength
	}
	return func() string {
		buf := make([]byte, length)
		if _, err := rand.Read(buf); err != nil {
			// crypto/rand only fails when the platform source is broken.
			panic(fmt.Sprintf("id: random source unavailable: %v", err))
		}
		for i, b := range buf {
			buf[i] = nanoAlphabet[int(b)%len(nanoAlphabet)]
		}
		return string(buf)
	}
}

// UUID returns a generator that yields RFC 4122 random UUIDs.
func UUID() Generator {
	return func() string {
		return uuid.NewString()
	}
}

// Prefixed wraps a generator so every id carries a fixed prefix, separated
// by a dash.
func Prefixed(prefix string, gen Generator) Generator {
	return func() string {
		return prefix + "-" + gen()
	}
}

// FromStrategy builds a generator from a configuration token. Recognized
// strategies are "sequential", "nano", and "uuid".
func FromStrategy(strategy, prefix string) (Generator, error) {
	switch strategy {
	case "", "sequential":
		if prefix == "" {
			prefix = "layer"
		}
		return Sequential(prefix), nil
	case "nano":
		gen := Nano(DefaultNanoLength)
		if prefix != "" {
			gen = Prefixed(prefix, gen)
		}
		return gen, nil
	case "uuid":
		gen := UUID()
		if prefix != "" {
			gen = Prefixed(prefix, gen)
		}
		return gen, nil
	default:
		return nil, fmt.Errorf("unknown id strategy %q", strategy)
	}
}
