// Package event provides the synchronous notification bus the engine
// publishes on. Topics are hierarchical dot-separated strings; observers
// subscribe with exact topics or wildcard patterns. Delivery happens on
// the publisher's goroutine, in subscription order, before the command
// that caused the event returns.
package event

import (
	"strings"
	"time"
)

// Wildcard tokens usable in subscription patterns.
const (
	// WildcardSingle matches exactly one segment.
	WildcardSingle = "*"
	// WildcardMulti matches zero or more trailing segments.
	WildcardMulti = "**"
	// Separator divides topic segments.
	Separator = "."
)

// Topic is a hierarchical event type such as "layer.added".
type Topic string

// String returns the topic as a string.
func (t Topic) String() string {
	return string(t)
}

// Segments returns the topic split at separators.
func (t Topic) Segments() []string {
	if t == "" {
		return nil
	}
	return strings.Split(string(t), Separator)
}

// IsValid reports whether the topic is non-empty with no empty segments.
func (t Topic) IsValid() bool {
	if t == "" {
		return false
	}
	for _, seg := range t.Segments() {
		if seg == "" {
			return false
		}
	}
	return true
}

// Matches reports whether the topic satisfies a pattern that may contain
// wildcards.
func (t Topic) Matches(pattern Topic) bool {
	return matchSegments(t.Segments(), pattern.Segments())
}

func matchSegments(topic, pattern []string) bool {
	ti := 0
	for pi := 0; pi < len(pattern); pi++ {
		if pattern[pi] == WildcardMulti {
			for ti <= len(topic) {
				if matchSegments(topic[ti:], pattern[pi+1:]) {
					return true
				}
				ti++
			}
			return false
		}
		if ti >= len(topic) {
			return false
		}
		if pattern[pi] != WildcardSingle && pattern[pi] != topic[ti] {
			return false
		}
		ti++
	}
	return ti == len(topic)
}

// Event is the envelope delivered to handlers.
type Event struct {
	Topic   Topic
	At      time.Time
	Payload any
}
