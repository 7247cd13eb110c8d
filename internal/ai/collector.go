// Package ai implements the AI Collector (C8) and the transport
// implementations (Anthropic, OpenAI, Ollama) that deliver a Pass 1
// collector's accumulated prompts to a provider and return answers, or
// defer to the user via a printed prompt document.
package ai

import (
	"sync"

	"github.com/hypergen/hypergen/internal/ports"
)

// Collector accumulates @ai(key) entries during Pass 1. It exclusively owns
// entries for the duration of one recipe run and is cleared between runs
// (process-wide state S, per DESIGN NOTES: explicit init, clear at run
// boundary). Collection-mode renders are serialized by the executor
// (maxConcurrency=1 for Pass 1), but Collector still guards its map since a
// future caller could relax that.
type Collector struct {
	mu      sync.Mutex
	byKey   map[string]ports.AiEntry
	ordered []string
}

// NewCollector returns an empty collector, ready for one Pass 1 run.
func NewCollector() *Collector {
	return &Collector{byKey: make(map[string]ports.AiEntry)}
}

// Record implements ports.Collector. A duplicate key overwrites in place
// but keeps its original position, matching "unique within recipe run".
func (c *Collector) Record(entry ports.AiEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.byKey[entry.Key]; !exists {
		c.ordered = append(c.ordered, entry.Key)
	}
	c.byKey[entry.Key] = entry
}

// Entries returns the accumulated entries in first-recorded order.
func (c *Collector) Entries() []ports.AiEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ports.AiEntry, 0, len(c.ordered))
	for _, k := range c.ordered {
		out = append(out, c.byKey[k])
	}
	return out
}

// Empty reports whether Pass 1 recorded nothing, meaning the recipe never
// used @ai and the two-pass protocol can skip straight to a single
// materializing run.
func (c *Collector) Empty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.ordered) == 0
}

// Clear releases the collector's entries, called at the run boundary so a
// stale collector never leaks answers across recipe runs.
func (c *Collector) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byKey = make(map[string]ports.AiEntry)
	c.ordered = nil
}
