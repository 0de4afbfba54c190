package agent

import (
	"fmt"
	"strings"

	"jirapilot/internal/tool"
)

// DefaultBulkThreshold is the mutating-action count above which a batch
// needs bulk confirmation.
const DefaultBulkThreshold = 5

// Verdict is the guard's classification of a proposed batch.
type Verdict struct {
	NeedsConfirmation bool
	Reason            string
	Detail            string
}

// TagLookup resolves a tool name to its behavior tags.
type TagLookup func(name string) (tool.Tags, bool)

// Guard classifies action batches before execution. Rules are a table
// evaluated in order; the first match wins.
type Guard struct {
	tags      TagLookup
	threshold int
	rules     []guardRule
}

type guardRule struct {
	reason string
	match  func(batch batchStats) (bool, string)
}

type batchStats struct {
	total       int
	mutating    int
	destructive []string
}

// NewGuard builds a guard over the given tag lookup. A non-positive
// threshold falls back to DefaultBulkThreshold.
func NewGuard(tags TagLookup, bulkThreshold int) *Guard {
	if bulkThreshold <= 0 {
		bulkThreshold = DefaultBulkThreshold
	}
	g := &Guard{tags: tags, threshold: bulkThreshold}
	g.rules = []guardRule{
		{
			reason: "destructive",
			match: func(s batchStats) (bool, string) {
				if len(s.destructive) == 0 {
					return false, ""
				}
				return true, fmt.Sprintf("batch contains destructive actions: %s",
					strings.Join(s.destructive, ", "))
			},
		},
		{
			reason: "bulk",
			match: func(s batchStats) (bool, string) {
				if s.mutating <= g.threshold {
					return false, ""
				}
				return true, fmt.Sprintf("batch contains %d mutating actions (threshold %d)",
					s.mutating, g.threshold)
			},
		},
	}
	return g
}

// Evaluate classifies a batch. A single destructive action requires
// confirmation regardless of batch size; unknown tools count as mutating
// because the catalog will reject them anyway.
func (g *Guard) Evaluate(actions []Action) Verdict {
	stats := batchStats{total: len(actions)}
	for _, a := range actions {
		tags, known := g.tags(a.Tool)
		if !known {
			continue
		}
		if tags.Mutating {
			stats.mutating++
		}
		if tags.Destructive {
			stats.destructive = append(stats.destructive, a.Tool)
		}
	}

	for _, rule := range g.rules {
		if hit, detail := rule.match(stats); hit {
			return Verdict{NeedsConfirmation: true, Reason: rule.reason, Detail: detail}
		}
	}
	return Verdict{}
}
