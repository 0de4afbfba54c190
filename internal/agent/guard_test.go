package agent

import (
	"testing"

	"jirapilot/internal/tool"
)

func testTags(name string) (tool.Tags, bool) {
	switch name {
	case "delete_issue":
		return tool.Tags{Mutating: true, Destructive: true}, true
	case "update_issue", "assign_issue", "comment_issue", "transition_issue":
		return tool.Tags{Mutating: true}, true
	case "search_issues", "get_issue":
		return tool.Tags{}, true
	default:
		return tool.Tags{}, false
	}
}

func mutatingBatch(n int) []Action {
	batch := make([]Action, n)
	for i := range batch {
		batch[i] = Action{Tool: "update_issue"}
	}
	return batch
}

func TestGuardDestructiveAlwaysConfirms(t *testing.T) {
	g := NewGuard(testTags, DefaultBulkThreshold)

	// A single-item delete batch still requires confirmation.
	v := g.Evaluate([]Action{{Tool: "delete_issue"}})
	if !v.NeedsConfirmation || v.Reason != "destructive" {
		t.Fatalf("verdict = %+v", v)
	}

	// Destructive wins over bulk when both apply.
	batch := append(mutatingBatch(10), Action{Tool: "delete_issue"})
	v = g.Evaluate(batch)
	if !v.NeedsConfirmation || v.Reason != "destructive" {
		t.Fatalf("verdict = %+v", v)
	}
}

func TestGuardBulkThresholdBoundary(t *testing.T) {
	g := NewGuard(testTags, 5)

	if v := g.Evaluate(mutatingBatch(5)); v.NeedsConfirmation {
		t.Fatalf("5 mutating actions at threshold 5 should pass: %+v", v)
	}
	v := g.Evaluate(mutatingBatch(6))
	if !v.NeedsConfirmation || v.Reason != "bulk" {
		t.Fatalf("6 mutating actions should need bulk confirmation: %+v", v)
	}
}

func TestGuardReadsPassThrough(t *testing.T) {
	g := NewGuard(testTags, 5)
	batch := []Action{{Tool: "search_issues"}, {Tool: "get_issue"}}
	if v := g.Evaluate(batch); v.NeedsConfirmation {
		t.Fatalf("read-only batch should pass: %+v", v)
	}
	// Reads don't count toward the bulk threshold however many there are.
	many := make([]Action, 20)
	for i := range many {
		many[i] = Action{Tool: "search_issues"}
	}
	if v := g.Evaluate(many); v.NeedsConfirmation {
		t.Fatalf("20 reads should pass: %+v", v)
	}
}

func TestGuardDefaultThreshold(t *testing.T) {
	g := NewGuard(testTags, 0)
	if v := g.Evaluate(mutatingBatch(6)); !v.NeedsConfirmation {
		t.Fatal("zero threshold should fall back to the default of 5")
	}
}
