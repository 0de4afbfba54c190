package agent

import (
	"fmt"
	"sort"
	"strings"

	"jirapilot/internal/tool"
	"jirapilot/internal/value"
)

// IssueRef identifies an issue visible in the UI.
type IssueRef struct {
	Key     string `json:"key"`
	Summary string `json:"summary"`
}

// Snapshot is the read-only external state pulled at the start of each
// iteration: what the user currently sees and has selected.
type Snapshot struct {
	Selection        []IssueRef          `json:"selection"`
	Filters          map[string]string   `json:"filters"`
	VisibleIssues    []IssueRef          `json:"visible_issues"`
	AvailableOptions map[string][]string `json:"available_options"`
}

// StateProvider supplies the current UI state. Implemented by the app layer.
type StateProvider interface {
	Snapshot() Snapshot
}

// Context is the per-iteration snapshot handed to the model. It is built
// fresh every iteration and never retained, so the model always reasons
// from current truth.
type Context struct {
	prompt string
}

// Prompt returns the serialized prompt content. Identical inputs to
// BuildContext produce identical output.
func (c Context) Prompt() string {
	return c.prompt
}

// BuildContext assembles the model's reasoning input from the goal, the
// accumulated history and the current external state. Pure: no I/O, no
// clock, map iteration in sorted key order.
func BuildContext(goal string, history []HistoryEntry, snap Snapshot, tools []tool.Spec) Context {
	var b strings.Builder

	b.WriteString("You are the automation engine of a Jira desktop client.\n")
	b.WriteString("Accomplish the user's goal by invoking tools, one batch per reply.\n\n")
	b.WriteString("To invoke a tool, emit a line of the form:\n")
	b.WriteString(`  ACTION: {"tool": "<name>", "args": {...}}` + "\n")
	b.WriteString("When the goal is fully accomplished, include the token " + completionSentinel + ".\n")
	b.WriteString("If you need information you don't have yet (e.g. an issue key), search first,\n")
	b.WriteString("reply with only that action, and plan the rest after seeing the result.\n")
	b.WriteString("References like \"this\", \"it\" or \"these\" always mean the CURRENT selection\n")
	b.WriteString("shown below, never items from earlier steps.\n\n")

	b.WriteString("## Tools\n")
	for _, spec := range tools {
		fmt.Fprintf(&b, "- %s: %s\n", spec.Name, spec.Description)
		for _, p := range spec.Params {
			req := "optional"
			if p.Required {
				req = "required"
			}
			fmt.Fprintf(&b, "    %s (%s, %s): %s\n", p.Name, p.Type, req, p.Description)
		}
	}

	b.WriteString("\n## Goal\n")
	b.WriteString(goal)
	b.WriteString("\n")

	writeSnapshot(&b, snap)
	writeHistory(&b, history)

	return Context{prompt: b.String()}
}

func writeSnapshot(b *strings.Builder, snap Snapshot) {
	b.WriteString("\n## Current state\n")

	if len(snap.Selection) == 0 {
		b.WriteString("Selection: none\n")
	} else {
		b.WriteString("Selection:\n")
		for _, ref := range snap.Selection {
			fmt.Fprintf(b, "- %s: %s\n", ref.Key, ref.Summary)
		}
	}

	if len(snap.Filters) > 0 {
		b.WriteString("Active filters:\n")
		for _, k := range sortedKeys(snap.Filters) {
			fmt.Fprintf(b, "- %s = %s\n", k, snap.Filters[k])
		}
	}

	if len(snap.VisibleIssues) > 0 {
		b.WriteString("Visible issues:\n")
		for _, ref := range snap.VisibleIssues {
			fmt.Fprintf(b, "- %s: %s\n", ref.Key, ref.Summary)
		}
	}

	if len(snap.AvailableOptions) > 0 {
		b.WriteString("Available options:\n")
		keys := make([]string, 0, len(snap.AvailableOptions))
		for k := range snap.AvailableOptions {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(b, "- %s: %s\n", k, strings.Join(snap.AvailableOptions[k], ", "))
		}
	}
}

func writeHistory(b *strings.Builder, history []HistoryEntry) {
	if len(history) == 0 {
		return
	}

	b.WriteString("\n## Actions taken so far\n")
	for i, entry := range history {
		outcome := "FAILED"
		if entry.Result.Success {
			outcome = "ok"
		}
		fmt.Fprintf(b, "%d. %s %s -> %s", i+1, entry.Action.Tool, renderArgs(entry.Action.Args), outcome)
		if entry.Result.Message != "" {
			fmt.Fprintf(b, ": %s", entry.Result.Message)
		}
		b.WriteString("\n")
		if len(entry.Result.Data) > 0 {
			fmt.Fprintf(b, "   data: %s\n", renderData(entry.Result.Data))
		}
	}
}

func renderArgs(args value.Map) string {
	return value.FromMap(args).Render()
}

func renderData(data map[string]value.Value) string {
	return value.FromMap(value.Map(data)).Render()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
