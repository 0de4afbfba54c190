package agent

import (
	"reflect"
	"testing"
)

func TestParseReplyActions(t *testing.T) {
	raw := "Let me look that up.\n" +
		`ACTION: {"tool": "search_issues", "args": {"jql": "project = PROJ", "limit": 5}}` + "\n" +
		`ACTION: {"tool": "get_issue", "args": {"key": "PROJ-1"}}` + "\n" +
		"I'll report back."

	parsed := ParseReply(raw)
	if parsed.TaskComplete {
		t.Fatal("no sentinel present, TaskComplete should be false")
	}
	if len(parsed.Actions) != 2 {
		t.Fatalf("expected 2 actions, got %d", len(parsed.Actions))
	}
	if parsed.Actions[0].Tool != "search_issues" || parsed.Actions[1].Tool != "get_issue" {
		t.Fatalf("unexpected tools: %+v", parsed.Actions)
	}
	if jql, err := parsed.Actions[0].Args.String("jql"); err != nil || jql != "project = PROJ" {
		t.Fatalf("jql arg = %q, %v", jql, err)
	}
	if parsed.Display != "Let me look that up.\nI'll report back." {
		t.Fatalf("unexpected display: %q", parsed.Display)
	}
}

func TestParseReplyMalformedSkipped(t *testing.T) {
	raw := "Working on it.\n" +
		`ACTION: {"tool": "search_issues", "args": {` + "\n" + // truncated JSON
		`ACTION: {"args": {"key": "PROJ-1"}}` + "\n" + // no tool name
		`ACTION: {"tool": "get_issue", "args": {"key": "PROJ-1"}}`

	parsed := ParseReply(raw)
	if len(parsed.Actions) != 1 {
		t.Fatalf("expected 1 valid action, got %d", len(parsed.Actions))
	}
	if parsed.Actions[0].Tool != "get_issue" {
		t.Fatalf("wrong surviving action: %+v", parsed.Actions[0])
	}
}

func TestParseReplyZeroActionsIsValid(t *testing.T) {
	parsed := ParseReply("Which project do you mean?")
	if len(parsed.Actions) != 0 || parsed.TaskComplete {
		t.Fatalf("clarifying question should parse clean: %+v", parsed)
	}
	if parsed.Display != "Which project do you mean?" {
		t.Fatalf("unexpected display: %q", parsed.Display)
	}
}

func TestParseReplySentinel(t *testing.T) {
	parsed := ParseReply("All done. TASK_COMPLETE")
	if !parsed.TaskComplete {
		t.Fatal("sentinel not detected")
	}
	if parsed.Display != "All done." {
		t.Fatalf("sentinel should be stripped from display, got %q", parsed.Display)
	}
}

func TestParseReplyActionsAndSentinelTogether(t *testing.T) {
	raw := `ACTION: {"tool": "comment_issue", "args": {"key": "PROJ-1", "body": "done"}}` + "\nTASK_COMPLETE"
	parsed := ParseReply(raw)
	if len(parsed.Actions) != 1 || !parsed.TaskComplete {
		t.Fatalf("expected action plus completion flag: %+v", parsed)
	}
}

func TestParseReplyIdempotent(t *testing.T) {
	raw := "Text\n" +
		`ACTION: {"tool": "search_issues", "args": {"jql": "x"}}` + "\nTASK_COMPLETE"

	first := ParseReply(raw)
	second := ParseReply(raw)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("parsing is not idempotent:\n%+v\n%+v", first, second)
	}
}
