package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"jirapilot/internal/tool"
	"jirapilot/internal/value"
)

// fakeTool executes a canned function so loop tests can script outcomes.
type fakeTool struct {
	name string
	tags tool.Tags
	fn   func(args value.Map) *tool.Result
}

func (f *fakeTool) Spec() tool.Spec { return tool.Spec{Name: f.name, Description: "fake " + f.name} }
func (f *fakeTool) Tags() tool.Tags { return f.tags }
func (f *fakeTool) Execute(ctx context.Context, args value.Map) (*tool.Result, error) {
	if f.fn == nil {
		return tool.Ok("ok", nil), nil
	}
	return f.fn(args), nil
}

// scriptedModel replays a fixed sequence of replies.
type scriptedModel struct {
	replies []string
	calls   int
	onCall  func(n int)
}

func (m *scriptedModel) Invoke(ctx context.Context, prompt string) (string, error) {
	n := m.calls
	m.calls++
	if m.onCall != nil {
		m.onCall(n)
	}
	if n >= len(m.replies) {
		return "", fmt.Errorf("model script exhausted after %d calls", len(m.replies))
	}
	return m.replies[n], nil
}

type staticStates struct{ snap Snapshot }

func (s staticStates) Snapshot() Snapshot { return s.snap }

type autoConfirm struct {
	approve bool
	calls   int
}

func (c *autoConfirm) RequestConfirmation(ctx context.Context, reason, detail string) (bool, error) {
	c.calls++
	return c.approve, nil
}

type recordSink struct {
	mu     sync.Mutex
	events []string
}

func (s *recordSink) Emit(kind ProgressKind, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, string(kind)+": "+message)
}

func newTestAgent(t *testing.T, tools []tool.Tool, model ModelInvoker, confirm Confirmer) *Agent {
	t.Helper()
	catalog := tool.NewCatalog()
	for _, tl := range tools {
		if err := catalog.Register(tl); err != nil {
			t.Fatal(err)
		}
	}
	if confirm == nil {
		confirm = &autoConfirm{approve: true}
	}
	return New(Config{MaxIterations: 5, BulkThreshold: 5}, catalog, model, &recordSink{}, confirm, staticStates{})
}

// The information-dependency scenario: find an epic, assign it using the key
// the search discovered, then finish. Three iterations, history length two.
func TestRunGoalSearchThenAssign(t *testing.T) {
	var assignedKey string
	search := &fakeTool{name: "search_issues", fn: func(args value.Map) *tool.Result {
		return tool.Ok("found 1 issues", map[string]value.Value{
			"issues": value.List(value.FromMap(value.Map{
				"key":     value.String("PROJ-7"),
				"summary": value.String("Migrate login epic"),
			})),
		})
	}}
	assign := &fakeTool{name: "assign_issue", tags: tool.Tags{Mutating: true}, fn: func(args value.Map) *tool.Result {
		assignedKey, _ = args.String("key")
		return tool.Ok("assigned "+assignedKey, nil)
	}}

	model := &scriptedModel{replies: []string{
		"Searching for the epic.\n" + `ACTION: {"tool": "search_issues", "args": {"jql": "type = Epic AND text ~ \"login\""}}`,
		`ACTION: {"tool": "assign_issue", "args": {"key": "PROJ-7"}}`,
		"Assigned the epic to you. TASK_COMPLETE",
	}}

	a := newTestAgent(t, []tool.Tool{search, assign}, model, nil)
	result, err := a.RunGoal(context.Background(), "conv", "find epic about login and assign it to me")
	if err != nil {
		t.Fatal(err)
	}

	if result.Status != StatusComplete {
		t.Fatalf("status = %s, want complete", result.Status)
	}
	if result.Iterations != 3 {
		t.Fatalf("iterations = %d, want 3", result.Iterations)
	}
	if len(result.History) != 2 {
		t.Fatalf("history length = %d, want 2", len(result.History))
	}
	if assignedKey != "PROJ-7" {
		t.Fatalf("assign used key %q, want the one search returned", assignedKey)
	}
}

// A reply with no parseable actions and no sentinel means nothing more to do.
func TestRunGoalEmptyReplyCompletes(t *testing.T) {
	model := &scriptedModel{replies: []string{
		"Which project did you mean?\n" + `ACTION: {"tool": "broken`,
	}}

	a := newTestAgent(t, nil, model, nil)
	result, err := a.RunGoal(context.Background(), "conv", "do something vague")
	if err != nil {
		t.Fatal(err)
	}
	if result.Status != StatusComplete {
		t.Fatalf("status = %s, want complete (nothing actionable)", result.Status)
	}
	if result.Iterations != 1 || len(result.History) != 0 {
		t.Fatalf("iterations = %d, history = %d", result.Iterations, len(result.History))
	}
	if result.Summary != "Which project did you mean?" {
		t.Fatalf("summary = %q", result.Summary)
	}
}

// Cancellation observed after the model call returns: the pending reply is
// discarded unparsed and nothing executes.
func TestRunGoalCancelDuringModelCall(t *testing.T) {
	executed := false
	search := &fakeTool{name: "search_issues", fn: func(args value.Map) *tool.Result {
		executed = true
		return tool.Ok("ok", nil)
	}}

	var a *Agent
	model := &scriptedModel{
		replies: []string{`ACTION: {"tool": "search_issues", "args": {"jql": "x"}}`},
		onCall: func(n int) {
			a.Cancel("conv")
		},
	}
	a = newTestAgent(t, []tool.Tool{search}, model, nil)

	result, err := a.RunGoal(context.Background(), "conv", "goal")
	if err != nil {
		t.Fatal(err)
	}
	if result.Status != StatusCancelled {
		t.Fatalf("status = %s, want cancelled", result.Status)
	}
	if executed {
		t.Fatal("action from the pending reply must not execute after cancel")
	}
}

// Five iterations without a sentinel abort on the sixth attempt.
func TestRunGoalIterationCap(t *testing.T) {
	search := &fakeTool{name: "search_issues", fn: func(args value.Map) *tool.Result {
		return tool.Ok("found 0 issues", nil)
	}}

	replies := make([]string, 10)
	for i := range replies {
		replies[i] = `ACTION: {"tool": "search_issues", "args": {"jql": "x"}}`
	}
	model := &scriptedModel{replies: replies}

	a := newTestAgent(t, []tool.Tool{search}, model, nil)
	result, err := a.RunGoal(context.Background(), "conv", "never finishes")
	if !errors.Is(err, ErrIterationLimit) {
		t.Fatalf("err = %v, want ErrIterationLimit", err)
	}
	if result.Status != StatusAborted {
		t.Fatalf("status = %s, want aborted", result.Status)
	}
	if result.Iterations != 5 {
		t.Fatalf("iterations = %d, cap is 5", result.Iterations)
	}
	if model.calls != 5 {
		t.Fatalf("model called %d times, want 5 (no call on the aborted attempt)", model.calls)
	}
}

// A model failure aborts the turn with a surfaced error, no retry.
func TestRunGoalModelError(t *testing.T) {
	model := &scriptedModel{replies: nil} // first call fails

	a := newTestAgent(t, nil, model, nil)
	_, err := a.RunGoal(context.Background(), "conv", "goal")
	var modelErr *ModelError
	if !errors.As(err, &modelErr) {
		t.Fatalf("err = %v, want *ModelError", err)
	}
	if model.calls != 1 {
		t.Fatalf("model called %d times, want 1 (no automatic retry)", model.calls)
	}
}

// Declining a flagged batch aborts only that batch; the declined actions are
// recorded so the model can propose an alternative.
func TestRunGoalDeclinedBatch(t *testing.T) {
	deleted := false
	del := &fakeTool{name: "delete_issue", tags: tool.Tags{Mutating: true, Destructive: true}, fn: func(args value.Map) *tool.Result {
		deleted = true
		return tool.Ok("deleted", nil)
	}}
	comment := &fakeTool{name: "comment_issue", tags: tool.Tags{Mutating: true}, fn: func(args value.Map) *tool.Result {
		return tool.Ok("commented", nil)
	}}

	model := &scriptedModel{replies: []string{
		`ACTION: {"tool": "delete_issue", "args": {"key": "PROJ-9"}}`,
		`Understood, leaving a comment instead.` + "\n" +
			`ACTION: {"tool": "comment_issue", "args": {"key": "PROJ-9", "body": "flagged for cleanup"}}` + "\nTASK_COMPLETE",
	}}
	confirm := &autoConfirm{approve: false}

	a := newTestAgent(t, []tool.Tool{del, comment}, model, confirm)
	result, err := a.RunGoal(context.Background(), "conv", "delete the stale issue")
	if err != nil {
		t.Fatal(err)
	}

	if deleted {
		t.Fatal("declined destructive action must not execute")
	}
	if confirm.calls != 1 {
		t.Fatalf("confirmer called %d times, want 1", confirm.calls)
	}
	if result.Status != StatusComplete {
		t.Fatalf("status = %s, want complete", result.Status)
	}
	if len(result.History) != 2 {
		t.Fatalf("history = %d, want declined entry plus comment", len(result.History))
	}
	if result.History[0].Result.Success || result.History[0].Result.Message != "not executed: batch declined by user" {
		t.Fatalf("declined entry = %+v", result.History[0].Result)
	}
	if !result.History[1].Result.Success {
		t.Fatalf("comment entry = %+v", result.History[1].Result)
	}
}

// An approved destructive batch executes.
func TestRunGoalApprovedDestructive(t *testing.T) {
	deleted := false
	del := &fakeTool{name: "delete_issue", tags: tool.Tags{Mutating: true, Destructive: true}, fn: func(args value.Map) *tool.Result {
		deleted = true
		return tool.Ok("deleted PROJ-9", nil)
	}}

	model := &scriptedModel{replies: []string{
		`ACTION: {"tool": "delete_issue", "args": {"key": "PROJ-9"}}` + "\nTASK_COMPLETE",
	}}
	confirm := &autoConfirm{approve: true}

	a := newTestAgent(t, []tool.Tool{del}, model, confirm)
	result, err := a.RunGoal(context.Background(), "conv", "delete it")
	if err != nil {
		t.Fatal(err)
	}
	if !deleted || result.Status != StatusComplete {
		t.Fatalf("deleted = %t, status = %s", deleted, result.Status)
	}
}

// Tool failures don't block completion; partial outcomes are normal.
func TestRunGoalPartialFailureCompletes(t *testing.T) {
	update := &fakeTool{name: "update_issue", tags: tool.Tags{Mutating: true}, fn: func(args value.Map) *tool.Result {
		key, _ := args.String("key")
		if key == "PROJ-2" {
			return tool.Fail("update %s failed: status 403", key)
		}
		return tool.Ok("updated "+key, nil)
	}}

	model := &scriptedModel{replies: []string{
		`ACTION: {"tool": "update_issue", "args": {"key": "PROJ-1", "priority": "High"}}` + "\n" +
			`ACTION: {"tool": "update_issue", "args": {"key": "PROJ-2", "priority": "High"}}` + "\nTASK_COMPLETE",
	}}

	a := newTestAgent(t, []tool.Tool{update}, model, nil)
	result, err := a.RunGoal(context.Background(), "conv", "raise priorities")
	if err != nil {
		t.Fatal(err)
	}
	if result.Status != StatusComplete {
		t.Fatalf("status = %s, want complete despite one failure", result.Status)
	}
	if len(result.History) != 2 || result.History[1].Result.Success {
		t.Fatalf("history = %+v", result.History)
	}
}

// Unknown tools come back as failed observations, and the loop keeps going.
func TestRunGoalUnknownToolObservation(t *testing.T) {
	model := &scriptedModel{replies: []string{
		`ACTION: {"tool": "no_such_tool", "args": {}}`,
		"Sorry, that tool doesn't exist. TASK_COMPLETE",
	}}

	a := newTestAgent(t, nil, model, nil)
	result, err := a.RunGoal(context.Background(), "conv", "goal")
	if err != nil {
		t.Fatal(err)
	}
	if result.Status != StatusComplete {
		t.Fatalf("status = %s", result.Status)
	}
	if len(result.History) != 1 || result.History[0].Result.Message != "unknown tool: no_such_tool" {
		t.Fatalf("history = %+v", result.History)
	}
}

// A second goal for the same conversation is rejected while one is active.
func TestRunGoalRejectsConcurrentTurn(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	model := &scriptedModel{
		replies: []string{"TASK_COMPLETE"},
		onCall: func(n int) {
			close(started)
			<-release
		},
	}

	a := newTestAgent(t, nil, model, nil)

	done := make(chan error, 1)
	go func() {
		_, err := a.RunGoal(context.Background(), "conv", "first goal")
		done <- err
	}()

	<-started
	if !a.Busy("conv") {
		t.Fatal("conversation should be busy")
	}
	if _, err := a.RunGoal(context.Background(), "conv", "second goal"); !errors.Is(err, ErrTurnActive) {
		t.Fatalf("err = %v, want ErrTurnActive", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}

	if a.Cancel("conv") {
		t.Fatal("Cancel after the turn ended should report nothing running")
	}
}

// Context cancellation behaves like a user stop.
func TestRunGoalContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := newTestAgent(t, nil, &scriptedModel{}, nil)
	result, err := a.RunGoal(ctx, "conv", "goal")
	if err != nil {
		t.Fatal(err)
	}
	if result.Status != StatusCancelled {
		t.Fatalf("status = %s, want cancelled", result.Status)
	}
}
