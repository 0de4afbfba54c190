package agent

import (
	"context"
	"log"
	"sync"

	"jirapilot/internal/tool"
)

// ModelInvoker is the single call the loop makes to the model backend.
type ModelInvoker interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

// ProgressKind classifies progress messages for the UI.
type ProgressKind string

const (
	KindInfo       ProgressKind = "info"
	KindSuccess    ProgressKind = "success"
	KindWarning    ProgressKind = "warning"
	KindError      ProgressKind = "error"
	KindProcessing ProgressKind = "processing"
)

// ProgressSink receives one-way phase and result messages. The core never
// reads anything back from it.
type ProgressSink interface {
	Emit(kind ProgressKind, message string)
}

// Confirmer asks the user to approve a flagged batch. Implementations must
// honor ctx cancellation and resolve or time out, never hang.
type Confirmer interface {
	RequestConfirmation(ctx context.Context, reason, detail string) (bool, error)
}

// Config bounds a turn.
type Config struct {
	// MaxIterations is the safety cap on loop iterations per turn.
	MaxIterations int
	// BulkThreshold is the mutating-action count above which the guard
	// requires bulk confirmation.
	BulkThreshold int
}

// DefaultMaxIterations caps runaway turns.
const DefaultMaxIterations = 5

// TurnStatus is the final disposition of a turn.
type TurnStatus string

const (
	StatusComplete  TurnStatus = "complete"
	StatusCancelled TurnStatus = "cancelled"
	StatusAborted   TurnStatus = "aborted"
)

// TurnResult is returned to the caller when a turn ends.
type TurnResult struct {
	ID         string         `json:"id"`
	Goal       string         `json:"goal"`
	Status     TurnStatus     `json:"status"`
	Summary    string         `json:"summary,omitempty"`
	History    []HistoryEntry `json:"history"`
	Iterations int            `json:"iterations"`
}

// Agent owns the agentic loop. All collaborators are injected; there is no
// process-wide registry or singleton.
type Agent struct {
	cfg       Config
	catalog   *tool.Catalog
	model     ModelInvoker
	guard     *Guard
	sink      ProgressSink
	confirmer Confirmer
	states    StateProvider

	mu     sync.Mutex
	active map[string]*LoopState // keyed by conversation ID
}

// New creates an agent. The guard is built from the catalog's tags.
func New(cfg Config, catalog *tool.Catalog, model ModelInvoker, sink ProgressSink, confirmer Confirmer, states StateProvider) *Agent {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	if sink == nil {
		sink = noopSink{}
	}
	return &Agent{
		cfg:       cfg,
		catalog:   catalog,
		model:     model,
		guard:     NewGuard(catalog.TagsFor, cfg.BulkThreshold),
		sink:      sink,
		confirmer: confirmer,
		states:    states,
		active:    make(map[string]*LoopState),
	}
}

// RunGoal runs one turn to completion. A conversation has at most one
// active turn: a second goal is rejected with ErrTurnActive rather than
// silently replacing the running one.
func (a *Agent) RunGoal(ctx context.Context, conversationID, goal string) (*TurnResult, error) {
	a.mu.Lock()
	if _, busy := a.active[conversationID]; busy {
		a.mu.Unlock()
		return nil, ErrTurnActive
	}
	st := newLoopState(goal)
	a.active[conversationID] = st
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		delete(a.active, conversationID)
		a.mu.Unlock()
	}()

	log.Printf("[agent] turn %s started: %s", st.ID, truncate(goal, 120))
	result, err := a.runTurn(ctx, st)
	log.Printf("[agent] turn %s finished: %s after %d iterations", st.ID, result.Status, result.Iterations)
	return result, err
}

// Cancel requests a clean stop of the conversation's active turn. Returns
// false when nothing is running.
func (a *Agent) Cancel(conversationID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	st, ok := a.active[conversationID]
	if !ok {
		return false
	}
	st.Cancel()
	return true
}

// Busy reports whether the conversation has an active turn.
func (a *Agent) Busy(conversationID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.active[conversationID]
	return ok
}

type noopSink struct{}

func (noopSink) Emit(ProgressKind, string) {}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
