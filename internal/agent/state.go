package agent

import (
	"sync/atomic"

	"github.com/google/uuid"

	"jirapilot/internal/tool"
	"jirapilot/internal/value"
)

// Phase is the orchestrator's position in the turn state machine.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseBuildingContext
	PhaseAwaitingModel
	PhaseParsingResponse
	PhaseAwaitingConfirmation
	PhaseExecutingActions
	PhaseCheckingCompletion
	PhaseComplete
	PhaseAborted
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseBuildingContext:
		return "building_context"
	case PhaseAwaitingModel:
		return "awaiting_model"
	case PhaseParsingResponse:
		return "parsing_response"
	case PhaseAwaitingConfirmation:
		return "awaiting_confirmation"
	case PhaseExecutingActions:
		return "executing_actions"
	case PhaseCheckingCompletion:
		return "checking_completion"
	case PhaseComplete:
		return "complete"
	case PhaseAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Action is a parsed proposal to invoke one tool. Arguments are not checked
// against the tool's schema here; the tool validates them itself.
type Action struct {
	Tool string    `json:"tool"`
	Args value.Map `json:"args"`
}

// HistoryEntry pairs an executed (or declined) action with its result.
// Entries are append-only and ordered by execution.
type HistoryEntry struct {
	Action Action      `json:"action"`
	Result tool.Result `json:"result"`
}

// LoopState is the mutable state of one turn. Created when a goal starts,
// mutated only by the orchestrator, discarded when the turn ends.
type LoopState struct {
	ID        string
	Goal      string
	History   []HistoryEntry
	Iteration int
	Phase     Phase
	Complete  bool

	cancelled atomic.Bool
}

func newLoopState(goal string) *LoopState {
	return &LoopState{
		ID:   uuid.NewString(),
		Goal: goal,
	}
}

// Cancel requests a clean stop. The orchestrator observes the flag at the
// next transition boundary, never mid-action.
func (s *LoopState) Cancel() {
	s.cancelled.Store(true)
}

// Cancelled reports whether a stop was requested.
func (s *LoopState) Cancelled() bool {
	return s.cancelled.Load()
}
