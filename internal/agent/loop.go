package agent

import (
	"context"
	"fmt"
	"log"

	"jirapilot/internal/tool"
)

// runTurn drives one goal through the state machine:
//
//	BuildingContext -> AwaitingModel -> ParsingResponse
//	  -> AwaitingConfirmation (when the guard flags the batch)
//	  -> ExecutingActions -> CheckingCompletion -> loop | Complete | Aborted
//
// The loop is single-threaded: at any instant at most one of {model call,
// action execution} is outstanding. Cancellation is polled before the model
// call and between actions, never mid-action, so no remote mutation is left
// half-applied.
func (a *Agent) runTurn(ctx context.Context, st *LoopState) (*TurnResult, error) {
	var lastDisplay string

	for {
		if stopped(ctx, st) {
			return a.abortCancelled(st), nil
		}

		if st.Iteration >= a.cfg.MaxIterations {
			st.Phase = PhaseAborted
			a.sink.Emit(KindError, fmt.Sprintf("reached maximum steps (%d) without finishing", a.cfg.MaxIterations))
			return a.result(st, StatusAborted, lastDisplay), ErrIterationLimit
		}
		st.Iteration++

		st.Phase = PhaseBuildingContext
		a.sink.Emit(KindProcessing, fmt.Sprintf("planning step %d", st.Iteration))
		snap := a.states.Snapshot()
		pctx := BuildContext(st.Goal, st.History, snap, a.catalog.Describe())

		st.Phase = PhaseAwaitingModel
		reply, err := a.model.Invoke(ctx, pctx.Prompt())
		if err != nil {
			if stopped(ctx, st) {
				return a.abortCancelled(st), nil
			}
			st.Phase = PhaseAborted
			modelErr := &ModelError{Err: err}
			a.sink.Emit(KindError, modelErr.Error())
			return a.result(st, StatusAborted, lastDisplay), modelErr
		}
		// A stop requested while the model call was in flight discards the
		// pending reply unparsed.
		if stopped(ctx, st) {
			return a.abortCancelled(st), nil
		}

		st.Phase = PhaseParsingResponse
		parsed := ParseReply(reply)
		if parsed.Display != "" {
			lastDisplay = parsed.Display
			a.sink.Emit(KindInfo, parsed.Display)
		}

		// Nothing proposed and no completion claim: nothing more to do.
		if len(parsed.Actions) == 0 && !parsed.TaskComplete {
			return a.complete(st, lastDisplay), nil
		}

		if verdict := a.guard.Evaluate(parsed.Actions); verdict.NeedsConfirmation {
			st.Phase = PhaseAwaitingConfirmation
			a.sink.Emit(KindWarning, fmt.Sprintf("confirmation required (%s): %s", verdict.Reason, verdict.Detail))

			approved, err := a.confirmer.RequestConfirmation(ctx, verdict.Reason, verdict.Detail)
			if err != nil {
				if stopped(ctx, st) {
					return a.abortCancelled(st), nil
				}
				st.Phase = PhaseAborted
				a.sink.Emit(KindError, "confirmation failed: "+err.Error())
				return a.result(st, StatusAborted, lastDisplay), fmt.Errorf("confirmation failed: %w", err)
			}
			if !approved {
				// Declining aborts only this batch. The declined actions are
				// recorded as failed observations so the model can re-plan.
				a.declineBatch(st, parsed.Actions)
				a.sink.Emit(KindWarning, "batch declined by user")
				continue
			}
		}

		st.Phase = PhaseExecutingActions
		for _, action := range parsed.Actions {
			if stopped(ctx, st) {
				return a.abortCancelled(st), nil
			}

			res, err := a.catalog.Execute(ctx, action.Tool, action.Args)
			if err != nil {
				// Only context cancellation reaches here.
				return a.abortCancelled(st), nil
			}
			st.History = append(st.History, HistoryEntry{Action: action, Result: *res})

			if res.Success {
				a.sink.Emit(KindSuccess, fmt.Sprintf("%s: %s", action.Tool, res.Message))
			} else {
				// Tool failures are recoverable observations, not turn errors.
				a.sink.Emit(KindWarning, fmt.Sprintf("%s failed: %s", action.Tool, res.Message))
				log.Printf("[agent] tool %s failed: %s", action.Tool, res.Message)
			}
		}

		st.Phase = PhaseCheckingCompletion
		// Act-before-finish: the sentinel only takes effect after the batch
		// it arrived with has executed. Failures don't block completion;
		// they are part of the reported history.
		if parsed.TaskComplete {
			return a.complete(st, lastDisplay), nil
		}
	}
}

func (a *Agent) complete(st *LoopState, summary string) *TurnResult {
	st.Complete = true
	st.Phase = PhaseComplete
	a.sink.Emit(KindSuccess, "done")
	return a.result(st, StatusComplete, summary)
}

func (a *Agent) abortCancelled(st *LoopState) *TurnResult {
	st.Phase = PhaseAborted
	a.sink.Emit(KindInfo, "stopped")
	return a.result(st, StatusCancelled, "")
}

func (a *Agent) declineBatch(st *LoopState, actions []Action) {
	for _, action := range actions {
		st.History = append(st.History, HistoryEntry{
			Action: action,
			Result: declinedResult(),
		})
	}
}

func (a *Agent) result(st *LoopState, status TurnStatus, summary string) *TurnResult {
	return &TurnResult{
		ID:         st.ID,
		Goal:       st.Goal,
		Status:     status,
		Summary:    summary,
		History:    st.History,
		Iterations: st.Iteration,
	}
}

func declinedResult() tool.Result {
	return tool.Result{Success: false, Message: "not executed: batch declined by user"}
}

func stopped(ctx context.Context, st *LoopState) bool {
	return st.Cancelled() || ctx.Err() != nil
}
