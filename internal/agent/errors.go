package agent

import "errors"

var (
	// ErrTurnActive rejects a new goal while a turn is still running for
	// the same conversation. The caller must cancel the active turn first.
	ErrTurnActive = errors.New("a goal is already running for this conversation")

	// ErrIterationLimit aborts a turn that hit the safety cap.
	ErrIterationLimit = errors.New("reached maximum steps")

	// ErrCancelled ends a turn that the user stopped. Not an error condition
	// worth reporting; callers show a neutral "stopped" status.
	ErrCancelled = errors.New("stopped")
)

// ModelError wraps a failed model invocation. Model failures abort the turn
// and surface to the user; the loop never retries them itself.
type ModelError struct {
	Err error
}

func (e *ModelError) Error() string {
	return "model error: " + e.Err.Error()
}

func (e *ModelError) Unwrap() error {
	return e.Err
}
