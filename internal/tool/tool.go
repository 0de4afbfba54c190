package tool

import (
	"context"
	"fmt"

	"jirapilot/internal/value"
)

// ParamType names the expected type of a tool parameter.
type ParamType string

const (
	ParamString ParamType = "string"
	ParamInt    ParamType = "int"
	ParamNumber ParamType = "number"
	ParamBool   ParamType = "bool"
	ParamList   ParamType = "list"
	ParamMap    ParamType = "map"
)

// ParamSpec describes one parameter of a tool.
type ParamSpec struct {
	Name        string    `json:"name"`
	Type        ParamType `json:"type"`
	Required    bool      `json:"required"`
	Description string    `json:"description"`
}

// Spec is the schema of a tool as shown to the model.
type Spec struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Params      []ParamSpec `json:"params,omitempty"`
}

// Tags classify a tool's side effects for the confirmation guard.
type Tags struct {
	// Mutating tools change remote state (update, assign, comment, transition, delete).
	Mutating bool
	// Destructive tools remove data permanently and always require confirmation.
	Destructive bool
}

// Result is the immutable outcome of one tool execution.
type Result struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message,omitempty"`
	Data    map[string]value.Value `json:"data,omitempty"`
}

// Ok builds a successful result.
func Ok(message string, data map[string]value.Value) *Result {
	return &Result{Success: true, Message: message, Data: data}
}

// Fail builds a failed result. Failures are observations for the model,
// not crashes: the loop feeds them back as history.
func Fail(format string, args ...any) *Result {
	return &Result{Success: false, Message: fmt.Sprintf(format, args...)}
}

// Tool is a single named remote operation the model may invoke. Implementations
// are stateless apart from a plain reference to the remote client they call, and
// validate their own arguments via value.Map getters.
type Tool interface {
	Spec() Spec
	Tags() Tags
	Execute(ctx context.Context, args value.Map) (*Result, error)
}
