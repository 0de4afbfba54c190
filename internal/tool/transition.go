package tool

import (
	"context"
	"strings"

	"jirapilot/internal/jira"
	"jirapilot/internal/value"
)

// TransitionIssueTool moves an issue to a target status by matching the
// status name against the transitions currently available.
type TransitionIssueTool struct {
	client *jira.Client
}

func NewTransitionIssueTool(client *jira.Client) *TransitionIssueTool {
	return &TransitionIssueTool{client: client}
}

func (t *TransitionIssueTool) Spec() Spec {
	return Spec{
		Name:        "transition_issue",
		Description: "Move an issue to another status, e.g. 'In Progress' or 'Done'. The status must be reachable from the issue's current state.",
		Params: []ParamSpec{
			{Name: "key", Type: ParamString, Required: true, Description: "Issue key"},
			{Name: "status", Type: ParamString, Required: true, Description: "Target status name"},
		},
	}
}

func (t *TransitionIssueTool) Tags() Tags { return Tags{Mutating: true} }

func (t *TransitionIssueTool) Execute(ctx context.Context, args value.Map) (*Result, error) {
	key, err := args.String("key")
	if err != nil {
		return Fail("%v", err), nil
	}
	status, err := args.String("status")
	if err != nil {
		return Fail("%v", err), nil
	}

	transitions, err := t.client.ListTransitions(ctx, key)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return Fail("list transitions for %s failed: %v", key, err), nil
	}

	var match *jira.Transition
	names := make([]string, len(transitions))
	for i := range transitions {
		names[i] = transitions[i].Name
		if strings.EqualFold(transitions[i].Name, status) {
			match = &transitions[i]
		}
	}
	if match == nil {
		return Fail("status %q not reachable from current state of %s; available: %s",
			status, key, strings.Join(names, ", ")), nil
	}

	if err := t.client.TransitionIssue(ctx, key, match.ID); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return Fail("transition %s failed: %v", key, err), nil
	}

	return Ok("moved "+key+" to "+match.Name, map[string]value.Value{
		"key":    value.String(key),
		"status": value.String(match.Name),
	}), nil
}
