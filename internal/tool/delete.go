package tool

import (
	"context"

	"jirapilot/internal/jira"
	"jirapilot/internal/value"
)

// DeleteIssueTool permanently removes an issue. Tagged destructive, so the
// confirmation guard always stops on it.
type DeleteIssueTool struct {
	client *jira.Client
}

func NewDeleteIssueTool(client *jira.Client) *DeleteIssueTool {
	return &DeleteIssueTool{client: client}
}

func (t *DeleteIssueTool) Spec() Spec {
	return Spec{
		Name:        "delete_issue",
		Description: "Permanently delete an issue. This cannot be undone.",
		Params: []ParamSpec{
			{Name: "key", Type: ParamString, Required: true, Description: "Issue key"},
		},
	}
}

func (t *DeleteIssueTool) Tags() Tags { return Tags{Mutating: true, Destructive: true} }

func (t *DeleteIssueTool) Execute(ctx context.Context, args value.Map) (*Result, error) {
	key, err := args.String("key")
	if err != nil {
		return Fail("%v", err), nil
	}

	if err := t.client.DeleteIssue(ctx, key); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return Fail("delete %s failed: %v", key, err), nil
	}

	return Ok("deleted "+key, map[string]value.Value{
		"key": value.String(key),
	}), nil
}
