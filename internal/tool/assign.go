package tool

import (
	"context"

	"jirapilot/internal/jira"
	"jirapilot/internal/value"
)

// AssignIssueTool assigns an issue to an account, defaulting to the
// authenticated user when no assignee is given.
type AssignIssueTool struct {
	client *jira.Client
}

func NewAssignIssueTool(client *jira.Client) *AssignIssueTool {
	return &AssignIssueTool{client: client}
}

func (t *AssignIssueTool) Spec() Spec {
	return Spec{
		Name:        "assign_issue",
		Description: "Assign an issue to a user. Omit account_id to assign to the current user.",
		Params: []ParamSpec{
			{Name: "key", Type: ParamString, Required: true, Description: "Issue key"},
			{Name: "account_id", Type: ParamString, Required: false, Description: "Target account ID; defaults to the current user"},
		},
	}
}

func (t *AssignIssueTool) Tags() Tags { return Tags{Mutating: true} }

func (t *AssignIssueTool) Execute(ctx context.Context, args value.Map) (*Result, error) {
	key, err := args.String("key")
	if err != nil {
		return Fail("%v", err), nil
	}
	accountID, err := args.StringOr("account_id", "")
	if err != nil {
		return Fail("%v", err), nil
	}

	if accountID == "" {
		accountID, err = t.client.Myself(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return Fail("resolve current user: %v", err), nil
		}
	}

	if err := t.client.AssignIssue(ctx, key, accountID); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return Fail("assign %s failed: %v", key, err), nil
	}

	return Ok("assigned "+key, map[string]value.Value{
		"key":        value.String(key),
		"account_id": value.String(accountID),
	}), nil
}
