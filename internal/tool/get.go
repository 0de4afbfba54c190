package tool

import (
	"context"

	"jirapilot/internal/jira"
	"jirapilot/internal/value"
)

// GetIssueTool fetches the details of one issue.
type GetIssueTool struct {
	client *jira.Client
}

func NewGetIssueTool(client *jira.Client) *GetIssueTool {
	return &GetIssueTool{client: client}
}

func (t *GetIssueTool) Spec() Spec {
	return Spec{
		Name:        "get_issue",
		Description: "Fetch the current state of a single issue by key.",
		Params: []ParamSpec{
			{Name: "key", Type: ParamString, Required: true, Description: "Issue key, e.g. PROJ-42"},
		},
	}
}

func (t *GetIssueTool) Tags() Tags { return Tags{} }

func (t *GetIssueTool) Execute(ctx context.Context, args value.Map) (*Result, error) {
	key, err := args.String("key")
	if err != nil {
		return Fail("%v", err), nil
	}

	issue, err := t.client.GetIssue(ctx, key)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return Fail("get issue %s failed: %v", key, err), nil
	}

	return Ok("fetched "+issue.Key, map[string]value.Value{
		"key":      value.String(issue.Key),
		"summary":  value.String(issue.Summary),
		"status":   value.String(issue.Status),
		"assignee": value.String(issue.Assignee),
		"priority": value.String(issue.Priority),
		"type":     value.String(issue.IssueType),
	}), nil
}
