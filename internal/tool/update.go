package tool

import (
	"context"

	"jirapilot/internal/jira"
	"jirapilot/internal/value"
)

// UpdateIssueTool sets editable fields on an issue.
type UpdateIssueTool struct {
	client *jira.Client
}

func NewUpdateIssueTool(client *jira.Client) *UpdateIssueTool {
	return &UpdateIssueTool{client: client}
}

func (t *UpdateIssueTool) Spec() Spec {
	return Spec{
		Name:        "update_issue",
		Description: "Update fields of an issue. Provide at least one of summary, description or priority.",
		Params: []ParamSpec{
			{Name: "key", Type: ParamString, Required: true, Description: "Issue key"},
			{Name: "summary", Type: ParamString, Required: false, Description: "New summary"},
			{Name: "description", Type: ParamString, Required: false, Description: "New description"},
			{Name: "priority", Type: ParamString, Required: false, Description: "Priority name, e.g. High"},
		},
	}
}

func (t *UpdateIssueTool) Tags() Tags { return Tags{Mutating: true} }

func (t *UpdateIssueTool) Execute(ctx context.Context, args value.Map) (*Result, error) {
	key, err := args.String("key")
	if err != nil {
		return Fail("%v", err), nil
	}

	fields := make(map[string]any)
	for _, name := range []string{"summary", "description", "priority"} {
		if !args.Has(name) {
			continue
		}
		s, err := args.String(name)
		if err != nil {
			return Fail("%v", err), nil
		}
		fields[name] = s
	}
	if len(fields) == 0 {
		return Fail("update_issue requires at least one of summary, description, priority"), nil
	}

	if err := t.client.UpdateIssue(ctx, key, fields); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return Fail("update %s failed: %v", key, err), nil
	}

	return Ok("updated "+key, map[string]value.Value{
		"key": value.String(key),
	}), nil
}
