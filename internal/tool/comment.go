package tool

import (
	"context"

	"jirapilot/internal/jira"
	"jirapilot/internal/value"
)

// CommentIssueTool adds a comment to an issue.
type CommentIssueTool struct {
	client *jira.Client
}

func NewCommentIssueTool(client *jira.Client) *CommentIssueTool {
	return &CommentIssueTool{client: client}
}

func (t *CommentIssueTool) Spec() Spec {
	return Spec{
		Name:        "comment_issue",
		Description: "Add a plain-text comment to an issue.",
		Params: []ParamSpec{
			{Name: "key", Type: ParamString, Required: true, Description: "Issue key"},
			{Name: "body", Type: ParamString, Required: true, Description: "Comment text"},
		},
	}
}

func (t *CommentIssueTool) Tags() Tags { return Tags{Mutating: true} }

func (t *CommentIssueTool) Execute(ctx context.Context, args value.Map) (*Result, error) {
	key, err := args.String("key")
	if err != nil {
		return Fail("%v", err), nil
	}
	body, err := args.String("body")
	if err != nil {
		return Fail("%v", err), nil
	}

	if err := t.client.AddComment(ctx, key, body); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return Fail("comment on %s failed: %v", key, err), nil
	}

	return Ok("commented on "+key, map[string]value.Value{
		"key": value.String(key),
	}), nil
}
