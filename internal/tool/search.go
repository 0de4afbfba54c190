package tool

import (
	"context"
	"fmt"

	"jirapilot/internal/jira"
	"jirapilot/internal/value"
)

// SearchIssuesTool runs a JQL query against the tracker.
type SearchIssuesTool struct {
	client *jira.Client
}

func NewSearchIssuesTool(client *jira.Client) *SearchIssuesTool {
	return &SearchIssuesTool{client: client}
}

func (t *SearchIssuesTool) Spec() Spec {
	return Spec{
		Name:        "search_issues",
		Description: "Search for issues using a JQL query. Returns matching issue keys, summaries and statuses. Use this to find the target of a later update.",
		Params: []ParamSpec{
			{Name: "jql", Type: ParamString, Required: true, Description: "JQL query, e.g. 'project = PROJ AND text ~ \"login\"'"},
			{Name: "limit", Type: ParamInt, Required: false, Description: "Maximum results (default 20)"},
		},
	}
}

func (t *SearchIssuesTool) Tags() Tags { return Tags{} }

func (t *SearchIssuesTool) Execute(ctx context.Context, args value.Map) (*Result, error) {
	jql, err := args.String("jql")
	if err != nil {
		return Fail("%v", err), nil
	}
	limit, err := args.IntOr("limit", 20)
	if err != nil {
		return Fail("%v", err), nil
	}

	issues, err := t.client.SearchIssues(ctx, jql, int(limit))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return Fail("search failed: %v", err), nil
	}

	list := make([]value.Value, len(issues))
	for i, issue := range issues {
		list[i] = value.FromMap(value.Map{
			"key":     value.String(issue.Key),
			"summary": value.String(issue.Summary),
			"status":  value.String(issue.Status),
			"type":    value.String(issue.IssueType),
		})
	}

	return Ok(fmt.Sprintf("found %d issues", len(issues)), map[string]value.Value{
		"count":  value.Int(int64(len(issues))),
		"issues": value.List(list...),
	}), nil
}
