package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a thin HTTP client for the ticketing service. It carries only
// the operations the agent tools wrap; payloads hold the handful of fields
// the tools actually read.
type Client struct {
	http    *http.Client
	baseURL string
	email   string
	token   string
}

// Config holds connection settings for the ticketing service.
type Config struct {
	BaseURL     string
	Email       string
	APIToken    string
	TimeoutSecs int
}

// APIError is a non-2xx response from the remote service.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("jira: status %d: %s", e.Status, e.Message)
}

// NewClient validates the config and builds a client.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		return nil, fmt.Errorf("jira base URL is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("invalid jira base URL: %w", err)
	}

	timeout := cfg.TimeoutSecs
	if timeout <= 0 {
		timeout = 30
	}

	return &Client{
		http:    &http.Client{Timeout: time.Duration(timeout) * time.Second},
		baseURL: base,
		email:   cfg.Email,
		token:   cfg.APIToken,
	}, nil
}

// Issue is the subset of issue fields the agent reasons about.
type Issue struct {
	Key         string `json:"key"`
	Summary     string `json:"summary"`
	Status      string `json:"status"`
	Assignee    string `json:"assignee,omitempty"`
	Priority    string `json:"priority,omitempty"`
	IssueType   string `json:"issue_type,omitempty"`
	Description string `json:"description,omitempty"`
}

// Transition is one available workflow move for an issue.
type Transition struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Myself returns the account ID of the authenticated user.
func (c *Client) Myself(ctx context.Context) (string, error) {
	var out struct {
		AccountID string `json:"accountId"`
	}
	if err := c.do(ctx, http.MethodGet, "/rest/api/3/myself", nil, &out); err != nil {
		return "", err
	}
	return out.AccountID, nil
}

// SearchIssues runs a JQL query and returns matching issues.
func (c *Client) SearchIssues(ctx context.Context, jql string, limit int) ([]Issue, error) {
	if limit <= 0 {
		limit = 20
	}
	body := map[string]any{
		"jql":        jql,
		"maxResults": limit,
		"fields":     []string{"summary", "status", "assignee", "priority", "issuetype"},
	}
	var out struct {
		Issues []issuePayload `json:"issues"`
	}
	if err := c.do(ctx, http.MethodPost, "/rest/api/3/search", body, &out); err != nil {
		return nil, err
	}

	issues := make([]Issue, len(out.Issues))
	for i, p := range out.Issues {
		issues[i] = p.toIssue()
	}
	return issues, nil
}

// GetIssue fetches a single issue by key.
func (c *Client) GetIssue(ctx context.Context, key string) (*Issue, error) {
	var out issuePayload
	path := "/rest/api/3/issue/" + url.PathEscape(key)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	issue := out.toIssue()
	return &issue, nil
}

// UpdateIssue sets fields on an issue. Supported keys: summary, description, priority.
func (c *Client) UpdateIssue(ctx context.Context, key string, fields map[string]any) error {
	payload := map[string]any{"fields": map[string]any{}}
	dst := payload["fields"].(map[string]any)
	for k, v := range fields {
		if k == "priority" {
			dst[k] = map[string]any{"name": v}
			continue
		}
		dst[k] = v
	}
	path := "/rest/api/3/issue/" + url.PathEscape(key)
	return c.do(ctx, http.MethodPut, path, payload, nil)
}

// AssignIssue assigns the issue to the given account.
func (c *Client) AssignIssue(ctx context.Context, key, accountID string) error {
	body := map[string]any{"accountId": accountID}
	path := "/rest/api/3/issue/" + url.PathEscape(key) + "/assignee"
	return c.do(ctx, http.MethodPut, path, body, nil)
}

// AddComment appends a plain-text comment to the issue.
func (c *Client) AddComment(ctx context.Context, key, text string) error {
	body := map[string]any{
		"body": map[string]any{
			"type":    "doc",
			"version": 1,
			"content": []any{
				map[string]any{
					"type": "paragraph",
					"content": []any{
						map[string]any{"type": "text", "text": text},
					},
				},
			},
		},
	}
	path := "/rest/api/3/issue/" + url.PathEscape(key) + "/comment"
	return c.do(ctx, http.MethodPost, path, body, nil)
}

// ListTransitions returns the workflow moves currently available for an issue.
func (c *Client) ListTransitions(ctx context.Context, key string) ([]Transition, error) {
	var out struct {
		Transitions []struct {
			ID string `json:"id"`
			To struct {
				Name string `json:"name"`
			} `json:"to"`
		} `json:"transitions"`
	}
	path := "/rest/api/3/issue/" + url.PathEscape(key) + "/transitions"
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}

	transitions := make([]Transition, len(out.Transitions))
	for i, t := range out.Transitions {
		transitions[i] = Transition{ID: t.ID, Name: t.To.Name}
	}
	return transitions, nil
}

// TransitionIssue applies a workflow transition by ID.
func (c *Client) TransitionIssue(ctx context.Context, key, transitionID string) error {
	body := map[string]any{
		"transition": map[string]any{"id": transitionID},
	}
	path := "/rest/api/3/issue/" + url.PathEscape(key) + "/transitions"
	return c.do(ctx, http.MethodPost, path, body, nil)
}

// DeleteIssue permanently removes an issue.
func (c *Client) DeleteIssue(ctx context.Context, key string) error {
	path := "/rest/api/3/issue/" + url.PathEscape(key)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// issuePayload mirrors the wire shape just enough to flatten it.
type issuePayload struct {
	Key    string `json:"key"`
	Fields struct {
		Summary  string `json:"summary"`
		Status   struct {
			Name string `json:"name"`
		} `json:"status"`
		Assignee *struct {
			DisplayName string `json:"displayName"`
		} `json:"assignee"`
		Priority *struct {
			Name string `json:"name"`
		} `json:"priority"`
		IssueType struct {
			Name string `json:"name"`
		} `json:"issuetype"`
		Description any `json:"description"`
	} `json:"fields"`
}

func (p issuePayload) toIssue() Issue {
	issue := Issue{
		Key:       p.Key,
		Summary:   p.Fields.Summary,
		Status:    p.Fields.Status.Name,
		IssueType: p.Fields.IssueType.Name,
	}
	if p.Fields.Assignee != nil {
		issue.Assignee = p.Fields.Assignee.DisplayName
	}
	if p.Fields.Priority != nil {
		issue.Priority = p.Fields.Priority.Name
	}
	return issue
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(c.email, c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("jira request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Status: resp.StatusCode, Message: errorMessage(data)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func errorMessage(data []byte) string {
	var parsed struct {
		ErrorMessages []string          `json:"errorMessages"`
		Errors        map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(data, &parsed); err == nil {
		if len(parsed.ErrorMessages) > 0 {
			return strings.Join(parsed.ErrorMessages, "; ")
		}
		for field, msg := range parsed.Errors {
			return field + ": " + msg
		}
	}
	msg := strings.TrimSpace(string(data))
	if msg == "" {
		return "request failed"
	}
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
