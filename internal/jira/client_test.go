package jira

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{BaseURL: srv.URL, Email: "me@example.com", APIToken: "token"})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestSearchIssues(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/api/3/search" || r.Method != http.MethodPost {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var body struct {
			JQL string `json:"jql"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.JQL == "" {
			t.Fatal("missing jql in request body")
		}
		_, _ = w.Write([]byte(`{"issues":[{"key":"PROJ-7","fields":{
			"summary":"Migrate login",
			"status":{"name":"To Do"},
			"assignee":{"displayName":"Dana"},
			"priority":{"name":"High"},
			"issuetype":{"name":"Epic"}
		}}]}`))
	})

	issues, err := c.SearchIssues(context.Background(), `text ~ "login"`, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(issues) != 1 {
		t.Fatalf("expected 1 issue, got %d", len(issues))
	}
	got := issues[0]
	if got.Key != "PROJ-7" || got.Status != "To Do" || got.Assignee != "Dana" || got.IssueType != "Epic" {
		t.Fatalf("unexpected issue: %+v", got)
	}
}

func TestAPIErrorMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"errorMessages":["Issue does not exist"]}`))
	})

	_, err := c.GetIssue(context.Background(), "PROJ-404")
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.Status != 404 || apiErr.Message != "Issue does not exist" {
		t.Fatalf("unexpected error: %+v", apiErr)
	}
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Fatal("expected error for empty base URL")
	}
}
