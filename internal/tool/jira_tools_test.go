package tool

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"jirapilot/internal/jira"
	"jirapilot/internal/value"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *jira.Client {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := jira.NewClient(jira.Config{
		BaseURL:  srv.URL,
		Email:    "dev@example.com",
		APIToken: "token",
	})
	if err != nil {
		t.Fatal(err)
	}
	return client
}

func TestTransitionMatchesStatusCaseInsensitive(t *testing.T) {
	var appliedID string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(map[string]any{
				"transitions": []map[string]any{
					{"id": "11", "to": map[string]any{"name": "To Do"}},
					{"id": "21", "to": map[string]any{"name": "In Progress"}},
					{"id": "31", "to": map[string]any{"name": "Done"}},
				},
			})
		case http.MethodPost:
			var body struct {
				Transition struct {
					ID string `json:"id"`
				} `json:"transition"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			appliedID = body.Transition.ID
			w.WriteHeader(http.StatusNoContent)
		}
	})

	tr := NewTransitionIssueTool(client)
	res, err := tr.Execute(context.Background(), value.Map{
		"key":    value.String("PROJ-1"),
		"status": value.String("in progress"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success {
		t.Fatalf("expected success, got: %s", res.Message)
	}
	if appliedID != "21" {
		t.Fatalf("expected transition 21 applied, got %q", appliedID)
	}
	if got, _ := res.Data["status"].AsString(); got != "In Progress" {
		t.Fatalf("expected canonical status name, got %q", got)
	}
}

func TestTransitionUnreachableStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"transitions": []map[string]any{
				{"id": "11", "to": map[string]any{"name": "To Do"}},
			},
		})
	})

	tr := NewTransitionIssueTool(client)
	res, err := tr.Execute(context.Background(), value.Map{
		"key":    value.String("PROJ-1"),
		"status": value.String("Done"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Success {
		t.Fatal("expected failure for unreachable status")
	}
	if !strings.Contains(res.Message, "To Do") {
		t.Fatalf("failure message should list available statuses, got: %s", res.Message)
	}
}

func TestAssignDefaultsToCurrentUser(t *testing.T) {
	var assignedTo string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/myself"):
			json.NewEncoder(w).Encode(map[string]string{"accountId": "me-123"})
		case strings.HasSuffix(r.URL.Path, "/assignee"):
			var body struct {
				AccountID string `json:"accountId"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			assignedTo = body.AccountID
			w.WriteHeader(http.StatusNoContent)
		}
	})

	as := NewAssignIssueTool(client)
	res, err := as.Execute(context.Background(), value.Map{
		"key": value.String("PROJ-2"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success {
		t.Fatalf("expected success, got: %s", res.Message)
	}
	if assignedTo != "me-123" {
		t.Fatalf("expected assignment to current user, got %q", assignedTo)
	}
}

func TestMissingRequiredArgFailsWithoutNetwork(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should be made when args are invalid")
	})

	tr := NewTransitionIssueTool(client)
	res, err := tr.Execute(context.Background(), value.Map{
		"status": value.String("Done"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Success {
		t.Fatal("expected failure for missing key")
	}
}
