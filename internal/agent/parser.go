package agent

import (
	"encoding/json"
	"log"
	"strings"

	"jirapilot/internal/value"
)

const (
	// actionMarker prefixes a line carrying a JSON action payload.
	actionMarker = "ACTION:"
	// completionSentinel anywhere in the reply marks the goal as done.
	completionSentinel = "TASK_COMPLETE"
)

// Parsed is the structured view of one model reply.
type Parsed struct {
	// Display is the reply text with action lines and the sentinel removed,
	// suitable for showing to the user.
	Display string
	// Actions are the tool invocations proposed by the model, in order.
	Actions []Action
	// TaskComplete is set when the completion sentinel was present.
	TaskComplete bool
}

// ParseReply extracts actions and the completion flag from raw model output.
// Malformed action payloads are logged and skipped, never fatal: a reply with
// no parseable actions is valid (the model may just be asking a question).
// Parsing the same reply twice yields identical output.
func ParseReply(raw string) Parsed {
	parsed := Parsed{
		TaskComplete: strings.Contains(raw, completionSentinel),
	}

	var display []string
	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, actionMarker) {
			cleaned := strings.ReplaceAll(line, completionSentinel, "")
			if strings.TrimSpace(cleaned) != "" {
				display = append(display, cleaned)
			}
			continue
		}

		payload := strings.TrimSpace(strings.TrimPrefix(trimmed, actionMarker))
		action, err := parseActionPayload(payload)
		if err != nil {
			log.Printf("[agent] skipping malformed action payload: %v", err)
			continue
		}
		parsed.Actions = append(parsed.Actions, action)
	}

	parsed.Display = strings.TrimSpace(strings.Join(display, "\n"))
	return parsed
}

func parseActionPayload(payload string) (Action, error) {
	var decoded struct {
		Tool string          `json:"tool"`
		Args json.RawMessage `json:"args"`
	}
	if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
		return Action{}, err
	}
	if decoded.Tool == "" {
		return Action{}, errEmptyToolName
	}

	args := value.Map{}
	if len(decoded.Args) > 0 {
		var err error
		args, err = value.MapFromJSON(decoded.Args)
		if err != nil {
			return Action{}, err
		}
	}
	return Action{Tool: decoded.Tool, Args: args}, nil
}

var errEmptyToolName = &parseError{"action payload has no tool name"}

type parseError struct{ msg string }

func (e *parseError) Error() string { return e.msg }
