package eventbus

import "time"

// Topic represents an event topic.
type Topic string

const (
	TopicTurnStarted         Topic = "turn_started"
	TopicTurnFinished        Topic = "turn_finished"
	TopicProgress            Topic = "progress"
	TopicConfirmationRequest Topic = "confirmation_request"
	TopicViewStateChanged    Topic = "view_state_changed"
	TopicError               Topic = "error"
	TopicStatusChange        Topic = "status_change"
)

// Event is a message passed through the event bus.
type Event struct {
	Topic     Topic
	Payload   any
	Timestamp time.Time
}

// Handler processes an event.
type Handler func(Event)
