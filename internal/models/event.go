package models

import "encoding/json"

// Event type discriminators carried in every notification payload so a
// subscriber can tell event kinds apart on a shared per-user topic.
const (
	EventTypeNewMessage     = "new_message"
	EventTypeMessageDeleted = "message_deleted"
	EventTypeMessageRead    = "message_read"
)

// NotificationEvent is one push-notification event. Implementations are
// immutable value types that marshal to a self-contained JSON object with a
// "type" field.
type NotificationEvent interface {
	EventType() string
}

// NewMessageEvent announces a freshly persisted message to its receiver.
type NewMessageEvent struct {
	ID        int64  `json:"id"`
	SenderID  int64  `json:"sender_id"`
	Sender    string `json:"sender"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

func (NewMessageEvent) EventType() string { return EventTypeNewMessage }

func (e NewMessageEvent) MarshalJSON() ([]byte, error) {
	type alias NewMessageEvent
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{e.EventType(), alias(e)})
}

// MessageDeletedEvent tells the receiver a message was removed by its sender.
type MessageDeletedEvent struct {
	MessageID int64 `json:"message_id"`
}

func (MessageDeletedEvent) EventType() string { return EventTypeMessageDeleted }

func (e MessageDeletedEvent) MarshalJSON() ([]byte, error) {
	type alias MessageDeletedEvent
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{e.EventType(), alias(e)})
}

// MessageReadEvent is the read receipt delivered back to the sender.
type MessageReadEvent struct {
	MessageID int64 `json:"message_id"`
}

func (MessageReadEvent) EventType() string { return EventTypeMessageRead }

func (e MessageReadEvent) MarshalJSON() ([]byte, error) {
	type alias MessageReadEvent
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{e.EventType(), alias(e)})
}
