package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessageEventPayload(t *testing.T) {
	event := NewMessageEvent{
		ID:        1,
		SenderID:  7,
		Sender:    "alice",
		Content:   "hi",
		Timestamp: "2024-01-01T00:00:00Z",
	}

	payload, err := json.Marshal(event)
	require.NoError(t, err)

	assert.JSONEq(t, `{"type":"new_message","id":1,"sender_id":7,"sender":"alice","content":"hi","timestamp":"2024-01-01T00:00:00Z"}`, string(payload))
}

func TestMessageDeletedEventPayload(t *testing.T) {
	payload, err := json.Marshal(MessageDeletedEvent{MessageID: 99})
	require.NoError(t, err)

	assert.JSONEq(t, `{"type":"message_deleted","message_id":99}`, string(payload))
}

func TestMessageReadEventPayload(t *testing.T) {
	payload, err := json.Marshal(MessageReadEvent{MessageID: 12})
	require.NoError(t, err)

	assert.JSONEq(t, `{"type":"message_read","message_id":12}`, string(payload))
}

func TestEventPayloadsCarryDiscriminator(t *testing.T) {
	events := []NotificationEvent{
		NewMessageEvent{ID: 3, SenderID: 4, Sender: "bob", Content: "hello", Timestamp: "2024-06-01T10:00:00Z"},
		MessageDeletedEvent{MessageID: 5},
		MessageReadEvent{MessageID: 6},
	}

	for _, event := range events {
		payload, err := json.Marshal(event)
		require.NoError(t, err)

		var decoded map[string]interface{}
		require.NoError(t, json.Unmarshal(payload, &decoded))
		assert.Equal(t, event.EventType(), decoded["type"])
	}
}
