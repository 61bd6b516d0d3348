package models

import "time"

// Message is one direct message between two users.
type Message struct {
	ID          int64      `json:"id"`
	SenderID    int64      `json:"sender_id"`
	ReceiverID  int64      `json:"receiver_id"`
	Content     string     `json:"content"`
	Timestamp   time.Time  `json:"timestamp"`
	IsDelivered bool       `json:"is_delivered"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
}

// IsRead indicates whether the receiver has marked the message as read.
func (m Message) IsRead() bool {
	return m.ReadAt != nil
}
