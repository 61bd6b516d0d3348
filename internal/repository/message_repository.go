package repository

import (
	"context"
	"database/sql"

	"github.com/bishalstha/chat-api/internal/models"
)

type MessageRepository interface {
	Create(ctx context.Context, senderID, receiverID int64, content string) (models.Message, error)
	ListConversation(ctx context.Context, userID, otherUserID int64) ([]models.Message, error)
	GetByID(ctx context.Context, messageID int64) (models.Message, error)
	Delete(ctx context.Context, messageID, senderID int64) error
	MarkRead(ctx context.Context, messageID, receiverID int64) (models.Message, error)
	MarkDelivered(ctx context.Context, messageID int64) error
}

type messageRepository struct {
	db *sql.DB
}

func NewMessageRepository(db *sql.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, senderID, receiverID int64, content string) (models.Message, error) {
	const query = `
		INSERT INTO messages (sender_id, receiver_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, sender_id, receiver_id, content, timestamp, is_delivered, read_at
	`
	row := r.db.QueryRowContext(ctx, query, senderID, receiverID, content)
	return scanMessage(row)
}

// ListConversation returns the full history between two users in both
// directions, oldest first.
func (r *messageRepository) ListConversation(ctx context.Context, userID, otherUserID int64) ([]models.Message, error) {
	const query = `
		SELECT id, sender_id, receiver_id, content, timestamp, is_delivered, read_at
		FROM messages
		WHERE (sender_id = $1 AND receiver_id = $2)
		   OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY timestamp
	`

	rows, err := r.db.QueryContext(ctx, query, userID, otherUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *messageRepository) GetByID(ctx context.Context, messageID int64) (models.Message, error) {
	const query = `
		SELECT id, sender_id, receiver_id, content, timestamp, is_delivered, read_at
		FROM messages
		WHERE id = $1
	`
	row := r.db.QueryRowContext(ctx, query, messageID)
	return scanMessage(row)
}

// Delete removes a message; only its sender may delete it.
func (r *messageRepository) Delete(ctx context.Context, messageID, senderID int64) error {
	const query = `
		DELETE FROM messages
		WHERE id = $1 AND sender_id = $2
	`
	result, err := r.db.ExecContext(ctx, query, messageID, senderID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// MarkRead stamps read_at once; re-reading an already read message keeps the
// original timestamp. Only the receiver may mark a message read.
func (r *messageRepository) MarkRead(ctx context.Context, messageID, receiverID int64) (models.Message, error) {
	const query = `
		UPDATE messages
		SET read_at = COALESCE(read_at, now())
		WHERE id = $1 AND receiver_id = $2
		RETURNING id, sender_id, receiver_id, content, timestamp, is_delivered, read_at
	`
	row := r.db.QueryRowContext(ctx, query, messageID, receiverID)
	return scanMessage(row)
}

func (r *messageRepository) MarkDelivered(ctx context.Context, messageID int64) error {
	const query = `
		UPDATE messages
		SET is_delivered = TRUE
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, messageID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}

	return nil
}

func scanMessage(scanner interface {
	Scan(dest ...interface{}) error
}) (models.Message, error) {
	var (
		msg    models.Message
		readAt sql.NullTime
	)

	if err := scanner.Scan(
		&msg.ID,
		&msg.SenderID,
		&msg.ReceiverID,
		&msg.Content,
		&msg.Timestamp,
		&msg.IsDelivered,
		&readAt,
	); err != nil {
		return models.Message{}, err
	}

	if readAt.Valid {
		t := readAt.Time
		msg.ReadAt = &t
	}

	return msg, nil
}
