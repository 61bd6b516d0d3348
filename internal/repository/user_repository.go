package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/bishalstha/chat-api/internal/models"
)

// ErrInvalidCredentials is returned for both unknown usernames and wrong
// passwords so callers cannot probe which accounts exist.
var ErrInvalidCredentials = errors.New("invalid credentials")

type UserRepository interface {
	CreateUser(ctx context.Context, username, email, password string) (models.User, error)
	Authenticate(ctx context.Context, username, password string) (models.User, error)
	GetUserByID(ctx context.Context, userID int64) (models.User, error)
	ListOthers(ctx context.Context, excludeUserID int64) ([]models.User, error)
	SetPresence(ctx context.Context, userID int64, online bool) error
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

func (u *userRepository) CreateUser(ctx context.Context, username, email, password string) (models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" {
		return models.User{}, errors.New("username is required")
	}
	if password == "" {
		return models.User{}, errors.New("password is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}

	user := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	}

	const query = `
		INSERT INTO users (username, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`
	err = u.db.QueryRowContext(ctx, query, user.Username, user.Email, user.PasswordHash).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return models.User{}, err
	}

	return user, nil
}

func (u *userRepository) Authenticate(ctx context.Context, username, password string) (models.User, error) {
	var user models.User
	var lastSeen sql.NullTime

	const query = `
		SELECT id, username, email, password_hash, is_online, last_seen, created_at
		FROM users
		WHERE username = $1`
	err := u.db.QueryRowContext(ctx, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.IsOnline,
		&lastSeen,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, err
	}
	if lastSeen.Valid {
		t := lastSeen.Time
		user.LastSeen = &t
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, ErrInvalidCredentials
	}

	return user, nil
}

func (u *userRepository) GetUserByID(ctx context.Context, userID int64) (models.User, error) {
	var user models.User
	var lastSeen sql.NullTime

	const query = `
		SELECT id, username, email, password_hash, is_online, last_seen, created_at
		FROM users
		WHERE id = $1`
	err := u.db.QueryRowContext(ctx, query, userID).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.IsOnline,
		&lastSeen,
		&user.CreatedAt,
	)
	if err != nil {
		return models.User{}, err
	}
	if lastSeen.Valid {
		t := lastSeen.Time
		user.LastSeen = &t
	}

	return user, nil
}

func (u *userRepository) ListOthers(ctx context.Context, excludeUserID int64) ([]models.User, error) {
	const query = `
		SELECT id, username, email, is_online, last_seen, created_at
		FROM users
		WHERE id <> $1
		ORDER BY username`

	rows, err := u.db.QueryContext(ctx, query, excludeUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		var lastSeen sql.NullTime

		if err := rows.Scan(&user.ID, &user.Username, &user.Email, &user.IsOnline, &lastSeen, &user.CreatedAt); err != nil {
			return nil, err
		}
		if lastSeen.Valid {
			t := lastSeen.Time
			user.LastSeen = &t
		}

		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return users, nil
}

func (u *userRepository) SetPresence(ctx context.Context, userID int64, online bool) error {
	const query = `
		UPDATE users
		SET is_online = $2, last_seen = now()
		WHERE id = $1`

	result, err := u.db.ExecContext(ctx, query, userID, online)
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
