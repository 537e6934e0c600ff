package repository

import (
	"context"

	authdomain "github.com/mmdba/supmmdba/internal/auth/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() authdomain.Repository {
	return &repo{}
}

func (r *repo) CreateUser(ctx context.Context, db *gorm.DB, user *authdomain.User) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO users (id, username, password_hash, created_at)
		 VALUES (?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.PasswordHash,
		user.CreatedAt,
	).Error
}

func (r *repo) FindUserByUsername(ctx context.Context, db *gorm.DB, username string) (*authdomain.User, error) {
	var user authdomain.User
	err := db.WithContext(ctx).Raw(
		`SELECT id, username, password_hash, created_at
		 FROM users WHERE username = ?`,
		username,
	).Scan(&user).Error
	if err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, nil
	}
	return &user, nil
}

func (r *repo) CreateSession(ctx context.Context, db *gorm.DB, session *authdomain.Session) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO sessions (id, user_id, token_hash, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		session.ID,
		session.UserID,
		session.TokenHash,
		session.ExpiresAt,
		session.CreatedAt,
	).Error
}

func (r *repo) FindSessionByTokenHash(ctx context.Context, db *gorm.DB, tokenHash string) (*authdomain.Session, error) {
	var session authdomain.Session
	err := db.WithContext(ctx).Raw(
		`SELECT id, user_id, token_hash, expires_at, created_at
		 FROM sessions WHERE token_hash = ?`,
		tokenHash,
	).Scan(&session).Error
	if err != nil {
		return nil, err
	}
	if session.ID == 0 {
		return nil, nil
	}
	return &session, nil
}

func (r *repo) DeleteSession(ctx context.Context, db *gorm.DB, tokenHash string) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM sessions WHERE token_hash = ?`,
		tokenHash,
	).Error
}
