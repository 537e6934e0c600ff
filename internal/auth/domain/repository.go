package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	CreateUser(ctx context.Context, db *gorm.DB, user *User) error
	FindUserByUsername(ctx context.Context, db *gorm.DB, username string) (*User, error)

	CreateSession(ctx context.Context, db *gorm.DB, session *Session) error
	FindSessionByTokenHash(ctx context.Context, db *gorm.DB, tokenHash string) (*Session, error)
	DeleteSession(ctx context.Context, db *gorm.DB, tokenHash string) error
}
