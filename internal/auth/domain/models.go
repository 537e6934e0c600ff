// Package domain contains core types for the auth service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// User represents a dashboard operator account.
type User struct {
	ID           snowflake.ID `gorm:"primaryKey"`
	Username     string       `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash string       `gorm:"type:text;not null"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

// Session represents a persisted login session.
type Session struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	UserID    snowflake.ID `gorm:"column:user_id;not null;index"`
	TokenHash string       `gorm:"column:token_hash;type:text;not null;uniqueIndex"`
	ExpiresAt time.Time    `gorm:"column:expires_at;not null;index"`
	CreatedAt time.Time    `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Session) TableName() string { return "sessions" }
