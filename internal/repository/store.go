// Package repository persists per-user bot state.
package repository

import (
	"context"
	"errors"

	"gitlab.com/yelinaung/cashpilot-bot/internal/models"
)

// ErrUserNotFound is returned when no state exists for a Telegram user.
var ErrUserNotFound = errors.New("user not found")

// UserStore holds the branch binding and the tracked open cash session of
// each Telegram user.
type UserStore interface {
	// UpsertProfile creates the user or refreshes their Telegram profile,
	// leaving the business binding and open session untouched.
	UpsertProfile(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id int64) (*models.User, error)
	SetBusiness(ctx context.Context, userID int64, businessID, businessName string) error
	// SetOpenSession and ClearOpenSession are no-ops for unknown users.
	SetOpenSession(ctx context.Context, userID int64, sessionID string) error
	ClearOpenSession(ctx context.Context, userID int64) error
	ListWithOpenSession(ctx context.Context) ([]models.User, error)
}

var (
	_ UserStore = (*UserRepository)(nil)
	_ UserStore = (*MemoryUserRepository)(nil)
)
