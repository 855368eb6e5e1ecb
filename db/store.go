package db

import (
	"bitwise74/diapredict/internal/model"
	"context"
	"errors"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate key")
)

// UserStore holds user accounts
type UserStore interface {
	// Create inserts a new account. Returns ErrDuplicate if the username
	// or email is taken.
	Create(ctx context.Context, u *model.User) error
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	// VerifyByToken marks the account owning token as verified. The token
	// itself is kept so visiting the same link again is harmless.
	VerifyByToken(ctx context.Context, token string) error
}

// RecordStore holds prediction history
type RecordStore interface {
	Create(ctx context.Context, r *model.Record) error
	// ListByUser returns all records owned by username, newest first
	ListByUser(ctx context.Context, username string) ([]model.Record, error)
	// DeleteOwned deletes the record with the given id only if it belongs
	// to username. No match is not an error.
	DeleteOwned(ctx context.Context, id, username string) (int64, error)
	DeleteAllOwned(ctx context.Context, username string) (int64, error)
}

type Stores struct {
	Users   UserStore
	Records RecordStore

	close func(ctx context.Context) error
}

func (s *Stores) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}

	return s.close(ctx)
}
