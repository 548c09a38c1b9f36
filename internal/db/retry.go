package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// RetryingUnitOfWork re-runs the whole transaction when SQLite reports
// contention (SQLITE_BUSY or SQLITE_LOCKED), up to Attempts times.
type RetryingUnitOfWork struct {
	Inner    UnitOfWork
	Attempts int
	Backoff  time.Duration
}

// NewRetryingUnitOfWork wraps inner with contention retry.
func NewRetryingUnitOfWork(inner UnitOfWork, attempts int) *RetryingUnitOfWork {
	if attempts < 1 {
		attempts = 1
	}
	return &RetryingUnitOfWork{Inner: inner, Attempts: attempts, Backoff: 10 * time.Millisecond}
}

func (u *RetryingUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error {
	var err error
	for attempt := 1; attempt <= u.Attempts; attempt++ {
		err = u.Inner.WithinTx(ctx, fn)
		if err == nil || !IsContention(err) {
			return err
		}
		if attempt == u.Attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(u.Backoff * time.Duration(attempt)):
		}
	}
	return fmt.Errorf("transaction failed after %d attempts: %w", u.Attempts, err)
}

// ErrContention can be returned by callers to request a retry explicitly.
var ErrContention = errors.New("transaction contention")

// IsContention reports whether err is a retryable SQLite lock conflict.
func IsContention(err error) bool {
	if errors.Is(err, ErrContention) {
		return true
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return true
		}
	}
	return false
}
