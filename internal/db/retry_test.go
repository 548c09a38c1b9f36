package db_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/alexanderramin/retention/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingUoW struct {
	calls   int
	failFor int
	err     error
}

func (u *countingUoW) WithinTx(ctx context.Context, fn func(ctx context.Context, tx db.DBTX) error) error {
	u.calls++
	if u.calls <= u.failFor {
		return u.err
	}
	return fn(ctx, nil)
}

func TestRetryingUoW_RetriesContention(t *testing.T) {
	inner := &countingUoW{failFor: 2, err: fmt.Errorf("writing: %w", db.ErrContention)}
	uow := db.NewRetryingUnitOfWork(inner, 3)
	uow.Backoff = 0

	ran := false
	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, 3, inner.calls)
}

func TestRetryingUoW_GivesUp(t *testing.T) {
	inner := &countingUoW{failFor: 10, err: db.ErrContention}
	uow := db.NewRetryingUnitOfWork(inner, 2)
	uow.Backoff = 0

	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error { return nil })
	require.Error(t, err)
	assert.True(t, errors.Is(err, db.ErrContention))
	assert.Contains(t, err.Error(), "after 2 attempts")
	assert.Equal(t, 2, inner.calls)
}

func TestRetryingUoW_DoesNotRetryOtherErrors(t *testing.T) {
	boom := errors.New("boom")
	inner := &countingUoW{failFor: 10, err: boom}
	uow := db.NewRetryingUnitOfWork(inner, 5)

	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error { return nil })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, inner.calls)
}

func TestIsContention(t *testing.T) {
	assert.True(t, db.IsContention(db.ErrContention))
	assert.False(t, db.IsContention(errors.New("database is closed")))
	assert.False(t, db.IsContention(nil))
}
