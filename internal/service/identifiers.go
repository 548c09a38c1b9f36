package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/alexanderramin/retention/internal/domain"
	"github.com/alexanderramin/retention/internal/repository"
	"github.com/google/uuid"
)

// IdentifierGenerator produces the unique identifier of a new node.
type IdentifierGenerator interface {
	Generate(ctx context.Context, seq repository.IdentifierSequenceRepo, kind domain.NodeKind, parentID string, now time.Time) (string, error)
}

// SequenceIdentifiers issues "<year>-<10 digit sequence>" identifiers from a
// per-year sequence.
type SequenceIdentifiers struct{}

func (SequenceIdentifiers) Generate(ctx context.Context, seq repository.IdentifierSequenceRepo, _ domain.NodeKind, _ string, now time.Time) (string, error) {
	year := strconv.Itoa(now.Year())
	n, err := seq.Next(ctx, year)
	if err != nil {
		return "", fmt.Errorf("generating identifier: %w", err)
	}
	return fmt.Sprintf("%s-%010d", year, n), nil
}

// UUIDIdentifiers issues random UUID identifiers.
type UUIDIdentifiers struct{}

func (UUIDIdentifiers) Generate(context.Context, repository.IdentifierSequenceRepo, domain.NodeKind, string, time.Time) (string, error) {
	return uuid.New().String(), nil
}
