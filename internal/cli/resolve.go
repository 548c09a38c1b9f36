package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/retention/internal/domain"
	"github.com/alexanderramin/retention/internal/repository"
	"github.com/spf13/pflag"
)

// resolveNode resolves a node reference which can be:
//   - A node UUID
//   - A unique identifier such as 2026-0000000004
func resolveNode(ctx context.Context, app *App, ref string) (*domain.Node, error) {
	n, err := app.FilePlans.Resolve(ctx, ref)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("no node with ID or identifier %q", ref)
	}
	return n, err
}

func resolveNodeIDs(ctx context.Context, app *App, refs []string) ([]string, error) {
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		n, err := resolveNode(ctx, app, ref)
		if err != nil {
			return nil, err
		}
		ids = append(ids, n.ID)
	}
	return ids, nil
}

// parseProps converts key=value pairs into a property map.
func parseProps(pairs []string) (map[string]string, error) {
	props := make(map[string]string, len(pairs))
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid property %q (want key=value)", p)
		}
		props[key] = value
	}
	return props, nil
}

// parseDate accepts YYYY-MM-DD or RFC 3339.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD or RFC 3339)", s)
	}
	return t.UTC(), nil
}

func parsePeriodFlag(expr string) (*domain.Period, error) {
	if expr == "" {
		return nil, nil
	}
	p, err := domain.ParsePeriod(expr)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// optional returns a pointer to v when the flag was set explicitly, and nil
// otherwise.
func optional[T any](flags *pflag.FlagSet, name string, v T) *T {
	if !flags.Changed(name) {
		return nil
	}
	return &v
}
