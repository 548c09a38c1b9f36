package testutil

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alexanderramin/retention/internal/domain"
	"github.com/google/uuid"
)

var testIdentifierCounter atomic.Int64

// Node options
type NodeOption func(*domain.Node)

func WithParent(id string) NodeOption {
	return func(n *domain.Node) {
		n.ParentID = &id
	}
}

func WithIdentifier(id string) NodeOption {
	return func(n *domain.Node) {
		n.Identifier = id
	}
}

func WithContent(c string) NodeOption {
	return func(n *domain.Node) {
		n.Content = c
	}
}

func Declared() NodeOption {
	return func(n *domain.Node) {
		n.Declared = true
	}
}

func NewTestNode(kind domain.NodeKind, name string, opts ...NodeOption) *domain.Node {
	now := time.Now().UTC()
	n := &domain.Node{
		ID:         uuid.New().String(),
		Kind:       kind,
		Name:       name,
		Identifier: fmt.Sprintf("TEST-%06d", testIdentifierCounter.Add(1)),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Step options
type StepOption func(*domain.DispositionActionDefinition)

func WithPeriod(expr string) StepOption {
	return func(d *domain.DispositionActionDefinition) {
		p := domain.MustParsePeriod(expr)
		d.Period = &p
	}
}

func WithPeriodProperty(name string) StepOption {
	return func(d *domain.DispositionActionDefinition) {
		d.PeriodProperty = &name
	}
}

func WithEvents(events ...string) StepOption {
	return func(d *domain.DispositionActionDefinition) {
		d.Events = events
	}
}

func EligibleOnFirstEvent() StepOption {
	return func(d *domain.DispositionActionDefinition) {
		d.EligibleOnFirstCompleteEvent = true
	}
}

func NewTestStep(name string, opts ...StepOption) domain.DispositionActionDefinition {
	d := domain.DispositionActionDefinition{
		ID:          uuid.New().String(),
		Name:        name,
		Description: name + " step",
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func NewTestSchedule(categoryID string, recordLevel bool, steps ...domain.DispositionActionDefinition) *domain.DispositionSchedule {
	now := time.Now().UTC()
	return &domain.DispositionSchedule{
		ID:                     uuid.New().String(),
		CategoryID:             categoryID,
		Instructions:           "test instructions",
		Authority:              "test authority",
		RecordLevelDisposition: recordLevel,
		Steps:                  steps,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
}

func NewTestHold(filePlanID, name, reason string) *domain.Hold {
	now := time.Now().UTC()
	return &domain.Hold{
		ID:         uuid.New().String(),
		FilePlanID: filePlanID,
		Name:       name,
		Reason:     reason,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Clock is a settable time source for deterministic tests.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// FixedClock returns a Clock stopped at t.
func FixedClock(t time.Time) *Clock {
	return &Clock{now: t.UTC()}
}

// Now returns the clock's current time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// AdvanceDate moves the clock by calendar units.
func (c *Clock) AdvanceDate(years, months, days int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.AddDate(years, months, days)
}
