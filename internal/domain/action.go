package domain

import "time"

// DispositionAction is the next-action instance attached to a governed node,
// or a completed snapshot in the node's history.
type DispositionAction struct {
	ID           string
	NodeID       string
	DefinitionID string
	Name         string
	AsOf         *time.Time
	StartedAt    *time.Time
	StartedBy    *string
	CompletedAt  *time.Time
	CompletedBy  *string
	Events       []EventCompletion // in definition order
	Seq          int               // history order; 0 for the current action
	CreatedAt    time.Time
}

// EventCompletion is the completion state of one event on an action.
type EventCompletion struct {
	EventName   string
	Complete    bool
	CompletedAt *time.Time
	CompletedBy *string
}

// NewEventStubs returns incomplete completion entries for each distinct event.
func NewEventStubs(events []string) []EventCompletion {
	seen := make(map[string]bool, len(events))
	stubs := make([]EventCompletion, 0, len(events))
	for _, e := range events {
		if seen[e] {
			continue
		}
		seen[e] = true
		stubs = append(stubs, EventCompletion{EventName: e})
	}
	return stubs
}

// Event returns the completion entry for name.
func (a *DispositionAction) Event(name string) (*EventCompletion, bool) {
	for i := range a.Events {
		if a.Events[i].EventName == name {
			return &a.Events[i], true
		}
	}
	return nil, false
}

// EventNames returns the event names in order.
func (a *DispositionAction) EventNames() []string {
	names := make([]string, len(a.Events))
	for i, e := range a.Events {
		names[i] = e.EventName
	}
	return names
}

// CompleteEvent marks name complete. Completing an already complete event
// keeps the original completion details.
func (a *DispositionAction) CompleteEvent(name string, at time.Time, by string) error {
	ev, ok := a.Event(name)
	if !ok {
		return &UnknownEventError{NodeID: a.NodeID, Action: a.Name, EventName: name}
	}
	if ev.Complete {
		return nil
	}
	ev.Complete = true
	ev.CompletedAt = &at
	ev.CompletedBy = &by
	return nil
}

// UndoEvent reverses a completion.
func (a *DispositionAction) UndoEvent(name string) error {
	ev, ok := a.Event(name)
	if !ok {
		return &UnknownEventError{NodeID: a.NodeID, Action: a.Name, EventName: name}
	}
	ev.Complete = false
	ev.CompletedAt = nil
	ev.CompletedBy = nil
	return nil
}

// ReplaceEvents swaps the event list, keeping completion state for events
// present in both the old and new lists.
func (a *DispositionAction) ReplaceEvents(events []string) {
	next := NewEventStubs(events)
	for i := range next {
		if old, ok := a.Event(next[i].EventName); ok {
			next[i] = *old
		}
	}
	a.Events = next
}

// EventsSatisfied applies the all-or-first completion rule. An empty event
// list is satisfied.
func (a *DispositionAction) EventsSatisfied(firstComplete bool) bool {
	if len(a.Events) == 0 {
		return true
	}
	for _, e := range a.Events {
		if firstComplete && e.Complete {
			return true
		}
		if !firstComplete && !e.Complete {
			return false
		}
	}
	return !firstComplete
}

// Start records that execution began.
func (a *DispositionAction) Start(at time.Time, by string) {
	a.StartedAt = &at
	a.StartedBy = &by
}

// Complete records that execution finished.
func (a *DispositionAction) Complete(at time.Time, by string) {
	a.CompletedAt = &at
	a.CompletedBy = &by
}

// ResetExecution clears start and completion details.
func (a *DispositionAction) ResetExecution() {
	a.StartedAt = nil
	a.StartedBy = nil
	a.CompletedAt = nil
	a.CompletedBy = nil
}
