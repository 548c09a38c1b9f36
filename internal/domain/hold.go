package domain

import "time"

// Hold suspends destructive disposition actions on every node it covers.
type Hold struct {
	ID          string
	FilePlanID  string
	Name        string
	Reason      string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FreezeEdge links a hold to a covered node.
type FreezeEdge struct {
	HoldID    string
	NodeID    string
	CreatedAt time.Time
}
