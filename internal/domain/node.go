package domain

import "time"

// Node is a governed or structural item in the file plan hierarchy.
type Node struct {
	ID         string
	ParentID   *string
	Kind       NodeKind
	Name       string
	Identifier string
	Declared   bool
	Content    string

	// Lifecycle markers
	CutOff        bool
	CutOffDate    *time.Time
	Closed        bool
	Transferred   bool
	TransferredAt *time.Time
	Accessioned   bool
	Ghosted       bool
	DestroyedAt   *time.Time

	// Vital record state
	Vital      bool
	ReviewAsOf *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsContainer reports whether the node can hold children.
func (n *Node) IsContainer() bool {
	return n.Kind != KindRecord
}

// CanContain reports whether a node of kind child may be filed under n.
func (n *Node) CanContain(child NodeKind) bool {
	switch n.Kind {
	case KindFilePlan:
		return child == KindCategory
	case KindCategory:
		return child == KindCategory || child == KindFolder
	case KindFolder:
		return child == KindRecord
	default:
		return false
	}
}

// SetIdentifier changes the unique identifier. Declared records are immutable.
func (n *Node) SetIdentifier(identifier string, now time.Time) error {
	if n.Declared {
		return &ImmutableIdentifierError{NodeID: n.ID, Identifier: n.Identifier}
	}
	n.Identifier = identifier
	n.UpdatedAt = now
	return nil
}

// ApplyCutoff marks the node cut off. Folders are closed at the same time.
func (n *Node) ApplyCutoff(now time.Time) {
	n.CutOff = true
	n.CutOffDate = &now
	if n.Kind == KindFolder {
		n.Closed = true
	}
	n.UpdatedAt = now
}

// ClearCutoff reverses ApplyCutoff except for folder closure.
func (n *Node) ClearCutoff(now time.Time) {
	n.CutOff = false
	n.CutOffDate = nil
	n.UpdatedAt = now
}

// Ghost removes primary content and keeps metadata as an audit trail.
func (n *Node) Ghost(now time.Time) {
	n.Content = ""
	n.Ghosted = true
	n.DestroyedAt = &now
	n.UpdatedAt = now
}

// MarkTransferred stamps a completed transfer or accession.
func (n *Node) MarkTransferred(accession bool, now time.Time) {
	n.Transferred = true
	n.TransferredAt = &now
	if accession {
		n.Accessioned = true
	}
	n.UpdatedAt = now
}

// ResetLifecycleMarkers clears markers for a freshly copied node.
func (n *Node) ResetLifecycleMarkers() {
	n.CutOff = false
	n.CutOffDate = nil
	n.Closed = false
	n.Transferred = false
	n.TransferredAt = nil
	n.Accessioned = false
	n.Ghosted = false
	n.DestroyedAt = nil
	n.Vital = false
	n.ReviewAsOf = nil
}
