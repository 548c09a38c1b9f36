package domain

import "time"

// Transfer tracks items moved out of the file plan while the transfer is
// pending. It is removed when the transfer completes.
type Transfer struct {
	ID        string
	Accession bool
	ActionID  string
	NodeIDs   []string
	CreatedAt time.Time
	CreatedBy string
}
