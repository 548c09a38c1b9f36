package domain

type NodeKind string

const (
	KindFilePlan NodeKind = "file_plan"
	KindCategory NodeKind = "category"
	KindFolder   NodeKind = "folder"
	KindRecord   NodeKind = "record"
)

// ValidNodeKinds is the canonical set of accepted node kind strings.
var ValidNodeKinds = map[string]bool{
	"file_plan": true, "category": true, "folder": true, "record": true,
}

// Built-in disposition step names. Any other name is a custom step with no
// side effect.
const (
	ActionCutoff    = "cutoff"
	ActionTransfer  = "transfer"
	ActionAccession = "accession"
	ActionDestroy   = "destroy"
	ActionRetain    = "retain"
)

// IsDestructiveAction reports whether the step is blocked by an active hold.
func IsDestructiveAction(name string) bool {
	return name == ActionCutoff || name == ActionDestroy
}

// Well-known node property names.
const (
	PropCutOffDate              = "cutOffDate"
	PropDateFiled               = "dateFiled"
	PropPublicationDate         = "publicationDate"
	PropOriginator              = "originator"
	PropOriginatingOrganization = "originatingOrganization"

	// PropDispositionAsOf as a period property resolves to the completion
	// time of the last completed disposition action.
	PropDispositionAsOf = "dispositionAsOf"
)

// DefaultMandatoryProperties must be set before a record can be declared.
var DefaultMandatoryProperties = []string{
	PropOriginator,
	PropOriginatingOrganization,
	PropPublicationDate,
}
