package importer

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ImportSchema is the top-level YAML structure of a file plan import.
// Categories, folders and records refer to their parents by ref.
type ImportSchema struct {
	FilePlan   FilePlanImport   `yaml:"file_plan"`
	Categories []CategoryImport `yaml:"categories"`
	Folders    []FolderImport   `yaml:"folders,omitempty"`
	Records    []RecordImport   `yaml:"records,omitempty"`
}

type FilePlanImport struct {
	Name string `yaml:"name"`
}

// CategoryImport defines a category. Top-level categories omit parent_ref.
type CategoryImport struct {
	Ref       string          `yaml:"ref"`
	ParentRef *string         `yaml:"parent_ref,omitempty"`
	Name      string          `yaml:"name"`
	Schedule  *ScheduleImport `yaml:"schedule,omitempty"`
	Vital     *VitalImport    `yaml:"vital,omitempty"`
}

type ScheduleImport struct {
	Instructions string       `yaml:"instructions,omitempty"`
	Authority    string       `yaml:"authority,omitempty"`
	RecordLevel  bool         `yaml:"record_level,omitempty"`
	Steps        []StepImport `yaml:"steps"`
}

// StepImport defines a schedule step. Period uses the "unit|amount" form.
type StepImport struct {
	Name                 string   `yaml:"name"`
	Description          string   `yaml:"description,omitempty"`
	Period               *string  `yaml:"period,omitempty"`
	PeriodProperty       *string  `yaml:"period_property,omitempty"`
	Events               []string `yaml:"events,omitempty"`
	EligibleOnFirstEvent bool     `yaml:"eligible_on_first_event,omitempty"`
}

type VitalImport struct {
	Enabled      bool   `yaml:"enabled"`
	ReviewPeriod string `yaml:"review_period"`
}

type FolderImport struct {
	Ref         string       `yaml:"ref"`
	CategoryRef string       `yaml:"category_ref"`
	Name        string       `yaml:"name"`
	Closed      bool         `yaml:"closed,omitempty"`
	Vital       *VitalImport `yaml:"vital,omitempty"`
}

type RecordImport struct {
	FolderRef  string            `yaml:"folder_ref"`
	Name       string            `yaml:"name"`
	Identifier string            `yaml:"identifier,omitempty"`
	Content    string            `yaml:"content,omitempty"`
	Properties map[string]string `yaml:"properties,omitempty"`
	Declare    bool              `yaml:"declare,omitempty"`
}

// LoadImportSchema reads and parses a file plan YAML file. Unknown fields
// are rejected.
func LoadImportSchema(path string) (*ImportSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseImportSchema(data)
}

func ParseImportSchema(data []byte) (*ImportSchema, error) {
	var schema ImportSchema
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&schema); err != nil {
		return nil, fmt.Errorf("parsing import file: %w", err)
	}
	return &schema, nil
}
