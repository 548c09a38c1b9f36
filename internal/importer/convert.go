package importer

import (
	"fmt"

	"github.com/alexanderramin/retention/internal/domain"
)

// Plan is a validated import with periods parsed, in creation order.
type Plan struct {
	FilePlanName string
	Categories   []PlannedCategory
	Folders      []PlannedFolder
	Records      []RecordImport
}

type PlannedCategory struct {
	Ref       string
	ParentRef string // empty for top-level categories
	Name      string
	Schedule  *PlannedSchedule
	Vital     *domain.VitalRecordDefinition
}

type PlannedSchedule struct {
	Instructions string
	Authority    string
	RecordLevel  bool
	Steps        []PlannedStep
}

type PlannedStep struct {
	Name                 string
	Description          string
	Period               *domain.Period
	PeriodProperty       *string
	Events               []string
	EligibleOnFirstEvent bool
}

type PlannedFolder struct {
	Ref         string
	CategoryRef string
	Name        string
	Closed      bool
	Vital       *domain.VitalRecordDefinition
}

// Convert turns a validated ImportSchema into a Plan.
// Call ValidateImportSchema first; Convert assumes the schema is valid.
func Convert(schema *ImportSchema) (*Plan, error) {
	plan := &Plan{
		FilePlanName: schema.FilePlan.Name,
		Records:      schema.Records,
	}

	for _, c := range schema.Categories {
		pc := PlannedCategory{Ref: c.Ref, Name: c.Name}
		if c.ParentRef != nil {
			pc.ParentRef = *c.ParentRef
		}
		if c.Schedule != nil {
			sched, err := convertSchedule(c.Schedule)
			if err != nil {
				return nil, fmt.Errorf("category %s: %w", c.Ref, err)
			}
			pc.Schedule = sched
		}
		vital, err := convertVital(c.Vital)
		if err != nil {
			return nil, fmt.Errorf("category %s: %w", c.Ref, err)
		}
		pc.Vital = vital
		plan.Categories = append(plan.Categories, pc)
	}

	for _, f := range schema.Folders {
		vital, err := convertVital(f.Vital)
		if err != nil {
			return nil, fmt.Errorf("folder %s: %w", f.Ref, err)
		}
		plan.Folders = append(plan.Folders, PlannedFolder{
			Ref:         f.Ref,
			CategoryRef: f.CategoryRef,
			Name:        f.Name,
			Closed:      f.Closed,
			Vital:       vital,
		})
	}

	return plan, nil
}

func convertSchedule(s *ScheduleImport) (*PlannedSchedule, error) {
	out := &PlannedSchedule{
		Instructions: s.Instructions,
		Authority:    s.Authority,
		RecordLevel:  s.RecordLevel,
	}
	for _, step := range s.Steps {
		ps := PlannedStep{
			Name:                 step.Name,
			Description:          step.Description,
			PeriodProperty:       step.PeriodProperty,
			Events:               step.Events,
			EligibleOnFirstEvent: step.EligibleOnFirstEvent,
		}
		if step.Period != nil {
			p, err := domain.ParsePeriod(*step.Period)
			if err != nil {
				return nil, fmt.Errorf("step %s: %w", step.Name, err)
			}
			ps.Period = &p
		}
		out.Steps = append(out.Steps, ps)
	}
	return out, nil
}

func convertVital(v *VitalImport) (*domain.VitalRecordDefinition, error) {
	if v == nil {
		return nil, nil
	}
	def := &domain.VitalRecordDefinition{Enabled: v.Enabled, ReviewPeriod: domain.Period{Unit: domain.PeriodNone}}
	if v.ReviewPeriod != "" {
		p, err := domain.ParsePeriod(v.ReviewPeriod)
		if err != nil {
			return nil, err
		}
		def.ReviewPeriod = p
	}
	return def, nil
}
