package importer

import (
	"fmt"

	"github.com/alexanderramin/retention/internal/domain"
)

// ValidateImportSchema checks the import schema for errors before
// conversion. Returns all validation errors found.
func ValidateImportSchema(schema *ImportSchema) []error {
	var errs []error

	if schema.FilePlan.Name == "" {
		errs = append(errs, fmt.Errorf("file_plan.name is required"))
	}

	categoryRefs := make(map[string]bool)
	errs = append(errs, validateCategories(schema.Categories, categoryRefs)...)

	folderRefs := make(map[string]bool)
	errs = append(errs, validateFolders(schema.Folders, categoryRefs, folderRefs)...)

	errs = append(errs, validateRecords(schema.Records, folderRefs)...)

	return errs
}

func validateCategories(categories []CategoryImport, refs map[string]bool) []error {
	var errs []error

	for i, c := range categories {
		prefix := fmt.Sprintf("categories[%d]", i)
		if c.Ref == "" {
			errs = append(errs, fmt.Errorf("%s.ref is required", prefix))
		} else if refs[c.Ref] {
			errs = append(errs, fmt.Errorf("%s.ref: duplicate ref %q", prefix, c.Ref))
		}
		if c.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		}
		// Parents must be declared first.
		if c.ParentRef != nil && !refs[*c.ParentRef] {
			errs = append(errs, fmt.Errorf("%s.parent_ref: unknown or later category %q", prefix, *c.ParentRef))
		}
		if c.Schedule != nil {
			errs = append(errs, validateSchedule(prefix+".schedule", c.Schedule)...)
		}
		if c.Vital != nil {
			errs = append(errs, validateVital(prefix+".vital", c.Vital)...)
		}
		if c.Ref != "" {
			refs[c.Ref] = true
		}
	}

	return errs
}

func validateSchedule(prefix string, s *ScheduleImport) []error {
	var errs []error
	for i, step := range s.Steps {
		stepPrefix := fmt.Sprintf("%s.steps[%d]", prefix, i)
		if step.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", stepPrefix))
		}
		if step.Period != nil {
			if _, err := domain.ParsePeriod(*step.Period); err != nil {
				errs = append(errs, fmt.Errorf("%s.period: %w", stepPrefix, err))
			}
		}
		if step.PeriodProperty != nil && step.Period == nil {
			errs = append(errs, fmt.Errorf("%s.period_property requires a period", stepPrefix))
		}
		seen := make(map[string]bool)
		for _, e := range step.Events {
			if e == "" {
				errs = append(errs, fmt.Errorf("%s.events: empty event name", stepPrefix))
			} else if seen[e] {
				errs = append(errs, fmt.Errorf("%s.events: duplicate event %q", stepPrefix, e))
			}
			seen[e] = true
		}
	}
	return errs
}

func validateVital(prefix string, v *VitalImport) []error {
	if v.ReviewPeriod == "" {
		if v.Enabled {
			return []error{fmt.Errorf("%s.review_period is required when enabled", prefix)}
		}
		return nil
	}
	if _, err := domain.ParsePeriod(v.ReviewPeriod); err != nil {
		return []error{fmt.Errorf("%s.review_period: %w", prefix, err)}
	}
	return nil
}

func validateFolders(folders []FolderImport, categoryRefs, refs map[string]bool) []error {
	var errs []error

	for i, f := range folders {
		prefix := fmt.Sprintf("folders[%d]", i)
		if f.Ref == "" {
			errs = append(errs, fmt.Errorf("%s.ref is required", prefix))
		} else if refs[f.Ref] {
			errs = append(errs, fmt.Errorf("%s.ref: duplicate ref %q", prefix, f.Ref))
		}
		if f.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		}
		if !categoryRefs[f.CategoryRef] {
			errs = append(errs, fmt.Errorf("%s.category_ref: unknown category %q", prefix, f.CategoryRef))
		}
		if f.Vital != nil {
			errs = append(errs, validateVital(prefix+".vital", f.Vital)...)
		}
		if f.Ref != "" {
			refs[f.Ref] = true
		}
	}

	return errs
}

func validateRecords(records []RecordImport, folderRefs map[string]bool) []error {
	var errs []error
	identifiers := make(map[string]bool)

	for i, r := range records {
		prefix := fmt.Sprintf("records[%d]", i)
		if r.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		}
		if !folderRefs[r.FolderRef] {
			errs = append(errs, fmt.Errorf("%s.folder_ref: unknown folder %q", prefix, r.FolderRef))
		}
		if r.Identifier != "" {
			if identifiers[r.Identifier] {
				errs = append(errs, fmt.Errorf("%s.identifier: duplicate identifier %q", prefix, r.Identifier))
			}
			identifiers[r.Identifier] = true
		}
	}

	return errs
}
