package service

import (
	"context"
	"fmt"

	"github.com/alexanderramin/retention/internal/domain"
	"github.com/alexanderramin/retention/internal/importer"
)

type importService struct {
	eng *Engine
}

func NewImportService(eng *Engine) ImportService {
	return &importService{eng: eng}
}

func (s *importService) ImportFilePlan(ctx context.Context, filePath string) (*ImportResult, error) {
	schema, err := importer.LoadImportSchema(filePath)
	if err != nil {
		return nil, fmt.Errorf("loading import file: %w", err)
	}
	return s.importSchema(ctx, schema)
}

func (s *importService) ImportFilePlanFromSchema(ctx context.Context, schema *importer.ImportSchema) (*ImportResult, error) {
	return s.importSchema(ctx, schema)
}

// importSchema builds the whole file plan in one transaction; any failure
// leaves nothing behind.
func (s *importService) importSchema(ctx context.Context, schema *importer.ImportSchema) (*ImportResult, error) {
	if errs := importer.ValidateImportSchema(schema); len(errs) > 0 {
		return nil, formatValidationErrors(errs)
	}

	plan, err := importer.Convert(schema)
	if err != nil {
		return nil, fmt.Errorf("converting import schema: %w", err)
	}

	result := &ImportResult{}
	fields := map[string]any{"name": plan.FilePlanName, "categories": len(plan.Categories)}
	err = s.eng.run(ctx, "fileplan.import", fields, func(ctx context.Context, lc *lifecycle) error {
		fp, err := lc.createNode(ctx, nil, domain.KindFilePlan, plan.FilePlanName, "")
		if err != nil {
			return fmt.Errorf("creating file plan: %w", err)
		}
		result.FilePlan = fp

		refs := make(map[string]*domain.Node)
		for _, pc := range plan.Categories {
			parent := fp
			if pc.ParentRef != "" {
				parent = refs[pc.ParentRef]
			}
			cat, err := lc.createNode(ctx, parent, domain.KindCategory, pc.Name, "")
			if err != nil {
				return fmt.Errorf("creating category %q: %w", pc.Name, err)
			}
			refs[pc.Ref] = cat
			result.CategoryCount++

			if pc.Schedule != nil {
				if _, err := lc.createSchedule(ctx, cat.ID, scheduleSpecOf(pc.Schedule)); err != nil {
					return fmt.Errorf("creating schedule of %q: %w", pc.Name, err)
				}
				result.ScheduleCount++
			}
			if pc.Vital != nil {
				if err := lc.putVital(ctx, cat.ID, *pc.Vital); err != nil {
					return err
				}
			}
		}

		folders := make(map[string]*domain.Node)
		for _, pf := range plan.Folders {
			folder, err := lc.createNode(ctx, refs[pf.CategoryRef], domain.KindFolder, pf.Name, "")
			if err != nil {
				return fmt.Errorf("creating folder %q: %w", pf.Name, err)
			}
			if pf.Vital != nil {
				if err := lc.putVital(ctx, folder.ID, *pf.Vital); err != nil {
					return err
				}
			}
			if err := lc.enterGovernance(ctx, folder); err != nil {
				return err
			}
			folders[pf.Ref] = folder
			result.FolderCount++
		}

		for _, rec := range plan.Records {
			n, err := lc.fileRecord(ctx, folders[rec.FolderRef].ID, FileRecordRequest{
				Name:       rec.Name,
				Content:    rec.Content,
				Identifier: rec.Identifier,
				Properties: rec.Properties,
			})
			if err != nil {
				return fmt.Errorf("filing record %q: %w", rec.Name, err)
			}
			if rec.Declare {
				if err := lc.declare(ctx, n); err != nil {
					return err
				}
			}
			result.RecordCount++
		}

		// Folders close only after their records are filed.
		for _, pf := range plan.Folders {
			if !pf.Closed {
				continue
			}
			folder := folders[pf.Ref]
			folder.Closed = true
			folder.UpdatedAt = lc.now
			if err := lc.nodes.Update(ctx, folder); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func scheduleSpecOf(ps *importer.PlannedSchedule) ScheduleSpec {
	spec := ScheduleSpec{
		Instructions:           ps.Instructions,
		Authority:              ps.Authority,
		RecordLevelDisposition: ps.RecordLevel,
	}
	for _, step := range ps.Steps {
		spec.Steps = append(spec.Steps, StepSpec{
			Name:                         step.Name,
			Description:                  step.Description,
			Period:                       step.Period,
			PeriodProperty:               step.PeriodProperty,
			Events:                       step.Events,
			EligibleOnFirstCompleteEvent: step.EligibleOnFirstEvent,
		})
	}
	return spec
}

func formatValidationErrors(errs []error) error {
	msg := fmt.Sprintf("import validation failed (%d errors):", len(errs))
	for _, e := range errs {
		msg += "\n  - " + e.Error()
	}
	return fmt.Errorf("%s", msg)
}
