package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/retention/internal/domain"
)

// FormatSchedule renders a schedule header followed by its steps in order.
func FormatSchedule(s *domain.DispositionSchedule) string {
	const w = 12
	var b strings.Builder
	b.WriteString(Header("Disposition schedule") + "\n")
	b.WriteString(Field("id", w, s.ID))
	level := "folder"
	if s.RecordLevelDisposition {
		level = "record"
	}
	b.WriteString(Field("level", w, level))
	b.WriteString(Field("authority", w, OrDash(s.Authority)))
	b.WriteString(Field("instructions", w, OrDash(s.Instructions)))
	b.WriteString("\n")

	if len(s.Steps) == 0 {
		b.WriteString(Dim("No steps.") + "\n")
		return b.String()
	}
	rows := make([][]string, 0, len(s.Steps))
	for i := range s.Steps {
		rows = append(rows, stepRow(&s.Steps[i]))
	}
	b.WriteString(RenderTable([]string{"#", "STEP", "PERIOD", "PROPERTY", "EVENTS", "ID"}, rows))
	return b.String()
}

func stepRow(d *domain.DispositionActionDefinition) []string {
	period := placeholder
	if d.Period != nil {
		period = d.Period.String()
	}
	events := placeholder
	if len(d.Events) > 0 {
		events = strings.Join(d.Events, ", ")
		if d.EligibleOnFirstCompleteEvent && len(d.Events) > 1 {
			events += " (any)"
		}
	}
	return []string{
		fmt.Sprintf("%d", d.Position+1),
		d.Name,
		period,
		Str(d.PeriodProperty),
		events,
		TruncID(d.ID),
	}
}

// FormatStep renders a single step definition.
func FormatStep(d *domain.DispositionActionDefinition) string {
	return RenderTable([]string{"#", "STEP", "PERIOD", "PROPERTY", "EVENTS", "ID"}, [][]string{stepRow(d)})
}
