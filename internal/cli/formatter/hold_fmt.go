package formatter

import (
	"strings"

	"github.com/alexanderramin/retention/internal/domain"
)

// FormatHolds renders holds as a table.
func FormatHolds(holds []*domain.Hold) string {
	if len(holds) == 0 {
		return Dim("No holds.") + "\n"
	}
	rows := make([][]string, 0, len(holds))
	for _, h := range holds {
		rows = append(rows, []string{
			h.ID,
			h.Name,
			h.Reason,
			Timestamp(&h.CreatedAt),
		})
	}
	return RenderTable([]string{"ID", "NAME", "REASON", "CREATED"}, rows)
}

// FormatVital renders the effective vital record definition of n.
func FormatVital(n *domain.Node, eff domain.EffectiveVitalRecordDefinition) string {
	const w = 9
	var b strings.Builder
	b.WriteString(Header("Vital record") + "\n")
	if eff.Definition == nil {
		b.WriteString(Field("defined", w, Dim("no")))
		return b.String()
	}
	source := "self"
	if eff.SourceID != n.ID {
		source = "inherited from " + TruncID(eff.SourceID)
	}
	enabled := StyleDim.Render("disabled")
	if eff.Definition.Enabled {
		enabled = StyleGreen.Render("enabled")
	}
	b.WriteString(Field("defined", w, strings.Join([]string{enabled, source}, ", ")))
	b.WriteString(Field("period", w, eff.Definition.ReviewPeriod.String()))
	if n.Vital {
		b.WriteString(Field("review", w, Date(n.ReviewAsOf)))
	}
	return b.String()
}
