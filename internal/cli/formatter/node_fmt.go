package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/retention/internal/domain"
)

const nodeLabelWidth = 10

// FormatNode renders the detail view of a single node.
func FormatNode(n *domain.Node) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s  %s\n\n", Bold(n.Name), KindBadge(n.Kind)))
	b.WriteString(Field("id", nodeLabelWidth, n.ID))
	b.WriteString(Field("identifier", nodeLabelWidth, OrDash(n.Identifier)))
	if n.ParentID != nil {
		b.WriteString(Field("parent", nodeLabelWidth, TruncID(*n.ParentID)))
	}
	b.WriteString(Field("state", nodeLabelWidth, StatePill(n)))
	if n.CutOffDate != nil {
		b.WriteString(Field("cut off", nodeLabelWidth, Timestamp(n.CutOffDate)))
	}
	if n.TransferredAt != nil {
		b.WriteString(Field("moved out", nodeLabelWidth, Timestamp(n.TransferredAt)))
	}
	if n.DestroyedAt != nil {
		b.WriteString(Field("destroyed", nodeLabelWidth, Timestamp(n.DestroyedAt)))
	}
	if n.Vital {
		b.WriteString(Field("review", nodeLabelWidth, Date(n.ReviewAsOf)))
	}
	return b.String()
}

// FormatNodeList renders nodes as a table.
func FormatNodeList(nodes []*domain.Node) string {
	if len(nodes) == 0 {
		return Dim("No nodes.") + "\n"
	}
	rows := make([][]string, 0, len(nodes))
	for _, n := range nodes {
		rows = append(rows, []string{
			TruncID(n.ID),
			KindBadge(n.Kind),
			n.Name,
			OrDash(n.Identifier),
			StatePill(n),
		})
	}
	return RenderTable([]string{"ID", "KIND", "NAME", "IDENTIFIER", "STATE"}, rows)
}

// FormatProjection renders the retention summary of a node.
func FormatProjection(p *domain.Projection) string {
	const w = 12
	var b strings.Builder
	b.WriteString(Header("Retention") + "\n")
	if !p.HasDispositionSchedule {
		b.WriteString(Field("schedule", w, Dim("none")))
	} else {
		b.WriteString(Field("authority", w, Str(p.DispositionAuthority)))
		b.WriteString(Field("instructions", w, Str(p.DispositionInstructions)))
		b.WriteString(Field("next action", w, Str(p.DispositionActionName)))
		b.WriteString(Field("as of", w, Date(p.DispositionActionAsOf)))
		if p.DispositionPeriod != nil {
			b.WriteString(Field("period", w, *p.DispositionPeriod+"|"+Str(p.DispositionPeriodExpression)))
		}
		if len(p.DispositionEvents) > 0 {
			events := strings.Join(p.DispositionEvents, ", ")
			if p.DispositionEventsEligible {
				events += " " + StyleGreen.Render("(satisfied)")
			}
			b.WriteString(Field("events", w, events))
		}
	}
	if p.VitalRecordReviewPeriod != nil {
		b.WriteString(Field("vital review", w, *p.VitalRecordReviewPeriod+"|"+Str(p.VitalRecordReviewPeriodExpression)))
	}
	if p.Frozen {
		b.WriteString(Field("frozen", w, StyleRed.Render(strings.Join(p.HoldReasons, "; "))))
	}
	return b.String()
}
