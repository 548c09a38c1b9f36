package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/retention/internal/domain"
	"github.com/alexanderramin/retention/internal/retention"
)

// FormatNextAction renders the current disposition action and its events.
func FormatNextAction(a *domain.DispositionAction, el retention.Eligibility, now time.Time) string {
	const w = 7
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s  %s\n", Bold(a.Name), EligibilityBadge(el.Eligible())))
	if reason := el.Reason(); reason != "" {
		b.WriteString(Field("why", w, Dim(reason)))
	}
	b.WriteString(Field("as of", w, DueDate(a.AsOf, now)))
	if a.StartedAt != nil {
		b.WriteString(Field("started", w, Timestamp(a.StartedAt)+" by "+Str(a.StartedBy)))
	}
	if len(a.Events) > 0 {
		b.WriteString(Field("events", w, ""))
		for _, e := range a.Events {
			b.WriteString("    " + formatEvent(e) + "\n")
		}
	}
	return b.String()
}

func formatEvent(e domain.EventCompletion) string {
	if !e.Complete {
		return StyleYellow.Render("○ ") + e.EventName
	}
	return StyleGreen.Render("✔ ") + e.EventName + "  " + Dim(Timestamp(e.CompletedAt)+" by "+Str(e.CompletedBy))
}

// FormatHistory renders completed actions oldest first.
func FormatHistory(actions []*domain.DispositionAction) string {
	if len(actions) == 0 {
		return Dim("No completed actions.") + "\n"
	}
	rows := make([][]string, 0, len(actions))
	for _, a := range actions {
		rows = append(rows, []string{
			fmt.Sprintf("%d", a.Seq),
			a.Name,
			Date(a.AsOf),
			Timestamp(a.CompletedAt),
			Str(a.CompletedBy),
		})
	}
	return RenderTable([]string{"#", "ACTION", "AS OF", "COMPLETED", "BY"}, rows)
}

// FormatEligibility renders the two eligibility conditions.
func FormatEligibility(el retention.Eligibility) string {
	check := func(ok bool) string {
		if ok {
			return StyleGreen.Render("✔ met")
		}
		return StyleRed.Render("✖ not met")
	}
	var b strings.Builder
	b.WriteString(EligibilityBadge(el.Eligible()) + "\n")
	b.WriteString(Field("time", 6, check(el.TimeOK)))
	b.WriteString(Field("events", 6, check(el.EventsOK)))
	return b.String()
}

// FormatTransfers renders pending transfers and accessions.
func FormatTransfers(transfers []*domain.Transfer) string {
	if len(transfers) == 0 {
		return Dim("No pending transfers.") + "\n"
	}
	rows := make([][]string, 0, len(transfers))
	for _, t := range transfers {
		kind := domain.ActionTransfer
		if t.Accession {
			kind = domain.ActionAccession
		}
		rows = append(rows, []string{
			t.ID,
			kind,
			fmt.Sprintf("%d", len(t.NodeIDs)),
			Timestamp(&t.CreatedAt),
			OrDash(t.CreatedBy),
		})
	}
	return RenderTable([]string{"ID", "KIND", "ITEMS", "CREATED", "BY"}, rows)
}
