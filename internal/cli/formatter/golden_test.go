package formatter

import (
	"regexp"
	"testing"
	"time"

	"github.com/alexanderramin/retention/internal/domain"
	"github.com/sebdah/goldie/v2"
)

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

// assertGolden compares rendered output, without styling, against
// testdata/golden/<name>.golden. Regenerate with go test -update.
func assertGolden(t *testing.T, name, rendered string) {
	t.Helper()
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(stripANSI(rendered)))
}

func TestFormatSchedule_Golden(t *testing.T) {
	p := domain.MustParsePeriod("year|6")
	prop := domain.PropCutOffDate
	s := &domain.DispositionSchedule{
		ID:           "sched-01",
		Authority:    "GRS 1.1",
		Instructions: "Destroy after 6 years",
		Steps: []domain.DispositionActionDefinition{
			{
				ID:                           "a1b2c3d4e5",
				Position:                     0,
				Name:                         domain.ActionCutoff,
				Events:                       []string{"case closed", "superseded"},
				EligibleOnFirstCompleteEvent: true,
			},
			{
				ID:             "f6e5d4c3b2",
				Position:       1,
				Name:           domain.ActionDestroy,
				Period:         &p,
				PeriodProperty: &prop,
			},
		},
	}
	assertGolden(t, "schedule", FormatSchedule(s))
}

func TestFormatHistory_Golden(t *testing.T) {
	at := func(y int, m time.Month, d, h, min int) *time.Time {
		v := time.Date(y, m, d, h, min, 0, 0, time.UTC)
		return &v
	}
	alice, bob := "alice", "bob"
	actions := []*domain.DispositionAction{
		{Seq: 1, Name: "cutoff", CompletedAt: at(2026, 1, 15, 10, 0), CompletedBy: &alice},
		{Seq: 2, Name: "retain", AsOf: at(2026, 2, 15, 0, 0), CompletedAt: at(2026, 2, 16, 9, 30), CompletedBy: &bob},
	}
	assertGolden(t, "history", FormatHistory(actions))
}

func TestRenderTree_Golden(t *testing.T) {
	node := func(kind domain.NodeKind, name, identifier string) *domain.Node {
		return &domain.Node{Kind: kind, Name: name, Identifier: identifier}
	}
	folder := node(domain.KindFolder, "Payroll 2025", "2026-0000000003")
	folder.CutOff = true
	folder.Closed = true
	record := node(domain.KindRecord, "payslip.pdf", "2026-0000000004")
	record.Declared = true

	root := &TreeNode{
		Node: node(domain.KindFilePlan, "Corporate", "2026-0000000001"),
		Children: []*TreeNode{
			{
				Node: node(domain.KindCategory, "HR", "2026-0000000002"),
				Children: []*TreeNode{
					{
						Node:     folder,
						Detail:   "destroy 2027-01-01",
						Children: []*TreeNode{{Node: record}},
					},
				},
			},
			{Node: node(domain.KindCategory, "Finance", "2026-0000000005")},
		},
	}
	assertGolden(t, "tree", RenderTree(root))
}
