package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/alexanderramin/retention/internal/db"
	"github.com/alexanderramin/retention/internal/domain"
	"github.com/alexanderramin/retention/internal/metrics"
	"github.com/alexanderramin/retention/internal/testutil"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testStart = time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

type harness struct {
	t       *testing.T
	ctx     context.Context
	db      *sql.DB
	clock   *testutil.Clock
	metrics *metrics.Metrics

	plans     FilePlanService
	schedules ScheduleService
	disp      DispositionService
	holds     HoldService
	vital     VitalRecordService
	imports   ImportService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	database := testutil.NewTestDB(t)
	return newHarnessWith(t, database, testutil.NewTestUoW(database), testutil.FixedClock(testStart))
}

func newHarnessWith(t *testing.T, database *sql.DB, uow db.UnitOfWork, clock *testutil.Clock) *harness {
	t.Helper()
	m := metrics.New(prometheus.NewRegistry())
	eng := NewEngine(uow, Options{Now: clock.Now, Metrics: m})
	return &harness{
		t:         t,
		ctx:       context.Background(),
		db:        database,
		clock:     clock,
		metrics:   m,
		plans:     NewFilePlanService(eng),
		schedules: NewScheduleService(eng),
		disp:      NewDispositionService(eng),
		holds:     NewHoldService(eng),
		vital:     NewVitalRecordService(eng),
		imports:   NewImportService(eng),
	}
}

// withUoW returns a harness over the same database and clock whose
// transactions run through uow.
func (h *harness) withUoW(uow db.UnitOfWork) *harness {
	return newHarnessWith(h.t, h.db, uow, h.clock)
}

func period(expr string) *domain.Period {
	p := domain.MustParsePeriod(expr)
	return &p
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func step(name string, p *domain.Period, events ...string) StepSpec {
	return StepSpec{Name: name, Period: p, Events: events}
}

func (h *harness) filePlan() *domain.Node {
	h.t.Helper()
	fp, err := h.plans.CreateFilePlan(h.ctx, "File Plan")
	require.NoError(h.t, err)
	return fp
}

func (h *harness) category(parentID, name string) *domain.Node {
	h.t.Helper()
	c, err := h.plans.CreateCategory(h.ctx, parentID, name)
	require.NoError(h.t, err)
	return c
}

func (h *harness) folder(categoryID, name string) *domain.Node {
	h.t.Helper()
	f, err := h.plans.CreateFolder(h.ctx, categoryID, name)
	require.NoError(h.t, err)
	return f
}

func (h *harness) record(folderID, name string) *domain.Node {
	h.t.Helper()
	r, err := h.plans.FileRecord(h.ctx, folderID, FileRecordRequest{
		Name:    name,
		Content: "content of " + name,
		Properties: map[string]string{
			domain.PropOriginator:              "records office",
			domain.PropOriginatingOrganization: "acme",
			domain.PropPublicationDate:         "2025-06-01",
		},
	})
	require.NoError(h.t, err)
	return r
}

func (h *harness) schedule(categoryID string, recordLevel bool, steps ...StepSpec) *domain.DispositionSchedule {
	h.t.Helper()
	s, err := h.schedules.CreateSchedule(h.ctx, categoryID, ScheduleSpec{
		Instructions:           "instructions",
		Authority:              "authority",
		RecordLevelDisposition: recordLevel,
		Steps:                  steps,
	})
	require.NoError(h.t, err)
	return s
}

func (h *harness) node(id string) *domain.Node {
	h.t.Helper()
	n, err := h.plans.Get(h.ctx, id)
	require.NoError(h.t, err)
	return n
}

func (h *harness) next(nodeID string) *domain.DispositionAction {
	h.t.Helper()
	a, err := h.disp.GetNextAction(h.ctx, nodeID)
	require.NoError(h.t, err)
	return a
}

func (h *harness) history(nodeID string) []*domain.DispositionAction {
	h.t.Helper()
	list, err := h.disp.GetCompletedActions(h.ctx, nodeID)
	require.NoError(h.t, err)
	return list
}

func (h *harness) execute(nodeID, action string, force bool) *ExecuteResult {
	h.t.Helper()
	res, err := h.disp.Execute(h.ctx, ExecuteRequest{NodeID: nodeID, Action: action, Actor: "tester", Force: force})
	require.NoError(h.t, err)
	return res
}

func (h *harness) projection(nodeID string) *domain.Projection {
	h.t.Helper()
	p, err := h.disp.GetProjection(h.ctx, nodeID)
	require.NoError(h.t, err)
	return p
}

// assertProjections re-derives the projection of each node from
// authoritative state and compares it with the stored one field by field.
func (h *harness) assertProjections(ids ...string) {
	h.t.Helper()
	uow := testutil.NewTestUoW(h.db)
	for _, id := range ids {
		var want domain.Projection
		require.NoError(h.t, uow.WithinTx(h.ctx, func(ctx context.Context, tx db.DBTX) error {
			var err error
			want, err = newRepos(tx).deriveProjection(ctx, id)
			return err
		}))
		got := h.projection(id)

		assert.Equal(h.t, want.NodeID, got.NodeID)
		assert.Equal(h.t, want.DispositionActionName, got.DispositionActionName, "action name of %s", id)
		assertTimePtr(h.t, want.DispositionActionAsOf, got.DispositionActionAsOf, "as-of of "+id)
		assert.Equal(h.t, want.DispositionEventsEligible, got.DispositionEventsEligible, "events eligible of %s", id)
		assert.Equal(h.t, want.DispositionEvents, got.DispositionEvents, "events of %s", id)
		assert.Equal(h.t, want.DispositionPeriod, got.DispositionPeriod, "period of %s", id)
		assert.Equal(h.t, want.DispositionPeriodExpression, got.DispositionPeriodExpression, "period expression of %s", id)
		assert.Equal(h.t, want.HasDispositionSchedule, got.HasDispositionSchedule, "schedule presence of %s", id)
		assert.Equal(h.t, want.DispositionInstructions, got.DispositionInstructions, "instructions of %s", id)
		assert.Equal(h.t, want.DispositionAuthority, got.DispositionAuthority, "authority of %s", id)
		assert.Equal(h.t, want.VitalRecordReviewPeriod, got.VitalRecordReviewPeriod, "review period of %s", id)
		assert.Equal(h.t, want.VitalRecordReviewPeriodExpression, got.VitalRecordReviewPeriodExpression, "review expression of %s", id)
		assert.Equal(h.t, want.HoldReasons, got.HoldReasons, "hold reasons of %s", id)
		assert.Equal(h.t, want.Frozen, got.Frozen, "frozen of %s", id)
	}
}

func assertTimePtr(t *testing.T, want, got *time.Time, label string) {
	t.Helper()
	if want == nil || got == nil {
		assert.Equal(t, want == nil, got == nil, label)
		return
	}
	assert.True(t, want.Equal(*got), "%s: want %s, got %s", label, *want, *got)
}
