package service

import (
	"bytes"
	"testing"

	"github.com/alexanderramin/retention/internal/domain"
	"github.com/alexanderramin/retention/internal/testutil"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogObserver_ReportsUseCases(t *testing.T) {
	database := testutil.NewTestDB(t)
	var buf bytes.Buffer
	clock := testutil.FixedClock(testStart)
	eng := NewEngine(testutil.NewTestUoW(database), Options{Now: clock.Now}, NewLogUseCaseObserver(&buf))
	plans := NewFilePlanService(eng)
	disp := NewDispositionService(eng)

	fp, err := plans.CreateFilePlan(t.Context(), "Plan")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "use_case=fileplan.create")
	assert.Contains(t, buf.String(), "success=true")

	buf.Reset()
	_, err = disp.Execute(t.Context(), ExecuteRequest{NodeID: fp.ID, Action: domain.ActionCutoff})
	require.Error(t, err)
	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "use_case=action.execute")
	assert.Contains(t, out, "error_code=NOT_ELIGIBLE")
}

func TestMetrics_CountsUseCasesAndExecutions(t *testing.T) {
	h := newHarness(t)

	fp := h.filePlan()
	cat := h.category(fp.ID, "Cat")
	h.schedule(cat.ID, false, step(domain.ActionCutoff, nil), step(domain.ActionDestroy, nil))
	f := h.folder(cat.ID, "Folder")
	h.execute(f.ID, domain.ActionCutoff, false)
	h.execute(f.ID, domain.ActionDestroy, false)
	_, err := h.disp.Execute(h.ctx, ExecuteRequest{NodeID: f.ID, Action: domain.ActionDestroy})
	require.Error(t, err)

	assert.Equal(t, 1.0, promtest.ToFloat64(h.metrics.ActionsExecuted.WithLabelValues(domain.ActionCutoff)))
	assert.Equal(t, 1.0, promtest.ToFloat64(h.metrics.ActionsExecuted.WithLabelValues(domain.ActionDestroy)))
	assert.Equal(t, 2.0, promtest.ToFloat64(h.metrics.UseCases.WithLabelValues("action.execute", "ok")))
	assert.Equal(t, 1.0, promtest.ToFloat64(h.metrics.UseCases.WithLabelValues("action.execute", "error")))
	assert.Positive(t, promtest.ToFloat64(h.metrics.ProjectionSyncs))
}
