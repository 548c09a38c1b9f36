package service

import (
	"errors"
	"testing"

	"github.com/alexanderramin/retention/internal/domain"
	"github.com/alexanderramin/retention/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errInjected = errors.New("injected failure")

func TestExecute_RollsBackPartialCascade(t *testing.T) {
	h := newHarness(t)
	fp := h.filePlan()
	cat := h.category(fp.ID, "Cat")
	h.schedule(cat.ID, false, step(domain.ActionCutoff, nil), step(domain.ActionDestroy, nil))
	f := h.folder(cat.ID, "Folder")
	r := h.record(f.ID, "doc.txt")
	before := h.next(f.ID)

	// Write 1 updates the folder, write 2 the first record.
	failing := h.withUoW(&testutil.FailOnNthExecUoW{DB: h.db, FailOn: 2, Err: errInjected})
	_, err := failing.disp.Execute(h.ctx, ExecuteRequest{NodeID: f.ID, Action: domain.ActionCutoff})
	require.ErrorIs(t, err, errInjected)

	assert.False(t, h.node(f.ID).CutOff)
	assert.False(t, h.node(r.ID).CutOff)
	assert.Equal(t, before.ID, h.next(f.ID).ID)
	assert.Empty(t, h.history(f.ID))
	h.assertProjections(f.ID, r.ID)

	h.execute(f.ID, domain.ActionCutoff, false)
	assert.True(t, h.node(r.ID).CutOff)
}

func TestProjectionSyncFailureRollsBack(t *testing.T) {
	h := newHarness(t)
	fp := h.filePlan()
	cat := h.category(fp.ID, "Cat")
	f := h.folder(cat.ID, "Folder")

	// Freeze writes the hold, the edge, then the projection row.
	failing := h.withUoW(&testutil.FailOnNthExecUoW{DB: h.db, FailOn: 3, Err: errInjected})
	_, err := failing.holds.Freeze(h.ctx, FreezeRequest{NodeIDs: []string{f.ID}, Name: "Suit", Reason: "lawsuit"})
	require.ErrorIs(t, err, errInjected)

	frozen, err := h.holds.IsFrozen(h.ctx, f.ID)
	require.NoError(t, err)
	assert.False(t, frozen)
	list, err := h.holds.ListHolds(h.ctx, fp.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.False(t, h.projection(f.ID).Frozen)
}
