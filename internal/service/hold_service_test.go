package service

import (
	"testing"
	"time"

	"github.com/alexanderramin/retention/internal/domain"
	"github.com/alexanderramin/retention/internal/repository"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHolds_PartialUnfreeze(t *testing.T) {
	h := newHarness(t)
	fp := h.filePlan()
	cat := h.category(fp.ID, "Legal")
	f := h.folder(cat.ID, "Matter")
	r := h.record(f.ID, "memo.doc")

	first, err := h.holds.Freeze(h.ctx, FreezeRequest{NodeIDs: []string{r.ID}, Name: "Audit", Reason: "audit 2026"})
	require.NoError(t, err)
	h.clock.Advance(time.Minute)
	second, err := h.holds.Freeze(h.ctx, FreezeRequest{NodeIDs: []string{r.ID, f.ID}, Name: "Suit", Reason: "lawsuit"})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	p := h.projection(r.ID)
	assert.True(t, p.Frozen)
	assert.Equal(t, []string{"audit 2026", "lawsuit"}, p.HoldReasons)
	h.assertProjections(r.ID, f.ID)

	require.NoError(t, h.holds.Unfreeze(h.ctx, first.ID, r.ID))
	frozen, err := h.holds.IsFrozen(h.ctx, r.ID)
	require.NoError(t, err)
	assert.True(t, frozen)
	assert.Equal(t, []string{"lawsuit"}, h.projection(r.ID).HoldReasons)
	h.assertProjections(r.ID)

	require.NoError(t, h.holds.Unfreeze(h.ctx, second.ID, r.ID))
	frozen, err = h.holds.IsFrozen(h.ctx, r.ID)
	require.NoError(t, err)
	assert.False(t, frozen)
	p = h.projection(r.ID)
	assert.False(t, p.Frozen)
	assert.Empty(t, p.HoldReasons)
	h.assertProjections(r.ID)

	// The folder is still held by the second hold.
	frozen, err = h.holds.IsFrozen(h.ctx, f.ID)
	require.NoError(t, err)
	assert.True(t, frozen)

	assert.Equal(t, 3.0, promtest.ToFloat64(h.metrics.FreezeEdges.WithLabelValues("add")))
	assert.Equal(t, 2.0, promtest.ToFloat64(h.metrics.FreezeEdges.WithLabelValues("remove")))
}

func TestFreeze_ReusesHoldByName(t *testing.T) {
	h := newHarness(t)
	fp := h.filePlan()
	cat := h.category(fp.ID, "Legal")
	f1 := h.folder(cat.ID, "One")
	f2 := h.folder(cat.ID, "Two")

	a, err := h.holds.Freeze(h.ctx, FreezeRequest{NodeIDs: []string{f1.ID}, Name: "Suit", Reason: "lawsuit"})
	require.NoError(t, err)
	b, err := h.holds.Freeze(h.ctx, FreezeRequest{NodeIDs: []string{f2.ID}, Name: "Suit"})
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)
	assert.Equal(t, fp.ID, a.FilePlanID)

	held, err := h.holds.GetHeld(h.ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, held, 2)
	assert.Equal(t, f1.ID, held[0].ID)
	assert.Equal(t, f2.ID, held[1].ID)

	// Freezing twice is a no-op.
	_, err = h.holds.Freeze(h.ctx, FreezeRequest{NodeIDs: []string{f1.ID}, HoldID: a.ID})
	require.NoError(t, err)
	held, err = h.holds.GetHeld(h.ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, held, 2)
}

func TestFreeze_GeneratesName(t *testing.T) {
	h := newHarness(t)
	fp := h.filePlan()
	f := h.folder(h.category(fp.ID, "Legal").ID, "Matter")

	hold, err := h.holds.Freeze(h.ctx, FreezeRequest{NodeIDs: []string{f.ID}, Reason: "inquiry"})
	require.NoError(t, err)
	assert.Regexp(t, `^hold-[0-9a-f]{8}$`, hold.Name)
	assert.Equal(t, "inquiry", hold.Reason)

	list, err := h.holds.ListHolds(h.ctx, fp.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, hold.ID, list[0].ID)
}

func TestFreeze_Rejections(t *testing.T) {
	h := newHarness(t)
	fp := h.filePlan()
	cat := h.category(fp.ID, "Legal")

	_, err := h.holds.Freeze(h.ctx, FreezeRequest{Reason: "nothing"})
	require.Error(t, err)

	_, err = h.holds.Freeze(h.ctx, FreezeRequest{NodeIDs: []string{cat.ID}, Reason: "category"})
	assert.ErrorIs(t, err, ErrWrongKind)
	list, err := h.holds.ListHolds(h.ctx, fp.ID)
	require.NoError(t, err)
	assert.Empty(t, list, "failed freeze must not leave a hold behind")

	_, err = h.holds.CreateHold(h.ctx, fp.ID, "Suit", "r", "")
	require.NoError(t, err)
	_, err = h.holds.CreateHold(h.ctx, fp.ID, "Suit", "r", "")
	assert.ErrorIs(t, err, ErrHoldExists)
	_, err = h.holds.CreateHold(h.ctx, cat.ID, "Other", "r", "")
	assert.ErrorIs(t, err, ErrWrongKind)
}

func TestEditHoldReason_ResyncsHeldNodes(t *testing.T) {
	h := newHarness(t)
	fp := h.filePlan()
	cat := h.category(fp.ID, "Legal")
	f := h.folder(cat.ID, "Matter")
	r := h.record(f.ID, "memo.doc")

	hold, err := h.holds.Freeze(h.ctx, FreezeRequest{NodeIDs: []string{f.ID, r.ID}, Name: "Suit", Reason: "lawsuit"})
	require.NoError(t, err)

	h.clock.Advance(time.Hour)
	updated, err := h.holds.EditHoldReason(h.ctx, hold.ID, "appeal")
	require.NoError(t, err)
	assert.Equal(t, "appeal", updated.Reason)
	assert.True(t, h.clock.Now().Equal(updated.UpdatedAt))

	for _, id := range []string{f.ID, r.ID} {
		assert.Equal(t, []string{"appeal"}, h.projection(id).HoldReasons)
	}
	h.assertProjections(f.ID, r.ID)

	heldBy, err := h.holds.HeldBy(h.ctx, r.ID)
	require.NoError(t, err)
	require.Len(t, heldBy, 1)
	assert.Equal(t, "appeal", heldBy[0].Reason)
}

func TestRelinquishHold(t *testing.T) {
	h := newHarness(t)
	fp := h.filePlan()
	cat := h.category(fp.ID, "Legal")
	f := h.folder(cat.ID, "Matter")
	r := h.record(f.ID, "memo.doc")

	hold, err := h.holds.Freeze(h.ctx, FreezeRequest{NodeIDs: []string{f.ID, r.ID}, Name: "Suit", Reason: "lawsuit"})
	require.NoError(t, err)
	require.NoError(t, h.holds.RelinquishHold(h.ctx, hold.ID))

	_, err = h.holds.GetHold(h.ctx, hold.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	for _, id := range []string{f.ID, r.ID} {
		frozen, err := h.holds.IsFrozen(h.ctx, id)
		require.NoError(t, err)
		assert.False(t, frozen)
		assert.False(t, h.projection(id).Frozen)
	}
	h.assertProjections(f.ID, r.ID)
	assert.ErrorIs(t, h.holds.RelinquishHold(h.ctx, hold.ID), repository.ErrNotFound)
}

func TestIsFrozen_DirectEdgesOnly(t *testing.T) {
	h := newHarness(t)
	fp := h.filePlan()
	cat := h.category(fp.ID, "Legal")
	f := h.folder(cat.ID, "Matter")
	r := h.record(f.ID, "memo.doc")

	_, err := h.holds.Freeze(h.ctx, FreezeRequest{NodeIDs: []string{f.ID}, Reason: "lawsuit"})
	require.NoError(t, err)

	frozen, err := h.holds.IsFrozen(h.ctx, r.ID)
	require.NoError(t, err)
	assert.False(t, frozen)
	assert.False(t, h.projection(r.ID).Frozen)
}

func TestDelete_BlockedByHold(t *testing.T) {
	h := newHarness(t)
	fp := h.filePlan()
	cat := h.category(fp.ID, "Legal")
	f := h.folder(cat.ID, "Matter")
	r := h.record(f.ID, "memo.doc")

	hold, err := h.holds.Freeze(h.ctx, FreezeRequest{NodeIDs: []string{r.ID}, Reason: "lawsuit"})
	require.NoError(t, err)

	err = h.plans.Delete(h.ctx, cat.ID)
	require.Error(t, err)
	var fe *domain.NodeFrozenError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, r.ID, fe.FrozenNodeID)
	h.node(r.ID)

	require.NoError(t, h.holds.Unfreeze(h.ctx, hold.ID, r.ID))
	require.NoError(t, h.plans.Delete(h.ctx, cat.ID))
	_, err = h.plans.Get(h.ctx, r.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = h.disp.GetProjection(h.ctx, r.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
