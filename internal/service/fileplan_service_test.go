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

func TestContainment(t *testing.T) {
	h := newHarness(t)
	fp := h.filePlan()
	cat := h.category(fp.ID, "Cat")
	f := h.folder(cat.ID, "Folder")
	r := h.record(f.ID, "doc.txt")

	tests := []struct {
		name string
		call func() error
	}{
		{"category under folder", func() error { _, err := h.plans.CreateCategory(h.ctx, f.ID, "x"); return err }},
		{"folder under file plan", func() error { _, err := h.plans.CreateFolder(h.ctx, fp.ID, "x"); return err }},
		{"folder under record", func() error { _, err := h.plans.CreateFolder(h.ctx, r.ID, "x"); return err }},
		{"record under category", func() error {
			_, err := h.plans.FileRecord(h.ctx, cat.ID, FileRecordRequest{Name: "x"})
			return err
		}},
		{"record moved to category", func() error { _, err := h.plans.Move(h.ctx, r.ID, cat.ID); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.Error(t, err)
			assert.True(t, domain.IsInvalidContainment(err), "got %v", err)
		})
	}
}

func TestClosedFolderRejectsRecords(t *testing.T) {
	h := newHarness(t)
	fp := h.filePlan()
	cat := h.category(fp.ID, "Cat")
	open := h.folder(cat.ID, "Open")
	closed := h.folder(cat.ID, "Closed")
	r := h.record(open.ID, "doc.txt")

	folder, err := h.plans.CloseFolder(h.ctx, closed.ID)
	require.NoError(t, err)
	assert.True(t, folder.Closed)

	_, err = h.plans.FileRecord(h.ctx, closed.ID, FileRecordRequest{Name: "late.txt"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "folder is closed")
	_, err = h.plans.Move(h.ctx, r.ID, closed.ID)
	assert.True(t, domain.IsInvalidContainment(err))

	folder, err = h.plans.ReopenFolder(h.ctx, closed.ID)
	require.NoError(t, err)
	assert.False(t, folder.Closed)
	_, err = h.plans.Move(h.ctx, r.ID, closed.ID)
	require.NoError(t, err)

	_, err = h.plans.CloseFolder(h.ctx, r.ID)
	assert.ErrorIs(t, err, ErrWrongKind)
}

func TestReopenFolder_RejectsCutOff(t *testing.T) {
	h := newHarness(t)
	fp := h.filePlan()
	cat := h.category(fp.ID, "Cat")
	h.schedule(cat.ID, false, step(domain.ActionCutoff, nil))
	f := h.folder(cat.ID, "Folder")
	h.execute(f.ID, domain.ActionCutoff, false)

	_, err := h.plans.ReopenFolder(h.ctx, f.ID)
	require.Error(t, err)
	assert.True(t, domain.IsNotEligible(err))
	assert.True(t, h.node(f.ID).Closed)
}

func TestFileRecord_SetsIdentifierAndDateFiled(t *testing.T) {
	h := newHarness(t)
	fp := h.filePlan()
	f := h.folder(h.category(fp.ID, "Cat").ID, "Folder")

	r := h.record(f.ID, "doc.txt")
	assert.Regexp(t, `^2026-\d{10}$`, r.Identifier)
	assert.Equal(t, "content of doc.txt", h.node(r.ID).Content)
	assert.False(t, r.Declared)

	props, err := h.plans.GetProperties(h.ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "2026-01-15T10:00:00Z", props[domain.PropDateFiled])
	assert.Equal(t, "records office", props[domain.PropOriginator])

	explicit, err := h.plans.FileRecord(h.ctx, f.ID, FileRecordRequest{
		Name:       "old.txt",
		Identifier: "LEGACY-1",
		Properties: map[string]string{domain.PropDateFiled: "2001-02-03"},
	})
	require.NoError(t, err)
	assert.Equal(t, "LEGACY-1", explicit.Identifier)
	props, err = h.plans.GetProperties(h.ctx, explicit.ID)
	require.NoError(t, err)
	assert.Equal(t, "2001-02-03", props[domain.PropDateFiled])

	found, err := h.plans.Resolve(h.ctx, "LEGACY-1")
	require.NoError(t, err)
	assert.Equal(t, explicit.ID, found.ID)
	found, err = h.plans.Resolve(h.ctx, explicit.ID)
	require.NoError(t, err)
	assert.Equal(t, "LEGACY-1", found.Identifier)
	_, err = h.plans.Resolve(h.ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDeclareRecord(t *testing.T) {
	h := newHarness(t)
	fp := h.filePlan()
	f := h.folder(h.category(fp.ID, "Cat").ID, "Folder")

	bare, err := h.plans.FileRecord(h.ctx, f.ID, FileRecordRequest{
		Name:       "bare.txt",
		Properties: map[string]string{domain.PropOriginator: "me"},
	})
	require.NoError(t, err)
	_, err = h.plans.DeclareRecord(h.ctx, bare.ID)
	require.Error(t, err)
	var missing *domain.MandatoryPropertyMissingError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{domain.PropOriginatingOrganization, domain.PropPublicationDate}, missing.Properties)
	assert.False(t, h.node(bare.ID).Declared)

	// Identifiers can change until the record is declared.
	_, err = h.plans.SetIdentifier(h.ctx, bare.ID, "DRAFT-9")
	require.NoError(t, err)

	require.NoError(t, h.plans.SetProperties(h.ctx, bare.ID, map[string]string{
		domain.PropOriginatingOrganization: "acme",
		domain.PropPublicationDate:         "2026-01-01",
	}))
	declared, err := h.plans.DeclareRecord(h.ctx, bare.ID)
	require.NoError(t, err)
	assert.True(t, declared.Declared)

	_, err = h.plans.DeclareRecord(h.ctx, bare.ID)
	require.NoError(t, err)

	_, err = h.plans.SetIdentifier(h.ctx, bare.ID, "FINAL-1")
	require.Error(t, err)
	assert.True(t, domain.IsImmutableIdentifier(err))
	assert.Equal(t, "DRAFT-9", h.node(bare.ID).Identifier)

	_, err = h.plans.DeclareRecord(h.ctx, f.ID)
	assert.ErrorIs(t, err, ErrWrongKind)
}

func TestFileAndDeclare_RollsBackWhenMetadataMissing(t *testing.T) {
	h := newHarness(t)
	fp := h.filePlan()
	f := h.folder(h.category(fp.ID, "Cat").ID, "Folder")

	_, err := h.plans.FileAndDeclare(h.ctx, f.ID, FileRecordRequest{Name: "incomplete.txt"})
	require.Error(t, err)
	assert.True(t, domain.IsMandatoryPropertyMissing(err))
	kids, err := h.plans.ListChildren(h.ctx, f.ID)
	require.NoError(t, err)
	assert.Empty(t, kids)

	r, err := h.plans.FileAndDeclare(h.ctx, f.ID, FileRecordRequest{
		Name: "complete.txt",
		Properties: map[string]string{
			domain.PropOriginator:              "me",
			domain.PropOriginatingOrganization: "acme",
			domain.PropPublicationDate:         "2026-01-01",
		},
	})
	require.NoError(t, err)
	assert.True(t, h.node(r.ID).Declared)
}

func TestSetProperties_EmptyValueRemoves(t *testing.T) {
	h := newHarness(t)
	fp := h.filePlan()
	f := h.folder(h.category(fp.ID, "Cat").ID, "Folder")
	r := h.record(f.ID, "doc.txt")

	require.NoError(t, h.plans.SetProperties(h.ctx, r.ID, map[string]string{domain.PropOriginator: "", "topic": "budget"}))
	props, err := h.plans.GetProperties(h.ctx, r.ID)
	require.NoError(t, err)
	_, ok := props[domain.PropOriginator]
	assert.False(t, ok)
	assert.Equal(t, "budget", props["topic"])
}

func TestMove_RefilesDispositionAndVitalState(t *testing.T) {
	h := newHarness(t)
	fp := h.filePlan()
	catA := h.category(fp.ID, "A")
	catB := h.category(fp.ID, "B")
	h.schedule(catA.ID, false, step(domain.ActionCutoff, nil))
	h.schedule(catB.ID, true, step(domain.ActionDestroy, period("year|1")))
	require.NoError(t, h.vital.SetDefinition(h.ctx, catB.ID, domain.VitalRecordDefinition{Enabled: true, ReviewPeriod: domain.MustParsePeriod("year|1")}))

	f := h.folder(catA.ID, "Folder")
	r := h.record(f.ID, "doc.txt")
	assert.Equal(t, domain.ActionCutoff, h.next(f.ID).Name)
	assert.Nil(t, h.next(r.ID))
	assert.False(t, h.node(r.ID).Vital)

	h.clock.AdvanceDate(0, 1, 0)
	moved, err := h.plans.Move(h.ctx, f.ID, catB.ID)
	require.NoError(t, err)
	assert.Equal(t, catB.ID, *moved.ParentID)

	assert.Nil(t, h.next(f.ID))
	a := h.next(r.ID)
	require.NotNil(t, a)
	assert.Equal(t, domain.ActionDestroy, a.Name)
	assert.True(t, h.clock.Now().AddDate(1, 0, 0).Equal(*a.AsOf))
	for _, id := range []string{f.ID, r.ID} {
		n := h.node(id)
		assert.True(t, n.Vital, "vital %s", id)
		require.NotNil(t, n.ReviewAsOf)
		assert.True(t, h.clock.Now().AddDate(1, 0, 0).Equal(*n.ReviewAsOf))
	}
	h.assertProjections(f.ID, r.ID)
	assert.Equal(t, "year", *h.projection(r.ID).VitalRecordReviewPeriod)

	_, err = h.plans.Move(h.ctx, f.ID, catA.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ActionCutoff, h.next(f.ID).Name)
	assert.Nil(t, h.next(r.ID))
	assert.False(t, h.node(f.ID).Vital)
	assert.Nil(t, h.node(r.ID).ReviewAsOf)
	h.assertProjections(f.ID, r.ID)
	assert.Nil(t, h.projection(r.ID).VitalRecordReviewPeriod)

	assert.Equal(t, 2.0, promtest.ToFloat64(h.metrics.Rescheduled.WithLabelValues(triggerRefile)))
}

func TestMove_SameScheduleKeepsState(t *testing.T) {
	h := newHarness(t)
	fp := h.filePlan()
	parent := h.category(fp.ID, "Parent")
	h.schedule(parent.ID, false, step(domain.ActionCutoff, nil), step(domain.ActionDestroy, period("year|3")))
	sub1 := h.category(parent.ID, "Sub 1")
	sub2 := h.category(parent.ID, "Sub 2")
	f := h.folder(sub1.ID, "Folder")
	h.execute(f.ID, domain.ActionCutoff, false)
	before := h.next(f.ID)

	_, err := h.plans.Move(h.ctx, f.ID, sub2.ID)
	require.NoError(t, err)
	after := h.next(f.ID)
	assert.Equal(t, before.ID, after.ID)
	assert.Len(t, h.history(f.ID), 1)
}

func TestMove_DropsPendingTransfer(t *testing.T) {
	h := newHarness(t)
	fp := h.filePlan()
	archive := h.category(fp.ID, "Archive")
	shred := h.category(fp.ID, "Shred")
	h.schedule(archive.ID, false, step(domain.ActionTransfer, nil), step(domain.ActionDestroy, period("year|1")))
	h.schedule(shred.ID, false, step(domain.ActionDestroy, period("month|1")))
	f := h.folder(archive.ID, "Box 1")
	r := h.record(f.ID, "a.pdf")

	res := h.execute(f.ID, domain.ActionTransfer, false)
	require.NotEmpty(t, res.TransferID)

	_, err := h.plans.Move(h.ctx, f.ID, shred.ID)
	require.NoError(t, err)

	_, err = h.disp.GetTransfer(h.ctx, res.TransferID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	pending, err := h.disp.ListTransfers(h.ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	next := h.next(f.ID)
	require.NotNil(t, next)
	assert.Equal(t, domain.ActionDestroy, next.Name)
	assert.Nil(t, next.StartedAt)
	assert.False(t, h.node(r.ID).Transferred)

	_, err = h.plans.Move(h.ctx, f.ID, archive.ID)
	require.NoError(t, err)
	again := h.execute(f.ID, domain.ActionTransfer, false)
	require.NotEmpty(t, again.TransferID)
	items, err := h.disp.CompleteTransfer(h.ctx, again.TransferID, "archivist")
	require.NoError(t, err)
	assert.Len(t, items, 2)
	h.assertProjections(f.ID, r.ID)
}

func TestMove_RejectsCycle(t *testing.T) {
	h := newHarness(t)
	fp := h.filePlan()
	cat := h.category(fp.ID, "Cat")
	sub := h.category(cat.ID, "Sub")

	for _, target := range []string{cat.ID, sub.ID} {
		_, err := h.plans.Move(h.ctx, cat.ID, target)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "within itself")
	}
	_, err := h.plans.Copy(h.ctx, cat.ID, sub.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "within itself")
}

func TestCopy_FolderStartsFreshWithoutHolds(t *testing.T) {
	h := newHarness(t)
	fp := h.filePlan()
	cat := h.category(fp.ID, "Cat")
	h.schedule(cat.ID, false, step(domain.ActionCutoff, nil), step(domain.ActionDestroy, period("year|1")))
	f := h.folder(cat.ID, "Folder")
	r := h.record(f.ID, "doc.txt")
	require.NoError(t, h.plans.SetProperties(h.ctx, r.ID, map[string]string{"topic": "budget"}))
	h.execute(f.ID, domain.ActionCutoff, false)
	_, err := h.holds.Freeze(h.ctx, FreezeRequest{NodeIDs: []string{r.ID}, Reason: "audit"})
	require.NoError(t, err)

	h.clock.Advance(time.Hour)
	dup, err := h.plans.Copy(h.ctx, f.ID, cat.ID)
	require.NoError(t, err)
	assert.NotEqual(t, f.ID, dup.ID)
	assert.NotEqual(t, f.Identifier, dup.Identifier)
	assert.Equal(t, "Folder", dup.Name)
	assert.False(t, dup.CutOff)
	assert.False(t, dup.Closed)

	assert.Equal(t, domain.ActionCutoff, h.next(dup.ID).Name)
	assert.Empty(t, h.history(dup.ID))

	kids, err := h.plans.ListChildren(h.ctx, dup.ID)
	require.NoError(t, err)
	require.Len(t, kids, 1)
	rc := kids[0]
	assert.NotEqual(t, r.ID, rc.ID)
	assert.False(t, rc.CutOff)
	assert.Equal(t, "content of doc.txt", rc.Content)
	props, err := h.plans.GetProperties(h.ctx, rc.ID)
	require.NoError(t, err)
	assert.Equal(t, "budget", props["topic"])

	frozen, err := h.holds.IsFrozen(h.ctx, rc.ID)
	require.NoError(t, err)
	assert.False(t, frozen)
	h.assertProjections(dup.ID, rc.ID)

	// The source is untouched.
	assert.True(t, h.node(f.ID).CutOff)
	assert.Len(t, h.history(f.ID), 1)
}

func TestCopy_CategoryDuplicatesSchedule(t *testing.T) {
	h := newHarness(t)
	fp := h.filePlan()
	cat := h.category(fp.ID, "Cat")
	src := h.schedule(cat.ID, false, step(domain.ActionCutoff, nil, "closed"))
	h.folder(cat.ID, "Folder")

	dup, err := h.plans.Copy(h.ctx, cat.ID, fp.ID)
	require.NoError(t, err)
	kids, err := h.plans.ListChildren(h.ctx, dup.ID)
	require.NoError(t, err)
	require.Len(t, kids, 1)

	sched, err := h.schedules.GetSchedule(h.ctx, kids[0].ID)
	require.NoError(t, err)
	require.NotNil(t, sched)
	assert.NotEqual(t, src.ID, sched.ID)
	assert.Equal(t, dup.ID, sched.CategoryID)
	require.Len(t, sched.Steps, 1)
	assert.NotEqual(t, src.Steps[0].ID, sched.Steps[0].ID)
	assert.Equal(t, []string{"closed"}, sched.Steps[0].Events)

	a := h.next(kids[0].ID)
	require.NotNil(t, a)
	assert.Equal(t, sched.Steps[0].ID, a.DefinitionID)
	assert.Equal(t, 1.0, promtest.ToFloat64(h.metrics.Rescheduled.WithLabelValues(triggerCopy)))
}

func TestDelete_RemovesSubtree(t *testing.T) {
	h := newHarness(t)
	fp := h.filePlan()
	cat := h.category(fp.ID, "Cat")
	f := h.folder(cat.ID, "Folder")
	r := h.record(f.ID, "doc.txt")

	require.NoError(t, h.plans.Delete(h.ctx, f.ID))
	for _, id := range []string{f.ID, r.ID} {
		_, err := h.plans.Get(h.ctx, id)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	}
	kids, err := h.plans.ListChildren(h.ctx, cat.ID)
	require.NoError(t, err)
	assert.Empty(t, kids)
	assert.ErrorIs(t, h.plans.Delete(h.ctx, f.ID), repository.ErrNotFound)
}

func TestListFilePlans(t *testing.T) {
	h := newHarness(t)
	first := h.filePlan()
	h.clock.Advance(time.Second)
	second, err := h.plans.CreateFilePlan(h.ctx, "Second")
	require.NoError(t, err)

	plans, err := h.plans.ListFilePlans(h.ctx)
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, first.ID, plans[0].ID)
	assert.Equal(t, second.ID, plans[1].ID)
	assert.Nil(t, plans[0].ParentID)
}
