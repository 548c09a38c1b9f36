package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanContain(t *testing.T) {
	plan := &Node{Kind: KindFilePlan}
	cat := &Node{Kind: KindCategory}
	folder := &Node{Kind: KindFolder}
	record := &Node{Kind: KindRecord}

	assert.True(t, plan.CanContain(KindCategory))
	assert.False(t, plan.CanContain(KindFolder))
	assert.True(t, cat.CanContain(KindCategory))
	assert.True(t, cat.CanContain(KindFolder))
	assert.False(t, cat.CanContain(KindRecord))
	assert.True(t, folder.CanContain(KindRecord))
	assert.False(t, folder.CanContain(KindFolder))
	assert.False(t, record.CanContain(KindRecord))
}

func TestSetIdentifier_ImmutableAfterDeclaration(t *testing.T) {
	n := &Node{ID: "r1", Kind: KindRecord, Identifier: "2026-0000000001"}
	require.NoError(t, n.SetIdentifier("2026-0000000002", time.Now()))
	assert.Equal(t, "2026-0000000002", n.Identifier)

	n.Declared = true
	err := n.SetIdentifier("2026-0000000003", time.Now())
	require.Error(t, err)
	assert.True(t, IsImmutableIdentifier(err))
	assert.Equal(t, "2026-0000000002", n.Identifier)
}

func TestApplyCutoff_ClosesFolder(t *testing.T) {
	now := time.Now().UTC()
	folder := &Node{Kind: KindFolder}
	folder.ApplyCutoff(now)
	assert.True(t, folder.CutOff)
	assert.True(t, folder.Closed)
	assert.Equal(t, now, *folder.CutOffDate)

	folder.ClearCutoff(now)
	assert.False(t, folder.CutOff)
	assert.Nil(t, folder.CutOffDate)
}

func TestGhost(t *testing.T) {
	n := &Node{Kind: KindRecord, Content: "payload", Name: "minutes.pdf"}
	n.Ghost(time.Now())
	assert.Empty(t, n.Content)
	assert.True(t, n.Ghosted)
	assert.NotNil(t, n.DestroyedAt)
	assert.Equal(t, "minutes.pdf", n.Name)
}

func TestApplyVitalState(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	n := &Node{Kind: KindRecord}

	n.ApplyVitalState(EffectiveVitalRecordDefinition{
		Definition: &VitalRecordDefinition{Enabled: true, ReviewPeriod: MustParsePeriod("month|1")},
	}, now)
	assert.True(t, n.Vital)
	require.NotNil(t, n.ReviewAsOf)
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), *n.ReviewAsOf)

	n.ApplyVitalState(EffectiveVitalRecordDefinition{
		Definition: &VitalRecordDefinition{Enabled: false, ReviewPeriod: MustParsePeriod("month|1")},
	}, now)
	assert.False(t, n.Vital)
	assert.Nil(t, n.ReviewAsOf)
}
