package retention

import (
	"testing"

	"github.com/alexanderramin/retention/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeStepSchedule() *domain.DispositionSchedule {
	return &domain.DispositionSchedule{
		ID: "s-1",
		Steps: []domain.DispositionActionDefinition{
			{ID: "d-1", Position: 0, Name: "cutoff"},
			{ID: "d-2", Position: 1, Name: "retain"},
			{ID: "d-3", Position: 2, Name: "retain"},
		},
	}
}

func TestFirstStep(t *testing.T) {
	d, ok := FirstStep(threeStepSchedule())
	require.True(t, ok)
	assert.Equal(t, "d-1", d.ID)

	_, ok = FirstStep(&domain.DispositionSchedule{})
	assert.False(t, ok)
	_, ok = FirstStep(nil)
	assert.False(t, ok)
}

func TestStepAfter_ByPositionWithDuplicateNames(t *testing.T) {
	s := threeStepSchedule()

	next, ok := StepAfter(s, &domain.DispositionAction{DefinitionID: "d-2", Name: "retain"})
	require.True(t, ok)
	assert.Equal(t, "d-3", next.ID)

	_, ok = StepAfter(s, &domain.DispositionAction{DefinitionID: "d-3", Name: "retain"})
	assert.False(t, ok, "last step is terminal")
}

func TestStepAfter_RemovedDefinitionFallsBackToName(t *testing.T) {
	next, ok := StepAfter(threeStepSchedule(), &domain.DispositionAction{DefinitionID: "gone", Name: "cutoff"})
	require.True(t, ok)
	assert.Equal(t, "d-2", next.ID)

	_, ok = StepAfter(threeStepSchedule(), &domain.DispositionAction{DefinitionID: "gone", Name: "destroy"})
	assert.False(t, ok)
}

func TestIsGoverned(t *testing.T) {
	s := threeStepSchedule()
	assert.True(t, IsGoverned(s, domain.KindFolder))
	assert.False(t, IsGoverned(s, domain.KindRecord))

	s.RecordLevelDisposition = true
	assert.True(t, IsGoverned(s, domain.KindRecord))
	assert.False(t, IsGoverned(nil, domain.KindRecord))
}
