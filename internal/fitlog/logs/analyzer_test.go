package logs

import (
	"context"
	"testing"
	"time"

	"github.com/2beens/fitlog/internal/fitlog/exercises"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type exerciseGetterMock struct {
	exercises map[int]*exercises.Exercise
}

func (m *exerciseGetterMock) Get(_ context.Context, ownerID, id int) (*exercises.Exercise, error) {
	e, ok := m.exercises[id]
	if !ok || e.OwnerID != ownerID {
		return nil, exercises.ErrExerciseNotFound
	}
	found := *e
	return &found, nil
}

type setsSourceMock struct {
	setRows []ExerciseSetRow
	calls   int
}

func (m *setsSourceMock) ExerciseSets(_ context.Context, _, _ int) ([]ExerciseSetRow, error) {
	m.calls++
	return m.setRows, nil
}

func newAnalyzerFixture(setRows []ExerciseSetRow) (*Analyzer, *setsSourceMock) {
	exercisesByID := map[int]*exercises.Exercise{
		10: {ID: 10, OwnerID: 1, Name: "Bench Press", Type: exercises.TypeStrength, Unit: exercises.UnitReps},
		20: {ID: 20, OwnerID: 1, Name: "Rowing", Type: exercises.TypeCardio, Unit: exercises.UnitMins},
	}
	source := &setsSourceMock{setRows: setRows}
	return NewAnalyzer(&exerciseGetterMock{exercises: exercisesByID}, source), source
}

// completedRow makes a completed strength set in the given session.
func completedRow(logID int, startedAt time.Time, weight float64) ExerciseSetRow {
	return ExerciseSetRow{
		Set:       SetLog{ExerciseID: 10, Weight: floatPtr(weight), Completed: true},
		LogID:     logID,
		StartedAt: startedAt,
	}
}

func TestAnalyzer_strengthProgress(t *testing.T) {
	now := time.Now()
	// newest session first
	analyzer, _ := newAnalyzerFixture([]ExerciseSetRow{
		completedRow(4, now, 150),
		completedRow(3, now.Add(-24*time.Hour), 135),
		completedRow(2, now.Add(-48*time.Hour), 145),
		completedRow(1, now.Add(-72*time.Hour), 135),
	})

	progress, err := analyzer.ExerciseProgress(context.Background(), 1, 10)
	require.NoError(t, err)

	require.NotNil(t, progress.PR)
	assert.Equal(t, 150., *progress.PR)
	// distinct weights, newest first
	assert.Equal(t, []float64{150, 135, 145}, progress.RecentWeights)
	assert.Empty(t, progress.RecentDurations)
	assert.Equal(t, 4, progress.TotalSets)

	require.NotNil(t, progress.Exercise)
	assert.Equal(t, "Bench Press", progress.Exercise.Name)
	require.Len(t, progress.History, 4)
	assert.Equal(t, 4, progress.History[0].LogID)
	assert.Equal(t, 1, progress.History[3].LogID)
}

func TestAnalyzer_historyGroupedBySession(t *testing.T) {
	now := time.Now()
	analyzer, _ := newAnalyzerFixture([]ExerciseSetRow{
		completedRow(7, now, 100),
		completedRow(7, now, 105),
		{
			// planned but never done, still part of the history
			Set:       SetLog{ExerciseID: 10, Weight: floatPtr(110)},
			LogID:     7,
			StartedAt: now,
		},
		completedRow(5, now.Add(-24*time.Hour), 95),
	})

	progress, err := analyzer.ExerciseProgress(context.Background(), 1, 10)
	require.NoError(t, err)

	require.Len(t, progress.History, 2)
	assert.Equal(t, 7, progress.History[0].LogID)
	assert.Len(t, progress.History[0].Sets, 3)
	assert.Equal(t, 5, progress.History[1].LogID)
	assert.Len(t, progress.History[1].Sets, 1)

	// the uncompleted 110 set does not count towards the stats
	assert.Equal(t, 3, progress.TotalSets)
	require.NotNil(t, progress.PR)
	assert.Equal(t, 105., *progress.PR)
	assert.Equal(t, []float64{100, 105, 95}, progress.RecentWeights)
}

func TestAnalyzer_skipsNullWeights(t *testing.T) {
	now := time.Now()
	analyzer, _ := newAnalyzerFixture([]ExerciseSetRow{
		{Set: SetLog{ExerciseID: 10, Completed: true}, LogID: 1, StartedAt: now},
		completedRow(1, now, 100),
	})

	progress, err := analyzer.ExerciseProgress(context.Background(), 1, 10)
	require.NoError(t, err)
	require.NotNil(t, progress.PR)
	assert.Equal(t, 100., *progress.PR)
	assert.Equal(t, []float64{100}, progress.RecentWeights)
	assert.Equal(t, 2, progress.TotalSets)
}

func TestAnalyzer_cardioProgress(t *testing.T) {
	now := time.Now()
	cardioRow := func(logID int, startedAt time.Time, minutes int) ExerciseSetRow {
		return ExerciseSetRow{
			Set:       SetLog{ExerciseID: 20, DurationMinutes: intPtr(minutes), Completed: true},
			LogID:     logID,
			StartedAt: startedAt,
		}
	}
	analyzer, _ := newAnalyzerFixture([]ExerciseSetRow{
		cardioRow(3, now, 20),
		cardioRow(2, now.Add(-24*time.Hour), 25),
		cardioRow(1, now.Add(-48*time.Hour), 20),
	})

	progress, err := analyzer.ExerciseProgress(context.Background(), 1, 20)
	require.NoError(t, err)

	assert.Nil(t, progress.PR)
	assert.Empty(t, progress.RecentWeights)
	assert.Equal(t, []int{20, 25}, progress.RecentDurations)
}

func TestAnalyzer_noHistory(t *testing.T) {
	analyzer, _ := newAnalyzerFixture(nil)

	progress, err := analyzer.ExerciseProgress(context.Background(), 1, 10)
	require.NoError(t, err)
	require.NotNil(t, progress.Exercise)
	assert.Empty(t, progress.History)
	assert.Nil(t, progress.PR)
	assert.Empty(t, progress.RecentWeights)
	assert.Zero(t, progress.TotalSets)
}

func TestAnalyzer_exerciseNotFound(t *testing.T) {
	analyzer, _ := newAnalyzerFixture(nil)

	_, err := analyzer.ExerciseProgress(context.Background(), 1, 12345)
	assert.ErrorIs(t, err, exercises.ErrExerciseNotFound)

	// owner isolation
	_, err = analyzer.ExerciseProgress(context.Background(), 2, 10)
	assert.ErrorIs(t, err, exercises.ErrExerciseNotFound)
}

func TestAnalyzer_cachesResults(t *testing.T) {
	analyzer, source := newAnalyzerFixture([]ExerciseSetRow{
		completedRow(1, time.Now(), 100),
	})

	first, err := analyzer.ExerciseProgress(context.Background(), 1, 10)
	require.NoError(t, err)
	second, err := analyzer.ExerciseProgress(context.Background(), 1, 10)
	require.NoError(t, err)

	assert.Equal(t, first.PR, second.PR)
	assert.Equal(t, first.RecentWeights, second.RecentWeights)
	assert.Equal(t, first.History, second.History)
	assert.Equal(t, 1, source.calls)
}
