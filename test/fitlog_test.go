package test

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/2beens/fitlog/internal/fitlog/exercises"
	"github.com/2beens/fitlog/internal/fitlog/logs"
	"github.com/2beens/fitlog/internal/fitlog/programs"
	"github.com/2beens/fitlog/internal/fitlog/workouts"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(i int) *int           { return &i }
func floatPtr(f float64) *float64 { return &f }

// TestTrainingFlow walks through a full training cycle: define exercises
// and workouts, put them in a program, rotate through sessions and check
// the aggregated progress at the end.
func (s *IntegrationTestSuite) TestTrainingFlow() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registered := s.registerUser(ctx, t, "flow@fitlog.test", "flow-pass-1")
	token := registered.Token

	// exercise catalog
	var bench exercises.Exercise
	s.doRequest(ctx, t, token, "POST", "/exercises", exercises.Exercise{
		Name: "Bench Press",
		Type: exercises.TypeStrength,
		Unit: exercises.UnitReps,
	}, http.StatusCreated, &bench)

	var rowing exercises.Exercise
	s.doRequest(ctx, t, token, "POST", "/exercises", exercises.Exercise{
		Name: "Rowing Machine",
		Type: exercises.TypeCardio,
		Unit: exercises.UnitMins,
	}, http.StatusCreated, &rowing)

	// workout templates
	var push workouts.Workout
	s.doRequest(ctx, t, token, "POST", "/workouts", workouts.AddWorkoutRequest{
		Name: "Push Day",
		Exercises: []workouts.WorkoutExerciseRequest{
			{
				ExerciseID:    bench.ID,
				DefaultSets:   3,
				DefaultReps:   intPtr(8),
				DefaultWeight: floatPtr(60),
			},
			{
				ExerciseID:             rowing.ID,
				DefaultSets:            1,
				DefaultDurationMinutes: intPtr(20),
				Unit:                   exercises.UnitMins,
			},
		},
	}, http.StatusCreated, &push)
	require.Len(t, push.Exercises, 2)
	assert.Equal(t, "Bench Press", push.Exercises[0].ExerciseName)
	assert.Equal(t, exercises.TypeCardio, push.Exercises[1].ExerciseType)

	var pull workouts.Workout
	s.doRequest(ctx, t, token, "POST", "/workouts", workouts.AddWorkoutRequest{
		Name: "Pull Day",
		Exercises: []workouts.WorkoutExerciseRequest{
			{
				ExerciseID:  bench.ID,
				DefaultSets: 2,
				DefaultReps: intPtr(10),
			},
		},
	}, http.StatusCreated, &pull)

	// program rotating through both workouts
	var ppl programs.Program
	s.doRequest(ctx, t, token, "POST", "/programs", programs.AddProgramRequest{
		Name:       "Push Pull",
		WorkoutIDs: []int{push.ID, pull.ID},
	}, http.StatusCreated, &ppl)
	assert.Equal(t, []int{push.ID, pull.ID}, ppl.WorkoutIDs)

	// fresh program starts at the first workout
	var next programs.NextWorkoutResponse
	s.doRequest(ctx, t, token, "GET", fmt.Sprintf("/programs/%d/next", ppl.ID), nil, http.StatusOK, &next)
	require.NotNil(t, next.NextWorkout)
	assert.Equal(t, push.ID, next.NextWorkout.ID)
	assert.Zero(t, next.InProgressLogID)
	require.Len(t, next.Upcoming, 2)

	// start a session, sets come pre-populated from the template
	var started logs.WorkoutLog
	s.doRequest(ctx, t, token, "POST", "/logs", logs.StartLogRequest{
		WorkoutID: &push.ID,
		ProgramID: &ppl.ID,
	}, http.StatusCreated, &started)
	require.NotNil(t, started.WorkoutID)
	require.Len(t, started.Sets, 4) // 3 bench sets + 1 rowing set
	assert.Equal(t, 8, *started.Sets[0].PlannedReps)
	assert.Equal(t, 8, *started.Sets[0].ActualReps)
	assert.Equal(t, 60., *started.Sets[0].Weight)
	assert.Equal(t, 20, *started.Sets[3].DurationMinutes)
	assert.Equal(t, "Rowing Machine", started.Sets[3].ExerciseName)

	// an unfinished session gets resumed, not restarted
	s.doRequest(ctx, t, token, "GET", fmt.Sprintf("/programs/%d/next", ppl.ID), nil, http.StatusOK, &next)
	assert.Equal(t, push.ID, next.NextWorkout.ID)
	assert.Equal(t, started.ID, next.InProgressLogID)

	// finish the first bench set a bit heavier than planned
	completed := true
	var updatedSet logs.SetLog
	s.doRequest(ctx, t, token, "PUT",
		fmt.Sprintf("/logs/%d/sets/%d", started.ID, started.Sets[0].ID),
		logs.UpdateSetRequest{
			Weight:    floatPtr(62.5),
			Completed: &completed,
		}, http.StatusOK, &updatedSet)
	assert.Equal(t, 62.5, *updatedSet.Weight)
	assert.True(t, updatedSet.Completed)
	assert.Equal(t, 8, *updatedSet.ActualReps)

	// wrap up the session
	notes := "solid session"
	var completedLog logs.WorkoutLog
	s.doRequest(ctx, t, token, "PUT", fmt.Sprintf("/logs/%d", started.ID),
		logs.UpdateLogRequest{
			Notes:     &notes,
			Completed: &completed,
		}, http.StatusOK, &completedLog)
	require.NotNil(t, completedLog.CompletedAt)
	assert.Equal(t, "solid session", completedLog.Notes)

	// rotation moved on to the next workout
	s.doRequest(ctx, t, token, "GET", fmt.Sprintf("/programs/%d/next", ppl.ID), nil, http.StatusOK, &next)
	assert.Equal(t, pull.ID, next.NextWorkout.ID)
	assert.Zero(t, next.InProgressLogID)

	// only the completed heavier set counts towards the stats, but the
	// whole session shows up in the history
	var progress logs.ExerciseProgress
	s.doRequest(ctx, t, token, "GET", fmt.Sprintf("/exercises/%d/progress", bench.ID), nil, http.StatusOK, &progress)
	require.NotNil(t, progress.Exercise)
	assert.Equal(t, "Bench Press", progress.Exercise.Name)
	require.NotNil(t, progress.PR)
	assert.Equal(t, 62.5, *progress.PR)
	assert.Equal(t, []float64{62.5}, progress.RecentWeights)
	assert.Equal(t, 1, progress.TotalSets)
	require.Len(t, progress.History, 1)
	assert.Equal(t, started.ID, progress.History[0].LogID)
	assert.Equal(t, "Push Day", progress.History[0].WorkoutName)
	assert.Len(t, progress.History[0].Sets, 3)

	// the session shows up in the current month's calendar
	var calendar logs.CalendarResponse
	s.doRequest(ctx, t, token, "GET", "/logs/calendar", nil, http.StatusOK, &calendar)
	today := time.Now().UTC()
	assert.Equal(t, today.Year(), calendar.Year)
	assert.Equal(t, int(today.Month()), calendar.Month)
	assert.Equal(t, []string{today.Format("2006-01-02")}, calendar.Days)

	// and in the session list, with the workout name joined in
	var listed []logs.WorkoutLog
	s.doRequest(ctx, t, token, "GET", "/logs", nil, http.StatusOK, &listed)
	require.Len(t, listed, 1)
	assert.Equal(t, "Push Day", listed[0].WorkoutName)

	// another user sees none of it
	otherUser := s.registerUser(ctx, t, "other@fitlog.test", "other-pass-1")
	var otherExercises []exercises.Exercise
	s.doRequest(ctx, t, otherUser.Token, "GET", "/exercises", nil, http.StatusOK, &otherExercises)
	assert.Empty(t, otherExercises)
	s.doRequest(ctx, t, otherUser.Token, "GET", fmt.Sprintf("/workouts/%d", push.ID), nil, http.StatusNotFound, nil)
}
