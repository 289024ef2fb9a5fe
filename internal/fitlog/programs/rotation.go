package programs

import (
	"context"
	"errors"
	"fmt"

	"github.com/2beens/fitlog/internal/fitlog/workouts"
	"github.com/2beens/fitlog/internal/telemetry/tracing"

	"go.opentelemetry.io/otel/attribute"
)

var ErrNoWorkoutsInProgram = errors.New("program has no workouts")

type programsGetter interface {
	Get(ctx context.Context, ownerID, id int) (*Program, error)
}

type workoutsGetter interface {
	Get(ctx context.Context, ownerID, id int) (*workouts.Workout, error)
}

type rotationLogs interface {
	// LastInProgressWorkout returns the newest started, not yet completed
	// log of the program. Log id 0 means there is none.
	LastInProgressWorkout(ctx context.Context, ownerID, programID int) (logID, workoutID int, err error)
	// LastCompletedWorkout returns the workout of the most recently
	// completed log of the program, considering only the given workout
	// ids. Workout id 0 means there is none.
	LastCompletedWorkout(ctx context.Context, ownerID, programID int, workoutIDs []int) (workoutID int, err error)
}

type NextWorkoutResponse struct {
	Program     *Program            `json:"program"`
	NextWorkout *workouts.Workout   `json:"next_workout"`
	Upcoming    []*workouts.Workout `json:"upcoming"`
	// set when an already started log should be resumed instead
	// of starting a fresh one
	InProgressLogID int `json:"in_progress_log_id,omitempty"`
}

// Rotator decides which workout of a program comes next. The decision
// is always made against the current workout order, so reordering or
// removing workouts mid cycle does not break the rotation.
type Rotator struct {
	programs programsGetter
	workouts workoutsGetter
	logs     rotationLogs
}

func NewRotator(programs programsGetter, workouts workoutsGetter, logs rotationLogs) *Rotator {
	return &Rotator{
		programs: programs,
		workouts: workouts,
		logs:     logs,
	}
}

func (rot *Rotator) Next(ctx context.Context, ownerID, programID int) (_ *NextWorkoutResponse, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "programs.rotator.next")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("program.id", programID))

	program, err := rot.programs.Get(ctx, ownerID, programID)
	if err != nil {
		return nil, err
	}
	if len(program.WorkoutIDs) == 0 {
		return nil, ErrNoWorkoutsInProgram
	}

	startIndex := 0
	inProgressLogID := 0

	logID, inProgressWorkoutID, err := rot.logs.LastInProgressWorkout(ctx, ownerID, programID)
	if err != nil {
		return nil, fmt.Errorf("get in progress log: %w", err)
	}

	if resumeIndex := indexOf(program.WorkoutIDs, inProgressWorkoutID); logID != 0 && resumeIndex >= 0 {
		// an unfinished session of a workout still in the rotation gets resumed
		startIndex = resumeIndex
		inProgressLogID = logID
	} else {
		completedWorkoutID, err := rot.logs.LastCompletedWorkout(ctx, ownerID, programID, program.WorkoutIDs)
		if err != nil {
			return nil, fmt.Errorf("get last completed log: %w", err)
		}
		if completedIndex := indexOf(program.WorkoutIDs, completedWorkoutID); completedIndex >= 0 {
			startIndex = (completedIndex + 1) % len(program.WorkoutIDs)
		}
	}

	upcoming := make([]*workouts.Workout, 0, len(program.WorkoutIDs))
	for i := range program.WorkoutIDs {
		workoutID := program.WorkoutIDs[(startIndex+i)%len(program.WorkoutIDs)]
		workout, err := rot.workouts.Get(ctx, ownerID, workoutID)
		if err != nil {
			return nil, fmt.Errorf("get workout %d: %w", workoutID, err)
		}
		upcoming = append(upcoming, workout)
	}

	return &NextWorkoutResponse{
		Program:         program,
		NextWorkout:     upcoming[0],
		Upcoming:        upcoming,
		InProgressLogID: inProgressLogID,
	}, nil
}

func indexOf(ids []int, id int) int {
	for i := range ids {
		if ids[i] == id {
			return i
		}
	}
	return -1
}
