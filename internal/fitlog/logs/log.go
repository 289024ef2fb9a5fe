package logs

import (
	"time"

	"github.com/2beens/fitlog/internal/fitlog/exercises"
)

// WorkoutLog is a single training session. It either follows a workout
// template (workout_id set) or is an ad-hoc session with a custom name.
type WorkoutLog struct {
	ID          int        `json:"id"`
	OwnerID     int        `json:"-"`
	WorkoutID   *int       `json:"workout_id,omitempty"`
	ProgramID   *int       `json:"program_id,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	BodyWeight  *float64   `json:"body_weight,omitempty"`
	CustomName  string     `json:"custom_name,omitempty"`
	Sets        []SetLog   `json:"sets"`

	// joined from the workout template, empty for ad-hoc sessions
	WorkoutName string `json:"workout_name,omitempty"`
}

// SetLog is one set within a session. Planned values come from the
// workout defaults, actual values from what really happened.
type SetLog struct {
	ID              int      `json:"id"`
	WorkoutLogID    int      `json:"workout_log_id"`
	ExerciseID      int      `json:"exercise_id"`
	SetNumber       int      `json:"set_number"`
	PlannedReps     *int     `json:"planned_reps,omitempty"`
	ActualReps      *int     `json:"actual_reps,omitempty"`
	Weight          *float64 `json:"weight,omitempty"`
	DurationMinutes *int     `json:"duration_minutes,omitempty"`
	Completed       bool     `json:"completed"`

	// joined from the exercise definition
	ExerciseName string                 `json:"exercise_name,omitempty"`
	ExerciseType exercises.ExerciseType `json:"exercise_type,omitempty"`
}

// ExerciseSetRow is one set of an exercise joined with the session it
// belongs to. Rows come ordered newest session first.
type ExerciseSetRow struct {
	Set         SetLog
	LogID       int
	StartedAt   time.Time
	SessionName string
}
