package workouts

import (
	"time"

	"github.com/2beens/fitlog/internal/fitlog/exercises"
)

// Workout is a reusable template: an ordered list of exercises
// with default prescriptions.
type Workout struct {
	ID        int               `json:"id"`
	OwnerID   int               `json:"-"`
	Name      string            `json:"name"`
	CreatedAt time.Time         `json:"created_at"`
	Exercises []WorkoutExercise `json:"exercises"`
}

// WorkoutExercise attaches an exercise to a workout at a position,
// carrying the defaults used to pre-populate set logs.
type WorkoutExercise struct {
	ID                     int            `json:"id"`
	WorkoutID              int            `json:"workout_id"`
	ExerciseID             int            `json:"exercise_id"`
	Position               int            `json:"position"`
	DefaultSets            int            `json:"default_sets"`
	DefaultReps            *int           `json:"default_reps,omitempty"`
	DefaultWeight          *float64       `json:"default_weight,omitempty"`
	DefaultDurationMinutes *int           `json:"default_duration_minutes,omitempty"`
	Unit                   exercises.Unit `json:"unit"`

	// joined from the exercise definition
	ExerciseName string                 `json:"exercise_name,omitempty"`
	ExerciseType exercises.ExerciseType `json:"exercise_type,omitempty"`
}
