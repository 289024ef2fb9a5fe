package exercises

import "time"

type ExerciseType string

const (
	TypeStrength ExerciseType = "strength"
	TypeCardio   ExerciseType = "cardio"
)

func (t ExerciseType) IsValid() bool {
	return t == TypeStrength || t == TypeCardio
}

type Unit string

const (
	UnitReps Unit = "reps"
	UnitSecs Unit = "secs"
	UnitMins Unit = "mins"
)

func (u Unit) IsValid() bool {
	return u == UnitReps || u == UnitSecs || u == UnitMins
}

// Exercise is a user-owned movement definition, referenced by workout templates.
type Exercise struct {
	ID        int          `json:"id"`
	OwnerID   int          `json:"-"`
	Name      string       `json:"name"`
	Type      ExerciseType `json:"type"`
	Unit      Unit         `json:"unit"`
	CreatedAt time.Time    `json:"created_at"`
}
