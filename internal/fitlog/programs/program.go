package programs

import (
	"time"
)

// Program is an ordered rotation of workouts. The order drives
// which workout comes next after the last logged session.
type Program struct {
	ID        int       `json:"id"`
	OwnerID   int       `json:"-"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	// ordered, position ascending
	WorkoutIDs []int `json:"workout_ids"`
}
