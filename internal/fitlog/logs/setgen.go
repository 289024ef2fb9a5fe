package logs

import (
	"github.com/2beens/fitlog/internal/fitlog/exercises"
	"github.com/2beens/fitlog/internal/fitlog/workouts"
)

// GenerateSetLogs pre-populates the sets of a fresh session from the
// workout template. Strength exercises get default_sets sets with the
// planned reps and weight copied in, cardio exercises get a single set
// carrying the default duration. Order follows the template positions.
func GenerateSetLogs(items []workouts.WorkoutExercise) []SetLog {
	sets := make([]SetLog, 0, len(items))
	for _, item := range items {
		if item.ExerciseType == exercises.TypeCardio {
			sets = append(sets, SetLog{
				ExerciseID:      item.ExerciseID,
				SetNumber:       1,
				DurationMinutes: item.DefaultDurationMinutes,
				ExerciseName:    item.ExerciseName,
				ExerciseType:    item.ExerciseType,
			})
			continue
		}

		for setNumber := 1; setNumber <= item.DefaultSets; setNumber++ {
			set := SetLog{
				ExerciseID:   item.ExerciseID,
				SetNumber:    setNumber,
				Weight:       copyFloat(item.DefaultWeight),
				ExerciseName: item.ExerciseName,
				ExerciseType: item.ExerciseType,
			}
			if item.DefaultReps != nil {
				set.PlannedReps = copyInt(item.DefaultReps)
				set.ActualReps = copyInt(item.DefaultReps)
			}
			sets = append(sets, set)
		}
	}
	return sets
}

func copyInt(i *int) *int {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
