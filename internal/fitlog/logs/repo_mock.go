package logs

import (
	"context"
	"sort"
	"sync"
	"time"
)

var _ logsRepo = (*repoMock)(nil)

type repoMock struct {
	Logs      map[int]*WorkoutLog
	Sets      map[int]*SetLog
	nextID    int
	nextSetID int
	mutex     sync.Mutex
}

func newRepoMock() *repoMock {
	return &repoMock{
		Logs:      make(map[int]*WorkoutLog),
		Sets:      make(map[int]*SetLog),
		nextID:    1,
		nextSetID: 1,
	}
}

func (r *repoMock) StartLog(_ context.Context, workoutLog WorkoutLog, sets []SetLog) (*WorkoutLog, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	workoutLog.ID = r.nextID
	r.nextID++
	stored := workoutLog
	stored.Sets = nil
	r.Logs[workoutLog.ID] = &stored

	workoutLog.Sets = make([]SetLog, 0, len(sets))
	for i := range sets {
		set := sets[i]
		set.ID = r.nextSetID
		r.nextSetID++
		set.WorkoutLogID = workoutLog.ID
		storedSet := set
		r.Sets[set.ID] = &storedSet
		workoutLog.Sets = append(workoutLog.Sets, set)
	}

	return &workoutLog, nil
}

func (r *repoMock) Get(_ context.Context, ownerID, id int) (*WorkoutLog, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	l, ok := r.Logs[id]
	if !ok || l.OwnerID != ownerID {
		return nil, ErrLogNotFound
	}

	found := *l
	found.Sets = r.setsOf(id)
	return &found, nil
}

func (r *repoMock) List(_ context.Context, ownerID int, from, to time.Time) ([]WorkoutLog, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	workoutLogs := make([]WorkoutLog, 0)
	for _, l := range r.Logs {
		if l.OwnerID != ownerID || l.StartedAt.Before(from) || l.StartedAt.After(to) {
			continue
		}
		found := *l
		found.Sets = r.setsOf(l.ID)
		workoutLogs = append(workoutLogs, found)
	}

	sort.Slice(workoutLogs, func(i, j int) bool {
		return workoutLogs[i].StartedAt.After(workoutLogs[j].StartedAt)
	})

	return workoutLogs, nil
}

func (r *repoMock) Update(_ context.Context, workoutLog *WorkoutLog) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	l, ok := r.Logs[workoutLog.ID]
	if !ok || l.OwnerID != workoutLog.OwnerID {
		return ErrLogNotFound
	}

	l.Notes = workoutLog.Notes
	l.BodyWeight = workoutLog.BodyWeight
	l.CustomName = workoutLog.CustomName
	l.CompletedAt = workoutLog.CompletedAt
	return nil
}

func (r *repoMock) SwitchWorkout(_ context.Context, ownerID, logID, workoutID int, sets []SetLog) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	l, ok := r.Logs[logID]
	if !ok || l.OwnerID != ownerID {
		return ErrLogNotFound
	}

	l.WorkoutID = &workoutID
	for setID, set := range r.Sets {
		if set.WorkoutLogID == logID {
			delete(r.Sets, setID)
		}
	}
	for i := range sets {
		set := sets[i]
		set.ID = r.nextSetID
		r.nextSetID++
		set.WorkoutLogID = logID
		stored := set
		r.Sets[set.ID] = &stored
	}
	return nil
}

func (r *repoMock) GetSet(_ context.Context, ownerID, logID, setID int) (*SetLog, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	set, ok := r.Sets[setID]
	if !ok || set.WorkoutLogID != logID {
		return nil, ErrSetLogNotFound
	}
	l, ok := r.Logs[logID]
	if !ok || l.OwnerID != ownerID {
		return nil, ErrSetLogNotFound
	}

	found := *set
	return &found, nil
}

func (r *repoMock) UpdateSet(_ context.Context, ownerID int, set *SetLog) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	existing, ok := r.Sets[set.ID]
	if !ok {
		return ErrSetLogNotFound
	}
	l, ok := r.Logs[existing.WorkoutLogID]
	if !ok || l.OwnerID != ownerID {
		return ErrSetLogNotFound
	}

	existing.ActualReps = set.ActualReps
	existing.Weight = set.Weight
	existing.DurationMinutes = set.DurationMinutes
	existing.Completed = set.Completed
	return nil
}

func (r *repoMock) Calendar(_ context.Context, ownerID, year int, month time.Month) ([]string, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	seen := make(map[string]bool)
	for _, l := range r.Logs {
		if l.OwnerID != ownerID ||
			l.StartedAt.Year() != year || l.StartedAt.Month() != month {
			continue
		}
		seen[l.StartedAt.Format("2006-01-02")] = true
	}

	days := make([]string, 0, len(seen))
	for day := range seen {
		days = append(days, day)
	}
	sort.Strings(days)
	return days, nil
}

func (r *repoMock) ExerciseSets(_ context.Context, ownerID, exerciseID int) ([]ExerciseSetRow, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	setRows := make([]ExerciseSetRow, 0)
	for _, set := range r.Sets {
		if set.ExerciseID != exerciseID {
			continue
		}
		l, ok := r.Logs[set.WorkoutLogID]
		if !ok || l.OwnerID != ownerID {
			continue
		}
		setRows = append(setRows, ExerciseSetRow{
			Set:         *set,
			LogID:       l.ID,
			StartedAt:   l.StartedAt,
			SessionName: l.CustomName,
		})
	}

	sort.Slice(setRows, func(i, j int) bool {
		if !setRows[i].StartedAt.Equal(setRows[j].StartedAt) {
			return setRows[i].StartedAt.After(setRows[j].StartedAt)
		}
		return setRows[i].Set.ID < setRows[j].Set.ID
	})

	return setRows, nil
}

func (r *repoMock) setsOf(logID int) []SetLog {
	sets := make([]SetLog, 0)
	for _, set := range r.Sets {
		if set.WorkoutLogID == logID {
			sets = append(sets, *set)
		}
	}
	sort.Slice(sets, func(i, j int) bool {
		if sets[i].ExerciseID != sets[j].ExerciseID {
			return sets[i].ExerciseID < sets[j].ExerciseID
		}
		return sets[i].SetNumber < sets[j].SetNumber
	})
	return sets
}
