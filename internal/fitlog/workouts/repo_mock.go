package workouts

import (
	"context"
	"sort"
	"sync"
)

var _ workoutsRepo = (*repoMock)(nil)

type repoMock struct {
	Workouts map[int]*Workout
	Items    map[int]*WorkoutExercise
	nextID   int
	nextItem int
	mutex    sync.Mutex
}

func newRepoMock() *repoMock {
	return &repoMock{
		Workouts: make(map[int]*Workout),
		Items:    make(map[int]*WorkoutExercise),
		nextID:   1,
		nextItem: 1,
	}
}

func (r *repoMock) Add(_ context.Context, workout Workout) (*Workout, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	workout.ID = r.nextID
	r.nextID++
	stored := workout
	stored.Exercises = nil
	r.Workouts[workout.ID] = &stored

	added := stored
	added.Exercises = []WorkoutExercise{}
	return &added, nil
}

func (r *repoMock) Get(_ context.Context, ownerID, id int) (*Workout, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	w, ok := r.Workouts[id]
	if !ok || w.OwnerID != ownerID {
		return nil, ErrWorkoutNotFound
	}

	found := *w
	found.Exercises = r.itemsOf(id)
	return &found, nil
}

func (r *repoMock) List(_ context.Context, ownerID int) ([]Workout, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	workouts := make([]Workout, 0)
	for _, w := range r.Workouts {
		if w.OwnerID != ownerID {
			continue
		}
		found := *w
		found.Exercises = r.itemsOf(w.ID)
		workouts = append(workouts, found)
	}

	sort.Slice(workouts, func(i, j int) bool {
		return workouts[i].ID < workouts[j].ID
	})

	return workouts, nil
}

func (r *repoMock) Update(_ context.Context, workout *Workout) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	w, ok := r.Workouts[workout.ID]
	if !ok || w.OwnerID != workout.OwnerID {
		return ErrWorkoutNotFound
	}

	w.Name = workout.Name
	return nil
}

func (r *repoMock) Delete(_ context.Context, ownerID, id int) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	w, ok := r.Workouts[id]
	if !ok || w.OwnerID != ownerID {
		return ErrWorkoutNotFound
	}

	delete(r.Workouts, id)
	for itemID, item := range r.Items {
		if item.WorkoutID == id {
			delete(r.Items, itemID)
		}
	}
	return nil
}

func (r *repoMock) ReplaceExercises(_ context.Context, ownerID, workoutID int, items []WorkoutExercise) ([]WorkoutExercise, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	w, ok := r.Workouts[workoutID]
	if !ok || w.OwnerID != ownerID {
		return nil, ErrWorkoutNotFound
	}

	for itemID, item := range r.Items {
		if item.WorkoutID == workoutID {
			delete(r.Items, itemID)
		}
	}

	inserted := make([]WorkoutExercise, 0, len(items))
	for position, item := range items {
		item.ID = r.nextItem
		r.nextItem++
		item.WorkoutID = workoutID
		item.Position = position
		stored := item
		r.Items[item.ID] = &stored
		inserted = append(inserted, item)
	}
	return inserted, nil
}

func (r *repoMock) AddExercise(_ context.Context, ownerID int, item WorkoutExercise) (*WorkoutExercise, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	w, ok := r.Workouts[item.WorkoutID]
	if !ok || w.OwnerID != ownerID {
		return nil, ErrWorkoutNotFound
	}

	item.ID = r.nextItem
	r.nextItem++
	item.Position = len(r.itemsOf(item.WorkoutID))
	stored := item
	r.Items[item.ID] = &stored

	added := item
	return &added, nil
}

func (r *repoMock) GetExercise(_ context.Context, ownerID, workoutID, weID int) (*WorkoutExercise, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	item, ok := r.Items[weID]
	if !ok || item.WorkoutID != workoutID {
		return nil, ErrWorkoutExerciseNotFound
	}
	w, ok := r.Workouts[workoutID]
	if !ok || w.OwnerID != ownerID {
		return nil, ErrWorkoutExerciseNotFound
	}

	found := *item
	return &found, nil
}

func (r *repoMock) UpdateExercise(_ context.Context, ownerID int, item *WorkoutExercise) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	existing, ok := r.Items[item.ID]
	if !ok || existing.WorkoutID != item.WorkoutID {
		return ErrWorkoutExerciseNotFound
	}
	w, ok := r.Workouts[item.WorkoutID]
	if !ok || w.OwnerID != ownerID {
		return ErrWorkoutExerciseNotFound
	}

	updated := *item
	r.Items[item.ID] = &updated
	return nil
}

func (r *repoMock) RemoveExercise(_ context.Context, ownerID, workoutID, weID int) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	item, ok := r.Items[weID]
	if !ok || item.WorkoutID != workoutID {
		return ErrWorkoutExerciseNotFound
	}
	w, ok := r.Workouts[workoutID]
	if !ok || w.OwnerID != ownerID {
		return ErrWorkoutExerciseNotFound
	}

	delete(r.Items, weID)
	return nil
}

func (r *repoMock) itemsOf(workoutID int) []WorkoutExercise {
	items := make([]WorkoutExercise, 0)
	for _, item := range r.Items {
		if item.WorkoutID == workoutID {
			items = append(items, *item)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].Position < items[j].Position
	})
	return items
}
