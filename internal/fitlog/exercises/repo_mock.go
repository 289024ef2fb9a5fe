package exercises

import (
	"context"
	"sort"
	"sync"
)

var _ exercisesRepo = (*repoMock)(nil)

type repoMock struct {
	Exercises map[int]*Exercise
	nextID    int
	mutex     sync.Mutex
}

func newRepoMock() *repoMock {
	return &repoMock{
		Exercises: make(map[int]*Exercise),
		nextID:    1,
	}
}

func (r *repoMock) Add(_ context.Context, exercise Exercise) (*Exercise, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	exercise.ID = r.nextID
	r.nextID++
	r.Exercises[exercise.ID] = &exercise

	added := exercise
	return &added, nil
}

func (r *repoMock) Get(_ context.Context, ownerID, id int) (*Exercise, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	e, ok := r.Exercises[id]
	if !ok || e.OwnerID != ownerID {
		return nil, ErrExerciseNotFound
	}

	found := *e
	return &found, nil
}

func (r *repoMock) List(_ context.Context, ownerID int) ([]Exercise, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	exercises := make([]Exercise, 0)
	for _, e := range r.Exercises {
		if e.OwnerID == ownerID {
			exercises = append(exercises, *e)
		}
	}

	sort.Slice(exercises, func(i, j int) bool {
		return exercises[i].Name < exercises[j].Name
	})

	return exercises, nil
}

func (r *repoMock) Update(_ context.Context, exercise *Exercise) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	e, ok := r.Exercises[exercise.ID]
	if !ok || e.OwnerID != exercise.OwnerID {
		return ErrExerciseNotFound
	}

	updated := *exercise
	r.Exercises[exercise.ID] = &updated
	return nil
}

func (r *repoMock) Delete(_ context.Context, ownerID, id int) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	e, ok := r.Exercises[id]
	if !ok || e.OwnerID != ownerID {
		return ErrExerciseNotFound
	}

	delete(r.Exercises, id)
	return nil
}
