package programs

import (
	"context"
	"sort"
	"sync"
)

var _ programsRepo = (*repoMock)(nil)

type repoMock struct {
	Programs map[int]*Program
	nextID   int
	mutex    sync.Mutex
}

func newRepoMock() *repoMock {
	return &repoMock{
		Programs: make(map[int]*Program),
		nextID:   1,
	}
}

func (r *repoMock) Add(_ context.Context, program Program) (*Program, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	program.ID = r.nextID
	r.nextID++
	if program.WorkoutIDs == nil {
		program.WorkoutIDs = []int{}
	}
	stored := program
	stored.WorkoutIDs = append([]int{}, program.WorkoutIDs...)
	r.Programs[program.ID] = &stored

	added := program
	return &added, nil
}

func (r *repoMock) Get(_ context.Context, ownerID, id int) (*Program, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	p, ok := r.Programs[id]
	if !ok || p.OwnerID != ownerID {
		return nil, ErrProgramNotFound
	}

	found := *p
	found.WorkoutIDs = append([]int{}, p.WorkoutIDs...)
	return &found, nil
}

func (r *repoMock) List(_ context.Context, ownerID int) ([]Program, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	programs := make([]Program, 0)
	for _, p := range r.Programs {
		if p.OwnerID != ownerID {
			continue
		}
		found := *p
		found.WorkoutIDs = append([]int{}, p.WorkoutIDs...)
		programs = append(programs, found)
	}

	sort.Slice(programs, func(i, j int) bool {
		return programs[i].ID < programs[j].ID
	})

	return programs, nil
}

func (r *repoMock) Update(_ context.Context, program *Program) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	p, ok := r.Programs[program.ID]
	if !ok || p.OwnerID != program.OwnerID {
		return ErrProgramNotFound
	}

	p.Name = program.Name
	return nil
}

func (r *repoMock) Delete(_ context.Context, ownerID, id int) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	p, ok := r.Programs[id]
	if !ok || p.OwnerID != ownerID {
		return ErrProgramNotFound
	}

	delete(r.Programs, id)
	return nil
}

func (r *repoMock) ReplaceOrder(_ context.Context, ownerID, programID int, workoutIDs []int) ([]int, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	p, ok := r.Programs[programID]
	if !ok || p.OwnerID != ownerID {
		return nil, ErrProgramNotFound
	}

	p.WorkoutIDs = append([]int{}, workoutIDs...)
	return append([]int{}, workoutIDs...), nil
}
