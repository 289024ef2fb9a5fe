package programs

import (
	"context"
	"errors"
	"fmt"

	"github.com/2beens/fitlog/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var ErrProgramNotFound = errors.New("program not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, program Program) (_ *Program, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.programs.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	ownedWorkouts, err := r.ownedWorkoutIDs(ctx, program.OwnerID)
	if err != nil {
		return nil, err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				err = fmt.Errorf("failed to rollback transaction: %w: %w", rollbackErr, err)
			}
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = tx.QueryRow(
		ctx,
		`INSERT INTO programs (owner_id, name, created_at)
			VALUES ($1, $2, $3)
		RETURNING id;`,
		program.OwnerID, program.Name, program.CreatedAt,
	).Scan(&program.ID)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("program.id", program.ID))

	orderedIDs := make([]int, 0, len(program.WorkoutIDs))
	for _, workoutID := range program.WorkoutIDs {
		if !ownedWorkouts[workoutID] {
			continue
		}
		if _, err = tx.Exec(
			ctx,
			`INSERT INTO program_workout_order (program_id, workout_id, position)
				VALUES ($1, $2, $3);`,
			program.ID, workoutID, len(orderedIDs),
		); err != nil {
			return nil, err
		}
		orderedIDs = append(orderedIDs, workoutID)
	}
	program.WorkoutIDs = orderedIDs

	return &program, nil
}

func (r *Repo) Get(ctx context.Context, ownerID, id int) (_ *Program, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.programs.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	var program Program
	err = r.db.QueryRow(
		ctx,
		`SELECT id, owner_id, name, created_at
			FROM programs
			WHERE id = $1 AND owner_id = $2;`,
		id, ownerID,
	).Scan(&program.ID, &program.OwnerID, &program.Name, &program.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProgramNotFound
	}
	if err != nil {
		return nil, err
	}

	program.WorkoutIDs, err = r.workoutOrder(ctx, program.ID)
	if err != nil {
		return nil, fmt.Errorf("get program workout order: %w", err)
	}

	return &program, nil
}

func (r *Repo) List(ctx context.Context, ownerID int) (_ []Program, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.programs.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT id, owner_id, name, created_at
			FROM programs
			WHERE owner_id = $1
			ORDER BY id;`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	programs := make([]Program, 0)
	for rows.Next() {
		var p Program
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Name, &p.CreatedAt); err != nil {
			return nil, err
		}
		programs = append(programs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range programs {
		programs[i].WorkoutIDs, err = r.workoutOrder(ctx, programs[i].ID)
		if err != nil {
			return nil, fmt.Errorf("get program workout order: %w", err)
		}
	}

	return programs, nil
}

func (r *Repo) Update(ctx context.Context, program *Program) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.programs.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", program.ID))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE programs SET name = $1 WHERE id = $2 AND owner_id = $3;`,
		program.Name, program.ID, program.OwnerID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProgramNotFound
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, ownerID, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.programs.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM programs WHERE id = $1 AND owner_id = $2;`,
		id, ownerID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProgramNotFound
	}
	return nil
}

// ReplaceOrder atomically swaps the workout rotation of a program.
// Workout ids not owned by the caller are skipped, positions come
// from the request order.
func (r *Repo) ReplaceOrder(ctx context.Context, ownerID, programID int, workoutIDs []int) (_ []int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.programs.replaceOrder")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("program.id", programID))

	if err := r.checkProgramOwner(ctx, ownerID, programID); err != nil {
		return nil, err
	}

	ownedWorkouts, err := r.ownedWorkoutIDs(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				err = fmt.Errorf("failed to rollback transaction: %w: %w", rollbackErr, err)
			}
		} else {
			err = tx.Commit(ctx)
		}
	}()

	if _, err = tx.Exec(
		ctx,
		`DELETE FROM program_workout_order WHERE program_id = $1;`,
		programID,
	); err != nil {
		return nil, err
	}

	orderedIDs := make([]int, 0, len(workoutIDs))
	for _, workoutID := range workoutIDs {
		if !ownedWorkouts[workoutID] {
			continue
		}
		if _, err = tx.Exec(
			ctx,
			`INSERT INTO program_workout_order (program_id, workout_id, position)
				VALUES ($1, $2, $3);`,
			programID, workoutID, len(orderedIDs),
		); err != nil {
			return nil, err
		}
		orderedIDs = append(orderedIDs, workoutID)
	}

	return orderedIDs, nil
}

func (r *Repo) checkProgramOwner(ctx context.Context, ownerID, programID int) error {
	var id int
	err := r.db.QueryRow(
		ctx,
		`SELECT id FROM programs WHERE id = $1 AND owner_id = $2;`,
		programID, ownerID,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrProgramNotFound
	}
	return err
}

func (r *Repo) ownedWorkoutIDs(ctx context.Context, ownerID int) (map[int]bool, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT id FROM workouts WHERE owner_id = $1;`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	owned := make(map[int]bool)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		owned[id] = true
	}
	return owned, rows.Err()
}

func (r *Repo) workoutOrder(ctx context.Context, programID int) ([]int, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT workout_id
			FROM program_workout_order
			WHERE program_id = $1
			ORDER BY position;`,
		programID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	workoutIDs := make([]int, 0)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		workoutIDs = append(workoutIDs, id)
	}
	return workoutIDs, rows.Err()
}
