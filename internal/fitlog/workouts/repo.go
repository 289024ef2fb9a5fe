package workouts

import (
	"context"
	"errors"
	"fmt"

	"github.com/2beens/fitlog/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var (
	ErrWorkoutNotFound         = errors.New("workout not found")
	ErrWorkoutExerciseNotFound = errors.New("workout exercise not found")
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, workout Workout) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	err = r.db.QueryRow(
		ctx,
		`INSERT INTO workouts (owner_id, name, created_at)
			VALUES ($1, $2, $3)
		RETURNING id;`,
		workout.OwnerID, workout.Name, workout.CreatedAt,
	).Scan(&workout.ID)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("workout.id", workout.ID))

	workout.Exercises = make([]WorkoutExercise, 0)
	return &workout, nil
}

func (r *Repo) Get(ctx context.Context, ownerID, id int) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	var workout Workout
	err = r.db.QueryRow(
		ctx,
		`SELECT id, owner_id, name, created_at
			FROM workouts
			WHERE id = $1 AND owner_id = $2;`,
		id, ownerID,
	).Scan(&workout.ID, &workout.OwnerID, &workout.Name, &workout.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrWorkoutNotFound
	}
	if err != nil {
		return nil, err
	}

	workout.Exercises, err = r.workoutExercises(ctx, workout.ID)
	if err != nil {
		return nil, fmt.Errorf("get workout exercises: %w", err)
	}

	return &workout, nil
}

func (r *Repo) List(ctx context.Context, ownerID int) (_ []Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT id, owner_id, name, created_at
			FROM workouts
			WHERE owner_id = $1
			ORDER BY id;`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	workouts := make([]Workout, 0)
	for rows.Next() {
		var w Workout
		if err := rows.Scan(&w.ID, &w.OwnerID, &w.Name, &w.CreatedAt); err != nil {
			return nil, err
		}
		workouts = append(workouts, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range workouts {
		workouts[i].Exercises, err = r.workoutExercises(ctx, workouts[i].ID)
		if err != nil {
			return nil, fmt.Errorf("get workout exercises: %w", err)
		}
	}

	return workouts, nil
}

func (r *Repo) Update(ctx context.Context, workout *Workout) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", workout.ID))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE workouts SET name = $1 WHERE id = $2 AND owner_id = $3;`,
		workout.Name, workout.ID, workout.OwnerID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWorkoutNotFound
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, ownerID, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM workouts WHERE id = $1 AND owner_id = $2;`,
		id, ownerID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWorkoutNotFound
	}
	return nil
}

// ReplaceExercises atomically swaps the full exercise list of a workout.
// Positions come from the request order. Exercise ids not owned by the
// caller are skipped.
func (r *Repo) ReplaceExercises(
	ctx context.Context,
	ownerID, workoutID int,
	items []WorkoutExercise,
) (_ []WorkoutExercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.replaceExercises")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("workout.id", workoutID))

	if err := r.checkWorkoutOwner(ctx, ownerID, workoutID); err != nil {
		return nil, err
	}

	ownedExercises, err := r.ownedExerciseIDs(ctx, ownerID)
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
		`DELETE FROM workout_exercises WHERE workout_id = $1;`,
		workoutID,
	); err != nil {
		return nil, err
	}

	inserted := make([]WorkoutExercise, 0, len(items))
	position := 0
	for i := range items {
		item := items[i]
		if !ownedExercises[item.ExerciseID] {
			continue
		}
		item.WorkoutID = workoutID
		item.Position = position
		position++

		if err = tx.QueryRow(
			ctx,
			`INSERT INTO workout_exercises
				(workout_id, exercise_id, position, default_sets, default_reps, default_weight, default_duration_minutes, unit)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id;`,
			item.WorkoutID, item.ExerciseID, item.Position,
			item.DefaultSets, item.DefaultReps, item.DefaultWeight, item.DefaultDurationMinutes, item.Unit,
		).Scan(&item.ID); err != nil {
			return nil, err
		}

		inserted = append(inserted, item)
	}

	return inserted, nil
}

// AddExercise appends an exercise to the workout at max(position)+1.
func (r *Repo) AddExercise(
	ctx context.Context,
	ownerID int,
	item WorkoutExercise,
) (_ *WorkoutExercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.addExercise")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("workout.id", item.WorkoutID))
	span.SetAttributes(attribute.Int("exercise.id", item.ExerciseID))

	if err := r.checkWorkoutOwner(ctx, ownerID, item.WorkoutID); err != nil {
		return nil, err
	}

	ownedExercises, err := r.ownedExerciseIDs(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if !ownedExercises[item.ExerciseID] {
		return nil, ErrWorkoutExerciseNotFound
	}

	err = r.db.QueryRow(
		ctx,
		`INSERT INTO workout_exercises
			(workout_id, exercise_id, position, default_sets, default_reps, default_weight, default_duration_minutes, unit)
			VALUES (
				$1, $2,
				(SELECT COALESCE(MAX(position) + 1, 0) FROM workout_exercises WHERE workout_id = $1),
				$3, $4, $5, $6, $7
			)
		RETURNING id, position;`,
		item.WorkoutID, item.ExerciseID,
		item.DefaultSets, item.DefaultReps, item.DefaultWeight, item.DefaultDurationMinutes, item.Unit,
	).Scan(&item.ID, &item.Position)
	if err != nil {
		return nil, err
	}

	return &item, nil
}

func (r *Repo) GetExercise(ctx context.Context, ownerID, workoutID, weID int) (_ *WorkoutExercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.getExercise")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var item WorkoutExercise
	err = r.db.QueryRow(
		ctx,
		`SELECT we.id, we.workout_id, we.exercise_id, we.position,
				we.default_sets, we.default_reps, we.default_weight, we.default_duration_minutes, we.unit,
				e.name, e.type
			FROM workout_exercises we
			JOIN workouts w ON we.workout_id = w.id
			JOIN exercises e ON we.exercise_id = e.id
			WHERE we.id = $1 AND we.workout_id = $2 AND w.owner_id = $3;`,
		weID, workoutID, ownerID,
	).Scan(
		&item.ID, &item.WorkoutID, &item.ExerciseID, &item.Position,
		&item.DefaultSets, &item.DefaultReps, &item.DefaultWeight, &item.DefaultDurationMinutes, &item.Unit,
		&item.ExerciseName, &item.ExerciseType,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrWorkoutExerciseNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Repo) UpdateExercise(ctx context.Context, ownerID int, item *WorkoutExercise) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.updateExercise")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", item.ID))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE workout_exercises we
			SET default_sets = $1, default_reps = $2, default_weight = $3, default_duration_minutes = $4, unit = $5
			FROM workouts w
			WHERE we.id = $6 AND we.workout_id = w.id AND w.owner_id = $7;`,
		item.DefaultSets, item.DefaultReps, item.DefaultWeight, item.DefaultDurationMinutes, item.Unit,
		item.ID, ownerID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWorkoutExerciseNotFound
	}
	return nil
}

func (r *Repo) RemoveExercise(ctx context.Context, ownerID, workoutID, weID int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.removeExercise")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", weID))

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM workout_exercises we
			USING workouts w
			WHERE we.id = $1 AND we.workout_id = $2 AND we.workout_id = w.id AND w.owner_id = $3;`,
		weID, workoutID, ownerID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWorkoutExerciseNotFound
	}
	return nil
}

func (r *Repo) checkWorkoutOwner(ctx context.Context, ownerID, workoutID int) error {
	var id int
	err := r.db.QueryRow(
		ctx,
		`SELECT id FROM workouts WHERE id = $1 AND owner_id = $2;`,
		workoutID, ownerID,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrWorkoutNotFound
	}
	return err
}

func (r *Repo) ownedExerciseIDs(ctx context.Context, ownerID int) (map[int]bool, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT id FROM exercises WHERE owner_id = $1;`,
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

func (r *Repo) workoutExercises(ctx context.Context, workoutID int) ([]WorkoutExercise, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT we.id, we.workout_id, we.exercise_id, we.position,
				we.default_sets, we.default_reps, we.default_weight, we.default_duration_minutes, we.unit,
				e.name, e.type
			FROM workout_exercises we
			JOIN exercises e ON we.exercise_id = e.id
			WHERE we.workout_id = $1
			ORDER BY we.position;`,
		workoutID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]WorkoutExercise, 0)
	for rows.Next() {
		var item WorkoutExercise
		if err := rows.Scan(
			&item.ID, &item.WorkoutID, &item.ExerciseID, &item.Position,
			&item.DefaultSets, &item.DefaultReps, &item.DefaultWeight, &item.DefaultDurationMinutes, &item.Unit,
			&item.ExerciseName, &item.ExerciseType,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
