package logs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/fitlog/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var (
	ErrLogNotFound    = errors.New("workout log not found")
	ErrSetLogNotFound = errors.New("set log not found")
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// StartLog creates the session together with its pre-populated sets.
func (r *Repo) StartLog(ctx context.Context, workoutLog WorkoutLog, sets []SetLog) (_ *WorkoutLog, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.logs.startLog")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

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
		`INSERT INTO workout_logs
			(owner_id, workout_id, program_id, started_at, notes, body_weight, custom_name)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id;`,
		workoutLog.OwnerID, workoutLog.WorkoutID, workoutLog.ProgramID,
		workoutLog.StartedAt, workoutLog.Notes, workoutLog.BodyWeight, workoutLog.CustomName,
	).Scan(&workoutLog.ID)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("log.id", workoutLog.ID))

	workoutLog.Sets = make([]SetLog, 0, len(sets))
	for i := range sets {
		set := sets[i]
		set.WorkoutLogID = workoutLog.ID
		if err = tx.QueryRow(
			ctx,
			`INSERT INTO set_logs
				(workout_log_id, exercise_id, set_number, planned_reps, actual_reps, weight, duration_minutes, completed)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id;`,
			set.WorkoutLogID, set.ExerciseID, set.SetNumber,
			set.PlannedReps, set.ActualReps, set.Weight, set.DurationMinutes, set.Completed,
		).Scan(&set.ID); err != nil {
			return nil, err
		}
		workoutLog.Sets = append(workoutLog.Sets, set)
	}

	return &workoutLog, nil
}

func (r *Repo) Get(ctx context.Context, ownerID, id int) (_ *WorkoutLog, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.logs.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	var workoutLog WorkoutLog
	err = r.db.QueryRow(
		ctx,
		`SELECT l.id, l.owner_id, l.workout_id, l.program_id, l.started_at, l.completed_at,
				l.notes, l.body_weight, l.custom_name, COALESCE(w.name, '')
			FROM workout_logs l
			LEFT JOIN workouts w ON l.workout_id = w.id
			WHERE l.id = $1 AND l.owner_id = $2;`,
		id, ownerID,
	).Scan(
		&workoutLog.ID, &workoutLog.OwnerID, &workoutLog.WorkoutID, &workoutLog.ProgramID,
		&workoutLog.StartedAt, &workoutLog.CompletedAt,
		&workoutLog.Notes, &workoutLog.BodyWeight, &workoutLog.CustomName, &workoutLog.WorkoutName,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrLogNotFound
	}
	if err != nil {
		return nil, err
	}

	workoutLog.Sets, err = r.setsOf(ctx, workoutLog.ID)
	if err != nil {
		return nil, fmt.Errorf("get log sets: %w", err)
	}

	return &workoutLog, nil
}

// List returns the sessions of the owner within [from, to], newest first.
func (r *Repo) List(ctx context.Context, ownerID int, from, to time.Time) (_ []WorkoutLog, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.logs.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT l.id, l.owner_id, l.workout_id, l.program_id, l.started_at, l.completed_at,
				l.notes, l.body_weight, l.custom_name, COALESCE(w.name, '')
			FROM workout_logs l
			LEFT JOIN workouts w ON l.workout_id = w.id
			WHERE l.owner_id = $1 AND l.started_at >= $2 AND l.started_at <= $3
			ORDER BY l.started_at DESC;`,
		ownerID, from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	workoutLogs := make([]WorkoutLog, 0)
	for rows.Next() {
		var l WorkoutLog
		if err := rows.Scan(
			&l.ID, &l.OwnerID, &l.WorkoutID, &l.ProgramID, &l.StartedAt, &l.CompletedAt,
			&l.Notes, &l.BodyWeight, &l.CustomName, &l.WorkoutName,
		); err != nil {
			return nil, err
		}
		workoutLogs = append(workoutLogs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range workoutLogs {
		workoutLogs[i].Sets, err = r.setsOf(ctx, workoutLogs[i].ID)
		if err != nil {
			return nil, fmt.Errorf("get log sets: %w", err)
		}
	}

	return workoutLogs, nil
}

func (r *Repo) Update(ctx context.Context, workoutLog *WorkoutLog) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.logs.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", workoutLog.ID))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE workout_logs
			SET notes = $1, body_weight = $2, custom_name = $3, completed_at = $4
			WHERE id = $5 AND owner_id = $6;`,
		workoutLog.Notes, workoutLog.BodyWeight, workoutLog.CustomName, workoutLog.CompletedAt,
		workoutLog.ID, workoutLog.OwnerID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrLogNotFound
	}
	return nil
}

// SwitchWorkout repoints an in-progress session at another workout and
// swaps its sets for the freshly generated ones, all in one transaction.
func (r *Repo) SwitchWorkout(ctx context.Context, ownerID, logID, workoutID int, sets []SetLog) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.logs.switchWorkout")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("log.id", logID))
	span.SetAttributes(attribute.Int("workout.id", workoutID))

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
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

	tag, err := tx.Exec(
		ctx,
		`UPDATE workout_logs SET workout_id = $1 WHERE id = $2 AND owner_id = $3;`,
		workoutID, logID, ownerID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrLogNotFound
	}

	if _, err = tx.Exec(
		ctx,
		`DELETE FROM set_logs WHERE workout_log_id = $1;`,
		logID,
	); err != nil {
		return err
	}

	for i := range sets {
		set := sets[i]
		if _, err = tx.Exec(
			ctx,
			`INSERT INTO set_logs
				(workout_log_id, exercise_id, set_number, planned_reps, actual_reps, weight, duration_minutes, completed)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`,
			logID, set.ExerciseID, set.SetNumber,
			set.PlannedReps, set.ActualReps, set.Weight, set.DurationMinutes, set.Completed,
		); err != nil {
			return err
		}
	}

	return nil
}

func (r *Repo) GetSet(ctx context.Context, ownerID, logID, setID int) (_ *SetLog, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.logs.getSet")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var set SetLog
	err = r.db.QueryRow(
		ctx,
		`SELECT s.id, s.workout_log_id, s.exercise_id, s.set_number,
				s.planned_reps, s.actual_reps, s.weight, s.duration_minutes, s.completed,
				e.name, e.type
			FROM set_logs s
			JOIN workout_logs l ON s.workout_log_id = l.id
			JOIN exercises e ON s.exercise_id = e.id
			WHERE s.id = $1 AND s.workout_log_id = $2 AND l.owner_id = $3;`,
		setID, logID, ownerID,
	).Scan(
		&set.ID, &set.WorkoutLogID, &set.ExerciseID, &set.SetNumber,
		&set.PlannedReps, &set.ActualReps, &set.Weight, &set.DurationMinutes, &set.Completed,
		&set.ExerciseName, &set.ExerciseType,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSetLogNotFound
	}
	if err != nil {
		return nil, err
	}
	return &set, nil
}

func (r *Repo) UpdateSet(ctx context.Context, ownerID int, set *SetLog) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.logs.updateSet")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", set.ID))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE set_logs s
			SET actual_reps = $1, weight = $2, duration_minutes = $3, completed = $4
			FROM workout_logs l
			WHERE s.id = $5 AND s.workout_log_id = l.id AND l.owner_id = $6;`,
		set.ActualReps, set.Weight, set.DurationMinutes, set.Completed,
		set.ID, ownerID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSetLogNotFound
	}
	return nil
}

// Calendar returns the distinct days of the month on which a session
// was started, sorted ascending.
func (r *Repo) Calendar(ctx context.Context, ownerID, year int, month time.Month) (_ []string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.logs.calendar")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	monthStart := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	rows, err := r.db.Query(
		ctx,
		`SELECT DISTINCT to_char(started_at::date, 'YYYY-MM-DD')
			FROM workout_logs
			WHERE owner_id = $1 AND started_at >= $2 AND started_at < $3
			ORDER BY 1;`,
		ownerID, monthStart, monthStart.AddDate(0, 1, 0),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	days := make([]string, 0)
	for rows.Next() {
		var day string
		if err := rows.Scan(&day); err != nil {
			return nil, err
		}
		days = append(days, day)
	}
	return days, rows.Err()
}

// LastInProgressWorkout returns the newest started, not yet completed
// session of the program. Log id 0 means there is none.
func (r *Repo) LastInProgressWorkout(ctx context.Context, ownerID, programID int) (logID, workoutID int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.logs.lastInProgressWorkout")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	err = r.db.QueryRow(
		ctx,
		`SELECT id, workout_id
			FROM workout_logs
			WHERE owner_id = $1 AND program_id = $2
				AND completed_at IS NULL AND workout_id IS NOT NULL
			ORDER BY started_at DESC
			LIMIT 1;`,
		ownerID, programID,
	).Scan(&logID, &workoutID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, err
	}
	return logID, workoutID, nil
}

// LastCompletedWorkout returns the workout of the most recently completed
// session of the program, considering only the given workout ids.
// Workout id 0 means there is none.
func (r *Repo) LastCompletedWorkout(ctx context.Context, ownerID, programID int, workoutIDs []int) (workoutID int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.logs.lastCompletedWorkout")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	err = r.db.QueryRow(
		ctx,
		`SELECT workout_id
			FROM workout_logs
			WHERE owner_id = $1 AND program_id = $2
				AND completed_at IS NOT NULL AND workout_id = ANY($3)
			ORDER BY completed_at DESC
			LIMIT 1;`,
		ownerID, programID, workoutIDs,
	).Scan(&workoutID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return workoutID, nil
}

// ExerciseSets returns every set of an exercise joined with its
// session, newest session first, sets within a session in id order.
func (r *Repo) ExerciseSets(ctx context.Context, ownerID, exerciseID int) (_ []ExerciseSetRow, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.logs.exerciseSets")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("exercise.id", exerciseID))

	rows, err := r.db.Query(
		ctx,
		`SELECT s.id, s.workout_log_id, s.exercise_id, s.set_number,
				s.planned_reps, s.actual_reps, s.weight, s.duration_minutes, s.completed,
				l.id, l.started_at, COALESCE(w.name, l.custom_name)
			FROM set_logs s
			JOIN workout_logs l ON s.workout_log_id = l.id
			LEFT JOIN workouts w ON l.workout_id = w.id
			WHERE l.owner_id = $1 AND s.exercise_id = $2
			ORDER BY l.started_at DESC, s.id;`,
		ownerID, exerciseID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	setRows := make([]ExerciseSetRow, 0)
	for rows.Next() {
		var row ExerciseSetRow
		if err := rows.Scan(
			&row.Set.ID, &row.Set.WorkoutLogID, &row.Set.ExerciseID, &row.Set.SetNumber,
			&row.Set.PlannedReps, &row.Set.ActualReps, &row.Set.Weight,
			&row.Set.DurationMinutes, &row.Set.Completed,
			&row.LogID, &row.StartedAt, &row.SessionName,
		); err != nil {
			return nil, err
		}
		setRows = append(setRows, row)
	}
	return setRows, rows.Err()
}

func (r *Repo) setsOf(ctx context.Context, logID int) ([]SetLog, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT s.id, s.workout_log_id, s.exercise_id, s.set_number,
				s.planned_reps, s.actual_reps, s.weight, s.duration_minutes, s.completed,
				e.name, e.type
			FROM set_logs s
			JOIN exercises e ON s.exercise_id = e.id
			WHERE s.workout_log_id = $1
			ORDER BY s.exercise_id, s.set_number;`,
		logID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sets := make([]SetLog, 0)
	for rows.Next() {
		var set SetLog
		if err := rows.Scan(
			&set.ID, &set.WorkoutLogID, &set.ExerciseID, &set.SetNumber,
			&set.PlannedReps, &set.ActualReps, &set.Weight, &set.DurationMinutes, &set.Completed,
			&set.ExerciseName, &set.ExerciseType,
		); err != nil {
			return nil, err
		}
		sets = append(sets, set)
	}
	return sets, rows.Err()
}
