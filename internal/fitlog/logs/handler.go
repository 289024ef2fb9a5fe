package logs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/2beens/fitlog/internal/fitlog/exercises"
	"github.com/2beens/fitlog/internal/fitlog/workouts"
	"github.com/2beens/fitlog/internal/middleware"
	"github.com/2beens/fitlog/internal/telemetry/metrics"
	"github.com/2beens/fitlog/internal/telemetry/tracing"
	"github.com/2beens/fitlog/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type logsRepo interface {
	StartLog(ctx context.Context, workoutLog WorkoutLog, sets []SetLog) (*WorkoutLog, error)
	Get(ctx context.Context, ownerID, id int) (*WorkoutLog, error)
	List(ctx context.Context, ownerID int, from, to time.Time) ([]WorkoutLog, error)
	Update(ctx context.Context, workoutLog *WorkoutLog) error
	SwitchWorkout(ctx context.Context, ownerID, logID, workoutID int, sets []SetLog) error
	GetSet(ctx context.Context, ownerID, logID, setID int) (*SetLog, error)
	UpdateSet(ctx context.Context, ownerID int, set *SetLog) error
	Calendar(ctx context.Context, ownerID, year int, month time.Month) ([]string, error)
}

type workoutsGetter interface {
	Get(ctx context.Context, ownerID, id int) (*workouts.Workout, error)
}

type progressAnalyzer interface {
	ExerciseProgress(ctx context.Context, ownerID, exerciseID int) (*ExerciseProgress, error)
}

type StartLogRequest struct {
	WorkoutID  *int     `json:"workout_id"`
	ProgramID  *int     `json:"program_id"`
	CustomName string   `json:"custom_name"`
	Notes      string   `json:"notes"`
	BodyWeight *float64 `json:"body_weight"`
}

type UpdateLogRequest struct {
	Notes      *string  `json:"notes"`
	BodyWeight *float64 `json:"body_weight"`
	CustomName *string  `json:"custom_name"`
	Completed  *bool    `json:"completed"`
	// switches the session to another workout template,
	// regenerating all sets
	WorkoutID *int `json:"workout_id"`
}

type UpdateSetRequest struct {
	ActualReps      *int     `json:"actual_reps"`
	Weight          *float64 `json:"weight"`
	DurationMinutes *int     `json:"duration_minutes"`
	Completed       *bool    `json:"completed"`
}

type CalendarResponse struct {
	Month int `json:"month"`
	Year  int `json:"year"`
	// distinct YYYY-MM-DD days with a session, sorted ascending
	Days []string `json:"days"`
}

type Handler struct {
	repo           logsRepo
	workouts       workoutsGetter
	analyzer       progressAnalyzer
	metricsManager *metrics.Manager
}

func NewHandler(
	repo logsRepo,
	workouts workoutsGetter,
	analyzer progressAnalyzer,
	metricsManager *metrics.Manager,
) *Handler {
	return &Handler{
		repo:           repo,
		workouts:       workouts,
		analyzer:       analyzer,
		metricsManager: metricsManager,
	}
}

func (handler *Handler) SetupRoutes(r *mux.Router) {
	// calendar has to go before the {id} routes
	r.HandleFunc("/logs/calendar", handler.HandleCalendar).Methods("GET", "OPTIONS").Name("logs-calendar")
	r.HandleFunc("/logs", handler.HandleList).Methods("GET", "OPTIONS").Name("list-logs")
	r.HandleFunc("/logs", handler.HandleStart).Methods("POST", "OPTIONS").Name("start-log")
	r.HandleFunc("/logs/{id}", handler.HandleGet).Methods("GET", "OPTIONS").Name("get-log")
	r.HandleFunc("/logs/{id}", handler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-log")
	r.HandleFunc("/logs/{id}/sets/{setId}", handler.HandleUpdateSet).Methods("PUT", "OPTIONS").Name("update-set-log")
	r.HandleFunc("/exercises/{id}/progress", handler.HandleExerciseProgress).Methods("GET", "OPTIONS").Name("exercise-progress")
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.logs.list")
	defer span.End()

	ownerID, ok := middleware.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	from, to, err := timeRangeFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	workoutLogs, err := handler.repo.List(ctx, ownerID, from, to)
	if err != nil {
		log.Errorf("list workout logs error: %s", err)
		http.Error(w, "failed to get workout logs", http.StatusInternalServerError)
		return
	}

	logsJson, err := json.Marshal(workoutLogs)
	if err != nil {
		log.Errorf("marshal workout logs error: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, logsJson)
}

func (handler *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.logs.start")
	defer span.End()

	ownerID, ok := middleware.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	var startReq StartLogRequest
	if err := json.NewDecoder(r.Body).Decode(&startReq); err != nil {
		log.Tracef("start workout log, unmarshal json params: %s", err)
		http.Error(w, "start workout log failed", http.StatusBadRequest)
		return
	}

	if startReq.WorkoutID == nil && startReq.CustomName == "" {
		http.Error(w, "error, workout id or custom name required", http.StatusBadRequest)
		return
	}

	var sets []SetLog
	if startReq.WorkoutID != nil {
		workout, err := handler.workouts.Get(ctx, ownerID, *startReq.WorkoutID)
		if err != nil {
			if errors.Is(err, workouts.ErrWorkoutNotFound) {
				http.Error(w, "workout not found", http.StatusNotFound)
				return
			}
			log.Errorf("start workout log, get workout %d: %s", *startReq.WorkoutID, err)
			http.Error(w, "start workout log failed", http.StatusInternalServerError)
			return
		}
		sets = GenerateSetLogs(workout.Exercises)
	}

	startedLog, err := handler.repo.StartLog(ctx, WorkoutLog{
		OwnerID:    ownerID,
		WorkoutID:  startReq.WorkoutID,
		ProgramID:  startReq.ProgramID,
		StartedAt:  time.Now(),
		Notes:      startReq.Notes,
		BodyWeight: startReq.BodyWeight,
		CustomName: startReq.CustomName,
	}, sets)
	if err != nil {
		log.Errorf("failed to start workout log: %s", err)
		http.Error(w, "start workout log failed", http.StatusInternalServerError)
		return
	}

	handler.metricsManager.CounterWorkoutLogsStarted.Inc()

	startedJson, err := json.Marshal(startedLog)
	if err != nil {
		log.Errorf("failed to marshal workout log: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	log.Debugf("workout log %d started for user %d", startedLog.ID, ownerID)
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, startedJson, http.StatusCreated)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.logs.get")
	defer span.End()

	ownerID, ok := middleware.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	id, err := logIDFromRequest(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	workoutLog, err := handler.repo.Get(ctx, ownerID, id)
	if err != nil {
		if !errors.Is(err, ErrLogNotFound) {
			log.Errorf("failed to get workout log %d: %s", id, err)
		}
		http.Error(w, "workout log not found", http.StatusNotFound)
		return
	}

	logJson, err := json.Marshal(workoutLog)
	if err != nil {
		log.Errorf("failed to marshal workout log: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, logJson)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.logs.update")
	defer span.End()

	ownerID, ok := middleware.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	id, err := logIDFromRequest(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var updateReq UpdateLogRequest
	if err := json.NewDecoder(r.Body).Decode(&updateReq); err != nil {
		log.Tracef("update workout log, unmarshal json params: %s", err)
		http.Error(w, "update workout log failed", http.StatusBadRequest)
		return
	}

	workoutLog, err := handler.repo.Get(ctx, ownerID, id)
	if err != nil {
		if !errors.Is(err, ErrLogNotFound) {
			log.Errorf("failed to get workout log %d: %s", id, err)
		}
		http.Error(w, "workout log not found", http.StatusNotFound)
		return
	}

	if updateReq.WorkoutID != nil &&
		(workoutLog.WorkoutID == nil || *workoutLog.WorkoutID != *updateReq.WorkoutID) {
		if workoutLog.CompletedAt != nil {
			http.Error(w, "error, session already completed", http.StatusBadRequest)
			return
		}
		workout, err := handler.workouts.Get(ctx, ownerID, *updateReq.WorkoutID)
		if err != nil {
			if errors.Is(err, workouts.ErrWorkoutNotFound) {
				http.Error(w, "workout not found", http.StatusNotFound)
				return
			}
			log.Errorf("switch workout, get workout %d: %s", *updateReq.WorkoutID, err)
			http.Error(w, "update workout log failed", http.StatusInternalServerError)
			return
		}
		if err := handler.repo.SwitchWorkout(
			ctx, ownerID, id, workout.ID, GenerateSetLogs(workout.Exercises),
		); err != nil {
			log.Errorf("failed to switch workout of log %d: %s", id, err)
			http.Error(w, "update workout log failed", http.StatusInternalServerError)
			return
		}
	}

	if updateReq.Notes != nil {
		workoutLog.Notes = *updateReq.Notes
	}
	if updateReq.BodyWeight != nil {
		workoutLog.BodyWeight = updateReq.BodyWeight
	}
	if updateReq.CustomName != nil {
		workoutLog.CustomName = *updateReq.CustomName
	}
	if updateReq.Completed != nil {
		if *updateReq.Completed {
			if workoutLog.CompletedAt == nil {
				now := time.Now()
				workoutLog.CompletedAt = &now
			}
		} else {
			workoutLog.CompletedAt = nil
		}
	}

	if err := handler.repo.Update(ctx, workoutLog); err != nil {
		log.Errorf("failed to update workout log %d: %s", id, err)
		http.Error(w, "update workout log failed", http.StatusInternalServerError)
		return
	}

	updatedLog, err := handler.repo.Get(ctx, ownerID, id)
	if err != nil {
		log.Errorf("failed to get workout log %d: %s", id, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	logJson, err := json.Marshal(updatedLog)
	if err != nil {
		log.Errorf("failed to marshal workout log: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, logJson)
}

func (handler *Handler) HandleUpdateSet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.logs.updateSet")
	defer span.End()

	ownerID, ok := middleware.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	id, err := logIDFromRequest(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	setID, err := logIDFromRequest(r, "setId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var updateReq UpdateSetRequest
	if err := json.NewDecoder(r.Body).Decode(&updateReq); err != nil {
		log.Tracef("update set log, unmarshal json params: %s", err)
		http.Error(w, "update set failed", http.StatusBadRequest)
		return
	}

	set, err := handler.repo.GetSet(ctx, ownerID, id, setID)
	if err != nil {
		if !errors.Is(err, ErrSetLogNotFound) {
			log.Errorf("failed to get set log %d: %s", setID, err)
		}
		http.Error(w, "set log not found", http.StatusNotFound)
		return
	}

	if updateReq.ActualReps != nil {
		set.ActualReps = updateReq.ActualReps
	}
	if updateReq.Weight != nil {
		set.Weight = updateReq.Weight
	}
	if updateReq.DurationMinutes != nil {
		set.DurationMinutes = updateReq.DurationMinutes
	}
	if updateReq.Completed != nil {
		set.Completed = *updateReq.Completed
	}

	if err := handler.repo.UpdateSet(ctx, ownerID, set); err != nil {
		log.Errorf("failed to update set log %d: %s", setID, err)
		http.Error(w, "update set failed", http.StatusInternalServerError)
		return
	}

	setJson, err := json.Marshal(set)
	if err != nil {
		log.Errorf("failed to marshal set log: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, setJson)
}

func (handler *Handler) HandleCalendar(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.logs.calendar")
	defer span.End()

	ownerID, ok := middleware.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	year, month, err := monthFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	days, err := handler.repo.Calendar(ctx, ownerID, year, month)
	if err != nil {
		log.Errorf("workout logs calendar error: %s", err)
		http.Error(w, "failed to get calendar", http.StatusInternalServerError)
		return
	}

	calendarJson, err := json.Marshal(CalendarResponse{
		Month: int(month),
		Year:  year,
		Days:  days,
	})
	if err != nil {
		log.Errorf("marshal calendar error: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, calendarJson)
}

func (handler *Handler) HandleExerciseProgress(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.logs.exerciseProgress")
	defer span.End()

	ownerID, ok := middleware.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	exerciseID, err := logIDFromRequest(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	progress, err := handler.analyzer.ExerciseProgress(ctx, ownerID, exerciseID)
	if err != nil {
		if errors.Is(err, exercises.ErrExerciseNotFound) {
			http.Error(w, "exercise not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to get progress of exercise %d: %s", exerciseID, err)
		http.Error(w, "failed to get exercise progress", http.StatusInternalServerError)
		return
	}

	progressJson, err := json.Marshal(progress)
	if err != nil {
		log.Errorf("failed to marshal exercise progress: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, progressJson)
}

func logIDFromRequest(r *http.Request, name string) (int, error) {
	idStr := mux.Vars(r)[name]
	if idStr == "" {
		return 0, errors.New("error, id empty")
	}
	id, err := strconv.Atoi(idStr)
	if err != nil {
		return 0, errors.New("error, id NaN")
	}
	return id, nil
}

// monthFromRequest reads the optional month/year query params,
// defaulting to the current UTC month.
func monthFromRequest(r *http.Request) (year int, month time.Month, err error) {
	now := time.Now().UTC()
	year, month = now.Year(), now.Month()

	if monthParam := r.URL.Query().Get("month"); monthParam != "" {
		m, err := strconv.Atoi(monthParam)
		if err != nil || m < 1 || m > 12 {
			return 0, 0, errors.New("error, invalid month param")
		}
		month = time.Month(m)
	}
	if yearParam := r.URL.Query().Get("year"); yearParam != "" {
		y, err := strconv.Atoi(yearParam)
		if err != nil || y < 1 {
			return 0, 0, errors.New("error, invalid year param")
		}
		year = y
	}
	return year, month, nil
}

// timeRangeFromRequest reads the optional from/to query params. Dates
// come either as 2006-01-02 or as RFC3339 timestamps, a date-only "to"
// covers the whole day.
func timeRangeFromRequest(r *http.Request) (from, to time.Time, err error) {
	to = time.Now().AddDate(1, 0, 0)

	if fromParam := r.URL.Query().Get("from"); fromParam != "" {
		from, _, err = parseTimeParam(fromParam)
		if err != nil {
			return from, to, errors.New("error, invalid from param")
		}
	}
	if toParam := r.URL.Query().Get("to"); toParam != "" {
		var dateOnly bool
		to, dateOnly, err = parseTimeParam(toParam)
		if err != nil {
			return from, to, errors.New("error, invalid to param")
		}
		if dateOnly {
			to = to.Add(24*time.Hour - time.Nanosecond)
		}
	}
	return from, to, nil
}

func parseTimeParam(value string) (parsed time.Time, dateOnly bool, err error) {
	if parsed, err = time.Parse("2006-01-02", value); err == nil {
		return parsed, true, nil
	}
	parsed, err = time.Parse(time.RFC3339, value)
	return parsed, false, err
}
