package workouts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/2beens/fitlog/internal/fitlog/exercises"
	"github.com/2beens/fitlog/internal/middleware"
	"github.com/2beens/fitlog/internal/telemetry/tracing"
	"github.com/2beens/fitlog/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type workoutsRepo interface {
	Add(ctx context.Context, workout Workout) (*Workout, error)
	Get(ctx context.Context, ownerID, id int) (*Workout, error)
	List(ctx context.Context, ownerID int) ([]Workout, error)
	Update(ctx context.Context, workout *Workout) error
	Delete(ctx context.Context, ownerID, id int) error
	ReplaceExercises(ctx context.Context, ownerID, workoutID int, items []WorkoutExercise) ([]WorkoutExercise, error)
	AddExercise(ctx context.Context, ownerID int, item WorkoutExercise) (*WorkoutExercise, error)
	GetExercise(ctx context.Context, ownerID, workoutID, weID int) (*WorkoutExercise, error)
	UpdateExercise(ctx context.Context, ownerID int, item *WorkoutExercise) error
	RemoveExercise(ctx context.Context, ownerID, workoutID, weID int) error
}

type WorkoutExerciseRequest struct {
	ExerciseID             int            `json:"exercise_id"`
	DefaultSets            int            `json:"default_sets"`
	DefaultReps            *int           `json:"default_reps"`
	DefaultWeight          *float64       `json:"default_weight"`
	DefaultDurationMinutes *int           `json:"default_duration_minutes"`
	Unit                   exercises.Unit `json:"unit"`
}

type AddWorkoutRequest struct {
	Name      string                   `json:"name"`
	Exercises []WorkoutExerciseRequest `json:"exercises"`
}

type UpdateWorkoutRequest struct {
	Name *string `json:"name"`
}

type ReplaceExercisesRequest struct {
	Exercises []WorkoutExerciseRequest `json:"exercises"`
}

type UpdateWorkoutExerciseRequest struct {
	DefaultSets            *int            `json:"default_sets"`
	DefaultReps            *int            `json:"default_reps"`
	DefaultWeight          *float64        `json:"default_weight"`
	DefaultDurationMinutes *int            `json:"default_duration_minutes"`
	Unit                   *exercises.Unit `json:"unit"`
}

type DeleteWorkoutResponse struct {
	DeletedID int `json:"deleted_id"`
}

type Handler struct {
	repo workoutsRepo
}

func NewHandler(repo workoutsRepo) *Handler {
	return &Handler{
		repo: repo,
	}
}

func (handler *Handler) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/workouts", handler.HandleList).Methods("GET", "OPTIONS").Name("list-workouts")
	r.HandleFunc("/workouts", handler.HandleAdd).Methods("POST", "OPTIONS").Name("new-workout")
	r.HandleFunc("/workouts/{id}", handler.HandleGet).Methods("GET", "OPTIONS").Name("get-workout")
	r.HandleFunc("/workouts/{id}", handler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-workout")
	r.HandleFunc("/workouts/{id}", handler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-workout")
	r.HandleFunc("/workouts/{id}/exercises", handler.HandleReplaceExercises).Methods("PUT", "OPTIONS").Name("replace-workout-exercises")
	r.HandleFunc("/workouts/{id}/exercises", handler.HandleAddExercise).Methods("POST", "OPTIONS").Name("add-workout-exercise")
	r.HandleFunc("/workouts/{id}/exercises/{weId}", handler.HandleUpdateExercise).Methods("PUT", "OPTIONS").Name("update-workout-exercise")
	r.HandleFunc("/workouts/{id}/exercises/{weId}", handler.HandleRemoveExercise).Methods("DELETE", "OPTIONS").Name("remove-workout-exercise")
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.list")
	defer span.End()

	ownerID, ok := middleware.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	workoutsList, err := handler.repo.List(ctx, ownerID)
	if err != nil {
		log.Errorf("list workouts error: %s", err)
		http.Error(w, "failed to get workouts", http.StatusInternalServerError)
		return
	}

	workoutsJson, err := json.Marshal(workoutsList)
	if err != nil {
		log.Errorf("marshal workouts error: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, workoutsJson)
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.new")
	defer span.End()

	ownerID, ok := middleware.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	var addReq AddWorkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&addReq); err != nil {
		log.Tracef("new workout, unmarshal json params: %s", err)
		http.Error(w, "add workout failed", http.StatusBadRequest)
		return
	}

	if addReq.Name == "" {
		http.Error(w, "error, workout name empty", http.StatusBadRequest)
		return
	}

	addedWorkout, err := handler.repo.Add(ctx, Workout{
		OwnerID:   ownerID,
		Name:      addReq.Name,
		CreatedAt: time.Now(),
	})
	if err != nil {
		log.Errorf("failed to add new workout [%s]: %s", addReq.Name, err)
		http.Error(w, "error, failed to add new workout", http.StatusInternalServerError)
		return
	}

	if len(addReq.Exercises) > 0 {
		items := workoutExercisesFromRequest(addReq.Exercises)
		if _, err := handler.repo.ReplaceExercises(ctx, ownerID, addedWorkout.ID, items); err != nil {
			if pkg.IsForeignKeyViolationError(err) {
				http.Error(w, "error, unknown exercise", http.StatusBadRequest)
				return
			}
			log.Errorf("failed to attach exercises to workout %d: %s", addedWorkout.ID, err)
			http.Error(w, "error, failed to add new workout", http.StatusInternalServerError)
			return
		}
		addedWorkout, err = handler.repo.Get(ctx, ownerID, addedWorkout.ID)
		if err != nil {
			log.Errorf("failed to get created workout: %s", err)
			http.Error(w, "error, failed to add new workout", http.StatusInternalServerError)
			return
		}
	}

	addedJson, err := json.Marshal(addedWorkout)
	if err != nil {
		log.Errorf("failed to marshal new workout: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	log.Debugf("new workout added: %s", addedJson)
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, addedJson, http.StatusCreated)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.get")
	defer span.End()

	ownerID, ok := middleware.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	workout, err := handler.repo.Get(ctx, ownerID, id)
	if err != nil {
		if !errors.Is(err, ErrWorkoutNotFound) {
			log.Errorf("failed to get workout %d: %s", id, err)
		}
		http.Error(w, "workout not found", http.StatusNotFound)
		return
	}

	workoutJson, err := json.Marshal(workout)
	if err != nil {
		log.Errorf("failed to marshal workout: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, workoutJson)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.update")
	defer span.End()

	ownerID, ok := middleware.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var updateReq UpdateWorkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&updateReq); err != nil {
		log.Tracef("update workout, unmarshal json params: %s", err)
		http.Error(w, "update workout failed", http.StatusBadRequest)
		return
	}

	workout, err := handler.repo.Get(ctx, ownerID, id)
	if err != nil {
		if !errors.Is(err, ErrWorkoutNotFound) {
			log.Errorf("failed to get workout %d: %s", id, err)
		}
		http.Error(w, "workout not found", http.StatusNotFound)
		return
	}

	if updateReq.Name != nil {
		if *updateReq.Name == "" {
			http.Error(w, "error, workout name empty", http.StatusBadRequest)
			return
		}
		workout.Name = *updateReq.Name
	}

	if err := handler.repo.Update(ctx, workout); err != nil {
		log.Errorf("failed to update workout %d: %s", id, err)
		http.Error(w, "error, failed to update workout", http.StatusInternalServerError)
		return
	}

	workoutJson, err := json.Marshal(workout)
	if err != nil {
		log.Errorf("failed to marshal workout: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, workoutJson)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.delete")
	defer span.End()

	ownerID, ok := middleware.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := handler.repo.Delete(ctx, ownerID, id); err != nil {
		if !errors.Is(err, ErrWorkoutNotFound) {
			log.Errorf("failed to delete workout %d: %s", id, err)
		}
		http.Error(w, "workout not found", http.StatusNotFound)
		return
	}

	deleteRespJson, err := json.Marshal(DeleteWorkoutResponse{DeletedID: id})
	if err != nil {
		log.Errorf("failed to marshal delete response: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteJSONResponseOK(w, string(deleteRespJson))
}

func (handler *Handler) HandleReplaceExercises(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.replaceExercises")
	defer span.End()

	ownerID, ok := middleware.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var replaceReq ReplaceExercisesRequest
	if err := json.NewDecoder(r.Body).Decode(&replaceReq); err != nil {
		log.Tracef("replace workout exercises, unmarshal json params: %s", err)
		http.Error(w, "replace exercises failed", http.StatusBadRequest)
		return
	}

	items := workoutExercisesFromRequest(replaceReq.Exercises)
	if _, err := handler.repo.ReplaceExercises(ctx, ownerID, id, items); err != nil {
		if errors.Is(err, ErrWorkoutNotFound) {
			http.Error(w, "workout not found", http.StatusNotFound)
			return
		}
		if pkg.IsForeignKeyViolationError(err) {
			http.Error(w, "error, unknown exercise", http.StatusBadRequest)
			return
		}
		log.Errorf("failed to replace exercises of workout %d: %s", id, err)
		http.Error(w, "replace exercises failed", http.StatusInternalServerError)
		return
	}

	workout, err := handler.repo.Get(ctx, ownerID, id)
	if err != nil {
		log.Errorf("failed to get workout %d: %s", id, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	workoutJson, err := json.Marshal(workout)
	if err != nil {
		log.Errorf("failed to marshal workout: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, workoutJson)
}

func (handler *Handler) HandleAddExercise(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.addExercise")
	defer span.End()

	ownerID, ok := middleware.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var addReq WorkoutExerciseRequest
	if err := json.NewDecoder(r.Body).Decode(&addReq); err != nil {
		log.Tracef("add workout exercise, unmarshal json params: %s", err)
		http.Error(w, "add exercise failed", http.StatusBadRequest)
		return
	}

	item := workoutExerciseFromRequest(addReq)
	item.WorkoutID = id

	addedItem, err := handler.repo.AddExercise(ctx, ownerID, item)
	if err != nil {
		if errors.Is(err, ErrWorkoutNotFound) || errors.Is(err, ErrWorkoutExerciseNotFound) {
			http.Error(w, "workout not found", http.StatusNotFound)
			return
		}
		if pkg.IsForeignKeyViolationError(err) {
			http.Error(w, "error, unknown exercise", http.StatusBadRequest)
			return
		}
		log.Errorf("failed to add exercise to workout %d: %s", id, err)
		http.Error(w, "add exercise failed", http.StatusInternalServerError)
		return
	}

	itemJson, err := json.Marshal(addedItem)
	if err != nil {
		log.Errorf("failed to marshal workout exercise: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, itemJson, http.StatusCreated)
}

func (handler *Handler) HandleUpdateExercise(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.updateExercise")
	defer span.End()

	ownerID, ok := middleware.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	weID, err := pathID(r, "weId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var updateReq UpdateWorkoutExerciseRequest
	if err := json.NewDecoder(r.Body).Decode(&updateReq); err != nil {
		log.Tracef("update workout exercise, unmarshal json params: %s", err)
		http.Error(w, "update exercise failed", http.StatusBadRequest)
		return
	}

	item, err := handler.repo.GetExercise(ctx, ownerID, id, weID)
	if err != nil {
		if !errors.Is(err, ErrWorkoutExerciseNotFound) {
			log.Errorf("failed to get workout exercise %d: %s", weID, err)
		}
		http.Error(w, "workout exercise not found", http.StatusNotFound)
		return
	}

	if updateReq.DefaultSets != nil {
		if *updateReq.DefaultSets < 1 {
			http.Error(w, "error, default sets must be positive", http.StatusBadRequest)
			return
		}
		item.DefaultSets = *updateReq.DefaultSets
	}
	if updateReq.DefaultReps != nil {
		item.DefaultReps = updateReq.DefaultReps
	}
	if updateReq.DefaultWeight != nil {
		item.DefaultWeight = updateReq.DefaultWeight
	}
	if updateReq.DefaultDurationMinutes != nil {
		item.DefaultDurationMinutes = updateReq.DefaultDurationMinutes
	}
	if updateReq.Unit != nil {
		if !updateReq.Unit.IsValid() {
			http.Error(w, "error, invalid unit", http.StatusBadRequest)
			return
		}
		item.Unit = *updateReq.Unit
	}

	if err := handler.repo.UpdateExercise(ctx, ownerID, item); err != nil {
		log.Errorf("failed to update workout exercise %d: %s", weID, err)
		http.Error(w, "update exercise failed", http.StatusInternalServerError)
		return
	}

	itemJson, err := json.Marshal(item)
	if err != nil {
		log.Errorf("failed to marshal workout exercise: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, itemJson)
}

func (handler *Handler) HandleRemoveExercise(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.removeExercise")
	defer span.End()

	ownerID, ok := middleware.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	weID, err := pathID(r, "weId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := handler.repo.RemoveExercise(ctx, ownerID, id, weID); err != nil {
		if !errors.Is(err, ErrWorkoutExerciseNotFound) {
			log.Errorf("failed to remove workout exercise %d: %s", weID, err)
		}
		http.Error(w, "workout exercise not found", http.StatusNotFound)
		return
	}

	deleteRespJson, err := json.Marshal(DeleteWorkoutResponse{DeletedID: weID})
	if err != nil {
		log.Errorf("failed to marshal delete response: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteJSONResponseOK(w, string(deleteRespJson))
}

func workoutExerciseFromRequest(req WorkoutExerciseRequest) WorkoutExercise {
	defaultSets := req.DefaultSets
	if defaultSets < 1 {
		defaultSets = 1
	}
	unit := req.Unit
	if unit == "" {
		unit = exercises.UnitReps
	}
	return WorkoutExercise{
		ExerciseID:             req.ExerciseID,
		DefaultSets:            defaultSets,
		DefaultReps:            req.DefaultReps,
		DefaultWeight:          req.DefaultWeight,
		DefaultDurationMinutes: req.DefaultDurationMinutes,
		Unit:                   unit,
	}
}

func workoutExercisesFromRequest(reqs []WorkoutExerciseRequest) []WorkoutExercise {
	items := make([]WorkoutExercise, 0, len(reqs))
	for _, req := range reqs {
		items = append(items, workoutExerciseFromRequest(req))
	}
	return items
}

func pathID(r *http.Request, name string) (int, error) {
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
