package programs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/2beens/fitlog/internal/middleware"
	"github.com/2beens/fitlog/internal/telemetry/tracing"
	"github.com/2beens/fitlog/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type programsRepo interface {
	Add(ctx context.Context, program Program) (*Program, error)
	Get(ctx context.Context, ownerID, id int) (*Program, error)
	List(ctx context.Context, ownerID int) ([]Program, error)
	Update(ctx context.Context, program *Program) error
	Delete(ctx context.Context, ownerID, id int) error
	ReplaceOrder(ctx context.Context, ownerID, programID int, workoutIDs []int) ([]int, error)
}

type nextResolver interface {
	Next(ctx context.Context, ownerID, programID int) (*NextWorkoutResponse, error)
}

type AddProgramRequest struct {
	Name       string `json:"name"`
	WorkoutIDs []int  `json:"workout_ids"`
}

type UpdateProgramRequest struct {
	Name *string `json:"name"`
}

type ReplaceOrderRequest struct {
	WorkoutIDs []int `json:"workout_ids"`
}

type DeleteProgramResponse struct {
	DeletedID int `json:"deleted_id"`
}

type Handler struct {
	repo    programsRepo
	rotator nextResolver
}

func NewHandler(repo programsRepo, rotator nextResolver) *Handler {
	return &Handler{
		repo:    repo,
		rotator: rotator,
	}
}

func (handler *Handler) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/programs", handler.HandleList).Methods("GET", "OPTIONS").Name("list-programs")
	r.HandleFunc("/programs", handler.HandleAdd).Methods("POST", "OPTIONS").Name("new-program")
	r.HandleFunc("/programs/{id}", handler.HandleGet).Methods("GET", "OPTIONS").Name("get-program")
	r.HandleFunc("/programs/{id}", handler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-program")
	r.HandleFunc("/programs/{id}", handler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-program")
	r.HandleFunc("/programs/{id}/order", handler.HandleReplaceOrder).Methods("PUT", "OPTIONS").Name("replace-program-order")
	r.HandleFunc("/programs/{id}/next", handler.HandleNext).Methods("GET", "OPTIONS").Name("next-workout")
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.programs.list")
	defer span.End()

	ownerID, ok := middleware.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	programsList, err := handler.repo.List(ctx, ownerID)
	if err != nil {
		log.Errorf("list programs error: %s", err)
		http.Error(w, "failed to get programs", http.StatusInternalServerError)
		return
	}

	programsJson, err := json.Marshal(programsList)
	if err != nil {
		log.Errorf("marshal programs error: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, programsJson)
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.programs.new")
	defer span.End()

	ownerID, ok := middleware.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	var addReq AddProgramRequest
	if err := json.NewDecoder(r.Body).Decode(&addReq); err != nil {
		log.Tracef("new program, unmarshal json params: %s", err)
		http.Error(w, "add program failed", http.StatusBadRequest)
		return
	}

	if addReq.Name == "" {
		http.Error(w, "error, program name empty", http.StatusBadRequest)
		return
	}

	addedProgram, err := handler.repo.Add(ctx, Program{
		OwnerID:    ownerID,
		Name:       addReq.Name,
		CreatedAt:  time.Now(),
		WorkoutIDs: addReq.WorkoutIDs,
	})
	if err != nil {
		log.Errorf("failed to add new program [%s]: %s", addReq.Name, err)
		http.Error(w, "error, failed to add new program", http.StatusInternalServerError)
		return
	}

	addedJson, err := json.Marshal(addedProgram)
	if err != nil {
		log.Errorf("failed to marshal new program: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	log.Debugf("new program added: %s", addedJson)
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, addedJson, http.StatusCreated)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.programs.get")
	defer span.End()

	ownerID, ok := middleware.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	id, err := programIDFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	program, err := handler.repo.Get(ctx, ownerID, id)
	if err != nil {
		if !errors.Is(err, ErrProgramNotFound) {
			log.Errorf("failed to get program %d: %s", id, err)
		}
		http.Error(w, "program not found", http.StatusNotFound)
		return
	}

	programJson, err := json.Marshal(program)
	if err != nil {
		log.Errorf("failed to marshal program: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, programJson)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.programs.update")
	defer span.End()

	ownerID, ok := middleware.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	id, err := programIDFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var updateReq UpdateProgramRequest
	if err := json.NewDecoder(r.Body).Decode(&updateReq); err != nil {
		log.Tracef("update program, unmarshal json params: %s", err)
		http.Error(w, "update program failed", http.StatusBadRequest)
		return
	}

	program, err := handler.repo.Get(ctx, ownerID, id)
	if err != nil {
		if !errors.Is(err, ErrProgramNotFound) {
			log.Errorf("failed to get program %d: %s", id, err)
		}
		http.Error(w, "program not found", http.StatusNotFound)
		return
	}

	if updateReq.Name != nil {
		if *updateReq.Name == "" {
			http.Error(w, "error, program name empty", http.StatusBadRequest)
			return
		}
		program.Name = *updateReq.Name
	}

	if err := handler.repo.Update(ctx, program); err != nil {
		log.Errorf("failed to update program %d: %s", id, err)
		http.Error(w, "error, failed to update program", http.StatusInternalServerError)
		return
	}

	programJson, err := json.Marshal(program)
	if err != nil {
		log.Errorf("failed to marshal program: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, programJson)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.programs.delete")
	defer span.End()

	ownerID, ok := middleware.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	id, err := programIDFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := handler.repo.Delete(ctx, ownerID, id); err != nil {
		if !errors.Is(err, ErrProgramNotFound) {
			log.Errorf("failed to delete program %d: %s", id, err)
		}
		http.Error(w, "program not found", http.StatusNotFound)
		return
	}

	deleteRespJson, err := json.Marshal(DeleteProgramResponse{DeletedID: id})
	if err != nil {
		log.Errorf("failed to marshal delete response: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteJSONResponseOK(w, string(deleteRespJson))
}

func (handler *Handler) HandleReplaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.programs.replaceOrder")
	defer span.End()

	ownerID, ok := middleware.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	id, err := programIDFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var replaceReq ReplaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&replaceReq); err != nil {
		log.Tracef("replace program order, unmarshal json params: %s", err)
		http.Error(w, "replace order failed", http.StatusBadRequest)
		return
	}

	if _, err := handler.repo.ReplaceOrder(ctx, ownerID, id, replaceReq.WorkoutIDs); err != nil {
		if errors.Is(err, ErrProgramNotFound) {
			http.Error(w, "program not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to replace order of program %d: %s", id, err)
		http.Error(w, "replace order failed", http.StatusInternalServerError)
		return
	}

	program, err := handler.repo.Get(ctx, ownerID, id)
	if err != nil {
		log.Errorf("failed to get program %d: %s", id, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	programJson, err := json.Marshal(program)
	if err != nil {
		log.Errorf("failed to marshal program: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, programJson)
}

func (handler *Handler) HandleNext(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.programs.next")
	defer span.End()

	ownerID, ok := middleware.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	id, err := programIDFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	next, err := handler.rotator.Next(ctx, ownerID, id)
	if err != nil {
		switch {
		case errors.Is(err, ErrProgramNotFound):
			http.Error(w, "program not found", http.StatusNotFound)
		case errors.Is(err, ErrNoWorkoutsInProgram):
			http.Error(w, "error, program has no workouts", http.StatusBadRequest)
		default:
			log.Errorf("failed to get next workout of program %d: %s", id, err)
			http.Error(w, "failed to get next workout", http.StatusInternalServerError)
		}
		return
	}

	nextJson, err := json.Marshal(next)
	if err != nil {
		log.Errorf("failed to marshal next workout: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, nextJson)
}

func programIDFromRequest(r *http.Request) (int, error) {
	idStr := mux.Vars(r)["id"]
	if idStr == "" {
		return 0, errors.New("error, id empty")
	}
	id, err := strconv.Atoi(idStr)
	if err != nil {
		return 0, errors.New("error, id NaN")
	}
	return id, nil
}
