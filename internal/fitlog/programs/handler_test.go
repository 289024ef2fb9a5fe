package programs

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/2beens/fitlog/internal/fitlog/workouts"
	"github.com/2beens/fitlog/internal/middleware"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authedRequest(t *testing.T, userID int, method, target string, body []byte) *http.Request {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	return req.WithContext(middleware.ContextWithUserID(req.Context(), userID))
}

func newTestRouter(repo *repoMock, logs *rotationLogsMock) *mux.Router {
	workoutsByID := map[int]*workouts.Workout{
		10: {ID: 10, OwnerID: 1, Name: "Push"},
		20: {ID: 20, OwnerID: 1, Name: "Pull"},
		30: {ID: 30, OwnerID: 1, Name: "Legs"},
	}
	rotator := NewRotator(repo, &workoutsGetterMock{workouts: workoutsByID}, logs)
	handler := NewHandler(repo, rotator)
	router := mux.NewRouter()
	handler.SetupRoutes(router)
	return router
}

func TestHandler_Add_Get(t *testing.T) {
	repo := newRepoMock()
	router := newTestRouter(repo, &rotationLogsMock{})

	addBody, err := json.Marshal(AddProgramRequest{
		Name:       "Push Pull Legs",
		WorkoutIDs: []int{10, 20, 30},
	})
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, 1, "POST", "/programs", addBody))
	require.Equal(t, http.StatusCreated, rr.Code)

	var added Program
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &added))
	assert.Equal(t, "Push Pull Legs", added.Name)
	assert.Equal(t, []int{10, 20, 30}, added.WorkoutIDs)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, 1, "GET", "/programs/1", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, 2, "GET", "/programs/1", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandler_Add_invalid(t *testing.T) {
	router := newTestRouter(newRepoMock(), &rotationLogsMock{})

	addBody, err := json.Marshal(AddProgramRequest{Name: ""})
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, 1, "POST", "/programs", addBody))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandler_ReplaceOrder(t *testing.T) {
	repo := newRepoMock()
	router := newTestRouter(repo, &rotationLogsMock{})

	_, err := repo.Add(context.Background(), Program{
		OwnerID:    1,
		Name:       "PPL",
		WorkoutIDs: []int{10, 20, 30},
	})
	require.NoError(t, err)

	orderBody, err := json.Marshal(ReplaceOrderRequest{WorkoutIDs: []int{30, 10}})
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, 1, "PUT", "/programs/1/order", orderBody))
	require.Equal(t, http.StatusOK, rr.Code)

	var updated Program
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &updated))
	assert.Equal(t, []int{30, 10}, updated.WorkoutIDs)
}

func TestHandler_Next(t *testing.T) {
	repo := newRepoMock()
	router := newTestRouter(repo, &rotationLogsMock{completedWorkoutID: 10})

	_, err := repo.Add(context.Background(), Program{
		OwnerID:    1,
		Name:       "PPL",
		WorkoutIDs: []int{10, 20, 30},
	})
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, 1, "GET", "/programs/1/next", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var next NextWorkoutResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &next))
	require.NotNil(t, next.NextWorkout)
	assert.Equal(t, 20, next.NextWorkout.ID)
	assert.Equal(t, "Pull", next.NextWorkout.Name)
	require.Len(t, next.Upcoming, 3)
}

func TestHandler_Next_emptyProgram(t *testing.T) {
	repo := newRepoMock()
	router := newTestRouter(repo, &rotationLogsMock{})

	_, err := repo.Add(context.Background(), Program{OwnerID: 1, Name: "Empty"})
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, 1, "GET", "/programs/1/next", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandler_Delete(t *testing.T) {
	repo := newRepoMock()
	router := newTestRouter(repo, &rotationLogsMock{})

	_, err := repo.Add(context.Background(), Program{OwnerID: 1, Name: "PPL"})
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, 1, "DELETE", "/programs/1", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var deleteResp DeleteProgramResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &deleteResp))
	assert.Equal(t, 1, deleteResp.DeletedID)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, 1, "DELETE", "/programs/1", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
