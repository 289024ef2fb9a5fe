package logs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/2beens/fitlog/internal/fitlog/exercises"
	"github.com/2beens/fitlog/internal/telemetry/tracing"

	"github.com/coocood/freecache"
	"go.opentelemetry.io/otel/attribute"
)

const (
	progressCacheSize       = 10 * 1024 * 1024
	progressCacheTTLSeconds = 30
	recentEntriesLimit      = 3
)

type progressSetsSource interface {
	ExerciseSets(ctx context.Context, ownerID, exerciseID int) ([]ExerciseSetRow, error)
}

type exerciseGetter interface {
	Get(ctx context.Context, ownerID, id int) (*exercises.Exercise, error)
}

// ProgressSession is one training session of an exercise, with all its
// sets, completed or not.
type ProgressSession struct {
	LogID       int      `json:"log_id"`
	Date        string   `json:"date"`
	WorkoutName string   `json:"workout_name,omitempty"`
	Sets        []SetLog `json:"sets"`
}

type ExerciseProgress struct {
	Exercise *exercises.Exercise `json:"exercise"`
	// sessions, newest first
	History []ProgressSession `json:"history"`
	// completed sets over all sessions
	TotalSets int `json:"total_sets,omitempty"`
	// best weight of a completed set, strength exercises only
	PR *float64 `json:"pr,omitempty"`
	// distinct weights of completed sets, newest first
	RecentWeights []float64 `json:"recent_weights,omitempty"`
	// distinct durations of completed sets, cardio exercises only
	RecentDurations []int `json:"recent_durations,omitempty"`
}

// Analyzer aggregates the training history of an exercise. Results are
// cached for a short while, a finished set does not need to show up in
// the numbers immediately.
type Analyzer struct {
	exercises exerciseGetter
	sets      progressSetsSource
	cache     *freecache.Cache
}

func NewAnalyzer(exercises exerciseGetter, sets progressSetsSource) *Analyzer {
	return &Analyzer{
		exercises: exercises,
		sets:      sets,
		cache:     freecache.NewCache(progressCacheSize),
	}
}

func (a *Analyzer) ExerciseProgress(ctx context.Context, ownerID, exerciseID int) (_ *ExerciseProgress, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "logs.analyzer.exerciseProgress")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("exercise.id", exerciseID))

	cacheKey := []byte(fmt.Sprintf("progress::%d::%d", ownerID, exerciseID))
	if cached, cacheErr := a.cache.Get(cacheKey); cacheErr == nil {
		var progress ExerciseProgress
		if err := json.Unmarshal(cached, &progress); err == nil {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return &progress, nil
		}
	}

	exercise, err := a.exercises.Get(ctx, ownerID, exerciseID)
	if err != nil {
		return nil, err
	}

	setRows, err := a.sets.ExerciseSets(ctx, ownerID, exerciseID)
	if err != nil {
		return nil, fmt.Errorf("get exercise sets: %w", err)
	}

	progress := &ExerciseProgress{
		Exercise: exercise,
		History:  groupSessions(setRows),
	}

	completed := completedSets(setRows)
	progress.TotalSets = len(completed)
	if exercise.Type == exercises.TypeCardio {
		progress.RecentDurations = recentDurations(completed)
	} else {
		progress.PR = personalRecord(completed)
		progress.RecentWeights = recentWeights(completed)
	}

	if progressJson, err := json.Marshal(progress); err == nil {
		// best effort, a full cache just means recomputing
		_ = a.cache.Set(cacheKey, progressJson, progressCacheTTLSeconds)
	}

	return progress, nil
}

// groupSessions groups the rows by session, preserving the
// newest-session-first order of the rows.
func groupSessions(setRows []ExerciseSetRow) []ProgressSession {
	sessions := make([]ProgressSession, 0)
	for _, row := range setRows {
		if len(sessions) == 0 || sessions[len(sessions)-1].LogID != row.LogID {
			sessions = append(sessions, ProgressSession{
				LogID:       row.LogID,
				Date:        row.StartedAt.Format("2006-01-02"),
				WorkoutName: row.SessionName,
			})
		}
		last := &sessions[len(sessions)-1]
		last.Sets = append(last.Sets, row.Set)
	}
	return sessions
}

func completedSets(setRows []ExerciseSetRow) []SetLog {
	sets := make([]SetLog, 0, len(setRows))
	for _, row := range setRows {
		if row.Set.Completed {
			sets = append(sets, row.Set)
		}
	}
	return sets
}

func personalRecord(sets []SetLog) *float64 {
	var pr *float64
	for _, set := range sets {
		if set.Weight == nil {
			continue
		}
		if pr == nil || *set.Weight > *pr {
			weight := *set.Weight
			pr = &weight
		}
	}
	return pr
}

// recentWeights picks the last distinct weights, newest first.
func recentWeights(sets []SetLog) []float64 {
	weights := make([]float64, 0, recentEntriesLimit)
	seen := make(map[float64]bool)
	for _, set := range sets {
		if len(weights) == recentEntriesLimit {
			break
		}
		if set.Weight == nil || seen[*set.Weight] {
			continue
		}
		seen[*set.Weight] = true
		weights = append(weights, *set.Weight)
	}
	return weights
}

func recentDurations(sets []SetLog) []int {
	durations := make([]int, 0, recentEntriesLimit)
	seen := make(map[int]bool)
	for _, set := range sets {
		if len(durations) == recentEntriesLimit {
			break
		}
		if set.DurationMinutes == nil || seen[*set.DurationMinutes] {
			continue
		}
		seen[*set.DurationMinutes] = true
		durations = append(durations, *set.DurationMinutes)
	}
	return durations
}
