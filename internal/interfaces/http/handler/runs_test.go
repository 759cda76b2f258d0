package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app "github.com/shopdash/backend/internal/application/dashboard"
	"github.com/shopdash/backend/internal/infrastructure/scheduler"
)

type fakeHistory struct {
	runs      map[string]*app.Run
	summaries []app.RunSummary
	err       error
	limit     int
}

func (f *fakeHistory) List(_ context.Context, limit int) ([]app.RunSummary, error) {
	f.limit = limit
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.summaries) {
		return f.summaries[:limit], nil
	}
	return f.summaries, nil
}

func (f *fakeHistory) FindByID(_ context.Context, id string) (*app.Run, error) {
	if f.err != nil {
		return nil, f.err
	}
	run, ok := f.runs[id]
	if !ok {
		return nil, app.ErrRunNotFound
	}
	return run, nil
}

func newRunEngine(history app.RunHistory) *gin.Engine {
	r := gin.New()
	h := NewRunHandler(history)
	r.GET("/runs", h.List)
	r.GET("/runs/:run_id", h.Get)
	return r
}

func TestRunHandler_List(t *testing.T) {
	finished := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	history := &fakeHistory{summaries: []app.RunSummary{
		{ID: "run-2", FinishedAt: finished, Date: "2024-03-05", TotalOrders: 3},
		{ID: "run-1", FinishedAt: finished.Add(-time.Hour), Date: "2024-03-05", TotalOrders: 2, Degraded: true},
	}}
	r := newRunEngine(history)

	t.Run("default limit", func(t *testing.T) {
		w := get(r, http.MethodGet, "/runs")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, DefaultRunLimit, history.limit)

		env := decode(t, w)
		assert.Equal(t, 2, env.Meta.Count)
		var got []app.RunSummary
		require.NoError(t, json.Unmarshal(env.Data, &got))
		assert.Equal(t, "run-2", got[0].ID)
		assert.True(t, got[1].Degraded)
	})

	t.Run("explicit limit", func(t *testing.T) {
		w := get(r, http.MethodGet, "/runs?limit=1")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1, history.limit)
		assert.Equal(t, 1, decode(t, w).Meta.Count)
	})

	for _, q := range []string{"0", "101", "abc"} {
		t.Run("rejects limit "+q, func(t *testing.T) {
			w := get(r, http.MethodGet, "/runs?limit="+q)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "ERR_VALIDATION", decode(t, w).Error.Code)
		})
	}

	t.Run("store failure", func(t *testing.T) {
		w := get(newRunEngine(&fakeHistory{err: errors.New("db down")}), http.MethodGet, "/runs")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestRunHandler_Get(t *testing.T) {
	run := testRun()
	r := newRunEngine(&fakeHistory{runs: map[string]*app.Run{run.ID: run}})

	t.Run("found", func(t *testing.T) {
		w := get(r, http.MethodGet, "/runs/"+run.ID)
		require.Equal(t, http.StatusOK, w.Code)

		var detail struct {
			RunID   string `json:"run_id"`
			Mode    string `json:"mode"`
			Sources []app.SourceOutcome
			Payload struct {
				Summary struct {
					TotalOrders int `json:"total_orders"`
				} `json:"summary"`
			} `json:"payload"`
		}
		require.NoError(t, json.Unmarshal(decode(t, w).Data, &detail))
		assert.Equal(t, "run-1", detail.RunID)
		assert.Empty(t, detail.Mode)
		assert.Len(t, detail.Sources, 3)
		assert.Equal(t, 3, detail.Payload.Summary.TotalOrders)
	})

	t.Run("unknown run is not found", func(t *testing.T) {
		w := get(r, http.MethodGet, "/runs/"+uuid.NewString())
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "ERR_NOT_FOUND", decode(t, w).Error.Code)
	})
}

type fakeJobs struct {
	triggerErr error
	triggers   int
	jobs       []*scheduler.RefreshJob
	limit      int
}

func (f *fakeJobs) Trigger() error {
	f.triggers++
	return f.triggerErr
}

func (f *fakeJobs) GetJobHistory(limit int) []*scheduler.RefreshJob {
	f.limit = limit
	return f.jobs
}

func newJobEngine(jobs RefreshJobs) *gin.Engine {
	r := gin.New()
	h := NewRefreshJobHandler(jobs)
	r.GET("/system/refresh-jobs", h.List)
	r.POST("/system/refresh-jobs", h.Trigger)
	return r
}

func TestRefreshJobHandler_List(t *testing.T) {
	done := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	jobs := &fakeJobs{jobs: []*scheduler.RefreshJob{{
		ID:          uuid.New(),
		Trigger:     scheduler.TriggerScheduled,
		Status:      scheduler.RefreshJobStatusSuccess,
		StartedAt:   done.Add(-time.Second),
		CompletedAt: &done,
		Attempts:    1,
		RunID:       "run-1",
		TotalOrders: 3,
		Pruned:      2,
	}}}

	w := get(newJobEngine(jobs), http.MethodGet, "/system/refresh-jobs?limit=5")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, jobs.limit)

	env := decode(t, w)
	assert.Equal(t, 1, env.Meta.Count)
	var got []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &got))
	require.Len(t, got, 1)
	assert.Equal(t, "run-1", got[0]["run_id"])
	assert.Equal(t, float64(3), got[0]["total_orders"])
	assert.Equal(t, float64(2), got[0]["pruned"])
}

func TestRefreshJobHandler_Trigger(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{name: "queued", wantCode: http.StatusAccepted},
		{name: "already queued", err: scheduler.ErrRefreshPending, wantCode: http.StatusConflict, wantErr: "ERR_CONFLICT"},
		{name: "scheduler stopped", err: scheduler.ErrSchedulerNotRunning, wantCode: http.StatusServiceUnavailable, wantErr: "ERR_NO_DATA"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jobs := &fakeJobs{triggerErr: tt.err}
			w := get(newJobEngine(jobs), http.MethodPost, "/system/refresh-jobs")
			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, 1, jobs.triggers)
			env := decode(t, w)
			if tt.wantErr == "" {
				assert.True(t, env.Success)
				return
			}
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.wantErr, env.Error.Code)
		})
	}
}
