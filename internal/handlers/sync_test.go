package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/communitykit/activitysync/internal/models"
	"github.com/communitykit/activitysync/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	summary *services.BatchSummary
	err     error
}

func (f *fakeRunner) RunBatch(context.Context) (*services.BatchSummary, error) {
	return f.summary, f.err
}

type fakeCounter struct {
	counts map[models.Provider]int64
	err    error
}

func (f *fakeCounter) CountConnectionsByProvider(context.Context) (map[models.Provider]int64, error) {
	return f.counts, f.err
}

func newSyncRouter(runner BatchRunner, counter ConnectionCounter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewSyncHandler(runner, counter)
	r := gin.New()
	r.POST("/api/sync/activities", h.TriggerSync)
	r.GET("/api/sync/activities", h.Status)
	return r
}

func serveSync(r *gin.Engine, method string) (*httptest.ResponseRecorder, map[string]any) {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, "/api/sync/activities", nil))
	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestTriggerSync_Summary(t *testing.T) {
	summary := &services.BatchSummary{
		Total:              3,
		Successful:         2,
		Failed:             1,
		ActivitiesFound:    7,
		ActivitiesInserted: 5,
		ActivitiesSkipped:  2,
		TokensRefreshed:    1,
	}
	r := newSyncRouter(&fakeRunner{summary: summary}, &fakeCounter{})

	w, body := serveSync(r, http.MethodPost)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.True(t, strings.HasSuffix(body["duration"].(string), "ms"))
	assert.Equal(t, map[string]any{
		"total":              float64(3),
		"successful":         float64(2),
		"failed":             float64(1),
		"activitiesFound":    float64(7),
		"activitiesInserted": float64(5),
		"activitiesSkipped":  float64(2),
		"tokensRefreshed":    float64(1),
	}, body["summary"])
}

func TestTriggerSync_NoConnections(t *testing.T) {
	r := newSyncRouter(&fakeRunner{summary: &services.BatchSummary{}}, &fakeCounter{})

	w, body := serveSync(r, http.MethodPost)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "No connections to sync", body["message"])
	assert.NotContains(t, body, "summary")
}

func TestTriggerSync_Failures(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"batch already running", services.ErrBatchInProgress, http.StatusConflict},
		{"list failure", services.ErrListConnections, http.StatusInternalServerError},
		{"other failure", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newSyncRouter(&fakeRunner{err: tt.err}, &fakeCounter{})

			w, body := serveSync(r, http.MethodPost)

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, false, body["success"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestSyncStatus(t *testing.T) {
	counter := &fakeCounter{counts: map[models.Provider]int64{
		models.ProviderGitHub:  4,
		models.ProviderTwitter: 2,
		models.ProviderDiscord: 9,
	}}
	r := newSyncRouter(&fakeRunner{}, counter)

	w, body := serveSync(r, http.MethodGet)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(6), body["total"])
	assert.Equal(t, map[string]any{
		"github":   float64(4),
		"twitter":  float64(2),
		"linkedin": float64(0),
	}, body["connections"])
}

func TestSyncStatus_StoreError(t *testing.T) {
	r := newSyncRouter(&fakeRunner{}, &fakeCounter{err: errors.New("db down")})

	w, body := serveSync(r, http.MethodGet)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, false, body["success"])
}
