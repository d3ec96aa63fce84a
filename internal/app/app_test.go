package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sttalk999/sttalk/config"
	"github.com/sttalk999/sttalk/internal/repositories/memory"
	"github.com/sttalk999/sttalk/pkg/categories"
	"github.com/sttalk999/sttalk/pkg/lifecycle"
	"github.com/sttalk999/sttalk/pkg/matching"
	"github.com/sttalk999/sttalk/pkg/models"
)

func TestNewLogger(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	_, zapLogger, err := NewLogger(cfg)
	require.NoError(t, err)
	assert.NotNil(t, zapLogger)

	cfg.LogLevel = "loud"
	_, _, err = NewLogger(cfg)
	assert.Error(t, err)
}

func TestNewServer_RoutesAndMetrics(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})

	store := memory.NewStore()
	store.AddEntity(models.Entity{ID: "e1", CompanyName: "Acme"})
	store.AddInvestors(models.Investor{ID: "i1", FirmName: "Fund"})

	a := New(cfg, logger)
	a.Investors = store
	ranker := matching.NewRanker(store, store, store, matching.NewScorer(categories.MustDefault()), matching.RankerConfig{}, logger)
	a.Ranker = ranker
	a.Lifecycle = lifecycle.NewManager(store, ranker, lifecycle.Config{}, logger)

	e, err := a.NewServer(context.Background())
	require.NoError(t, err)

	get := func(path string) int {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, get("/metrics"))
	assert.Equal(t, http.StatusOK, get("/api/v1/health/live"))
	assert.Equal(t, http.StatusServiceUnavailable, get("/api/v1/health/ready"))
	assert.Equal(t, http.StatusOK, get("/api/v1/entities/e1/candidates"))
	assert.Equal(t, http.StatusNotFound, get("/api/v1/matches/missing"))
	assert.Equal(t, http.StatusOK, get("/api/v1/investors"))
}
