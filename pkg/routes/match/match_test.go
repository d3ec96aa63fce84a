package match

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sttalk999/sttalk/internal/repositories/memory"
	"github.com/sttalk999/sttalk/pkg/categories"
	"github.com/sttalk999/sttalk/pkg/lifecycle"
	"github.com/sttalk999/sttalk/pkg/matching"
	"github.com/sttalk999/sttalk/pkg/middleware"
	"github.com/sttalk999/sttalk/pkg/models"
)

func ptr(s string) *string { return &s }

func newServer(t *testing.T) (*echo.Echo, *memory.Store) {
	t.Helper()
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})

	store := memory.NewStore()
	store.AddEntity(models.Entity{ID: "e1", CompanyName: "Acme Pay", Industry: ptr("FinTech"), Stage: ptr("Seed")})
	store.AddInvestors(
		models.Investor{ID: "i1", FirmName: "London Seed", InvestmentFocus: "FinTech, Payments", Stages: "Seed, Series A", HQLocation: "London, UK"},
		models.Investor{ID: "i2", FirmName: "Mumbai Ventures", InvestmentFocus: "Fintech", Stages: "Seed", HQLocation: "Mumbai, India"},
		models.Investor{ID: "i3", FirmName: "Games Fund", InvestmentFocus: "Gaming", Stages: "Series B", HQLocation: "Stockholm"},
	)

	mapper, err := categories.Default()
	require.NoError(t, err)
	ranker := matching.NewRanker(store, store, store, matching.NewScorer(mapper), matching.RankerConfig{}, logger)
	manager := lifecycle.NewManager(store, ranker, lifecycle.Config{}, logger)

	e := echo.New()
	e.HTTPErrorHandler = middleware.Error(logger)
	e.Use(middleware.Context())
	NewHandler(ranker, manager, logger).Register(e.Group("/api/v1"))
	return e, store
}

func do(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestListCandidates(t *testing.T) {
	e, _ := newServer(t)

	rec := do(e, http.MethodGet, "/api/v1/entities/e1/candidates", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[CandidatesResponse](t, rec)
	require.Len(t, resp.Candidates, 2)
	assert.Equal(t, "i2", resp.Candidates[0].InvestorID)
	assert.Equal(t, 90, resp.Candidates[0].Score)
	assert.Equal(t, "i1", resp.Candidates[1].InvestorID)
	assert.Equal(t, 85, resp.Candidates[1].Score)

	rec = do(e, http.MethodGet, "/api/v1/entities/missing/candidates", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListCandidates_RepositoryFailureAsksToRetry(t *testing.T) {
	e, store := newServer(t)
	store.FailWith("ListAllInvestors", errors.New("connection refused"))

	rec := do(e, http.MethodGet, "/api/v1/entities/e1/candidates", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code, rec.Body.String())

	body := decode[middleware.ErrorResponse](t, rec)
	assert.Equal(t, "could not load matches, retry", body.Message)
	assert.Equal(t, "repository_unavailable", body.Meta["kind"])
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestRequestMatch(t *testing.T) {
	e, _ := newServer(t)

	rec := do(e, http.MethodPost, "/api/v1/entities/e1/matches", `{"investor_id":"i1","notes":"intro via demo day"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	first := decode[RequestMatchResponse](t, rec)
	assert.True(t, first.Created)
	assert.Equal(t, models.MatchStatusPending, first.Match.Status)
	assert.Equal(t, models.InitiatorEntity, first.Match.InitiatedBy)

	rec = do(e, http.MethodPost, "/api/v1/entities/e1/matches", `{"investor_id":"i1","initiator":"investor"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	second := decode[RequestMatchResponse](t, rec)
	assert.False(t, second.Created)
	assert.Equal(t, first.Match.ID, second.Match.ID)

	rec = do(e, http.MethodPost, "/api/v1/entities/e1/matches", `{"investor_id":"i2","initiator":"bank"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodPost, "/api/v1/entities/e1/matches", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodGet, "/api/v1/entities/e1/candidates", "")
	candidates := decode[CandidatesResponse](t, rec)
	for _, c := range candidates.Candidates {
		assert.NotEqual(t, "i1", c.InvestorID, "matched investors are never candidates")
	}
}

func TestAutoMatchAndLifecycle(t *testing.T) {
	e, _ := newServer(t)

	rec := do(e, http.MethodPost, "/api/v1/entities/e1/auto-match", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	summary := decode[models.AutoMatchSummary](t, rec)
	assert.Equal(t, 2, summary.Created)
	require.Len(t, summary.MatchIDs, 2)

	rec = do(e, http.MethodPost, "/api/v1/entities/e1/auto-match", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decode[models.AutoMatchSummary](t, rec).Created)

	id := summary.MatchIDs[0]
	rec = do(e, http.MethodPost, "/api/v1/matches/"+id+"/reveal", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "cannot skip the teaser step")

	for _, action := range []string{"teaser", "reveal", "connect"} {
		rec = do(e, http.MethodPost, "/api/v1/matches/"+id+"/"+action, "")
		require.Equal(t, http.StatusOK, rec.Code, action+": "+rec.Body.String())
	}
	assert.Equal(t, models.MatchStatusConnected, decode[models.Match](t, rec).Status)

	rec = do(e, http.MethodPost, "/api/v1/matches/"+id+"/decline", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "connected is terminal")

	rec = do(e, http.MethodPost, "/api/v1/matches/"+summary.MatchIDs[1]+"/decline", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(e, http.MethodGet, "/api/v1/entities/e1/matches?status=active", "")
	require.Equal(t, http.StatusOK, rec.Code)
	active := decode[[]models.Match](t, rec)
	require.Len(t, active, 1)
	assert.Equal(t, id, active[0].ID)

	rec = do(e, http.MethodGet, "/api/v1/entities/e1/matches?status=Declined,Pending", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Match](t, rec), 1)

	rec = do(e, http.MethodGet, "/api/v1/entities/e1/matches?status=Archived", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodGet, "/api/v1/matches/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[models.MatchStats](t, rec)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.ByStatus[models.MatchStatusConnected])
	assert.Equal(t, 0, stats.ByStatus[models.MatchStatusPending])

	rec = do(e, http.MethodGet, "/api/v1/matches/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(e, http.MethodGet, "/api/v1/matches/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
