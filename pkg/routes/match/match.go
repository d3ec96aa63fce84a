package match

import (
	"context"
	"net/http"
	"strings"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	matcherrors "github.com/sttalk999/sttalk/pkg/errors"
	"github.com/sttalk999/sttalk/pkg/models"
	"github.com/sttalk999/sttalk/pkg/requestctx"
	"github.com/sttalk999/sttalk/pkg/utils"
)

type Ranker interface {
	Rank(ctx context.Context, entityID string) ([]models.MatchScore, error)
}

type Lifecycle interface {
	CreateMatch(ctx context.Context, req models.NewMatch) (*models.Match, error)
	AutoMatch(ctx context.Context, entityID string) (*models.AutoMatchSummary, error)
	Transition(ctx context.Context, matchID string, to models.MatchStatus) (*models.Match, error)
	GetMatch(ctx context.Context, id string) (*models.Match, error)
	GetMatchByPair(ctx context.Context, entityID, investorID string) (*models.Match, error)
	ListMatches(ctx context.Context, entityID string, statuses ...models.MatchStatus) ([]models.Match, error)
	Stats(ctx context.Context) (*models.MatchStats, error)
}

type Handler struct {
	ranker    Ranker
	lifecycle Lifecycle
	logger    ectologger.Logger
}

func NewHandler(ranker Ranker, lifecycle Lifecycle, logger ectologger.Logger) *Handler {
	return &Handler{
		ranker:    ranker,
		lifecycle: lifecycle,
		logger:    logger,
	}
}

// Register mounts the entity and match routes on the api group.
func (h *Handler) Register(g *echo.Group) {
	entities := g.Group("/entities/:entity_id")
	entities.GET("/candidates", h.ListCandidates)
	entities.POST("/matches", h.RequestMatch)
	entities.GET("/matches", h.ListMatches)
	entities.POST("/auto-match", h.AutoMatch)

	matches := g.Group("/matches")
	matches.GET("/stats", h.Stats)
	matches.GET("/:id", h.GetMatch)
	matches.POST("/:id/teaser", h.transition(models.MatchStatusTeaserRevealed))
	matches.POST("/:id/reveal", h.transition(models.MatchStatusFullReveal))
	matches.POST("/:id/connect", h.transition(models.MatchStatusConnected))
	matches.POST("/:id/decline", h.transition(models.MatchStatusDeclined))
}

type CandidatesResponse struct {
	EntityID   string              `json:"entity_id"`
	Candidates []models.MatchScore `json:"candidates"`
}

// ListCandidates ranks the investors the entity has not matched with yet.
func (h *Handler) ListCandidates(c echo.Context) error {
	ctx := c.Request().Context()
	entityID := c.Param("entity_id")

	scores, err := h.ranker.Rank(ctx, entityID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, CandidatesResponse{EntityID: entityID, Candidates: scores})
}

type RequestMatchRequest struct {
	EntityID   string  `param:"entity_id" validate:"required"`
	InvestorID string  `json:"investor_id" validate:"required"`
	Initiator  string  `json:"initiator" validate:"omitempty,oneof=entity investor"`
	Notes      *string `json:"notes" validate:"omitempty,max=2000"`
}

type RequestMatchResponse struct {
	Match   *models.Match `json:"match"`
	Created bool          `json:"created"`
}

// RequestMatch creates a Pending match. Requesting a pair that already has a
// match is not an error: the existing match is returned with created=false.
func (h *Handler) RequestMatch(c echo.Context) error {
	ctx := c.Request().Context()

	req, err := utils.BindRequest[RequestMatchRequest](c)
	if err != nil {
		return err
	}

	match, err := h.lifecycle.CreateMatch(ctx, models.NewMatch{
		EntityID:   req.EntityID,
		InvestorID: req.InvestorID,
		Initiator:  models.Initiator(req.Initiator),
		Notes:      req.Notes,
	})
	if matcherrors.IsDuplicate(err) {
		existing, getErr := h.lifecycle.GetMatchByPair(ctx, req.EntityID, req.InvestorID)
		if getErr != nil {
			return err
		}
		return c.JSON(http.StatusOK, RequestMatchResponse{Match: existing, Created: false})
	}
	if err != nil {
		return err
	}

	h.logger.WithContext(ctx).WithFields(map[string]any{
		"match_id": match.ID,
		"user_id":  requestctx.GetUserID(ctx),
	}).Debug("Match requested")

	return c.JSON(http.StatusCreated, RequestMatchResponse{Match: match, Created: true})
}

// ListMatches accepts ?status=Pending,Declined or ?status=active.
func (h *Handler) ListMatches(c echo.Context) error {
	ctx := c.Request().Context()
	entityID := c.Param("entity_id")

	statuses, err := parseStatuses(c.QueryParam("status"))
	if err != nil {
		return err
	}

	matches, err := h.lifecycle.ListMatches(ctx, entityID, statuses...)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, matches)
}

func parseStatuses(raw string) ([]models.MatchStatus, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if strings.EqualFold(raw, "active") {
		return models.ActiveMatchStatuses, nil
	}

	statuses := []models.MatchStatus{}
	for _, part := range strings.Split(raw, ",") {
		status := models.MatchStatus(strings.TrimSpace(part))
		if !status.Valid() {
			return nil, matcherrors.Invalid("unknown match status %q", part)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// AutoMatch creates matches for the entity's top candidates. A run that stops
// early still reports what it created alongside the error.
func (h *Handler) AutoMatch(c echo.Context) error {
	ctx := c.Request().Context()
	entityID := c.Param("entity_id")

	summary, err := h.lifecycle.AutoMatch(ctx, entityID)
	if err != nil && summary == nil {
		return err
	}
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).WithField("entity_id", entityID).Warn("Auto-match stopped early")
	}

	return c.JSON(http.StatusOK, summary)
}

func (h *Handler) GetMatch(c echo.Context) error {
	match, err := h.lifecycle.GetMatch(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, match)
}

func (h *Handler) Stats(c echo.Context) error {
	stats, err := h.lifecycle.Stats(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *Handler) transition(to models.MatchStatus) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		match, err := h.lifecycle.Transition(ctx, c.Param("id"), to)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, match)
	}
}
