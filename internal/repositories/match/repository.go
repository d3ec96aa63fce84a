package match

import (
	"context"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/sttalk999/sttalk/pkg/database"
	matcherrors "github.com/sttalk999/sttalk/pkg/errors"
	"github.com/sttalk999/sttalk/pkg/models"
	"github.com/sttalk999/sttalk/pkg/tracing"
)

var matchColumns = []string{
	"id",
	"entity_id",
	"investor_id",
	"status",
	"COALESCE(initiated_by, 'entity') AS initiated_by",
	"notes",
	"created_at",
	"updated_at",
}

// Repository persists matches. The (entity_id, investor_id) unique constraint is
// the only guard against duplicate pairs.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// InsertMatch stores a new match. A second insert for the same pair fails with
// DuplicateMatch; an unknown entity or investor fails with NotFound.
func (r *Repository) InsertMatch(ctx context.Context, match *models.Match) error {
	ctx, span := tracing.StartSpan(ctx, "match.Repository.InsertMatch")
	defer span.End()

	if match.ID == "" {
		match.ID = uuid.New().String()
	}
	if match.CreatedAt.IsZero() {
		match.CreatedAt = time.Now().UTC()
	}
	match.UpdatedAt = match.CreatedAt
	if match.Status == "" {
		match.Status = models.MatchStatusPending
	}

	ib := database.NewInsertBuilder()
	ib.InsertInto("matches")
	ib.Cols("id", "entity_id", "investor_id", "status", "initiated_by", "notes", "created_at", "updated_at")
	ib.Values(match.ID, match.EntityID, match.InvestorID, match.Status, match.InitiatedBy, match.Notes, match.CreatedAt, match.UpdatedAt)

	query, args := ib.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		switch {
		case database.IsUniqueViolation(err):
			return matcherrors.DuplicateMatch(match.EntityID, match.InvestorID)
		case database.IsForeignKeyViolation(err), database.IsInvalidText(err):
			return matcherrors.NotFound("entity %s or investor %s not found", match.EntityID, match.InvestorID)
		}
		tracing.RecordError(ctx, err)
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"entity_id":   match.EntityID,
			"investor_id": match.InvestorID,
		}).Error("Failed to insert match")
		return matcherrors.Unavailable(err, "failed to create match")
	}

	return nil
}

func (r *Repository) GetMatch(ctx context.Context, id string) (*models.Match, error) {
	ctx, span := tracing.StartSpan(ctx, "match.Repository.GetMatch")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(matchColumns...)
	sb.From("matches")
	sb.Where(sb.Equal("id", id))

	return r.getOne(ctx, sb.Build, "match %s not found", id)
}

func (r *Repository) GetMatchByPair(ctx context.Context, entityID, investorID string) (*models.Match, error) {
	ctx, span := tracing.StartSpan(ctx, "match.Repository.GetMatchByPair")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(matchColumns...)
	sb.From("matches")
	sb.Where(
		sb.Equal("entity_id", entityID),
		sb.Equal("investor_id", investorID),
	)

	return r.getOne(ctx, sb.Build, "no match between entity %s and investor %s", entityID, investorID)
}

func (r *Repository) getOne(ctx context.Context, build func() (string, []any), notFound string, args ...any) (*models.Match, error) {
	query, queryArgs := build()
	var match models.Match
	if err := r.db.GetContext(ctx, &match, query, queryArgs...); err != nil {
		if database.IsNoRows(err) || database.IsInvalidText(err) {
			return nil, matcherrors.NotFound(notFound, args...)
		}
		tracing.RecordError(ctx, err)
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get match")
		return nil, matcherrors.Unavailable(err, "failed to load match")
	}
	return &match, nil
}

func (r *Repository) MatchExists(ctx context.Context, entityID, investorID string) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "match.Repository.MatchExists")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("COUNT(*) > 0")
	sb.From("matches")
	sb.Where(
		sb.Equal("entity_id", entityID),
		sb.Equal("investor_id", investorID),
	)

	query, args := sb.Build()
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, args...); err != nil {
		if database.IsInvalidText(err) {
			return false, nil
		}
		tracing.RecordError(ctx, err)
		r.logger.WithContext(ctx).WithError(err).Error("Failed to check match existence")
		return false, matcherrors.Unavailable(err, "failed to check match")
	}
	return exists, nil
}

// ListMatchedInvestorIDs returns every investor that already has a match with
// the entity, whatever its status.
func (r *Repository) ListMatchedInvestorIDs(ctx context.Context, entityID string) ([]string, error) {
	ctx, span := tracing.StartSpan(ctx, "match.Repository.ListMatchedInvestorIDs")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("investor_id::text")
	sb.From("matches")
	sb.Where(sb.Equal("entity_id", entityID))
	sb.OrderBy("investor_id")

	query, args := sb.Build()
	ids := []string{}
	if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
		if database.IsInvalidText(err) {
			return ids, nil
		}
		tracing.RecordError(ctx, err)
		r.logger.WithContext(ctx).WithError(err).WithField("entity_id", entityID).Error("Failed to list matched investors")
		return nil, matcherrors.Unavailable(err, "failed to load existing matches")
	}
	return ids, nil
}

// UpdateMatchStatus moves a match from one status to another. The update only
// applies while the stored status still equals from, so concurrent transitions
// on the same match cannot both succeed.
func (r *Repository) UpdateMatchStatus(ctx context.Context, id string, from, to models.MatchStatus) (*models.Match, error) {
	ctx, span := tracing.StartSpan(ctx, "match.Repository.UpdateMatchStatus")
	defer span.End()

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return nil, matcherrors.Unavailable(err, "failed to update match")
	}
	defer tx.Rollback(ctx)

	ub := database.NewUpdateBuilder()
	ub.Update("matches")
	ub.Set(
		ub.Assign("status", to),
		"updated_at = GREATEST(created_at, NOW())",
	)
	ub.Where(
		ub.Equal("id", id),
		ub.Equal("status", from),
	)

	query, args := ub.Build()
	query += " RETURNING " + strings.Join(matchColumns, ", ")

	updated := []models.Match{}
	if err := tx.SelectContext(ctx, &updated, query, args...); err != nil {
		if database.IsInvalidText(err) {
			return nil, matcherrors.NotFound("match %s not found", id)
		}
		tracing.RecordError(ctx, err)
		r.logger.WithContext(ctx).WithError(err).WithField("match_id", id).Error("Failed to update match status")
		return nil, matcherrors.Unavailable(err, "failed to update match")
	}

	if len(updated) == 0 {
		// Either the match is gone or someone else moved it first.
		current, err := r.currentStatus(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		return nil, matcherrors.InvalidTransition(string(current), string(to))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, matcherrors.Unavailable(err, "failed to update match")
	}
	return &updated[0], nil
}

func (r *Repository) currentStatus(ctx context.Context, tx database.Tx, id string) (models.MatchStatus, error) {
	sb := database.NewSelectBuilder()
	sb.Select("status")
	sb.From("matches")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var status models.MatchStatus
	if err := tx.GetContext(ctx, &status, query, args...); err != nil {
		if database.IsNoRows(err) {
			return "", matcherrors.NotFound("match %s not found", id)
		}
		r.logger.WithContext(ctx).WithError(err).WithField("match_id", id).Error("Failed to read match status")
		return "", matcherrors.Unavailable(err, "failed to update match")
	}
	return status, nil
}

// ListMatches returns the entity's matches newest first, optionally limited to statuses.
func (r *Repository) ListMatches(ctx context.Context, entityID string, statuses []models.MatchStatus) ([]models.Match, error) {
	ctx, span := tracing.StartSpan(ctx, "match.Repository.ListMatches")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(matchColumns...)
	sb.From("matches")
	sb.Where(sb.Equal("entity_id", entityID))
	if len(statuses) > 0 {
		values := make([]any, len(statuses))
		for i, status := range statuses {
			values[i] = status
		}
		sb.Where(sb.In("status", values...))
	}
	sb.OrderBy("created_at DESC", "id")

	query, args := sb.Build()
	matches := []models.Match{}
	if err := r.db.SelectContext(ctx, &matches, query, args...); err != nil {
		if database.IsInvalidText(err) {
			return matches, nil
		}
		tracing.RecordError(ctx, err)
		r.logger.WithContext(ctx).WithError(err).WithField("entity_id", entityID).Error("Failed to list matches")
		return nil, matcherrors.Unavailable(err, "failed to load matches")
	}
	return matches, nil
}

type statusCount struct {
	Status models.MatchStatus `db:"status"`
	Count  int                `db:"count"`
}

// MatchStats counts matches per status (every status present, zero when unused)
// and returns the most recent ones.
func (r *Repository) MatchStats(ctx context.Context, recent int) (*models.MatchStats, error) {
	ctx, span := tracing.StartSpan(ctx, "match.Repository.MatchStats")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("status", "COUNT(*) AS count")
	sb.From("matches")
	sb.GroupBy("status")

	query, args := sb.Build()
	counts := []statusCount{}
	if err := r.db.SelectContext(ctx, &counts, query, args...); err != nil {
		tracing.RecordError(ctx, err)
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count matches")
		return nil, matcherrors.Unavailable(err, "failed to load match stats")
	}

	stats := &models.MatchStats{ByStatus: map[models.MatchStatus]int{}, Recent: []models.Match{}}
	for _, status := range models.AllMatchStatuses {
		stats.ByStatus[status] = 0
	}
	for _, c := range counts {
		stats.ByStatus[c.Status] = c.Count
		stats.Total += c.Count
	}

	if recent <= 0 {
		return stats, nil
	}

	rb := database.NewSelectBuilder()
	rb.Select(matchColumns...)
	rb.From("matches")
	rb.OrderBy("created_at DESC", "id")
	rb.Limit(recent)

	query, args = rb.Build()
	if err := r.db.SelectContext(ctx, &stats.Recent, query, args...); err != nil {
		tracing.RecordError(ctx, err)
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list recent matches")
		return nil, matcherrors.Unavailable(err, "failed to load match stats")
	}
	return stats, nil
}
