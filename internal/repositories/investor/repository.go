package investor

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/sttalk999/sttalk/pkg/database"
	matcherrors "github.com/sttalk999/sttalk/pkg/errors"
	"github.com/sttalk999/sttalk/pkg/models"
	"github.com/sttalk999/sttalk/pkg/tracing"
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 500
)

var investorColumns = []string{
	"id",
	"firm_name",
	"COALESCE(website, '') AS website",
	"COALESCE(hq_location, '') AS hq_location",
	"COALESCE(investment_focus, '') AS investment_focus",
	"COALESCE(stages, '') AS stages",
	"COALESCE(investment_thesis, '') AS investment_thesis",
	"COALESCE(investor_type, '') AS investor_type",
	"min_check_size",
	"max_check_size",
}

// Repository reads the investor directory. It never writes.
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

// ListAllInvestors returns the whole directory in a stable order.
func (r *Repository) ListAllInvestors(ctx context.Context) ([]models.Investor, error) {
	ctx, span := tracing.StartSpan(ctx, "investor.Repository.ListAllInvestors")
	defer span.End()

	return r.list(ctx, 0)
}

// ListInvestors returns at most limit investors. Out of range limits fall back to the default.
func (r *Repository) ListInvestors(ctx context.Context, limit int) ([]models.Investor, error) {
	ctx, span := tracing.StartSpan(ctx, "investor.Repository.ListInvestors")
	defer span.End()

	if limit < 1 || limit > MaxListLimit {
		limit = DefaultListLimit
	}
	return r.list(ctx, limit)
}

func (r *Repository) list(ctx context.Context, limit int) ([]models.Investor, error) {
	sb := database.NewSelectBuilder()
	sb.Select(investorColumns...)
	sb.From("investors")
	sb.OrderBy("created_at", "id")
	if limit > 0 {
		sb.Limit(limit)
	}

	query, args := sb.Build()
	investors := []models.Investor{}
	if err := r.db.SelectContext(ctx, &investors, query, args...); err != nil {
		tracing.RecordError(ctx, err)
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list investors")
		return nil, matcherrors.Unavailable(err, "failed to load investors")
	}

	r.logger.WithContext(ctx).WithField("count", len(investors)).Debug("Loaded investors")
	return investors, nil
}
