package entity

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/sttalk999/sttalk/pkg/database"
	matcherrors "github.com/sttalk999/sttalk/pkg/errors"
	"github.com/sttalk999/sttalk/pkg/models"
	"github.com/sttalk999/sttalk/pkg/tracing"
)

// Blank text columns are read back as NULL so callers only have to check for nil.
var entityColumns = []string{
	"id",
	"company_name",
	"NULLIF(TRIM(industry), '') AS industry",
	"NULLIF(TRIM(stage), '') AS stage",
	"NULLIF(TRIM(description), '') AS description",
	"NULLIF(TRIM(city), '') AS city",
	"NULLIF(TRIM(country), '') AS country",
	"created_at",
	"updated_at",
}

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

// GetEntity loads one entity profile by id.
func (r *Repository) GetEntity(ctx context.Context, id string) (*models.Entity, error) {
	ctx, span := tracing.StartSpan(ctx, "entity.Repository.GetEntity")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(entityColumns...)
	sb.From("entities")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var entity models.Entity
	if err := r.db.GetContext(ctx, &entity, query, args...); err != nil {
		if database.IsNoRows(err) || database.IsInvalidText(err) {
			return nil, matcherrors.NotFound("entity %s not found", id)
		}
		tracing.RecordError(ctx, err)
		r.logger.WithContext(ctx).WithError(err).WithField("entity_id", id).Error("Failed to get entity")
		return nil, matcherrors.Unavailable(err, "failed to load entity %s", id)
	}

	return &entity, nil
}
