package graph

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/sttalk999/sttalk/pkg/models"
	"github.com/sttalk999/sttalk/pkg/tracing"
)

type Writer interface {
	Write(ctx context.Context, cypher string, params map[string]any) error
}

const upsertMatchCypher = `
MERGE (e:Entity {id: $entity_id})
MERGE (i:Investor {id: $investor_id})
MERGE (e)-[m:MATCHED {match_id: $match_id}]->(i)
SET m.status = $status, m.initiated_by = $initiated_by, m.updated_at = $updated_at`

// Projector keeps (:Entity)-[:MATCHED]->(:Investor) edges in step with the match table.
type Projector struct {
	writer Writer
	logger ectologger.Logger
}

func NewProjector(writer Writer, logger ectologger.Logger) *Projector {
	return &Projector{
		writer: writer,
		logger: logger,
	}
}

func (p *Projector) MatchCreated(ctx context.Context, match models.Match) error {
	ctx, span := tracing.StartSpan(ctx, "graph.Projector.MatchCreated")
	defer span.End()
	return p.upsert(ctx, match)
}

func (p *Projector) MatchStatusChanged(ctx context.Context, match models.Match, _ models.MatchStatus) error {
	ctx, span := tracing.StartSpan(ctx, "graph.Projector.MatchStatusChanged")
	defer span.End()
	return p.upsert(ctx, match)
}

func (p *Projector) upsert(ctx context.Context, match models.Match) error {
	params := map[string]any{
		"entity_id":    match.EntityID,
		"investor_id":  match.InvestorID,
		"match_id":     match.ID,
		"status":       string(match.Status),
		"initiated_by": string(match.InitiatedBy),
		"updated_at":   match.UpdatedAt.UnixMilli(),
	}
	if err := p.writer.Write(ctx, upsertMatchCypher, params); err != nil {
		p.logger.WithContext(ctx).WithError(err).WithField("match_id", match.ID).Error("Failed to project match into graph")
		return err
	}
	return nil
}
