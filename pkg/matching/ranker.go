package matching

import (
	"context"
	"sort"
	"time"

	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"

	matcherrors "github.com/sttalk999/sttalk/pkg/errors"
	"github.com/sttalk999/sttalk/pkg/metrics"
	"github.com/sttalk999/sttalk/pkg/models"
	"github.com/sttalk999/sttalk/pkg/tracing"
)

const (
	DefaultMinScore      = 40
	DefaultMaxCandidates = 10
)

type EntityReader interface {
	GetEntity(ctx context.Context, id string) (*models.Entity, error)
}

type InvestorPool interface {
	ListAllInvestors(ctx context.Context) ([]models.Investor, error)
}

type MatchedInvestors interface {
	ListMatchedInvestorIDs(ctx context.Context, entityID string) ([]string, error)
}

type RankerConfig struct {
	MinScore      int
	MaxCandidates int
}

// Ranker scores every unmatched investor for an entity and keeps the best ones.
type Ranker struct {
	entities  EntityReader
	investors InvestorPool
	matches   MatchedInvestors
	scorer    *Scorer
	config    RankerConfig
	logger    ectologger.Logger
}

func NewRanker(entities EntityReader, investors InvestorPool, matches MatchedInvestors, scorer *Scorer, config RankerConfig, logger ectologger.Logger) *Ranker {
	if config.MinScore <= 0 {
		config.MinScore = DefaultMinScore
	}
	if config.MaxCandidates <= 0 {
		config.MaxCandidates = DefaultMaxCandidates
	}
	return &Ranker{
		entities:  entities,
		investors: investors,
		matches:   matches,
		scorer:    scorer,
		config:    config,
		logger:    logger,
	}
}

// Rank returns at most MaxCandidates investors scoring at least MinScore,
// highest first. Investors already matched with the entity are excluded and
// ties keep the pool order.
func (r *Ranker) Rank(ctx context.Context, entityID string) (scores []models.MatchScore, err error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Ranker.Rank")
	defer span.End()

	start := time.Now()
	defer func() {
		metrics.RecordRank(rankResult(err), time.Since(start).Seconds(), len(scores))
		tracing.RecordError(ctx, err)
	}()

	entity, err := r.entities.GetEntity(ctx, entityID)
	if err != nil {
		return nil, r.classify(ctx, err, "failed to load entity")
	}

	pool, err := r.investors.ListAllInvestors(ctx)
	if err != nil {
		return nil, r.classify(ctx, err, "investor pool unavailable")
	}

	matchedIDs, err := r.matches.ListMatchedInvestorIDs(ctx, entityID)
	if err != nil {
		return nil, r.classify(ctx, err, "failed to load existing matches")
	}

	matched := make(map[string]struct{}, len(matchedIDs))
	for _, id := range matchedIDs {
		matched[id] = struct{}{}
	}
	candidates := ectolinq.Filter(pool, func(investor models.Investor) bool {
		_, ok := matched[investor.ID]
		return !ok
	})

	scores = make([]models.MatchScore, 0, len(candidates))
	for _, investor := range candidates {
		score := r.scorer.Score(*entity, investor)
		if score.Score >= r.config.MinScore {
			scores = append(scores, score)
		}
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})
	if len(scores) > r.config.MaxCandidates {
		scores = scores[:r.config.MaxCandidates]
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"entity_id":  entityID,
		"pool_size":  len(pool),
		"excluded":   len(pool) - len(candidates),
		"candidates": len(scores),
	}).Debug("Ranked investors for entity")

	return scores, nil
}

// classify keeps NotFound and other typed errors and turns anything else into
// RepositoryUnavailable.
func (r *Ranker) classify(ctx context.Context, err error, message string) error {
	if _, ok := matcherrors.KindOf(err); ok {
		return err
	}
	r.logger.WithContext(ctx).WithError(err).Error(message)
	return matcherrors.Unavailable(err, "%s", message)
}

func rankResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case matcherrors.IsNotFound(err):
		return "not_found"
	default:
		return "unavailable"
	}
}
