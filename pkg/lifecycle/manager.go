// Package lifecycle creates matches and moves them through their status graph.
package lifecycle

import (
	"context"
	"errors"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	matcherrors "github.com/sttalk999/sttalk/pkg/errors"
	"github.com/sttalk999/sttalk/pkg/metrics"
	"github.com/sttalk999/sttalk/pkg/models"
	"github.com/sttalk999/sttalk/pkg/redis"
	"github.com/sttalk999/sttalk/pkg/tracing"
)

const (
	DefaultAutoMatchLimit = 5
	DefaultLockTTL        = 30 * time.Second
	DefaultRecentLimit    = 10

	sourceRequest = "request"
	sourceAuto    = "auto"
)

// MatchStore persists matches. InsertMatch must report a second match for the
// same entity and investor as a DuplicateMatch error.
type MatchStore interface {
	InsertMatch(ctx context.Context, match *models.Match) error
	GetMatch(ctx context.Context, id string) (*models.Match, error)
	GetMatchByPair(ctx context.Context, entityID, investorID string) (*models.Match, error)
	UpdateMatchStatus(ctx context.Context, id string, from, to models.MatchStatus) (*models.Match, error)
	ListMatches(ctx context.Context, entityID string, statuses []models.MatchStatus) ([]models.Match, error)
	MatchStats(ctx context.Context, recent int) (*models.MatchStats, error)
}

type CandidateRanker interface {
	Rank(ctx context.Context, entityID string) ([]models.MatchScore, error)
}

// Observer is told about persisted changes. Its errors are logged, never returned.
type Observer interface {
	MatchCreated(ctx context.Context, match models.Match) error
	MatchStatusChanged(ctx context.Context, match models.Match, previous models.MatchStatus) error
}

type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) error
}

type Config struct {
	AutoMatchLimit int
	LockTTL        time.Duration
	RecentLimit    int
}

type Manager struct {
	store     MatchStore
	ranker    CandidateRanker
	observers []Observer
	locker    Locker
	config    Config
	logger    ectologger.Logger
	now       func() time.Time
}

type Option func(*Manager)

func WithObservers(observers ...Observer) Option {
	return func(m *Manager) {
		m.observers = append(m.observers, observers...)
	}
}

// WithLocker serializes auto-match runs per entity across processes.
func WithLocker(locker Locker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

func NewManager(store MatchStore, ranker CandidateRanker, config Config, logger ectologger.Logger, opts ...Option) *Manager {
	if config.AutoMatchLimit <= 0 {
		config.AutoMatchLimit = DefaultAutoMatchLimit
	}
	if config.LockTTL <= 0 {
		config.LockTTL = DefaultLockTTL
	}
	if config.RecentLimit <= 0 {
		config.RecentLimit = DefaultRecentLimit
	}

	m := &Manager{
		store:  store,
		ranker: ranker,
		config: config,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreateMatch inserts a Pending match. It relies on the store's uniqueness
// guarantee instead of checking first, so concurrent callers for the same
// pair get exactly one match and DuplicateMatch for the rest.
func (m *Manager) CreateMatch(ctx context.Context, req models.NewMatch) (*models.Match, error) {
	ctx, span := tracing.StartSpan(ctx, "lifecycle.Manager.CreateMatch")
	defer span.End()

	return m.createMatch(ctx, req, sourceRequest)
}

func (m *Manager) createMatch(ctx context.Context, req models.NewMatch, source string) (*models.Match, error) {
	if req.Initiator == "" {
		req.Initiator = models.InitiatorEntity
	}
	if !req.Initiator.Valid() {
		return nil, matcherrors.Invalid("unknown initiator %q", req.Initiator)
	}
	if req.EntityID == "" || req.InvestorID == "" {
		return nil, matcherrors.Invalid("entity id and investor id are required")
	}

	now := m.now()
	match := &models.Match{
		ID:          uuid.New().String(),
		EntityID:    req.EntityID,
		InvestorID:  req.InvestorID,
		Status:      models.MatchStatusPending,
		InitiatedBy: req.Initiator,
		Notes:       req.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := m.store.InsertMatch(ctx, match); err != nil {
		if matcherrors.IsDuplicate(err) {
			metrics.RecordDuplicateMatch(source)
		}
		return nil, err
	}

	metrics.RecordMatchCreated(source, string(match.InitiatedBy))
	m.logger.WithContext(ctx).WithFields(map[string]any{
		"match_id":    match.ID,
		"entity_id":   match.EntityID,
		"investor_id": match.InvestorID,
		"source":      source,
	}).Info("Created match")

	for _, observer := range m.observers {
		if err := observer.MatchCreated(ctx, *match); err != nil {
			m.logger.WithContext(ctx).WithError(err).WithField("match_id", match.ID).Warn("Match observer failed")
		}
	}
	return match, nil
}

// AutoMatch creates Pending matches for the entity's top ranked candidates.
// Each candidate is independent: failures are collected in the summary and
// the remaining candidates are still attempted.
func (m *Manager) AutoMatch(ctx context.Context, entityID string) (*models.AutoMatchSummary, error) {
	ctx, span := tracing.StartSpan(ctx, "lifecycle.Manager.AutoMatch")
	defer span.End()

	if m.locker == nil {
		return m.autoMatch(ctx, entityID)
	}

	var summary *models.AutoMatchSummary
	err := m.locker.WithLock(ctx, "automatch:"+entityID, m.config.LockTTL, func(ctx context.Context) error {
		var err error
		summary, err = m.autoMatch(ctx, entityID)
		return err
	})
	if errors.Is(err, redis.ErrLockNotAcquired) {
		return nil, matcherrors.InProgress("auto-match is already running for entity %s", entityID)
	}
	if err != nil && summary == nil && !isMatchError(err) {
		m.logger.WithContext(ctx).WithError(err).Error("Failed to acquire auto-match lock")
		return nil, matcherrors.Unavailable(err, "failed to acquire auto-match lock")
	}
	return summary, err
}

func (m *Manager) autoMatch(ctx context.Context, entityID string) (*models.AutoMatchSummary, error) {
	candidates, err := m.ranker.Rank(ctx, entityID)
	if err != nil {
		return nil, err
	}
	if len(candidates) > m.config.AutoMatchLimit {
		candidates = candidates[:m.config.AutoMatchLimit]
	}

	summary := &models.AutoMatchSummary{
		EntityID:  entityID,
		Requested: len(candidates),
		MatchIDs:  []string{},
		Failures:  []models.MatchFailure{},
	}

	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		match, err := m.createMatch(ctx, models.NewMatch{
			EntityID:   entityID,
			InvestorID: candidate.InvestorID,
			Initiator:  models.InitiatorEntity,
		}, sourceAuto)
		if err != nil {
			if matcherrors.IsDuplicate(err) {
				summary.Duplicates++
			}
			summary.Failures = append(summary.Failures, failureOf(candidate.InvestorID, err))
			continue
		}

		summary.Created++
		summary.MatchIDs = append(summary.MatchIDs, match.ID)
	}

	m.logger.WithContext(ctx).WithFields(map[string]any{
		"entity_id":  entityID,
		"requested":  summary.Requested,
		"created":    summary.Created,
		"duplicates": summary.Duplicates,
		"failed":     len(summary.Failures) - summary.Duplicates,
	}).Info("Auto-match finished")
	return summary, nil
}

// Transition moves a match to status to, if the status graph allows it from
// the match's current status.
func (m *Manager) Transition(ctx context.Context, matchID string, to models.MatchStatus) (*models.Match, error) {
	ctx, span := tracing.StartSpan(ctx, "lifecycle.Manager.Transition")
	defer span.End()

	current, err := m.store.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}

	from := current.Status
	if !from.CanTransitionTo(to) {
		metrics.RecordTransition(string(from), string(to), "rejected")
		return nil, matcherrors.InvalidTransition(string(from), string(to))
	}

	updated, err := m.store.UpdateMatchStatus(ctx, matchID, from, to)
	if err != nil {
		if matcherrors.IsInvalidTransition(err) {
			metrics.RecordTransition(string(from), string(to), "rejected")
		}
		return nil, err
	}
	metrics.RecordTransition(string(from), string(to), "ok")

	m.logger.WithContext(ctx).WithFields(map[string]any{
		"match_id": matchID,
		"from":     from,
		"to":       to,
	}).Info("Match status changed")

	for _, observer := range m.observers {
		if err := observer.MatchStatusChanged(ctx, *updated, from); err != nil {
			m.logger.WithContext(ctx).WithError(err).WithField("match_id", matchID).Warn("Match observer failed")
		}
	}
	return updated, nil
}

func (m *Manager) GetMatch(ctx context.Context, id string) (*models.Match, error) {
	ctx, span := tracing.StartSpan(ctx, "lifecycle.Manager.GetMatch")
	defer span.End()
	return m.store.GetMatch(ctx, id)
}

func (m *Manager) GetMatchByPair(ctx context.Context, entityID, investorID string) (*models.Match, error) {
	ctx, span := tracing.StartSpan(ctx, "lifecycle.Manager.GetMatchByPair")
	defer span.End()
	return m.store.GetMatchByPair(ctx, entityID, investorID)
}

// ListMatches returns the entity's matches, newest first. No statuses means all.
func (m *Manager) ListMatches(ctx context.Context, entityID string, statuses ...models.MatchStatus) ([]models.Match, error) {
	ctx, span := tracing.StartSpan(ctx, "lifecycle.Manager.ListMatches")
	defer span.End()

	for _, status := range statuses {
		if !status.Valid() {
			return nil, matcherrors.Invalid("unknown match status %q", status)
		}
	}
	return m.store.ListMatches(ctx, entityID, statuses)
}

// ListActiveMatches returns matches in which both sides may message each other.
func (m *Manager) ListActiveMatches(ctx context.Context, entityID string) ([]models.Match, error) {
	return m.ListMatches(ctx, entityID, models.ActiveMatchStatuses...)
}

func (m *Manager) Stats(ctx context.Context) (*models.MatchStats, error) {
	ctx, span := tracing.StartSpan(ctx, "lifecycle.Manager.Stats")
	defer span.End()
	return m.store.MatchStats(ctx, m.config.RecentLimit)
}

func failureOf(investorID string, err error) models.MatchFailure {
	kind, ok := matcherrors.KindOf(err)
	if !ok {
		kind = matcherrors.KindRepositoryUnavailable
	}
	return models.MatchFailure{
		InvestorID: investorID,
		Kind:       string(kind),
		Message:    err.Error(),
	}
}

func isMatchError(err error) bool {
	_, ok := matcherrors.KindOf(err)
	return ok
}
