// Package memory is an in-process implementation of the entity, investor and
// match repositories. It enforces the same pair uniqueness as the postgres schema.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Gobusters/ectolinq"
	"github.com/google/uuid"

	matcherrors "github.com/sttalk999/sttalk/pkg/errors"
	"github.com/sttalk999/sttalk/pkg/models"
)

type pair struct {
	entityID   string
	investorID string
}

type Store struct {
	mu        sync.RWMutex
	entities  map[string]models.Entity
	investors []models.Investor
	matches   map[string]models.Match
	byPair    map[pair]string
	failures  map[string]error
	now       func() time.Time
}

func NewStore() *Store {
	return &Store{
		entities: map[string]models.Entity{},
		matches:  map[string]models.Match{},
		byPair:   map[pair]string{},
		failures: map[string]error{},
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) AddEntity(entity models.Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entities[entity.ID] = entity
}

// AddInvestors appends to the pool, preserving order.
func (s *Store) AddInvestors(investors ...models.Investor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.investors = append(s.investors, investors...)
}

// FailWith makes every call to the named method return err until cleared with a nil err.
func (s *Store) FailWith(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, method)
		return
	}
	s.failures[method] = err
}

func (s *Store) failure(method string) error {
	return s.failures[method]
}

func (s *Store) GetEntity(_ context.Context, id string) (*models.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.failure("GetEntity"); err != nil {
		return nil, err
	}
	entity, ok := s.entities[id]
	if !ok {
		return nil, matcherrors.NotFound("entity %s not found", id)
	}
	return &entity, nil
}

func (s *Store) ListAllInvestors(_ context.Context) ([]models.Investor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.failure("ListAllInvestors"); err != nil {
		return nil, err
	}
	return append([]models.Investor(nil), s.investors...), nil
}

func (s *Store) ListInvestors(ctx context.Context, limit int) ([]models.Investor, error) {
	investors, err := s.ListAllInvestors(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(investors) > limit {
		investors = investors[:limit]
	}
	return investors, nil
}

func (s *Store) ListMatchedInvestorIDs(_ context.Context, entityID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.failure("ListMatchedInvestorIDs"); err != nil {
		return nil, err
	}
	ids := []string{}
	for p := range s.byPair {
		if p.entityID == entityID {
			ids = append(ids, p.investorID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Store) InsertMatch(_ context.Context, match *models.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("InsertMatch"); err != nil {
		return err
	}

	key := pair{match.EntityID, match.InvestorID}
	if _, exists := s.byPair[key]; exists {
		return matcherrors.DuplicateMatch(match.EntityID, match.InvestorID)
	}

	if match.ID == "" {
		match.ID = uuid.New().String()
	}
	if match.CreatedAt.IsZero() {
		match.CreatedAt = s.now()
	}
	match.UpdatedAt = match.CreatedAt

	s.matches[match.ID] = *match
	s.byPair[key] = match.ID
	return nil
}

func (s *Store) GetMatch(_ context.Context, id string) (*models.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.failure("GetMatch"); err != nil {
		return nil, err
	}
	match, ok := s.matches[id]
	if !ok {
		return nil, matcherrors.NotFound("match %s not found", id)
	}
	return &match, nil
}

func (s *Store) GetMatchByPair(_ context.Context, entityID, investorID string) (*models.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.failure("GetMatchByPair"); err != nil {
		return nil, err
	}
	id, ok := s.byPair[pair{entityID, investorID}]
	if !ok {
		return nil, matcherrors.NotFound("no match between entity %s and investor %s", entityID, investorID)
	}
	match := s.matches[id]
	return &match, nil
}

func (s *Store) MatchExists(_ context.Context, entityID, investorID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.failure("MatchExists"); err != nil {
		return false, err
	}
	_, ok := s.byPair[pair{entityID, investorID}]
	return ok, nil
}

func (s *Store) UpdateMatchStatus(_ context.Context, id string, from, to models.MatchStatus) (*models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("UpdateMatchStatus"); err != nil {
		return nil, err
	}

	match, ok := s.matches[id]
	if !ok {
		return nil, matcherrors.NotFound("match %s not found", id)
	}
	if match.Status != from {
		return nil, matcherrors.InvalidTransition(string(match.Status), string(to))
	}

	match.Status = to
	match.UpdatedAt = s.now()
	if match.UpdatedAt.Before(match.CreatedAt) {
		match.UpdatedAt = match.CreatedAt
	}
	s.matches[id] = match
	return &match, nil
}

func (s *Store) ListMatches(_ context.Context, entityID string, statuses []models.MatchStatus) ([]models.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.failure("ListMatches"); err != nil {
		return nil, err
	}

	matches := []models.Match{}
	for _, match := range s.matches {
		if match.EntityID != entityID {
			continue
		}
		if len(statuses) > 0 && !ectolinq.Contains(statuses, match.Status) {
			continue
		}
		matches = append(matches, match)
	}
	sortNewestFirst(matches)
	return matches, nil
}

func (s *Store) MatchStats(_ context.Context, recent int) (*models.MatchStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.failure("MatchStats"); err != nil {
		return nil, err
	}

	stats := &models.MatchStats{ByStatus: map[models.MatchStatus]int{}}
	for _, status := range models.AllMatchStatuses {
		stats.ByStatus[status] = 0
	}

	all := make([]models.Match, 0, len(s.matches))
	for _, match := range s.matches {
		stats.Total++
		stats.ByStatus[match.Status]++
		all = append(all, match)
	}
	if recent <= 0 {
		return stats, nil
	}
	sortNewestFirst(all)
	if len(all) > recent {
		all = all[:recent]
	}
	stats.Recent = all
	return stats, nil
}

func sortNewestFirst(matches []models.Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
}
