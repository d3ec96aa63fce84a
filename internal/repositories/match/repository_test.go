package match

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sttalk999/sttalk/internal/repositories/pgtest"
	matcherrors "github.com/sttalk999/sttalk/pkg/errors"
	"github.com/sttalk999/sttalk/pkg/models"
)

type fixture struct {
	pg         *pgtest.Postgres
	repo       *Repository
	entityID   string
	investorID string
}

func setup(t *testing.T) *fixture {
	pg := pgtest.Start(t, "../../../db/pg")
	f := &fixture{
		pg:         pg,
		repo:       NewRepository(pg.DB, pg.Logger),
		entityID:   uuid.New().String(),
		investorID: uuid.New().String(),
	}
	pg.SeedEntity(t, models.Entity{ID: f.entityID, CompanyName: "Acme"})
	pg.SeedInvestor(t, models.Investor{ID: f.investorID, FirmName: "Fund One"}, time.Now())
	return f
}

func (f *fixture) newMatch() *models.Match {
	return &models.Match{
		EntityID:    f.entityID,
		InvestorID:  f.investorID,
		Status:      models.MatchStatusPending,
		InitiatedBy: models.InitiatorEntity,
	}
}

func TestRepository(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	t.Run("insert and read back", func(t *testing.T) {
		match := f.newMatch()
		require.NoError(t, f.repo.InsertMatch(ctx, match))
		assert.NotEmpty(t, match.ID)

		got, err := f.repo.GetMatch(ctx, match.ID)
		require.NoError(t, err)
		assert.Equal(t, models.MatchStatusPending, got.Status)
		assert.Equal(t, models.InitiatorEntity, got.InitiatedBy)

		byPair, err := f.repo.GetMatchByPair(ctx, f.entityID, f.investorID)
		require.NoError(t, err)
		assert.Equal(t, match.ID, byPair.ID)

		exists, err := f.repo.MatchExists(ctx, f.entityID, f.investorID)
		require.NoError(t, err)
		assert.True(t, exists)

		ids, err := f.repo.ListMatchedInvestorIDs(ctx, f.entityID)
		require.NoError(t, err)
		assert.Equal(t, []string{f.investorID}, ids)
	})

	t.Run("second insert for the pair is a duplicate", func(t *testing.T) {
		err := f.repo.InsertMatch(ctx, f.newMatch())
		assert.True(t, matcherrors.IsDuplicate(err))
	})

	t.Run("unknown investor is not found", func(t *testing.T) {
		match := f.newMatch()
		match.InvestorID = uuid.New().String()
		err := f.repo.InsertMatch(ctx, match)
		assert.True(t, matcherrors.IsNotFound(err))
	})

	t.Run("missing and malformed ids are not found", func(t *testing.T) {
		_, err := f.repo.GetMatch(ctx, uuid.New().String())
		assert.True(t, matcherrors.IsNotFound(err))

		_, err = f.repo.GetMatch(ctx, "not-a-uuid")
		assert.True(t, matcherrors.IsNotFound(err))
	})

	t.Run("status update is guarded by the current status", func(t *testing.T) {
		match, err := f.repo.GetMatchByPair(ctx, f.entityID, f.investorID)
		require.NoError(t, err)

		updated, err := f.repo.UpdateMatchStatus(ctx, match.ID, models.MatchStatusPending, models.MatchStatusTeaserRevealed)
		require.NoError(t, err)
		assert.Equal(t, models.MatchStatusTeaserRevealed, updated.Status)
		assert.False(t, updated.UpdatedAt.Before(updated.CreatedAt))

		_, err = f.repo.UpdateMatchStatus(ctx, match.ID, models.MatchStatusPending, models.MatchStatusDeclined)
		assert.True(t, matcherrors.IsInvalidTransition(err))

		_, err = f.repo.UpdateMatchStatus(ctx, uuid.New().String(), models.MatchStatusPending, models.MatchStatusDeclined)
		assert.True(t, matcherrors.IsNotFound(err))
	})

	t.Run("list filters by status and stats are zero filled", func(t *testing.T) {
		all, err := f.repo.ListMatches(ctx, f.entityID, nil)
		require.NoError(t, err)
		assert.Len(t, all, 1)

		pending, err := f.repo.ListMatches(ctx, f.entityID, []models.MatchStatus{models.MatchStatusPending})
		require.NoError(t, err)
		assert.Empty(t, pending)

		active, err := f.repo.ListMatches(ctx, f.entityID, models.ActiveMatchStatuses)
		require.NoError(t, err)
		assert.Len(t, active, 1)

		stats, err := f.repo.MatchStats(ctx, 5)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Total)
		assert.Len(t, stats.ByStatus, len(models.AllMatchStatuses))
		assert.Equal(t, 1, stats.ByStatus[models.MatchStatusTeaserRevealed])
		assert.Equal(t, 0, stats.ByStatus[models.MatchStatusConnected])
		assert.Len(t, stats.Recent, 1)
	})
}

func TestRepository_ConcurrentInsertsCreateOneMatch(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	const workers = 10
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- f.repo.InsertMatch(ctx, f.newMatch())
		}()
	}
	wg.Wait()
	close(errs)

	created := 0
	for err := range errs {
		if err == nil {
			created++
			continue
		}
		assert.True(t, matcherrors.IsDuplicate(err), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, created)
}

func TestRepository_ConcurrentTransitionsApplyOnce(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	match := f.newMatch()
	require.NoError(t, f.repo.InsertMatch(ctx, match))

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.repo.UpdateMatchStatus(ctx, match.ID, models.MatchStatusPending, models.MatchStatusTeaserRevealed)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	applied := 0
	for err := range errs {
		if err == nil {
			applied++
			continue
		}
		assert.True(t, matcherrors.IsInvalidTransition(err), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, applied)
}
