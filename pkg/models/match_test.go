package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchStatus_CanTransitionTo(t *testing.T) {
	allowed := map[MatchStatus][]MatchStatus{
		MatchStatusPending:        {MatchStatusTeaserRevealed, MatchStatusDeclined},
		MatchStatusTeaserRevealed: {MatchStatusFullReveal, MatchStatusDeclined},
		MatchStatusFullReveal:     {MatchStatusConnected, MatchStatusDeclined},
		MatchStatusConnected:      {},
		MatchStatusDeclined:       {},
	}

	for from, targets := range allowed {
		for _, to := range AllMatchStatuses {
			want := false
			for _, target := range targets {
				if target == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestMatchStatus_RejectsUnknown(t *testing.T) {
	assert.False(t, MatchStatus("Archived").Valid())
	assert.False(t, MatchStatusPending.CanTransitionTo("Archived"))
	assert.False(t, MatchStatusPending.CanTransitionTo(MatchStatusPending))
}

func TestMatchStatus_Terminal(t *testing.T) {
	assert.True(t, MatchStatusConnected.Terminal())
	assert.True(t, MatchStatusDeclined.Terminal())
	assert.False(t, MatchStatusFullReveal.Terminal())
}

func TestInitiator_Valid(t *testing.T) {
	assert.True(t, InitiatorEntity.Valid())
	assert.True(t, InitiatorInvestor.Valid())
	assert.False(t, Initiator("system").Valid())
}

func TestScoreBreakdown_TotalCapped(t *testing.T) {
	assert.Equal(t, 85, ScoreBreakdown{Industry: 40, Stage: 30, Geography: 10, Thesis: 5}.Total())
	assert.Equal(t, 100, ScoreBreakdown{Industry: 40, Stage: 30, Geography: 15, Thesis: 15}.Total())
}
