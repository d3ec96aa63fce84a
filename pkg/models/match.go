package models

import (
	"time"

	"github.com/Gobusters/ectolinq"
)

type MatchStatus string

const (
	MatchStatusPending        MatchStatus = "Pending"
	MatchStatusTeaserRevealed MatchStatus = "TeaserRevealed"
	MatchStatusFullReveal     MatchStatus = "FullReveal"
	MatchStatusConnected      MatchStatus = "Connected"
	MatchStatusDeclined       MatchStatus = "Declined"
)

// AllMatchStatuses in lifecycle order.
var AllMatchStatuses = []MatchStatus{
	MatchStatusPending,
	MatchStatusTeaserRevealed,
	MatchStatusFullReveal,
	MatchStatusConnected,
	MatchStatusDeclined,
}

// ActiveMatchStatuses are the statuses in which both sides can message each other.
var ActiveMatchStatuses = []MatchStatus{
	MatchStatusTeaserRevealed,
	MatchStatusFullReveal,
	MatchStatusConnected,
}

var nextStatus = map[MatchStatus]MatchStatus{
	MatchStatusPending:        MatchStatusTeaserRevealed,
	MatchStatusTeaserRevealed: MatchStatusFullReveal,
	MatchStatusFullReveal:     MatchStatusConnected,
}

func (s MatchStatus) Valid() bool {
	return ectolinq.Contains(AllMatchStatuses, s)
}

func (s MatchStatus) Terminal() bool {
	return s == MatchStatusConnected || s == MatchStatusDeclined
}

// CanTransitionTo allows one step forward along the reveal path, or Declined
// from any non-terminal status.
func (s MatchStatus) CanTransitionTo(to MatchStatus) bool {
	if s.Terminal() || !to.Valid() {
		return false
	}
	if to == MatchStatusDeclined {
		return true
	}
	return nextStatus[s] == to
}

type Initiator string

const (
	InitiatorEntity   Initiator = "entity"
	InitiatorInvestor Initiator = "investor"
)

func (i Initiator) Valid() bool {
	return i == InitiatorEntity || i == InitiatorInvestor
}

type Match struct {
	ID          string      `json:"id" db:"id"`
	EntityID    string      `json:"entity_id" db:"entity_id"`
	InvestorID  string      `json:"investor_id" db:"investor_id"`
	Status      MatchStatus `json:"status" db:"status"`
	InitiatedBy Initiator   `json:"initiated_by" db:"initiated_by"`
	Notes       *string     `json:"notes,omitempty" db:"notes"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
}

// NewMatch is the input for creating a match.
type NewMatch struct {
	EntityID   string
	InvestorID string
	Initiator  Initiator
	Notes      *string
}

// MatchStats is the status distribution of all matches plus the most recent ones.
type MatchStats struct {
	Total    int                 `json:"total"`
	ByStatus map[MatchStatus]int `json:"by_status"`
	Recent   []Match             `json:"recent"`
}
