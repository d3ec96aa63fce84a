package models

// ScoreBreakdown holds the per-dimension points behind a MatchScore.
type ScoreBreakdown struct {
	Industry  int `json:"industry"`
	Stage     int `json:"stage"`
	Geography int `json:"geography"`
	Thesis    int `json:"thesis"`
}

func (b ScoreBreakdown) Total() int {
	total := b.Industry + b.Stage + b.Geography + b.Thesis
	if total > 100 {
		return 100
	}
	return total
}

// MatchScore is computed per ranking request and never persisted.
type MatchScore struct {
	InvestorID   string         `json:"investor_id"`
	InvestorName string         `json:"investor_name"`
	Score        int            `json:"score"`
	Reasons      []string       `json:"reasons"`
	Breakdown    ScoreBreakdown `json:"breakdown"`
}

// MatchFailure records one candidate that auto-match could not create.
type MatchFailure struct {
	InvestorID string `json:"investor_id"`
	Kind       string `json:"kind"`
	Message    string `json:"message"`
}

type AutoMatchSummary struct {
	EntityID   string         `json:"entity_id"`
	Requested  int            `json:"requested"`
	Created    int            `json:"created"`
	Duplicates int            `json:"duplicates"`
	MatchIDs   []string       `json:"match_ids"`
	Failures   []MatchFailure `json:"failures"`
}
