package matching

import (
	"fmt"
	"math"
	"strings"

	"github.com/sttalk999/sttalk/pkg/models"
	"github.com/sttalk999/sttalk/pkg/normalizers"
)

const (
	industryDirectScore     = 40
	industrySynonymScore    = 35
	industryTokenScore      = 25
	industryGeneralistScore = 20

	stageDirectScore  = 30
	stageSynonymScore = 25
	stageOpenScore    = 15

	geographyFocusScore    = 15
	geographyEuropeScore   = 10
	geographyBaselineScore = 5

	thesisMissingScore  = 5
	thesisMaxScore      = 15
	thesisRatioWeight   = 30
	thesisReasonOver    = 5
	geographyReasonOver = 10

	industryTokenMinLength = 3
	thesisWordMinLength    = 4
)

var (
	generalistMarkers = []string{"generalist", "agnostic", "all sectors"}
	openStageMarkers  = []string{"all", "any"}
	focusRegions      = []string{"india", "asia", "emerging"}
	europeanRegions   = []string{"uk", "london", "germany", "france", "netherlands", "europe"}
)

// SynonymSource provides the synonym keywords for canonical labels.
type SynonymSource interface {
	IndustrySynonyms(label string) []string
	StageSynonyms(label string) []string
}

// Scorer computes the compatibility of an entity with an investor. It holds
// no mutable state and is safe for concurrent use.
type Scorer struct {
	synonyms SynonymSource
}

func NewScorer(synonyms SynonymSource) *Scorer {
	return &Scorer{synonyms: synonyms}
}

// Score returns the 0-100 score and the reasons for it, in industry, stage,
// geography, thesis order.
func (s *Scorer) Score(entity models.Entity, investor models.Investor) models.MatchScore {
	breakdown := models.ScoreBreakdown{
		Industry:  s.IndustryScore(entity.Industry, investor.InvestmentFocus),
		Stage:     s.StageScore(entity.Stage, investor.Stages),
		Geography: GeographyScore(investor.HQLocation),
		Thesis:    ThesisScore(entity.Description, investor.InvestmentThesis),
	}

	reasons := []string{}
	if breakdown.Industry > 0 {
		reasons = append(reasons, fmt.Sprintf("Industry alignment: %s ↔ %s", *entity.Industry, investor.InvestmentFocus))
	}
	if breakdown.Stage > 0 {
		reasons = append(reasons, fmt.Sprintf("Stage match: %s fits %s", *entity.Stage, investor.Stages))
	}
	if breakdown.Geography > geographyReasonOver {
		reasons = append(reasons, "Geographic focus includes Asia/India")
	}
	if breakdown.Thesis > thesisReasonOver {
		reasons = append(reasons, "Investment thesis alignment")
	}

	return models.MatchScore{
		InvestorID:   investor.ID,
		InvestorName: investor.FirmName,
		Score:        breakdown.Total(),
		Reasons:      reasons,
		Breakdown:    breakdown,
	}
}

// IndustryScore applies the first matching rule: direct containment, a mapped
// synonym, a shared token, then a generalist investor.
func (s *Scorer) IndustryScore(industry *string, focus string) int {
	if normalizers.IsBlank(industry) {
		return 0
	}

	normalizedIndustry := normalizers.Normalize(*industry)
	normalizedFocus := normalizers.Normalize(focus)

	// An empty focus is contained in every industry and scores as a direct match.
	if strings.Contains(normalizedFocus, normalizedIndustry) || strings.Contains(normalizedIndustry, normalizedFocus) {
		return industryDirectScore
	}

	if containsAnyNormalized(normalizedFocus, s.synonyms.IndustrySynonyms(*industry)) {
		return industrySynonymScore
	}

	focusTokens := normalizers.Tokenize(normalizedFocus)
	for _, token := range normalizers.LongerThan(normalizers.Tokenize(normalizedIndustry), industryTokenMinLength) {
		if overlapsAny(token, focusTokens) {
			return industryTokenScore
		}
	}

	if containsAny(normalizedFocus, generalistMarkers) {
		return industryGeneralistScore
	}
	return 0
}

func (s *Scorer) StageScore(stage *string, investorStages string) int {
	if normalizers.IsBlank(stage) {
		return 0
	}

	normalizedStage := normalizers.Normalize(*stage)
	normalizedStages := normalizers.Normalize(investorStages)

	switch {
	case strings.Contains(normalizedStages, normalizedStage):
		return stageDirectScore
	case containsAnyNormalized(normalizedStages, s.synonyms.StageSynonyms(*stage)):
		return stageSynonymScore
	case containsAny(normalizedStages, openStageMarkers):
		return stageOpenScore
	}
	return 0
}

// GeographyScore scores the investor's HQ location only. Every investor gets
// at least the baseline.
func GeographyScore(location string) int {
	normalized := normalizers.Normalize(location)
	switch {
	case containsAny(normalized, focusRegions):
		return geographyFocusScore
	case containsAny(normalized, europeanRegions):
		return geographyEuropeScore
	}
	return geographyBaselineScore
}

// ThesisScore is the share of long description words that overlap a long
// thesis word, scaled to 30 and capped at 15. A missing description scores 5.
func ThesisScore(description *string, thesis string) int {
	if normalizers.IsBlank(description) {
		return thesisMissingScore
	}

	descriptionWords := normalizers.LongerThan(normalizers.Words(normalizers.Normalize(*description)), thesisWordMinLength)
	thesisWords := normalizers.LongerThan(normalizers.Words(normalizers.Normalize(thesis)), thesisWordMinLength)

	matches := 0
	for _, word := range descriptionWords {
		if overlapsAny(word, thesisWords) {
			matches++
		}
	}

	ratio := float64(matches) / float64(max(len(descriptionWords), 1))
	return min(thesisMaxScore, int(math.Round(ratio*thesisRatioWeight)))
}

func containsAny(text string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(text, needle) {
			return true
		}
	}
	return false
}

func containsAnyNormalized(text string, keywords []string) bool {
	for _, keyword := range keywords {
		normalized := normalizers.Normalize(keyword)
		if normalized != "" && strings.Contains(text, normalized) {
			return true
		}
	}
	return false
}

// overlapsAny reports whether token contains, or is contained in, any candidate.
func overlapsAny(token string, candidates []string) bool {
	for _, candidate := range candidates {
		if strings.Contains(candidate, token) || strings.Contains(token, candidate) {
			return true
		}
	}
	return false
}
