package domain

import (
	"sort"
	"strings"

	account "github.com/sngm3741/ethical-choice/api/internal/account/domain"
	catalog "github.com/sngm3741/ethical-choice/api/internal/catalog/domain"
)

// Scoring constants for Compute.
const (
	AlgorithmName    = "esg-weighted"
	AlgorithmVersion = "1"
	SourceSurvey     = "survey"

	defaultWeight  = 3
	tagBonus       = 5.0
	maxTagBonus    = 15.0
	specificBonus  = 10.0
	financialFloor = 50.0
	computedReason = "Based on your survey responses"
)

// Candidate is a scored company before persistence.
type Candidate struct {
	Company  catalog.Company
	Score    float64
	Category Category
	Reason   string
}

type dimension struct {
	category Category
	key      string
	value    func(catalog.ESGMetrics) *float64
}

var dimensions = []dimension{
	{CategoryEnvironmental, "environmental", func(m catalog.ESGMetrics) *float64 { return m.Environmental }},
	{CategorySocial, "social", func(m catalog.ESGMetrics) *float64 { return m.Social }},
	{CategoryGovernance, "governance", func(m catalog.ESGMetrics) *float64 { return m.Governance }},
}

func weight(responses account.SurveyResponses, key string) int {
	w, ok := responses.ValueImportance[key]
	if !ok || w < 1 || w > 5 {
		return defaultWeight
	}
	return w
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(target)) {
			return true
		}
	}
	return false
}

// ScoreCompany applies the rule table to one company. ok is false when the
// company is excluded or cannot be scored.
func ScoreCompany(c catalog.Company, responses account.SurveyResponses) (Candidate, bool) {
	if containsFold(responses.StopSupporting, c.Name) || containsFold(responses.StopSupporting, c.ID) {
		return Candidate{}, false
	}

	var (
		weighted    float64
		weights     float64
		bestWeighed = -1.0
		category    Category
	)
	for _, d := range dimensions {
		v := d.value(c.ESGMetrics)
		if v == nil {
			continue
		}
		w := float64(weight(responses, d.key))
		weighted += w * *v
		weights += w
		if w**v > bestWeighed {
			bestWeighed = w * *v
			category = d.category
		}
	}

	var base float64
	switch {
	case weights > 0:
		base = weighted / weights
	case c.Financials.NetIncome != nil && *c.Financials.NetIncome > 0:
		base = financialFloor
		category = CategoryFinancial
	default:
		return Candidate{}, false
	}

	bonus := 0.0
	for _, tag := range c.Tags {
		if containsFold(responses.KeyValues, tag) {
			bonus += tagBonus
		}
	}
	if bonus > maxTagBonus {
		bonus = maxTagBonus
	}
	if containsFold(responses.SpecificCompanies, c.Name) || containsFold(responses.SpecificCompanies, c.ID) {
		bonus += specificBonus
	}

	score := base + bonus
	if score < MinScore {
		score = MinScore
	}
	if score > MaxScore {
		score = MaxScore
	}
	return Candidate{
		Company:  c,
		Score:    Round1(score),
		Category: category,
		Reason:   computedReason,
	}, true
}

// Rank scores every company, drops those below minScore and returns the best
// limit candidates, highest score first. Ties keep catalog order.
func Rank(companies []catalog.Company, responses account.SurveyResponses, minScore float64, limit int) []Candidate {
	candidates := make([]Candidate, 0, len(companies))
	for _, c := range companies {
		cand, ok := ScoreCompany(c, responses)
		if !ok || cand.Score < minScore {
			continue
		}
		candidates = append(candidates, cand)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}
