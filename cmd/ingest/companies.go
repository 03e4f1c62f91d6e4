package main

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/sngm3741/ethical-choice/api/internal/catalog/domain"
)

type sectorSample struct {
	sector     string
	industries []string
	tags       []string
}

var sectors = []sectorSample{
	{"Technology", []string{"Software", "Semiconductors", "Cloud Services"}, []string{"remote-friendly", "innovation"}},
	{"Energy", []string{"Solar", "Wind", "Oil & Gas"}, []string{"renewables", "infrastructure"}},
	{"Healthcare", []string{"Pharmaceuticals", "Medical Devices", "Biotech"}, []string{"research", "patient-care"}},
	{"Consumer Goods", []string{"Apparel", "Food & Beverage", "Household"}, []string{"fair-trade", "retail"}},
	{"Financials", []string{"Banking", "Insurance", "Asset Management"}, []string{"community-lending", "fintech"}},
}

var namePrefixes = []string{"Green", "Blue", "North", "Clear", "Bright", "True", "Open", "Summit"}
var nameSuffixes = []string{"Works", "Labs", "Holdings", "Partners", "Systems", "Collective", "Group"}

// generateCompanies builds n sample companies with unique names and scores in
// range. The same rng seed yields the same catalog.
func generateCompanies(rng *rand.Rand, n int, now time.Time) []domain.Company {
	out := make([]domain.Company, 0, n)
	for i := 0; i < n; i++ {
		s := sectors[rng.Intn(len(sectors))]
		name := fmt.Sprintf("%s %s %d",
			namePrefixes[rng.Intn(len(namePrefixes))],
			nameSuffixes[rng.Intn(len(nameSuffixes))],
			i+1,
		)

		env, social, gov := score(rng), score(rng), score(rng)
		sustainability := round1((env + social + gov) / 3)
		revenue := float64(rng.Intn(900)+100) * 1e6
		netIncome := revenue * (rng.Float64()*0.3 - 0.05)

		out = append(out, domain.Company{
			Name:     name,
			Ticker:   fmt.Sprintf("S%03d", i+1),
			Sector:   s.sector,
			Industry: s.industries[rng.Intn(len(s.industries))],
			Tags:     append([]string(nil), s.tags...),
			Profile: domain.Profile{
				Description: fmt.Sprintf("%s is a sample %s company.", name, s.sector),
			},
			Financials: domain.Financials{
				Revenue:     &revenue,
				NetIncome:   &netIncome,
				LastUpdated: &now,
			},
			ESGMetrics: domain.ESGMetrics{
				Environmental: &env,
				Social:        &social,
				Governance:    &gov,
			},
			SustainabilityScore: &sustainability,
			CreatedAt:           now,
			UpdatedAt:           now,
		})
	}
	return out
}

func score(rng *rand.Rand) float64 {
	return round1(20 + rng.Float64()*80)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
