// Package domain holds the company catalog model.
package domain

import (
	"strings"
	"time"

	"github.com/sngm3741/ethical-choice/api/internal/apperr"
)

// Profile is public-facing company information.
type Profile struct {
	Description string `json:"description,omitempty"`
	LogoURL     string `json:"logoUrl,omitempty"`
	Website     string `json:"website,omitempty"`
}

// Financials holds the latest reported figures.
type Financials struct {
	Revenue          *float64   `json:"revenue,omitempty"`
	NetIncome        *float64   `json:"netIncome,omitempty"`
	TotalAssets      *float64   `json:"totalAssets,omitempty"`
	TotalLiabilities *float64   `json:"totalLiabilities,omitempty"`
	MarketCap        *float64   `json:"marketCap,omitempty"`
	EPS              *float64   `json:"eps,omitempty"`
	LastUpdated      *time.Time `json:"lastUpdated,omitempty"`
}

// BoardMember is one director.
type BoardMember struct {
	Name        string `json:"name"`
	Position    string `json:"position,omitempty"`
	Independent bool   `json:"independent"`
}

// Governance describes leadership.
type Governance struct {
	CEOName         string        `json:"ceoName,omitempty"`
	CEOCompensation *float64      `json:"ceoCompensation,omitempty"`
	BoardMembers    []BoardMember `json:"boardMembers,omitempty"`
}

// ESGMetrics are 0..100 scores per dimension.
type ESGMetrics struct {
	Environmental *float64 `json:"environmental,omitempty"`
	Social        *float64 `json:"social,omitempty"`
	Governance    *float64 `json:"governance,omitempty"`
}

// Empty reports whether no dimension is scored.
func (m ESGMetrics) Empty() bool {
	return m.Environmental == nil && m.Social == nil && m.Governance == nil
}

// Proceeding is an open legal matter.
type Proceeding struct {
	Title       string     `json:"title"`
	Status      string     `json:"status,omitempty"`
	FiledAt     *time.Time `json:"filedAt,omitempty"`
	Description string     `json:"description,omitempty"`
}

// Legal groups proceedings and disclosed risks.
type Legal struct {
	ActiveProceedings []Proceeding `json:"activeProceedings,omitempty"`
	RiskFactors       []string     `json:"riskFactors,omitempty"`
}

// Company is a catalog entry.
type Company struct {
	ID                  string             `json:"id"`
	Name                string             `json:"name"`
	CIK                 string             `json:"cik,omitempty"`
	Ticker              string             `json:"ticker,omitempty"`
	Sector              string             `json:"sector"`
	Industry            string             `json:"industry,omitempty"`
	Tags                []string           `json:"tags,omitempty"`
	Profile             Profile            `json:"profile"`
	Financials          Financials         `json:"financials"`
	Governance          Governance         `json:"governance"`
	ESGMetrics          ESGMetrics         `json:"esgMetrics"`
	SustainabilityScore *float64           `json:"sustainabilityScore,omitempty"`
	Ratings             map[string]float64 `json:"ratings,omitempty"`
	Legal               Legal              `json:"legal"`
	CreatedAt           time.Time          `json:"createdAt"`
	UpdatedAt           time.Time          `json:"updatedAt"`
}

// Validate checks the invariants shared by create and replace.
func (c Company) Validate() error {
	var fields []apperr.FieldError
	if strings.TrimSpace(c.Name) == "" {
		fields = append(fields, apperr.FieldError{Field: "name", Message: "name is required"})
	}
	if strings.TrimSpace(c.Sector) == "" {
		fields = append(fields, apperr.FieldError{Field: "sector", Message: "sector is required"})
	}
	check := func(field string, v *float64) {
		if v != nil && (*v < 0 || *v > 100) {
			fields = append(fields, apperr.FieldError{Field: field, Message: field + " must be between 0 and 100"})
		}
	}
	check("esgMetrics.environmental", c.ESGMetrics.Environmental)
	check("esgMetrics.social", c.ESGMetrics.Social)
	check("esgMetrics.governance", c.ESGMetrics.Governance)
	if len(fields) > 0 {
		return apperr.ValidationFields("Validation failed", fields)
	}
	return nil
}

// NormalizeCIK strips non-digits and zero-pads to ten digits.
func NormalizeCIK(raw string) (string, error) {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		if r < '0' || r > '9' {
			return "", apperr.Validationf("invalid CIK %q", raw)
		}
		b.WriteRune(r)
	}
	digits := strings.TrimLeft(b.String(), "0")
	if digits == "" || len(digits) > 10 {
		return "", apperr.Validationf("invalid CIK %q", raw)
	}
	return strings.Repeat("0", 10-len(digits)) + digits, nil
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Name                *string            `json:"name,omitempty"`
	Ticker              *string            `json:"ticker,omitempty"`
	Sector              *string            `json:"sector,omitempty"`
	Industry            *string            `json:"industry,omitempty"`
	Tags                []string           `json:"tags,omitempty"`
	Profile             *Profile           `json:"profile,omitempty"`
	Financials          *Financials        `json:"financials,omitempty"`
	Governance          *Governance        `json:"governance,omitempty"`
	ESGMetrics          *ESGMetrics        `json:"esgMetrics,omitempty"`
	SustainabilityScore *float64           `json:"sustainabilityScore,omitempty"`
	Ratings             map[string]float64 `json:"ratings,omitempty"`
	Legal               *Legal             `json:"legal,omitempty"`
}

// Apply returns a copy of c with the patch applied.
func (p Patch) Apply(c Company) Company {
	if p.Name != nil {
		c.Name = strings.TrimSpace(*p.Name)
	}
	if p.Ticker != nil {
		c.Ticker = strings.TrimSpace(*p.Ticker)
	}
	if p.Sector != nil {
		c.Sector = strings.TrimSpace(*p.Sector)
	}
	if p.Industry != nil {
		c.Industry = strings.TrimSpace(*p.Industry)
	}
	if p.Tags != nil {
		c.Tags = append([]string{}, p.Tags...)
	}
	if p.Profile != nil {
		c.Profile = *p.Profile
	}
	if p.Financials != nil {
		c.Financials = *p.Financials
	}
	if p.Governance != nil {
		c.Governance = *p.Governance
	}
	if p.ESGMetrics != nil {
		c.ESGMetrics = *p.ESGMetrics
	}
	if p.SustainabilityScore != nil {
		c.SustainabilityScore = p.SustainabilityScore
	}
	if p.Ratings != nil {
		c.Ratings = p.Ratings
	}
	if p.Legal != nil {
		c.Legal = *p.Legal
	}
	return c
}

// Filing is a recent SEC filing reference.
type Filing struct {
	AccessionNumber string `json:"accessionNumber"`
	Form            string `json:"form"`
	FilingDate      string `json:"filingDate"`
	PrimaryDocument string `json:"primaryDocument,omitempty"`
}

// Submission is the subset of an EDGAR submissions document used for ingest.
type Submission struct {
	CIK           string
	Name          string
	Tickers       []string
	SICCode       string
	SICDesc       string
	Website       string
	Description   string
	RecentFilings []Filing
}

// FromSubmission merges EDGAR data into c, keeping curated fields intact.
func FromSubmission(c Company, s Submission) Company {
	c.CIK = s.CIK
	if strings.TrimSpace(s.Name) != "" {
		c.Name = strings.TrimSpace(s.Name)
	}
	if len(s.Tickers) > 0 && c.Ticker == "" {
		c.Ticker = s.Tickers[0]
	}
	if c.Sector == "" {
		c.Sector = "Unclassified"
		if s.SICDesc != "" {
			c.Sector = s.SICDesc
		}
	}
	if c.Industry == "" && s.SICCode != "" {
		c.Industry = "SIC " + s.SICCode
	}
	if c.Profile.Website == "" {
		c.Profile.Website = s.Website
	}
	if c.Profile.Description == "" {
		c.Profile.Description = s.Description
	}
	return c
}
