// Package domain holds the recommendation model and the survey-driven
// scoring rules.
package domain

import (
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sngm3741/ethical-choice/api/internal/apperr"
	catalog "github.com/sngm3741/ethical-choice/api/internal/catalog/domain"
)

// Category is the dimension a recommendation is about.
type Category string

const (
	CategoryFinancial     Category = "financial"
	CategoryEnvironmental Category = "environmental"
	CategorySocial        Category = "social"
	CategoryGovernance    Category = "governance"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryFinancial, CategoryEnvironmental, CategorySocial, CategoryGovernance:
		return true
	}
	return false
}

// Status is the lifecycle state.
type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusArchived
}

const (
	MinScore          = 0
	MaxScore          = 100
	MaxFeedbackLength = 500
)

// Metadata records how a recommendation was produced.
type Metadata struct {
	Source    string `json:"source,omitempty"`
	Algorithm string `json:"algorithm,omitempty"`
	Version   string `json:"version,omitempty"`
}

// CompanyRef is the joined company summary.
type CompanyRef struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Ticker     string             `json:"ticker,omitempty"`
	Sector     string             `json:"sector,omitempty"`
	Industry   string             `json:"industry,omitempty"`
	ESGMetrics catalog.ESGMetrics `json:"esgMetrics"`
}

// Recommendation is a scored pairing of a user and a company.
type Recommendation struct {
	ID        string      `json:"id"`
	UserID    string      `json:"userId"`
	CompanyID string      `json:"companyId"`
	Company   *CompanyRef `json:"company,omitempty"`
	Score     float64     `json:"score"`
	Category  Category    `json:"category,omitempty"`
	Status    Status      `json:"status"`
	Feedback  string      `json:"feedback,omitempty"`
	Reason    string      `json:"reason,omitempty"`
	Metadata  Metadata    `json:"metadata"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// ErrScoreRange is returned for scores outside [0,100] or NaN.
var ErrScoreRange = apperr.Validation("Score must be between 0 and 100")

// ValidateScore enforces 0 <= score <= 100.
func ValidateScore(score float64) error {
	if math.IsNaN(score) || score < MinScore || score > MaxScore {
		return ErrScoreRange
	}
	return nil
}

// ValidateFeedback enforces the feedback length limit.
func ValidateFeedback(feedback string) error {
	if len([]rune(feedback)) > MaxFeedbackLength {
		return apperr.Validationf("Feedback cannot exceed %d characters", MaxFeedbackLength)
	}
	return nil
}

// ValidateCategory accepts the empty category.
func ValidateCategory(c Category) error {
	if c != "" && !c.Valid() {
		return apperr.Validationf("Invalid category %q", c)
	}
	return nil
}

// Sort fields accepted by Criteria.
const (
	SortByScore     = "score"
	SortByCreatedAt = "createdAt"
	SortByUpdatedAt = "updatedAt"
)

// Criteria filters and pages a user's recommendations.
type Criteria struct {
	Category  Category
	Status    Status
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}

// Normalize fills defaults: score descending, page 1, limit 20.
func (c Criteria) Normalize() Criteria {
	if c.Page <= 0 {
		c.Page = 1
	}
	if c.Limit <= 0 {
		c.Limit = 20
	}
	if c.Limit > 100 {
		c.Limit = 100
	}
	switch c.SortBy {
	case SortByScore, SortByCreatedAt, SortByUpdatedAt:
	default:
		c.SortBy = SortByScore
	}
	c.SortOrder = strings.ToLower(c.SortOrder)
	if c.SortOrder != "asc" {
		c.SortOrder = "desc"
	}
	return c
}

// Validate rejects unknown enum values.
func (c Criteria) Validate() error {
	if err := ValidateCategory(c.Category); err != nil {
		return err
	}
	if c.Status != "" && !c.Status.Valid() {
		return apperr.Validationf("Invalid status %q", c.Status)
	}
	return nil
}

// Key is the deterministic cache-key fragment of the normalized criteria.
func (c Criteria) Key() string {
	n := c.Normalize()
	v := url.Values{}
	if n.Category != "" {
		v.Set("category", string(n.Category))
	}
	if n.Status != "" {
		v.Set("status", string(n.Status))
	}
	v.Set("page", strconv.Itoa(n.Page))
	v.Set("limit", strconv.Itoa(n.Limit))
	v.Set("sortBy", n.SortBy)
	v.Set("sortOrder", n.SortOrder)
	return v.Encode()
}

// CategoryStats summarizes one category.
type CategoryStats struct {
	Category     Category `json:"category"`
	Count        int      `json:"count"`
	AverageScore float64  `json:"averageScore"`
	MinScore     float64  `json:"minScore"`
	MaxScore     float64  `json:"maxScore"`
}

// Stats summarizes a user's recommendations.
type Stats struct {
	Total        int             `json:"total"`
	Active       int             `json:"active"`
	Archived     int             `json:"archived"`
	AverageScore float64         `json:"averageScore"`
	ByCategory   []CategoryStats `json:"byCategory"`
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
