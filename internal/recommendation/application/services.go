// Package application implements the recommendation use cases: cached reads,
// writes that invalidate the owner's cache prefix, and survey-driven scoring.
package application

import (
	"context"
	"time"

	account "github.com/sngm3741/ethical-choice/api/internal/account/domain"
	catalog "github.com/sngm3741/ethical-choice/api/internal/catalog/domain"
	"github.com/sngm3741/ethical-choice/api/internal/recommendation/domain"
)

// Repository persists recommendations. Lookups scoped by userID return an
// apperr NotFound when the record is absent or owned by someone else.
type Repository interface {
	Find(ctx context.Context, userID string, criteria domain.Criteria) ([]domain.Recommendation, error)
	FindByID(ctx context.Context, id, userID string) (*domain.Recommendation, error)
	Insert(ctx context.Context, rec *domain.Recommendation) error
	Update(ctx context.Context, id, userID string, changes Changes) (*domain.Recommendation, error)
	Delete(ctx context.Context, id, userID string) error
	Stats(ctx context.Context, userID string) (domain.Stats, error)
}

// CompanySource lists the catalog for scoring runs.
type CompanySource interface {
	ListAll(ctx context.Context) ([]catalog.Company, error)
}

// UserSource loads the survey responses that drive scoring.
type UserSource interface {
	FindByID(ctx context.Context, id string) (*account.User, error)
}

// Cache is the subset of the cache client used here.
type Cache interface {
	Get(ctx context.Context, key string, dest any) bool
	Set(ctx context.Context, key string, value any, ttl time.Duration)
	DeletePrefix(ctx context.Context, prefix string)
	Generation(ctx context.Context, scope string) string
	BumpGeneration(ctx context.Context, scope string)
}

// Notifier tells a user about freshly computed recommendations.
type Notifier func(ctx context.Context, userID, message string) error

// Changes is a partial update. Nil fields are left untouched.
type Changes struct {
	Score    *float64
	Feedback *string
	Category *domain.Category
	Status   *domain.Status
}

// SaveCommand creates a recommendation.
type SaveCommand struct {
	UserID    string
	CompanyID string
	Score     float64
	Category  domain.Category
	Feedback  string
	Reason    string
}

// UpdateCommand rescores an existing recommendation.
type UpdateCommand struct {
	ID       string
	UserID   string
	Score    float64
	Feedback *string
	Category *domain.Category
}

// Service describes the recommendation use cases.
type Service interface {
	Generate(ctx context.Context, userID string, criteria domain.Criteria) ([]domain.Recommendation, error)
	Save(ctx context.Context, cmd SaveCommand) (*domain.Recommendation, error)
	Update(ctx context.Context, cmd UpdateCommand) (*domain.Recommendation, error)
	Delete(ctx context.Context, id, userID string) error
	GetByID(ctx context.Context, id, userID string) (*domain.Recommendation, error)
	Archive(ctx context.Context, id, userID string) (*domain.Recommendation, error)
	Stats(ctx context.Context, userID string) (domain.Stats, error)
	Compute(ctx context.Context, userID string) ([]domain.Recommendation, error)
}

// Options tunes caching and scoring.
type Options struct {
	CacheTTL     time.Duration
	MinScore     float64
	ComputeLimit int
}
