// Package application implements survey use cases over a cached repository.
package application

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/sngm3741/ethical-choice/api/internal/survey/domain"
)

// Repository persists surveys. FindByID returns an apperr NotFound for unknown
// ids.
type Repository interface {
	Insert(ctx context.Context, s *domain.Survey) error
	FindByID(ctx context.Context, id string) (*domain.Survey, error)
	// Update writes s only while the stored status is still from, and
	// returns a domain state error otherwise.
	Update(ctx context.Context, s domain.Survey, from domain.Status) error
	// AddResponse appends r only while the survey is published and the user
	// has not answered yet.
	AddResponse(ctx context.Context, id string, r domain.Response) error
	// Delete removes the survey only while it is a draft.
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter Filter, paging Paging) ([]domain.Survey, int64, error)
}

// Cache is the subset of the cache client used here.
type Cache interface {
	Get(ctx context.Context, key string, dest any) bool
	Set(ctx context.Context, key string, value any, ttl time.Duration)
	Delete(ctx context.Context, keys ...string)
	DeletePrefix(ctx context.Context, prefix string)
}

// Filter narrows a listing. An empty CreatedBy lists non-draft surveys only.
type Filter struct {
	CreatedBy string
	Status    domain.Status
}

// Paging controls pagination.
type Paging struct {
	Page  int
	Limit int
}

func (p Paging) normalize() Paging {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = 10
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	return p
}

// ListQuery is the listing request.
type ListQuery struct {
	Status domain.Status
	Mine   bool
	Paging Paging
}

func (q ListQuery) key() string {
	v := url.Values{}
	if q.Status != "" {
		v.Set("status", string(q.Status))
	}
	v.Set("page", strconv.Itoa(q.Paging.Page))
	v.Set("limit", strconv.Itoa(q.Paging.Limit))
	return v.Encode()
}

// ListResult is one page of surveys.
type ListResult struct {
	Items []domain.Survey `json:"surveys"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
	Total int64           `json:"total"`
}

// CreateCommand creates a draft.
type CreateCommand struct {
	UserID string
	Draft  domain.Draft
}

// UpdateCommand replaces a draft's content.
type UpdateCommand struct {
	ID     string
	UserID string
	Draft  domain.Draft
}

// RespondCommand submits answers.
type RespondCommand struct {
	ID      string
	UserID  string
	Answers []domain.Answer
}

// Service describes the survey use cases.
type Service interface {
	Create(ctx context.Context, cmd CreateCommand) (*domain.Survey, error)
	Publish(ctx context.Context, id, userID string) (*domain.Survey, error)
	Close(ctx context.Context, id, userID string) (*domain.Survey, error)
	AddResponse(ctx context.Context, cmd RespondCommand) (*domain.Survey, error)
	Update(ctx context.Context, cmd UpdateCommand) (*domain.Survey, error)
	Delete(ctx context.Context, id, userID string) error
	List(ctx context.Context, userID string, query ListQuery) (ListResult, error)
	Detail(ctx context.Context, id, userID string) (*domain.Survey, error)
	Responses(ctx context.Context, id, userID string) ([]domain.Response, error)
}
