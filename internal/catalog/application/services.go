// Package application implements company browsing, curation, search and SEC
// ingest.
package application

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	account "github.com/sngm3741/ethical-choice/api/internal/account/domain"
	"github.com/sngm3741/ethical-choice/api/internal/catalog/domain"
)

// Repository persists companies. Lookups return an apperr NotFound for
// unknown ids.
type Repository interface {
	List(ctx context.Context, filter Filter, paging Paging) ([]domain.Company, int64, error)
	ListAll(ctx context.Context) ([]domain.Company, error)
	FindByID(ctx context.Context, id string) (*domain.Company, error)
	Replace(ctx context.Context, c domain.Company) error
	// UpsertByCIK inserts or replaces the company identified by c.CIK and
	// returns the stored record.
	UpsertByCIK(ctx context.Context, c domain.Company) (*domain.Company, error)
	FindByCIK(ctx context.Context, cik string) (*domain.Company, error)
	SearchByName(ctx context.Context, pattern string, limit int) ([]domain.Company, error)
}

// UserSearcher finds users by name for the global search.
type UserSearcher interface {
	SearchByName(ctx context.Context, pattern string, limit int) ([]account.UserSummary, error)
}

// SubmissionFetcher loads company facts from SEC EDGAR.
type SubmissionFetcher interface {
	FetchSubmission(ctx context.Context, cik string) (domain.Submission, error)
}

// Cache is the subset of the cache client used here.
type Cache interface {
	Get(ctx context.Context, key string, dest any) bool
	Set(ctx context.Context, key string, value any, ttl time.Duration)
	Delete(ctx context.Context, keys ...string)
	DeletePrefix(ctx context.Context, prefix string)
}

// Filter narrows a company listing. Keyword matches name or ticker.
type Filter struct {
	Sector   string
	Industry string
	Tag      string
	Keyword  string
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
		p.Limit = 20
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	return p
}

func (f Filter) normalize() Filter {
	f.Sector = strings.TrimSpace(f.Sector)
	f.Industry = strings.TrimSpace(f.Industry)
	f.Tag = strings.TrimSpace(f.Tag)
	f.Keyword = strings.TrimSpace(f.Keyword)
	return f
}

func listKey(f Filter, p Paging) string {
	v := url.Values{}
	if f.Sector != "" {
		v.Set("sector", f.Sector)
	}
	if f.Industry != "" {
		v.Set("industry", f.Industry)
	}
	if f.Tag != "" {
		v.Set("tag", f.Tag)
	}
	if f.Keyword != "" {
		v.Set("keyword", f.Keyword)
	}
	v.Set("page", strconv.Itoa(p.Page))
	v.Set("limit", strconv.Itoa(p.Limit))
	return v.Encode()
}

// ListResult is one page of companies.
type ListResult struct {
	Items []domain.Company `json:"companies"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
	Total int64            `json:"total"`
}

// SearchResult is the global search response.
type SearchResult struct {
	Companies []domain.Company      `json:"companies"`
	Users     []account.UserSummary `json:"users"`
}

// IngestResult reports what an EDGAR refresh did.
type IngestResult struct {
	Company       domain.Company  `json:"company"`
	Created       bool            `json:"created"`
	RecentFilings []domain.Filing `json:"recentFilings"`
}

// Service describes the catalog use cases.
type Service interface {
	List(ctx context.Context, filter Filter, paging Paging) (ListResult, error)
	Detail(ctx context.Context, id string) (*domain.Company, error)
	Replace(ctx context.Context, id string, c domain.Company) (*domain.Company, error)
	Patch(ctx context.Context, id string, patch domain.Patch) (*domain.Company, error)
	Search(ctx context.Context, query string) (SearchResult, error)
	Ingest(ctx context.Context, cik string) (*IngestResult, error)
}
