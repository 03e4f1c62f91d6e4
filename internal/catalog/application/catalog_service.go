package application

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	account "github.com/sngm3741/ethical-choice/api/internal/account/domain"
	"github.com/sngm3741/ethical-choice/api/internal/apperr"
	"github.com/sngm3741/ethical-choice/api/internal/catalog/domain"
	"github.com/sngm3741/ethical-choice/api/internal/logging"
)

const (
	keyPrefix  = "companies:"
	listPrefix = keyPrefix + "list:"

	// MinSearchLength is the shortest accepted search query.
	MinSearchLength = 2
	searchLimit     = 10
)

// ErrCompanyNotFound is returned for unknown company ids.
var ErrCompanyNotFound = apperr.NotFound("Company not found")

func detailKey(id string) string {
	return keyPrefix + id
}

type catalogService struct {
	repo   Repository
	users  UserSearcher
	sec    SubmissionFetcher
	cache  Cache
	ttl    time.Duration
	logger zerolog.Logger
	now    func() time.Time
}

// NewService wires the catalog service. sec may be nil when ingest is disabled.
func NewService(repo Repository, users UserSearcher, sec SubmissionFetcher, cache Cache, ttl time.Duration, logger zerolog.Logger) Service {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &catalogService{
		repo:   repo,
		users:  users,
		sec:    sec,
		cache:  cache,
		ttl:    ttl,
		logger: logger.With().Str("service", "catalog").Logger(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *catalogService) List(ctx context.Context, filter Filter, paging Paging) (ListResult, error) {
	filter = filter.normalize()
	paging = paging.normalize()
	key := listPrefix + listKey(filter, paging)

	var cached ListResult
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	companies, total, err := s.repo.List(ctx, filter, paging)
	if err != nil {
		return ListResult{}, fmt.Errorf("list companies: %w", err)
	}
	if companies == nil {
		companies = []domain.Company{}
	}
	result := ListResult{Items: companies, Page: paging.Page, Limit: paging.Limit, Total: total}
	s.cache.Set(ctx, key, result, s.ttl)
	return result, nil
}

func (s *catalogService) Detail(ctx context.Context, id string) (*domain.Company, error) {
	var cached domain.Company
	if s.cache.Get(ctx, detailKey(id), &cached) {
		return &cached, nil
	}
	company, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, detailKey(id), company, s.ttl)
	return company, nil
}

func (s *catalogService) find(ctx context.Context, id string) (*domain.Company, error) {
	company, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, ErrCompanyNotFound
		}
		return nil, fmt.Errorf("find company %s: %w", id, err)
	}
	return company, nil
}

func (s *catalogService) Replace(ctx context.Context, id string, c domain.Company) (*domain.Company, error) {
	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	c.ID = current.ID
	c.CreatedAt = current.CreatedAt
	return s.store(ctx, c)
}

func (s *catalogService) Patch(ctx context.Context, id string, patch domain.Patch) (*domain.Company, error) {
	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.store(ctx, patch.Apply(*current))
}

func (s *catalogService) store(ctx context.Context, c domain.Company) (*domain.Company, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.Sector = strings.TrimSpace(c.Sector)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.UpdatedAt = s.now()
	if err := s.repo.Replace(ctx, c); err != nil {
		if apperr.IsNotFound(err) {
			return nil, ErrCompanyNotFound
		}
		return nil, fmt.Errorf("replace company %s: %w", c.ID, err)
	}
	s.invalidate(ctx, c.ID)
	logging.Ctx(ctx, s.logger).Info().Str("company_id", c.ID).Msg("company updated")
	return &c, nil
}

func (s *catalogService) invalidate(ctx context.Context, id string) {
	s.cache.Delete(ctx, detailKey(id))
	s.cache.DeletePrefix(ctx, listPrefix)
}

func (s *catalogService) Search(ctx context.Context, query string) (SearchResult, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < MinSearchLength {
		return SearchResult{}, apperr.Validationf("Search query must be at least %d characters", MinSearchLength)
	}
	// User input is matched literally.
	pattern := regexp.QuoteMeta(query)

	companies, err := s.repo.SearchByName(ctx, pattern, searchLimit)
	if err != nil {
		return SearchResult{}, fmt.Errorf("search companies: %w", err)
	}
	result := SearchResult{Companies: companies}
	if s.users != nil {
		result.Users, err = s.users.SearchByName(ctx, pattern, searchLimit)
		if err != nil {
			return SearchResult{}, fmt.Errorf("search users: %w", err)
		}
	}
	if result.Companies == nil {
		result.Companies = []domain.Company{}
	}
	if result.Users == nil {
		result.Users = []account.UserSummary{}
	}
	return result, nil
}

func (s *catalogService) Ingest(ctx context.Context, rawCIK string) (*IngestResult, error) {
	if s.sec == nil {
		return nil, apperr.Validation("SEC ingest is not configured")
	}
	cik, err := domain.NormalizeCIK(rawCIK)
	if err != nil {
		return nil, err
	}

	submission, err := s.sec.FetchSubmission(ctx, cik)
	if err != nil {
		return nil, fmt.Errorf("fetch submission for cik %s: %w", cik, err)
	}

	now := s.now()
	existing, err := s.repo.FindByCIK(ctx, cik)
	created := false
	switch {
	case err == nil:
	case apperr.IsNotFound(err):
		created = true
		existing = &domain.Company{CreatedAt: now}
	default:
		return nil, fmt.Errorf("find company by cik %s: %w", cik, err)
	}

	merged := domain.FromSubmission(*existing, submission)
	merged.UpdatedAt = now
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	stored, err := s.repo.UpsertByCIK(ctx, merged)
	if err != nil {
		return nil, fmt.Errorf("upsert company cik %s: %w", cik, err)
	}
	s.invalidate(ctx, stored.ID)

	logging.Ctx(ctx, s.logger).Info().
		Str("cik", cik).
		Str("company_id", stored.ID).
		Bool("created", created).
		Msg("company ingested from sec edgar")

	filings := submission.RecentFilings
	if filings == nil {
		filings = []domain.Filing{}
	}
	return &IngestResult{Company: *stored, Created: created, RecentFilings: filings}, nil
}
