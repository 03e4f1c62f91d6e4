package application

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sngm3741/ethical-choice/api/internal/apperr"
	"github.com/sngm3741/ethical-choice/api/internal/logging"
	"github.com/sngm3741/ethical-choice/api/internal/metrics"
	"github.com/sngm3741/ethical-choice/api/internal/recommendation/domain"
)

const keyPrefix = "recommendations:"

// UserPrefix is the cache prefix holding every entry derived from userID's
// recommendations.
func UserPrefix(userID string) string {
	return keyPrefix + userID + ":"
}

func generationScope(userID string) string {
	return keyPrefix + userID
}

// Keys carry the generation read before the store query, so a result that
// races an invalidation lands under a retired key.
func listKey(userID, gen string, criteria domain.Criteria) string {
	return UserPrefix(userID) + gen + ":" + criteria.Key()
}

func statsKey(userID, gen string) string {
	return UserPrefix(userID) + gen + ":stats"
}

type recommendationService struct {
	repo      Repository
	companies CompanySource
	users     UserSource
	cache     Cache
	notify    Notifier
	opts      Options
	logger    zerolog.Logger
	now       func() time.Time
}

// NewService wires the recommendation service. notify may be nil.
func NewService(repo Repository, companies CompanySource, users UserSource, cache Cache, notify Notifier, opts Options, logger zerolog.Logger) Service {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Hour
	}
	if opts.ComputeLimit <= 0 {
		opts.ComputeLimit = 10
	}
	return &recommendationService{
		repo:      repo,
		companies: companies,
		users:     users,
		cache:     cache,
		notify:    notify,
		opts:      opts,
		logger:    logger.With().Str("service", "recommendation").Logger(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *recommendationService) Generate(ctx context.Context, userID string, criteria domain.Criteria) ([]domain.Recommendation, error) {
	if err := criteria.Validate(); err != nil {
		return nil, err
	}
	criteria = criteria.Normalize()
	key := listKey(userID, s.cache.Generation(ctx, generationScope(userID)), criteria)

	var cached []domain.Recommendation
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	recs, err := s.repo.Find(ctx, userID, criteria)
	if err != nil {
		return nil, fmt.Errorf("find recommendations for user %s: %w", userID, err)
	}
	if recs == nil {
		recs = []domain.Recommendation{}
	}
	s.cache.Set(ctx, key, recs, s.opts.CacheTTL)
	return recs, nil
}

func (s *recommendationService) Save(ctx context.Context, cmd SaveCommand) (*domain.Recommendation, error) {
	if err := domain.ValidateScore(cmd.Score); err != nil {
		return nil, err
	}
	if err := domain.ValidateCategory(cmd.Category); err != nil {
		return nil, err
	}
	if err := domain.ValidateFeedback(cmd.Feedback); err != nil {
		return nil, err
	}
	if cmd.CompanyID == "" {
		return nil, apperr.Validation("Company id is required")
	}

	now := s.now()
	rec := &domain.Recommendation{
		UserID:    cmd.UserID,
		CompanyID: cmd.CompanyID,
		Score:     cmd.Score,
		Category:  cmd.Category,
		Status:    domain.StatusActive,
		Feedback:  cmd.Feedback,
		Reason:    cmd.Reason,
		Metadata:  domain.Metadata{Source: "manual"},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Insert(ctx, rec); err != nil {
		return nil, fmt.Errorf("insert recommendation: %w", err)
	}
	metrics.RecommendationsSaved.Inc()
	s.invalidate(ctx, cmd.UserID)
	return rec, nil
}

func (s *recommendationService) Update(ctx context.Context, cmd UpdateCommand) (*domain.Recommendation, error) {
	if err := domain.ValidateScore(cmd.Score); err != nil {
		return nil, err
	}
	if cmd.Category != nil {
		if err := domain.ValidateCategory(*cmd.Category); err != nil {
			return nil, err
		}
	}
	if cmd.Feedback != nil {
		if err := domain.ValidateFeedback(*cmd.Feedback); err != nil {
			return nil, err
		}
	}

	score := cmd.Score
	rec, err := s.repo.Update(ctx, cmd.ID, cmd.UserID, Changes{
		Score:    &score,
		Feedback: cmd.Feedback,
		Category: cmd.Category,
	})
	if err != nil {
		return nil, fmt.Errorf("update recommendation %s: %w", cmd.ID, err)
	}
	s.invalidate(ctx, cmd.UserID)
	return rec, nil
}

func (s *recommendationService) Delete(ctx context.Context, id, userID string) error {
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		return fmt.Errorf("delete recommendation %s: %w", id, err)
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *recommendationService) GetByID(ctx context.Context, id, userID string) (*domain.Recommendation, error) {
	rec, err := s.repo.FindByID(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("find recommendation %s: %w", id, err)
	}
	return rec, nil
}

func (s *recommendationService) Archive(ctx context.Context, id, userID string) (*domain.Recommendation, error) {
	status := domain.StatusArchived
	rec, err := s.repo.Update(ctx, id, userID, Changes{Status: &status})
	if err != nil {
		return nil, fmt.Errorf("archive recommendation %s: %w", id, err)
	}
	s.invalidate(ctx, userID)
	return rec, nil
}

func (s *recommendationService) Stats(ctx context.Context, userID string) (domain.Stats, error) {
	key := statsKey(userID, s.cache.Generation(ctx, generationScope(userID)))
	var cached domain.Stats
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}
	stats, err := s.repo.Stats(ctx, userID)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("recommendation stats for user %s: %w", userID, err)
	}
	if stats.ByCategory == nil {
		stats.ByCategory = []domain.CategoryStats{}
	}
	s.cache.Set(ctx, key, stats, s.opts.CacheTTL)
	return stats, nil
}

func (s *recommendationService) Compute(ctx context.Context, userID string) ([]domain.Recommendation, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", userID, err)
	}
	if user.SurveyResponses == nil {
		return nil, apperr.Validation("Complete the onboarding survey before computing recommendations")
	}
	companies, err := s.companies.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}

	metrics.RecommendationsComputed.Inc()
	ranked := domain.Rank(companies, *user.SurveyResponses, s.opts.MinScore, s.opts.ComputeLimit)
	now := s.now()
	saved := make([]domain.Recommendation, 0, len(ranked))
	for _, cand := range ranked {
		rec := &domain.Recommendation{
			UserID:    userID,
			CompanyID: cand.Company.ID,
			Score:     cand.Score,
			Category:  cand.Category,
			Status:    domain.StatusActive,
			Reason:    cand.Reason,
			Metadata: domain.Metadata{
				Source:    domain.SourceSurvey,
				Algorithm: domain.AlgorithmName,
				Version:   domain.AlgorithmVersion,
			},
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.repo.Insert(ctx, rec); err != nil {
			s.invalidate(ctx, userID)
			return nil, fmt.Errorf("insert computed recommendation: %w", err)
		}
		metrics.RecommendationsSaved.Inc()
		rec.Company = &domain.CompanyRef{
			ID:         cand.Company.ID,
			Name:       cand.Company.Name,
			Ticker:     cand.Company.Ticker,
			Sector:     cand.Company.Sector,
			Industry:   cand.Company.Industry,
			ESGMetrics: cand.Company.ESGMetrics,
		}
		saved = append(saved, *rec)
	}
	s.invalidate(ctx, userID)

	logging.Ctx(ctx, s.logger).Info().
		Str("user_id", userID).
		Int("companies", len(companies)).
		Int("saved", len(saved)).
		Msg("recommendations computed")

	if s.notify != nil && len(saved) > 0 {
		msg := fmt.Sprintf("%d new recommendations are ready", len(saved))
		if err := s.notify(ctx, userID, msg); err != nil {
			logging.Ctx(ctx, s.logger).Warn().Err(err).Str("user_id", userID).Msg("recommendation notification failed")
		}
	}
	return saved, nil
}

func (s *recommendationService) invalidate(ctx context.Context, userID string) {
	s.cache.BumpGeneration(ctx, generationScope(userID))
	s.cache.DeletePrefix(ctx, UserPrefix(userID))
}
