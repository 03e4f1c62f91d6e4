package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sngm3741/ethical-choice/api/internal/apperr"
	"github.com/sngm3741/ethical-choice/api/internal/logging"
	"github.com/sngm3741/ethical-choice/api/internal/survey/domain"
)

const (
	listPrefix   = "surveys:list:"
	userPrefix   = "surveys:user:"
	detailPrefix = "surveys:detail:"
)

// ErrSurveyNotFound hides drafts from everyone but their creator.
var ErrSurveyNotFound = apperr.NotFound("Survey not found")

type surveyService struct {
	repo   Repository
	cache  Cache
	ttl    time.Duration
	logger zerolog.Logger
	now    func() time.Time
	newID  domain.NewIDFunc
}

// NewService wires the survey service.
func NewService(repo Repository, cache Cache, ttl time.Duration, logger zerolog.Logger) Service {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &surveyService{
		repo:   repo,
		cache:  cache,
		ttl:    ttl,
		logger: logger.With().Str("service", "survey").Logger(),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

func (s *surveyService) Create(ctx context.Context, cmd CreateCommand) (*domain.Survey, error) {
	survey, err := domain.New(cmd.UserID, cmd.Draft, s.newID, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Insert(ctx, &survey); err != nil {
		return nil, fmt.Errorf("insert survey: %w", err)
	}
	s.invalidate(ctx, survey)
	logging.Ctx(ctx, s.logger).Info().Str("survey_id", survey.ID).Str("user_id", cmd.UserID).Msg("survey created")
	return &survey, nil
}

func (s *surveyService) Publish(ctx context.Context, id, userID string) (*domain.Survey, error) {
	return s.transition(ctx, id, userID, func(sv domain.Survey) (domain.Survey, error) {
		return sv.Publish(userID, s.now())
	})
}

func (s *surveyService) Close(ctx context.Context, id, userID string) (*domain.Survey, error) {
	return s.transition(ctx, id, userID, func(sv domain.Survey) (domain.Survey, error) {
		return sv.Close(userID, s.now())
	})
}

func (s *surveyService) Update(ctx context.Context, cmd UpdateCommand) (*domain.Survey, error) {
	return s.transition(ctx, cmd.ID, cmd.UserID, func(sv domain.Survey) (domain.Survey, error) {
		return sv.Update(cmd.UserID, cmd.Draft, s.newID, s.now())
	})
}

// transition applies a state change to the stored survey. The write is
// conditional on the status that was read, so a concurrent transition makes
// it fail instead of overwriting.
func (s *surveyService) transition(ctx context.Context, id, userID string, apply func(domain.Survey) (domain.Survey, error)) (*domain.Survey, error) {
	current, err := s.fresh(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := apply(*current)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, next, current.Status); err != nil {
		s.invalidate(ctx, *current)
		return nil, fmt.Errorf("update survey %s: %w", id, err)
	}
	s.invalidate(ctx, next)
	view := next.ViewFor(userID)
	return &view, nil
}

func (s *surveyService) AddResponse(ctx context.Context, cmd RespondCommand) (*domain.Survey, error) {
	current, err := s.fresh(ctx, cmd.ID)
	if err != nil {
		return nil, err
	}
	resp, err := current.NewResponse(cmd.UserID, cmd.Answers, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.AddResponse(ctx, cmd.ID, resp); err != nil {
		return nil, fmt.Errorf("add response to survey %s: %w", cmd.ID, err)
	}
	current.Responses = append(current.Responses, resp)
	s.invalidate(ctx, *current)
	view := current.ViewFor(cmd.UserID)
	return &view, nil
}

func (s *surveyService) Delete(ctx context.Context, id, userID string) error {
	current, err := s.fresh(ctx, id)
	if err != nil {
		return err
	}
	if err := current.CheckEditable(userID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		s.invalidate(ctx, *current)
		return fmt.Errorf("delete survey %s: %w", id, err)
	}
	s.invalidate(ctx, *current)
	return nil
}

func (s *surveyService) List(ctx context.Context, userID string, query ListQuery) (ListResult, error) {
	query.Paging = query.Paging.normalize()
	filter := Filter{Status: query.Status}
	key := listPrefix + query.key()
	if query.Mine {
		filter.CreatedBy = userID
		key = userPrefix + userID + ":" + query.key()
	} else if query.Status == domain.StatusDraft {
		return ListResult{Items: []domain.Survey{}, Page: query.Paging.Page, Limit: query.Paging.Limit}, nil
	}

	var cached ListResult
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	surveys, total, err := s.repo.List(ctx, filter, query.Paging)
	if err != nil {
		return ListResult{}, fmt.Errorf("list surveys: %w", err)
	}
	items := make([]domain.Survey, 0, len(surveys))
	for _, sv := range surveys {
		// Listings never carry responses, only counts.
		items = append(items, sv.ViewFor(""))
	}
	result := ListResult{Items: items, Page: query.Paging.Page, Limit: query.Paging.Limit, Total: total}
	s.cache.Set(ctx, key, result, s.ttl)
	return result, nil
}

func (s *surveyService) Detail(ctx context.Context, id, userID string) (*domain.Survey, error) {
	current, err := s.load(ctx, id, userID, true)
	if err != nil {
		return nil, err
	}
	view := current.ViewFor(userID)
	return &view, nil
}

func (s *surveyService) Responses(ctx context.Context, id, userID string) ([]domain.Response, error) {
	current, err := s.load(ctx, id, userID, true)
	if err != nil {
		return nil, err
	}
	if !current.IsOwner(userID) {
		return nil, domain.ErrNotOwner
	}
	if current.Responses == nil {
		return []domain.Response{}, nil
	}
	return current.Responses, nil
}

// fresh reads the stored survey, bypassing the cache. Every write decides on
// this state rather than on a possibly stale detail entry.
func (s *surveyService) fresh(ctx context.Context, id string) (*domain.Survey, error) {
	found, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, ErrSurveyNotFound
		}
		return nil, fmt.Errorf("find survey %s: %w", id, err)
	}
	return found, nil
}

// load reads through the detail cache. With hideDrafts, other users' drafts
// are reported as missing.
func (s *surveyService) load(ctx context.Context, id, userID string, hideDrafts bool) (*domain.Survey, error) {
	key := detailPrefix + id
	var survey domain.Survey
	if !s.cache.Get(ctx, key, &survey) {
		found, err := s.repo.FindByID(ctx, id)
		if err != nil {
			if apperr.IsNotFound(err) {
				return nil, ErrSurveyNotFound
			}
			return nil, fmt.Errorf("find survey %s: %w", id, err)
		}
		survey = *found
		s.cache.Set(ctx, key, survey, s.ttl)
	}
	if hideDrafts && !survey.VisibleTo(userID) {
		return nil, ErrSurveyNotFound
	}
	return &survey, nil
}

func (s *surveyService) invalidate(ctx context.Context, survey domain.Survey) {
	if survey.ID != "" {
		s.cache.Delete(ctx, detailPrefix+survey.ID)
	}
	s.cache.DeletePrefix(ctx, userPrefix+survey.CreatedBy+":")
	s.cache.DeletePrefix(ctx, listPrefix)
}
