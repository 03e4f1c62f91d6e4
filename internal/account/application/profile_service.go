package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/sngm3741/ethical-choice/api/internal/account/domain"
	"github.com/sngm3741/ethical-choice/api/internal/apperr"
	catalog "github.com/sngm3741/ethical-choice/api/internal/catalog/domain"
	"github.com/sngm3741/ethical-choice/api/internal/logging"
)

// ErrProfileNotFound is returned when the token subject no longer exists.
var ErrProfileNotFound = apperr.NotFound("User not found")

type profileService struct {
	users     UserRepository
	companies CompanyLookup
	logger    zerolog.Logger
}

// NewProfileService wires the profile service.
func NewProfileService(users UserRepository, companies CompanyLookup, logger zerolog.Logger) ProfileService {
	return &profileService{
		users:     users,
		companies: companies,
		logger:    logger.With().Str("service", "profile").Logger(),
	}
}

func (s *profileService) Profile(ctx context.Context, userID string) (*domain.User, error) {
	return s.find(ctx, userID)
}

func (s *profileService) find(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("find user %s: %w", userID, err)
	}
	return user, nil
}

func (s *profileService) UpdateProfile(ctx context.Context, userID string, update domain.ProfileUpdate) (*domain.User, error) {
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, apperr.Validation("Name must not be blank")
		}
		update.Name = &name
	}
	if update.Email != nil {
		email := domain.NormalizeEmail(*update.Email)
		if email == "" {
			return nil, apperr.Validation("Email must not be blank")
		}
		existing, err := s.users.FindByEmail(ctx, email)
		switch {
		case err == nil && existing.ID != userID:
			return nil, apperr.Validation("Email is already in use")
		case err != nil && !apperr.IsNotFound(err):
			return nil, fmt.Errorf("lookup user by email: %w", err)
		}
		update.Email = &email
	}

	user, err := s.users.UpdateProfile(ctx, userID, update)
	if err != nil {
		return nil, s.mapErr(userID, "update profile", err)
	}
	logging.Ctx(ctx, s.logger).Info().Str("user_id", userID).Msg("profile updated")
	return user, nil
}

func (s *profileService) UpdatePreferences(ctx context.Context, userID string, prefs map[string]string) (*domain.User, error) {
	if prefs == nil {
		prefs = map[string]string{}
	}
	user, err := s.users.UpdatePreferences(ctx, userID, prefs)
	if err != nil {
		return nil, s.mapErr(userID, "update preferences", err)
	}
	return user, nil
}

func (s *profileService) UpdateSurveyResponses(ctx context.Context, userID string, responses domain.SurveyResponses) (*domain.User, error) {
	for dimension, weight := range responses.ValueImportance {
		if weight < 1 || weight > 5 {
			return nil, apperr.Validationf("valueImportance.%s must be between 1 and 5", dimension)
		}
	}
	user, err := s.users.UpdateSurveyResponses(ctx, userID, responses)
	if err != nil {
		return nil, s.mapErr(userID, "update survey responses", err)
	}
	logging.Ctx(ctx, s.logger).Info().Str("user_id", userID).Msg("survey responses updated")
	return user, nil
}

func (s *profileService) Starred(ctx context.Context, userID string) ([]catalog.Company, error) {
	user, err := s.find(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(user.StarredCompanies) == 0 {
		return []catalog.Company{}, nil
	}
	companies, err := s.companies.FindByIDs(ctx, user.StarredCompanies)
	if err != nil {
		return nil, fmt.Errorf("load starred companies for user %s: %w", userID, err)
	}
	return companies, nil
}

func (s *profileService) Star(ctx context.Context, userID, companyID string) (*domain.User, error) {
	if _, err := s.companies.FindByID(ctx, companyID); err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.NotFound("Company not found")
		}
		return nil, fmt.Errorf("find company %s: %w", companyID, err)
	}
	user, err := s.users.AddStarred(ctx, userID, companyID)
	if err != nil {
		return nil, s.mapErr(userID, "star company", err)
	}
	return user, nil
}

func (s *profileService) Unstar(ctx context.Context, userID, companyID string) (*domain.User, error) {
	user, err := s.users.RemoveStarred(ctx, userID, companyID)
	if err != nil {
		return nil, s.mapErr(userID, "unstar company", err)
	}
	return user, nil
}

func (s *profileService) mapErr(userID, op string, err error) error {
	if apperr.IsNotFound(err) {
		return ErrProfileNotFound
	}
	return fmt.Errorf("%s for user %s: %w", op, userID, err)
}
