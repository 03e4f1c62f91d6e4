package public

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/suite"

	accountapp "github.com/sngm3741/ethical-choice/api/internal/account/application"
	"github.com/sngm3741/ethical-choice/api/internal/apperr"
	"github.com/sngm3741/ethical-choice/api/internal/infrastructure/cache"
	"github.com/sngm3741/ethical-choice/api/internal/interfaces/http/common"
	"github.com/sngm3741/ethical-choice/api/internal/logging"
	notification "github.com/sngm3741/ethical-choice/api/internal/notification/domain"
	recommendationapp "github.com/sngm3741/ethical-choice/api/internal/recommendation/application"
	recommendation "github.com/sngm3741/ethical-choice/api/internal/recommendation/domain"
	surveyapp "github.com/sngm3741/ethical-choice/api/internal/survey/application"
	survey "github.com/sngm3741/ethical-choice/api/internal/survey/domain"
)

const testCompanyID = "65f0c0ffee0000000000c001"

type envelope struct {
	Success    bool                `json:"success"`
	Message    string              `json:"message"`
	Data       json.RawMessage     `json:"data"`
	Error      string              `json:"error"`
	StatusCode int                 `json:"statusCode"`
	Errors     []apperr.FieldError `json:"errors"`
}

type handlerSuite struct {
	suite.Suite
	cache  *cache.Client
	router chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(handlerSuite))
}

func (s *handlerSuite) SetupTest() {
	c, err := cache.Open("", logging.Nop())
	s.Require().NoError(err)
	s.cache = c

	logger := logging.Nop()
	tokens := accountapp.NewTokenService(accountapp.TokenConfig{
		Secret:   []byte("handler-test-secret-0123456789"),
		Issuer:   "test",
		TTL:      time.Hour,
		ResetTTL: time.Hour,
	})
	auth := accountapp.NewAuthService(newMemUsers(), accountapp.NewPasswordHasher(4), tokens, c,
		accountapp.AuthOptions{RefreshThreshold: 10 * time.Minute}, logger)

	h := NewHandler(Config{
		Logger:          logger,
		Auth:            auth,
		Recommendations: recommendationapp.NewService(newMemRecommendations(), nil, nil, c, nil, recommendationapp.Options{}, logger),
		Surveys:         surveyapp.NewService(newMemSurveys(), c, time.Minute, logger),
		Notifications: streamOnly{events: []notification.StreamEvent{
			{Kind: notification.EventConnected, Message: "Connected to notifications stream", Timestamp: time.Now()},
		}},
	})
	r := chi.NewRouter()
	h.Register(r, common.RequireAuth(auth, logger, false))
	s.router = r
}

func (s *handlerSuite) TearDownTest() {
	s.Require().NoError(s.cache.Close())
}

func (s *handlerSuite) do(method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func (s *handlerSuite) data(env envelope, dest any) {
	s.Require().NoError(json.Unmarshal(env.Data, dest))
}

// signup registers and logs in, returning the login token.
func (s *handlerSuite) signup(name, email string) string {
	rec, env := s.do(http.MethodPost, "/auth/register", "", map[string]string{
		"name": name, "email": email, "password": "secret123",
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	s.Require().True(env.Success)

	rec, env = s.do(http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": "secret123"})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var result struct {
		Token string `json:"token"`
	}
	s.data(env, &result)
	s.Require().NotEmpty(result.Token)
	return result.Token
}

func (s *handlerSuite) TestRecommendationScenario() {
	token := s.signup("Ada", "ada@example.com")

	rec, env := s.do(http.MethodPost, "/recommendations", token, map[string]any{"companyId": testCompanyID, "score": 85})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var saved recommendation.Recommendation
	s.data(env, &saved)
	s.NotEmpty(saved.ID)

	_, env = s.do(http.MethodGet, "/recommendations", token, nil)
	var list []recommendation.Recommendation
	s.data(env, &list)
	s.Require().Len(list, 1)
	s.InDelta(85, list[0].Score, 0.001)

	rec, _ = s.do(http.MethodPut, "/recommendations/"+saved.ID, token, map[string]any{"score": 60})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	_, env = s.do(http.MethodGet, "/recommendations", token, nil)
	s.data(env, &list)
	s.Require().Len(list, 1)
	s.InDelta(60, list[0].Score, 0.001)
}

func (s *handlerSuite) TestRecommendationScoreOutOfRange() {
	token := s.signup("Ada", "ada@example.com")

	rec, env := s.do(http.MethodPost, "/recommendations", token, map[string]any{"companyId": testCompanyID, "score": 101})
	s.Equal(http.StatusBadRequest, rec.Code)
	s.False(env.Success)
	s.Equal(http.StatusBadRequest, env.StatusCode)
	s.Equal("Score must be between 0 and 100", env.Error)
}

func (s *handlerSuite) TestRecommendationOfAnotherUserIsNotFound() {
	owner := s.signup("Ada", "ada@example.com")
	other := s.signup("Bob", "bob@example.com")

	_, env := s.do(http.MethodPost, "/recommendations", owner, map[string]any{"companyId": testCompanyID, "score": 70})
	var saved recommendation.Recommendation
	s.data(env, &saved)

	rec, _ := s.do(http.MethodGet, "/recommendations/"+saved.ID, other, nil)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *handlerSuite) TestProtectedRouteRequiresToken() {
	rec, env := s.do(http.MethodGet, "/recommendations", "", nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal(http.StatusUnauthorized, env.StatusCode)

	rec, _ = s.do(http.MethodGet, "/recommendations", "not-a-jwt", nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *handlerSuite) TestRegisterListsEveryInvalidField() {
	rec, env := s.do(http.MethodPost, "/auth/register", "", map[string]string{"email": "nope"})
	s.Equal(http.StatusBadRequest, rec.Code)
	fields := map[string]bool{}
	for _, f := range env.Errors {
		fields[f.Field] = true
	}
	s.True(fields["name"])
	s.True(fields["email"])
	s.True(fields["password"])
}

func (s *handlerSuite) TestRegisterDuplicateAndBadLogin() {
	s.signup("Ada", "ada@example.com")

	rec, env := s.do(http.MethodPost, "/auth/register", "", map[string]string{
		"name": "Ada", "email": "ADA@example.com", "password": "secret123",
	})
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("User already exists", env.Error)

	rec, env = s.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "ada@example.com", "password": "wrong-pass"})
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal("Invalid credentials", env.Error)
}

func (s *handlerSuite) TestVerifyTokenAndLogout() {
	token := s.signup("Ada", "ada@example.com")

	rec, env := s.do(http.MethodPost, "/auth/verify-token", "", map[string]string{"token": token})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var verified verifyTokenResponse
	s.data(env, &verified)
	s.True(verified.Valid)
	s.NotEmpty(verified.UserID)

	rec, _ = s.do(http.MethodPost, "/auth/logout", token, nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	rec, _ = s.do(http.MethodGet, "/recommendations", token, nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *handlerSuite) TestSurveyScenario() {
	owner := s.signup("Ada", "ada@example.com")
	respondent := s.signup("Bob", "bob@example.com")

	rec, env := s.do(http.MethodPost, "/surveys", owner, map[string]any{
		"title": "Values check",
		"questions": []map[string]any{{
			"questionText": "Which matters most?",
			"questionType": "multiple-choice",
			"isRequired":   true,
			"options":      []map[string]string{{"text": "Climate"}, {"text": "Labour"}},
		}},
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var created survey.Survey
	s.data(env, &created)
	s.Equal(survey.StatusDraft, created.Status)
	s.Require().Len(created.Questions, 1)
	s.Equal(1, created.Questions[0].Order)

	rec, _ = s.do(http.MethodGet, "/surveys/"+created.ID, respondent, nil)
	s.Equal(http.StatusNotFound, rec.Code, "drafts are private")

	rec, _ = s.do(http.MethodPost, "/surveys/"+created.ID+"/responses", respondent, map[string]any{
		"answers": []map[string]any{{"questionId": created.Questions[0].ID, "answer": "Climate"}},
	})
	s.Equal(http.StatusBadRequest, rec.Code, "draft surveys take no responses")

	rec, _ = s.do(http.MethodPatch, "/surveys/"+created.ID+"/publish", respondent, nil)
	s.Equal(http.StatusForbidden, rec.Code)

	rec, _ = s.do(http.MethodPatch, "/surveys/"+created.ID+"/publish", owner, nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec, _ = s.do(http.MethodPost, "/surveys/"+created.ID+"/responses", respondent, map[string]any{
		"answers": []map[string]any{{"questionId": created.Questions[0].ID, "answer": "Climate"}},
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	_, env = s.do(http.MethodGet, "/surveys/"+created.ID, owner, nil)
	var detail survey.Survey
	s.data(env, &detail)
	s.Len(detail.Responses, 1)
	s.Equal(1, detail.ResponseCount)

	_, env = s.do(http.MethodGet, "/surveys/"+created.ID, respondent, nil)
	var public survey.Survey
	s.data(env, &public)
	s.Empty(public.Responses)
	s.Equal(1, public.ResponseCount)

	rec, env = s.do(http.MethodPut, "/surveys/"+created.ID, owner, map[string]any{"title": "Renamed"})
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal(survey.ErrNotDraft.Message, env.Error)

	rec, _ = s.do(http.MethodPatch, "/surveys/"+created.ID+"/close", owner, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	rec, _ = s.do(http.MethodPost, "/surveys/"+created.ID+"/responses", owner, map[string]any{
		"answers": []map[string]any{{"questionId": created.Questions[0].ID, "answer": "Labour"}},
	})
	s.Equal(http.StatusBadRequest, rec.Code, "closed surveys take no responses")
}

func (s *handlerSuite) TestSurveyInvalidQuestion() {
	token := s.signup("Ada", "ada@example.com")

	rec, env := s.do(http.MethodPost, "/surveys", token, map[string]any{
		"title":     "Broken",
		"questions": []map[string]any{{"questionText": "?", "questionType": "essay"}},
	})
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("Invalid question format", env.Error)
}

func (s *handlerSuite) TestNotificationStreamServesEvents() {
	token := s.signup("Ada", "ada@example.com")

	req := httptest.NewRequest(http.MethodGet, "/notifications/stream", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	s.Equal(http.StatusOK, rec.Code)
	s.Equal("text/event-stream", rec.Header().Get("Content-Type"))
	s.Contains(rec.Body.String(), "event: connected\n")
	s.Contains(rec.Body.String(), "Connected to notifications stream")
}
