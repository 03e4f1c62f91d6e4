package public

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	accountapp "github.com/sngm3741/ethical-choice/api/internal/account/application"
	account "github.com/sngm3741/ethical-choice/api/internal/account/domain"
	"github.com/sngm3741/ethical-choice/api/internal/apperr"
	notificationapp "github.com/sngm3741/ethical-choice/api/internal/notification/application"
	notification "github.com/sngm3741/ethical-choice/api/internal/notification/domain"
	recommendationapp "github.com/sngm3741/ethical-choice/api/internal/recommendation/application"
	recommendation "github.com/sngm3741/ethical-choice/api/internal/recommendation/domain"
	surveyapp "github.com/sngm3741/ethical-choice/api/internal/survey/application"
	survey "github.com/sngm3741/ethical-choice/api/internal/survey/domain"
)

// memUsers covers what registration and login touch. Profile methods are
// left to the embedded nil interface.
type memUsers struct {
	accountapp.UserRepository
	mu   sync.Mutex
	byID map[string]account.User
	seq  int
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[string]account.User{}}
}

func (m *memUsers) Insert(_ context.Context, u *account.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Email == u.Email {
			return accountapp.ErrUserExists
		}
	}
	m.seq++
	u.ID = fmt.Sprintf("%024x", m.seq)
	m.byID[u.ID] = *u
	return nil
}

func (m *memUsers) FindByID(_ context.Context, id string) (*account.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, apperr.NotFound("User not found")
	}
	return &u, nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*account.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, apperr.NotFound("User not found")
}

func (m *memUsers) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.byID[id]
	u.LastLogin = &at
	m.byID[id] = u
	return nil
}

type memRecommendations struct {
	mu    sync.Mutex
	items map[string]recommendation.Recommendation
	seq   int
}

func newMemRecommendations() *memRecommendations {
	return &memRecommendations{items: map[string]recommendation.Recommendation{}}
}

func (m *memRecommendations) Find(_ context.Context, userID string, c recommendation.Criteria) ([]recommendation.Recommendation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []recommendation.Recommendation{}
	for _, rec := range m.items {
		if rec.UserID == userID && (c.Status == "" || rec.Status == c.Status) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

func (m *memRecommendations) FindByID(_ context.Context, id, userID string) (*recommendation.Recommendation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.items[id]
	if !ok || rec.UserID != userID {
		return nil, apperr.NotFound("Recommendation not found")
	}
	return &rec, nil
}

func (m *memRecommendations) Insert(_ context.Context, rec *recommendation.Recommendation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	rec.ID = fmt.Sprintf("%024x", 0xa000+m.seq)
	m.items[rec.ID] = *rec
	return nil
}

func (m *memRecommendations) Update(_ context.Context, id, userID string, ch recommendationapp.Changes) (*recommendation.Recommendation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.items[id]
	if !ok || rec.UserID != userID {
		return nil, apperr.NotFound("Recommendation not found")
	}
	if ch.Score != nil {
		rec.Score = *ch.Score
	}
	if ch.Feedback != nil {
		rec.Feedback = *ch.Feedback
	}
	if ch.Category != nil {
		rec.Category = *ch.Category
	}
	if ch.Status != nil {
		rec.Status = *ch.Status
	}
	m.items[id] = rec
	return &rec, nil
}

func (m *memRecommendations) Delete(_ context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.items[id]
	if !ok || rec.UserID != userID {
		return apperr.NotFound("Recommendation not found")
	}
	delete(m.items, id)
	return nil
}

func (m *memRecommendations) Stats(_ context.Context, userID string) (recommendation.Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := recommendation.Stats{ByCategory: []recommendation.CategoryStats{}}
	for _, rec := range m.items {
		if rec.UserID == userID {
			st.Total++
		}
	}
	return st, nil
}

type memSurveys struct {
	mu    sync.Mutex
	items map[string]survey.Survey
	seq   int
}

func newMemSurveys() *memSurveys {
	return &memSurveys{items: map[string]survey.Survey{}}
}

func (m *memSurveys) Insert(_ context.Context, s *survey.Survey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	s.ID = fmt.Sprintf("%024x", 0xb000+m.seq)
	m.items[s.ID] = *s
	return nil
}

func (m *memSurveys) FindByID(_ context.Context, id string) (*survey.Survey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.items[id]
	if !ok {
		return nil, apperr.NotFound("Survey not found")
	}
	s.Responses = append([]survey.Response(nil), s.Responses...)
	return &s, nil
}

func (m *memSurveys) Update(_ context.Context, s survey.Survey, from survey.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.items[s.ID]
	if !ok {
		return apperr.NotFound("Survey not found")
	}
	if current.Status != from {
		return survey.ErrNotDraft
	}
	s.Responses = current.Responses
	m.items[s.ID] = s
	return nil
}

func (m *memSurveys) AddResponse(_ context.Context, id string, r survey.Response) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.items[id]
	if !ok {
		return apperr.NotFound("Survey not found")
	}
	if s.Status != survey.StatusPublished {
		return survey.ErrNotPublished
	}
	if s.HasResponded(r.UserID) {
		return survey.ErrAlreadyResponded
	}
	s.Responses = append(s.Responses, r)
	m.items[id] = s
	return nil
}

func (m *memSurveys) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.items[id]
	if !ok {
		return apperr.NotFound("Survey not found")
	}
	if current.Status != survey.StatusDraft {
		return survey.ErrNotDraft
	}
	delete(m.items, id)
	return nil
}

func (m *memSurveys) List(_ context.Context, f surveyapp.Filter, _ surveyapp.Paging) ([]survey.Survey, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []survey.Survey{}
	for _, s := range m.items {
		if f.CreatedBy != "" && s.CreatedBy != f.CreatedBy {
			continue
		}
		if f.CreatedBy == "" && s.Status == survey.StatusDraft {
			continue
		}
		out = append(out, s)
	}
	return out, int64(len(out)), nil
}

// streamOnly serves a fixed set of stream events and then closes.
type streamOnly struct {
	notificationapp.Service
	events []notification.StreamEvent
}

func (s streamOnly) Stream(context.Context, string) (<-chan notification.StreamEvent, error) {
	ch := make(chan notification.StreamEvent, len(s.events))
	for _, ev := range s.events {
		ch <- ev
	}
	close(ch)
	return ch, nil
}
