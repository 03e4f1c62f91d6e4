// Package domain holds the survey aggregate and its draft -> published ->
// closed state machine.
package domain

import (
	"strings"
	"time"

	"github.com/sngm3741/ethical-choice/api/internal/apperr"
)

// Status is the survey lifecycle state.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusClosed    Status = "closed"
)

// Audience restricts who may see a published survey.
type Audience string

const (
	AudienceAll        Audience = "all"
	AudienceRegistered Audience = "registered"
	AudienceSpecific   Audience = "specific"
)

// QuestionType enumerates the supported answer formats.
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple-choice"
	QuestionOpenEnded      QuestionType = "open-ended"
	QuestionRating         QuestionType = "rating"
	QuestionBoolean        QuestionType = "boolean"
)

// Valid reports whether t is supported.
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionMultipleChoice, QuestionOpenEnded, QuestionRating, QuestionBoolean:
		return true
	}
	return false
}

const (
	MaxTitleLength        = 200
	MaxDescriptionLength  = 1000
	MaxQuestionTextLength = 500
)

// Sentinel errors.
var (
	ErrInvalidQuestion  = apperr.Validation("Invalid question format")
	ErrNotPublished     = apperr.Validation("Survey is not accepting responses")
	ErrNotDraft         = apperr.Validation("Only draft surveys can be modified")
	ErrAlreadyClosed    = apperr.Validation("Survey is already closed")
	ErrNoQuestions      = apperr.Validation("Survey must have at least one question")
	ErrAlreadyResponded = apperr.Validation("You have already responded to this survey")
	ErrNotOwner         = apperr.Forbidden("Only the survey creator can perform this action")
)

// Option is one multiple-choice option.
type Option struct {
	Text  string `json:"text"`
	Value string `json:"value"`
}

// Question is one survey item.
type Question struct {
	ID           string       `json:"id"`
	QuestionText string       `json:"questionText"`
	QuestionType QuestionType `json:"questionType"`
	Options      []Option     `json:"options,omitempty"`
	IsRequired   bool         `json:"isRequired"`
	Order        int          `json:"order"`
}

// Answer answers a single question. Answer holds whatever JSON value the
// client sent.
type Answer struct {
	QuestionID string `json:"questionId"`
	Answer     any    `json:"answer"`
}

// Response is one user's submission.
type Response struct {
	UserID      string    `json:"userId"`
	Answers     []Answer  `json:"answers"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// Survey is the aggregate root.
type Survey struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	CreatedBy      string     `json:"createdBy"`
	Status         Status     `json:"status"`
	StartDate      *time.Time `json:"startDate,omitempty"`
	EndDate        *time.Time `json:"endDate,omitempty"`
	TargetAudience Audience   `json:"targetAudience"`
	Questions      []Question `json:"questions"`
	Responses      []Response `json:"responses,omitempty"`
	ResponseCount  int        `json:"responseCount"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// Draft holds the editable content of a survey.
type Draft struct {
	Title          string
	Description    string
	StartDate      *time.Time
	EndDate        *time.Time
	TargetAudience Audience
	Questions      []Question
}

// NewIDFunc generates question ids.
type NewIDFunc func() string

// Normalize validates d and fills question ids and missing order indices.
func (d Draft) Normalize(newID NewIDFunc) (Draft, error) {
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)
	if d.Title == "" {
		return Draft{}, apperr.Validation("Title is required")
	}
	if len([]rune(d.Title)) > MaxTitleLength {
		return Draft{}, apperr.Validationf("Title cannot exceed %d characters", MaxTitleLength)
	}
	if len([]rune(d.Description)) > MaxDescriptionLength {
		return Draft{}, apperr.Validationf("Description cannot exceed %d characters", MaxDescriptionLength)
	}
	if d.StartDate != nil && d.EndDate != nil && d.EndDate.Before(*d.StartDate) {
		return Draft{}, apperr.Validation("End date must be after start date")
	}
	switch d.TargetAudience {
	case "":
		d.TargetAudience = AudienceAll
	case AudienceAll, AudienceRegistered, AudienceSpecific:
	default:
		return Draft{}, apperr.Validationf("Invalid target audience %q", d.TargetAudience)
	}

	questions := make([]Question, 0, len(d.Questions))
	for i, q := range d.Questions {
		q.QuestionText = strings.TrimSpace(q.QuestionText)
		if q.QuestionText == "" || !q.QuestionType.Valid() {
			return Draft{}, ErrInvalidQuestion
		}
		if len([]rune(q.QuestionText)) > MaxQuestionTextLength {
			return Draft{}, apperr.Validationf("Question text cannot exceed %d characters", MaxQuestionTextLength)
		}
		if q.Order <= 0 {
			q.Order = i + 1
		}
		if q.ID == "" {
			q.ID = newID()
		}
		q.Options = append([]Option{}, q.Options...)
		questions = append(questions, q)
	}
	d.Questions = questions
	return d, nil
}

// New creates a draft survey owned by createdBy.
func New(createdBy string, d Draft, newID NewIDFunc, now time.Time) (Survey, error) {
	d, err := d.Normalize(newID)
	if err != nil {
		return Survey{}, err
	}
	return Survey{
		Title:          d.Title,
		Description:    d.Description,
		CreatedBy:      createdBy,
		Status:         StatusDraft,
		StartDate:      d.StartDate,
		EndDate:        d.EndDate,
		TargetAudience: d.TargetAudience,
		Questions:      d.Questions,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// IsOwner reports whether userID created s.
func (s Survey) IsOwner(userID string) bool {
	return userID != "" && s.CreatedBy == userID
}

// CheckEditable enforces owner-only edits of drafts.
func (s Survey) CheckEditable(userID string) error {
	if !s.IsOwner(userID) {
		return ErrNotOwner
	}
	if s.Status != StatusDraft {
		return ErrNotDraft
	}
	return nil
}

// Update replaces the content of a draft survey.
func (s Survey) Update(userID string, d Draft, newID NewIDFunc, now time.Time) (Survey, error) {
	if err := s.CheckEditable(userID); err != nil {
		return Survey{}, err
	}
	d, err := d.Normalize(newID)
	if err != nil {
		return Survey{}, err
	}
	s.Title = d.Title
	s.Description = d.Description
	s.StartDate = d.StartDate
	s.EndDate = d.EndDate
	s.TargetAudience = d.TargetAudience
	s.Questions = d.Questions
	s.UpdatedAt = now
	return s, nil
}

// Publish moves a draft to published.
func (s Survey) Publish(userID string, now time.Time) (Survey, error) {
	if !s.IsOwner(userID) {
		return Survey{}, ErrNotOwner
	}
	if s.Status != StatusDraft {
		return Survey{}, apperr.Validationf("Cannot publish a %s survey", s.Status)
	}
	if len(s.Questions) == 0 {
		return Survey{}, ErrNoQuestions
	}
	s.Status = StatusPublished
	if s.StartDate == nil {
		start := now
		s.StartDate = &start
	}
	s.UpdatedAt = now
	return s, nil
}

// Close ends a survey from any non-closed state.
func (s Survey) Close(userID string, now time.Time) (Survey, error) {
	if !s.IsOwner(userID) {
		return Survey{}, ErrNotOwner
	}
	if s.Status == StatusClosed {
		return Survey{}, ErrAlreadyClosed
	}
	s.Status = StatusClosed
	end := now
	s.EndDate = &end
	s.UpdatedAt = now
	return s, nil
}

// HasResponded reports whether userID already submitted.
func (s Survey) HasResponded(userID string) bool {
	for _, r := range s.Responses {
		if r.UserID == userID {
			return true
		}
	}
	return false
}

// NewResponse validates answers against s and builds a Response.
func (s Survey) NewResponse(userID string, answers []Answer, now time.Time) (Response, error) {
	if s.Status != StatusPublished {
		return Response{}, ErrNotPublished
	}
	if s.HasResponded(userID) {
		return Response{}, ErrAlreadyResponded
	}

	known := make(map[string]Question, len(s.Questions))
	for _, q := range s.Questions {
		known[q.ID] = q
	}
	answered := make(map[string]struct{}, len(answers))
	for _, a := range answers {
		if _, ok := known[a.QuestionID]; !ok {
			return Response{}, apperr.Validationf("Unknown question %q", a.QuestionID)
		}
		if isBlank(a.Answer) {
			continue
		}
		answered[a.QuestionID] = struct{}{}
	}
	for _, q := range s.Questions {
		if !q.IsRequired {
			continue
		}
		if _, ok := answered[q.ID]; !ok {
			return Response{}, apperr.Validationf("Question %q requires an answer", q.QuestionText)
		}
	}
	return Response{
		UserID:      userID,
		Answers:     append([]Answer{}, answers...),
		SubmittedAt: now,
	}, nil
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	}
	return false
}

// VisibleTo reports whether userID may read s. Drafts are private to their
// creator.
func (s Survey) VisibleTo(userID string) bool {
	return s.Status != StatusDraft || s.IsOwner(userID)
}

// ViewFor strips responses for everyone but the creator.
func (s Survey) ViewFor(userID string) Survey {
	s.ResponseCount = len(s.Responses)
	if !s.IsOwner(userID) {
		s.Responses = nil
	}
	return s
}
