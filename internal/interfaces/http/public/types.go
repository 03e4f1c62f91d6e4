package public

import (
	"time"

	account "github.com/sngm3741/ethical-choice/api/internal/account/domain"
	"github.com/sngm3741/ethical-choice/api/internal/apperr"
	survey "github.com/sngm3741/ethical-choice/api/internal/survey/domain"
)

var errUnauthenticated = apperr.Authentication("Authentication required")

type registerRequest struct {
	Name     string `json:"name" validate:"required,notblank,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type verifyTokenRequest struct {
	Token string `json:"token"`
}

type verifyTokenResponse struct {
	Valid     bool         `json:"valid"`
	UserID    string       `json:"userId"`
	Role      account.Role `json:"role"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,max=72"`
}

type passwordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type passwordResetResponse struct {
	// ResetToken is only returned outside production, where no mailer exists.
	ResetToken string `json:"resetToken,omitempty"`
}

type resetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6,max=72"`
}

type profileUpdateRequest struct {
	Name  *string `json:"name" validate:"omitempty,notblank,max=100"`
	Email *string `json:"email" validate:"omitempty,email"`
}

type preferencesRequest struct {
	Preferences map[string]string `json:"preferences" validate:"required"`
}

type createRecommendationRequest struct {
	CompanyID string   `json:"companyId" validate:"required,objectid"`
	Score     *float64 `json:"score" validate:"required"`
	Category  string   `json:"category" validate:"omitempty,oneof=financial environmental social governance"`
	Feedback  string   `json:"feedback" validate:"max=500"`
	Reason    string   `json:"reason" validate:"max=500"`
}

type updateRecommendationRequest struct {
	Score    *float64 `json:"score" validate:"required"`
	Feedback *string  `json:"feedback" validate:"omitempty,max=500"`
	Category *string  `json:"category" validate:"omitempty,oneof=financial environmental social governance"`
}

type unreadCountResponse struct {
	Count int64 `json:"count"`
}

type readAllResponse struct {
	Modified int64 `json:"modified"`
}

type subscriptionResponse struct {
	NotificationsEnabled bool `json:"notificationsEnabled"`
}

type optionRequest struct {
	Text  string `json:"text" validate:"required"`
	Value string `json:"value"`
}

type questionRequest struct {
	ID           string          `json:"id"`
	QuestionText string          `json:"questionText"`
	QuestionType string          `json:"questionType"`
	Options      []optionRequest `json:"options" validate:"omitempty,dive"`
	IsRequired   bool            `json:"isRequired"`
	Order        int             `json:"order" validate:"gte=0"`
}

// surveyRequest leaves question text and type to the domain so that a bad
// question reports "Invalid question format".
type surveyRequest struct {
	Title          string            `json:"title" validate:"required,notblank,max=200"`
	Description    string            `json:"description" validate:"max=1000"`
	StartDate      *time.Time        `json:"startDate"`
	EndDate        *time.Time        `json:"endDate"`
	TargetAudience string            `json:"targetAudience" validate:"omitempty,oneof=all registered specific"`
	Questions      []questionRequest `json:"questions" validate:"omitempty,dive"`
}

func (req surveyRequest) toDraft() survey.Draft {
	questions := make([]survey.Question, 0, len(req.Questions))
	for _, q := range req.Questions {
		options := make([]survey.Option, 0, len(q.Options))
		for _, o := range q.Options {
			value := o.Value
			if value == "" {
				value = o.Text
			}
			options = append(options, survey.Option{Text: o.Text, Value: value})
		}
		questions = append(questions, survey.Question{
			ID:           q.ID,
			QuestionText: q.QuestionText,
			QuestionType: survey.QuestionType(q.QuestionType),
			Options:      options,
			IsRequired:   q.IsRequired,
			Order:        q.Order,
		})
	}
	return survey.Draft{
		Title:          req.Title,
		Description:    req.Description,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		TargetAudience: survey.Audience(req.TargetAudience),
		Questions:      questions,
	}
}

type answerRequest struct {
	QuestionID string `json:"questionId" validate:"required"`
	Answer     any    `json:"answer"`
}

type surveyResponseRequest struct {
	Answers []answerRequest `json:"answers" validate:"required,min=1,dive"`
}

func (req surveyResponseRequest) toAnswers() []survey.Answer {
	answers := make([]survey.Answer, 0, len(req.Answers))
	for _, a := range req.Answers {
		answers = append(answers, survey.Answer{QuestionID: a.QuestionID, Answer: a.Answer})
	}
	return answers
}

type commentRequest struct {
	Content string `json:"content" validate:"required,notblank,max=500"`
}
