// Package domain holds the user account model.
package domain

import (
	"strings"
	"time"
)

// Role is the coarse authorization role carried in tokens.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// SurveyResponses is the onboarding questionnaire that drives computed
// recommendations.
type SurveyResponses struct {
	KeyValues                  []string          `json:"keyValues,omitempty"`
	ValueImportance            map[string]int    `json:"valueImportance,omitempty"`
	ProductCategories          map[string]string `json:"productCategories,omitempty"`
	PurchaseFactors            []string          `json:"purchaseFactors,omitempty"`
	KnowledgeRating            map[string]int    `json:"knowledgeRating,omitempty"`
	EthicalSupport             string            `json:"ethicalSupport,omitempty"`
	StopSupporting             []string          `json:"stopSupporting,omitempty"`
	EthicalPurchasingFrequency string            `json:"ethicalPurchasingFrequency,omitempty"`
	ValueAlignmentImportance   int               `json:"valueAlignmentImportance,omitempty"`
	SpecificCompanies          []string          `json:"specificCompanies,omitempty"`
}

// User is a registered account.
type User struct {
	ID                   string            `json:"id"`
	Name                 string            `json:"name"`
	Email                string            `json:"email"`
	PasswordHash         string            `json:"-"`
	Role                 Role              `json:"role"`
	SurveyResponses      *SurveyResponses  `json:"surveyResponses,omitempty"`
	StarredCompanies     []string          `json:"starredCompanies"`
	Preferences          map[string]string `json:"preferences,omitempty"`
	NotificationsEnabled bool              `json:"notificationsEnabled"`
	LastLogin            *time.Time        `json:"lastLogin,omitempty"`
	CreatedAt            time.Time         `json:"createdAt"`
	UpdatedAt            time.Time         `json:"updatedAt"`
}

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// HasStarred reports whether companyID is in the starred list.
func (u User) HasStarred(companyID string) bool {
	for _, id := range u.StarredCompanies {
		if id == companyID {
			return true
		}
	}
	return false
}

// ProfileUpdate carries the editable profile fields. Nil means unchanged.
type ProfileUpdate struct {
	Name  *string
	Email *string
}

// UserSummary is the public projection used by search.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
