// Package domain holds the notification aggregate.
package domain

import (
	"strings"
	"time"

	"github.com/sngm3741/ethical-choice/api/internal/apperr"
)

// Type classifies a notification.
type Type string

const (
	TypeInfo           Type = "info"
	TypeAlert          Type = "alert"
	TypeRecommendation Type = "recommendation"
	TypeSurvey         Type = "survey"
	TypeSystem         Type = "system"
)

const (
	DefaultTitle     = "New Alert"
	MaxTitleLength   = 100
	MaxMessageLength = 500
)

// Valid reports whether t is a known type.
func (t Type) Valid() bool {
	switch t {
	case TypeInfo, TypeAlert, TypeRecommendation, TypeSurvey, TypeSystem:
		return true
	}
	return false
}

// Notification is a message addressed to one user.
type Notification struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	Type      Type       `json:"type"`
	Read      bool       `json:"read"`
	ReadAt    *time.Time `json:"readAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// New builds an unread notification applying defaults and limits.
func New(userID, message, title string, typ Type, now time.Time) (Notification, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Notification{}, apperr.Validation("Message is required")
	}
	if len([]rune(message)) > MaxMessageLength {
		return Notification{}, apperr.Validationf("Message cannot exceed %d characters", MaxMessageLength)
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultTitle
	}
	if len([]rune(title)) > MaxTitleLength {
		return Notification{}, apperr.Validationf("Title cannot exceed %d characters", MaxTitleLength)
	}
	if typ == "" {
		typ = TypeInfo
	}
	if !typ.Valid() {
		return Notification{}, apperr.Validationf("Invalid notification type %q", typ)
	}
	return Notification{
		UserID:    userID,
		Title:     title,
		Message:   message,
		Type:      typ,
		Read:      false,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Pagination describes one page of a notification listing.
type Pagination struct {
	Current      int   `json:"current"`
	Total        int   `json:"total"`
	Count        int   `json:"count"`
	TotalRecords int64 `json:"totalRecords"`
}

// NewPagination computes the page count for totalRecords split by limit.
func NewPagination(page, limit, count int, totalRecords int64) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = int((totalRecords + int64(limit) - 1) / int64(limit))
	}
	return Pagination{Current: page, Total: totalPages, Count: count, TotalRecords: totalRecords}
}

// Page is a listing result.
type Page struct {
	Items      []Notification `json:"notifications"`
	Pagination Pagination     `json:"pagination"`
}

// StreamEvent is one frame of a live notification stream.
type StreamEvent struct {
	Kind         string        `json:"type"`
	Message      string        `json:"message,omitempty"`
	Notification *Notification `json:"notification,omitempty"`
	Timestamp    time.Time     `json:"timestamp"`
}

// Stream event kinds.
const (
	EventConnected    = "connected"
	EventNotification = "notification"
	EventHeartbeat    = "heartbeat"
)
