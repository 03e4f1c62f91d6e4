// Package domain holds comments with likes and replies.
package domain

import (
	"strings"
	"time"

	"github.com/sngm3741/ethical-choice/api/internal/apperr"
)

// MaxContentLength bounds comment and reply bodies.
const MaxContentLength = 500

// Reply is a nested answer to a comment.
type Reply struct {
	UserID    string    `json:"userId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Comment belongs to a post.
type Comment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	PostID    string    `json:"postId"`
	Content   string    `json:"content"`
	Likes     []string  `json:"likes"`
	Replies   []Reply   `json:"replies"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ValidateContent trims content and enforces the length limit.
func ValidateContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", apperr.Validation("Content is required")
	}
	if len([]rune(content)) > MaxContentLength {
		return "", apperr.Validationf("Content cannot exceed %d characters", MaxContentLength)
	}
	return content, nil
}

// New builds a comment.
func New(userID, postID, content string, now time.Time) (Comment, error) {
	content, err := ValidateContent(content)
	if err != nil {
		return Comment{}, err
	}
	if strings.TrimSpace(postID) == "" {
		return Comment{}, apperr.Validation("Post id is required")
	}
	return Comment{
		UserID:    userID,
		PostID:    strings.TrimSpace(postID),
		Content:   content,
		Likes:     []string{},
		Replies:   []Reply{},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// NewReply builds a reply.
func NewReply(userID, content string, now time.Time) (Reply, error) {
	content, err := ValidateContent(content)
	if err != nil {
		return Reply{}, err
	}
	return Reply{UserID: userID, Content: content, CreatedAt: now}, nil
}

// LikedBy reports whether userID has liked c.
func (c Comment) LikedBy(userID string) bool {
	for _, id := range c.Likes {
		if id == userID {
			return true
		}
	}
	return false
}

// IsOwner reports whether userID wrote c.
func (c Comment) IsOwner(userID string) bool {
	return userID != "" && c.UserID == userID
}
