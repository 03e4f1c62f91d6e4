// Package application implements post comments.
package application

import (
	"context"

	"github.com/sngm3741/ethical-choice/api/internal/comment/domain"
)

// Repository persists comments. Mutations on unknown ids return an apperr
// NotFound.
type Repository interface {
	Insert(ctx context.Context, c *domain.Comment) error
	FindByID(ctx context.Context, id string) (*domain.Comment, error)
	ListByPost(ctx context.Context, postID string, paging Paging) ([]domain.Comment, int64, error)
	// AddLike and RemoveLike have set semantics and return the updated comment.
	AddLike(ctx context.Context, id, userID string) (*domain.Comment, error)
	RemoveLike(ctx context.Context, id, userID string) (*domain.Comment, error)
	AddReply(ctx context.Context, id string, reply domain.Reply) (*domain.Comment, error)
	Delete(ctx context.Context, id string) error
}

// Paging controls pagination.
type Paging struct {
	Page  int
	Limit int
}

func (p Paging) normalize() Paging {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	return p
}

// ListResult is one page of comments, newest first.
type ListResult struct {
	Items []domain.Comment `json:"comments"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
	Total int64            `json:"total"`
}

// Service describes the comment use cases.
type Service interface {
	Create(ctx context.Context, userID, postID, content string) (*domain.Comment, error)
	ListByPost(ctx context.Context, postID string, paging Paging) (ListResult, error)
	Like(ctx context.Context, id, userID string) (*domain.Comment, error)
	Unlike(ctx context.Context, id, userID string) (*domain.Comment, error)
	Reply(ctx context.Context, id, userID, content string) (*domain.Comment, error)
	Delete(ctx context.Context, id, userID string) error
}
