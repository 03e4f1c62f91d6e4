package application

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sngm3741/ethical-choice/api/internal/apperr"
	"github.com/sngm3741/ethical-choice/api/internal/comment/domain"
	"github.com/sngm3741/ethical-choice/api/internal/logging"
)

var (
	ErrCommentNotFound = apperr.NotFound("Comment not found")
	ErrNotAuthor       = apperr.Forbidden("Not authorized to delete this comment")
)

type commentService struct {
	repo   Repository
	logger zerolog.Logger
	now    func() time.Time
}

// NewService wires the comment service.
func NewService(repo Repository, logger zerolog.Logger) Service {
	return &commentService{
		repo:   repo,
		logger: logger.With().Str("service", "comment").Logger(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *commentService) Create(ctx context.Context, userID, postID, content string) (*domain.Comment, error) {
	c, err := domain.New(userID, postID, content, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Insert(ctx, &c); err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}
	logging.Ctx(ctx, s.logger).Debug().Str("comment_id", c.ID).Str("post_id", c.PostID).Msg("comment created")
	return &c, nil
}

func (s *commentService) ListByPost(ctx context.Context, postID string, paging Paging) (ListResult, error) {
	paging = paging.normalize()
	items, total, err := s.repo.ListByPost(ctx, postID, paging)
	if err != nil {
		return ListResult{}, fmt.Errorf("list comments for post %s: %w", postID, err)
	}
	if items == nil {
		items = []domain.Comment{}
	}
	return ListResult{Items: items, Page: paging.Page, Limit: paging.Limit, Total: total}, nil
}

func (s *commentService) Like(ctx context.Context, id, userID string) (*domain.Comment, error) {
	c, err := s.repo.AddLike(ctx, id, userID)
	return c, s.mapErr(err, "like comment", id)
}

func (s *commentService) Unlike(ctx context.Context, id, userID string) (*domain.Comment, error) {
	c, err := s.repo.RemoveLike(ctx, id, userID)
	return c, s.mapErr(err, "unlike comment", id)
}

func (s *commentService) Reply(ctx context.Context, id, userID, content string) (*domain.Comment, error) {
	reply, err := domain.NewReply(userID, content, s.now())
	if err != nil {
		return nil, err
	}
	c, err := s.repo.AddReply(ctx, id, reply)
	return c, s.mapErr(err, "reply to comment", id)
}

func (s *commentService) Delete(ctx context.Context, id, userID string) error {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return s.mapErr(err, "find comment", id)
	}
	if !c.IsOwner(userID) {
		return ErrNotAuthor
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.mapErr(err, "delete comment", id)
	}
	logging.Ctx(ctx, s.logger).Info().Str("comment_id", id).Str("user_id", userID).Msg("comment deleted")
	return nil
}

func (s *commentService) mapErr(err error, op, id string) error {
	if err == nil {
		return nil
	}
	if apperr.IsNotFound(err) {
		return ErrCommentNotFound
	}
	return fmt.Errorf("%s %s: %w", op, id, err)
}
