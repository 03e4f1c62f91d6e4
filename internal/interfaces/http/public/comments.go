package public

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	commentapp "github.com/sngm3741/ethical-choice/api/internal/comment/application"
	"github.com/sngm3741/ethical-choice/api/internal/comment/domain"
	"github.com/sngm3741/ethical-choice/api/internal/interfaces/http/common"
)

func (h *Handler) commentListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
		defer cancel()

		query := r.URL.Query()
		page, _ := common.ParsePositiveInt(query.Get("page"), 1)
		limit, _ := common.ParsePositiveInt(query.Get("limit"), 20)

		result, err := h.comments.ListByPost(ctx, chi.URLParam(r, "postId"), commentapp.Paging{Page: page, Limit: limit})
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.ok(w, http.StatusOK, "Comments retrieved successfully", result)
	}
}

func (h *Handler) commentCreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
		defer cancel()

		principal, ok := h.principal(w, r)
		if !ok {
			return
		}
		var req commentRequest
		if err := h.decode(w, r, &req); err != nil {
			h.fail(w, r, err)
			return
		}
		c, err := h.comments.Create(ctx, principal.UserID, chi.URLParam(r, "postId"), req.Content)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.ok(w, http.StatusCreated, "Comment created successfully", c)
	}
}

func (h *Handler) commentLikeHandler() http.HandlerFunc {
	return h.commentToggleHandler(func(ctx context.Context, id, userID string) (*domain.Comment, error) {
		return h.comments.Like(ctx, id, userID)
	}, "Comment liked")
}

func (h *Handler) commentUnlikeHandler() http.HandlerFunc {
	return h.commentToggleHandler(func(ctx context.Context, id, userID string) (*domain.Comment, error) {
		return h.comments.Unlike(ctx, id, userID)
	}, "Comment unliked")
}

func (h *Handler) commentToggleHandler(apply func(ctx context.Context, id, userID string) (*domain.Comment, error), message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
		defer cancel()

		principal, ok := h.principal(w, r)
		if !ok {
			return
		}
		c, err := apply(ctx, chi.URLParam(r, "id"), principal.UserID)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.ok(w, http.StatusOK, message, c)
	}
}

func (h *Handler) commentReplyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
		defer cancel()

		principal, ok := h.principal(w, r)
		if !ok {
			return
		}
		var req commentRequest
		if err := h.decode(w, r, &req); err != nil {
			h.fail(w, r, err)
			return
		}
		c, err := h.comments.Reply(ctx, chi.URLParam(r, "id"), principal.UserID, req.Content)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.ok(w, http.StatusCreated, "Reply added successfully", c)
	}
}

func (h *Handler) commentDeleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
		defer cancel()

		principal, ok := h.principal(w, r)
		if !ok {
			return
		}
		if err := h.comments.Delete(ctx, chi.URLParam(r, "id"), principal.UserID); err != nil {
			h.fail(w, r, err)
			return
		}
		h.ok(w, http.StatusOK, "Comment deleted successfully", nil)
	}
}
