package public

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sngm3741/ethical-choice/api/internal/interfaces/http/common"
	recommendationapp "github.com/sngm3741/ethical-choice/api/internal/recommendation/application"
	"github.com/sngm3741/ethical-choice/api/internal/recommendation/domain"
)

func (h *Handler) recommendationListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
		defer cancel()

		principal, ok := h.principal(w, r)
		if !ok {
			return
		}
		query := r.URL.Query()
		page, _ := common.ParsePositiveInt(query.Get("page"), 1)
		limit, _ := common.ParsePositiveInt(query.Get("limit"), 20)
		criteria := domain.Criteria{
			Category:  domain.Category(strings.TrimSpace(query.Get("category"))),
			Status:    domain.Status(strings.TrimSpace(query.Get("status"))),
			Page:      page,
			Limit:     limit,
			SortBy:    query.Get("sortBy"),
			SortOrder: query.Get("sortOrder"),
		}

		recs, err := h.recommendations.Generate(ctx, principal.UserID, criteria)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.ok(w, http.StatusOK, "Recommendations retrieved successfully", recs)
	}
}

func (h *Handler) recommendationCreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
		defer cancel()

		principal, ok := h.principal(w, r)
		if !ok {
			return
		}
		var req createRecommendationRequest
		if err := h.decode(w, r, &req); err != nil {
			h.fail(w, r, err)
			return
		}
		rec, err := h.recommendations.Save(ctx, recommendationapp.SaveCommand{
			UserID:    principal.UserID,
			CompanyID: req.CompanyID,
			Score:     *req.Score,
			Category:  domain.Category(req.Category),
			Feedback:  req.Feedback,
			Reason:    req.Reason,
		})
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.ok(w, http.StatusCreated, "Recommendation saved successfully", rec)
	}
}

func (h *Handler) recommendationDetailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
		defer cancel()

		principal, ok := h.principal(w, r)
		if !ok {
			return
		}
		rec, err := h.recommendations.GetByID(ctx, chi.URLParam(r, "id"), principal.UserID)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.ok(w, http.StatusOK, "Recommendation retrieved successfully", rec)
	}
}

func (h *Handler) recommendationUpdateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
		defer cancel()

		principal, ok := h.principal(w, r)
		if !ok {
			return
		}
		var req updateRecommendationRequest
		if err := h.decode(w, r, &req); err != nil {
			h.fail(w, r, err)
			return
		}
		cmd := recommendationapp.UpdateCommand{
			ID:       chi.URLParam(r, "id"),
			UserID:   principal.UserID,
			Score:    *req.Score,
			Feedback: req.Feedback,
		}
		if req.Category != nil {
			category := domain.Category(*req.Category)
			cmd.Category = &category
		}
		rec, err := h.recommendations.Update(ctx, cmd)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.ok(w, http.StatusOK, "Recommendation updated successfully", rec)
	}
}

func (h *Handler) recommendationDeleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
		defer cancel()

		principal, ok := h.principal(w, r)
		if !ok {
			return
		}
		if err := h.recommendations.Delete(ctx, chi.URLParam(r, "id"), principal.UserID); err != nil {
			h.fail(w, r, err)
			return
		}
		h.ok(w, http.StatusOK, "Recommendation deleted successfully", nil)
	}
}

func (h *Handler) recommendationArchiveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
		defer cancel()

		principal, ok := h.principal(w, r)
		if !ok {
			return
		}
		rec, err := h.recommendations.Archive(ctx, chi.URLParam(r, "id"), principal.UserID)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.ok(w, http.StatusOK, "Recommendation archived successfully", rec)
	}
}

func (h *Handler) recommendationStatsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
		defer cancel()

		principal, ok := h.principal(w, r)
		if !ok {
			return
		}
		stats, err := h.recommendations.Stats(ctx, principal.UserID)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.ok(w, http.StatusOK, "Recommendation stats retrieved successfully", stats)
	}
}

func (h *Handler) recommendationComputeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
		defer cancel()

		principal, ok := h.principal(w, r)
		if !ok {
			return
		}
		recs, err := h.recommendations.Compute(ctx, principal.UserID)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.ok(w, http.StatusCreated, "Recommendations computed successfully", recs)
	}
}
