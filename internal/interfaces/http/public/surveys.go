package public

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sngm3741/ethical-choice/api/internal/interfaces/http/common"
	surveyapp "github.com/sngm3741/ethical-choice/api/internal/survey/application"
	survey "github.com/sngm3741/ethical-choice/api/internal/survey/domain"
)

func (h *Handler) surveyCreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
		defer cancel()

		principal, ok := h.principal(w, r)
		if !ok {
			return
		}
		var req surveyRequest
		if err := h.decode(w, r, &req); err != nil {
			h.fail(w, r, err)
			return
		}
		sv, err := h.surveys.Create(ctx, surveyapp.CreateCommand{UserID: principal.UserID, Draft: req.toDraft()})
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.ok(w, http.StatusCreated, "Survey created successfully", sv)
	}
}

// surveyListHandler lists published and closed surveys, or the caller's own
// surveys (drafts included) with mine=true.
func (h *Handler) surveyListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
		defer cancel()

		principal, ok := h.principal(w, r)
		if !ok {
			return
		}
		query := r.URL.Query()
		page, _ := common.ParsePositiveInt(query.Get("page"), 1)
		limit, _ := common.ParsePositiveInt(query.Get("limit"), 10)

		result, err := h.surveys.List(ctx, principal.UserID, surveyapp.ListQuery{
			Status: survey.Status(query.Get("status")),
			Mine:   common.ParseBool(query.Get("mine")),
			Paging: surveyapp.Paging{Page: page, Limit: limit},
		})
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.ok(w, http.StatusOK, "Surveys retrieved successfully", result)
	}
}

func (h *Handler) surveyDetailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
		defer cancel()

		principal, ok := h.principal(w, r)
		if !ok {
			return
		}
		sv, err := h.surveys.Detail(ctx, chi.URLParam(r, "id"), principal.UserID)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.ok(w, http.StatusOK, "Survey retrieved successfully", sv)
	}
}

func (h *Handler) surveyUpdateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
		defer cancel()

		principal, ok := h.principal(w, r)
		if !ok {
			return
		}
		var req surveyRequest
		if err := h.decode(w, r, &req); err != nil {
			h.fail(w, r, err)
			return
		}
		sv, err := h.surveys.Update(ctx, surveyapp.UpdateCommand{
			ID:     chi.URLParam(r, "id"),
			UserID: principal.UserID,
			Draft:  req.toDraft(),
		})
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.ok(w, http.StatusOK, "Survey updated successfully", sv)
	}
}

func (h *Handler) surveyDeleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
		defer cancel()

		principal, ok := h.principal(w, r)
		if !ok {
			return
		}
		if err := h.surveys.Delete(ctx, chi.URLParam(r, "id"), principal.UserID); err != nil {
			h.fail(w, r, err)
			return
		}
		h.ok(w, http.StatusOK, "Survey deleted successfully", nil)
	}
}

func (h *Handler) surveyPublishHandler() http.HandlerFunc {
	return h.surveyTransitionHandler(func(ctx context.Context, id, userID string) (*survey.Survey, error) {
		return h.surveys.Publish(ctx, id, userID)
	}, "Survey published successfully")
}

func (h *Handler) surveyCloseHandler() http.HandlerFunc {
	return h.surveyTransitionHandler(func(ctx context.Context, id, userID string) (*survey.Survey, error) {
		return h.surveys.Close(ctx, id, userID)
	}, "Survey closed successfully")
}

func (h *Handler) surveyTransitionHandler(apply func(ctx context.Context, id, userID string) (*survey.Survey, error), message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
		defer cancel()

		principal, ok := h.principal(w, r)
		if !ok {
			return
		}
		sv, err := apply(ctx, chi.URLParam(r, "id"), principal.UserID)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.ok(w, http.StatusOK, message, sv)
	}
}

func (h *Handler) surveyRespondHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
		defer cancel()

		principal, ok := h.principal(w, r)
		if !ok {
			return
		}
		var req surveyResponseRequest
		if err := h.decode(w, r, &req); err != nil {
			h.fail(w, r, err)
			return
		}
		sv, err := h.surveys.AddResponse(ctx, surveyapp.RespondCommand{
			ID:      chi.URLParam(r, "id"),
			UserID:  principal.UserID,
			Answers: req.toAnswers(),
		})
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.ok(w, http.StatusCreated, "Survey response submitted successfully", sv)
	}
}

func (h *Handler) surveyResponsesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
		defer cancel()

		principal, ok := h.principal(w, r)
		if !ok {
			return
		}
		responses, err := h.surveys.Responses(ctx, chi.URLParam(r, "id"), principal.UserID)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.ok(w, http.StatusOK, "Survey responses retrieved successfully", responses)
	}
}
