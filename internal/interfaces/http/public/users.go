package public

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	account "github.com/sngm3741/ethical-choice/api/internal/account/domain"
)

func (h *Handler) profileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
		defer cancel()

		principal, ok := h.principal(w, r)
		if !ok {
			return
		}
		user, err := h.profiles.Profile(ctx, principal.UserID)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.ok(w, http.StatusOK, "User profile retrieved", user)
	}
}

func (h *Handler) profileUpdateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
		defer cancel()

		principal, ok := h.principal(w, r)
		if !ok {
			return
		}
		var req profileUpdateRequest
		if err := h.decode(w, r, &req); err != nil {
			h.fail(w, r, err)
			return
		}
		user, err := h.profiles.UpdateProfile(ctx, principal.UserID, account.ProfileUpdate{Name: req.Name, Email: req.Email})
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.ok(w, http.StatusOK, "User profile updated", user)
	}
}

func (h *Handler) preferencesUpdateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
		defer cancel()

		principal, ok := h.principal(w, r)
		if !ok {
			return
		}
		var req preferencesRequest
		if err := h.decode(w, r, &req); err != nil {
			h.fail(w, r, err)
			return
		}
		user, err := h.profiles.UpdatePreferences(ctx, principal.UserID, req.Preferences)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.ok(w, http.StatusOK, "Preferences updated", user)
	}
}

func (h *Handler) surveyResponsesUpdateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
		defer cancel()

		principal, ok := h.principal(w, r)
		if !ok {
			return
		}
		var req account.SurveyResponses
		if err := h.decode(w, r, &req); err != nil {
			h.fail(w, r, err)
			return
		}
		user, err := h.profiles.UpdateSurveyResponses(ctx, principal.UserID, req)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.ok(w, http.StatusOK, "Survey responses saved", user)
	}
}

func (h *Handler) starredListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
		defer cancel()

		principal, ok := h.principal(w, r)
		if !ok {
			return
		}
		companies, err := h.profiles.Starred(ctx, principal.UserID)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.ok(w, http.StatusOK, "Starred companies retrieved", companies)
	}
}

func (h *Handler) starHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
		defer cancel()

		principal, ok := h.principal(w, r)
		if !ok {
			return
		}
		user, err := h.profiles.Star(ctx, principal.UserID, strings.TrimSpace(chi.URLParam(r, "companyId")))
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.ok(w, http.StatusOK, "Company starred", user)
	}
}

func (h *Handler) unstarHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
		defer cancel()

		principal, ok := h.principal(w, r)
		if !ok {
			return
		}
		user, err := h.profiles.Unstar(ctx, principal.UserID, strings.TrimSpace(chi.URLParam(r, "companyId")))
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.ok(w, http.StatusOK, "Company unstarred", user)
	}
}
