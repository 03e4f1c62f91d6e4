package public

import (
	"context"
	"net/http"
	"strings"

	accountapp "github.com/sngm3741/ethical-choice/api/internal/account/application"
	"github.com/sngm3741/ethical-choice/api/internal/interfaces/http/common"
)

func (h *Handler) registerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
		defer cancel()

		var req registerRequest
		if err := h.decode(w, r, &req); err != nil {
			h.fail(w, r, err)
			return
		}
		result, err := h.auth.Register(ctx, accountapp.RegisterCommand{
			Name:     req.Name,
			Email:    req.Email,
			Password: req.Password,
		})
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.ok(w, http.StatusCreated, "User registered successfully", result)
	}
}

func (h *Handler) loginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
		defer cancel()

		var req loginRequest
		if err := h.decode(w, r, &req); err != nil {
			h.fail(w, r, err)
			return
		}
		result, err := h.auth.Login(ctx, req.Email, req.Password)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.ok(w, http.StatusOK, "Login successful", result)
	}
}

// verifyTokenHandler accepts the token either in the body or as a bearer
// header.
func (h *Handler) verifyTokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
		defer cancel()

		var req verifyTokenRequest
		if r.ContentLength != 0 {
			if err := h.decode(w, r, &req); err != nil {
				h.fail(w, r, err)
				return
			}
		}
		token := strings.TrimSpace(req.Token)
		if token == "" {
			var err error
			if token, err = common.BearerToken(r.Header.Get("Authorization")); err != nil {
				h.fail(w, r, err)
				return
			}
		}

		principal, refreshed, err := h.auth.Authenticate(ctx, token)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		if refreshed != "" {
			w.Header().Set(common.RefreshedTokenHeader, refreshed)
		}
		h.ok(w, http.StatusOK, "Token is valid", verifyTokenResponse{
			Valid:     true,
			UserID:    principal.UserID,
			Role:      principal.Role,
			ExpiresAt: principal.ExpiresAt,
		})
	}
}

func (h *Handler) changePasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
		defer cancel()

		principal, ok := h.principal(w, r)
		if !ok {
			return
		}
		var req changePasswordRequest
		if err := h.decode(w, r, &req); err != nil {
			h.fail(w, r, err)
			return
		}
		if err := h.auth.ChangePassword(ctx, principal.UserID, req.CurrentPassword, req.NewPassword); err != nil {
			h.fail(w, r, err)
			return
		}
		h.ok(w, http.StatusOK, "Password changed successfully", nil)
	}
}

func (h *Handler) requestPasswordResetHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
		defer cancel()

		var req passwordResetRequest
		if err := h.decode(w, r, &req); err != nil {
			h.fail(w, r, err)
			return
		}
		token, err := h.auth.RequestPasswordReset(ctx, req.Email)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		resp := passwordResetResponse{}
		if h.exposeResetToken {
			resp.ResetToken = token
		}
		h.ok(w, http.StatusOK, "Password reset requested", resp)
	}
}

func (h *Handler) resetPasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
		defer cancel()

		var req resetPasswordRequest
		if err := h.decode(w, r, &req); err != nil {
			h.fail(w, r, err)
			return
		}
		if err := h.auth.ResetPassword(ctx, req.Token, req.NewPassword); err != nil {
			h.fail(w, r, err)
			return
		}
		h.ok(w, http.StatusOK, "Password has been reset", nil)
	}
}

func (h *Handler) logoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
		defer cancel()

		principal, ok := h.principal(w, r)
		if !ok {
			return
		}
		if err := h.auth.Logout(ctx, principal); err != nil {
			h.fail(w, r, err)
			return
		}
		h.ok(w, http.StatusOK, "Logged out successfully", nil)
	}
}
