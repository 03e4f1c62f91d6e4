package public

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sngm3741/ethical-choice/api/internal/interfaces/http/common"
	notificationapp "github.com/sngm3741/ethical-choice/api/internal/notification/application"
)

func (h *Handler) notificationListHandler() http.HandlerFunc {
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

		result, err := h.notifications.List(ctx, principal.UserID, notificationapp.ListQuery{
			Page:       page,
			Limit:      limit,
			UnreadOnly: common.ParseBool(query.Get("unreadOnly")),
		})
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.ok(w, http.StatusOK, "Notifications retrieved successfully", result)
	}
}

func (h *Handler) notificationUnreadCountHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
		defer cancel()

		principal, ok := h.principal(w, r)
		if !ok {
			return
		}
		count, err := h.notifications.UnreadCount(ctx, principal.UserID)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.ok(w, http.StatusOK, "Unread count retrieved", unreadCountResponse{Count: count})
	}
}

func (h *Handler) notificationReadHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
		defer cancel()

		principal, ok := h.principal(w, r)
		if !ok {
			return
		}
		n, err := h.notifications.MarkRead(ctx, chi.URLParam(r, "id"), principal.UserID)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.ok(w, http.StatusOK, "Notification marked as read", n)
	}
}

func (h *Handler) notificationReadAllHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
		defer cancel()

		principal, ok := h.principal(w, r)
		if !ok {
			return
		}
		modified, err := h.notifications.MarkAllRead(ctx, principal.UserID)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.ok(w, http.StatusOK, "All notifications marked as read", readAllResponse{Modified: modified})
	}
}

func (h *Handler) notificationDeleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
		defer cancel()

		principal, ok := h.principal(w, r)
		if !ok {
			return
		}
		if err := h.notifications.Delete(ctx, chi.URLParam(r, "id"), principal.UserID); err != nil {
			h.fail(w, r, err)
			return
		}
		h.ok(w, http.StatusOK, "Notification deleted", nil)
	}
}

func (h *Handler) notificationSubscribeHandler() http.HandlerFunc {
	return h.subscriptionHandler(true)
}

func (h *Handler) notificationUnsubscribeHandler() http.HandlerFunc {
	return h.subscriptionHandler(false)
}

func (h *Handler) subscriptionHandler(enabled bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
		defer cancel()

		principal, ok := h.principal(w, r)
		if !ok {
			return
		}
		toggle, message := h.notifications.Unsubscribe, "Unsubscribed from notifications"
		if enabled {
			toggle, message = h.notifications.Subscribe, "Subscribed to notifications"
		}
		if err := toggle(ctx, principal.UserID); err != nil {
			h.fail(w, r, err)
			return
		}
		h.ok(w, http.StatusOK, message, subscriptionResponse{NotificationsEnabled: enabled})
	}
}
