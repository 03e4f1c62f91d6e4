package admin

import (
	"context"
	"net/http"

	"github.com/sngm3741/ethical-choice/api/internal/interfaces/http/common"
	notificationapp "github.com/sngm3741/ethical-choice/api/internal/notification/application"
	notification "github.com/sngm3741/ethical-choice/api/internal/notification/domain"
)

type sendNotificationRequest struct {
	UserID  string `json:"userId" validate:"required,objectid"`
	Message string `json:"message" validate:"required,notblank,max=500"`
	Title   string `json:"title" validate:"max=100"`
	Type    string `json:"type" validate:"omitempty,oneof=info alert recommendation survey system"`
}

func (h *Handler) notificationSendHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
		defer cancel()

		var req sendNotificationRequest
		if err := common.DecodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
			h.fail(w, r, err)
			return
		}
		n, err := h.notifications.Send(ctx, notificationapp.SendCommand{
			UserID:  req.UserID,
			Message: req.Message,
			Title:   req.Title,
			Type:    notification.Type(req.Type),
		})
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.ok(w, http.StatusCreated, "Notification sent successfully", n)
	}
}
