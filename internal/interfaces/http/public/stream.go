package public

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/sngm3741/ethical-choice/api/internal/interfaces/http/common"
	"github.com/sngm3741/ethical-choice/api/internal/logging"
	"github.com/sngm3741/ethical-choice/api/internal/metrics"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
)

// notificationStreamHandler serves the live stream as server-sent events.
// The subscription and heartbeat live exactly as long as the request.
func (h *Handler) notificationStreamHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := h.principal(w, r)
		if !ok {
			return
		}
		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		events, err := h.notifications.Stream(ctx, principal.UserID)
		if err != nil {
			h.fail(w, r, err)
			return
		}

		rc := http.NewResponseController(w)
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)

		gauge := metrics.StreamSubscribers.WithLabelValues("sse")
		gauge.Inc()
		defer gauge.Dec()

		logger := logging.Ctx(ctx, h.logger)
		logger.Debug().Msg("notification stream opened")
		defer logger.Debug().Msg("notification stream closed")

		for ev := range events {
			payload, err := json.Marshal(ev)
			if err != nil {
				logger.Error().Err(err).Msg("encode stream event")
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, payload); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				logger.Warn().Err(err).Msg("flush stream event")
				return
			}
		}
	}
}

// notificationWebSocketHandler serves the same stream over a websocket. Any
// read error, including a client close, ends the subscription. Browsers
// cannot set headers on upgrade requests, so the token may also arrive as the
// "token" query parameter.
func (h *Handler) notificationWebSocketHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimSpace(r.URL.Query().Get("token"))
		if token == "" {
			var err error
			if token, err = common.BearerToken(r.Header.Get("Authorization")); err != nil {
				h.fail(w, r, err)
				return
			}
		}
		principal, _, err := h.auth.Authenticate(r.Context(), token)
		if err != nil {
			h.fail(w, r, err)
			return
		}

		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade has already replied to the client.
			logging.Ctx(r.Context(), h.logger).Warn().Err(err).Msg("websocket upgrade failed")
			return
		}
		defer conn.Close()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		events, err := h.notifications.Stream(ctx, principal.UserID)
		if err != nil {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "stream unavailable"),
				time.Now().Add(wsWriteWait))
			return
		}

		gauge := metrics.StreamSubscribers.WithLabelValues("websocket")
		gauge.Inc()
		defer gauge.Dec()

		go func() {
			defer cancel()
			conn.SetReadLimit(512)
			_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
			conn.SetPongHandler(func(string) error {
				return conn.SetReadDeadline(time.Now().Add(wsPongWait))
			})
			for {
				if _, _, err := conn.NextReader(); err != nil {
					return
				}
			}
		}()

		ping := time.NewTicker(wsPingPeriod)
		defer ping.Stop()

		for {
			select {
			case ev, ok := <-events:
				if !ok {
					_ = conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
						time.Now().Add(wsWriteWait))
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				if err := conn.WriteJSON(ev); err != nil {
					return
				}
			case <-ping.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
					return
				}
			}
		}
	}
}
