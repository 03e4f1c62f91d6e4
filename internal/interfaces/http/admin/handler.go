package admin

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/sngm3741/ethical-choice/api/internal/authz"
	catalogapp "github.com/sngm3741/ethical-choice/api/internal/catalog/application"
	"github.com/sngm3741/ethical-choice/api/internal/interfaces/http/common"
	notificationapp "github.com/sngm3741/ethical-choice/api/internal/notification/application"
)

// Handler wires admin HTTP endpoints to application services.
type Handler struct {
	logger         zerolog.Logger
	hideInternal   bool
	maxBodyBytes   int64
	requestTimeout time.Duration
	authorizer     common.Authorizer
	catalog        catalogapp.Service
	notifications  notificationapp.Service
}

// Config provides dependencies for Handler.
type Config struct {
	Logger         zerolog.Logger
	Production     bool
	MaxBodyBytes   int64
	RequestTimeout time.Duration
	Authorizer     common.Authorizer
	Catalog        catalogapp.Service
	Notifications  notificationapp.Service
}

// NewHandler constructs an admin HTTP handler set.
func NewHandler(cfg Config) *Handler {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = common.RequestTimeout
	}
	return &Handler{
		logger:         cfg.Logger.With().Str("component", "http.admin").Logger(),
		hideInternal:   cfg.Production,
		maxBodyBytes:   cfg.MaxBodyBytes,
		requestTimeout: timeout,
		authorizer:     cfg.Authorizer,
		catalog:        cfg.Catalog,
		notifications:  cfg.Notifications,
	}
}

// Register mounts admin routes onto router. Every route runs authMiddleware
// followed by a role check.
func (h *Handler) Register(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)

		r.With(h.require(authz.ResourceCompanies, authz.ActionWrite)).Put("/companies/{id}", h.companyReplaceHandler())
		r.With(h.require(authz.ResourceCompanies, authz.ActionWrite)).Patch("/companies/{id}", h.companyPatchHandler())
		r.With(h.require(authz.ResourceCompanies, authz.ActionIngest)).Post("/companies/ingest/{cik}", h.companyIngestHandler())
		r.With(h.require(authz.ResourceNotifications, authz.ActionSend)).Post("/notifications", h.notificationSendHandler())
	})
}

func (h *Handler) require(resource, action string) func(http.Handler) http.Handler {
	return common.RequirePermission(h.authorizer, resource, action, h.logger, h.hideInternal)
}

func (h *Handler) ok(w http.ResponseWriter, status int, message string, data any) {
	common.WriteSuccess(h.logger, w, status, message, data)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	common.WriteError(h.logger, w, r, err, h.hideInternal)
}
