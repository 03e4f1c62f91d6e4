package public

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	accountapp "github.com/sngm3741/ethical-choice/api/internal/account/application"
	catalogapp "github.com/sngm3741/ethical-choice/api/internal/catalog/application"
	commentapp "github.com/sngm3741/ethical-choice/api/internal/comment/application"
	"github.com/sngm3741/ethical-choice/api/internal/interfaces/http/common"
	notificationapp "github.com/sngm3741/ethical-choice/api/internal/notification/application"
	recommendationapp "github.com/sngm3741/ethical-choice/api/internal/recommendation/application"
	surveyapp "github.com/sngm3741/ethical-choice/api/internal/survey/application"
)

// Handler wires user-facing HTTP endpoints to application services.
type Handler struct {
	logger           zerolog.Logger
	hideInternal     bool
	exposeResetToken bool
	maxBodyBytes     int64
	requestTimeout   time.Duration
	auth             accountapp.AuthService
	profiles         accountapp.ProfileService
	catalog          catalogapp.Service
	recommendations  recommendationapp.Service
	notifications    notificationapp.Service
	surveys          surveyapp.Service
	comments         commentapp.Service
	upgrader         websocket.Upgrader
}

// Config defines dependencies required by Handler.
type Config struct {
	Logger zerolog.Logger
	// Production hides internal error messages and password reset tokens.
	Production      bool
	MaxBodyBytes    int64
	RequestTimeout  time.Duration
	Auth            accountapp.AuthService
	Profiles        accountapp.ProfileService
	Catalog         catalogapp.Service
	Recommendations recommendationapp.Service
	Notifications   notificationapp.Service
	Surveys         surveyapp.Service
	Comments        commentapp.Service
	// CheckOrigin validates websocket upgrades. Nil accepts same-origin
	// requests only.
	CheckOrigin func(r *http.Request) bool
}

// NewHandler constructs a public HTTP handler set.
func NewHandler(cfg Config) *Handler {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = common.RequestTimeout
	}
	return &Handler{
		logger:           cfg.Logger.With().Str("component", "http.public").Logger(),
		hideInternal:     cfg.Production,
		exposeResetToken: !cfg.Production,
		maxBodyBytes:     cfg.MaxBodyBytes,
		requestTimeout:   timeout,
		auth:             cfg.Auth,
		profiles:         cfg.Profiles,
		catalog:          cfg.Catalog,
		recommendations:  cfg.Recommendations,
		notifications:    cfg.Notifications,
		surveys:          cfg.Surveys,
		comments:         cfg.Comments,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     cfg.CheckOrigin,
		},
	}
}

// Register mounts all public routes onto the router.
func (h *Handler) Register(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Post("/auth/register", h.registerHandler())
	r.Post("/auth/login", h.loginHandler())
	r.Post("/auth/verify-token", h.verifyTokenHandler())
	r.Post("/auth/request-password-reset", h.requestPasswordResetHandler())
	r.Post("/auth/reset-password", h.resetPasswordHandler())

	r.Get("/companies", h.companyListHandler())
	r.Get("/companies/{id}", h.companyDetailHandler())
	r.Get("/search", h.searchHandler())
	r.Get("/posts/{postId}/comments", h.commentListHandler())
	r.Get("/notifications/ws", h.notificationWebSocketHandler())

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)

		r.Post("/auth/change-password", h.changePasswordHandler())
		r.Post("/auth/logout", h.logoutHandler())

		r.Get("/users/profile", h.profileHandler())
		r.Put("/users/profile", h.profileUpdateHandler())
		r.Put("/users/preferences", h.preferencesUpdateHandler())
		r.Put("/users/survey-responses", h.surveyResponsesUpdateHandler())
		r.Get("/users/starred", h.starredListHandler())
		r.Post("/users/starred/{companyId}", h.starHandler())
		r.Delete("/users/starred/{companyId}", h.unstarHandler())

		r.Get("/recommendations", h.recommendationListHandler())
		r.Post("/recommendations", h.recommendationCreateHandler())
		r.Get("/recommendations/stats/summary", h.recommendationStatsHandler())
		r.Post("/recommendations/compute", h.recommendationComputeHandler())
		r.Get("/recommendations/{id}", h.recommendationDetailHandler())
		r.Put("/recommendations/{id}", h.recommendationUpdateHandler())
		r.Delete("/recommendations/{id}", h.recommendationDeleteHandler())
		r.Patch("/recommendations/{id}/archive", h.recommendationArchiveHandler())

		r.Get("/notifications", h.notificationListHandler())
		r.Get("/notifications/unread-count", h.notificationUnreadCountHandler())
		r.Patch("/notifications/read-all", h.notificationReadAllHandler())
		r.Patch("/notifications/{id}/read", h.notificationReadHandler())
		r.Delete("/notifications/{id}", h.notificationDeleteHandler())
		r.Post("/notifications/subscribe", h.notificationSubscribeHandler())
		r.Post("/notifications/unsubscribe", h.notificationUnsubscribeHandler())
		r.Get("/notifications/stream", h.notificationStreamHandler())

		r.Post("/surveys", h.surveyCreateHandler())
		r.Get("/surveys", h.surveyListHandler())
		r.Get("/surveys/{id}", h.surveyDetailHandler())
		r.Put("/surveys/{id}", h.surveyUpdateHandler())
		r.Delete("/surveys/{id}", h.surveyDeleteHandler())
		r.Patch("/surveys/{id}/publish", h.surveyPublishHandler())
		r.Patch("/surveys/{id}/close", h.surveyCloseHandler())
		r.Post("/surveys/{id}/responses", h.surveyRespondHandler())
		r.Get("/surveys/{id}/responses", h.surveyResponsesHandler())

		r.Post("/posts/{postId}/comments", h.commentCreateHandler())
		r.Post("/comments/{id}/like", h.commentLikeHandler())
		r.Delete("/comments/{id}/like", h.commentUnlikeHandler())
		r.Post("/comments/{id}/replies", h.commentReplyHandler())
		r.Delete("/comments/{id}", h.commentDeleteHandler())
	})
}

func (h *Handler) ok(w http.ResponseWriter, status int, message string, data any) {
	common.WriteSuccess(h.logger, w, status, message, data)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	common.WriteError(h.logger, w, r, err, h.hideInternal)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dest any) error {
	return common.DecodeJSON(w, r, h.maxBodyBytes, dest)
}

// principal returns the caller set by the auth middleware.
func (h *Handler) principal(w http.ResponseWriter, r *http.Request) (accountapp.Principal, bool) {
	p, ok := common.PrincipalFromContext(r.Context())
	if !ok {
		h.fail(w, r, errUnauthenticated)
		return accountapp.Principal{}, false
	}
	return p, true
}
