package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	accountapp "github.com/sngm3741/ethical-choice/api/internal/account/application"
	"github.com/sngm3741/ethical-choice/api/internal/authz"
	catalogapp "github.com/sngm3741/ethical-choice/api/internal/catalog/application"
	commentapp "github.com/sngm3741/ethical-choice/api/internal/comment/application"
	"github.com/sngm3741/ethical-choice/api/internal/config"
	"github.com/sngm3741/ethical-choice/api/internal/infrastructure/cache"
	"github.com/sngm3741/ethical-choice/api/internal/infrastructure/events"
	mongostore "github.com/sngm3741/ethical-choice/api/internal/infrastructure/mongo"
	"github.com/sngm3741/ethical-choice/api/internal/infrastructure/secedgar"
	adminhttp "github.com/sngm3741/ethical-choice/api/internal/interfaces/http/admin"
	publichttp "github.com/sngm3741/ethical-choice/api/internal/interfaces/http/public"
	"github.com/sngm3741/ethical-choice/api/internal/logging"
	notificationapp "github.com/sngm3741/ethical-choice/api/internal/notification/application"
	notification "github.com/sngm3741/ethical-choice/api/internal/notification/domain"
	recommendationapp "github.com/sngm3741/ethical-choice/api/internal/recommendation/application"
	"github.com/sngm3741/ethical-choice/api/internal/server"
	"github.com/sngm3741/ethical-choice/api/internal/supervisor"
	surveyapp "github.com/sngm3741/ethical-choice/api/internal/survey/application"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// The logger is not configured yet.
		bootLogger := logging.New(logging.DefaultConfig())
		bootLogger.Fatal().Err(err).Msg("load configuration")
	}

	logger := logging.New(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Service:   "ethical-choice-api",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *cfg, logger); err != nil {
		logger.Error().Err(err).Msg("api exited with error")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	client, err := mongostore.Connect(ctx, cfg.Mongo)
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(disconnectCtx); err != nil {
			logger.Warn().Err(err).Msg("mongo disconnect")
		}
	}()

	db := client.Database(cfg.Mongo.Database)
	if err := mongostore.EnsureIndexes(ctx, db, cfg.Mongo); err != nil {
		return err
	}

	store, err := cache.Open(cfg.Cache.Path, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn().Err(err).Msg("cache close")
		}
	}()

	broker := events.NewBroker(logger, cfg.Notification.StreamBufferSize)
	defer func() {
		if err := broker.Close(); err != nil {
			logger.Warn().Err(err).Msg("event broker close")
		}
	}()

	enforcer, err := authz.NewEnforcer()
	if err != nil {
		return err
	}

	users := mongostore.NewUserRepository(db, cfg.Mongo.UserCollection)
	companies := mongostore.NewCompanyRepository(db, cfg.Mongo.CompanyCollection)
	recommendations := mongostore.NewRecommendationRepository(db, cfg.Mongo.RecommendationCollection, cfg.Mongo.CompanyCollection)
	notifications := mongostore.NewNotificationRepository(db, cfg.Mongo.NotificationCollection)
	failures := mongostore.NewFailedDeliveryRepository(db, cfg.Mongo.FailedDeliveryCollection)
	surveys := mongostore.NewSurveyRepository(db, cfg.Mongo.SurveyCollection)
	comments := mongostore.NewCommentRepository(db, cfg.Mongo.CommentCollection)

	sec := secedgar.New(secedgar.Config{
		BaseURL:           cfg.SEC.BaseURL,
		UserAgent:         cfg.SEC.UserAgent,
		Timeout:           cfg.SEC.Timeout,
		RequestsPerSecond: cfg.SEC.RequestsPerSecond,
		BreakerFailures:   cfg.SEC.BreakerFailures,
		BreakerTimeout:    cfg.SEC.BreakerTimeout,
	}, nil, logger)

	tokens := accountapp.NewTokenService(accountapp.TokenConfig{
		Secret:   []byte(cfg.Auth.JWTSecret),
		Issuer:   cfg.Auth.Issuer,
		TTL:      cfg.Auth.TokenTTL,
		ResetTTL: cfg.Auth.ResetTokenTTL,
	})
	authService := accountapp.NewAuthService(users, accountapp.NewPasswordHasher(cfg.Auth.BcryptCost), tokens, store, accountapp.AuthOptions{
		RefreshThreshold: cfg.Auth.RefreshThreshold,
		AdminEmails:      cfg.Auth.AdminEmails,
	}, logger)
	profileService := accountapp.NewProfileService(users, companies, logger)
	catalogService := catalogapp.NewService(companies, users, sec, store, cfg.Catalog.CacheTTL, logger)
	notificationService := notificationapp.NewService(notifications, users, broker, broker, store, notificationapp.Options{
		ListCacheTTL:      cfg.Notification.ListCacheTTL,
		UnreadCacheTTL:    cfg.Notification.UnreadCacheTTL,
		HeartbeatInterval: cfg.Notification.HeartbeatInterval,
		Failures:          failures,
	}, logger)
	notify := func(ctx context.Context, userID, message string) error {
		_, err := notificationService.Send(ctx, notificationapp.SendCommand{
			UserID:  userID,
			Message: message,
			Title:   "New recommendations",
			Type:    notification.TypeRecommendation,
		})
		return err
	}
	recommendationService := recommendationapp.NewService(recommendations, companies, users, store, notify, recommendationapp.Options{
		CacheTTL:     cfg.Recommendation.CacheTTL,
		MinScore:     cfg.Recommendation.MinScore,
		ComputeLimit: cfg.Recommendation.ComputeLimit,
	}, logger)
	surveyService := surveyapp.NewService(surveys, store, cfg.Survey.CacheTTL, logger)
	commentService := commentapp.NewService(comments, logger)

	production := cfg.IsProduction()
	publicHandler := publichttp.NewHandler(publichttp.Config{
		Logger:          logger,
		Production:      production,
		MaxBodyBytes:    cfg.Server.MaxBodyBytes,
		RequestTimeout:  cfg.Server.RequestTimeout,
		Auth:            authService,
		Profiles:        profileService,
		Catalog:         catalogService,
		Recommendations: recommendationService,
		Notifications:   notificationService,
		Surveys:         surveyService,
		Comments:        commentService,
		CheckOrigin:     originChecker(cfg.CORS.AllowedOrigins),
	})
	adminHandler := adminhttp.NewHandler(adminhttp.Config{
		Logger:         logger,
		Production:     production,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		RequestTimeout: cfg.Server.RequestTimeout,
		Authorizer:     enforcer,
		Catalog:        catalogService,
		Notifications:  notificationService,
	})

	httpServer := server.New(cfg, server.Dependencies{
		Database: client,
		Cache:    store,
		Auth:     authService,
		Public:   publicHandler,
		Admin:    adminHandler,
	}, logger)

	tree := supervisor.NewTree(logging.NewSlogLogger(logger), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddDataService(supervisor.NewCacheGCService(store, cfg.Cache.GCInterval, logger))
	tree.AddAPIService(httpServer)

	logger.Info().Str("addr", cfg.Server.Addr).Str("environment", cfg.Server.Environment).Msg("starting api")
	if err := tree.Serve(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	logger.Info().Msg("api stopped")
	return nil
}

// originChecker accepts websocket upgrades from the CORS allow-list. A "*"
// entry allows any origin; requests without an Origin header are accepted.
func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || slices.Contains(allowed, "*") {
			return true
		}
		return slices.Contains(allowed, origin)
	}
}
