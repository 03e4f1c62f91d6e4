//go:build integration

package mongo

import (
	"context"
	"fmt"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/mongo"

	accountapp "github.com/sngm3741/ethical-choice/api/internal/account/application"
	account "github.com/sngm3741/ethical-choice/api/internal/account/domain"
	"github.com/sngm3741/ethical-choice/api/internal/apperr"
	catalog "github.com/sngm3741/ethical-choice/api/internal/catalog/domain"
	"github.com/sngm3741/ethical-choice/api/internal/config"
	notificationapp "github.com/sngm3741/ethical-choice/api/internal/notification/application"
	notification "github.com/sngm3741/ethical-choice/api/internal/notification/domain"
	recommendationapp "github.com/sngm3741/ethical-choice/api/internal/recommendation/application"
	"github.com/sngm3741/ethical-choice/api/internal/recommendation/domain"
	survey "github.com/sngm3741/ethical-choice/api/internal/survey/domain"
)

func skipIfNoDocker(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if exec.CommandContext(ctx, "docker", "info").Run() != nil {
		t.Skip("Skipping test: Docker not available")
	}
}

func startMongo(t *testing.T) (*mongo.Database, config.MongoConfig) {
	t.Helper()
	skipIfNoDocker(t)
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Warning: failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "27017/tcp")
	require.NoError(t, err)

	cfg := config.MongoConfig{
		URI:                      fmt.Sprintf("mongodb://%s:%s", host, port.Port()),
		Database:                 "ethical_choice_test",
		ConnectTimeout:           30 * time.Second,
		UserCollection:           "users",
		CompanyCollection:        "companies",
		RecommendationCollection: "recommendations",
		NotificationCollection:   "notifications",
		SurveyCollection:         "surveys",
		CommentCollection:        "comments",
		FailedDeliveryCollection: "failed_deliveries",
	}
	client, err := Connect(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(ctx) })

	db := client.Database(cfg.Database)
	require.NoError(t, EnsureIndexes(ctx, db, cfg))
	return db, cfg
}

func ptr(v float64) *float64 { return &v }

func TestRepositoriesAgainstMongo(t *testing.T) {
	db, cfg := startMongo(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	users := NewUserRepository(db, cfg.UserCollection)
	companies := NewCompanyRepository(db, cfg.CompanyCollection)
	recs := NewRecommendationRepository(db, cfg.RecommendationCollection, cfg.CompanyCollection)
	notifications := NewNotificationRepository(db, cfg.NotificationCollection)
	surveys := NewSurveyRepository(db, cfg.SurveyCollection)

	t.Run("users", func(t *testing.T) {
		u := &account.User{Name: "Ann", Email: "ann@example.com", Role: account.RoleUser, CreatedAt: now, UpdatedAt: now}
		require.NoError(t, users.Insert(ctx, u))
		dup := &account.User{Name: "Ann 2", Email: "ann@example.com"}
		assert.ErrorIs(t, users.Insert(ctx, dup), accountapp.ErrUserExists)

		found, err := users.FindByEmail(ctx, "ANN@example.com")
		require.NoError(t, err)
		assert.Equal(t, u.ID, found.ID)

		_, err = users.FindByID(ctx, "not-an-id")
		assert.True(t, apperr.IsNotFound(err))

		starred, err := users.AddStarred(ctx, u.ID, "c1")
		require.NoError(t, err)
		starred, err = users.AddStarred(ctx, u.ID, "c1")
		require.NoError(t, err)
		assert.Equal(t, []string{"c1"}, starred.StarredCompanies)

		hits, err := users.SearchByName(ctx, "an", 10)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "Ann", hits[0].Name)
	})

	t.Run("recommendations join companies and aggregate stats", func(t *testing.T) {
		c := &catalog.Company{Name: "Acme", Sector: "Energy", ESGMetrics: catalog.ESGMetrics{Environmental: ptr(80)}, CreatedAt: now, UpdatedAt: now}
		require.NoError(t, companies.Insert(ctx, c))

		for _, score := range []float64{85, 65} {
			rec := &domain.Recommendation{UserID: "u1", CompanyID: c.ID, Score: score, Category: domain.CategoryEnvironmental, Status: domain.StatusActive, CreatedAt: now, UpdatedAt: now}
			require.NoError(t, recs.Insert(ctx, rec))
		}

		found, err := recs.Find(ctx, "u1", domain.Criteria{})
		require.NoError(t, err)
		require.Len(t, found, 2)
		assert.Equal(t, 85.0, found[0].Score)
		require.NotNil(t, found[0].Company)
		assert.Equal(t, "Acme", found[0].Company.Name)

		score := 60.0
		updated, err := recs.Update(ctx, found[0].ID, "u1", recommendationapp.Changes{Score: &score})
		require.NoError(t, err)
		assert.Equal(t, 60.0, updated.Score)

		_, err = recs.FindByID(ctx, found[0].ID, "someone-else")
		assert.True(t, apperr.IsNotFound(err))

		stats, err := recs.Stats(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, 2, stats.Total)
		assert.Equal(t, 62.5, stats.AverageScore)
		require.Len(t, stats.ByCategory, 1)
		assert.Equal(t, 60.0, stats.ByCategory[0].MinScore)
	})

	t.Run("notifications are ownership scoped", func(t *testing.T) {
		n := &notification.Notification{UserID: "u1", Title: "t", Message: "m", Type: notification.TypeInfo, CreatedAt: now, UpdatedAt: now}
		require.NoError(t, notifications.Insert(ctx, n))

		_, err := notifications.MarkRead(ctx, n.ID, "u2", now)
		assert.True(t, apperr.IsNotFound(err))

		count, err := notifications.CountUnread(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		items, total, err := notifications.List(ctx, "u1", notificationapp.ListQuery{Page: 1, Limit: 20})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Len(t, items, 1)

		modified, err := notifications.MarkAllRead(ctx, "u1", now)
		require.NoError(t, err)
		assert.Equal(t, int64(1), modified)
	})

	t.Run("survey responses are accepted once while published", func(t *testing.T) {
		s := &survey.Survey{
			Title:     "Values",
			CreatedBy: "u1",
			Status:    survey.StatusDraft,
			Questions: []survey.Question{{ID: "q1", QuestionText: "Pick", QuestionType: survey.QuestionMultipleChoice, IsRequired: true}},
			CreatedAt: now,
			UpdatedAt: now,
		}
		require.NoError(t, surveys.Insert(ctx, s))

		resp := survey.Response{UserID: "u2", Answers: []survey.Answer{{QuestionID: "q1", Answer: "a"}}, SubmittedAt: now}
		assert.ErrorIs(t, surveys.AddResponse(ctx, s.ID, resp), survey.ErrNotPublished)

		s.Status = survey.StatusPublished
		require.NoError(t, surveys.Update(ctx, *s, survey.StatusDraft))
		require.NoError(t, surveys.AddResponse(ctx, s.ID, resp))
		assert.ErrorIs(t, surveys.AddResponse(ctx, s.ID, resp), survey.ErrAlreadyResponded)

		stored, err := surveys.FindByID(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, stored.ResponseCount)
		assert.Equal(t, "a", stored.Responses[0].Answers[0].Answer)
	})

	t.Run("survey writes are guarded on the stored status", func(t *testing.T) {
		s := &survey.Survey{
			Title:     "Guarded",
			CreatedBy: "u1",
			Status:    survey.StatusDraft,
			Questions: []survey.Question{{ID: "q1", QuestionText: "Pick", QuestionType: survey.QuestionOpenEnded}},
			CreatedAt: now,
			UpdatedAt: now,
		}
		require.NoError(t, surveys.Insert(ctx, s))

		published := *s
		published.Status = survey.StatusPublished
		require.NoError(t, surveys.Update(ctx, published, survey.StatusDraft))

		// A writer that still believes the survey is a draft.
		stale := *s
		stale.Title = "Rewritten"
		assert.ErrorIs(t, surveys.Update(ctx, stale, survey.StatusDraft), survey.ErrNotDraft)
		assert.ErrorIs(t, surveys.Delete(ctx, s.ID), survey.ErrNotDraft)

		stored, err := surveys.FindByID(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, survey.StatusPublished, stored.Status)
		assert.Equal(t, "Guarded", stored.Title)

		closed := published
		closed.Status = survey.StatusClosed
		require.NoError(t, surveys.Update(ctx, closed, survey.StatusPublished))
		assert.ErrorIs(t, surveys.Update(ctx, closed, survey.StatusPublished), survey.ErrAlreadyClosed)
	})
}
