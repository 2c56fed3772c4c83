package postgres

import (
	"Shortlytics-Backend/internal/database"
	"Shortlytics-Backend/internal/domain"
	"Shortlytics-Backend/internal/repository"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupStorage поднимает PostgreSQL в контейнере и возвращает storage поверх мигрированной схемы.
func setupStorage(t *testing.T) *PostgresStorage {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}

	ctx := context.Background()
	container, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		tcpostgres.WithDatabase("shortener_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Skipf("docker is not available: %v", err)
	}
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	log := zap.NewNop()
	require.NoError(t, database.AutoMigrate(db, log))

	return New(db, log)
}

func newRecord(alias string) *domain.URLRecord {
	return &domain.URLRecord{
		FullURL:   "https://example.com/" + alias,
		Alias:     alias,
		ShortURL:  "http://localhost:3000/api/shorten/" + alias,
		CreatorIP: "10.0.0.1",
	}
}

func TestPostgresStorage(t *testing.T) {
	storage := setupStorage(t)
	ctx := context.Background()

	t.Run("create and get record", func(t *testing.T) {
		record := newRecord("pg-one")
		require.NoError(t, storage.CreateURLRecord(ctx, record))
		assert.NotZero(t, record.ID)

		got, err := storage.GetURLRecord(ctx, "pg-one")
		require.NoError(t, err)
		assert.Equal(t, record.FullURL, got.FullURL)
		assert.Zero(t, got.TotalClicks)

		exists, err := storage.AliasExists(ctx, "pg-one")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = storage.ShortURLExists(ctx, record.ShortURL)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("duplicate alias", func(t *testing.T) {
		require.NoError(t, storage.CreateURLRecord(ctx, newRecord("pg-dup")))
		err := storage.CreateURLRecord(ctx, newRecord("pg-dup"))
		assert.ErrorIs(t, err, repository.ErrAliasExists)
	})

	t.Run("unknown alias", func(t *testing.T) {
		_, err := storage.GetURLRecord(ctx, "pg-missing")
		assert.ErrorIs(t, err, repository.ErrAliasNotFound)

		_, err = storage.GetURLRecordWithAnalytics(ctx, "pg-missing")
		assert.ErrorIs(t, err, repository.ErrAliasNotFound)
	})

	t.Run("stats row is created once", func(t *testing.T) {
		record := newRecord("pg-stats")
		require.NoError(t, storage.CreateURLRecord(ctx, record))

		before, err := storage.CountStatsRows(ctx, repository.OsBreakdown)
		require.NoError(t, err)

		firstID, created, err := storage.EnsureStats(ctx, record.ID, repository.OsBreakdown, "Windows", false)
		require.NoError(t, err)
		assert.True(t, created)

		secondID, created, err := storage.EnsureStats(ctx, record.ID, repository.OsBreakdown, "Linux", true)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, firstID, secondID)

		after, err := storage.CountStatsRows(ctx, repository.OsBreakdown)
		require.NoError(t, err)
		assert.Equal(t, before+1, after)

		got, err := storage.GetURLRecordWithAnalytics(ctx, "pg-stats")
		require.NoError(t, err)
		require.NotNil(t, got.OsStats)
		assert.Equal(t, "Windows", got.OsStats.OsName)
		assert.Equal(t, int64(2), got.OsStats.UniqueClicks)
		assert.Equal(t, int64(2), got.OsStats.UniqueUsers)
		assert.Nil(t, got.DeviceStats)
	})

	t.Run("record click keeps running totals", func(t *testing.T) {
		record := newRecord("pg-clicks")
		require.NoError(t, storage.CreateURLRecord(ctx, record))

		now := time.Now().UTC().Truncate(time.Second)
		update, err := storage.RecordClick(ctx, record.ID, true, now)
		require.NoError(t, err)
		assert.Equal(t, int64(1), update.TotalClicks)
		assert.Equal(t, int64(1), update.UniqueUsers)

		update, err = storage.RecordClick(ctx, record.ID, false, now.Add(time.Minute))
		require.NoError(t, err)
		assert.Equal(t, int64(2), update.TotalClicks)
		assert.Equal(t, int64(1), update.UniqueUsers)
		assert.Equal(t, int64(2), update.Entry.ClickCount)

		got, err := storage.GetURLRecordWithAnalytics(ctx, "pg-clicks")
		require.NoError(t, err)
		require.Len(t, got.ClicksByDate, 2)
		assert.Equal(t, int64(1), got.ClicksByDate[0].ClickCount)
		assert.Equal(t, int64(2), got.ClicksByDate[1].ClickCount)
	})

	t.Run("record click on unknown record", func(t *testing.T) {
		_, err := storage.RecordClick(ctx, 999999, false, time.Now())
		assert.ErrorIs(t, err, repository.ErrAliasNotFound)
	})

	t.Run("users and owned records", func(t *testing.T) {
		user, err := storage.FindOrCreateUser(ctx, "ext-1", "owner@example.com", "Owner")
		require.NoError(t, err)

		again, err := storage.FindOrCreateUser(ctx, "ext-1", "owner@example.com", "Owner")
		require.NoError(t, err)
		assert.Equal(t, user.ID, again.ID)
		assert.Equal(t, "owner@example.com", again.Email)

		other, err := storage.FindOrCreateUser(ctx, "ext-2", "other@example.com", "Other")
		require.NoError(t, err)
		assert.NotEqual(t, user.ID, other.ID)

		topic := "pg-topic"
		owned := newRecord("pg-owned")
		owned.OwnerID = &user.ID
		owned.Topic = &topic
		require.NoError(t, storage.CreateURLRecord(ctx, owned))

		records, err := storage.ListUserURLRecords(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "pg-owned", records[0].Alias)

		records, err = storage.ListURLRecordsByTopic(ctx, topic)
		require.NoError(t, err)
		require.Len(t, records, 1)

		all, err := storage.ListURLRecords(ctx)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(all), 5)
	})
}
