package service

import (
	"Shortlytics-Backend/internal/repository"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestResolver_CreateThenResolve(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	record, err := env.registrar.Create(ctx, CreateInput{FullURL: "https://example.com", CustomAlias: "ex1", CreatorIP: "1.2.3.4"})
	require.NoError(t, err)
	assert.Equal(t, testBaseURL+"/api/shorten/ex1", record.ShortURL)

	// First visit from the creator: store hit, synchronous analytics
	out, err := env.resolver.Resolve(ctx, record.ShortURL, "ex1", RequestContext{IP: "1.2.3.4", UserAgent: desktopUA})
	require.NoError(t, err)
	assert.Equal(t, RedirectOutcome{Status: StatusFound, Location: "https://example.com"}, out)

	cached, err := env.redis.Get(record.ShortURL)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", cached)
	assert.Equal(t, 300*time.Second, env.redis.TTL(record.ShortURL))

	stored, err := env.store.GetURLRecord(ctx, "ex1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.TotalClicks)
	assert.Equal(t, int64(1), stored.UniqueUsers)

	// Second visit from someone else: cache hit, analytics in the background
	out, err = env.resolver.Resolve(ctx, record.ShortURL, "ex1", RequestContext{IP: "5.6.7.8", UserAgent: mobileUA})
	require.NoError(t, err)
	assert.Equal(t, StatusFound, out.Status)
	assert.Equal(t, "https://example.com", out.Location)
	env.flush(t)

	stored, err = env.store.GetURLRecordWithAnalytics(ctx, "ex1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), stored.TotalClicks)
	assert.Equal(t, int64(1), stored.UniqueUsers)
	require.Len(t, stored.ClicksByDate, 2)
	assert.Equal(t, int64(1), stored.ClicksByDate[0].ClickCount)
	assert.Equal(t, int64(2), stored.ClicksByDate[1].ClickCount)

	assert.Equal(t, int64(1), env.lookups.lookups.Load(), "second resolution must be served from cache")
	assert.Equal(t, int64(1), env.cache.Stats().Hits)
}

func TestResolver_StatsRowsCreatedOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	record, err := env.registrar.Create(ctx, CreateInput{FullURL: "https://example.com", CustomAlias: "ex1", CreatorIP: "1.2.3.4"})
	require.NoError(t, err)

	var last int64
	for i, ua := range []string{desktopUA, mobileUA, desktopUA, mobileUA} {
		_, err := env.resolver.Resolve(ctx, record.ShortURL, "ex1", RequestContext{IP: "9.9.9.9", UserAgent: ua})
		require.NoError(t, err)
		env.flush(t)

		stored, err := env.store.GetURLRecordWithAnalytics(ctx, "ex1")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, stored.TotalClicks, last)
		last = stored.TotalClicks
		require.Len(t, stored.ClicksByDate, i+1)
		assert.Equal(t, stored.TotalClicks, stored.ClicksByDate[i].ClickCount)
	}

	for _, kind := range []repository.StatsKind{repository.OsBreakdown, repository.DeviceBreakdown} {
		rows, err := env.store.CountStatsRows(ctx, kind)
		require.NoError(t, err)
		assert.Equal(t, int64(1), rows, kind.String())
	}

	stored, err := env.store.GetURLRecordWithAnalytics(ctx, "ex1")
	require.NoError(t, err)
	assert.Equal(t, "Windows", stored.OsStats.OsName)
	assert.Equal(t, int64(4), stored.OsStats.UniqueClicks)
	assert.Equal(t, "desktop", stored.DeviceStats.DeviceName)
	assert.Equal(t, int64(4), stored.DeviceStats.UniqueClicks)
}

func TestResolver_UnknownAlias(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	key := testBaseURL + "/api/shorten/nope"

	out, err := env.resolver.Resolve(ctx, key, "nope", RequestContext{IP: "1.2.3.4"})
	require.NoError(t, err)
	assert.Equal(t, StatusNotFound, out.Status)
	assert.Empty(t, out.Location)

	assert.False(t, env.redis.Exists(key))
	rows, err := env.store.CountStatsRows(ctx, repository.OsBreakdown)
	require.NoError(t, err)
	assert.Zero(t, rows)

	records, err := env.store.ListURLRecords(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestResolver_StoreFailure(t *testing.T) {
	env := newTestEnv(t)
	resolver := NewResolver(brokenStore{env.store}, env.cache, env.aggregator, env.processor, time.Minute, zap.NewNop())

	_, err := resolver.Resolve(context.Background(), testBaseURL+"/api/shorten/ex1", "ex1", RequestContext{})
	assert.ErrorIs(t, err, ErrTransientStore)
}

func TestResolver_CacheDownFallsBackToStore(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	record, err := env.registrar.Create(ctx, CreateInput{FullURL: "https://example.com", CustomAlias: "ex1", CreatorIP: "1.2.3.4"})
	require.NoError(t, err)

	env.redis.Close()

	for i := 0; i < 2; i++ {
		out, err := env.resolver.Resolve(ctx, record.ShortURL, "ex1", RequestContext{IP: "1.2.3.4"})
		require.NoError(t, err)
		assert.Equal(t, "https://example.com", out.Location)
	}

	assert.Equal(t, int64(2), env.lookups.lookups.Load())
	stored, err := env.store.GetURLRecord(ctx, "ex1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), stored.TotalClicks)
}

func TestResolver_WithoutCache(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.registrar.Create(ctx, CreateInput{FullURL: "https://example.com", CustomAlias: "ex1"})
	require.NoError(t, err)

	resolver := NewResolver(env.store, nil, env.aggregator, env.processor, time.Minute, zap.NewNop())
	out, err := resolver.Resolve(ctx, "k", "ex1", RequestContext{})
	require.NoError(t, err)
	assert.Equal(t, StatusFound, out.Status)
}

func TestResolver_SharedLookupSurvivesCanceledCaller(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.registrar.Create(ctx, CreateInput{FullURL: "https://example.com", CustomAlias: "ex1", CreatorIP: "1.2.3.4"})
	require.NoError(t, err)

	gated := newGatedStore(env.store)
	resolver := NewResolver(gated, nil, env.aggregator, env.processor, time.Minute, zap.NewNop())
	key := testBaseURL + "/api/shorten/ex1"

	type result struct {
		out RedirectOutcome
		err error
	}

	firstCtx, cancelFirst := context.WithCancel(ctx)
	defer cancelFirst()
	first := make(chan result, 1)
	go func() {
		out, err := resolver.Resolve(firstCtx, key, "ex1", RequestContext{IP: "1.2.3.4"})
		first <- result{out, err}
	}()

	select {
	case <-gated.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("lookup did not start")
	}

	second := make(chan result, 1)
	go func() {
		out, err := resolver.Resolve(ctx, key, "ex1", RequestContext{IP: "5.6.7.8"})
		second <- result{out, err}
	}()
	// Give the second caller time to join the in-flight lookup
	time.Sleep(50 * time.Millisecond)

	cancelFirst()
	select {
	case r := <-first:
		assert.ErrorIs(t, r.err, context.Canceled)
		assert.NotErrorIs(t, r.err, ErrTransientStore)
	case <-time.After(2 * time.Second):
		t.Fatal("canceled caller did not return")
	}

	close(gated.release)
	select {
	case r := <-second:
		require.NoError(t, r.err)
		assert.Equal(t, RedirectOutcome{Status: StatusFound, Location: "https://example.com"}, r.out)
	case <-time.After(2 * time.Second):
		t.Fatal("waiting caller did not return")
	}

	assert.Equal(t, int64(1), gated.lookups.Load())
}
