package service

import (
	"Shortlytics-Backend/internal/analytics"
	"Shortlytics-Backend/internal/cache"
	"Shortlytics-Backend/internal/config"
	"Shortlytics-Backend/internal/domain"
	"Shortlytics-Backend/internal/repository"
	"Shortlytics-Backend/internal/repository/memory"
	"Shortlytics-Backend/pkg/useragent"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testBaseURL = "http://localhost:3000"
	desktopUA   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	mobileUA    = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
)

// countingStore counts alias lookups made through it
type countingStore struct {
	repository.Storage
	lookups atomic.Int64
}

func (s *countingStore) GetURLRecord(ctx context.Context, alias string) (*domain.URLRecord, error) {
	s.lookups.Add(1)
	return s.Storage.GetURLRecord(ctx, alias)
}

// brokenStore fails every alias lookup
type brokenStore struct {
	repository.Storage
}

func (brokenStore) GetURLRecord(context.Context, string) (*domain.URLRecord, error) {
	return nil, errors.New("connection refused")
}

// gatedStore holds alias lookups until release is closed or the lookup context ends
type gatedStore struct {
	repository.Storage
	entered chan struct{}
	release chan struct{}
	once    sync.Once
	lookups atomic.Int64
}

func newGatedStore(store repository.Storage) *gatedStore {
	return &gatedStore{
		Storage: store,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (s *gatedStore) GetURLRecord(ctx context.Context, alias string) (*domain.URLRecord, error) {
	s.lookups.Add(1)
	s.once.Do(func() { close(s.entered) })
	select {
	case <-s.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return s.Storage.GetURLRecord(ctx, alias)
}

type testEnv struct {
	store      *memory.MemStorage
	lookups    *countingStore
	redis      *miniredis.Miniredis
	cache      *cache.RedirectCache
	registrar  *Registrar
	resolver   *Resolver
	reports    *Reports
	processor  *analytics.Processor
	aggregator *analytics.Aggregator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := zap.NewNop()

	store := memory.New()
	lookups := &countingStore{Storage: store}

	mr := miniredis.RunT(t)
	redirectCache := cache.New(cache.NewClient(config.Redis{URL: mr.Addr()}), 300*time.Second)
	t.Cleanup(func() { _ = redirectCache.Close() })

	classifier, err := useragent.NewClassifier("", log)
	require.NoError(t, err)

	aggregator := analytics.NewAggregator(store, classifier, log)
	processor := analytics.NewProcessor(aggregator, log, analytics.ProcessorConfig{
		WorkerCount:   2,
		BufferSize:    64,
		RetryAttempts: 1,
	})
	require.NoError(t, processor.Start())
	t.Cleanup(func() { _ = processor.Stop() })

	cfg := &config.URLShortener{BaseURL: testBaseURL, AliasLength: 8}

	return &testEnv{
		store:      store,
		lookups:    lookups,
		redis:      mr,
		cache:      redirectCache,
		registrar:  NewRegistrar(store, cfg, log),
		resolver:   NewResolver(lookups, redirectCache, aggregator, processor, 300*time.Second, log),
		reports:    NewReports(store, log),
		processor:  processor,
		aggregator: aggregator,
	}
}

func (e *testEnv) flush(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, e.processor.Flush(ctx))
}
