package analytics

import (
	"Shortlytics-Backend/internal/repository"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) Record(ctx context.Context, click ClickData) error {
	args := m.Called(ctx, click)
	return args.Error(0)
}

func testConfig() ProcessorConfig {
	return ProcessorConfig{
		WorkerCount:     2,
		BufferSize:      16,
		RetryAttempts:   3,
		RetryDelay:      time.Millisecond,
		ShutdownTimeout: 5 * time.Second,
		JobTimeout:      time.Second,
	}
}

func flush(t *testing.T, p *Processor) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, p.Flush(ctx))
}

func TestProcessor_ProcessesClicks(t *testing.T) {
	rec := &mockRecorder{}
	rec.On("Record", mock.Anything, mock.AnythingOfType("analytics.ClickData")).Return(nil)

	p := NewProcessor(rec, zap.NewNop(), testConfig())
	require.NoError(t, p.Start())
	defer p.Stop()

	for i := 0; i < 10; i++ {
		require.NoError(t, p.SubmitClick(ClickData{Alias: "ex1", IPAddress: "1.2.3.4"}))
	}
	flush(t, p)

	rec.AssertNumberOfCalls(t, "Record", 10)
	stats := p.GetStats()
	assert.Equal(t, int64(10), stats.Processed)
	assert.Zero(t, stats.Failed)
	assert.True(t, stats.Started)
	assert.Equal(t, 16, stats.QueueCapacity)
}

func TestProcessor_RetriesTransientErrors(t *testing.T) {
	rec := &mockRecorder{}
	rec.On("Record", mock.Anything, mock.Anything).Return(errors.New("timeout")).Once()
	rec.On("Record", mock.Anything, mock.Anything).Return(nil).Once()

	p := NewProcessor(rec, zap.NewNop(), testConfig())
	require.NoError(t, p.Start())
	defer p.Stop()

	require.NoError(t, p.SubmitClick(ClickData{Alias: "ex1"}))
	flush(t, p)

	rec.AssertNumberOfCalls(t, "Record", 2)
	assert.Equal(t, int64(1), p.GetStats().Processed)
}

func TestProcessor_GivesUpAfterRetryAttempts(t *testing.T) {
	rec := &mockRecorder{}
	rec.On("Record", mock.Anything, mock.Anything).Return(errors.New("db down"))

	p := NewProcessor(rec, zap.NewNop(), testConfig())
	require.NoError(t, p.Start())
	defer p.Stop()

	require.NoError(t, p.SubmitClick(ClickData{Alias: "ex1"}))
	flush(t, p)

	rec.AssertNumberOfCalls(t, "Record", 3)
	assert.Equal(t, int64(1), p.GetStats().Failed)
}

func TestProcessor_DoesNotRetryPermanentErrors(t *testing.T) {
	for name, err := range map[string]error{
		"partial write": ErrPartialWrite,
		"unknown alias": repository.ErrAliasNotFound,
	} {
		t.Run(name, func(t *testing.T) {
			rec := &mockRecorder{}
			rec.On("Record", mock.Anything, mock.Anything).Return(err)

			p := NewProcessor(rec, zap.NewNop(), testConfig())
			require.NoError(t, p.Start())
			defer p.Stop()

			require.NoError(t, p.SubmitClick(ClickData{Alias: "ex1"}))
			flush(t, p)

			rec.AssertNumberOfCalls(t, "Record", 1)
			assert.Equal(t, int64(1), p.GetStats().Failed)
		})
	}
}

func TestProcessor_QueueFull(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	rec := &mockRecorder{}
	rec.On("Record", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
	}).Return(nil)

	cfg := testConfig()
	cfg.WorkerCount = 1
	cfg.BufferSize = 1
	p := NewProcessor(rec, zap.NewNop(), cfg)
	require.NoError(t, p.Start())

	require.NoError(t, p.SubmitClick(ClickData{Alias: "a"}))
	<-started
	require.NoError(t, p.SubmitClick(ClickData{Alias: "b"}))
	assert.ErrorIs(t, p.SubmitClick(ClickData{Alias: "c"}), ErrQueueFull)

	close(release)
	flush(t, p)
	require.NoError(t, p.Stop())

	stats := p.GetStats()
	assert.Equal(t, int64(2), stats.Processed)
	assert.Equal(t, int64(1), stats.Dropped)
}

func TestProcessor_StopDrainsQueue(t *testing.T) {
	rec := &mockRecorder{}
	rec.On("Record", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		time.Sleep(2 * time.Millisecond)
	}).Return(nil)

	p := NewProcessor(rec, zap.NewNop(), testConfig())
	require.NoError(t, p.Start())

	for i := 0; i < 8; i++ {
		require.NoError(t, p.SubmitClick(ClickData{Alias: "ex1"}))
	}
	require.NoError(t, p.Stop())

	rec.AssertNumberOfCalls(t, "Record", 8)
	assert.ErrorIs(t, p.SubmitClick(ClickData{Alias: "late"}), ErrNotRunning)
	assert.ErrorIs(t, p.Stop(), ErrNotRunning)
	assert.Error(t, p.Start())
}

func TestProcessor_SubmitBeforeStart(t *testing.T) {
	p := NewProcessor(&mockRecorder{}, zap.NewNop(), testConfig())
	assert.ErrorIs(t, p.SubmitClick(ClickData{Alias: "ex1"}), ErrNotRunning)
	assert.Equal(t, int64(1), p.GetStats().Dropped)
}

func TestProcessor_WithAggregator(t *testing.T) {
	ctx := context.Background()
	store := memoryStoreWithRecord(t, "ex1", "1.2.3.4")
	agg := NewAggregator(store, testClassifier, zap.NewNop())

	p := NewProcessor(agg, zap.NewNop(), testConfig())
	require.NoError(t, p.Start())

	for i := 0; i < 5; i++ {
		require.NoError(t, p.SubmitClick(ClickData{Alias: "ex1", IPAddress: "5.6.7.8", UserAgent: "iphone"}))
	}
	require.NoError(t, p.Stop())

	record, err := store.GetURLRecordWithAnalytics(ctx, "ex1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), record.TotalClicks)
	assert.Equal(t, int64(0), record.UniqueUsers)
	assert.Equal(t, int64(5), record.OsStats.UniqueClicks)
	assert.Len(t, record.ClicksByDate, 5)
}
