package analytics

import (
	"Shortlytics-Backend/internal/repository"
	"Shortlytics-Backend/pkg/useragent"
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ErrPartialWrite marks a click whose breakdown rows were updated but whose record counters were not.
// Such clicks must not be replayed, a replay would count the breakdowns twice.
var ErrPartialWrite = errors.New("analytics partially written")

// ClickData represents one resolved redirect to be counted
type ClickData struct {
	Alias     string
	IPAddress string
	UserAgent string
	ClickedAt time.Time
}

// Classifier turns a User-Agent header into OS and device names
type Classifier interface {
	Classify(userAgent string) useragent.Classification
}

// Aggregator updates click counters and OS/device breakdowns of a URL record
type Aggregator struct {
	storage    repository.Storage
	classifier Classifier
	log        *zap.Logger
}

func NewAggregator(storage repository.Storage, classifier Classifier, log *zap.Logger) *Aggregator {
	return &Aggregator{
		storage:    storage,
		classifier: classifier,
		log:        log.With(zap.String("component", "analytics_aggregator")),
	}
}

// Update records the click and only logs failures. Used on the synchronous redirect path.
func (a *Aggregator) Update(ctx context.Context, click ClickData) {
	if err := a.Record(ctx, click); err != nil {
		if errors.Is(err, repository.ErrAliasNotFound) {
			a.log.Warn("click for unknown alias ignored", zap.String("alias", click.Alias))
			return
		}
		a.log.Error("failed to update analytics", zap.String("alias", click.Alias), zap.Error(err))
	}
}

// Record writes OS stats, device stats and then the record counters.
func (a *Aggregator) Record(ctx context.Context, click ClickData) error {
	record, err := a.storage.GetURLRecord(ctx, click.Alias)
	if err != nil {
		return fmt.Errorf("load record %q: %w", click.Alias, err)
	}

	if click.ClickedAt.IsZero() {
		click.ClickedAt = time.Now().UTC()
	}

	info := a.classifier.Classify(click.UserAgent)
	creatorClick := record.IsCreatorIP(click.IPAddress)

	// Nothing is written before the OS row, so a failure here is safe to retry
	osID, osCreated, err := a.storage.EnsureStats(ctx, record.ID, repository.OsBreakdown, info.OSFamily, creatorClick)
	if err != nil {
		return fmt.Errorf("update os stats: %w", err)
	}

	deviceID, deviceCreated, err := a.storage.EnsureStats(ctx, record.ID, repository.DeviceBreakdown, info.DeviceCategory, creatorClick)
	if err != nil {
		return fmt.Errorf("%w: update device stats: %w", ErrPartialWrite, err)
	}

	update, err := a.storage.RecordClick(ctx, record.ID, creatorClick, click.ClickedAt)
	if err != nil {
		return fmt.Errorf("%w: update record counters: %w", ErrPartialWrite, err)
	}

	a.log.Debug("click recorded",
		zap.String("alias", click.Alias),
		zap.String("os", info.OSFamily),
		zap.String("device", info.DeviceCategory),
		zap.Bool("creator_click", creatorClick),
		zap.Int64("os_stats_id", osID),
		zap.Bool("os_stats_created", osCreated),
		zap.Int64("device_stats_id", deviceID),
		zap.Bool("device_stats_created", deviceCreated),
		zap.Int64("total_clicks", update.TotalClicks),
		zap.Int64("unique_users", update.UniqueUsers),
	)
	return nil
}
