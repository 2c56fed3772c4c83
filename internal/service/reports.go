package service

import (
	"Shortlytics-Backend/internal/domain"
	"Shortlytics-Backend/internal/repository"
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// AliasReport is the analytics of a single short URL
type AliasReport struct {
	TotalClicks  int64               `json:"totalClicks"`
	UniqueUsers  int64               `json:"uniqueUsers"`
	ClicksByDate []domain.ClickEntry `json:"clicksByDate"`
	OsType       *domain.OsStats     `json:"osType"`
	DeviceType   *domain.DeviceStats `json:"deviceType"`
}

type TopicURL struct {
	ShortURL    string `json:"shortUrl"`
	TotalClicks int64  `json:"totalClicks"`
	UniqueUsers int64  `json:"uniqueUsers"`
}

// TopicReport sums the records sharing a topic. ClicksByDate holds one log per record.
type TopicReport struct {
	TotalClicks  int64                 `json:"totalClicks"`
	UniqueUsers  int64                 `json:"uniqueUsers"`
	ClicksByDate [][]domain.ClickEntry `json:"clicksByDate"`
	URLs         []TopicURL            `json:"urls"`
}

type OverallReport struct {
	TotalURLs    int                   `json:"totalUrls"`
	TotalClicks  int64                 `json:"totalClicks"`
	UniqueUsers  int64                 `json:"uniqueUsers"`
	ClicksByDate [][]domain.ClickEntry `json:"clicksByDate"`
	OsType       []*domain.OsStats     `json:"osType"`
	DeviceType   []*domain.DeviceStats `json:"deviceType"`
}

type Reports struct {
	storage repository.Storage
	log     *zap.Logger
}

func NewReports(storage repository.Storage, log *zap.Logger) *Reports {
	return &Reports{
		storage: storage,
		log:     log.With(zap.String("component", "reports")),
	}
}

func (r *Reports) AliasAnalytics(ctx context.Context, alias string) (*AliasReport, error) {
	record, err := r.storage.GetURLRecordWithAnalytics(ctx, alias)
	if err != nil {
		if errors.Is(err, repository.ErrAliasNotFound) {
			return nil, fmt.Errorf("alias %q: %w", alias, ErrNotFound)
		}
		return nil, fmt.Errorf("%w: %w", ErrTransientStore, err)
	}

	return &AliasReport{
		TotalClicks:  record.TotalClicks,
		UniqueUsers:  record.UniqueUsers,
		ClicksByDate: clicksOf(record),
		OsType:       record.OsStats,
		DeviceType:   record.DeviceStats,
	}, nil
}

func (r *Reports) TopicAnalytics(ctx context.Context, topic string) (*TopicReport, error) {
	records, err := r.storage.ListURLRecordsByTopic(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransientStore, err)
	}

	report := &TopicReport{
		ClicksByDate: make([][]domain.ClickEntry, 0, len(records)),
		URLs:         make([]TopicURL, 0, len(records)),
	}
	for _, record := range records {
		report.TotalClicks += record.TotalClicks
		report.UniqueUsers += record.UniqueUsers
		report.ClicksByDate = append(report.ClicksByDate, clicksOf(record))
		report.URLs = append(report.URLs, TopicURL{
			ShortURL:    record.ShortURL,
			TotalClicks: record.TotalClicks,
			UniqueUsers: record.UniqueUsers,
		})
	}
	return report, nil
}

func (r *Reports) OverallAnalytics(ctx context.Context) (*OverallReport, error) {
	records, err := r.storage.ListURLRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransientStore, err)
	}

	report := &OverallReport{
		TotalURLs:    len(records),
		ClicksByDate: make([][]domain.ClickEntry, 0, len(records)),
		OsType:       make([]*domain.OsStats, 0, len(records)),
		DeviceType:   make([]*domain.DeviceStats, 0, len(records)),
	}
	for _, record := range records {
		report.TotalClicks += record.TotalClicks
		report.UniqueUsers += record.UniqueUsers
		report.ClicksByDate = append(report.ClicksByDate, clicksOf(record))
		// Записи без переходов ещё не имеют строк статистики
		if record.OsStats != nil {
			report.OsType = append(report.OsType, record.OsStats)
		}
		if record.DeviceStats != nil {
			report.DeviceType = append(report.DeviceType, record.DeviceStats)
		}
	}

	r.log.Debug("overall analytics computed", zap.Int("urls", report.TotalURLs), zap.Int64("clicks", report.TotalClicks))
	return report, nil
}

// ListRecords returns the records owned by ownerID with their breakdowns
func (r *Reports) ListRecords(ctx context.Context, ownerID int64) ([]*domain.URLRecord, error) {
	records, err := r.storage.ListUserURLRecords(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransientStore, err)
	}
	if records == nil {
		records = []*domain.URLRecord{}
	}
	return records, nil
}

func clicksOf(record *domain.URLRecord) []domain.ClickEntry {
	if record.ClicksByDate == nil {
		return []domain.ClickEntry{}
	}
	return record.ClicksByDate
}
