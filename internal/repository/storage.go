package repository

import (
	"Shortlytics-Backend/internal/domain"
	"context"
	"errors"
	"time"
)

var (
	ErrAliasNotFound = errors.New("alias not found")
	ErrAliasExists   = errors.New("alias already exists")
)

// StatsKind selects which breakdown row a stats operation touches.
type StatsKind int

const (
	OsBreakdown StatsKind = iota
	DeviceBreakdown
)

func (k StatsKind) String() string {
	if k == DeviceBreakdown {
		return "device"
	}
	return "os"
}

// ClickUpdate is the result of atomically counting one click on a record.
type ClickUpdate struct {
	TotalClicks int64
	UniqueUsers int64
	Entry       domain.ClickEntry
}

type Storage interface {
	// User methods
	FindOrCreateUser(ctx context.Context, externalID, email, name string) (*domain.User, error)

	// URL record methods
	CreateURLRecord(ctx context.Context, record *domain.URLRecord) error
	AliasExists(ctx context.Context, alias string) (bool, error)
	ShortURLExists(ctx context.Context, shortURL string) (bool, error)
	GetURLRecord(ctx context.Context, alias string) (*domain.URLRecord, error)
	GetURLRecordWithAnalytics(ctx context.Context, alias string) (*domain.URLRecord, error)
	ListURLRecords(ctx context.Context) ([]*domain.URLRecord, error)
	ListURLRecordsByTopic(ctx context.Context, topic string) ([]*domain.URLRecord, error)
	ListUserURLRecords(ctx context.Context, ownerID int64) ([]*domain.URLRecord, error)

	// Analytics methods
	//
	// EnsureStats links a freshly seeded breakdown row to the record if it has none yet and
	// reports created=true; otherwise it increments the already linked row.
	EnsureStats(ctx context.Context, recordID int64, kind StatsKind, name string, creatorClick bool) (statsID int64, created bool, err error)
	// RecordClick atomically increments totalClicks (and uniqueUsers for creator clicks) and
	// appends the running total to clicksByDate.
	RecordClick(ctx context.Context, recordID int64, creatorClick bool, clickedAt time.Time) (*ClickUpdate, error)
	// CountStatsRows reports how many breakdown rows of the kind exist; exposed on /metrics.
	CountStatsRows(ctx context.Context, kind StatsKind) (int64, error)
}
