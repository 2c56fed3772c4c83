package memory

import (
	"Shortlytics-Backend/internal/domain"
	"Shortlytics-Backend/internal/repository"
	"context"
	"sort"
	"sync"
	"time"
)

// MemStorage keeps every record in process. A single mutex stands in for the
// single-document atomicity of a real store.
type MemStorage struct {
	mu          sync.RWMutex
	records     map[string]*domain.URLRecord
	shortURLs   map[string]string
	clicks      map[int64][]domain.ClickEntry
	osStats     map[int64]*domain.OsStats
	deviceStats map[int64]*domain.DeviceStats
	users       map[int64]*domain.User
	usersByExt  map[string]int64

	recordCounter int64
	clickCounter  int64
	statsCounter  int64
	userCounter   int64
}

func New() *MemStorage {
	return &MemStorage{
		records:     make(map[string]*domain.URLRecord),
		shortURLs:   make(map[string]string),
		clicks:      make(map[int64][]domain.ClickEntry),
		osStats:     make(map[int64]*domain.OsStats),
		deviceStats: make(map[int64]*domain.DeviceStats),
		users:       make(map[int64]*domain.User),
		usersByExt:  make(map[string]int64),
	}
}

// --- User Methods ---

func (s *MemStorage) FindOrCreateUser(_ context.Context, externalID, email, name string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.usersByExt[externalID]; ok {
		u := *s.users[id]
		return &u, nil
	}

	s.userCounter++
	now := time.Now()
	user := &domain.User{
		ID:         s.userCounter,
		ExternalID: externalID,
		Email:      email,
		Name:       name,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.users[user.ID] = user
	s.usersByExt[externalID] = user.ID

	u := *user
	return &u, nil
}

// --- URL Record Methods ---

func (s *MemStorage) CreateURLRecord(_ context.Context, record *domain.URLRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[record.Alias]; exists {
		return repository.ErrAliasExists
	}
	if _, exists := s.shortURLs[record.ShortURL]; exists {
		return repository.ErrAliasExists
	}

	s.recordCounter++
	record.ID = s.recordCounter
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	stored := *record
	stored.ClicksByDate = nil
	stored.OsStats = nil
	stored.DeviceStats = nil
	s.records[record.Alias] = &stored
	s.shortURLs[record.ShortURL] = record.Alias
	return nil
}

func (s *MemStorage) AliasExists(_ context.Context, alias string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[alias]
	return ok, nil
}

func (s *MemStorage) ShortURLExists(_ context.Context, shortURL string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.shortURLs[shortURL]
	return ok, nil
}

func (s *MemStorage) GetURLRecord(_ context.Context, alias string) (*domain.URLRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[alias]
	if !ok {
		return nil, repository.ErrAliasNotFound
	}
	r := *record
	return &r, nil
}

func (s *MemStorage) GetURLRecordWithAnalytics(_ context.Context, alias string) (*domain.URLRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[alias]
	if !ok {
		return nil, repository.ErrAliasNotFound
	}
	return s.withAnalytics(record), nil
}

func (s *MemStorage) ListURLRecords(_ context.Context) ([]*domain.URLRecord, error) {
	return s.list(func(*domain.URLRecord) bool { return true }), nil
}

func (s *MemStorage) ListURLRecordsByTopic(_ context.Context, topic string) ([]*domain.URLRecord, error) {
	return s.list(func(r *domain.URLRecord) bool {
		return r.Topic != nil && *r.Topic == topic
	}), nil
}

func (s *MemStorage) ListUserURLRecords(_ context.Context, ownerID int64) ([]*domain.URLRecord, error) {
	return s.list(func(r *domain.URLRecord) bool {
		return r.OwnerID != nil && *r.OwnerID == ownerID
	}), nil
}

// --- Analytics Methods ---

func (s *MemStorage) EnsureStats(_ context.Context, recordID int64, kind repository.StatsKind, name string, creatorClick bool) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := s.recordByID(recordID)
	if record == nil {
		return 0, false, repository.ErrAliasNotFound
	}

	linked := record.OsStatsID
	if kind == repository.DeviceBreakdown {
		linked = record.DeviceStatsID
	}

	if linked == nil {
		s.statsCounter++
		id := s.statsCounter
		if kind == repository.DeviceBreakdown {
			s.deviceStats[id] = &domain.DeviceStats{ID: id, DeviceName: name, UniqueClicks: 1, UniqueUsers: 1}
			record.DeviceStatsID = &id
		} else {
			s.osStats[id] = &domain.OsStats{ID: id, OsName: name, UniqueClicks: 1, UniqueUsers: 1}
			record.OsStatsID = &id
		}
		return id, true, nil
	}

	var users int64
	if creatorClick {
		users = 1
	}
	if kind == repository.DeviceBreakdown {
		row := s.deviceStats[*linked]
		row.UniqueClicks++
		row.UniqueUsers += users
	} else {
		row := s.osStats[*linked]
		row.UniqueClicks++
		row.UniqueUsers += users
	}
	return *linked, false, nil
}

func (s *MemStorage) RecordClick(_ context.Context, recordID int64, creatorClick bool, clickedAt time.Time) (*repository.ClickUpdate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := s.recordByID(recordID)
	if record == nil {
		return nil, repository.ErrAliasNotFound
	}

	record.TotalClicks++
	if creatorClick {
		record.UniqueUsers++
	}

	s.clickCounter++
	entry := domain.ClickEntry{
		ID:          s.clickCounter,
		URLRecordID: recordID,
		Date:        clickedAt,
		ClickCount:  record.TotalClicks,
	}
	s.clicks[recordID] = append(s.clicks[recordID], entry)

	return &repository.ClickUpdate{
		TotalClicks: record.TotalClicks,
		UniqueUsers: record.UniqueUsers,
		Entry:       entry,
	}, nil
}

func (s *MemStorage) CountStatsRows(_ context.Context, kind repository.StatsKind) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if kind == repository.DeviceBreakdown {
		return int64(len(s.deviceStats)), nil
	}
	return int64(len(s.osStats)), nil
}

// --- Helpers ---

// recordByID must be called with the lock held.
func (s *MemStorage) recordByID(id int64) *domain.URLRecord {
	for _, r := range s.records {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// withAnalytics must be called with the lock held.
func (s *MemStorage) withAnalytics(record *domain.URLRecord) *domain.URLRecord {
	r := *record
	r.ClicksByDate = append([]domain.ClickEntry{}, s.clicks[record.ID]...)
	if record.OsStatsID != nil {
		os := *s.osStats[*record.OsStatsID]
		r.OsStats = &os
	}
	if record.DeviceStatsID != nil {
		device := *s.deviceStats[*record.DeviceStatsID]
		r.DeviceStats = &device
	}
	return &r
}

func (s *MemStorage) list(match func(*domain.URLRecord) bool) []*domain.URLRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.URLRecord
	for _, record := range s.records {
		if match(record) {
			result = append(result, s.withAnalytics(record))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}
