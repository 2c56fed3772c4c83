package postgres

import (
	"Shortlytics-Backend/internal/domain"
	"Shortlytics-Backend/internal/repository"
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostgresStorage реализует интерфейс Storage для PostgreSQL
type PostgresStorage struct {
	db  *gorm.DB
	log *zap.Logger
}

// New создает новый экземпляр PostgreSQL storage
func New(db *gorm.DB, log *zap.Logger) *PostgresStorage {
	return &PostgresStorage{
		db:  db,
		log: log,
	}
}

// --- User Methods ---

// FindOrCreateUser находит пользователя по внешнему ID или создает нового
func (s *PostgresStorage) FindOrCreateUser(ctx context.Context, externalID, email, name string) (*domain.User, error) {
	var user domain.User

	err := s.db.WithContext(ctx).Where("external_id = ?", externalID).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.log.Error("failed to find user by external_id", zap.String("external_id", externalID), zap.Error(err))
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	user = domain.User{
		ExternalID: externalID,
		Email:      email,
		Name:       name,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Параллельный запрос успел создать пользователя
			var existing domain.User
			if err := s.db.WithContext(ctx).Where("external_id = ?", externalID).First(&existing).Error; err == nil {
				return &existing, nil
			}
		}
		s.log.Error("failed to create user", zap.String("external_id", externalID), zap.Error(err))
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.log.Info("created new user", zap.Int64("user_id", user.ID), zap.String("external_id", externalID))
	return &user, nil
}

// --- URL Record Methods ---

// CreateURLRecord сохраняет новую запись. Нарушение уникальности alias/short_url
// превращается в ErrAliasExists.
func (s *PostgresStorage) CreateURLRecord(ctx context.Context, record *domain.URLRecord) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return repository.ErrAliasExists
		}
		s.log.Error("failed to save url record", zap.String("alias", record.Alias), zap.Error(err))
		return fmt.Errorf("failed to save url record: %w", err)
	}

	s.log.Info("saved new url record", zap.String("alias", record.Alias), zap.Int64("record_id", record.ID))
	return nil
}

// AliasExists проверяет, существует ли алиас
func (s *PostgresStorage) AliasExists(ctx context.Context, alias string) (bool, error) {
	return s.exists(ctx, "alias = ?", alias)
}

// ShortURLExists проверяет, существует ли короткая ссылка
func (s *PostgresStorage) ShortURLExists(ctx context.Context, shortURL string) (bool, error) {
	return s.exists(ctx, "short_url = ?", shortURL)
}

// GetURLRecord получает запись по алиасу без аналитики
func (s *PostgresStorage) GetURLRecord(ctx context.Context, alias string) (*domain.URLRecord, error) {
	var record domain.URLRecord

	err := s.db.WithContext(ctx).Where("alias = ?", alias).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrAliasNotFound
	}
	if err != nil {
		s.log.Error("failed to get url record", zap.String("alias", alias), zap.Error(err))
		return nil, fmt.Errorf("failed to get url record: %w", err)
	}

	return &record, nil
}

// GetURLRecordWithAnalytics получает запись вместе с кликами и разбивкой по ОС/устройствам
func (s *PostgresStorage) GetURLRecordWithAnalytics(ctx context.Context, alias string) (*domain.URLRecord, error) {
	var record domain.URLRecord

	err := s.withAnalytics(s.db.WithContext(ctx)).Where("alias = ?", alias).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrAliasNotFound
	}
	if err != nil {
		s.log.Error("failed to get url record analytics", zap.String("alias", alias), zap.Error(err))
		return nil, fmt.Errorf("failed to get url record: %w", err)
	}

	return &record, nil
}

// ListURLRecords возвращает все записи с аналитикой
func (s *PostgresStorage) ListURLRecords(ctx context.Context) ([]*domain.URLRecord, error) {
	return s.list("list url records", s.db.WithContext(ctx).Order("id ASC"))
}

// ListURLRecordsByTopic возвращает записи одной темы
func (s *PostgresStorage) ListURLRecordsByTopic(ctx context.Context, topic string) ([]*domain.URLRecord, error) {
	return s.list("list url records by topic", s.db.WithContext(ctx).Where("topic = ?", topic).Order("id ASC"))
}

// ListUserURLRecords возвращает записи пользователя
func (s *PostgresStorage) ListUserURLRecords(ctx context.Context, ownerID int64) ([]*domain.URLRecord, error) {
	return s.list("list user url records", s.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("id ASC"))
}

// --- Analytics Methods ---

// EnsureStats создает строку статистики при первом клике или увеличивает счетчики существующей.
// Привязка новой строки условная (os_stats_id IS NULL), поэтому у записи всегда одна строка.
func (s *PostgresStorage) EnsureStats(ctx context.Context, recordID int64, kind repository.StatsKind, name string, creatorClick bool) (int64, bool, error) {
	column := statsColumn(kind)

	var (
		statsID int64
		created bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		linked, err := linkedStatsID(tx, recordID, column)
		if err != nil {
			return err
		}

		if linked == nil {
			row := newStatsRow(kind, name)
			if err := tx.Create(row).Error; err != nil {
				return fmt.Errorf("failed to create %s stats: %w", kind, err)
			}
			id := statsRowID(row)

			res := tx.Model(&domain.URLRecord{}).
				Where("id = ? AND "+column+" IS NULL", recordID).
				Update(column, id)
			if res.Error != nil {
				return fmt.Errorf("failed to link %s stats: %w", kind, res.Error)
			}
			if res.RowsAffected == 1 {
				statsID, created = id, true
				return nil
			}

			// Другой клик привязал свою строку раньше: удаляем нашу и считаем клик в его строке
			if err := tx.Delete(row).Error; err != nil {
				return fmt.Errorf("failed to drop orphan %s stats: %w", kind, err)
			}
			if linked, err = linkedStatsID(tx, recordID, column); err != nil {
				return err
			}
			if linked == nil {
				return fmt.Errorf("%s stats link disappeared for record %d", kind, recordID)
			}
		}

		var users int
		if creatorClick {
			users = 1
		}
		err = tx.Model(statsModel(kind)).
			Where("id = ?", *linked).
			Updates(map[string]interface{}{
				"unique_clicks": gorm.Expr("unique_clicks + 1"),
				"unique_users":  gorm.Expr("unique_users + ?", users),
			}).Error
		if err != nil {
			return fmt.Errorf("failed to increment %s stats: %w", kind, err)
		}
		statsID = *linked
		return nil
	})
	if err != nil {
		if !errors.Is(err, repository.ErrAliasNotFound) {
			s.log.Error("failed to upsert stats", zap.Int64("record_id", recordID), zap.Stringer("kind", kind), zap.Error(err))
		}
		return 0, false, err
	}

	return statsID, created, nil
}

// RecordClick атомарно увеличивает счетчики записи и добавляет элемент clicksByDate
func (s *PostgresStorage) RecordClick(ctx context.Context, recordID int64, creatorClick bool, clickedAt time.Time) (*repository.ClickUpdate, error) {
	var update repository.ClickUpdate

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var users int
		if creatorClick {
			users = 1
		}

		record := domain.URLRecord{ID: recordID}
		res := tx.Model(&record).
			Clauses(clause.Returning{Columns: []clause.Column{{Name: "total_clicks"}, {Name: "unique_users"}}}).
			Updates(map[string]interface{}{
				"total_clicks": gorm.Expr("total_clicks + 1"),
				"unique_users": gorm.Expr("unique_users + ?", users),
			})
		if res.Error != nil {
			return fmt.Errorf("failed to increment clicks: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return repository.ErrAliasNotFound
		}

		entry := domain.ClickEntry{
			URLRecordID: recordID,
			Date:        clickedAt,
			ClickCount:  record.TotalClicks,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("failed to append click entry: %w", err)
		}

		update = repository.ClickUpdate{
			TotalClicks: record.TotalClicks,
			UniqueUsers: record.UniqueUsers,
			Entry:       entry,
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, repository.ErrAliasNotFound) {
			s.log.Error("failed to record click", zap.Int64("record_id", recordID), zap.Error(err))
		}
		return nil, err
	}

	return &update, nil
}

// CountStatsRows возвращает количество строк разбивки заданного вида
func (s *PostgresStorage) CountStatsRows(ctx context.Context, kind repository.StatsKind) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(statsModel(kind)).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count %s stats: %w", kind, err)
	}
	return count, nil
}

// --- Helper Methods ---

func (s *PostgresStorage) exists(ctx context.Context, query string, arg string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&domain.URLRecord{}).Where(query, arg).Count(&count).Error
	if err != nil {
		s.log.Error("failed to check url record existence", zap.String("value", arg), zap.Error(err))
		return false, fmt.Errorf("failed to check existence: %w", err)
	}
	return count > 0, nil
}

func (s *PostgresStorage) withAnalytics(db *gorm.DB) *gorm.DB {
	return db.
		Preload("ClicksByDate", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("OsStats").
		Preload("DeviceStats")
}

func (s *PostgresStorage) list(op string, query *gorm.DB) ([]*domain.URLRecord, error) {
	var records []*domain.URLRecord
	if err := s.withAnalytics(query).Find(&records).Error; err != nil {
		s.log.Error("failed to "+op, zap.Error(err))
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	return records, nil
}

func linkedStatsID(tx *gorm.DB, recordID int64, column string) (*int64, error) {
	var record domain.URLRecord
	err := tx.Select("id", column).First(&record, recordID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrAliasNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load url record: %w", err)
	}
	if column == "device_stats_id" {
		return record.DeviceStatsID, nil
	}
	return record.OsStatsID, nil
}

func statsColumn(kind repository.StatsKind) string {
	if kind == repository.DeviceBreakdown {
		return "device_stats_id"
	}
	return "os_stats_id"
}

func statsModel(kind repository.StatsKind) interface{} {
	if kind == repository.DeviceBreakdown {
		return &domain.DeviceStats{}
	}
	return &domain.OsStats{}
}

func newStatsRow(kind repository.StatsKind, name string) interface{} {
	if kind == repository.DeviceBreakdown {
		return &domain.DeviceStats{DeviceName: name, UniqueClicks: 1, UniqueUsers: 1}
	}
	return &domain.OsStats{OsName: name, UniqueClicks: 1, UniqueUsers: 1}
}

func statsRowID(row interface{}) int64 {
	switch r := row.(type) {
	case *domain.DeviceStats:
		return r.ID
	case *domain.OsStats:
		return r.ID
	}
	return 0
}
