package domain

import "time"

// ClickEntry is one element of a record's clicksByDate log.
// ClickCount is the record's running total right after the click, not a per-day count.
type ClickEntry struct {
	ID          int64     `gorm:"primaryKey;column:id" json:"-"`
	URLRecordID int64     `gorm:"column:url_record_id;not null;index" json:"-"`
	Date        time.Time `gorm:"column:date;not null" json:"date"`
	ClickCount  int64     `gorm:"column:click_count;not null" json:"clickCount"`
}

// TableName возвращает название таблицы для GORM
func (ClickEntry) TableName() string {
	return "click_entries"
}
