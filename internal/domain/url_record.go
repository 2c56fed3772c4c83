package domain

import "time"

// URLRecord represents one shortened URL together with its aggregate analytics.
type URLRecord struct {
	ID            int64     `gorm:"primaryKey;column:id" json:"id"`
	FullURL       string    `gorm:"column:full_url;type:text;not null" json:"fullUrl"`
	Alias         string    `gorm:"column:alias;size:64;uniqueIndex;not null" json:"alias"`
	ShortURL      string    `gorm:"column:short_url;size:512;uniqueIndex;not null" json:"shortUrl"`
	Topic         *string   `gorm:"column:topic;size:128;index" json:"topic,omitempty"`
	OwnerID       *int64    `gorm:"column:owner_id;index" json:"ownerId,omitempty"`
	CreatorIP     string    `gorm:"column:creator_ip;size:64;not null" json:"creatorIp"`
	TotalClicks   int64     `gorm:"column:total_clicks;not null;default:0" json:"totalClicks"`
	UniqueUsers   int64     `gorm:"column:unique_users;not null;default:0" json:"uniqueUsers"`
	OsStatsID     *int64    `gorm:"column:os_stats_id" json:"-"`
	DeviceStatsID *int64    `gorm:"column:device_stats_id" json:"-"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`

	// Relationships
	Owner        *User        `gorm:"foreignKey:OwnerID" json:"-"`
	ClicksByDate []ClickEntry `gorm:"foreignKey:URLRecordID" json:"clicksByDate"`
	OsStats      *OsStats     `gorm:"foreignKey:OsStatsID" json:"osAnalytics,omitempty"`
	DeviceStats  *DeviceStats `gorm:"foreignKey:DeviceStatsID" json:"deviceAnalytics,omitempty"`
}

// TableName возвращает название таблицы для GORM
func (URLRecord) TableName() string {
	return "url_records"
}

// IsCreatorIP reports whether ip is the address the record was created from.
// This is what the uniqueUsers counters measure.
func (r *URLRecord) IsCreatorIP(ip string) bool {
	return ip != "" && ip == r.CreatorIP
}
