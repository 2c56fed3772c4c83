package domain

// OsStats is the single OS breakdown row owned by a URLRecord.
// The row keeps the OS name of the first click; later clicks only bump the counters.
type OsStats struct {
	ID           int64  `gorm:"primaryKey;column:id" json:"_id"`
	OsName       string `gorm:"column:os_name;size:64" json:"osName"`
	UniqueClicks int64  `gorm:"column:unique_clicks;not null;default:1" json:"uniqueClicks"`
	UniqueUsers  int64  `gorm:"column:unique_users;not null;default:1" json:"uniqueUsers"`
}

// TableName возвращает название таблицы для GORM
func (OsStats) TableName() string {
	return "os_stats"
}

// DeviceStats is the single device breakdown row owned by a URLRecord.
type DeviceStats struct {
	ID           int64  `gorm:"primaryKey;column:id" json:"_id"`
	DeviceName   string `gorm:"column:device_name;size:32" json:"deviceName"`
	UniqueClicks int64  `gorm:"column:unique_clicks;not null;default:1" json:"uniqueClicks"`
	UniqueUsers  int64  `gorm:"column:unique_users;not null;default:1" json:"uniqueUsers"`
}

// TableName возвращает название таблицы для GORM
func (DeviceStats) TableName() string {
	return "device_stats"
}
