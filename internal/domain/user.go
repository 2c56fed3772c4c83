package domain

import "time"

// User представляет пользователя, пришедшего через внешний провайдер входа.
type User struct {
	ID         int64     `gorm:"primaryKey;column:id" json:"id"`
	ExternalID string    `gorm:"column:external_id;size:128;uniqueIndex;not null" json:"externalId"`
	Email      string    `gorm:"column:email;size:255;uniqueIndex;not null" json:"email"`
	Name       string    `gorm:"column:name;size:255" json:"name"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`

	// Relationships
	URLRecords []URLRecord `gorm:"foreignKey:OwnerID" json:"-"`
}

// TableName возвращает название таблицы для GORM
func (User) TableName() string {
	return "users"
}
