package model

import "time"

type NotificationType string

const (
	NotificationTypeOrderUpdate NotificationType = "order_update"
)

// サプライヤーのステータス変更時に顧客向けに作成される
type Notification struct {
	ID        int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64            `gorm:"not null;index" json:"user_id"`
	Message   string           `gorm:"type:text;not null" json:"message"`
	Type      NotificationType `gorm:"type:varchar(50);not null" json:"type"`
	IsRead    bool             `gorm:"not null;default:false" json:"is_read"`
	ReadAt    *time.Time       `json:"read_at,omitempty"`
	CreatedAt time.Time        `gorm:"not null;autoCreateTime" json:"created_at"`
}
