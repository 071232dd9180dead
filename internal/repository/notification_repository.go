package repository

import (
	"context"

	"app/internal/domain/model"
)

type NotificationRepository interface {
	Create(ctx context.Context, n model.Notification) error
	ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Notification, int64, error)

	//本人の通知だけ既読化できる
	MarkRead(ctx context.Context, notificationID int64, userID int64) error
}
