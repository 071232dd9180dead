package repository

import (
	"context"
	"time"

	"app/internal/domain/model"
)

// 監査ログの絞り込み
type AuditLogFilter struct {
	Page         int
	Limit        int
	ActorUserID  *int64
	Action       string
	ResourceType string
	ResourceID   *int64
	From         *time.Time
	To           *time.Time
}

type AuditLogRepository interface {
	Create(ctx context.Context, log model.AuditLog) error

	//新しい順で返す。totalは絞り込み後の全件数。
	List(ctx context.Context, f AuditLogFilter) ([]model.AuditLog, int64, error)
}
