package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

// RFC3339のクエリパラメータをtime.Timeへ。空はnil扱い。
func parseTimeParam(v *string) (*time.Time, error) {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(*v))
	if err != nil {
		return nil, err
	}
	return &t, nil
}

type AuditLogUsecase struct {
	auditRepo repo.AuditLogRepository
}

func NewAuditLogUsecase(auditRepo repo.AuditLogRepository) *AuditLogUsecase {
	return &AuditLogUsecase{auditRepo: auditRepo}
}

type AuditLogListInput struct {
	Page         int
	Limit        int
	ActorUserID  *int64
	Action       string
	ResourceType string
	ResourceID   *int64
	From         *string
	To           *string
}

type AuditLogListOutput struct {
	Items []model.AuditLog `json:"items"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

// List は監査ログを新しい順で返す。管理者専用。
func (u *AuditLogUsecase) List(ctx context.Context, caller Caller, in AuditLogListInput) (AuditLogListOutput, error) {
	if caller.UserID <= 0 {
		return AuditLogListOutput{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}
	if caller.Role != model.RoleAdmin {
		return AuditLogListOutput{}, NewHTTPError(http.StatusForbidden, CodeForbidden, "admin only")
	}
	if in.Page < 1 {
		return AuditLogListOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return AuditLogListOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid limit")
	}

	switch model.AuditAction(in.Action) {
	case "", model.AuditActionUpdateStock, model.AuditActionUpdateOrderStatus:
	default:
		return AuditLogListOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid action")
	}

	switch model.AuditResourceType(in.ResourceType) {
	case "", model.AuditResourceProduct, model.AuditResourceOrder:
	default:
		return AuditLogListOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid resource_type")
	}

	from, err := parseTimeParam(in.From)
	if err != nil {
		return AuditLogListOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid from")
	}
	to, err := parseTimeParam(in.To)
	if err != nil {
		return AuditLogListOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid to")
	}
	if from != nil && to != nil && from.After(*to) {
		return AuditLogListOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "from must be <= to")
	}

	logs, total, err := u.auditRepo.List(ctx, repo.AuditLogFilter{
		Page:         in.Page,
		Limit:        in.Limit,
		ActorUserID:  in.ActorUserID,
		Action:       in.Action,
		ResourceType: in.ResourceType,
		ResourceID:   in.ResourceID,
		From:         from,
		To:           to,
	})
	if err != nil {
		return AuditLogListOutput{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}

	return AuditLogListOutput{
		Items: logs,
		Total: total,
		Page:  in.Page,
		Limit: in.Limit,
	}, nil
}
