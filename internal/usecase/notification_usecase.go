package usecase

import (
	"context"
	"net/http"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

type NotificationUsecase struct {
	notifications repo.NotificationRepository
}

func NewNotificationUsecase(notifications repo.NotificationRepository) *NotificationUsecase {
	return &NotificationUsecase{notifications: notifications}
}

type NotificationListOutput struct {
	Items []model.Notification `json:"items"`
	Total int64                `json:"total"`
	Page  int                  `json:"page"`
	Limit int                  `json:"limit"`
}

func (u *NotificationUsecase) List(ctx context.Context, caller Caller, page int, limit int) (NotificationListOutput, error) {
	if caller.UserID <= 0 {
		return NotificationListOutput{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}
	if page < 1 {
		return NotificationListOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid page")
	}
	if limit < 1 || limit > 100 {
		return NotificationListOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid limit")
	}

	items, total, err := u.notifications.ListByUserID(ctx, caller.UserID, page, limit)
	if err != nil {
		return NotificationListOutput{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}

	return NotificationListOutput{
		Items: items,
		Total: total,
		Page:  page,
		Limit: limit,
	}, nil
}

// 本人の通知だけ既読にできる。他人のIDを指定しても404。
func (u *NotificationUsecase) MarkRead(ctx context.Context, caller Caller, notificationID int64) error {
	if caller.UserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}
	if notificationID <= 0 {
		return NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid id")
	}

	err := u.notifications.MarkRead(ctx, notificationID, caller.UserID)
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, CodeNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}
	return nil
}
