package repository

import (
	"context"
	"time"

	"app/internal/domain/model"
)

type OrderListFilter struct {
	Page   int
	Limit  int
	Status string
	From   *time.Time
	To     *time.Time
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	Create(ctx context.Context, order model.Order) (int64, error)
	UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error

	//顧客自身の注文一覧
	ListByCustomerID(ctx context.Context, customerID int64, page int, limit int) ([]model.Order, int64, error)
	//自社商品を含む注文一覧（サプライヤー向け）
	ListBySupplierID(ctx context.Context, supplierID int64, page int, limit int) ([]model.Order, int64, error)
	//全注文一覧（管理者向け）
	ListAll(ctx context.Context, f OrderListFilter) ([]model.Order, int64, error)
}
