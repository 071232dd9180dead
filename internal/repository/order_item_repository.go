package repository

import (
	"context"

	"app/internal/domain/model"
)

type OrderItemRepository interface {
	CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error)

	//注文のうち指定サプライヤーの商品だけの明細
	ListByOrderIDAndSupplier(ctx context.Context, orderID int64, supplierID int64) ([]model.OrderItem, error)
	//サプライヤーの商品が1件でも含まれるか
	ExistsForSupplier(ctx context.Context, orderID int64, supplierID int64) (bool, error)
}
