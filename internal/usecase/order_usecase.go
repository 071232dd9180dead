package usecase

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/google/uuid"
)

// commit後のイベント発行。失敗してもリクエストは失敗させない。
type OrderEventPublisher interface {
	PublishOrderStatusChanged(ctx context.Context, orderID int64, orderNumber string, customerID int64, status string) error
}

type OrderUsecase struct {
	tx        repo.TransactionManager
	auditRepo repo.AuditLogRepository
	events    OrderEventPublisher
}

func NewOrderUsecase(tx repo.TransactionManager, auditRepo repo.AuditLogRepository, events OrderEventPublisher) *OrderUsecase {
	return &OrderUsecase{tx: tx, auditRepo: auditRepo, events: events}
}

type BulkOrderItemInput struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

type CreateBulkOrderInput struct {
	Items []BulkOrderItemInput
}

type UpdateOrderStatusInput struct {
	OrderID int64
	Status  string
}

type OrderItemOutput struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"product_name"`
	Price     int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
	Total     int64  `json:"total"`
}

type OrderOutput struct {
	ID          int64             `json:"id"`
	OrderNumber string            `json:"order_number"`
	CustomerID  int64             `json:"customer_id"`
	Status      string            `json:"status"`
	TotalAmount int64             `json:"total_amount"`
	CreatedAt   time.Time         `json:"created_at"`
	Items       []OrderItemOutput `json:"items"`
}

// CreateBulkOrder は複数商品の一括注文を1トランザクションで作成する。
// 在庫はここでは引かない（出荷時に引く）。
func (u *OrderUsecase) CreateBulkOrder(ctx context.Context, caller Caller, in CreateBulkOrderInput) (OrderOutput, error) {
	if caller.UserID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}
	if caller.Role != model.RoleCustomer {
		return OrderOutput{}, NewHTTPError(http.StatusForbidden, CodeForbidden, "only customers can create orders")
	}
	if len(in.Items) == 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "items array is required")
	}
	for _, it := range in.Items {
		if it.ProductID <= 0 || it.Quantity <= 0 {
			return OrderOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid item data")
		}
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orderItems := make([]model.OrderItem, 0, len(in.Items))
		var total int64 = 0

		//全明細を検証してから書き込む。1件でも駄目なら注文ごと失敗。
		for _, it := range in.Items {
			p, err := r.Products().FindByID(ctx, it.ProductID)
			if err == repo.ErrNotFound {
				return NewHTTPError(http.StatusNotFound, CodeNotFound,
					fmt.Sprintf("product ID %d not found", it.ProductID))
			}
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
			}

			if p.Stock < it.Quantity {
				return NewHTTPError(http.StatusBadRequest, CodeInsufficientStock,
					fmt.Sprintf("insufficient stock for product: %s. available: %d, requested: %d",
						p.Name, p.Stock, it.Quantity))
			}

			//注文時点の価格スナップショット
			orderItems = append(orderItems, model.OrderItem{
				ProductID:           it.ProductID,
				ProductNameSnapshot: p.Name,
				UnitPriceSnapshot:   p.Price,
				Quantity:            it.Quantity,
			})

			total += p.Price * it.Quantity
		}

		now := time.Now()
		order := model.Order{
			OrderNumber: newOrderNumber(now),
			CustomerID:  caller.UserID,
			Status:      model.OrderStatusPending,
			TotalAmount: total,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		orderID, err := r.Orders().Create(ctx, order)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}

		//注文明細一括作成
		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}

		order.ID = orderID
		out = toOrderOutput(order, orderItems)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// UpdateStatus はロール別の遷移表に従って注文ステータスを更新する。
// 在庫の増減もすべて同じトランザクションで行う。
func (u *OrderUsecase) UpdateStatus(ctx context.Context, caller Caller, in UpdateOrderStatusInput) (OrderOutput, error) {
	if caller.UserID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}
	if in.OrderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "order_id and status are required")
	}

	newStatus := model.OrderStatus(strings.TrimSpace(in.Status))
	if !model.ValidOrderStatus(newStatus) {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid status")
	}

	var out OrderOutput
	var notifyCustomerID int64
	var notifyOrderNumber string

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, in.OrderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, CodeNotFound, "order not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}

		switch caller.Role {
		case model.RoleCustomer:
			if err := u.customerTransition(ctx, r, caller, o, newStatus); err != nil {
				return err
			}

		case model.RoleSupplier:
			if err := u.supplierTransition(ctx, r, caller, o, newStatus); err != nil {
				return err
			}
			notifyCustomerID = o.CustomerID
			notifyOrderNumber = o.OrderNumber

		case model.RoleAdmin:
			//管理者は無条件で上書き。在庫副作用なし。監査ログだけ残す。
			if err := r.Orders().UpdateStatus(ctx, o.ID, newStatus); err != nil {
				return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
			}
			beforeJSON := `{"status":"` + string(o.Status) + `"}`
			afterJSON := `{"status":"` + string(newStatus) + `"}`
			if err := u.auditRepo.Create(ctx, model.AuditLog{
				ActorUserID:  caller.UserID,
				Action:       model.AuditActionUpdateOrderStatus,
				ResourceType: model.AuditResourceOrder,
				ResourceID:   o.ID,
				BeforeJSON:   beforeJSON,
				AfterJSON:    afterJSON,
				CreatedAt:    time.Now(),
			}); err != nil {
				return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
			}

		default:
			return NewHTTPError(http.StatusForbidden, CodeForbidden, "forbidden")
		}

		//更新後の注文＋明細を返す
		updated, err := r.Orders().FindByID(ctx, in.OrderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}
		items, err := r.OrderItems().ListByOrderID(ctx, in.OrderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}
		out = toOrderOutput(updated, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}

	//イベント発行はcommit後、失敗しても注文処理は成功扱い
	if notifyCustomerID > 0 && u.events != nil {
		if err := u.events.PublishOrderStatusChanged(ctx, in.OrderID, notifyOrderNumber, notifyCustomerID, string(newStatus)); err != nil {
			log.Printf("order event publish failed: order_id=%d err=%v", in.OrderID, err)
		}
	}

	return out, nil
}

// 顧客の遷移：pending→cancelled（在庫全戻し）、shipped/delivered→completed。
func (u *OrderUsecase) customerTransition(ctx context.Context, r repo.TxRepos, caller Caller, o model.Order, requested model.OrderStatus) error {
	if o.CustomerID != caller.UserID {
		return NewHTTPError(http.StatusForbidden, CodeForbidden, "you can only update your own orders")
	}

	switch {
	case requested == model.OrderStatusCancelled && o.Status == model.OrderStatusPending:
		//注文全体の在庫を戻す（どのサプライヤーの商品かは問わない）
		items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}
		for _, it := range items {
			if err := r.Inventory().IncreaseStock(ctx, it.ProductID, it.Quantity); err != nil {
				return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
			}
		}
		if err := r.Orders().UpdateStatus(ctx, o.ID, model.OrderStatusCancelled); err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}
		return nil

	case requested == model.OrderStatusCancelled:
		//二重キャンセルを含む。在庫は二度戻さない。
		return NewHTTPError(http.StatusBadRequest, CodeConflict,
			fmt.Sprintf("order is already %s and cannot be cancelled", o.Status))

	case requested == model.OrderStatusCompleted &&
		(o.Status == model.OrderStatusShipped || o.Status == model.OrderStatusDelivered):
		if err := r.Orders().UpdateStatus(ctx, o.ID, model.OrderStatusCompleted); err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}
		return nil

	default:
		return NewHTTPError(http.StatusForbidden, CodeForbidden, "invalid status change for customer")
	}
}

// サプライヤーの遷移：pending→shipped（自社明細の在庫を引く）か pending→cancelled。
func (u *OrderUsecase) supplierTransition(ctx context.Context, r repo.TxRepos, caller Caller, o model.Order, newStatus model.OrderStatus) error {
	owns, err := r.OrderItems().ExistsForSupplier(ctx, o.ID, caller.UserID)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}
	if !owns {
		return NewHTTPError(http.StatusForbidden, CodeForbidden, "you can only update orders for your products")
	}

	if model.IsTerminalOrderStatus(o.Status) {
		return NewHTTPError(http.StatusBadRequest, CodeConflict,
			fmt.Sprintf("order is already %s and cannot be updated", o.Status))
	}
	if o.Status != model.OrderStatusPending {
		return NewHTTPError(http.StatusBadRequest, CodeValidation, "only pending orders can be updated")
	}
	if !model.SupplierCanTarget(newStatus) {
		return NewHTTPError(http.StatusBadRequest, CodeValidation,
			`pending orders can only be updated to "shipped" or "cancelled"`)
	}

	if newStatus == model.OrderStatusShipped {
		//自社の明細だけが対象。他サプライヤーの明細には触らない。
		ownedItems, err := r.OrderItems().ListByOrderIDAndSupplier(ctx, o.ID, caller.UserID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}

		for _, it := range ownedItems {
			//在庫はここで生の値を読み直す。条件付きUPDATEが最終の番人。
			p, err := r.Products().FindByID(ctx, it.ProductID)
			if err == repo.ErrNotFound {
				return NewHTTPError(http.StatusNotFound, CodeNotFound, "product not found")
			}
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
			}

			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, it.ProductID, it.Quantity)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
			}
			if !ok {
				//1件でも足りなければ部分出荷せず全体を失敗させる
				return NewHTTPError(http.StatusBadRequest, CodeInsufficientStock,
					fmt.Sprintf("insufficient stock to ship product: %s. available: %d, required: %d",
						p.Name, p.Stock, it.Quantity))
			}
		}
	}

	if err := r.Orders().UpdateStatus(ctx, o.ID, newStatus); err != nil {
		return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}

	//顧客向け通知（同一トランザクション内）
	msg := fmt.Sprintf("Your order %s status has been updated to: %s", o.OrderNumber, newStatus)
	if err := r.Notifications().Create(ctx, model.Notification{
		UserID:  o.CustomerID,
		Message: msg,
		Type:    model.NotificationTypeOrderUpdate,
	}); err != nil {
		return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}

	return nil
}

type OrderListInput struct {
	Page  int
	Limit int

	//以下は管理者一覧のみ。他のロールでは無視する。
	Status string
	From   *string
	To     *string
}

// ListOrders はロールに応じた注文一覧。
// サプライヤーには自社商品を含む注文だけを、明細も自社分だけに絞って返す。
func (u *OrderUsecase) ListOrders(ctx context.Context, caller Caller, in OrderListInput) ([]OrderOutput, error) {
	if caller.UserID <= 0 {
		return []OrderOutput{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}
	if in.Page < 1 {
		return []OrderOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return []OrderOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid limit")
	}
	if in.Status != "" && !model.ValidOrderStatus(model.OrderStatus(in.Status)) {
		return []OrderOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid status")
	}
	from, err := parseTimeParam(in.From)
	if err != nil {
		return []OrderOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid from")
	}
	to, err := parseTimeParam(in.To)
	if err != nil {
		return []OrderOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid to")
	}
	if from != nil && to != nil && from.After(*to) {
		return []OrderOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "from must be <= to")
	}

	var outs []OrderOutput

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var orders []model.Order
		var err error

		switch caller.Role {
		case model.RoleAdmin:
			orders, _, err = r.Orders().ListAll(ctx, repo.OrderListFilter{
				Page:   in.Page,
				Limit:  in.Limit,
				Status: in.Status,
				From:   from,
				To:     to,
			})
		case model.RoleSupplier:
			orders, _, err = r.Orders().ListBySupplierID(ctx, caller.UserID, in.Page, in.Limit)
		default:
			orders, _, err = r.Orders().ListByCustomerID(ctx, caller.UserID, in.Page, in.Limit)
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}

		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			var items []model.OrderItem
			if caller.Role == model.RoleSupplier {
				items, err = r.OrderItems().ListByOrderIDAndSupplier(ctx, o.ID, caller.UserID)
			} else {
				items, err = r.OrderItems().ListByOrderID(ctx, o.ID)
			}
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
			}
			outs = append(outs, toOrderOutput(o, items))
		}
		return nil
	})

	if err != nil {
		return []OrderOutput{}, err
	}
	return outs, nil
}

func (u *OrderUsecase) GetOrderDetail(ctx context.Context, caller Caller, orderID int64) (OrderOutput, error) {
	if caller.UserID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, CodeNotFound, "order not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}

		switch caller.Role {
		case model.RoleAdmin:
			// 制限なし
		case model.RoleSupplier:
			owns, err := r.OrderItems().ExistsForSupplier(ctx, orderID, caller.UserID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
			}
			if !owns {
				return NewHTTPError(http.StatusForbidden, CodeForbidden, "access denied")
			}
		default:
			if o.CustomerID != caller.UserID {
				return NewHTTPError(http.StatusForbidden, CodeForbidden, "access denied")
			}
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}

		out = toOrderOutput(o, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// ORD-<yyyymmdd>-<6桁英数>。一意性はorder_numberのunique制約が担保する。
func newOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return "ORD-" + now.Format("20060102") + "-" + suffix
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID: it.ProductID,
			Name:      it.ProductNameSnapshot,
			Price:     it.UnitPriceSnapshot,
			Quantity:  it.Quantity,
			Total:     it.UnitPriceSnapshot * it.Quantity,
		})
	}

	return OrderOutput{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		CustomerID:  o.CustomerID,
		Status:      string(o.Status),
		TotalAmount: o.TotalAmount,
		CreatedAt:   o.CreatedAt,
		Items:       outItems,
	}
}
