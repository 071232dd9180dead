package model

// ステータス文字列の妥当性チェック用
var validOrderStatuses = map[OrderStatus]bool{
	OrderStatusPending:    true,
	OrderStatusProcessing: true,
	OrderStatusShipped:    true,
	OrderStatusDelivered:  true,
	OrderStatusCancelled:  true,
	OrderStatusCompleted:  true,
}

func ValidOrderStatus(s OrderStatus) bool {
	return validOrderStatuses[s]
}

// 出荷・配達・完了・キャンセル後はサプライヤー側から変更不可
var terminalOrderStatuses = map[OrderStatus]bool{
	OrderStatusShipped:   true,
	OrderStatusDelivered: true,
	OrderStatusCompleted: true,
	OrderStatusCancelled: true,
}

func IsTerminalOrderStatus(s OrderStatus) bool {
	return terminalOrderStatuses[s]
}

// サプライヤーがpendingから進められる遷移先
var supplierNextStatuses = map[OrderStatus]bool{
	OrderStatusShipped:   true,
	OrderStatusCancelled: true,
}

func SupplierCanTarget(s OrderStatus) bool {
	return supplierNextStatuses[s]
}
