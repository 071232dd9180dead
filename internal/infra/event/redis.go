package event

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	ChannelOrderEvents = "order_events"

	EventOrderStatusChanged = "OrderStatusChanged"
)

// イベント封筒。payloadはイベント種別ごとの型をJSON化したもの。
type Envelope struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

type OrderStatusChangedPayload struct {
	OrderID     int64  `json:"order_id"`
	OrderNumber string `json:"order_number"`
	CustomerID  int64  `json:"customer_id"`
	Status      string `json:"status"`
}

func NewRedisClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

// redis pub/subへの発行。commit後にfire-and-forgetで呼ぶ。
type RedisPublisher struct {
	rdb     *redis.Client
	channel string
}

func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, channel: ChannelOrderEvents}
}

func (p *RedisPublisher) PublishOrderStatusChanged(ctx context.Context, orderID int64, orderNumber string, customerID int64, status string) error {
	raw, err := json.Marshal(OrderStatusChangedPayload{
		OrderID:     orderID,
		OrderNumber: orderNumber,
		CustomerID:  customerID,
		Status:      status,
	})
	if err != nil {
		return err
	}

	env := Envelope{
		EventID:    uuid.NewString(),
		EventType:  EventOrderStatusChanged,
		OccurredAt: time.Now(),
		Payload:    raw,
	}

	b, err := json.Marshal(env)
	if err != nil {
		return err
	}

	return p.rdb.Publish(ctx, p.channel, b).Err()
}
