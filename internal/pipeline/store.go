// Package pipeline implements the limit-order job pipeline: submission,
// delayed simulated execution, status lookup, and executed-order
// history, backed by Redis standing in for the reference system's
// Redis-backed Celery broker and key/value store.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cryptoagg/orderbookd/internal/domain"
)

// Keyspace templates, matching config.py's ORDER_KEY / ORDER_STATUS_KEY /
// TASK_ID_KEY / EXECUTED_ORDERS_KEY exactly.
const (
	orderKeyFmt          = "order:%s"
	orderStatusKeyFmt    = "order:%s:status"
	orderTaskIDKeyFmt    = "order:%s:task_id"
	executedOrdersKeyFmt = "executed_orders:%s"
)

func orderKey(id string) string          { return fmt.Sprintf(orderKeyFmt, id) }
func orderStatusKey(id string) string    { return fmt.Sprintf(orderStatusKeyFmt, id) }
func orderTaskIDKey(id string) string    { return fmt.Sprintf(orderTaskIDKeyFmt, id) }
func executedOrdersKey(client string) string { return fmt.Sprintf(executedOrdersKeyFmt, client) }

// Store is the durable key/value view over the four keyspaces above,
// backed by Redis GET/SET/LPUSH/LRANGE.
type Store struct {
	rdb *redis.Client
}

// NewStore dials Redis at url (e.g. "redis://redis:6379/0").
func NewStore(url string) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	return &Store{rdb: redis.NewClient(opts)}, nil
}

// NewStoreFromClient wraps an already-constructed Redis client, used by
// tests to inject a redismock client.
func NewStoreFromClient(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// PutOrder stores the LimitOrder payload under order:{id}.
func (s *Store) PutOrder(ctx context.Context, lo domain.LimitOrder) error {
	b, err := json.Marshal(lo)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, orderKey(lo.OrderID), b, 0).Err()
}

// GetOrder reads the LimitOrder payload for id, returning ok=false if
// absent.
func (s *Store) GetOrder(ctx context.Context, id string) (domain.LimitOrder, bool, error) {
	b, err := s.rdb.Get(ctx, orderKey(id)).Bytes()
	if err == redis.Nil {
		return domain.LimitOrder{}, false, nil
	}
	if err != nil {
		return domain.LimitOrder{}, false, err
	}
	var lo domain.LimitOrder
	if err := json.Unmarshal(b, &lo); err != nil {
		return domain.LimitOrder{}, false, err
	}
	return lo, true, nil
}

// SetStatus stores the status for order id.
func (s *Store) SetStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	return s.rdb.Set(ctx, orderStatusKey(id), string(status), 0).Err()
}

// GetStatus reads the status for order id, ok=false if never set.
func (s *Store) GetStatus(ctx context.Context, id string) (domain.OrderStatus, bool, error) {
	v, err := s.rdb.Get(ctx, orderStatusKey(id)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return domain.OrderStatus(v), true, nil
}

// SetTaskID records the background task id dispatched for order id.
func (s *Store) SetTaskID(ctx context.Context, id, taskID string) error {
	return s.rdb.Set(ctx, orderTaskIDKey(id), taskID, 0).Err()
}

// GetTaskID reads the background task id for order id, ok=false if none.
func (s *Store) GetTaskID(ctx context.Context, id string) (string, bool, error) {
	v, err := s.rdb.Get(ctx, orderTaskIDKey(id)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// PrependExecutedOrder pushes the serialized order to the front of the
// client's executed-order history (LPUSH, newest first).
func (s *Store) PrependExecutedOrder(ctx context.Context, clientID string, lo domain.LimitOrder) error {
	b, err := json.Marshal(lo)
	if err != nil {
		return err
	}
	return s.rdb.LPush(ctx, executedOrdersKey(clientID), b).Err()
}

// ExecutedOrders returns the full executed-order history for clientID,
// newest first.
func (s *Store) ExecutedOrders(ctx context.Context, clientID string) ([]string, error) {
	return s.rdb.LRange(ctx, executedOrdersKey(clientID), 0, -1).Result()
}

// Ping verifies connectivity at startup.
func (s *Store) Ping(ctx context.Context) error {
	c, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.rdb.Ping(c).Err()
}
