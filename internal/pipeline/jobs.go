package pipeline

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/cryptoagg/orderbookd/internal/apierr"
	"github.com/cryptoagg/orderbookd/internal/domain"
)

// executedOrdersClientID is hard-coded regardless of the submitting
// client, exactly as tasks/orders.py's store_executed_order and
// routes/websockets.py's get_executed_orders do — preserved as observed
// per the specification's open questions rather than silently fixed.
const executedOrdersClientID = "ABCD"

// Jobs holds the three background task bodies of the limit-order
// pipeline, each reading/writing through Store and re-enqueuing the next
// step through Queue, mirroring tasks/orders.py's send_limit_order /
// execute_limit_order / store_executed_order chain.
type Jobs struct {
	store *Store
	queue *Queue
}

// NewJobs wires the job bodies to their store and queue, and registers
// each with the queue's dispatch table.
func NewJobs(store *Store, queue *Queue) *Jobs {
	j := &Jobs{store: store, queue: queue}
	queue.Register(TaskSendLimitOrder, j.sendLimitOrder)
	queue.Register(TaskExecuteLimitOrder, j.executeLimitOrder)
	queue.Register(TaskStoreExecutedOrder, j.storeExecutedOrder)
	return j
}

// Submit enqueues the initial send_limit_order job for a freshly
// validated LimitOrder and returns the queue's task id for that job
// (not the downstream execute_limit_order task id — status lookups
// follow the chain via Store's order:{id}:task_id key, which is set once
// sendLimitOrder enqueues the executor).
func (j *Jobs) Submit(ctx context.Context, lo domain.LimitOrder) (string, error) {
	return j.queue.Enqueue(ctx, TaskSendLimitOrder, lo)
}

// sendLimitOrder stores the order and its PENDING status, picks a
// simulated execution delay in [3,10] seconds, enqueues the executor, and
// records its task id — steps 1-5 of spec.md §4.G.
func (j *Jobs) sendLimitOrder(ctx context.Context, payload json.RawMessage) (interface{}, error) {
	var lo domain.LimitOrder
	if err := json.Unmarshal(payload, &lo); err != nil {
		return nil, apierr.Wrap(apierr.InternalError, "decoding send_limit_order payload", err)
	}

	if err := j.store.PutOrder(ctx, lo); err != nil {
		return nil, err
	}
	if err := j.store.SetStatus(ctx, lo.OrderID, domain.StatusPending); err != nil {
		return nil, err
	}

	delay := randomDelaySeconds()
	taskID, err := j.queue.Enqueue(ctx, TaskExecuteLimitOrder, executePayload{OrderID: lo.OrderID, DelaySeconds: delay})
	if err != nil {
		return nil, err
	}
	if err := j.store.SetTaskID(ctx, lo.OrderID, taskID); err != nil {
		return nil, err
	}

	return map[string]string{"status": "Done"}, nil
}

type executePayload struct {
	OrderID      string `json:"order_id"`
	DelaySeconds int    `json:"delay_seconds"`
}

// executeLimitOrder simulates venue latency, then marks the order FILLED
// and enqueues the executed-order history write — steps 1-4 of
// spec.md §4.G.
func (j *Jobs) executeLimitOrder(ctx context.Context, payload json.RawMessage) (interface{}, error) {
	var p executePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, apierr.Wrap(apierr.InternalError, "decoding execute_limit_order payload", err)
	}

	lo, ok, err := j.store.GetOrder(ctx, p.OrderID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return map[string]string{"status": "Invalid Order"}, apierr.New(apierr.JobInvalid, "no stored order for id "+p.OrderID)
	}

	select {
	case <-time.After(time.Duration(p.DelaySeconds) * time.Second):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if err := j.store.SetStatus(ctx, p.OrderID, domain.StatusFilled); err != nil {
		return nil, err
	}

	if _, err := j.queue.Enqueue(ctx, TaskStoreExecutedOrder, lo); err != nil {
		return nil, err
	}

	return map[string]string{"status": "Done"}, nil
}

// storeExecutedOrder prepends the executed payload to the (effectively
// global, per the preserved "ABCD" quirk) executed-order history.
func (j *Jobs) storeExecutedOrder(ctx context.Context, payload json.RawMessage) (interface{}, error) {
	var lo domain.LimitOrder
	if err := json.Unmarshal(payload, &lo); err != nil {
		return nil, apierr.Wrap(apierr.InternalError, "decoding store_executed_order payload", err)
	}
	if err := j.store.PrependExecutedOrder(ctx, executedOrdersClientID, lo); err != nil {
		return nil, err
	}
	return map[string]string{"status": "Done"}, nil
}

// randomDelaySeconds picks the simulated venue latency, an integer in
// [3, 10] inclusive, matching tasks/orders.py's get_delay.
func randomDelaySeconds() int {
	return 3 + rand.Intn(8)
}
