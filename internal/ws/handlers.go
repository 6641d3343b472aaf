package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/cryptoagg/orderbookd/internal/apierr"
	"github.com/cryptoagg/orderbookd/internal/domain"
	"github.com/cryptoagg/orderbookd/internal/pricing"
)

// orderBookRequest mirrors routes/websockets.py's /ws/order-book payload:
// a currency pair and a quantity, no side — both buy and sell totals are
// priced simultaneously.
type orderBookRequest struct {
	CurrencyPair string  `json:"currencyPair"`
	Quantity     float64 `json:"quantity"`
}

type orderBookResponse struct {
	BuyPrice  float64 `json:"buy_price"`
	SellPrice float64 `json:"sell_price"`
}

// handleOrderBook prices quantity against the latest merged book for both
// sides simultaneously and returns the two totals (price * quantity),
// per spec.md §4.F's table. Errors are reported as a text error frame,
// per S5, rather than a structured envelope — this endpoint has none.
func (s *Server) handleOrderBook(ctx context.Context, conn *websocket.Conn, msg map[string]interface{}) {
	var req orderBookRequest
	if err := remarshal(msg, &req); err != nil {
		writeErrorText(conn, err)
		return
	}

	pair := domain.Pair(req.CurrencyPair)
	if !pair.Valid() {
		writeErrorText(conn, apierr.New(apierr.BadRequest, "unknown currencyPair: "+req.CurrencyPair))
		return
	}

	book, ok := s.reg.Get(pair)
	if !ok {
		writeErrorText(conn, apierr.New(apierr.RegistryMiss, "Order book not found"))
		return
	}

	buyPrice, err := pricing.VWAP(book, domain.Buy, req.Quantity)
	if err != nil {
		writeErrorText(conn, err)
		return
	}
	sellPrice, err := pricing.VWAP(book, domain.Sell, req.Quantity)
	if err != nil {
		writeErrorText(conn, err)
		return
	}

	writeJSON(conn, orderBookResponse{
		BuyPrice:  buyPrice * req.Quantity,
		SellPrice: sellPrice * req.Quantity,
	})
}

// limitOrderRequest mirrors /ws/limit-order's routing-hint payload: a
// pair, a quantity, and a side to split across venues.
type limitOrderRequest struct {
	CurrencyPair string  `json:"currencyPair"`
	Quantity     float64 `json:"quantity"`
	Operation    string  `json:"operation"`
}

type limitOrderResponse struct {
	LimitOrders []domain.Order `json:"limit_orders"`
}

// handleLimitOrder runs the best-split routing query: which venues, at
// what per-venue price, together fill quantity from the top of the
// merged book. limitOrders is initialized empty before any conditional
// population, closing the unbound-variable defect named in spec.md §9.
func (s *Server) handleLimitOrder(ctx context.Context, conn *websocket.Conn, msg map[string]interface{}) {
	var req limitOrderRequest
	if err := remarshal(msg, &req); err != nil {
		writeErrorText(conn, err)
		return
	}

	limitOrders := []domain.Order{}

	pair := domain.Pair(req.CurrencyPair)
	if !pair.Valid() {
		writeErrorText(conn, apierr.New(apierr.BadRequest, "unknown currencyPair: "+req.CurrencyPair))
		return
	}
	op := domain.Operation(req.Operation)
	if !op.Valid() {
		writeErrorText(conn, apierr.New(apierr.BadRequest, "unknown operation: "+req.Operation))
		return
	}

	book, ok := s.reg.Get(pair)
	if ok {
		split, err := pricing.BestSplit(book, op, req.Quantity)
		if err != nil {
			writeErrorText(conn, err)
			return
		}
		limitOrders = split
	}

	writeJSON(conn, limitOrderResponse{LimitOrders: limitOrders})
}

// executeLimitOrderRequest is the LimitOrder's submittable fields, minus
// the server-assigned order_id, per spec.md §4.F's table.
type executeLimitOrderRequest struct {
	Price        float64 `json:"price"`
	Amount       float64 `json:"amount"`
	Exchange     string  `json:"exchange"`
	Operation    string  `json:"operation"`
	CurrencyPair string  `json:"currencyPair"`
}

type executeLimitOrderResponse struct {
	Status  string `json:"status"`
	OrderID string `json:"orderId,omitempty"`
	Error   string `json:"error,omitempty"`
}

// handleExecuteLimitOrder is the submission endpoint: assign a fresh
// order_id, validate the LimitOrder fields, and enqueue send_limit_order
// — spec.md §4.G's submission path. Validation failure is surfaced
// inline without enqueuing.
func (s *Server) handleExecuteLimitOrder(ctx context.Context, conn *websocket.Conn, msg map[string]interface{}) {
	var req executeLimitOrderRequest
	if err := remarshal(msg, &req); err != nil {
		writeJSON(conn, executeLimitOrderResponse{Status: "FAILED", Error: err.Error()})
		return
	}

	lo := domain.LimitOrder{
		OrderID:      uuid.NewString(),
		Price:        req.Price,
		Amount:       req.Amount,
		Exchange:     domain.Exchange(req.Exchange),
		Operation:    domain.Operation(req.Operation),
		CurrencyPair: req.CurrencyPair,
	}
	if err := lo.Validate(); err != nil {
		writeJSON(conn, executeLimitOrderResponse{Status: "FAILED", Error: err.Error()})
		return
	}

	if _, err := s.jobs.Submit(ctx, lo); err != nil {
		writeJSON(conn, executeLimitOrderResponse{Status: "FAILED", Error: err.Error()})
		return
	}

	writeJSON(conn, executeLimitOrderResponse{Status: "SUCCESS", OrderID: lo.OrderID})
}

// getLimitOrderStatusRequest names the order whose current lifecycle
// status is being queried.
type getLimitOrderStatusRequest struct {
	OrderID string `json:"orderId"`
}

type orderStatusResponse struct {
	Status  string `json:"status"`
	Result  string `json:"result,omitempty"`
	OrderID string `json:"orderId,omitempty"`
	Error   string `json:"error,omitempty"`
}

// handleGetLimitOrderStatus reads order:{id}:task_id and asks the task
// queue for that task's status and result, per spec.md §4.G's status
// query.
func (s *Server) handleGetLimitOrderStatus(ctx context.Context, conn *websocket.Conn, msg map[string]interface{}) {
	var req getLimitOrderStatusRequest
	if err := remarshal(msg, &req); err != nil {
		writeJSON(conn, orderStatusResponse{Status: "FAILED", Error: err.Error()})
		return
	}

	taskID, ok, err := s.store.GetTaskID(ctx, req.OrderID)
	if err != nil {
		writeJSON(conn, orderStatusResponse{Status: "FAILED", Error: err.Error()})
		return
	}
	if !ok {
		writeJSON(conn, orderStatusResponse{Status: "FAILED", Error: "no task recorded for order " + req.OrderID})
		return
	}

	state, result, err := s.queue.Status(ctx, taskID)
	if err != nil {
		writeJSON(conn, orderStatusResponse{Status: "FAILED", Error: err.Error()})
		return
	}

	writeJSON(conn, orderStatusResponse{Status: state, Result: result, OrderID: req.OrderID})
}

type executedOrdersResponse struct {
	ExecutedOrders []string `json:"executed_orders"`
}

// handleGetExecutedOrders returns the executed-order history for the
// hard-coded "ABCD" client id, ignoring the request's clientId —
// preserved per the specification's open questions.
func (s *Server) handleGetExecutedOrders(ctx context.Context, conn *websocket.Conn, msg map[string]interface{}) {
	orders, err := s.store.ExecutedOrders(ctx, "ABCD")
	if err != nil {
		writeErrorText(conn, err)
		return
	}
	writeJSON(conn, executedOrdersResponse{ExecutedOrders: orders})
}

// handlePriceHTTP is the supplemented plain-HTTP convenience route:
// GET /price?pair=BTCUSD&operation=BUY&quantity=10 returns the VWAP
// per-unit price, for clients that don't want to hold a socket open for
// a single quote.
func (s *Server) handlePriceHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pair := domain.Pair(q.Get("pair"))
	op := domain.Operation(q.Get("operation"))

	w.Header().Set("Content-Type", "application/json")

	if !pair.Valid() || !op.Valid() {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"status": "FAILED", "error": "invalid pair or operation"})
		return
	}

	var qty float64
	if _, err := fmt.Sscan(q.Get("quantity"), &qty); err != nil || qty <= 0 {
		qty = 10.0
	}

	book, ok := s.reg.Get(pair)
	if !ok {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"status": "FAILED", "error": "no book available yet"})
		return
	}

	price, err := pricing.VWAP(book, op, qty)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"status": "FAILED", "error": err.Error()})
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{"status": "SUCCESS", "price": price})
}

// remarshal re-encodes a decoded JSON map into a typed struct, since
// ReadJSON into map[string]interface{} loses field types the handlers
// need back.
func remarshal(msg map[string]interface{}, dst interface{}) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return apierr.Wrap(apierr.BadRequest, "re-encoding message", err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return apierr.Wrap(apierr.BadRequest, "decoding message", err)
	}
	return nil
}
