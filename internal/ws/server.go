// Package ws implements the bidirectional streaming session layer:
// accepting WebSocket connections, dispatching five endpoints, framing
// per-message errors, and measuring handler latency — the Go transport
// for routes/websockets.py's handle_websocket loop, mounted on a
// gorilla/mux router following internal/interfaces/http/server.go's
// composition in the teacher repository.
package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/cryptoagg/orderbookd/internal/metrics"
	"github.com/cryptoagg/orderbookd/internal/pipeline"
	"github.com/cryptoagg/orderbookd/internal/registry"
)

// Server holds the dependencies the five endpoint handlers need: the book
// Registry for pricing/routing queries and the job pipeline for
// limit-order submission and status.
type Server struct {
	reg     *registry.Registry
	store   *pipeline.Store
	queue   *pipeline.Queue
	jobs    *pipeline.Jobs
	metrics *metrics.Registry

	upgrader websocket.Upgrader
}

// NewServer constructs the streaming session layer.
func NewServer(reg *registry.Registry, store *pipeline.Store, queue *pipeline.Queue, jobs *pipeline.Jobs, m *metrics.Registry) *Server {
	return &Server{
		reg:   reg,
		store: store,
		queue: queue,
		jobs:  jobs,
		metrics: m,
		upgrader: websocket.Upgrader{
			// The reference system's CORS policy allows all origins,
			// methods, and headers; the WebSocket upgrade mirrors that by
			// accepting any Origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Router returns the mux.Router exposing the five /ws/* endpoints plus
// /healthz, /metrics, and the read-only /price convenience endpoint kept
// from routes/routes.py.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(corsMiddleware)

	r.HandleFunc("/ws/order-book", s.wrap("order-book", s.handleOrderBook))
	r.HandleFunc("/ws/limit-order", s.wrap("limit-order", s.handleLimitOrder))
	r.HandleFunc("/ws/execute-limit-order", s.wrap("execute-limit-order", s.handleExecuteLimitOrder))
	r.HandleFunc("/ws/get-limit-order-status", s.wrap("get-limit-order-status", s.handleGetLimitOrderStatus))
	r.HandleFunc("/ws/get-executed-orders", s.wrap("get-executed-orders", s.handleGetExecutedOrders))

	r.HandleFunc("/price", s.handlePriceHTTP).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "*")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// connHandler processes one decoded JSON message for a session.
type connHandler func(ctx context.Context, conn *websocket.Conn, msg map[string]interface{})

// wrap upgrades the connection and runs the session loop for endpoint,
// recording handler latency the way utils.measure_latency does for every
// request.
func (s *Server) wrap(endpoint string, handler connHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error().Err(err).Str("endpoint", endpoint).Msg("websocket upgrade failed")
			return
		}
		s.runSession(r.Context(), endpoint, conn, handler)
	}
}

// runSession is the ACCEPTED → (receive → dispatch → reply)* → CLOSED
// state machine from spec.md §4.F, ported from
// routes/websockets.py's handle_websocket.
func (s *Server) runSession(ctx context.Context, endpoint string, conn *websocket.Conn, handler connHandler) {
	defer conn.Close()

	for {
		var msg map[string]interface{}
		if err := conn.ReadJSON(&msg); err != nil {
			// A JSON decode failure (or disconnect) ends the receive
			// iteration without severing the TCP session abruptly; the
			// deferred Close handles teardown. Preserved per the
			// specification's open question on this exact behavior.
			break
		}

		start := time.Now()
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error().Interface("panic", rec).Str("endpoint", endpoint).Msg("handler panicked")
					_ = conn.WriteMessage(websocket.TextMessage, []byte("Error: internal error"))
				}
			}()
			handler(ctx, conn, msg)
		}()

		if s.metrics != nil {
			s.metrics.WSLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		}
	}
}

func writeJSON(conn *websocket.Conn, v interface{}) {
	if err := conn.WriteJSON(v); err != nil {
		log.Error().Err(err).Msg("failed writing websocket response")
	}
}

func writeErrorText(conn *websocket.Conn, err error) {
	log.Error().Err(err).Msg("handler error")
	_ = conn.WriteMessage(websocket.TextMessage, []byte("Error: "+err.Error()))
}
