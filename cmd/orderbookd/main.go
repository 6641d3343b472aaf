// Command orderbookd runs the cross-exchange order-book aggregation and
// smart-order-routing service: the background refresh scheduler, the
// limit-order job pipeline, and the WebSocket/HTTP streaming layer.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cryptoagg/orderbookd/internal/book"
	"github.com/cryptoagg/orderbookd/internal/config"
	"github.com/cryptoagg/orderbookd/internal/domain"
	"github.com/cryptoagg/orderbookd/internal/exchange"
	"github.com/cryptoagg/orderbookd/internal/metrics"
	"github.com/cryptoagg/orderbookd/internal/pipeline"
	"github.com/cryptoagg/orderbookd/internal/pricing"
	"github.com/cryptoagg/orderbookd/internal/registry"
	"github.com/cryptoagg/orderbookd/internal/scheduler"
	"github.com/cryptoagg/orderbookd/internal/telemetry"
	"github.com/cryptoagg/orderbookd/internal/ws"

	promclient "github.com/prometheus/client_golang/prometheus"
)

const appName = "orderbookd"

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Cross-exchange order-book aggregation and smart-order-routing service",
		Version: "v1.0.0",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newPriceCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the refresh scheduler, job workers, and streaming server",
		RunE:  runServe,
	}
}

func newPriceCmd() *cobra.Command {
	var quantity float64
	var pair string
	var operation string

	cmd := &cobra.Command{
		Use:   "price",
		Short: "Fetch each venue once and print the aggregated VWAP for a single quantity",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrice(pair, operation, quantity)
		},
	}
	cmd.Flags().Float64Var(&quantity, "quantity", 10.0, "quantity to price")
	cmd.Flags().StringVar(&pair, "pair", string(domain.BTCUSD), "currency pair")
	cmd.Flags().StringVar(&operation, "operation", string(domain.Buy), "BUY or SELL")
	return cmd
}

func loadConfigAndLogging() (config.ServiceConfig, func(), error) {
	closeLog, err := telemetry.Configure()
	if err != nil {
		return config.ServiceConfig{}, nil, fmt.Errorf("configuring logging: %w", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		closeLog()
		return config.ServiceConfig{}, nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, closeLog, nil
}

func buildAdapters() scheduler.AdapterSet {
	return scheduler.AdapterSet{
		Coinbase: exchange.NewCoinbase(),
		Kraken:   exchange.NewKraken(),
		Gemini:   exchange.NewGemini(),
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, closeLog, err := loadConfigAndLogging()
	if err != nil {
		return err
	}
	defer closeLog()

	log.Info().Str("addr", cfg.HTTPAddr).Str("redis", cfg.RedisURL).Msg("starting orderbookd")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := registry.New()

	metricsReg := metrics.New(promclient.DefaultRegisterer)

	pairs := make([]domain.Pair, 0, len(cfg.Pairs))
	for _, p := range cfg.Pairs {
		pairs = append(pairs, domain.Pair(p))
	}

	sched := scheduler.New(reg, buildAdapters(), cfg.Intervals, pairs)
	sched.OnRefresh(func(pair domain.Pair, ok bool) {
		if ok {
			metricsReg.RefreshTotal.WithLabelValues(string(pair)).Inc()
		} else {
			metricsReg.RefreshFailed.WithLabelValues(string(pair)).Inc()
		}
	})

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opts)

	store := pipeline.NewStoreFromClient(rdb)
	if err := store.Ping(ctx); err != nil {
		return fmt.Errorf("pinging redis: %w", err)
	}
	queue := pipeline.NewQueue(rdb)
	jobs := pipeline.NewJobs(store, queue)

	go sched.Start(ctx)
	queue.RunWorkers(ctx, cfg.Workers)

	server := ws.NewServer(reg, store, queue, jobs, metricsReg)
	httpSrv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      server.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("streaming server listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info().Msg("shutdown signal received")
	case err := <-serverErr:
		log.Error().Err(err).Msg("server error")
		cancel()
		return err
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}
	reg.Flush()

	log.Info().Msg("orderbookd shutdown complete")
	return nil
}

// runPrice implements the one-shot CLI mode from spec.md §6: fetch every
// venue once for pair, merge, and print the VWAP for quantity on the
// requested side.
func runPrice(pairStr, opStr string, quantity float64) error {
	closeLog, err := telemetry.Configure()
	if err != nil {
		return err
	}
	defer closeLog()

	pair := domain.Pair(pairStr)
	if !pair.Valid() {
		fmt.Fprintf(os.Stderr, "unknown pair %q; check app.log\n", pairStr)
		return fmt.Errorf("unknown pair %q", pairStr)
	}
	op := domain.Operation(opStr)
	if !op.Valid() {
		fmt.Fprintf(os.Stderr, "unknown operation %q; check app.log\n", opStr)
		return fmt.Errorf("unknown operation %q", opStr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	adapters := buildAdapters().All()
	sides := make([]domain.Sides, 0, len(adapters))
	for _, a := range adapters {
		sym, ok := domain.VenueSymbol(pair, a.Exchange())
		if !ok {
			continue
		}
		s, err := a.FetchSides(ctx, sym)
		if err != nil {
			log.Error().Err(err).Str("exchange", string(a.Exchange())).Msg("fetch failed")
			fmt.Fprintln(os.Stderr, "fetch failed; check app.log")
			return err
		}
		sides = append(sides, s)
	}

	merged := book.Merge(sides)
	price, err := pricing.VWAP(merged, op, quantity)
	if err != nil {
		fmt.Fprintln(os.Stderr, "pricing failed; check app.log")
		return err
	}

	fmt.Printf("%s %s %.8f @ quantity %.8f => total %.8f\n", op, pair, price, quantity, price*quantity)
	return nil
}
