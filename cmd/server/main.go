package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/xtding233/reward-wheel/internal/catalog"
	"github.com/xtding233/reward-wheel/internal/coins"
	"github.com/xtding233/reward-wheel/internal/config"
	"github.com/xtding233/reward-wheel/internal/events"
	"github.com/xtding233/reward-wheel/internal/grpcapi"
	"github.com/xtding233/reward-wheel/internal/httpapi"
	"github.com/xtding233/reward-wheel/internal/logging"
	"github.com/xtding233/reward-wheel/internal/reward"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "init logger:", err)
		os.Exit(1)
	}
	if err := run(cfg, log); err != nil {
		log.Error("server stopped", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
	_ = log.Sync()
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loader := catalog.NewLoader(cfg.WheelConfigDir)
	names, err := loader.List()
	if err != nil {
		return fmt.Errorf("list wheels: %w", err)
	}
	for _, name := range names {
		if _, err := loader.Resolve(name, catalog.Overrides{}); err != nil {
			return fmt.Errorf("wheel %q: %w", name, err)
		}
	}
	log.Info("wheel catalog loaded", zap.String("dir", cfg.WheelConfigDir), zap.Strings("wheels", names))

	var publisher events.Publisher = events.Nop{}
	if cfg.AMQPURL != "" {
		p, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey, log)
		if err != nil {
			return fmt.Errorf("amqp: %w", err)
		}
		publisher = p
	} else {
		log.Info("AMQP_URL not set, spin events disabled")
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Warn("close publisher", zap.Error(err))
		}
	}()

	svc := reward.New(loader, coins.NewWallet(cfg.StartingCoins),
		reward.WithPublisher(publisher),
		reward.WithLogger(log),
	)
	defer svc.Shutdown()

	if cfg.WatchInterval > 0 {
		watcher := catalog.WatchWheels(loader.Paths(), cfg.WatchInterval, func(path string) {
			log.Info("wheel config changed", zap.String("path", path))
			loader.Invalidate()
			svc.Invalidate()
		})
		watcher.Start()
		defer watcher.Stop()
	}

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewHandler(svc, log).Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	grpcSrv := grpcapi.NewGRPCServer(svc, log)

	g, gctx := errgroup.WithContext(ctx)
	// request contexts end with the group so frame streams return on shutdown
	httpSrv.BaseContext = func(net.Listener) context.Context { return gctx }
	g.Go(func() error {
		log.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			return fmt.Errorf("grpc listen: %w", err)
		}
		log.Info("grpc listening", zap.String("addr", cfg.GRPCAddr))
		if err := grpcSrv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("grpc: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Warn("http shutdown", zap.Error(err))
		}
		stopped := make(chan struct{})
		go func() {
			grpcSrv.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-shutdownCtx.Done():
			grpcSrv.Stop()
		}
		return nil
	})
	return g.Wait()
}
