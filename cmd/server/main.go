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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/vogiaan1904/courtside-queue/config"
	grpcSvc "github.com/vogiaan1904/courtside-queue/internal/delivery/grpc"
	httpSvc "github.com/vogiaan1904/courtside-queue/internal/delivery/http"
	"github.com/vogiaan1904/courtside-queue/internal/delivery/kafka/consumer"
	"github.com/vogiaan1904/courtside-queue/internal/delivery/kafka/producer"
	"github.com/vogiaan1904/courtside-queue/internal/infra/redis"
	"github.com/vogiaan1904/courtside-queue/internal/metrics"
	"github.com/vogiaan1904/courtside-queue/internal/queue"
	repo "github.com/vogiaan1904/courtside-queue/internal/repository/redis"
	"github.com/vogiaan1904/courtside-queue/internal/service"
	pkgKafka "github.com/vogiaan1904/courtside-queue/pkg/kafka"
	pkgLog "github.com/vogiaan1904/courtside-queue/pkg/logger"
)

const serviceName = "courtside-queue"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	l := pkgLog.InitializeZapLogger(pkgLog.ZapConfig{
		Level:    cfg.Log.Level,
		Mode:     cfg.Log.Mode,
		Encoding: cfg.Log.Encoding,
	})
	defer func() { _ = l.Sync() }()

	redisCli, err := redis.Connect(ctx, cfg.Redis, l)
	if err != nil {
		l.Fatalf(ctx, "Failed to connect to Redis: %v", err)
	}
	defer redis.Disconnect(context.Background(), redisCli, l)

	stateRepo := repo.NewRedisStateRepository(redisCli, l, cfg.Redis.ClosedRetention)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	passSvc := service.NewPassService(cfg.CourtPass, l)

	// Kafka producer is the notification sink when enabled
	var sink queue.Notifier
	if cfg.Kafka.Enabled {
		kafkaSyncProd, err := pkgKafka.NewProducer(pkgKafka.ProducerConfig{
			Brokers:      cfg.Kafka.Brokers,
			ClientID:     serviceName,
			RetryMax:     cfg.Kafka.ProducerRetryMax,
			RequiredAcks: cfg.Kafka.ProducerRequiredAcks,
		})
		if err != nil {
			l.Fatalf(ctx, "Failed to initialize Kafka producer: %v", err)
		}
		prod := producer.NewProducer(kafkaSyncProd, l)
		defer prod.Close()
		sink = prod
	}

	mgr := queue.NewManager(l, queue.Config{
		Policy: queue.Policy{
			StaleSkipThreshold: cfg.Queue.StaleSkipThreshold,
			MinPlayersPerMatch: cfg.Queue.MinPlayersPerMatch,
			IdleWindow:         cfg.Queue.IdleWindow,
		},
		TurnSoonPositions:       cfg.Queue.TurnSoonPositions,
		ExhaustiveTeamThreshold: cfg.Queue.ExhaustiveTeamThreshold,
		DispatchBuffer:          cfg.Queue.DispatchBuffer,
	},
		queue.WithNotifier(service.NewPassNotifier(passSvc, sink, l)),
		queue.WithPersister(stateRepo),
		queue.WithMetrics(metrics.NewMetrics(registry)),
	)
	defer mgr.Shutdown()

	cqSvc := service.NewCourtQueueService(mgr, passSvc, l)
	proc := service.NewQueueProcessor(mgr, stateRepo, l, cfg.Queue)
	if err := proc.Restore(ctx); err != nil {
		l.Fatalf(ctx, "Failed to restore sessions: %v", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	// Kafka consumer
	if cfg.Kafka.Enabled {
		kafkaConsGr, err := pkgKafka.NewConsumer(pkgKafka.ConsumerConfig{
			Brokers:  cfg.Kafka.Brokers,
			GroupID:  cfg.Kafka.ConsumerGroupID,
			ClientID: serviceName,
		})
		if err != nil {
			l.Fatalf(ctx, "Failed to initialize Kafka consumer: %v", err)
		}
		cons := consumer.NewConsumer(kafkaConsGr, cqSvc, l)
		if err := cons.Start(gctx); err != nil {
			l.Fatalf(ctx, "Failed to start Kafka consumer: %v", err)
		}
		g.Go(func() error {
			<-gctx.Done()
			return cons.Close()
		})
	}

	// Queue processor
	if err := proc.Start(gctx); err != nil {
		l.Fatalf(ctx, "Failed to start queue processor: %v", err)
	}
	g.Go(func() error {
		<-gctx.Done()
		return proc.Stop()
	})

	// gRPC ops server
	gRpcSrv, hs := grpcSvc.NewServer(l)
	lnr, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.GRpcPort))
	if err != nil {
		l.Fatalf(ctx, "gRPC server failed to listen: %v", err)
	}
	g.Go(func() error {
		l.Infof(ctx, "gRPC server is listening on port: %d", cfg.Server.GRpcPort)
		return gRpcSrv.Serve(lnr)
	})
	g.Go(func() error {
		<-gctx.Done()
		gRpcSrv.GracefulStop()
		return nil
	})
	g.Go(func() error {
		return grpcSvc.NewHealthReporter(hs, proc, l, cfg.Queue.ProcessInterval).Run(gctx)
	})

	// HTTP server
	httpSrv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:      httpSvc.NewHTTPHandler(cqSvc, proc, l).Routes(registry),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	g.Go(func() error {
		l.Infof(ctx, "HTTP server is listening on port: %d", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		l.Info(ctx, "Server shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		l.Errorf(ctx, "Server exited with error: %v", err)
	}

	l.Info(ctx, "Server exited")
}
