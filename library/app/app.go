package app

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Astemirdum/library-catalog/library/config"
	"github.com/Astemirdum/library-catalog/library/internal/handler"
	"github.com/Astemirdum/library-catalog/library/internal/repository"
	"github.com/Astemirdum/library-catalog/library/internal/server"
	"github.com/Astemirdum/library-catalog/library/internal/service"
	"github.com/Astemirdum/library-catalog/library/migrations"
	"github.com/Astemirdum/library-catalog/pkg/circuit_breaker"
	"github.com/Astemirdum/library-catalog/pkg/database"
	"github.com/Astemirdum/library-catalog/pkg/kafka"
	"github.com/Astemirdum/library-catalog/pkg/logger"
	"github.com/Astemirdum/library-catalog/pkg/telemetry"
)

const (
	shutdownTimeout = 5 * time.Second

	cbRecordLength     = 20
	cbTimeout          = 10 * time.Second
	cbPercentile       = 0.5
	cbRecoveryRequests = 3
)

func Run(cfg *config.Config) {
	log := logger.NewLogger(cfg.Log, "library")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewDB(ctx, &cfg.Database, migrations.MigrationFiles, log)
	if err != nil {
		log.Fatal("db init", zap.Error(err))
	}
	defer db.Close()

	tel, err := telemetry.New(otel.GetTracerProvider(), otel.GetMeterProvider())
	if err != nil {
		log.Fatal("telemetry", zap.Error(err))
	}
	reg, err := telemetry.ObserveDBConnections(otel.GetMeterProvider(), db, cfg.Database.Driver)
	if err != nil {
		log.Fatal("telemetry db", zap.Error(err))
	}
	defer func() { _ = reg.Unregister() }()

	repo, err := repository.NewRepository(db, log, tel.Tracer())
	if err != nil {
		log.Fatal("repo", zap.Error(err))
	}

	var opts []service.Option
	if cfg.Kafka.Enabled() {
		producer, err := kafka.NewProducer(cfg.Kafka)
		if err != nil {
			log.Fatal("kafka.NewProducer", zap.Error(err))
		}
		pub := kafka.NewPublisher(producer,
			circuit_breaker.New(cbRecordLength, cbTimeout, cbPercentile, cbRecoveryRequests))
		defer func() {
			if err := pub.Close(); err != nil {
				log.Warn("kafka producer close", zap.Error(err))
			}
		}()
		opts = append(opts, service.WithPublisher(pub))
	}
	svc := service.NewService(repo, log, opts...)

	h := handler.New(svc, log,
		handler.WithBodyLimit(cfg.Server.BodyLimit),
		handler.WithTelemetry(tel),
	)
	srv := server.NewServer(cfg.Server, h.NewRouter())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http server start ON: ",
			zap.String("addr", net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)))
		return srv.Run()
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Debug("Graceful shutdown", zap.Error(context.Cause(gctx)))

		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Stop(closeCtx)
	})
	if err := g.Wait(); err != nil {
		log.Error("server", zap.Error(err))
	}
	log.Info("Graceful shutdown finished")
}
