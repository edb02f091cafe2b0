package main

import (
	"context"
	"fmt"
	stdlog "log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectoinject/ectocontainer"
	"github.com/Gobusters/ectologger"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/Ramsey-B/clover/config"
	"github.com/Ramsey-B/clover/internal/database"
	appmiddleware "github.com/Ramsey-B/clover/internal/middleware"
	leaderrepo "github.com/Ramsey-B/clover/internal/repositories/leader"
	outcomerepo "github.com/Ramsey-B/clover/internal/repositories/outcome"
	stationrepo "github.com/Ramsey-B/clover/internal/repositories/pollingstation"
	"github.com/Ramsey-B/clover/internal/tracing"
	"github.com/Ramsey-B/clover/pkg/dedupe"
	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/matching"
	"github.com/Ramsey-B/clover/pkg/report"
	healthroutes "github.com/Ramsey-B/clover/pkg/routes/health"
	outcomeroutes "github.com/Ramsey-B/clover/pkg/routes/outcome"
	runroutes "github.com/Ramsey-B/clover/pkg/routes/run"
	"github.com/Ramsey-B/clover/pkg/runner"
)

const version = "1.0.0"

func main() {
	_ = godotenv.Load()

	cfg := &config.Config{}
	if err := ectoenv.BindEnv(cfg); err != nil {
		stdlog.Fatalf("failed to bind config: %v", err)
	}

	zlog := newZapLogger(cfg)
	defer zlog.Sync()
	logger := ectologger.NewEctoLogger(func(msg ectologger.EctoLogMessage) {
		writeToZap(zlog, msg)
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	tracing.SetTracer(tp.Tracer(cfg.AppName))
	defer tp.Shutdown(context.Background())

	db, sqlxDB, err := database.Connect(ctx, database.Config{
		Driver:          cfg.DatabaseDriver,
		Host:            cfg.DatabaseHost,
		Port:            cfg.DatabasePort,
		UserName:        cfg.DatabaseUserName,
		Password:        cfg.DatabasePassword,
		Name:            cfg.DatabaseName,
		SSLMode:         cfg.DatabaseSSLMode,
		MaxOpenConns:    cfg.DatabaseMaxOpenConns,
		MaxIdleConns:    cfg.DatabaseMaxIdleConns,
		ConnMaxLifetime: cfg.DatabaseConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to database")
		stdlog.Fatal(err)
	}
	defer db.Close()

	migrations := database.NewMigrationService(logger, database.MigrationConfig{
		MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
		DatabaseName:        cfg.DatabaseName,
	})
	if err := migrations.Migrate(sqlxDB); err != nil {
		logger.WithError(err).Error("Failed to run migrations")
		stdlog.Fatal(err)
	}

	leaderRepo := leaderrepo.NewRepository(db, logger)
	stationRepo := stationrepo.NewRepository(db, logger)
	outcomeRepo := outcomerepo.NewRepository(db, logger)

	var producer *kafka.Producer
	if cfg.KafkaEnabled {
		producer = kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      cfg.KafkaBrokers,
			Topic:        cfg.KafkaOutputTopic,
			BatchSize:    cfg.KafkaBatchSize,
			BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
			RequiredAcks: cfg.KafkaRequiredAcks,
			Compression:  cfg.KafkaCompression,
		}, logger)
		defer producer.Close()
	}
	emitter := events.NewEmitter(producer, logger)

	engineCfg := matching.DefaultConfig()
	engineCfg.Threshold = cfg.MatchThreshold
	if localities := nonEmpty(cfg.ValidLocalities); len(localities) > 0 {
		engineCfg.ValidLocalities = localities
	}
	engine := matching.NewEngine(logger, engineCfg)
	detector := dedupe.NewDetector(logger)
	sink := report.NewFileSink(cfg.ReportDir, logger)

	batchRunner := runner.New(
		logger,
		leaderRepo,
		stationRepo,
		outcomeRepo,
		sink,
		engine,
		detector,
		emitter,
		runner.Config{ApplyUpdates: cfg.ApplyUpdates},
	)

	container, err := ectoinject.NewDIDefaultContainer()
	if err != nil {
		logger.WithError(err).Error("Failed to create DI container")
		stdlog.Fatal(err)
	}
	if err := registerDependencies(container, logger, leaderRepo, outcomeRepo, batchRunner); err != nil {
		logger.WithError(err).Error("Failed to register dependencies")
		stdlog.Fatal(err)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(appmiddleware.Container(container))
	e.Use(appmiddleware.Context())
	e.Use(appmiddleware.Logger(logger))
	e.HTTPErrorHandler = appmiddleware.Error(logger)

	api := e.Group("/api/v1")
	runroutes.Register(api.Group("/reconciliation/runs"))
	outcomeroutes.Register(api.Group("/outcomes"))

	health := healthroutes.NewChecker(sqlxDB, version)
	health.RegisterRoutes(e)
	health.SetReady(true)

	e.Server.ReadTimeout = time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("Server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Failed to shut down cleanly")
	}
}

func registerDependencies(
	container ectocontainer.DIContainer,
	logger ectologger.Logger,
	leaderRepo *leaderrepo.Repository,
	outcomeRepo *outcomerepo.Repository,
	batchRunner *runner.Runner,
) error {
	if err := ectoinject.RegisterInstance[ectologger.Logger](container, logger); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*leaderrepo.Repository](container, leaderRepo); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*outcomerepo.Repository](container, outcomeRepo); err != nil {
		return err
	}
	return ectoinject.RegisterInstance[*runner.Runner](container, batchRunner)
}

func newZapLogger(cfg *config.Config) *zap.Logger {
	var zcfg zap.Config
	if cfg.PrettyLogs {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}
	if level, err := zap.ParseAtomicLevel(cfg.LogLevel); err == nil {
		zcfg.Level = level
	}
	zlog, err := zcfg.Build()
	if err != nil {
		stdlog.Fatalf("failed to build logger: %v", err)
	}
	return zlog
}

func writeToZap(zlog *zap.Logger, msg ectologger.EctoLogMessage) {
	fields := make([]zap.Field, 0, len(msg.Fields)+1)
	for k, v := range msg.Fields {
		fields = append(fields, zap.Any(k, v))
	}
	if msg.Err != nil {
		fields = append(fields, zap.Error(msg.Err))
	}

	switch strings.ToLower(string(msg.Level)) {
	case "debug":
		zlog.Debug(msg.Message, fields...)
	case "warn", "warning":
		zlog.Warn(msg.Message, fields...)
	case "error":
		zlog.Error(msg.Message, fields...)
	case "fatal":
		zlog.Fatal(msg.Message, fields...)
	default:
		zlog.Info(msg.Message, fields...)
	}
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
