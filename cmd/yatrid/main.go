package main

import (
	"context"
	"flag"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/nesafe/yatri/internal/config"
	"github.com/nesafe/yatri/internal/infrastructure/database"
	"github.com/nesafe/yatri/internal/infrastructure/providers"
	"github.com/nesafe/yatri/internal/present/rest"
	"github.com/nesafe/yatri/internal/service"
	"github.com/nesafe/yatri/internal/usecase"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	conf, err := config.Load(*configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	ctx := context.Background()

	if conf.Server.EnableTrace {
		shutdown, err := setupTracer(ctx, conf.Server.TraceEndpoint)
		if err != nil {
			panic("failed to set up tracing: " + err.Error())
		}
		defer shutdown(ctx)
	}

	if conf.Server.PostgresDsn != "" {
		db, err := providers.NewDatabase(conf.Server)
		if err != nil {
			panic("failed to connect database")
		}
		if err := providers.MigrateDatabase(db); err != nil {
			panic("failed to migrate database")
		}
		run(conf, providers.NewIssuanceLog(conf, db))
		return
	}

	slog.Info("no postgres DSN configured, using in-memory issuance log",
		slog.String("module", "main"),
	)
	run(conf, providers.NewIssuanceLog(conf, nil))
}

func run(conf config.Config, log usecase.IssuanceLog) {

	var signal *service.SignalService
	if conf.Server.RedisAddr != "" {
		rdb := database.NewRedis(conf.Server.RedisAddr, "", conf.Server.RedisDB)
		signal = service.NewSignalService(rdb)
	}

	var encoder *service.CredentialService
	if conf.Server.MemcachedAddr != "" {
		encoder = service.NewCredentialService(conf.Issuer.VerifyBaseURL, providers.NewMemcache(conf.Server.MemcachedAddr))
	} else {
		encoder = service.NewCredentialService(conf.Issuer.VerifyBaseURL, nil)
	}

	var publisher usecase.EventPublisher
	if signal != nil {
		publisher = signal
	}

	registration := usecase.NewRegistrationUsecase(log, encoder, publisher, conf.Issuer.IssueTimeoutDuration)
	verification := usecase.NewVerificationUsecase(log)

	handler := rest.NewHandler(conf.Issuer, registration, verification, signal)

	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	if conf.Server.EnableTrace {
		e.Use(otelecho.Middleware("yatrid"))
	}

	handler.RegisterRoutes(e)

	e.Logger.Fatal(e.Start(conf.Server.Listen))
}

func setupTracer(ctx context.Context, endpoint string) (func(context.Context) error, error) {
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(endpoint),
	)
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName("yatrid"),
		)),
	)
	otel.SetTracerProvider(provider)

	return provider.Shutdown, nil
}
