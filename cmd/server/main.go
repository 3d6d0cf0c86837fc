package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"metior/internal/aggregator"
	"metior/internal/bot"
	"metior/internal/cache"
	"metior/internal/config"
	"metior/internal/db"
	"metior/internal/fetch"
	"metior/internal/handler"
	"metior/internal/job"
	"metior/internal/provider"
	"metior/internal/repository"
	"metior/internal/service"
	"metior/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	_ "metior/docs"
)

var (
	loadEnvFunc            = godotenv.Load
	loadConfigFunc         = config.Load
	initPostgresFunc       = db.InitPostgres
	initRedisFunc          = cache.InitRedis
	initTracerFunc         = tracing.InitTracer
	newSnapshotRepoFunc    = repository.NewSnapshotRepository
	newAggregatorFunc      = newAggregator
	newPollerFunc          = job.NewSnapshotPoller
	startPollerFunc        = func(p *job.SnapshotPoller, ctx context.Context) { go p.Start(ctx) }
	startTelegramBotFunc   = bot.StartTelegramBot
	newHandlerFunc         = handler.New
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

func newAggregator(cfg *config.Config, tracer trace.Tracer) service.LiveBuilder {
	fetcher := fetch.New()
	fred := provider.NewFREDProvider(fetcher, cfg.FREDAPIKey, tracer)
	frankfurter := provider.NewFrankfurterProvider(fetcher, tracer)
	goldAPI := provider.NewGoldAPIProvider(fetcher, tracer)
	stooq := provider.NewStooqProvider(fetcher, tracer)
	coinGecko := provider.NewCoinGeckoProvider(fetcher, tracer)
	return aggregator.New(tracer, fred, fred, frankfurter, goldAPI, stooq, coinGecko)
}

// @title           Metior API
// @version         1.0
// @description     World market basket benchmark: normalized weights and the MEO unit price.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	initPostgresFunc(ctx, cfg.DatabaseURL)
	initRedisFunc(ctx, cfg.RedisURL)

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	var store service.SnapshotStore
	if db.Pool != nil {
		repo := newSnapshotRepoFunc(db.Pool, tracer)
		if err := repo.RunMigrations(ctx); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
		store = repo
	}

	builder := newAggregatorFunc(cfg, tracer)
	snapshotService := service.NewSnapshotService(tracer, builder, store, cache.Client)

	poller := newPollerFunc(tracer, snapshotService, cfg.SnapshotPollSecs)
	startPollerFunc(poller, ctx)

	startTelegramBotFunc(cfg.TelegramBotToken, snapshotService)

	h := newHandlerFunc(tracer, snapshotService, cfg.APIKey)

	r := newRouterFunc()
	r.Use(otelgin.Middleware("metior"))

	h.RegisterRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	db.Close()
	log.Println("Server exiting")
}
