package main

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"metior/internal/aggregator"
	"metior/internal/bot"
	"metior/internal/config"
	"metior/internal/domain"
	"metior/internal/job"
	"metior/internal/service"

	"github.com/gin-gonic/gin"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestMainBootstrap(t *testing.T) {
	gin.SetMode(gin.TestMode)
	restore := stubServerDeps()
	defer restore()

	done := make(chan struct{})
	go func() {
		main()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("main did not exit")
	}
}

func stubServerDeps() func() {
	origLoadEnv := loadEnvFunc
	origLoadConfig := loadConfigFunc
	origInitPostgres := initPostgresFunc
	origInitRedis := initRedisFunc
	origInitTracer := initTracerFunc
	origNewAggregator := newAggregatorFunc
	origStartPoller := startPollerFunc
	origStartTelegram := startTelegramBotFunc
	origNewRouter := newRouterFunc
	origSetupSignal := setupSignalNotify
	origWait := waitForSignalFunc
	origStartHTTP := startHTTPServerFunc
	origShutdownHTTP := shutdownHTTPServerFunc

	loadEnvFunc = func(...string) error { return nil }
	loadConfigFunc = func() *config.Config {
		return &config.Config{Port: "8080", SnapshotPollSecs: 3600}
	}
	initPostgresFunc = func(context.Context, string) {}
	initRedisFunc = func(context.Context, string) {}
	initTracerFunc = func(ctx context.Context) (*sdktrace.TracerProvider, trace.Tracer, error) {
		tp := sdktrace.NewTracerProvider()
		return tp, tp.Tracer("test"), nil
	}
	newAggregatorFunc = func(*config.Config, trace.Tracer) service.LiveBuilder { return stubBuilder{} }
	startPollerFunc = func(*job.SnapshotPoller, context.Context) {}
	startTelegramBotFunc = func(string, bot.SnapshotSource) {}
	newRouterFunc = func(...gin.OptionFunc) *gin.Engine { return gin.New() }
	setupSignalNotify = func(c chan<- os.Signal, sig ...os.Signal) {}
	waitForSignalFunc = func(<-chan os.Signal) {}
	startHTTPServerFunc = func(*http.Server) error { return http.ErrServerClosed }
	shutdownHTTPServerFunc = func(*http.Server, context.Context) error { return nil }

	return func() {
		loadEnvFunc = origLoadEnv
		loadConfigFunc = origLoadConfig
		initPostgresFunc = origInitPostgres
		initRedisFunc = origInitRedis
		initTracerFunc = origInitTracer
		newAggregatorFunc = origNewAggregator
		startPollerFunc = origStartPoller
		startTelegramBotFunc = origStartTelegram
		newRouterFunc = origNewRouter
		setupSignalNotify = origSetupSignal
		waitForSignalFunc = origWait
		startHTTPServerFunc = origStartHTTP
		shutdownHTTPServerFunc = origShutdownHTTP
	}
}

type stubBuilder struct{}

func (stubBuilder) BuildLive(ctx context.Context) (aggregator.BuildResult, error) {
	return aggregator.BuildResult{
		Input: domain.RawSnapshotInput{
			Date: "2026-08-30",
			Components: []domain.RawComponent{
				{Symbol: "XAU", MarketCapUSD: 1e12, CapPresent: true},
			},
		},
	}, nil
}
