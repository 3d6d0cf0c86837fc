package main

import (
	"context"
	"os"
	"testing"
	"time"

	"metior/internal/aggregator"
	"metior/internal/config"
	"metior/internal/domain"
	"metior/internal/service"

	"github.com/charmbracelet/ssh"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestMainBootstrap(t *testing.T) {
	restore := stubSSHDeps()
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

func TestAllowFingerprint(t *testing.T) {
	if !allowFingerprint(nil, "SHA256:abc") {
		t.Fatal("empty allow-list should accept any key")
	}
	allowed := []string{"SHA256:abc", "SHA256:def"}
	if !allowFingerprint(allowed, "SHA256:def") {
		t.Fatal("listed fingerprint should be accepted")
	}
	if allowFingerprint(allowed, "SHA256:xyz") {
		t.Fatal("unlisted fingerprint should be denied")
	}
}

func stubSSHDeps() func() {
	origLoadEnv := loadEnvFunc
	origLoadConfig := loadConfigFunc
	origInitPostgres := initPostgresFunc
	origInitRedis := initRedisFunc
	origInitTracer := initTracerFunc
	origNewAggregator := newAggregatorFunc
	origNewWishServer := newWishServerFunc
	origSetupSignal := setupSignalNotify
	origWait := waitForSignalFunc

	loadEnvFunc = func(...string) error { return nil }
	loadConfigFunc = func() *config.Config {
		return &config.Config{
			SSHHost:        "127.0.0.1",
			SSHPort:        "2222",
			SSHHostKeyPath: ".ssh/test_key",
		}
	}
	initPostgresFunc = func(context.Context, string) {}
	initRedisFunc = func(context.Context, string) {}
	initTracerFunc = func(ctx context.Context) (*sdktrace.TracerProvider, trace.Tracer, error) {
		tp := sdktrace.NewTracerProvider()
		return tp, tp.Tracer("test"), nil
	}
	newAggregatorFunc = func(*config.Config, trace.Tracer) service.LiveBuilder { return stubBuilder{} }
	newWishServerFunc = func(ops ...ssh.Option) (*ssh.Server, error) {
		return nil, nil
	}
	setupSignalNotify = func(c chan<- os.Signal, sig ...os.Signal) {}
	waitForSignalFunc = func(<-chan os.Signal) {}

	return func() {
		loadEnvFunc = origLoadEnv
		loadConfigFunc = origLoadConfig
		initPostgresFunc = origInitPostgres
		initRedisFunc = origInitRedis
		initTracerFunc = origInitTracer
		newAggregatorFunc = origNewAggregator
		newWishServerFunc = origNewWishServer
		setupSignalNotify = origSetupSignal
		waitForSignalFunc = origWait
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
