package main

import (
	"context"
	"log"
	"net"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"metior/internal/aggregator"
	"metior/internal/cache"
	"metior/internal/config"
	"metior/internal/db"
	"metior/internal/fetch"
	"metior/internal/provider"
	"metior/internal/repository"
	"metior/internal/service"
	"metior/internal/tui"
	"metior/pkg/tracing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"
	"github.com/joho/godotenv"
	gossh "golang.org/x/crypto/ssh"
	"go.opentelemetry.io/otel/trace"
)

var (
	loadEnvFunc         = godotenv.Load
	loadConfigFunc      = config.Load
	initPostgresFunc    = db.InitPostgres
	initRedisFunc       = cache.InitRedis
	initTracerFunc      = tracing.InitTracer
	newSnapshotRepoFunc = repository.NewSnapshotRepository
	newAggregatorFunc   = newAggregator
	newWishServerFunc   = wish.NewServer
	setupSignalNotify   = ossignal.Notify
	waitForSignalFunc   = func(quit <-chan os.Signal) { <-quit }
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

// allowFingerprint checks a client key against the configured allow-list.
// An empty list opens the read-only dashboard to any key.
func allowFingerprint(allowed []string, fingerprint string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, fp := range allowed {
		if fp == fingerprint {
			return true
		}
	}
	return false
}

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
		store = newSnapshotRepoFunc(db.Pool, tracer)
	}

	builder := newAggregatorFunc(cfg, tracer)
	snapshotService := service.NewSnapshotService(tracer, builder, store, cache.Client)

	if len(cfg.SSHAllowedKeys) == 0 {
		log.Println("Warning: SSH_ALLOWED_KEYS not set, accepting any public key")
	}

	addr := net.JoinHostPort(cfg.SSHHost, cfg.SSHPort)

	srv, err := newWishServerFunc(
		wish.WithAddress(addr),
		wish.WithHostKeyPath(cfg.SSHHostKeyPath),
		wish.WithPublicKeyAuth(func(ctx ssh.Context, key ssh.PublicKey) bool {
			fingerprint := gossh.FingerprintSHA256(key)
			if !allowFingerprint(cfg.SSHAllowedKeys, fingerprint) {
				log.Printf("SSH auth denied: fingerprint=%s", fingerprint)
				return false
			}
			log.Printf("SSH auth accepted: user=%s fingerprint=%s", ctx.User(), fingerprint)
			return true
		}),
		wish.WithIdleTimeout(time.Duration(cfg.SSHIdleTimeoutSecs)*time.Second),
		wish.WithMiddleware(
			bubbletea.Middleware(func(s ssh.Session) (tea.Model, []tea.ProgramOption) {
				model := tui.NewAppModel(snapshotService)
				pty, _, _ := s.Pty()
				model.SetSize(pty.Window.Width, pty.Window.Height)

				return model, []tea.ProgramOption{tea.WithAltScreen()}
			}),
			logging.Middleware(),
		),
	)
	if err != nil {
		log.Fatalf("failed to create SSH server: %v", err)
	}

	if srv != nil {
		go func() {
			log.Printf("SSH server listening on %s", addr)
			if err := srv.ListenAndServe(); err != nil {
				log.Printf("SSH server stopped: %v", err)
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down SSH server...")

	cancel()

	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("SSH server shutdown error: %v", err)
		}
	}

	db.Close()
	log.Println("SSH server exited")
}
