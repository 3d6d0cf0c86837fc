package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"metior/internal/aggregator"
	"metior/internal/domain"
	"metior/internal/numeraire"
	"metior/internal/staticdata"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

const (
	snapshotCacheTTL = time.Hour
	latestCacheKey   = "snapshot:latest"
)

// LiveBuilder assembles raw input from live data providers.
type LiveBuilder interface {
	BuildLive(ctx context.Context) (aggregator.BuildResult, error)
}

// SnapshotStore persists validated snapshots and serves the audit trail
// of past live builds.
type SnapshotStore interface {
	UpsertSnapshot(ctx context.Context, snapshot *domain.Snapshot) error
	GetSnapshot(ctx context.Context, date string) (*domain.Snapshot, error)
	LatestDate(ctx context.Context) (string, error)
	Dates(ctx context.Context) ([]string, error)
}

type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// SnapshotService orchestrates the two snapshot paths: bundled static data
// and live aggregation. Every snapshot it hands out has passed
// normalization; a rejected build surfaces the validation error instead of
// any numbers.
type SnapshotService struct {
	tracer  trace.Tracer
	builder LiveBuilder
	store   SnapshotStore
	redis   RedisClient

	loadStatic   func(date string) (domain.RawSnapshotInput, error)
	latestStatic func() (string, error)
}

func NewSnapshotService(tracer trace.Tracer, builder LiveBuilder, store SnapshotStore, redisClient RedisClient) *SnapshotService {
	return &SnapshotService{
		tracer:       tracer,
		builder:      builder,
		store:        store,
		redis:        redisClient,
		loadStatic:   staticdata.Load,
		latestStatic: staticdata.Latest,
	}
}

// GetByDate returns the snapshot for the given date: the validated
// bundled reference when one ships with the binary, otherwise a
// persisted live snapshot from the store.
func (s *SnapshotService) GetByDate(ctx context.Context, date string) (*domain.Snapshot, error) {
	_, span := s.tracer.Start(ctx, "snapshot-service.get-by-date")
	defer span.End()

	raw, err := s.loadStatic(date)
	if err == nil {
		return numeraire.Normalize(raw)
	}

	var missing *staticdata.ErrNoSnapshot
	if errors.As(err, &missing) && s.store != nil {
		snap, storeErr := s.store.GetSnapshot(ctx, date)
		if storeErr == nil {
			return snap, nil
		}
		if !errors.Is(storeErr, pgx.ErrNoRows) {
			log.Printf("persisted snapshot read error for %s: %v", date, storeErr)
		}
	}
	return nil, err
}

// GetLatest returns the most recent snapshot: the cached one if fresh,
// then the newest persisted live build if it postdates the bundled
// references, otherwise the newest bundled reference.
func (s *SnapshotService) GetLatest(ctx context.Context) (*domain.Snapshot, error) {
	_, span := s.tracer.Start(ctx, "snapshot-service.get-latest")
	defer span.End()

	if s.redis != nil {
		cached, err := s.getCache(ctx)
		if err != nil {
			log.Printf("redis cache read error: %v", err)
		}
		if cached != nil {
			return cached, nil
		}
	}

	date, err := s.latestStatic()
	if err != nil {
		return nil, err
	}

	if s.store != nil {
		persisted, storeErr := s.store.LatestDate(ctx)
		if storeErr != nil {
			log.Printf("persisted latest-date read error: %v", storeErr)
		} else if persisted > date {
			snap, getErr := s.store.GetSnapshot(ctx, persisted)
			if getErr == nil {
				if s.redis != nil {
					_ = s.setCache(ctx, snap)
				}
				return snap, nil
			}
			log.Printf("persisted snapshot read error for %s: %v", persisted, getErr)
		}
	}

	snap, err := s.GetByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	if s.redis != nil {
		_ = s.setCache(ctx, snap)
	}
	return snap, nil
}

// BuildLive assembles, validates, caches, and persists a fresh live
// snapshot. Source failures that only shrank the basket are logged; a
// snapshot that fails validation is never stored or cached.
func (s *SnapshotService) BuildLive(ctx context.Context) (*domain.Snapshot, error) {
	_, span := s.tracer.Start(ctx, "snapshot-service.build-live")
	defer span.End()

	if s.builder == nil {
		return nil, fmt.Errorf("live aggregation is not configured")
	}

	result, err := s.builder.BuildLive(ctx)
	if err != nil {
		return nil, err
	}
	for _, msg := range result.Errors {
		log.Printf("live aggregation degraded: %s", msg)
	}

	snap, err := numeraire.Normalize(result.Input)
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		if err := s.setCache(ctx, snap); err != nil {
			log.Printf("redis cache write error: %v", err)
		}
	}
	if s.store != nil {
		if err := s.store.UpsertSnapshot(ctx, snap); err != nil {
			return nil, fmt.Errorf("persist snapshot %s: %w", snap.Date, err)
		}
	}

	log.Printf("Built live snapshot %s: %d components, M_world=%.4g USD", snap.Date, len(snap.Components), snap.WorldTotalUSD)
	return snap, nil
}

// Dates lists every known snapshot date, bundled and persisted, newest
// first.
func (s *SnapshotService) Dates(ctx context.Context) []string {
	dates := staticdata.Dates()
	if s.store == nil {
		return dates
	}
	persisted, err := s.store.Dates(ctx)
	if err != nil {
		log.Printf("persisted dates read error: %v", err)
		return dates
	}
	seen := make(map[string]bool, len(dates))
	for _, d := range dates {
		seen[d] = true
	}
	for _, d := range persisted {
		if !seen[d] {
			dates = append(dates, d)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates
}

func (s *SnapshotService) setCache(ctx context.Context, snap *domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, latestCacheKey, data, snapshotCacheTTL).Err()
}

func (s *SnapshotService) getCache(ctx context.Context) (*domain.Snapshot, error) {
	data, err := s.redis.Get(ctx, latestCacheKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}
