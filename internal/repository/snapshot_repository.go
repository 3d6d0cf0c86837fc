package repository

import (
	"context"

	"metior/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/trace"
)

const createBenchmarksTable = `
CREATE TABLE IF NOT EXISTS benchmarks (
    date        TEXT             NOT NULL,
    symbol      TEXT             NOT NULL,
    mc_usd      DOUBLE PRECISION NOT NULL,
    weight      DOUBLE PRECISION NOT NULL,
    m_world_usd DOUBLE PRECISION NOT NULL,
    meo_usd     DOUBLE PRECISION NOT NULL,
    PRIMARY KEY (date, symbol)
);

CREATE INDEX IF NOT EXISTS idx_benchmarks_date
    ON benchmarks (date DESC);
`

type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type SnapshotRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewSnapshotRepository(pool PgxPool, tracer trace.Tracer) *SnapshotRepository {
	return &SnapshotRepository{pool: pool, tracer: tracer}
}

func (r *SnapshotRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "snapshot-repo.run-migrations")
	defer span.End()

	_, err := r.pool.Exec(ctx, createBenchmarksTable)
	return err
}

// UpsertSnapshot replaces the persisted rows for the snapshot's date. Rows
// from a previous run that are no longer in the basket are removed so the
// stored weights always sum to one per date.
func (r *SnapshotRepository) UpsertSnapshot(ctx context.Context, snapshot *domain.Snapshot) error {
	if snapshot == nil || len(snapshot.Components) == 0 {
		return nil
	}

	_, span := r.tracer.Start(ctx, "snapshot-repo.upsert-snapshot")
	defer span.End()

	batch := &pgx.Batch{}
	batch.Queue(`DELETE FROM benchmarks WHERE date = $1`, snapshot.Date)
	for _, c := range snapshot.Components {
		batch.Queue(
			`INSERT INTO benchmarks (date, symbol, mc_usd, weight, m_world_usd, meo_usd)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (date, symbol) DO UPDATE SET
			     mc_usd = EXCLUDED.mc_usd,
			     weight = EXCLUDED.weight,
			     m_world_usd = EXCLUDED.m_world_usd,
			     meo_usd = EXCLUDED.meo_usd`,
			snapshot.Date, c.Symbol, c.MarketCapUSD, c.Weight, snapshot.WorldTotalUSD, snapshot.UnitPriceUSD,
		)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < len(snapshot.Components)+1; i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func (r *SnapshotRepository) GetSnapshot(ctx context.Context, date string) (*domain.Snapshot, error) {
	_, span := r.tracer.Start(ctx, "snapshot-repo.get-snapshot")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT symbol, mc_usd, weight, m_world_usd, meo_usd
		 FROM benchmarks
		 WHERE date = $1
		 ORDER BY weight DESC, symbol`,
		date,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snapshot := &domain.Snapshot{Date: date}
	for rows.Next() {
		var c domain.Component
		if err := rows.Scan(&c.Symbol, &c.MarketCapUSD, &c.Weight, &snapshot.WorldTotalUSD, &snapshot.UnitPriceUSD); err != nil {
			return nil, err
		}
		snapshot.Components = append(snapshot.Components, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(snapshot.Components) == 0 {
		return nil, pgx.ErrNoRows
	}
	return snapshot, nil
}

func (r *SnapshotRepository) LatestDate(ctx context.Context) (string, error) {
	_, span := r.tracer.Start(ctx, "snapshot-repo.latest-date")
	defer span.End()

	// COALESCE keeps the scan happy on an empty table; "" sorts before
	// any real date.
	var date string
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(MAX(date), '') FROM benchmarks`).Scan(&date)
	return date, err
}

func (r *SnapshotRepository) Dates(ctx context.Context) ([]string, error) {
	_, span := r.tracer.Start(ctx, "snapshot-repo.dates")
	defer span.End()

	rows, err := r.pool.Query(ctx, `SELECT DISTINCT date FROM benchmarks ORDER BY date DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}
