package job

import (
	"context"
	"log"
	"time"

	"metior/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

// SnapshotRebuilder is the slice of the snapshot service the poller needs.
type SnapshotRebuilder interface {
	BuildLive(ctx context.Context) (*domain.Snapshot, error)
}

// SnapshotPoller rebuilds the live snapshot on a fixed interval so the
// cached basket never drifts far behind the sources. Money supply series
// update monthly and FX daily, so the default interval is hours, not
// seconds.
type SnapshotPoller struct {
	tracer       trace.Tracer
	rebuilder    SnapshotRebuilder
	pollInterval time.Duration
}

func NewSnapshotPoller(tracer trace.Tracer, rebuilder SnapshotRebuilder, pollIntervalSecs int) *SnapshotPoller {
	return &SnapshotPoller{
		tracer:       tracer,
		rebuilder:    rebuilder,
		pollInterval: time.Duration(pollIntervalSecs) * time.Second,
	}
}

// Start launches the polling goroutine. Blocks until ctx is cancelled.
func (p *SnapshotPoller) Start(ctx context.Context) {
	log.Println("Snapshot poller starting...")

	go p.pollLoop(ctx)

	<-ctx.Done()
	log.Println("Snapshot poller stopped")
}

func (p *SnapshotPoller) pollLoop(ctx context.Context) {
	// Run immediately on start
	p.rebuild(ctx)

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.rebuild(ctx)
		}
	}
}

func (p *SnapshotPoller) rebuild(ctx context.Context) {
	ctx, span := p.tracer.Start(ctx, "snapshot-poller.rebuild")
	defer span.End()

	if _, err := p.rebuilder.BuildLive(ctx); err != nil {
		log.Printf("snapshot rebuild error: %v", err)
	}
}
