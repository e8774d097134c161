package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/shirou/gopsutil/process"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the gRPC health service reported by HealthReporter.
const ServiceName = "chatvault.v1.MessageService"

// HealthReporter logs the daemon's own CPU, memory and store size on every
// tick and keeps the gRPC health status in line with the store state.
type HealthReporter struct {
	log      *slog.Logger
	db       *badger.DB
	health   *health.Server
	interval time.Duration
}

func NewHealthReporter(log *slog.Logger, db *badger.DB, health *health.Server, interval time.Duration) *HealthReporter {
	return &HealthReporter{log: log, db: db, health: health, interval: interval}
}

func (w *HealthReporter) Run(ctx context.Context) error {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.report(ctx, p)
		select {
		case <-ctx.Done():
			w.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *HealthReporter) report(ctx context.Context, p *process.Process) {
	if w.db.IsClosed() {
		w.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
		w.log.Error("Store is closed")
		return
	}
	w.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	lsm, vlog := w.db.Size()
	attrs := []any{"lsm_bytes", lsm, "vlog_bytes", vlog}
	if cpu, err := p.CPUPercentWithContext(ctx); err == nil {
		attrs = append(attrs, "cpu_percent", cpu)
	}
	if mem, err := p.MemoryInfoWithContext(ctx); err == nil {
		attrs = append(attrs, "rss_bytes", mem.RSS)
	}
	w.log.Debug("Health report", attrs...)
}
