package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/gvitanovic/cqrs/projection"
	"github.com/shirou/gopsutil/process"
)

// ReporterWorker periodically logs how far the projection has got,
// along with the memory and CPU of the current process.
type ReporterWorker struct {
	log       *slog.Logger
	orders    *projection.Orders
	projector *Projector
	interval  time.Duration
}

func NewReporterWorker(log *slog.Logger, orders *projection.Orders, projector *Projector, interval time.Duration) *ReporterWorker {
	return &ReporterWorker{log: log, orders: orders, projector: projector, interval: interval}
}

// Run starts the reporting loop until context cancellation
func (w *ReporterWorker) Run(ctx context.Context) error {
	startTime := time.Now()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	self, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		w.log.Warn("Process stats unavailable", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			w.printStats(startTime, self)
			return nil
		case <-ticker.C:
			w.printStats(startTime, self)
		}
	}
}

func (w *ReporterWorker) printStats(startTime time.Time, self *process.Process) {
	size, err := w.orders.Len()
	if err != nil {
		w.log.Warn("Unable to read projection size", "error", err)
	}
	attrs := []any{
		"uptime", time.Since(startTime).Round(time.Second).String(),
		"state", w.projector.State(),
		"applied", w.orders.Applied(),
		"skipped", w.orders.Skipped(),
		"orders", size,
	}
	if rss, cpu, err := selfStats(self); err == nil {
		attrs = append(attrs, "rss_mb", rss/1024/1024, "cpu_percent", cpu)
	}
	w.log.Info("Projection stats", attrs...)
}

// selfStats retrieves resident memory and CPU usage of p.
func selfStats(p *process.Process) (uint64, float64, error) {
	if p == nil {
		return 0, 0, os.ErrInvalid
	}
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, err
	}
	return memInfo.RSS, cpuPercent, nil
}
