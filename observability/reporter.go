package observability

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/process"

	"chatline/contract"
)

var _ contract.Worker = (*Reporter)(nil)

// Reporter periodically logs process-level health metrics (RSS, CPU, OS
// status, goroutine count). It is a read-only observer: losing a sample is
// never worth blocking the chat path.
type Reporter struct {
	log      *slog.Logger
	interval time.Duration
}

func NewReporter(log *slog.Logger, interval time.Duration) *Reporter {
	return &Reporter{log: log, interval: interval}
}

func (r *Reporter) Run(ctx context.Context) error {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			rss, cpu, status, err := getSelfStats(p)
			if err != nil {
				r.log.Error("Failed to collect self stats", "err", err)
				continue
			}
			r.log.Info("Health report",
				"pid", os.Getpid(),
				"status", status,
				"cpu_percent", cpu,
				"ram_bytes", rss,
				"goroutines", runtime.NumGoroutine(),
			)
		}
	}
}

// getSelfStats retrieves technical metrics (Memory, CPU, and OS Status) for the given process.
func getSelfStats(p *process.Process) (uint64, float64, string, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, "", err
	}

	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, "", err
	}

	status, err := p.Status()
	if err != nil {
		return 0, 0, "", err
	}
	return memInfo.RSS, cpuPercent, status, nil
}
