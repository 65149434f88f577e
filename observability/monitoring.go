// Package observability exposes runtime statistics of the server
// process for the debug endpoint.
package observability

import (
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/process"
)

type Stats struct {
	AllocMemMb    uint64  `json:"alloc_mem_mb"`
	RSSMb         uint64  `json:"rss_mb"`
	NumGC         uint32  `json:"num_gc"`
	NumGoroutines int     `json:"num_goroutines"`
	CPUPercent    float64 `json:"cpu_percent"`
	UptimeSeconds int64   `json:"uptime_seconds"`
}

type Monitor struct {
	log     *slog.Logger
	proc    *process.Process
	started time.Time
}

func NewMonitor(log *slog.Logger) *Monitor {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		log.Warn("process metrics unavailable", "error", err)
	}
	return &Monitor{log: log, proc: proc, started: time.Now()}
}

// Snapshot gathers current runtime and OS-level metrics. OS metric
// failures degrade to zeros rather than failing the endpoint.
func (m *Monitor) Snapshot() Stats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	stats := Stats{
		AllocMemMb:    mem.Alloc / 1024 / 1024,
		NumGC:         mem.NumGC,
		NumGoroutines: runtime.NumGoroutine(),
		UptimeSeconds: int64(time.Since(m.started).Seconds()),
	}
	if m.proc != nil {
		if info, err := m.proc.MemoryInfo(); err == nil {
			stats.RSSMb = info.RSS / 1024 / 1024
		}
		if cpu, err := m.proc.CPUPercent(); err == nil {
			stats.CPUPercent = cpu
		}
	}
	return stats
}
