package poller

import (
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// ProcessHealth describes the console process itself.
type ProcessHealth struct {
	Status        string  `json:"status"`
	PID           int32   `json:"pid"`
	Goroutines    int     `json:"goroutines"`
	UptimeSeconds int64   `json:"uptime_seconds"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryMB      float64 `json:"memory_mb"`
	MemoryPercent float64 `json:"memory_percent"`
}

func collectProcessHealth(startTime time.Time) ProcessHealth {
	pid := int32(os.Getpid())
	health := ProcessHealth{
		Status:        "healthy",
		PID:           pid,
		Goroutines:    runtime.NumGoroutine(),
		UptimeSeconds: int64(time.Since(startTime).Seconds()),
	}

	proc, err := process.NewProcess(pid)
	if err != nil {
		return health
	}
	if cpu, err := proc.CPUPercent(); err == nil {
		health.CPUPercent = cpu
	}
	if mem, err := proc.MemoryInfo(); err == nil {
		health.MemoryMB = float64(mem.RSS) / (1024 * 1024)
	}
	if memPct, err := proc.MemoryPercent(); err == nil {
		health.MemoryPercent = float64(memPct)
	}

	if health.MemoryPercent > 90 || health.CPUPercent > 90 {
		health.Status = "degraded"
	}
	return health
}
