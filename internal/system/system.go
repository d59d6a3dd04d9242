package system

import (
	"fmt"
	"io"
	"log"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// DefaultWorkers returns the number of logical CPUs, falling back to the
// Go runtime's count when the host cannot be queried.
func DefaultWorkers() int {
	n, err := cpu.Counts(true)
	if err != nil || n < 1 {
		log.Printf("[!] Could not count CPUs, using runtime value: %v", err)
		return runtime.NumCPU()
	}
	return n
}

// Workers resolves a configured worker count, where 0 means automatic.
func Workers(configured int) int {
	if configured > 0 {
		return configured
	}
	return DefaultWorkers()
}

// HostStats is a snapshot of host and process resource use.
type HostStats struct {
	LogicalCPUs   int     `yaml:"logicalCpus" json:"logicalCpus"`
	MemTotal      uint64  `yaml:"memTotal" json:"memTotal"`
	MemUsedPct    float64 `yaml:"memUsedPct" json:"memUsedPct"`
	ProcessRSS    uint64  `yaml:"processRss" json:"processRss"`
	ProcessCPUPct float64 `yaml:"processCpuPct" json:"processCpuPct"`
	Goroutines    int     `yaml:"goroutines" json:"goroutines"`
}

// CollectStats gathers HostStats. Fields the host refuses to report are
// left at zero; the error lists what was missing.
func CollectStats() (HostStats, error) {
	stats := HostStats{Goroutines: runtime.NumGoroutine()}
	var firstErr error
	keep := func(err error) {
		if firstErr == nil {
			firstErr = err
		}
	}

	if n, err := cpu.Counts(true); err == nil {
		stats.LogicalCPUs = n
	} else {
		keep(fmt.Errorf("cpu count: %w", err))
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		stats.MemTotal = vm.Total
		stats.MemUsedPct = vm.UsedPercent
	} else {
		keep(fmt.Errorf("virtual memory: %w", err))
	}

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		keep(fmt.Errorf("process: %w", err))
		return stats, firstErr
	}
	if info, err := proc.MemoryInfo(); err == nil {
		stats.ProcessRSS = info.RSS
	} else {
		keep(fmt.Errorf("process memory: %w", err))
	}
	if pct, err := proc.CPUPercent(); err == nil {
		stats.ProcessCPUPct = pct
	} else {
		keep(fmt.Errorf("process cpu: %w", err))
	}
	return stats, firstErr
}

// PrintReport writes the performance report shown by -stats.
func PrintReport(w io.Writer, build string, s HostStats, elapsedSeconds float64, frames int) {
	fps := 0.0
	if elapsedSeconds > 0 {
		fps = float64(frames) / elapsedSeconds
	}
	fmt.Fprintf(w,
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Total Time: %.3fs\n"+
			"Frames: %d (%.1f/s)\n"+
			"CPUs: %d | Goroutines: %d\n"+
			"Host Memory: %.1f%% of %d MiB\n"+
			"Process RSS: %d MiB | CPU: %.1f%%\n"+
			"----------------------------\n",
		build, elapsedSeconds, frames, fps,
		s.LogicalCPUs, s.Goroutines,
		s.MemUsedPct, s.MemTotal>>20,
		s.ProcessRSS>>20, s.ProcessCPUPct,
	)
}
