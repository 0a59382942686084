package local

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/procfs"

	"github.com/heyong4725/dora-tui/src/mapping"
	"github.com/heyong4725/dora-tui/src/protocol"
	"github.com/heyong4725/dora-tui/src/provider"
)

// DefaultCPUWindow is how long the first sample waits to measure CPU usage.
const DefaultCPUWindow = 200 * time.Millisecond

// cpuTimes are cumulative CPU seconds across all cores.
type cpuTimes struct {
	idle  float64
	total float64
}

// Sampler reads host metrics from a procfs mount.
type Sampler struct {
	root      string
	cpuWindow time.Duration
	now       func() time.Time

	mu   sync.Mutex
	prev *cpuTimes
}

// NewSampler returns a Sampler reading from procRoot, or /proc if empty.
func NewSampler(procRoot string) *Sampler {
	if procRoot == "" {
		procRoot = procfs.DefaultMountPoint
	}
	return &Sampler{root: procRoot, cpuWindow: DefaultCPUWindow, now: time.Now}
}

// Sample takes one reading. CPU usage is measured since the previous call;
// the first call waits one CPU window to get a baseline.
func (s *Sampler) Sample(ctx context.Context) (protocol.SystemMetrics, error) {
	fs, err := procfs.NewFS(s.root)
	if err != nil {
		return protocol.SystemMetrics{}, fmt.Errorf("failed to open procfs: %w", err)
	}

	cpu, err := s.cpuPercent(ctx, fs)
	if err != nil {
		return protocol.SystemMetrics{}, err
	}

	meminfo, err := fs.Meminfo()
	if err != nil {
		return protocol.SystemMetrics{}, fmt.Errorf("failed to read memory stats: %w", err)
	}
	total, used, err := memoryUsage(meminfo)
	if err != nil {
		return protocol.SystemMetrics{}, err
	}

	var memPercent float32
	if total > 0 {
		memPercent = float32(float64(used) / float64(total) * 100)
	}

	snapshot := protocol.SystemMetrics{
		Timestamp:        s.now().UTC(),
		CPUPercent:       cpu,
		MemoryPercent:    memPercent,
		TotalMemoryBytes: total,
		UsedMemoryBytes:  used,
	}
	// Load average is optional; containers without it still report the rest.
	if load, err := fs.LoadAvg(); err == nil {
		snapshot.LoadAverage = &[3]float32{float32(load.Load1), float32(load.Load5), float32(load.Load15)}
	}
	return snapshot, nil
}

func (s *Sampler) cpuPercent(ctx context.Context, fs procfs.FS) (float32, error) {
	s.mu.Lock()
	prev := s.prev
	s.mu.Unlock()

	if prev == nil {
		first, err := readCPU(fs)
		if err != nil {
			return 0, err
		}
		timer := time.NewTimer(s.cpuWindow)
		select {
		case <-ctx.Done():
			timer.Stop()
			return 0, ctx.Err()
		case <-timer.C:
		}
		prev = &first
	}

	cur, err := readCPU(fs)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	s.prev = &cur
	s.mu.Unlock()

	return cpuUsage(*prev, cur), nil
}

func readCPU(fs procfs.FS) (cpuTimes, error) {
	stat, err := fs.Stat()
	if err != nil {
		return cpuTimes{}, fmt.Errorf("failed to read cpu stats: %w", err)
	}
	return cpuTimesOf(stat.CPUTotal), nil
}

// cpuTimesOf sums the aggregate cpu line. Guest time is already counted in
// user and nice.
func cpuTimesOf(c procfs.CPUStat) cpuTimes {
	idle := c.Idle + c.Iowait
	return cpuTimes{
		idle:  idle,
		total: c.User + c.Nice + c.System + idle + c.IRQ + c.SoftIRQ + c.Steal,
	}
}

func cpuUsage(prev, cur cpuTimes) float32 {
	totalDelta := cur.total - prev.total
	if totalDelta <= 0 {
		return 0
	}
	idleDelta := max(cur.idle-prev.idle, 0)
	busy := max(totalDelta-idleDelta, 0)
	return float32(busy / totalDelta * 100)
}

// memoryUsage returns total and used bytes. Used is total minus
// MemAvailable, falling back to MemFree on old kernels.
func memoryUsage(m procfs.Meminfo) (total, used uint64, err error) {
	if m.MemTotal == nil {
		return 0, 0, fmt.Errorf("MemTotal missing from meminfo")
	}
	var available uint64
	switch {
	case m.MemAvailable != nil:
		available = *m.MemAvailable
	case m.MemFree != nil:
		available = *m.MemFree
	}
	// meminfo values are in kB.
	total = *m.MemTotal * 1024
	return total, mapping.SaturatingSub(total, available*1024), nil
}

// Telemetry serves LatestMetrics from a Sampler.
type Telemetry struct {
	sampler *Sampler
}

var _ provider.TelemetryService = (*Telemetry)(nil)

// NewTelemetry returns a TelemetryService sampling this host.
func NewTelemetry(sampler *Sampler) *Telemetry {
	return &Telemetry{sampler: sampler}
}

func (t *Telemetry) LatestMetrics(ctx context.Context) (provider.SystemMetrics, error) {
	snapshot, err := t.sampler.Sample(ctx)
	if err != nil {
		return provider.SystemMetrics{}, provider.Errorf(err, "sampling system metrics: %v", err)
	}
	return mapping.Metrics(snapshot, t.sampler.now()), nil
}
