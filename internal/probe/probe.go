package probe

import (
	"time"

	gopsproc "github.com/shirou/gopsutil/v4/process"
)

// Metrics holds the resource snapshot for a live process. Zero values mean
// the process was not alive at sampling time.
type Metrics struct {
	ResidentBytes uint64
	StartedAt     time.Time
	Uptime        time.Duration
}

// Probe answers liveness and resource questions about an arbitrary PID by
// querying the OS process table. A PID alone can name a recycled process,
// so AliveSince additionally compares the recorded start time.
type Probe struct{}

func New() Probe { return Probe{} }

// AliveSince reports whether pid names a running process that was started at
// startUnix (seconds). startUnix <= 0 skips the start-time comparison and
// degrades to a bare existence check.
func (p Probe) AliveSince(pid int, startUnix int64) bool {
	if !p.Alive(pid) {
		return false
	}
	if startUnix <= 0 {
		return true
	}
	cur := StartUnix(pid)
	// When the start time cannot be determined, fall back to the bare
	// existence answer rather than declaring a live process dead.
	return cur == 0 || cur == startUnix
}

// Metrics samples resident memory and uptime for pid. Dead or unreadable
// processes yield the zero Metrics.
func (p Probe) Metrics(pid int) Metrics {
	if !p.Alive(pid) {
		return Metrics{}
	}
	gp, err := gopsproc.NewProcess(int32(pid))
	if err != nil {
		return Metrics{}
	}
	var m Metrics
	if mem, err := gp.MemoryInfo(); err == nil && mem != nil {
		m.ResidentBytes = mem.RSS
	}
	if ms, err := gp.CreateTime(); err == nil && ms > 0 {
		m.StartedAt = time.UnixMilli(ms)
		m.Uptime = time.Since(m.StartedAt).Truncate(time.Second)
	}
	return m
}
