package system

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorkers(t *testing.T) {
	assert.Equal(t, 3, Workers(3))
	assert.GreaterOrEqual(t, Workers(0), 1)
	assert.GreaterOrEqual(t, DefaultWorkers(), 1)
}

func TestCollectStats(t *testing.T) {
	s, err := CollectStats()
	if err != nil {
		t.Logf("partial stats: %v", err)
	}
	assert.Greater(t, s.Goroutines, 0)
}

func TestPrintReport(t *testing.T) {
	var buf bytes.Buffer
	PrintReport(&buf, "dev", HostStats{LogicalCPUs: 8, MemTotal: 16 << 30, MemUsedPct: 42.5, ProcessRSS: 64 << 20}, 2, 61)

	out := buf.String()
	assert.Contains(t, out, "PERFORMANCE REPORT")
	assert.Contains(t, out, "Build: dev")
	assert.Contains(t, out, "Frames: 61 (30.5/s)")
	assert.Contains(t, out, "42.5% of 16384 MiB")
	assert.Contains(t, out, "Process RSS: 64 MiB")
}
