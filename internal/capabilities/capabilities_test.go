package capabilities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetermineTierJetsonAlwaysFull(t *testing.T) {
	assert.Equal(t, Full, determineTier(1<<30, false, true))
}

func TestDetermineTierHighRAMGPU(t *testing.T) {
	assert.Equal(t, Full, determineTier(8<<30, true, false))
}

func TestDetermineTierModestGPU(t *testing.T) {
	assert.Equal(t, Advanced, determineTier(5<<30, true, false))
}

func TestDetermineTierNoGPUButEnoughRAM(t *testing.T) {
	assert.Equal(t, Enhanced, determineTier(3<<30, false, false))
}

func TestDetermineTierLowRAM(t *testing.T) {
	assert.Equal(t, Base, determineTier(1<<30, false, false))
}

func TestTierStringRoundTrip(t *testing.T) {
	assert.Equal(t, "base", Base.String())
	assert.Equal(t, "enhanced", Enhanced.String())
	assert.Equal(t, "advanced", Advanced.String())
	assert.Equal(t, "full", Full.String())
}

func TestDiscoverReturnsAtLeastOneCPUCore(t *testing.T) {
	d := Discover()
	assert.GreaterOrEqual(t, d.CPUCores, 1)
}

func TestParseMeminfoField(t *testing.T) {
	meminfo := "MemTotal:       16384000 kB\nMemFree:        1000 kB\nMemAvailable:   8000000 kB\n"
	assert.Equal(t, uint64(16384000*1024), parseMeminfoField(meminfo, "MemTotal:"))
	assert.Equal(t, uint64(8000000*1024), parseMeminfoField(meminfo, "MemAvailable:"))
	assert.Equal(t, uint64(0), parseMeminfoField(meminfo, "Missing:"))
}
