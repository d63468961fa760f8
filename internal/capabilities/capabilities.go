// Package capabilities detects the hardware the server is running on and
// classifies it into one of four capability tiers, which gate which
// components of the pipeline (embeddings, reranking, consolidation) are
// enabled without the user ever setting a flag.
package capabilities

import (
	"os"
	"runtime"
	"strconv"
	"strings"
)

// Tier gates which pipeline components run. Missing signals demote a
// device; nothing ever promotes past what was actually detected.
type Tier int

const (
	// Base is FTS5-only: no embeddings, no vector search.
	Base Tier = iota
	// Enhanced adds lazy embeddings and basic vector search.
	Enhanced
	// Advanced adds a persistent vector index and local extraction model.
	Advanced
	// Full runs the entire pipeline, including consolidation.
	Full
)

func (t Tier) String() string {
	switch t {
	case Base:
		return "base"
	case Enhanced:
		return "enhanced"
	case Advanced:
		return "advanced"
	case Full:
		return "full"
	default:
		return "unknown"
	}
}

// Device is the discovered hardware profile used to pick a Tier.
type Device struct {
	TotalRAMBytes     uint64
	AvailableRAMBytes uint64
	CPUCores          int
	HasGPU            bool
	GPUVRAMBytes      uint64
	IsJetson          bool
	Tier              Tier
}

// Discover inspects the running system (on Linux, via /proc/meminfo and
// well-known device files; elsewhere it falls back to conservative
// defaults) and returns its capability profile.
func Discover() Device {
	totalRAM := totalRAM()
	availableRAM := availableRAM(totalRAM)
	isJetson := detectJetson()
	hasGPU := detectGPU()

	var vram uint64
	if isJetson {
		vram = totalRAM
	}

	return Device{
		TotalRAMBytes:     totalRAM,
		AvailableRAMBytes: availableRAM,
		CPUCores:          runtime.NumCPU(),
		HasGPU:            hasGPU,
		GPUVRAMBytes:      vram,
		IsJetson:          isJetson,
		Tier:              determineTier(totalRAM, hasGPU, isJetson),
	}
}

func determineTier(totalRAM uint64, hasGPU, isJetson bool) Tier {
	ramGB := float64(totalRAM) / (1024 * 1024 * 1024)

	switch {
	case isJetson || (hasGPU && ramGB >= 6.0):
		return Full
	case hasGPU && ramGB >= 4.0:
		return Advanced
	case ramGB >= 2.0:
		return Enhanced
	default:
		return Base
	}
}

func totalRAM() uint64 {
	if runtime.GOOS != "linux" {
		return 0
	}
	data, err := os.ReadFile("/proc/meminfo")
	if err != nil {
		return 0
	}
	return parseMeminfoField(string(data), "MemTotal:")
}

func availableRAM(total uint64) uint64 {
	if runtime.GOOS != "linux" {
		return total / 2
	}
	data, err := os.ReadFile("/proc/meminfo")
	if err != nil {
		return 0
	}
	return parseMeminfoField(string(data), "MemAvailable:")
}

func parseMeminfoField(meminfo, prefix string) uint64 {
	for _, line := range strings.Split(meminfo, "\n") {
		if !strings.HasPrefix(line, prefix) {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0
		}
		kb, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return 0
		}
		return kb * 1024
	}
	return 0
}

func detectJetson() bool {
	if runtime.GOOS != "linux" {
		return false
	}
	if _, err := os.Stat("/etc/nv_tegra_release"); err == nil {
		return true
	}
	if model, err := os.ReadFile("/proc/device-tree/model"); err == nil {
		if strings.Contains(strings.ToLower(string(model)), "jetson") {
			return true
		}
	}
	return false
}

func detectGPU() bool {
	switch runtime.GOOS {
	case "linux":
		if _, err := os.Stat("/dev/nvidia0"); err == nil {
			return true
		}
		_, err := os.Stat("/dev/nvhost-gpu")
		return err == nil
	case "darwin":
		return true
	default:
		return false
	}
}
