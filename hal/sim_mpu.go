package hal

import (
	"sync"

	"tern/hil"
)

// SoftMPU is a software stand-in for protection hardware. It records what
// the kernel configures and answers access checks against it, which is
// what the fault-injection paths and tests drive.
type SoftMPU struct {
	mu      sync.Mutex
	enabled bool
	regions []hil.Region
}

// NewSoftMPU creates a disabled software MPU.
func NewSoftMPU() *SoftMPU {
	return &SoftMPU{}
}

// Enable implements hil.MPU.
func (m *SoftMPU) Enable() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = true
}

// Disable implements hil.MPU.
func (m *SoftMPU) Disable() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = false
}

// NumSupportedRegions implements hil.MPU.
func (m *SoftMPU) NumSupportedRegions() int { return 8 }

// ConfigureRegions implements hil.MPU.
func (m *SoftMPU) ConfigureRegions(regions []hil.Region) error {
	if len(regions) > m.NumSupportedRegions() {
		return hil.ErrUnsupported
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.regions = append(m.regions[:0], regions...)
	return nil
}

// Regions returns the currently configured regions.
func (m *SoftMPU) Regions() []hil.Region {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]hil.Region(nil), m.regions...)
}

// AllowsWrite reports whether an unprivileged write to [addr, addr+length)
// would pass the configured regions. While disabled everything passes.
func (m *SoftMPU) AllowsWrite(addr, length uintptr) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.enabled {
		return true
	}
	for _, r := range m.regions {
		if r.Contains(addr, length) {
			return r.Write == hil.Full
		}
	}
	return false
}
