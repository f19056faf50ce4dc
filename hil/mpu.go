package hil

// Permission describes who may perform an access on a region.
type Permission uint8

const (
	NoAccess Permission = iota
	PrivilegedOnly
	Full
)

// Region is one memory protection region: a half-open address range with
// separate read/write/execute permissions.
type Region struct {
	Start   uintptr
	End     uintptr
	Read    Permission
	Write   Permission
	Execute Permission
}

// Contains reports whether the range [addr, addr+length) lies inside the
// region. A zero-length range at Start is inside.
func (r Region) Contains(addr, length uintptr) bool {
	end := addr + length
	return addr >= r.Start && end <= r.End && end >= addr
}

// MPU configures hardware memory protection around process switches.
//
// The kernel calls ConfigureRegions with a process's regions before running
// it. Implementations that cannot represent a region report ErrUnsupported;
// boards without protection hardware use NullMPU.
type MPU interface {
	Enable()
	Disable()
	NumSupportedRegions() int
	ConfigureRegions(regions []Region) error
}

// NullMPU is the no-protection implementation.
type NullMPU struct{}

func (NullMPU) Enable()                  {}
func (NullMPU) Disable()                 {}
func (NullMPU) NumSupportedRegions() int { return 8 }

func (NullMPU) ConfigureRegions([]Region) error { return nil }
