package hil

// Time provides the base tick stream the kernel's sleep path waits on.
//
// The tick duration is platform-defined; anything finer-grained lives in
// capsules layered above.
type Time interface {
	Ticks() <-chan uint64
}
