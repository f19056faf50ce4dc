package hil

// ComparatorClient is notified when an interrupt-enabled comparator fires.
type ComparatorClient interface {
	Fired(channel uint8)
}

// AnalogComparator compares analog inputs without a full conversion.
//
// Comparison reports true while Vp > Vn on the channel's input pair.
// WindowComparison groups comparators channel and channel+1: it reports
// true while the common voltage lies inside the window formed by the two
// remaining inputs. Wiring the shared input is a board concern.
type AnalogComparator interface {
	SetClient(ComparatorClient)
	Comparison(channel uint8) (bool, error)
	WindowComparison(window uint8) (bool, error)

	// EnableInterrupts arms the channel to call the client's Fired as soon
	// as Vp rises above Vn.
	EnableInterrupts(channel uint8) error
	DisableInterrupts(channel uint8) error
}
