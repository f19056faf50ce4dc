package hil

// ADCClient receives conversion results from an ADC.
type ADCClient interface {
	// SampleReady delivers one conversion. The sample is left-aligned per
	// the ADC contract below.
	SampleReady(channel uint8, sample uint16)
}

// ADC is the analog sampling contract.
//
// Samples are stored in a u16 and always left-aligned: the significant bits
// declared by ResolutionBits occupy the most-significant positions of the
// word, whatever the chip's native width. A 12-bit converter reporting code
// 0xABC therefore delivers 0xABC0. This lets callers compare and scale
// readings across chips without knowing the native width.
type ADC interface {
	SetClient(ADCClient)

	// Sample starts a single conversion on the channel. Completion arrives
	// through the client. ErrInvalid for a channel the chip does not have,
	// ErrBusy while a conversion is outstanding, ErrOff if the converter is
	// not powered.
	Sample(channel uint8) error

	// ResolutionBits reports how many bits of each sample word are
	// significant. Always in 1..16.
	ResolutionBits() int

	// VoltageReferenceMV reports the reference voltage in millivolts.
	// ok == false means the reference is unknown on this board; when
	// ok == true the value is always positive. Conversion from raw codes
	// to volts is enabled by this, never required.
	VoltageReferenceMV() (mv uint32, ok bool)
}
