package hil

// Parity selects the UART parity bit mode.
type Parity uint8

const (
	ParityNone Parity = iota
	ParityOdd
	ParityEven
)

// StopBits selects the number of UART stop bits.
type StopBits uint8

const (
	StopBitsOne StopBits = iota + 1
	StopBitsTwo
)

// WordLength selects the number of data bits per UART frame.
type WordLength uint8

const (
	WordLength6 WordLength = 6
	WordLength7 WordLength = 7
	WordLength8 WordLength = 8
	WordLength9 WordLength = 9
)

// UARTParams describes a full serial line configuration.
type UARTParams struct {
	BaudRate      uint32
	Width         WordLength
	Parity        Parity
	StopBits      StopBits
	HWFlowControl bool
}

// UARTClient receives transfer completions from a UART.
//
// The buffer passed back is the same one handed to Transmit/Receive, so the
// caller regains ownership on completion.
type UARTClient interface {
	TransmitComplete(buf []byte, err error)
	ReceiveComplete(buf []byte, n int, err error)
}

// UART is the serial port contract.
//
// Configure must distinguish three failures: ErrInvalid for parameters no
// hardware could satisfy (baud rate zero), ErrBusy for a controller that is
// currently multiplexed to another mode, and ErrUnsupported for a frame
// format this particular chip cannot produce.
//
// Transmit and Receive never block; they either claim the transfer and
// return nil, or fail immediately. Exactly one transfer per direction may be
// in flight. Completion is reported to the registered client.
type UART interface {
	SetClient(UARTClient)
	Configure(UARTParams) error
	Transmit(buf []byte) error
	Receive(buf []byte) error
	AbortTransmit()
	AbortReceive()
}
