//go:build tinygo

package kernel

// Stack capture is not available on bare metal.
func captureStack() []byte {
	return nil
}
