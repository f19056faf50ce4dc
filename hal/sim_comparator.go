package hal

import (
	"sync"

	"tern/hil"
)

// SimComparator is a software comparator bank. Tests and demo wiring set
// the input levels directly; armed channels fire through the chip's
// bottom-half path when their level goes high.
type SimComparator struct {
	chip *SimChip

	mu       sync.Mutex
	client   hil.ComparatorClient
	channels uint8
	level    []bool
	armed    []bool
}

// NewSimComparator creates a bank with the given channel count, all
// inputs low.
func NewSimComparator(chip *SimChip, channels uint8) *SimComparator {
	return &SimComparator{
		chip:     chip,
		channels: channels,
		level:    make([]bool, channels),
		armed:    make([]bool, channels),
	}
}

// SetLevel drives one channel's comparison result. Raising an armed
// channel fires its interrupt.
func (s *SimComparator) SetLevel(channel uint8, high bool) {
	s.mu.Lock()
	if channel >= s.channels {
		s.mu.Unlock()
		return
	}
	rose := high && !s.level[channel]
	s.level[channel] = high
	fire := rose && s.armed[channel]
	client := s.client
	s.mu.Unlock()

	if fire {
		s.chip.Raise(func() {
			if client != nil {
				client.Fired(channel)
			}
		})
	}
}

// SetClient implements hil.AnalogComparator.
func (s *SimComparator) SetClient(c hil.ComparatorClient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client = c
}

// Comparison implements hil.AnalogComparator.
func (s *SimComparator) Comparison(channel uint8) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if channel >= s.channels {
		return false, hil.ErrInvalid
	}
	return s.level[channel], nil
}

// WindowComparison implements hil.AnalogComparator: channels window and
// window+1 form the pair, true while the common input sits inside.
func (s *SimComparator) WindowComparison(window uint8) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if int(window)+1 >= int(s.channels) {
		return false, hil.ErrInvalid
	}
	// Inside the window: below the upper bound, above the lower one.
	return s.level[window] && !s.level[window+1], nil
}

// EnableInterrupts implements hil.AnalogComparator.
func (s *SimComparator) EnableInterrupts(channel uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if channel >= s.channels {
		return hil.ErrInvalid
	}
	s.armed[channel] = true
	return nil
}

// DisableInterrupts implements hil.AnalogComparator.
func (s *SimComparator) DisableInterrupts(channel uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if channel >= s.channels {
		return hil.ErrInvalid
	}
	s.armed[channel] = false
	return nil
}
