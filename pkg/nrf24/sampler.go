// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package nrf24

// BitSampler reads logical bits out of a SampleRing by sampling the middle
// of each bit period.
//
// Ring errors are sticky: once a read fails, every later read returns zero
// and Err reports the first failure. Callers check Err once after a series
// of reads.
type BitSampler struct {
	ring *SampleRing
	spb  int
	err  error
}

// NewBitSampler creates a sampler over ring with spb samples per bit
func NewBitSampler(ring *SampleRing, spb int) *BitSampler {
	return &BitSampler{ring: ring, spb: spb}
}

// Err returns the first ring error since the last Reset
func (s *BitSampler) Err() error {
	return s.err
}

// Reset clears the sticky error
func (s *BitSampler) Reset() {
	s.err = nil
}

// sample returns the bit-sample at offset, normalized to 0 or 1.
func (s *BitSampler) sample(offset int) byte {
	if s.err != nil {
		return 0
	}
	v, err := s.ring.At(offset)
	if err != nil {
		s.err = err
		return 0
	}
	if v != 0 {
		return 1
	}
	return 0
}

// Bits reads n (at most 8) bits starting at sample offset start, MSB first.
func (s *BitSampler) Bits(start, n int) byte {
	var b byte
	for k := 0; k < n; k++ {
		b = b<<1 | s.sample(start+k*s.spb+s.spb/2)
	}
	return b
}

// Byte reads 8 bits starting at sample offset start
func (s *BitSampler) Byte(start int) byte {
	return s.Bits(start, 8)
}

// Bytes fills dst with consecutive bytes starting at sample offset start.
func (s *BitSampler) Bytes(start int, dst []byte) {
	for i := range dst {
		dst[i] = s.Byte(start + i*8*s.spb)
	}
}

// HasPreamble reports whether the window starts with an alternating 8-bit
// preamble. The first sample selects the phase: low expects 0x55, high
// expects 0xAA.
func (s *BitSampler) HasPreamble() bool {
	bit := s.sample(0)
	for i := 0; i < PreambleBits; i++ {
		if s.sample(s.spb/2+i*s.spb) != bit {
			return false
		}
		bit ^= 1
	}
	return s.err == nil
}
