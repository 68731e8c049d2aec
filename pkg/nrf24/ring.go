// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package nrf24

import (
	"errors"
	"fmt"
)

// Ring errors. All of them mean the ring was sized inconsistently with the
// configuration and are not recoverable.
var (
	ErrRingOverflow   = errors.New("sample ring overflow")
	ErrRingUnderflow  = errors.New("sample ring underflow")
	ErrRingOutOfRange = errors.New("sample ring out of range")
)

// SampleRing is a fixed-capacity circular buffer of bit-samples. Offsets
// passed to At are relative to the oldest sample still held.
type SampleRing struct {
	buf   []byte
	head  int // index of the oldest sample
	count int
}

// NewSampleRing creates a ring holding up to capacity samples
func NewSampleRing(capacity int) *SampleRing {
	return &SampleRing{buf: make([]byte, capacity)}
}

// Append adds one sample at the end of the ring.
func (r *SampleRing) Append(s byte) error {
	if r.count == len(r.buf) {
		return fmt.Errorf("%w: capacity %d reached", ErrRingOverflow, len(r.buf))
	}
	idx := r.head + r.count
	if idx >= len(r.buf) {
		idx -= len(r.buf)
	}
	r.buf[idx] = s
	r.count++
	return nil
}

// At returns the sample offset positions past the oldest one.
func (r *SampleRing) At(offset int) (byte, error) {
	if offset < 0 || offset >= r.count {
		return 0, fmt.Errorf("%w: requested position %d but only %d samples in buffer", ErrRingOutOfRange, offset, r.count)
	}
	idx := r.head + offset
	if idx >= len(r.buf) {
		idx -= len(r.buf)
	}
	return r.buf[idx], nil
}

// Discard drops the n oldest samples.
func (r *SampleRing) Discard(n int) error {
	if n < 0 || n > r.count {
		return fmt.Errorf("%w: requested removal of %d samples but only %d in buffer", ErrRingUnderflow, n, r.count)
	}
	r.head = (r.head + n) % len(r.buf)
	r.count -= n
	return nil
}

// Len returns the number of samples held
func (r *SampleRing) Len() int {
	return r.count
}

// Cap returns the ring capacity
func (r *SampleRing) Cap() int {
	return len(r.buf)
}
