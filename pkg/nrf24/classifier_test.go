// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package nrf24

import (
	"errors"
	"testing"
)

// classifierFor loads samples into a ring sized for cfg and returns a
// classifier over it.
func classifierFor(t *testing.T, cfg *Config, samples []byte) *Classifier {
	t.Helper()
	r := NewSampleRing(cfg.BufferSamples())
	for _, s := range samples {
		if err := r.Append(s); err != nil {
			t.Fatalf("Append error = %v", err)
		}
	}
	return NewClassifier(cfg, NewBitSampler(r, cfg.SamplesPerBit))
}

// ============================================================
// Retransmit History Tests
// ============================================================

func TestRetransmitHistory(t *testing.T) {
	var h RetransmitHistory
	a := []byte{0x01, 0x02, 0x03, 0x09, 0x55, 0x5D, 0x80}
	b := []byte{0x01, 0x02, 0x03, 0x0A, 0x55, 0x5D, 0x80}

	if h.check(a, 49) {
		t.Error("empty history matched")
	}
	if !h.check(a, 49) {
		t.Error("identical frame not matched")
	}
	if h.check(b, 49) {
		t.Error("different frame matched")
	}
	if h.check(a, 49) {
		t.Error("history not replaced by the different frame")
	}
	// Same bytes with a different bit count are not the same frame
	if h.check(a, 48) {
		t.Error("frame with a different length matched")
	}
}

func TestRetransmitHistory_ComparesTrailingBits(t *testing.T) {
	var h RetransmitHistory
	a := []byte{0x01, 0x09, 0x80}
	b := []byte{0x01, 0x09, 0x00}

	h.check(a, 17)
	if h.check(b, 17) {
		t.Error("frames differing only in the last partial byte matched")
	}
}

// ============================================================
// Classifier Tests
// ============================================================

func TestClassifier_Data(t *testing.T) {
	cfg := scenarioConfig()
	c := classifierFor(t, cfg, encodeFrame(cfg, testAddress, &ControlField{PID: 1}, []byte{0xAA, 0xBB}))

	f, err := c.Classify()
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if f.Type != FrameData || f.Samples != 260 {
		t.Errorf("Classify() = %v/%d samples, want data/260", f.Type, f.Samples)
	}
	if f.Reason != nil {
		t.Errorf("Reason = %v on a valid frame", f.Reason)
	}
}

func TestClassifier_CRCMismatch(t *testing.T) {
	cfg := scenarioConfig()
	samples := encodeFrame(cfg, testAddress, &ControlField{PID: 1}, []byte{0xAA, 0xBB})
	// Flip the last CRC bit
	for i := len(samples) - cfg.SamplesPerBit; i < len(samples); i++ {
		samples[i] ^= 1
	}

	f, err := classifierFor(t, cfg, samples).Classify()
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if f.Valid() {
		t.Fatalf("Classify() = %v, want invalid", f.Type)
	}
	if !errors.Is(f.Reason, ErrCRCMismatch) {
		t.Errorf("Reason = %v, want ErrCRCMismatch", f.Reason)
	}
}

func TestClassifier_FilteredFrame(t *testing.T) {
	cfg := scenarioConfig()
	cfg.FilterAddress = []byte{0xAA, 0xAA, 0xAA}

	f, err := classifierFor(t, cfg, encodeFrame(cfg, testAddress, &ControlField{PID: 1}, []byte{0xAA, 0xBB})).Classify()
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if !f.Valid() || !f.Filtered {
		t.Errorf("Classify() = valid %v filtered %v, want a valid filtered frame", f.Valid(), f.Filtered)
	}
	if f.Samples != 260 {
		t.Errorf("filtered frame Samples = %d, want 260", f.Samples)
	}
}
