// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package nrf24

import (
	"errors"
	"fmt"
	"time"
)

// Statistics tracks decoded frames and rejected decode attempts
type Statistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Samples
	Samples       uint64
	PreambleHits  uint64
	CRCRejects    uint64
	LengthRejects uint64

	// Frames
	ValidFrames             uint64 // reported frames, filtered ones excluded
	DataFrames              uint64
	AckFrames               uint64
	UndistinguishableFrames uint64
	Retransmits             uint64
	FilteredFrames          uint64

	// Rates (calculated)
	FrameRate      float64 // frames/sec
	RetransmitRate float64 // fraction of data frames
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
	}
}

// Update records the outcome of one decode attempt
func (s *Statistics) Update(f *Frame) {
	s.PreambleHits++

	if !f.Valid() {
		if errors.Is(f.Reason, ErrInvalidLength) {
			s.LengthRejects++
		} else {
			s.CRCRejects++
		}
		return
	}

	if f.Filtered {
		s.FilteredFrames++
		return
	}

	s.ValidFrames++
	switch f.Type {
	case FrameData:
		s.DataFrames++
		if f.Retransmit {
			s.Retransmits++
		}
	case FrameAck:
		s.AckFrames++
	case FrameUndistinguishable:
		s.UndistinguishableFrames++
	}

	s.LastUpdateTime = time.Now()
}

// CalculateRates calculates frame and retransmit rates
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.FrameRate = float64(s.ValidFrames) / elapsed
	}
	if s.DataFrames > 0 {
		s.RetransmitRate = float64(s.Retransmits) / float64(s.DataFrames)
	}
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.CalculateRates()

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Samples:         %10d\n", s.Samples)
	result += fmt.Sprintf("Preamble Hits:   %10d\n", s.PreambleHits)
	result += fmt.Sprintf("Valid Frames:    %10d (%.1f frames/s)\n", s.ValidFrames, s.FrameRate)

	if s.DataFrames > 0 {
		result += fmt.Sprintf("  Data:          %10d\n", s.DataFrames)
		result += fmt.Sprintf("  Retransmits:   %10d (%.1f%%)\n", s.Retransmits, s.RetransmitRate*100.0)
	}
	if s.AckFrames > 0 {
		result += fmt.Sprintf("  Ack:           %10d\n", s.AckFrames)
	}
	if s.UndistinguishableFrames > 0 {
		result += fmt.Sprintf("  Data or Ack:   %10d\n", s.UndistinguishableFrames)
	}
	if s.FilteredFrames > 0 {
		result += fmt.Sprintf("Filtered Frames: %10d\n", s.FilteredFrames)
	}
	if s.CRCRejects > 0 {
		result += fmt.Sprintf("CRC Rejects:     %10d\n", s.CRCRejects)
	}
	if s.LengthRejects > 0 {
		result += fmt.Sprintf("Length Rejects:  %10d\n", s.LengthRejects)
	}

	return result
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	*s = *NewStatistics()
}
