// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package nrf24

import (
	"strings"
	"testing"
	"time"
)

// ============================================================
// Statistics Tests
// ============================================================

func TestStatistics_Update(t *testing.T) {
	s := NewStatistics()
	p := NewPacket(testAddress, &ControlField{}, []byte{1, 2}, 0)

	updates := []Frame{
		{Type: FrameInvalid, Reason: ErrCRCMismatch},
		{Type: FrameInvalid, Reason: ErrInvalidLength},
		{Type: FrameData, Packet: p},
		{Type: FrameData, Packet: p, Retransmit: true},
		{Type: FrameAck, Packet: p},
		{Type: FrameUndistinguishable, Packet: p},
		{Type: FrameData, Packet: p, Filtered: true},
	}
	for i := range updates {
		s.Update(&updates[i])
	}

	checks := []struct {
		name string
		got  uint64
		want uint64
	}{
		{"PreambleHits", s.PreambleHits, 7},
		{"CRCRejects", s.CRCRejects, 1},
		{"LengthRejects", s.LengthRejects, 1},
		{"ValidFrames", s.ValidFrames, 4},
		{"DataFrames", s.DataFrames, 2},
		{"Retransmits", s.Retransmits, 1},
		{"AckFrames", s.AckFrames, 1},
		{"UndistinguishableFrames", s.UndistinguishableFrames, 1},
		{"FilteredFrames", s.FilteredFrames, 1},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %d, want %d", c.name, c.got, c.want)
		}
	}
}

func TestStatistics_CalculateRates(t *testing.T) {
	s := NewStatistics()
	s.StartTime = time.Now().Add(-10 * time.Second)
	s.ValidFrames = 100
	s.DataFrames = 80
	s.Retransmits = 20

	s.CalculateRates()
	if s.FrameRate < 9 || s.FrameRate > 10.1 {
		t.Errorf("FrameRate = %.2f, want about 10", s.FrameRate)
	}
	if s.RetransmitRate != 0.25 {
		t.Errorf("RetransmitRate = %.2f, want 0.25", s.RetransmitRate)
	}
}

func TestStatistics_String(t *testing.T) {
	s := NewStatistics()
	s.Samples = 1000
	s.ValidFrames = 3
	s.DataFrames = 2
	s.AckFrames = 1
	s.CRCRejects = 5

	out := s.String()
	for _, want := range []string{"=== Statistics", "Samples:", "Valid Frames:", "Data:", "Ack:", "CRC Rejects:"} {
		if !strings.Contains(out, want) {
			t.Errorf("String() missing %q:\n%s", want, out)
		}
	}
	for _, absent := range []string{"Length Rejects:", "Filtered Frames:", "Data or Ack:"} {
		if strings.Contains(out, absent) {
			t.Errorf("String() shows zero counter %q:\n%s", absent, out)
		}
	}
}

func TestStatistics_Reset(t *testing.T) {
	s := NewStatistics()
	s.ValidFrames = 10
	s.CRCRejects = 4
	s.Reset()

	if s.ValidFrames != 0 || s.CRCRejects != 0 {
		t.Errorf("Reset left counters %d/%d", s.ValidFrames, s.CRCRejects)
	}
	if s.StartTime.IsZero() {
		t.Error("Reset cleared StartTime")
	}
}
