// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package nrf24

import (
	"testing"
)

// byteWiseCRC16 is a byte-at-a-time CRC-16-CCITT, used as a reference for
// byte-aligned input.
func byteWiseCRC16(data []byte) uint16 {
	crc := uint16(crc16Initial)
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ crc16Polynomial
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// ============================================================
// CRC Tests
// ============================================================

func TestCRC8_Empty(t *testing.T) {
	if crc := Checksum8(nil, 0); crc != crc8Initial {
		t.Errorf("CRC8 of empty data should be initial value, got 0x%02X", crc)
	}
}

func TestCRC16_Empty(t *testing.T) {
	if crc := Checksum16(nil, 0); crc != crc16Initial {
		t.Errorf("CRC16 of empty data should be initial value, got 0x%04X", crc)
	}
}

func TestCRC_KnownValues(t *testing.T) {
	tests := []struct {
		name  string
		data  []byte
		bits  int
		crc8  uint8
		crc16 uint16
	}{
		{
			name:  "ASCII '123456789'",
			data:  []byte("123456789"),
			bits:  72,
			crc8:  0xFB,
			crc16: 0x29B1, // Standard CRC-16-CCITT check value
		},
		{
			name:  "three bits",
			data:  []byte{0xA0},
			bits:  3,
			crc8:  0xF6,
			crc16: 0xDFBA,
		},
		{
			name:  "normal mode frame with 2 byte payload",
			data:  []byte{0x01, 0x02, 0x03, 0x09, 0x55, 0x5D, 0x80},
			bits:  49,
			crc8:  0x36,
			crc16: 0xF0F9,
		},
		{
			name:  "compatibility mode frame",
			data:  []byte{0x01, 0x02, 0x03, 0xAA, 0xBB},
			bits:  40,
			crc8:  0x78,
			crc16: byteWiseCRC16([]byte{0x01, 0x02, 0x03, 0xAA, 0xBB}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Checksum8(tt.data, tt.bits); got != tt.crc8 {
				t.Errorf("CRC8 = 0x%02X, want 0x%02X", got, tt.crc8)
			}
			if got := Checksum16(tt.data, tt.bits); got != tt.crc16 {
				t.Errorf("CRC16 = 0x%04X, want 0x%04X", got, tt.crc16)
			}
		})
	}
}

func TestCRC16_MatchesByteWise(t *testing.T) {
	data := make([]byte, 0, 64)
	for i := 0; i < 64; i++ {
		data = append(data, byte(i*37+11))
		if got, want := Checksum16(data, len(data)*8), byteWiseCRC16(data); got != want {
			t.Fatalf("len %d: CRC16 = 0x%04X, byte-wise = 0x%04X", len(data), got, want)
		}
	}
}

func TestCRC_IgnoresBitsPastLength(t *testing.T) {
	// Only the top 3 bits of 0xA0 and 0xBF are covered, and they agree
	if Checksum8([]byte{0xA0}, 3) != Checksum8([]byte{0xBF}, 3) {
		t.Error("CRC8 must ignore bits past the given length")
	}
	if Checksum16([]byte{0xA0}, 3) != Checksum16([]byte{0xBF}, 3) {
		t.Error("CRC16 must ignore bits past the given length")
	}
}

func TestCRC_Deterministic(t *testing.T) {
	data := []byte{0xE7, 0xE7, 0xE7, 0xE7, 0xE7, 0x12, 0x34}
	for bits := 0; bits <= len(data)*8; bits++ {
		if Checksum8(data, bits) != Checksum8(data, bits) {
			t.Fatalf("CRC8 not deterministic at %d bits", bits)
		}
		if Checksum16(data, bits) != Checksum16(data, bits) {
			t.Fatalf("CRC16 not deterministic at %d bits", bits)
		}
	}
}

func TestCRC_DetectsSingleBitErrors(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x09, 0x55, 0x5D, 0x80}
	const bits = 49
	want8 := Checksum8(data, bits)
	want16 := Checksum16(data, bits)

	for i := 0; i < bits; i++ {
		corrupt := append([]byte(nil), data...)
		corrupt[i/8] ^= 0x80 >> uint(i%8)
		if Checksum8(corrupt, bits) == want8 {
			t.Errorf("CRC8 did not detect flip of bit %d", i)
		}
		if Checksum16(corrupt, bits) == want16 {
			t.Errorf("CRC16 did not detect flip of bit %d", i)
		}
	}
}

func TestCalculateCRC_Width(t *testing.T) {
	data := []byte("123456789")
	if got := calculateCRC(CRC8, data, 72); got != 0xFB {
		t.Errorf("calculateCRC(CRC8) = 0x%04X, want 0x00FB", got)
	}
	if got := calculateCRC(CRC16, data, 72); got != 0x29B1 {
		t.Errorf("calculateCRC(CRC16) = 0x%04X, want 0x29B1", got)
	}
}
