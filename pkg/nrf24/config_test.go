// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package nrf24

import (
	"bytes"
	"testing"
)

// ============================================================
// Config Validation Tests
// ============================================================

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr bool
	}{
		{"valid default", func(c *Config) {}, false},
		{"zero samples per bit", func(c *Config) { c.SamplesPerBit = 0 }, true},
		{"negative samples per bit", func(c *Config) { c.SamplesPerBit = -1 }, true},
		{"address too short", func(c *Config) { c.AddressSize = 0 }, true},
		{"address too long", func(c *Config) { c.AddressSize = 6 }, true},
		{"one byte address", func(c *Config) { c.AddressSize = 1 }, false},
		{"five byte address", func(c *Config) { c.AddressSize = 5 }, false},
		{"invalid mode", func(c *Config) { c.Mode = Mode(7) }, true},
		{"invalid CRC width", func(c *Config) { c.CRC = CRCWidth(12) }, true},
		{"CRC16", func(c *Config) { c.CRC = CRC16 }, false},
		{"zero payload", func(c *Config) { c.PayloadSize = 0 }, true},
		{"payload too large", func(c *Config) { c.PayloadSize = 33 }, true},
		{"max payload", func(c *Config) { c.PayloadSize = 32 }, false},
		{"negative ack payload", func(c *Config) { c.AckPayloadSize = -1 }, true},
		{"ack payload too large", func(c *Config) { c.AckPayloadSize = 33 }, true},
		{"dynamic lengths", func(c *Config) { c.LengthMode = LengthDynamic }, false},
		{"dynamic lengths ignore payload size", func(c *Config) {
			c.LengthMode = LengthDynamic
			c.PayloadSize = 0
		}, false},
		{"dynamic lengths in compatibility mode", func(c *Config) {
			c.LengthMode = LengthDynamic
			c.Mode = ModeCompatibility
		}, true},
		{"invalid length mode", func(c *Config) { c.LengthMode = LengthMode(3) }, true},
		{"filter matches address size", func(c *Config) { c.FilterAddress = []byte{1, 2, 3} }, false},
		{"filter too short", func(c *Config) { c.FilterAddress = []byte{1, 2} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := scenarioConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Distinguishable(t *testing.T) {
	cfg := scenarioConfig()
	if !cfg.Distinguishable() {
		t.Error("2/0 byte payloads should be distinguishable")
	}

	cfg.AckPayloadSize = 2
	if cfg.Distinguishable() {
		t.Error("equal payload sizes should not be distinguishable")
	}

	cfg.AckPayloadSize = 0
	cfg.LengthMode = LengthDynamic
	if cfg.Distinguishable() {
		t.Error("dynamic lengths should not be distinguishable")
	}
}

func TestConfig_FrameSizes(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(c *Config)
		frameBits   int
		frameSample int
	}{
		{"normal CRC8", func(c *Config) {}, 8 + 24 + 9 + 16 + 8, 260},
		{"normal CRC16", func(c *Config) { c.CRC = CRC16 }, 8 + 24 + 9 + 16 + 16, 292},
		{"compatibility", func(c *Config) { c.Mode = ModeCompatibility }, 8 + 24 + 16 + 8, 224},
		{"ack larger than data", func(c *Config) { c.AckPayloadSize = 4 }, 8 + 24 + 9 + 32 + 8, 324},
		{"dynamic", func(c *Config) { c.LengthMode = LengthDynamic }, 8 + 24 + 9 + 256 + 8, 1220},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := scenarioConfig()
			tt.modify(cfg)
			if got := cfg.FrameBits(cfg.maxPayload()); got != tt.frameBits {
				t.Errorf("FrameBits = %d, want %d", got, tt.frameBits)
			}
			if got := cfg.MaxFrameSamples(); got != tt.frameSample {
				t.Errorf("MaxFrameSamples() = %d, want %d", got, tt.frameSample)
			}
			if got := cfg.BufferSamples(); got != 4*tt.frameSample {
				t.Errorf("BufferSamples() = %d, want %d", got, 4*tt.frameSample)
			}
		})
	}
}

func TestConfig_MatchesFilter(t *testing.T) {
	cfg := scenarioConfig()
	if !cfg.MatchesFilter([]byte{9, 9, 9}) {
		t.Error("promiscuous config rejected an address")
	}

	cfg.FilterAddress = []byte{1, 2, 3}
	if !cfg.MatchesFilter([]byte{1, 2, 3}) {
		t.Error("filter rejected its own address")
	}
	if cfg.MatchesFilter([]byte{1, 2, 4}) {
		t.Error("filter accepted a different address")
	}
}

// ============================================================
// Address Parsing Tests
// ============================================================

func TestParseAddress(t *testing.T) {
	tests := []struct {
		input   string
		want    []byte
		wantErr bool
	}{
		{"E7E7E7E7E7", []byte{0xE7, 0xE7, 0xE7, 0xE7, 0xE7}, false},
		{"0xc2c2c2", []byte{0xC2, 0xC2, 0xC2}, false},
		{"0X010203", []byte{0x01, 0x02, 0x03}, false},
		{"7f", []byte{0x7F}, false},
		{"", nil, true},
		{"0x", nil, true},
		{"abc", nil, true},
		{"zz", nil, true},
		{"010203040506", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAddress(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAddress(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("ParseAddress(%q) = %x, want %x", tt.input, got, tt.want)
			}
		})
	}
}

func TestEnumStrings(t *testing.T) {
	if ModeNormal.String() == ModeCompatibility.String() {
		t.Error("mode names collide")
	}
	if LengthFixed.String() == LengthDynamic.String() {
		t.Error("length mode names collide")
	}
	if CRC8.Bytes() != 1 || CRC16.Bytes() != 2 {
		t.Errorf("CRC bytes = %d/%d, want 1/2", CRC8.Bytes(), CRC16.Bytes())
	}
	if FrameData.String() != "data" || FrameAck.String() != "ack" || FrameUndistinguishable.String() != "packet" {
		t.Error("unexpected frame type names")
	}
}
