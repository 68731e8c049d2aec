// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package nrf24

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"
)

// Config parameterizes the decoder. It is built and validated once, before
// decoding starts, and must not be modified afterwards.
type Config struct {
	SamplesPerBit  int
	AddressSize    int
	Mode           Mode
	LengthMode     LengthMode
	PayloadSize    int
	AckPayloadSize int
	CRC            CRCWidth

	// FilterAddress restricts reporting to one address. Nil means
	// promiscuous mode.
	FilterAddress []byte
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c.SamplesPerBit <= 0 {
		return fmt.Errorf("samples per bit must be positive, got %d", c.SamplesPerBit)
	}
	if c.AddressSize < MinAddressSize || c.AddressSize > MaxAddressSize {
		return fmt.Errorf("address size must be %d-%d bytes, got %d", MinAddressSize, MaxAddressSize, c.AddressSize)
	}
	if c.Mode != ModeNormal && c.Mode != ModeCompatibility {
		return fmt.Errorf("invalid protocol mode: %d", c.Mode)
	}
	if c.CRC != CRC8 && c.CRC != CRC16 {
		return fmt.Errorf("CRC width must be 8 or 16, got %d", c.CRC)
	}

	switch c.LengthMode {
	case LengthFixed:
		if c.PayloadSize < 1 || c.PayloadSize > MaxPayloadSize {
			return fmt.Errorf("payload size must be 1-%d bytes in fixed length mode, got %d", MaxPayloadSize, c.PayloadSize)
		}
		if c.AckPayloadSize < 0 || c.AckPayloadSize > MaxPayloadSize {
			return fmt.Errorf("ack payload size must be 0-%d bytes, got %d", MaxPayloadSize, c.AckPayloadSize)
		}
	case LengthDynamic:
		// Dynamic lengths live in the PCF
		if c.Mode == ModeCompatibility {
			return fmt.Errorf("dynamic payload lengths require normal mode")
		}
	default:
		return fmt.Errorf("invalid payload length mode: %d", c.LengthMode)
	}

	if c.FilterAddress != nil && len(c.FilterAddress) != c.AddressSize {
		return fmt.Errorf("filter address has %d bytes but address size is %d", len(c.FilterAddress), c.AddressSize)
	}

	return nil
}

// Distinguishable reports whether data and ack frames can be told apart by
// their payload size.
func (c *Config) Distinguishable() bool {
	return c.LengthMode == LengthFixed && c.PayloadSize != c.AckPayloadSize
}

// maxPayload returns the largest payload the classifier may try to read.
func (c *Config) maxPayload() int {
	if c.LengthMode == LengthDynamic {
		return MaxPayloadSize
	}
	return max(c.PayloadSize, c.AckPayloadSize)
}

// FrameBits returns the on-air length in bits of a frame with the given
// payload size, preamble included.
func (c *Config) FrameBits(payloadSize int) int {
	bits := PreambleBits + 8*c.AddressSize + 8*payloadSize + 8*c.CRC.Bytes()
	if c.Mode == ModeNormal {
		bits += PCFBits
	}
	return bits
}

// MaxFrameSamples is the length in samples of the longest frame the
// configuration allows. The decoder waits for this many samples before
// checking for a preamble.
func (c *Config) MaxFrameSamples() int {
	return c.FrameBits(c.maxPayload()) * c.SamplesPerBit
}

// BufferSamples is the sample ring capacity.
func (c *Config) BufferSamples() int {
	return ringFrames * c.MaxFrameSamples()
}

// MatchesFilter reports whether an address passes the address filter.
func (c *Config) MatchesFilter(addr []byte) bool {
	return c.FilterAddress == nil || bytes.Equal(addr, c.FilterAddress)
}

// ParseAddress parses a hex address such as "0xE7E7E7E7E7" or "c2c2c2".
// Two hex characters per byte are required.
func ParseAddress(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s) == 0 {
		return nil, fmt.Errorf("empty address")
	}
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("invalid address %q: use 2 hex characters per byte", s)
	}
	addr, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid address %q: %w", s, err)
	}
	if len(addr) > MaxAddressSize {
		return nil, fmt.Errorf("address %q is longer than %d bytes", s, MaxAddressSize)
	}
	return addr, nil
}
