// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package nrf24 decodes nRF24L01+ Enhanced ShockBurst frames from an
// oversampled, pre-binarized sample stream.
//
// Each input byte is one bit-sample (0 = low, anything else = high). The
// Decoder hunts for the 8-bit alternating preamble, reads the address,
// packet control field, payload and CRC at bit centers, and validates the
// CRC over the exact bit layout the transmitter used.
package nrf24

// On-air limits fixed by the nRF24L01+ datasheet
const (
	MaxAddressSize = 5
	MinAddressSize = 1
	MaxPayloadSize = 32

	PreambleBits = 8
	PCFBits      = 9

	// 6-bit length field can carry up to 63
	pcfLengthBits = 6
	pcfPIDBits    = 2
)

// CRC configuration
const (
	crc8Polynomial  = 0x07
	crc8Initial     = 0xFF
	crc16Polynomial = 0x1021
	crc16Initial    = 0xFFFF
)

// maxPackedSize is the largest CRC input: address, payload and two bytes for
// the PCF and the trailing carry bit.
const maxPackedSize = MaxAddressSize + MaxPayloadSize + 2

// ringFrames is how many maximum-length frames the sample ring holds.
const ringFrames = 4

// Mode selects between the normal protocol (with PCF) and the legacy
// compatibility mode of older transceivers.
type Mode int

const (
	ModeNormal Mode = iota
	ModeCompatibility
)

func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeCompatibility:
		return "compatibility"
	default:
		return "unknown"
	}
}

// LengthMode selects fixed or dynamic payload lengths.
type LengthMode int

const (
	LengthFixed LengthMode = iota
	LengthDynamic
)

func (l LengthMode) String() string {
	switch l {
	case LengthFixed:
		return "fixed"
	case LengthDynamic:
		return "dynamic"
	default:
		return "unknown"
	}
}

// CRCWidth is the CRC size in bits.
type CRCWidth int

const (
	CRC8  CRCWidth = 8
	CRC16 CRCWidth = 16
)

// Bytes returns the on-air size of the CRC trailer.
func (w CRCWidth) Bytes() int {
	return int(w) / 8
}

func (w CRCWidth) String() string {
	switch w {
	case CRC8:
		return "crc8"
	case CRC16:
		return "crc16"
	default:
		return "unknown"
	}
}
