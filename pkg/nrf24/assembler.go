// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package nrf24

import (
	"errors"
	"fmt"
)

// Rejection reasons. These are not failures of the decoder, they mean no
// valid frame starts at the current position.
var (
	ErrInvalidLength = errors.New("dynamic payload length exceeds 32 bytes")
	ErrCRCMismatch   = errors.New("CRC mismatch")
)

// assemble reads a frame whose address starts at sample offset start. With
// dynamic set, the payload length comes from the PCF and payloadSize is
// ignored.
//
// It returns the packet and the sample offset just past the CRC trailer.
func (c *Classifier) assemble(start, payloadSize int, dynamic bool) (*Packet, int, error) {
	cfg := c.cfg
	s := c.sampler
	spb := cfg.SamplesPerBit
	pos := start

	address := make([]byte, cfg.AddressSize)
	s.Bytes(pos, address)
	pos += 8 * spb * cfg.AddressSize

	var pcf *ControlField
	if cfg.Mode == ModeNormal {
		pcf = &ControlField{}
		pcf.PayloadLength = s.Bits(pos, pcfLengthBits)
		pos += pcfLengthBits * spb
		pcf.PID = s.Bits(pos, pcfPIDBits)
		pos += pcfPIDBits * spb
		pcf.NoAck = s.Bits(pos, 1) != 0
		pos += spb
	}

	if dynamic {
		if pcf.PayloadLength > MaxPayloadSize {
			if err := s.Err(); err != nil {
				return nil, 0, fmt.Errorf("reading control field: %w", err)
			}
			return nil, 0, ErrInvalidLength
		}
		payloadSize = int(pcf.PayloadLength)
	}

	payload := make([]byte, payloadSize)
	s.Bytes(pos, payload)
	pos += 8 * spb * payloadSize

	var crc uint16
	if cfg.CRC == CRC16 {
		crc = uint16(s.Byte(pos))<<8 | uint16(s.Byte(pos+8*spb))
	} else {
		crc = uint16(s.Byte(pos))
	}
	pos += 8 * spb * cfg.CRC.Bytes()

	if err := s.Err(); err != nil {
		return nil, 0, fmt.Errorf("reading frame: %w", err)
	}

	return NewPacket(address, pcf, payload, crc), pos, nil
}
