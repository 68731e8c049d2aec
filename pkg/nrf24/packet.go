// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package nrf24

import "time"

// ControlField is the 9-bit packet control field sent in normal mode
type ControlField struct {
	PayloadLength uint8 // only meaningful with dynamic payload lengths
	PID           uint8
	NoAck         bool
}

// Packet represents one decoded nRF24 frame
type Packet struct {
	address   []byte
	pcf       ControlField
	hasPCF    bool
	payload   []byte
	crc       uint16
	timestamp time.Time
}

// NewPacket creates a packet with the given fields. Pass a nil pcf for
// compatibility mode frames.
func NewPacket(address []byte, pcf *ControlField, payload []byte, crc uint16) *Packet {
	return NewPacketAt(time.Now(), address, pcf, payload, crc)
}

// NewPacketAt creates a packet decoded at ts, e.g. a replayed frame
func NewPacketAt(ts time.Time, address []byte, pcf *ControlField, payload []byte, crc uint16) *Packet {
	p := &Packet{
		address:   address,
		payload:   payload,
		crc:       crc,
		timestamp: ts,
	}
	if pcf != nil {
		p.pcf = *pcf
		p.hasPCF = true
	}
	return p
}

// Address returns the packet's address bytes as sent on air
func (p *Packet) Address() []byte {
	return p.address
}

// ControlField returns the packet control field and whether the packet had one
func (p *Packet) ControlField() (ControlField, bool) {
	return p.pcf, p.hasPCF
}

// PID returns the 2-bit packet id (zero without a PCF)
func (p *Packet) PID() uint8 {
	return p.pcf.PID
}

// NoAck returns the PCF no-ack flag
func (p *Packet) NoAck() bool {
	return p.pcf.NoAck
}

// Payload returns the payload bytes
func (p *Packet) Payload() []byte {
	return p.payload
}

// CRC returns the received CRC. CRC8 values occupy the low byte.
func (p *Packet) CRC() uint16 {
	return p.crc
}

// Timestamp returns the packet's decode timestamp
func (p *Packet) Timestamp() time.Time {
	return p.timestamp
}
