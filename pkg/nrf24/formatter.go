// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package nrf24

import (
	"fmt"
	"strings"
)

// FormatFrame formats a frame into a single human-readable line
func FormatFrame(cfg *Config, f *Frame) string {
	p := f.Packet
	ts := p.timestamp

	var b strings.Builder
	fmt.Fprintf(&b, "[%10d.%06d] ", ts.Unix(), ts.Nanosecond()/1000)

	if f.Retransmit {
		b.WriteString("[RETRANSMIT] ")
	}

	switch f.Type {
	case FrameData:
		b.WriteString("data-packet addr=")
	case FrameAck:
		b.WriteString("ACK-packet addr=")
	default:
		b.WriteString("packet addr=")
	}
	b.WriteString(FormatHex(p.address))
	b.WriteString(" ")

	if p.hasPCF {
		fmt.Fprintf(&b, "PID=%d ", p.pcf.PID)
		if f.Type == FrameData {
			noAck := 0
			if p.pcf.NoAck {
				noAck = 1
			}
			fmt.Fprintf(&b, "NO_ACK=%d ", noAck)
		}
	}

	if len(p.payload) > 0 {
		fmt.Fprintf(&b, "data[%d]=%s ", len(p.payload), FormatHex(p.payload))
	}

	if cfg.CRC == CRC16 {
		fmt.Fprintf(&b, "CRC=%04x (ok)", p.crc)
	} else {
		fmt.Fprintf(&b, "CRC=%02x (ok)", p.crc)
	}

	return b.String()
}

// FormatHex formats bytes as space separated lowercase hex pairs
func FormatHex(data []byte) string {
	parts := make([]string, len(data))
	for i, v := range data {
		parts[i] = fmt.Sprintf("%02x", v)
	}
	return strings.Join(parts, " ")
}

// FormatSummary returns the one-line live counter. Retransmits are only
// meaningful when data and ack frames can be told apart.
func FormatSummary(s *Statistics, withRetransmits bool) string {
	if withRetransmits {
		return fmt.Sprintf("nRF24 %d packets, %d retransmits", s.ValidFrames, s.Retransmits)
	}
	return fmt.Sprintf("nRF24 %d packets", s.ValidFrames)
}
