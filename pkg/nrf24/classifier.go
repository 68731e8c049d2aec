// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package nrf24

import (
	"bytes"
	"errors"
)

// FrameType is the classification of a decode attempt
type FrameType int

const (
	FrameInvalid FrameType = iota
	FrameData
	FrameAck
	// FrameUndistinguishable is a valid frame that could be either a data
	// or an ack frame, because both have the same payload size.
	FrameUndistinguishable
)

func (t FrameType) String() string {
	switch t {
	case FrameInvalid:
		return "invalid"
	case FrameData:
		return "data"
	case FrameAck:
		return "ack"
	case FrameUndistinguishable:
		return "packet"
	default:
		return "unknown"
	}
}

// Frame is the outcome of one decode attempt
type Frame struct {
	Packet     *Packet
	Type       FrameType
	Retransmit bool
	Filtered   bool // valid, but the address did not pass the filter

	// Samples is the number of samples the frame occupies, preamble included.
	Samples int
	// Offset is the stream position of the frame's first preamble sample.
	Offset uint64

	// Reason is set for invalid frames
	Reason error
}

// Valid reports whether the attempt produced a frame
func (f *Frame) Valid() bool {
	return f.Type != FrameInvalid
}

// RetransmitHistory remembers the CRC input of the last accepted data frame
type RetransmitHistory struct {
	buf  [maxPackedSize]byte
	bits int
}

// check reports whether packed matches the remembered frame. A frame that
// does not match replaces the history.
func (h *RetransmitHistory) check(packed []byte, bits int) bool {
	if bits == h.bits && bytes.Equal(packed, h.buf[:len(packed)]) {
		return true
	}
	h.buf = [maxPackedSize]byte{}
	copy(h.buf[:], packed)
	h.bits = bits
	return false
}

// Classifier validates preamble-aligned windows and tells data frames from
// ack frames.
type Classifier struct {
	cfg     *Config
	sampler *BitSampler
	history RetransmitHistory
	w       bitWriter
}

// NewClassifier creates a classifier reading through sampler
func NewClassifier(cfg *Config, sampler *BitSampler) *Classifier {
	return &Classifier{cfg: cfg, sampler: sampler}
}

// try assembles a frame with the given payload size and checks its CRC.
// A nil packet with a nil error means the CRC did not match.
func (c *Classifier) try(payloadSize int, dynamic bool) (*Packet, int, error) {
	start := PreambleBits * c.cfg.SamplesPerBit
	p, end, err := c.assemble(start, payloadSize, dynamic)
	if err != nil {
		return nil, 0, err
	}
	bits := pack(c.cfg.Mode, p, &c.w)
	if calculateCRC(c.cfg.CRC, c.w.bytes(), bits) != p.crc {
		return nil, 0, nil
	}
	return p, end, nil
}

// Classify decodes the frame following the preamble at the start of the
// window. Invalid frames are returned with a Reason. The error is non-nil
// only when the sample ring is too small for the configuration.
func (c *Classifier) Classify() (Frame, error) {
	c.sampler.Reset()

	if !c.cfg.Distinguishable() {
		dynamic := c.cfg.LengthMode == LengthDynamic
		p, end, err := c.try(c.cfg.PayloadSize, dynamic)
		if errors.Is(err, ErrInvalidLength) {
			return Frame{Type: FrameInvalid, Reason: err}, nil
		}
		if err != nil {
			return Frame{}, err
		}
		if p == nil {
			return Frame{Type: FrameInvalid, Reason: ErrCRCMismatch}, nil
		}
		return Frame{
			Packet:   p,
			Type:     FrameUndistinguishable,
			Filtered: !c.cfg.MatchesFilter(p.address),
			Samples:  end,
		}, nil
	}

	frameType := FrameData
	p, end, err := c.try(c.cfg.PayloadSize, false)
	if err != nil {
		return Frame{}, err
	}
	if p == nil {
		frameType = FrameAck
		p, end, err = c.try(c.cfg.AckPayloadSize, false)
		if err != nil {
			return Frame{}, err
		}
		if p == nil {
			return Frame{Type: FrameInvalid, Reason: ErrCRCMismatch}, nil
		}
	}

	f := Frame{Packet: p, Type: frameType, Samples: end}
	if !c.cfg.MatchesFilter(p.address) {
		f.Filtered = true
		return f, nil
	}

	// c.w still holds the packed bytes of the accepted attempt
	if frameType == FrameData && c.cfg.Mode == ModeNormal {
		f.Retransmit = c.history.check(c.w.bytes(), c.w.bits)
	}
	return f, nil
}
