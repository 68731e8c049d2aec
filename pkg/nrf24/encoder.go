// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package nrf24

// Encoder builds on-air bit streams and oversampled sample streams for
// nRF24 frames. It is the inverse of the Decoder and shares its packing and
// CRC code.
type Encoder struct {
	cfg *Config
}

// NewEncoder creates a new encoder for the given configuration
func NewEncoder(cfg *Config) *Encoder {
	return &Encoder{cfg: cfg}
}

// Preamble returns the preamble a transmitter sends before address. It
// alternates into the first address bit: 0xAA when the address MSB is set,
// 0x55 otherwise.
func Preamble(address []byte) byte {
	if len(address) > 0 && address[0]&0x80 != 0 {
		return 0xAA
	}
	return 0x55
}

// Packet builds a packet with a correct CRC. pcf is ignored in
// compatibility mode and defaults to a zero control field in normal mode.
func (e *Encoder) Packet(address []byte, pcf *ControlField, payload []byte) *Packet {
	var field *ControlField
	if e.cfg.Mode == ModeNormal {
		field = &ControlField{}
		if pcf != nil {
			*field = *pcf
		}
	}
	p := NewPacket(address, field, payload, 0)
	var w bitWriter
	bits := pack(e.cfg.Mode, p, &w)
	p.crc = calculateCRC(e.cfg.CRC, w.bytes(), bits)
	return p
}

// Bits returns the frame as one value (0 or 1) per on-air bit: preamble,
// address, PCF, payload and the packet's CRC.
func (e *Encoder) Bits(p *Packet) []byte {
	bits := make([]byte, 0, e.cfg.FrameBits(len(p.payload)))
	bits = appendBits(bits, uint32(Preamble(p.address)), PreambleBits)

	var w bitWriter
	n := pack(e.cfg.Mode, p, &w)
	packed := w.bytes()
	for i := 0; i < n; i++ {
		bits = append(bits, packed[i/8]>>(7-uint(i%8))&1)
	}

	return appendBits(bits, uint32(p.crc), int(e.cfg.CRC))
}

// Encode returns the frame as a sample stream, each bit repeated
// SamplesPerBit times.
func (e *Encoder) Encode(p *Packet) []byte {
	return Oversample(e.Bits(p), e.cfg.SamplesPerBit)
}

// Oversample repeats every bit spb times
func Oversample(bits []byte, spb int) []byte {
	samples := make([]byte, 0, len(bits)*spb)
	for _, b := range bits {
		for i := 0; i < spb; i++ {
			samples = append(samples, b)
		}
	}
	return samples
}

// appendBits appends the low n bits of v, MSB first, one bit per byte.
func appendBits(dst []byte, v uint32, n int) []byte {
	for i := n - 1; i >= 0; i-- {
		dst = append(dst, byte(v>>uint(i)&1))
	}
	return dst
}
