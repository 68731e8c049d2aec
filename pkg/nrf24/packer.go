// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package nrf24

// pack serializes the packet into w in the bit order the transmitter ran its
// CRC over.
//
// In normal mode the 9-bit PCF leaves every following payload byte shifted
// right by one bit, so each packed byte after the PCF is the previous byte's
// low bit followed by the top 7 bits of the current one. The last payload
// bit ends up alone in a trailing partial byte.
func pack(mode Mode, p *Packet, w *bitWriter) int {
	w.reset()
	w.writeBytes(p.address)
	if mode == ModeNormal {
		w.writeBits(uint32(p.pcf.PayloadLength), pcfLengthBits)
		w.writeBits(uint32(p.pcf.PID), pcfPIDBits)
		var noAck uint32
		if p.pcf.NoAck {
			noAck = 1
		}
		w.writeBits(noAck, 1)
	}
	w.writeBytes(p.payload)
	return w.bits
}

// Pack returns the CRC input of p and its length in bits.
func Pack(cfg *Config, p *Packet) ([]byte, int) {
	var w bitWriter
	bits := pack(cfg.Mode, p, &w)
	out := make([]byte, len(w.bytes()))
	copy(out, w.bytes())
	return out, bits
}
