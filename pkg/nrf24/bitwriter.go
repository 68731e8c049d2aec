// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package nrf24

// bitWriter packs values MSB first into a fixed buffer at an arbitrary bit
// offset. Unwritten trailing bits of the last byte stay zero.
type bitWriter struct {
	buf  [maxPackedSize]byte
	bits int
}

func (w *bitWriter) reset() {
	w.buf = [maxPackedSize]byte{}
	w.bits = 0
}

// writeBits appends the low n bits of v, most significant first.
func (w *bitWriter) writeBits(v uint32, n int) {
	for i := n - 1; i >= 0; i-- {
		if v>>uint(i)&1 != 0 {
			w.buf[w.bits/8] |= 0x80 >> uint(w.bits%8)
		}
		w.bits++
	}
}

func (w *bitWriter) writeBytes(p []byte) {
	for _, b := range p {
		w.writeBits(uint32(b), 8)
	}
}

// bytes returns the written bytes, including a partial last byte
func (w *bitWriter) bytes() []byte {
	return w.buf[:(w.bits+7)/8]
}
