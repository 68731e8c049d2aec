// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package nrf24

// Checksum8 computes the nRF24 one-byte CRC (polynomial 0x07, initial 0xFF) over
// the first bits bits of data, MSB first. bits need not be a multiple of 8.
func Checksum8(data []byte, bits int) uint8 {
	crc := uint8(crc8Initial)
	for i := 0; i < bits; i++ {
		in := data[i/8] >> (7 - uint(i%8)) & 1
		if crc>>7 != in {
			crc = crc<<1 ^ crc8Polynomial
		} else {
			crc <<= 1
		}
	}
	return crc
}

// Checksum16 computes the nRF24 two-byte CRC (CRC-16-CCITT, initial 0xFFFF) over
// the first bits bits of data, MSB first.
func Checksum16(data []byte, bits int) uint16 {
	crc := uint16(crc16Initial)
	for i := 0; i < bits; i++ {
		in := uint16(data[i/8]>>(7-uint(i%8))) & 1
		if crc>>15 != in {
			crc = crc<<1 ^ crc16Polynomial
		} else {
			crc <<= 1
		}
	}
	return crc
}

// calculateCRC computes the CRC of the configured width.
func calculateCRC(width CRCWidth, data []byte, bits int) uint16 {
	if width == CRC16 {
		return Checksum16(data, bits)
	}
	return uint16(Checksum8(data, bits))
}
