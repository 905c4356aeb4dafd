package ethphy

import (
	"encoding/binary"
)

// CRC791 accumulates the RFC 791 Internet checksum: the ones' complement sum
// of 16 bit big endian words. Sum16 returns the complemented value carried in
// IPv4 headers, Fold16 the raw sum hardware checksum engines are seeded with.
//
// The zero value of CRC791 is ready to use.
type CRC791 struct {
	sum uint32
}

// fold reduces sum to 16 bits adding carries back in (end-around carry).
func fold(sum uint32) uint16 {
	for sum > 0xffff {
		sum = (sum & 0xffff) + sum>>16
	}
	return uint16(sum)
}

// WriteEven adds the bytes in buf to the running checksum. Panics if len(buf) is odd.
func (c *CRC791) WriteEven(buf []byte) {
	for i := 0; i < len(buf); i += 2 {
		c.sum += uint32(binary.BigEndian.Uint16(buf[i:]))
	}
}

// AddUint32 adds a 32 bit value to the running checksum interpreted as BigEndian (network order).
func (c *CRC791) AddUint32(value uint32) {
	c.AddUint16(uint16(value >> 16))
	c.AddUint16(uint16(value))
}

// AddUint16 adds a 16 bit value to the running checksum interpreted as BigEndian (network order).
func (c *CRC791) AddUint16(value uint16) {
	c.sum += uint32(value)
}

// Fold16 returns the ones' complement sum of the data written to c thus far
// without the final complement. This is the value PHYs that insert IP checksums
// in hardware expect to be preloaded with.
func (c *CRC791) Fold16() uint16 {
	return fold(c.sum)
}

// Sum16 calculates the checksum with the data written to c thus far.
func (c *CRC791) Sum16() uint16 {
	return ^fold(c.sum)
}

// Reset zeros out the CRC791, resetting it to the initial state.
func (c *CRC791) Reset() { *c = CRC791{} }
