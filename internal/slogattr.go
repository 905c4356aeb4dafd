package internal

import (
	"encoding/binary"
	"log/slog"
)

// SlogAddr4 returns a slog.Attr for a 4-byte IPv4 address
// packed into a uint64 without allocating a string.
func SlogAddr4(key string, addr [4]byte) slog.Attr {
	return slog.Uint64(key, uint64(binary.BigEndian.Uint32(addr[:])))
}

// SlogHex16 returns a slog.Attr holding a register value. Text handlers
// print it in hexadecimal only when the level is enabled.
func SlogHex16(key string, v uint16) slog.Attr {
	return slog.Any(key, hex16(v))
}

type hex16 uint16

func (h hex16) LogValue() slog.Value {
	const digits = "0123456789abcdef"
	var buf [6]byte
	buf[0], buf[1] = '0', 'x'
	for i := 5; i >= 2; i-- {
		buf[i] = digits[h&0xf]
		h >>= 4
	}
	return slog.StringValue(string(buf[:]))
}
