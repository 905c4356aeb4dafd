package internal

// Field is a contiguous bit field inside a 16-bit register.
// Bit 0 is the least significant bit of the register.
type Field struct {
	Shift uint8
	Width uint8
}

// Bit returns a single bit field at position n.
func Bit(n uint8) Field { return Field{Shift: n, Width: 1} }

func (f Field) max() uint16 {
	return uint16(uint32(1)<<f.Width - 1)
}

// Mask returns the field bits in register position.
func (f Field) Mask() uint16 { return f.max() << f.Shift }

// Get extracts the field from a register value.
func (f Field) Get(reg uint16) uint16 {
	return (reg >> f.Shift) & f.max()
}

// Set returns reg with the field replaced by v. Bits of v that do not fit the field are discarded.
func (f Field) Set(reg, v uint16) uint16 {
	return reg&^f.Mask() | (v&f.max())<<f.Shift
}

// IsSet reports whether any bit of the field is set in reg.
func (f Field) IsSet(reg uint16) bool { return reg&f.Mask() != 0 }

// SetBool sets every bit of the field when b is true and clears them otherwise.
func (f Field) SetBool(reg uint16, b bool) uint16 {
	if b {
		return reg | f.Mask()
	}
	return reg &^ f.Mask()
}
