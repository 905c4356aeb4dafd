package ethphy

import (
	"errors"
	"strconv"
)

type errGeneric uint8

// Generic errors common to PHY drivers.
const (
	_               errGeneric = iota // non-initialized err
	ErrInvalidArg                     // invalid argument
	ErrInvalidAddr                    // invalid PHY address
	ErrNotSupported                   // operation not supported
	ErrNoEvent                        // no event detected
	ErrWrongChip                      // wrong chip ID
	ErrTriggerLate                    // trigger registered too late
	ErrTimeout                        // timeout
	ErrShortBuffer                    // short buffer
	ErrInvalidState                   // invalid state
)

func (err errGeneric) Error() string {
	return err.String()
}

func (err errGeneric) String() string {
	switch err {
	case ErrInvalidArg:
		return "invalid argument"
	case ErrInvalidAddr:
		return "invalid PHY address"
	case ErrNotSupported:
		return "operation not supported"
	case ErrNoEvent:
		return "no event detected"
	case ErrWrongChip:
		return "wrong chip ID"
	case ErrTriggerLate:
		return "trigger registered too late"
	case ErrTimeout:
		return "timeout"
	case ErrShortBuffer:
		return "short buffer"
	case ErrInvalidState:
		return "invalid state"
	}
	return "errGeneric(" + strconv.Itoa(int(err)) + ")"
}

// Is reports errors.ErrUnsupported as equivalent to [ErrNotSupported] so
// callers may use either sentinel.
func (err errGeneric) Is(target error) bool {
	return err == ErrNotSupported && target == errors.ErrUnsupported
}

// RegisterError is returned when a register transaction on the management
// bus fails. The multi-step operation in progress is aborted and no rollback
// is attempted, so the PHY may be left with a partially applied configuration.
type RegisterError struct {
	Op   string // "read" or "write".
	Page int    // Page selected during the access, -1 if the register is unpaged.
	Reg  uint16
	Err  error
}

func (e *RegisterError) Error() string {
	var buf [64]byte
	b := append(buf[:0], "phy "...)
	b = append(b, e.Op...)
	b = append(b, " reg 0x"...)
	b = strconv.AppendUint(b, uint64(e.Reg), 16)
	if e.Page >= 0 {
		b = append(b, " page "...)
		b = strconv.AppendInt(b, int64(e.Page), 10)
	}
	if e.Err != nil {
		b = append(b, ": "...)
		b = append(b, e.Err.Error()...)
	}
	return string(b)
}

func (e *RegisterError) Unwrap() error { return e.Err }
