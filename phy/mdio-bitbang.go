package phy

import (
	"errors"
	"time"

	"github.com/soypat/ethphy"
)

var _ MDIOBus = (*MDIOBitBang)(nil) // compile time guarantee of interface implementation.

// Frame fields of IEEE 802.3 Clause 22 (ST=01) and Clause 45 (ST=00) management frames.
const (
	stC22 = 0b01
	stC45 = 0b00

	opC22Read  = 0b10
	opC22Write = 0b01
	opC45Addr  = 0b00
	opC45Write = 0b01
	opC45Read  = 0b11

	// turnaround is driven by the station on writes.
	turnaround = 0b10
)

var errNoTurnaround = errors.New("PHY did not drive turnaround low")

// BitBangPins is the GPIO access needed to drive an MDIO bus in software.
// MDC is the clock line, MDIO the bidirectional data line.
type BitBangPins interface {
	// SetMDC drives the clock line.
	SetMDC(high bool)
	// SetMDIO drives the data line. Only called with the data line configured as output.
	SetMDIO(high bool)
	// GetMDIO samples the data line.
	GetMDIO() bool
	// SetMDIODir configures the data line as an output or as a pulled up input.
	SetMDIODir(output bool)
}

// MDIOBitBang is a management station that drives MDC and MDIO from GPIO,
// for boards whose MAC exposes no MDIO controller. It speaks Clause 22 and
// Clause 45 framing. A TinyGo pin adapter looks like:
//
//	type pins struct{ mdc, mdio machine.Pin }
//
//	func (p pins) SetMDC(b bool)  { p.mdc.Set(b) }
//	func (p pins) SetMDIO(b bool) { p.mdio.Set(b) }
//	func (p pins) GetMDIO() bool  { return p.mdio.Get() }
//	func (p pins) SetMDIODir(out bool) {
//		mode := machine.PinInputPullup
//		if out {
//			mode = machine.PinOutput
//		}
//		p.mdio.Configure(machine.PinConfig{Mode: mode})
//	}
type MDIOBitBang struct {
	pins BitBangPins
	// halfPeriod is the time MDC is held at each level. Zero toggles as fast as the pins allow.
	halfPeriod time.Duration
}

// NewMDIOBitBang returns a bus that drives pins with the given clock half period.
// The IEEE 802.3 minimum MDC period is 400ns, PHY turnaround may take up to 300ns.
func NewMDIOBitBang(pins BitBangPins, halfPeriod time.Duration) *MDIOBitBang {
	if pins == nil {
		panic("nil pins")
	}
	pins.SetMDC(false)
	pins.SetMDIODir(true)
	return &MDIOBitBang{pins: pins, halfPeriod: halfPeriod}
}

// Read reads a PHY register. Uses Clause 45 framing if devAddr is non-zero.
func (m *MDIOBitBang) Read(phyAddr, devAddr uint8, regAddr uint16) (uint16, error) {
	err := validateFrame(phyAddr, devAddr, regAddr)
	if err != nil {
		return 0, err
	}
	if devAddr == 0 {
		return m.request(header(stC22, opC22Read, phyAddr, uint8(regAddr)))
	}
	m.transmit(header(stC45, opC45Addr, phyAddr, devAddr), regAddr)
	return m.request(header(stC45, opC45Read, phyAddr, devAddr))
}

// Write writes a value to a PHY register. Uses Clause 45 framing if devAddr is non-zero.
func (m *MDIOBitBang) Write(phyAddr, devAddr uint8, regAddr, value uint16) error {
	err := validateFrame(phyAddr, devAddr, regAddr)
	if err != nil {
		return err
	}
	if devAddr == 0 {
		m.transmit(header(stC22, opC22Write, phyAddr, uint8(regAddr)), value)
		return nil
	}
	m.transmit(header(stC45, opC45Addr, phyAddr, devAddr), regAddr)
	m.transmit(header(stC45, opC45Write, phyAddr, devAddr), value)
	return nil
}

func validateFrame(phyAddr, devAddr uint8, regAddr uint16) error {
	if phyAddr > 31 {
		return errInvalidPhyAddr
	} else if devAddr > 31 || (devAddr == 0 && regAddr > 31) {
		return ethphy.ErrInvalidArg
	}
	return nil
}

// header returns the 14 bits following the preamble: ST, OP, PHYAD and REGAD
// (DEVAD for Clause 45).
func header(st, op, phy, reg uint8) uint16 {
	return uint16(st)<<12 | uint16(op)<<10 | uint16(phy&0x1f)<<5 | uint16(reg&0x1f)
}

// transmit sends a frame the station drives end to end: writes and Clause 45 address frames.
func (m *MDIOBitBang) transmit(hdr, data uint16) {
	m.pins.SetMDIODir(true)
	m.send(0xffff_ffff, 32) // Preamble.
	m.send(uint32(hdr), 14)
	m.send(turnaround, 2)
	m.send(uint32(data), 16)
	m.pins.SetMDIODir(false)
	m.recv(1) // Idle.
}

// request sends a read frame header and clocks in the PHY's reply.
func (m *MDIOBitBang) request(hdr uint16) (uint16, error) {
	m.pins.SetMDIODir(true)
	m.send(0xffff_ffff, 32)
	m.send(uint32(hdr), 14)
	m.pins.SetMDIODir(false)
	// The PHY drives the second turnaround bit low. A pulled up line means nobody answered.
	if m.recv(1) != 0 {
		m.recv(32) // Flush whatever is left of the frame.
		return 0xffff, errNoTurnaround
	}
	v := m.recv(16)
	m.recv(1)
	return uint16(v), nil
}

// send clocks out the n low bits of v, most significant first. Data is set up
// before the MDC rising edge the PHY samples on.
func (m *MDIOBitBang) send(v uint32, n int) {
	for i := n - 1; i >= 0; i-- {
		m.pins.SetMDIO(v&(1<<i) != 0)
		m.delay()
		m.pins.SetMDC(true)
		m.delay()
		m.pins.SetMDC(false)
	}
}

// recv clocks in n bits, most significant first. The PHY drives data on the rising edge.
func (m *MDIOBitBang) recv(n int) (v uint32) {
	for i := 0; i < n; i++ {
		m.delay()
		m.pins.SetMDC(true)
		m.delay()
		m.pins.SetMDC(false)
		v <<= 1
		if m.pins.GetMDIO() {
			v |= 1
		}
	}
	return v
}

func (m *MDIOBitBang) delay() {
	if m.halfPeriod > 0 {
		time.Sleep(m.halfPeriod)
	}
}
