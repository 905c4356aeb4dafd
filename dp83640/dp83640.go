// Package dp83640 implements a driver for the Texas Instruments DP83640
// Precision PHYTER, a 10/100 Mbps Ethernet PHY with IEEE 1588 hardware
// timestamping.
//
// Vendor registers at 0x14 and above are banked in pages selected through
// PAGESEL. Every operation of this package selects the page it needs before
// touching banked registers; the selected page is never cached so external
// tools sharing the bus cannot desynchronize the driver.
//
// The driver is not safe for concurrent use. Multi-word accesses to the PTP
// data registers must not be interleaved.
package dp83640

import (
	"errors"
	"log/slog"

	"github.com/soypat/ethphy"
	"github.com/soypat/ethphy/internal"
	"github.com/soypat/ethphy/phy"
)

// Chip identification.
const (
	OUI   = 0x80017
	Model = 0x0e
)

// PHY is a DP83640 driver. Link operations not overridden here are the
// IEEE 802.3 ones of [phy.Generic].
type PHY struct {
	phy.Generic
	// lastDuration is the temporary rate duration last written to PTP_TRDL/H.
	lastDuration uint32
}

var _ phy.Driver = (*PHY)(nil)

// New returns a DP83640 driver. Call SetMediator and Init before use.
func New(cfg phy.Config) (*PHY, error) {
	p := new(PHY)
	err := p.Configure(cfg)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Init performs basic PHY initialization and checks the chip is a DP83640.
// A mismatch returns a [*phy.IDError].
func (p *PHY) Init() error {
	err := p.BasicInit()
	if err != nil {
		return err
	}
	p.lastDuration = 0
	return p.CheckID(OUI, Model)
}

// GetLink polls link status. Speed and duplex are resolved from PHYSTS on a link edge to up.
func (p *PHY) GetLink() error {
	anlpar, err := p.ReadReg(phy.AddrANLPAR)
	if err != nil {
		return err
	}
	physts, err := p.ReadReg(AddrPHYSTS)
	if err != nil {
		return err
	}
	up := stsLink.IsSet(physts)
	if !p.LinkChanged(up) {
		return nil
	}
	st := phy.LinkState{Up: up, Speed: phy.Speed10M, Duplex: phy.HalfDuplex}
	if up {
		if !stsSpeed.IsSet(physts) {
			st.Speed = phy.Speed100M
		}
		if stsDuplex.IsSet(physts) {
			st.Duplex = phy.FullDuplex
		}
		st.Pause = st.Duplex == phy.FullDuplex && phy.ANAR(anlpar)&phy.ANARPause != 0
	}
	return p.NotifyLink(st)
}

// Driver specific ioctl commands.
const (
	// IoctlPTPGetTime reads the PTP clock. Argument is *Timestamp.
	IoctlPTPGetTime phy.IoctlCmd = phy.IoctlVendor + iota
	// IoctlPTPSetTime loads the PTP clock. Argument is *Timestamp.
	IoctlPTPSetTime
	// IoctlReadPaged reads a vendor register. Argument is *RegAccess.
	IoctlReadPaged
	// IoctlWritePaged writes a vendor register. Argument is *RegAccess.
	IoctlWritePaged
)

// RegAccess is the argument of the paged register ioctls.
type RegAccess struct {
	Reg   Reg
	Value uint16
}

// Ioctl extends [phy.Generic.Ioctl] with PTP clock and paged register commands.
func (p *PHY) Ioctl(cmd phy.IoctlCmd, arg any) (err error) {
	switch cmd {
	case IoctlPTPGetTime, IoctlPTPSetTime:
		ts, ok := arg.(*Timestamp)
		if !ok || ts == nil {
			return ethphy.ErrInvalidArg
		}
		if cmd == IoctlPTPGetTime {
			*ts, err = p.Time()
		} else {
			err = p.SetTime(*ts)
		}
		return err
	case IoctlReadPaged, IoctlWritePaged:
		ra, ok := arg.(*RegAccess)
		if !ok || ra == nil {
			return ethphy.ErrInvalidArg
		}
		if cmd == IoctlReadPaged {
			ra.Value, err = p.ReadPaged(ra.Reg)
		} else {
			err = p.WritePaged(ra.Reg, ra.Value)
		}
		return err
	}
	return p.Generic.Ioctl(cmd, arg)
}

// ReadPaged selects the page of r if it is banked and reads it.
func (p *PHY) ReadPaged(r Reg) (uint16, error) {
	if r >= numRegs {
		return 0, ethphy.ErrInvalidArg
	}
	if r.Paged() {
		err := p.selectPage(r.Page())
		if err != nil {
			return 0, err
		}
	}
	return p.read(r)
}

// WritePaged selects the page of r if it is banked and writes v to it.
func (p *PHY) WritePaged(r Reg, v uint16) error {
	if r >= numRegs {
		return ethphy.ErrInvalidArg
	}
	if r.Paged() {
		err := p.selectPage(r.Page())
		if err != nil {
			return err
		}
	}
	return p.write(r, v)
}

func (p *PHY) selectPage(pg Page) error {
	return p.WriteReg(AddrPAGESEL, uint16(pg))
}

// read reads r assuming its page is selected.
func (p *PHY) read(r Reg) (uint16, error) {
	v, err := p.ReadReg(r.Addr())
	if err != nil {
		return 0, withPage(err, r)
	}
	return v, nil
}

// write writes r assuming its page is selected.
func (p *PHY) write(r Reg, v uint16) error {
	err := p.WriteReg(r.Addr(), v)
	if err != nil {
		return withPage(err, r)
	}
	return nil
}

// modify performs a read-modify-write of r assuming its page is selected and returns the value written.
func (p *PHY) modify(r Reg, fn func(v uint16) uint16) (uint16, error) {
	v, err := p.read(r)
	if err != nil {
		return 0, err
	}
	v = fn(v)
	return v, p.write(r, v)
}

// withPage annotates a register error with the page of r.
func withPage(err error, r Reg) error {
	var regErr *ethphy.RegisterError
	if r.Paged() && errors.As(err, &regErr) {
		regErr.Page = int(r.Page())
	}
	return err
}

func (p *PHY) debug(msg string, attrs ...slog.Attr) {
	internal.LogAttrs(p.Logger(), slog.LevelDebug, msg, attrs...)
}
