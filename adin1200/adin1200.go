// Package adin1200 implements a driver for the Analog Devices ADIN1200
// 10/100 Mbps Ethernet PHY.
package adin1200

import (
	"log/slog"

	"github.com/soypat/ethphy/internal"
	"github.com/soypat/ethphy/phy"
)

// Chip identification.
const (
	OUI   = 0xa0ef
	Model = 0x02
)

// AddrPS1R is the address of the vendor PHY Status 1 register.
const AddrPS1R = 0x1a

// PS1R fields.
var (
	ps1rLinkStat = internal.Bit(6)
	ps1rHCDTech  = internal.Field{Shift: 7, Width: 3}
)

// HCDTech is the highest common denominator technology resolved by auto-negotiation as reported in PS1R.
type HCDTech uint8

const (
	HCD10BaseTHalf   HCDTech = iota // 10BASE-T half-duplex
	HCD10BaseTFull                  // 10BASE-T full-duplex
	HCD100BaseTXHalf                // 100BASE-TX half-duplex
	HCD100BaseTXFull                // 100BASE-TX full-duplex
)

// Resolve returns the speed and duplex of the technology. For codes outside
// the four known technologies ok is false and the caller keeps its defaults.
func (h HCDTech) Resolve() (speed phy.Speed, duplex phy.Duplex, ok bool) {
	switch h {
	case HCD10BaseTHalf:
		return phy.Speed10M, phy.HalfDuplex, true
	case HCD10BaseTFull:
		return phy.Speed10M, phy.FullDuplex, true
	case HCD100BaseTXHalf:
		return phy.Speed100M, phy.HalfDuplex, true
	case HCD100BaseTXFull:
		return phy.Speed100M, phy.FullDuplex, true
	}
	return 0, 0, false
}

// PHY is an ADIN1200 driver. Operations not overridden here are the IEEE 802.3 ones of [phy.Generic].
type PHY struct {
	phy.Generic
}

var _ phy.Driver = (*PHY)(nil)

// New returns an ADIN1200 driver. Call SetMediator and Init before use.
func New(cfg phy.Config) (*PHY, error) {
	p := new(PHY)
	err := p.Configure(cfg)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Init performs basic PHY initialization and checks the chip is an ADIN1200.
// A mismatch returns a [*phy.IDError].
func (p *PHY) Init() error {
	err := p.BasicInit()
	if err != nil {
		return err
	}
	return p.CheckID(OUI, Model)
}

// GetLink polls link status. On a link edge to up the negotiation result is read from PS1R.
func (p *PHY) GetLink() error {
	anlpar, err := p.ReadReg(phy.AddrANLPAR)
	if err != nil {
		return err
	}
	bmsr, err := p.ReadReg(phy.AddrBMSR)
	if err != nil {
		return err
	}
	up := phy.BMSR(bmsr).LinkUp()
	if !p.LinkChanged(up) {
		return nil
	}
	st := phy.LinkState{Up: up, Speed: phy.Speed10M, Duplex: phy.HalfDuplex}
	if up {
		ps1r, err := p.ReadReg(AddrPS1R)
		if err != nil {
			return err
		}
		tech := HCDTech(ps1rHCDTech.Get(ps1r))
		if speed, duplex, ok := tech.Resolve(); ok {
			st.Speed, st.Duplex = speed, duplex
		} else {
			internal.LogAttrs(p.Logger(), slog.LevelWarn, "adin1200:unknown-hcd", slog.Uint64("tech", uint64(tech)))
		}
		st.Pause = st.Duplex == phy.FullDuplex && phy.ANAR(anlpar)&phy.ANARPause != 0
		internal.LogAttrs(p.Logger(), internal.LevelTrace, "adin1200:ps1r",
			internal.SlogHex16("ps1r", ps1r), slog.Bool("linkstat", ps1rLinkStat.IsSet(ps1r)))
	}
	return p.NotifyLink(st)
}
