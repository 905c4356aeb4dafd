// Package dummy implements a PHY driver for MACs wired directly to another
// MAC or switch port without a PHY. It emulates a link that comes up on the
// first poll with a fixed speed and duplex and never touches the management bus.
package dummy

import (
	"log/slog"
	"time"

	"github.com/soypat/ethphy"
	"github.com/soypat/ethphy/internal"
	"github.com/soypat/ethphy/phy"
)

// Config configures a dummy PHY.
type Config struct {
	// ResetPin is pulsed low for 100µs by ResetHW. May be nil.
	ResetPin phy.ResetPin
	Logger   *slog.Logger
}

// PHY is a dummy PHY driver. Link defaults to down, 100Mbps full duplex.
type PHY struct {
	m        phy.Mediator
	resetPin phy.ResetPin
	log      *slog.Logger
	up       bool
	speed    phy.Speed
	duplex   phy.Duplex
}

var _ phy.Driver = (*PHY)(nil)

// New returns a dummy PHY. Call SetMediator before use.
func New(cfg Config) *PHY {
	return &PHY{
		resetPin: cfg.ResetPin,
		log:      cfg.Logger,
		speed:    phy.Speed100M,
		duplex:   phy.FullDuplex,
	}
}

// SetMediator implements [phy.Driver]. Mediator must not be nil.
func (p *PHY) SetMediator(m phy.Mediator) error {
	if m == nil {
		return ethphy.ErrInvalidArg
	}
	p.m = m
	return nil
}

// GetLink brings the emulated link up if it is down, reporting speed, duplex,
// no pause ability and link up in that order.
func (p *PHY) GetLink() error {
	if p.up {
		return nil
	}
	if p.m == nil {
		return ethphy.ErrInvalidState
	}
	p.up = true
	changes := [4]phy.StateChange{
		{Kind: phy.StateSpeed, Speed: p.speed},
		{Kind: phy.StateDuplex, Duplex: p.duplex},
		{Kind: phy.StatePause, Pause: false},
		{Kind: phy.StateLink, Up: true},
	}
	for _, sc := range changes {
		err := p.m.OnStateChanged(sc)
		if err != nil {
			return err
		}
	}
	internal.LogAttrs(p.log, slog.LevelDebug, "dummy:link-up",
		slog.String("speed", p.speed.String()), slog.String("duplex", p.duplex.String()))
	return nil
}

// SetLink implements [phy.Driver]. A change is reported immediately.
func (p *PHY) SetLink(up bool) error {
	if p.up == up {
		return nil
	}
	if p.m == nil {
		return ethphy.ErrInvalidState
	}
	p.up = up
	return p.m.OnStateChanged(phy.StateChange{Kind: phy.StateLink, Up: up})
}

// SetSpeed stores the emulated speed and cycles the link to report it.
func (p *PHY) SetSpeed(speed phy.Speed) error {
	p.up = false
	p.speed = speed
	p.propagate()
	return nil
}

// SetDuplex stores the emulated duplex mode and cycles the link to report it.
func (p *PHY) SetDuplex(duplex phy.Duplex) error {
	p.up = false
	p.duplex = duplex
	p.propagate()
	return nil
}

// propagate reports the new configuration. Notification errors are logged and
// dropped so the configuration change itself never fails.
func (p *PHY) propagate() {
	err := p.GetLink()
	if err != nil {
		internal.LogAttrs(p.log, slog.LevelWarn, "dummy:propagate", slog.String("err", err.Error()))
	}
}

// AutoNegotiation implements [phy.Driver]. There is nothing to negotiate:
// status reports disabled and every other command is not supported.
func (p *PHY) AutoNegotiation(cmd phy.AutoNegCmd) (bool, error) {
	switch cmd {
	case phy.AutoNegRestart, phy.AutoNegEnable, phy.AutoNegDisable:
		return false, ethphy.ErrNotSupported
	case phy.AutoNegStatus:
		return false, nil
	}
	return false, ethphy.ErrInvalidArg
}

// ResetHW pulses the reset pin if configured.
func (p *PHY) ResetHW() error {
	return phy.PulseReset(p.resetPin, 100*time.Microsecond)
}

// Link reports the emulated link state.
func (p *PHY) Link() phy.LinkState {
	return phy.LinkState{Up: p.up, Speed: p.speed, Duplex: p.duplex}
}

func (p *PHY) Init() error { return nil }
func (p *PHY) Deinit() error { return nil }
func (p *PHY) Reset() error { return nil }
func (p *PHY) PowerControl(enable bool) error { return nil }
func (p *PHY) Addr() (uint8, error) { return 0, nil }
func (p *PHY) SetAddr(addr uint8) error { return nil }
func (p *PHY) AdvertisePauseAbility(ability bool) error { return nil }
func (p *PHY) SetLoopback(enable bool) error { return nil }
func (p *PHY) Ioctl(cmd phy.IoctlCmd, arg any) error { return ethphy.ErrNotSupported }
func (p *PHY) Close() error {
	p.m = nil
	return nil
}
