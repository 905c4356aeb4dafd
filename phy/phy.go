// Package phy provides Ethernet PHY management via MDIO.
// It defines the host driver interface PHY drivers implement, the IEEE 802.3
// Clause 22 base driver vendor drivers embed and management bus transports.
package phy

import (
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/soypat/ethphy"
	"github.com/soypat/ethphy/internal"
)

const (
	defaultResetTimeout = 100 * time.Millisecond
	defaultResetAssert  = 100 * time.Microsecond
)

var errInvalidPhyAddr error = ethphy.ErrInvalidAddr

// Generic is an IEEE 802.3 Clause 22 PHY driver. It implements every
// [Driver] operation with standard registers only. Vendor drivers embed
// Generic by value and override the operations their chip does differently,
// usually Init and GetLink.
type Generic struct {
	bus Mediator
	// addr is negative until set or detected.
	addr         int8
	linkUp       bool
	resetTimeout time.Duration
	resetAssert  time.Duration
	resetPin     ResetPin
	log          *slog.Logger
}

var _ Driver = (*Generic)(nil) // compile time guarantee of interface implementation.

// NewGeneric returns a Generic driver configured with cfg.
func NewGeneric(cfg Config) (*Generic, error) {
	g := new(Generic)
	err := g.Configure(cfg)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// Configure resets all state of the driver, mediator included, and applies cfg. Does not access the bus.
func (g *Generic) Configure(cfg Config) error {
	if cfg.Addr > 31 || (cfg.Addr < 0 && cfg.Addr != AddrAuto) {
		return errInvalidPhyAddr
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = defaultResetTimeout
	}
	if cfg.ResetAssert <= 0 {
		cfg.ResetAssert = defaultResetAssert
	}
	*g = Generic{
		addr:         cfg.Addr,
		resetTimeout: cfg.ResetTimeout,
		resetAssert:  cfg.ResetAssert,
		resetPin:     cfg.ResetPin,
		log:          cfg.Logger,
	}
	return nil
}

// SetMediator implements [Driver].
func (g *Generic) SetMediator(m Mediator) error {
	if m == nil {
		return ethphy.ErrInvalidArg
	}
	g.bus = m
	return nil
}

// Logger returns the logger the driver was configured with. May be nil.
func (g *Generic) Logger() *slog.Logger { return g.log }

// Init implements [Driver]. It detects the PHY address if not set, powers the PHY up,
// resets it and logs its identifier registers.
func (g *Generic) Init() error {
	err := g.BasicInit()
	if err != nil {
		return err
	}
	oui, err := g.ReadOUI()
	if err != nil {
		return err
	}
	model, rev, err := g.ReadManufacturerInfo()
	if err != nil {
		return err
	}
	g.debug("phy:init", slog.Uint64("addr", uint64(g.addr)), slog.Uint64("oui", uint64(oui)),
		slog.Uint64("model", uint64(model)), slog.Uint64("rev", uint64(rev)))
	return nil
}

// BasicInit detects the PHY address when configured with [AddrAuto], powers the PHY up and resets it.
// Vendor Init implementations call it before checking the chip identity.
func (g *Generic) BasicInit() error {
	if g.bus == nil {
		return ethphy.ErrInvalidState
	}
	if g.addr < 0 {
		err := g.DetectAddr()
		if err != nil {
			return err
		}
	}
	err := g.PowerControl(true)
	if err != nil {
		return err
	}
	return g.Reset()
}

// Deinit implements [Driver] by powering the PHY down.
func (g *Generic) Deinit() error {
	return g.PowerControl(false)
}

// DetectAddr sets the driver address to the lowest address a PHY answers on.
func (g *Generic) DetectAddr() error {
	if g.bus == nil {
		return ethphy.ErrInvalidState
	}
	var found [32]uint8
	n, err := FindClause22PHYs(g.bus, found[:])
	if err != nil {
		g.logerr("phy:detect", slog.String("err", err.Error()))
		return err
	}
	g.addr = int8(found[0])
	g.debug("phy:detect", slog.Uint64("addr", uint64(found[0])), slog.Int("found", n))
	return nil
}

// CheckID reads the identifier registers and returns an [*IDError] if they
// do not match oui and model.
func (g *Generic) CheckID(oui uint32, model uint8) error {
	gotOUI, err := g.ReadOUI()
	if err != nil {
		return err
	}
	gotModel, _, err := g.ReadManufacturerInfo()
	if err != nil {
		return err
	}
	if gotOUI != oui || gotModel != model {
		err := &IDError{WantOUI: oui, WantModel: model, OUI: gotOUI, Model: gotModel}
		g.logerr("phy:wrong-chip", slog.Uint64("oui", uint64(gotOUI)), slog.Uint64("model", uint64(gotModel)))
		return err
	}
	return nil
}

// ReadOUI returns the 22 OUI bits held by the identifier registers,
// PHYIDR1 in the upper 16 bits and the top 6 bits of PHYIDR2 below them.
func (g *Generic) ReadOUI() (uint32, error) {
	id1, err := g.ReadReg(AddrPHYIDR1)
	if err != nil {
		return 0, err
	}
	id2, err := g.ReadReg(AddrPHYIDR2)
	if err != nil {
		return 0, err
	}
	return uint32(id1)<<6 | uint32(id2>>10), nil
}

// ReadManufacturerInfo returns the vendor model number and revision held in PHYIDR2.
func (g *Generic) ReadManufacturerInfo() (model, rev uint8, err error) {
	id2, err := g.ReadReg(AddrPHYIDR2)
	if err != nil {
		return 0, 0, err
	}
	return uint8(id2>>4) & 0x3f, uint8(id2) & 0xf, nil
}

// IDError is returned by Init when the identifier registers do not match the driver's chip.
// It matches [ethphy.ErrWrongChip].
type IDError struct {
	WantOUI   uint32
	WantModel uint8
	OUI       uint32
	Model     uint8
}

func (e *IDError) Error() string {
	return "wrong chip ID (read oui=0x" + strconv.FormatUint(uint64(e.OUI), 16) +
		", model=0x" + strconv.FormatUint(uint64(e.Model), 16) + ")"
}

func (e *IDError) Is(target error) bool { return target == ethphy.ErrWrongChip }

// Addr implements [Driver].
func (g *Generic) Addr() (uint8, error) {
	if g.addr < 0 {
		return 0, errInvalidPhyAddr
	}
	return uint8(g.addr), nil
}

// SetAddr implements [Driver].
func (g *Generic) SetAddr(addr uint8) error {
	if addr > 31 {
		return errInvalidPhyAddr
	}
	g.addr = int8(addr)
	return nil
}

// BasicControl reads the Basic Mode Control Register (BMCR, register 0).
func (g *Generic) BasicControl() (BMCR, error) {
	ctl, err := g.ReadReg(AddrBMCR)
	return BMCR(ctl), err
}

// BasicStatus reads the Basic Mode Status Register (BMSR, register 1).
func (g *Generic) BasicStatus() (BMSR, error) {
	stat, err := g.ReadReg(AddrBMSR)
	return BMSR(stat), err
}

// Reset implements [Driver]. It performs a software reset and waits for the reset bit to self-clear.
// Returns [ethphy.ErrTimeout] if the bit is still set after the configured reset timeout.
func (g *Generic) Reset() error {
	g.linkUp = false
	err := g.WriteReg(AddrBMCR, uint16(BMCRReset))
	if err != nil {
		return err
	}
	return g.waitBits(AddrBMCR, uint16(BMCRReset), 0)
}

// ResetHW implements [Driver]. Holds the reset line low for the configured assert time.
func (g *Generic) ResetHW() error {
	return PulseReset(g.resetPin, g.resetAssert)
}

// PulseReset drives pin low for assert and then releases it. A nil pin is a no-op.
func PulseReset(pin ResetPin, assert time.Duration) error {
	if pin == nil {
		return nil
	}
	pin(false)
	time.Sleep(assert)
	pin(true)
	return nil
}

// PowerControl implements [Driver]. Waits until the power down bit reads back as written.
func (g *Generic) PowerControl(enable bool) error {
	ctl, err := g.BasicControl()
	if err != nil {
		return err
	}
	want := BMCRPowerDown
	if enable {
		ctl &^= BMCRPowerDown
		want = 0
	} else {
		ctl |= BMCRPowerDown
	}
	err = g.WriteReg(AddrBMCR, uint16(ctl))
	if err != nil {
		return err
	}
	return g.waitBits(AddrBMCR, uint16(BMCRPowerDown), uint16(want))
}

// AutoNegotiation implements [Driver]. Restarting requires auto-negotiation to be
// enabled and fails with [ethphy.ErrInvalidState] otherwise.
func (g *Generic) AutoNegotiation(cmd AutoNegCmd) (enabled bool, err error) {
	ctl, err := g.BasicControl()
	if err != nil {
		return false, err
	}
	switch cmd {
	case AutoNegRestart:
		if ctl&BMCRANEnable == 0 {
			return false, ethphy.ErrInvalidState
		}
		ctl |= BMCRANRestart
	case AutoNegEnable:
		ctl |= BMCRANEnable | BMCRANRestart
	case AutoNegDisable:
		ctl &^= BMCRANEnable | BMCRANRestart
	case AutoNegStatus:
		return ctl&BMCRANEnable != 0, nil
	default:
		return false, ethphy.ErrInvalidArg
	}
	err = g.WriteReg(AddrBMCR, uint16(ctl))
	if err != nil {
		return false, err
	}
	ctl, err = g.BasicControl()
	if err != nil {
		return false, err
	}
	enabled = ctl&BMCRANEnable != 0
	g.debug("phy:autoneg", slog.String("cmd", cmd.String()), slog.Bool("enabled", enabled))
	return enabled, nil
}

// AdvertisePauseAbility implements [Driver] by setting or clearing both symmetric and asymmetric pause advertisement.
func (g *Generic) AdvertisePauseAbility(ability bool) error {
	anar, err := g.Advertisement()
	if err != nil {
		return err
	}
	return g.SetAdvertisement(anar.WithPause(ability, ability))
}

// SetLoopback enables or disables PHY near-end loopback mode (BMCR bit 14).
// In loopback mode, TX data is routed back to RX internally through PCS/PMA/PMD.
func (g *Generic) SetLoopback(enable bool) error {
	ctl, err := g.BasicControl()
	if err != nil {
		return err
	}
	if enable {
		ctl |= BMCRLoopback
	} else {
		ctl &^= BMCRLoopback
	}
	return g.WriteReg(AddrBMCR, uint16(ctl))
}

// SetSpeed implements [Driver] by writing the BMCR speed selection bits.
// Takes effect only with auto-negotiation disabled.
func (g *Generic) SetSpeed(speed Speed) error {
	var sel BMCR
	switch speed {
	case Speed10M:
	case Speed100M:
		sel = BMCRSpeed100
	case Speed1000M:
		sel = BMCRSpeed1000
	default:
		return ethphy.ErrInvalidArg
	}
	// Link is reconfigured, report it again on next poll.
	g.linkUp = false
	ctl, err := g.BasicControl()
	if err != nil {
		return err
	}
	ctl = ctl&^(BMCRSpeed100|BMCRSpeed1000) | sel
	return g.WriteReg(AddrBMCR, uint16(ctl))
}

// SetDuplex implements [Driver] by writing the BMCR duplex bit. Half duplex
// is refused with [ethphy.ErrInvalidState] while loopback is enabled.
func (g *Generic) SetDuplex(duplex Duplex) error {
	if duplex != HalfDuplex && duplex != FullDuplex {
		return ethphy.ErrInvalidArg
	}
	g.linkUp = false
	ctl, err := g.BasicControl()
	if err != nil {
		return err
	}
	if duplex == HalfDuplex {
		if ctl&BMCRLoopback != 0 {
			return ethphy.ErrInvalidState
		}
		ctl &^= BMCRFullDuplex
	} else {
		ctl |= BMCRFullDuplex
	}
	return g.WriteReg(AddrBMCR, uint16(ctl))
}

// SetupForced disables auto-negotiation and forces a specific link mode.
//
// Inspired by drivers/net/phy/phy_device.c
func (g *Generic) SetupForced(mode LinkMode) error {
	var ctl BMCR
	switch mode.SpeedMbps() {
	case 1000:
		ctl |= BMCRSpeed1000
	case 100:
		ctl |= BMCRSpeed100
	case 10:
		// No speed bits = 10Mbps
	default:
		return ethphy.ErrNotSupported
	}
	if mode.IsFullDuplex() {
		ctl |= BMCRFullDuplex
	}
	g.linkUp = false
	// Note: BMCRANEnable is NOT set, disabling auto-negotiation
	return g.WriteReg(AddrBMCR, uint16(ctl))
}

// Advertisement reads the current Auto-Negotiation Advertisement Register.
func (g *Generic) Advertisement() (ANAR, error) {
	val, err := g.ReadReg(AddrANAR)
	return ANAR(val), err
}

// SetAdvertisement writes to the Auto-Negotiation Advertisement Register.
// Does NOT restart auto-negotiation; call AutoNegotiation(AutoNegRestart) after if needed.
func (g *Generic) SetAdvertisement(ad ANAR) error {
	return g.WriteReg(AddrANAR, uint16(ad))
}

// LinkPartnerAdvertisement reads what the link partner is advertising (ANLPAR).
func (g *Generic) LinkPartnerAdvertisement() (ANAR, error) {
	val, err := g.ReadReg(AddrANLPAR)
	return ANAR(val), err
}

// NegotiatedLink returns the auto-negotiated link mode using standard MII registers.
// Returns LinkMode based on ANAR (our advertisement) AND ANLPAR (link partner ability).
// Priority order per IEEE 802.3 Annex 28B.3.
func (g *Generic) NegotiatedLink() (LinkMode, error) {
	status, err := g.BasicStatus()
	if err != nil {
		return LinkDown, err
	}
	if !status.AutoNegotiationComplete() {
		return LinkDown, errors.New("auto-negotiation not complete")
	}
	anar, err := g.Advertisement()
	if err != nil {
		return LinkDown, err
	}
	anlpar, err := g.LinkPartnerAdvertisement()
	if err != nil {
		return LinkDown, err
	}
	return (anar & anlpar).LinkMode(), nil
}

// WaitForLinkWithDeadline waits for link to establish until the deadline.
// If auto-negotiation is enabled (BMCR.ANEnable=1), waits for AN to complete first.
// Returns true if link is up, false if deadline exceeded.
//
// Per IEEE 802.3:
//   - BMSR.LinkStatus is latched-low, so first read clears any previous fault
//   - BMSR.ANComplete must be set before link parameters are valid (when AN enabled)
func (g *Generic) WaitForLinkWithDeadline(deadline time.Time) (bool, error) {
	const pollInterval = 50 * time.Millisecond
	ctl, err := g.BasicControl()
	if err != nil {
		return false, err
	} else if ctl&BMCRIsolate != 0 {
		return false, errors.New("PHY isolated from MII")
	} else if ctl&BMCRPowerDown != 0 {
		return false, errors.New("PHY powered down")
	}
	// First read clears latched-low bits (LinkStatus, ANComplete).
	_, _ = g.BasicStatus()
	anEnabled := ctl&BMCRANEnable != 0
	for time.Now().Before(deadline) {
		status, err := g.BasicStatus()
		if err != nil {
			return false, err
		}
		if (!anEnabled || status.AutoNegotiationComplete()) && status.LinkUp() {
			return true, nil
		}
		time.Sleep(pollInterval)
	}
	status, err := g.BasicStatus()
	if err != nil {
		return false, err
	}
	return status.LinkUp(), nil
}

// GetLink implements [Driver] for PHYs without a vendor resolution register.
// Speed and duplex come from the common advertised abilities when auto-negotiation
// is enabled and from the forced BMCR bits otherwise.
func (g *Generic) GetLink() error {
	anlpar, err := g.LinkPartnerAdvertisement()
	if err != nil {
		return err
	}
	bmsr, err := g.BasicStatus()
	if err != nil {
		return err
	}
	up := bmsr.LinkUp()
	if !g.LinkChanged(up) {
		return nil
	}
	st := LinkState{Up: up}
	if up {
		ctl, err := g.BasicControl()
		if err != nil {
			return err
		}
		mode := ctl.LinkMode()
		if ctl&BMCRANEnable != 0 {
			anar, err := g.Advertisement()
			if err != nil {
				return err
			}
			mode = (anar & anlpar).LinkMode()
		}
		st.Speed, st.Duplex = modeState(mode)
		st.Pause = st.Duplex == FullDuplex && anlpar&ANARPause != 0
	}
	return g.NotifyLink(st)
}

// LinkUp returns the link status last reported to the mediator.
func (g *Generic) LinkUp() bool { return g.linkUp }

// LinkChanged reports whether up differs from the link status last reported to the mediator.
// Vendor GetLink implementations decode the negotiation result only when it returns true.
func (g *Generic) LinkChanged(up bool) bool { return g.linkUp != up }

// NotifyLink reports st to the mediator and caches its link status. When the link
// is up speed, duplex and pause are reported before the link itself so the host can
// configure the MAC before traffic starts. When down only the link is reported.
// The cached status is updated only if every notification succeeds.
func (g *Generic) NotifyLink(st LinkState) error {
	if g.bus == nil {
		return ethphy.ErrInvalidState
	}
	if st.Up {
		changes := [3]StateChange{
			{Kind: StateSpeed, Speed: st.Speed},
			{Kind: StateDuplex, Duplex: st.Duplex},
			{Kind: StatePause, Pause: st.Pause},
		}
		for _, sc := range changes {
			err := g.bus.OnStateChanged(sc)
			if err != nil {
				return err
			}
		}
	}
	err := g.bus.OnStateChanged(StateChange{Kind: StateLink, Up: st.Up})
	if err != nil {
		return err
	}
	g.linkUp = st.Up
	g.debug("phy:link", slog.Bool("up", st.Up), slog.String("mode", st.Mode().String()), slog.Bool("pause", st.Pause))
	return nil
}

// SetLink implements [Driver]. The mediator is notified only if the link status changes.
func (g *Generic) SetLink(up bool) error {
	if !g.LinkChanged(up) {
		return nil
	}
	if g.bus == nil {
		return ethphy.ErrInvalidState
	}
	err := g.bus.OnStateChanged(StateChange{Kind: StateLink, Up: up})
	if err != nil {
		return err
	}
	g.linkUp = up
	return nil
}

// Ioctl implements [Driver] with raw register access commands.
func (g *Generic) Ioctl(cmd IoctlCmd, arg any) (err error) {
	switch cmd {
	case IoctlReadReg, IoctlWriteReg:
		ra, ok := arg.(*RegAccess)
		if !ok || ra == nil || ra.Reg > 31 {
			return ethphy.ErrInvalidArg
		}
		if cmd == IoctlReadReg {
			ra.Value, err = g.ReadReg(ra.Reg)
		} else {
			err = g.WriteReg(ra.Reg, ra.Value)
		}
		return err
	}
	return ethphy.ErrNotSupported
}

// Close implements [Driver]. Drops the mediator.
func (g *Generic) Close() error {
	g.bus = nil
	return nil
}

// ReadReg reads a Clause 22 register. Bus failures are returned as [*ethphy.RegisterError].
func (g *Generic) ReadReg(reg uint16) (uint16, error) {
	if g.bus == nil {
		return 0, ethphy.ErrInvalidState
	} else if g.addr < 0 {
		return 0, errInvalidPhyAddr
	}
	v, err := g.bus.Read(uint8(g.addr), 0, reg)
	if err != nil {
		g.debug("phy:read-fail", slog.Uint64("reg", uint64(reg)), slog.String("err", err.Error()))
		return 0, &ethphy.RegisterError{Op: "read", Page: -1, Reg: reg, Err: err}
	}
	g.trace("phy:read", slog.Uint64("reg", uint64(reg)), internal.SlogHex16("val", v))
	return v, nil
}

// WriteReg writes a Clause 22 register. Bus failures are returned as [*ethphy.RegisterError].
func (g *Generic) WriteReg(reg, value uint16) error {
	if g.bus == nil {
		return ethphy.ErrInvalidState
	} else if g.addr < 0 {
		return errInvalidPhyAddr
	}
	err := g.bus.Write(uint8(g.addr), 0, reg, value)
	if err != nil {
		g.debug("phy:write-fail", slog.Uint64("reg", uint64(reg)), slog.String("err", err.Error()))
		return &ethphy.RegisterError{Op: "write", Page: -1, Reg: reg, Err: err}
	}
	g.trace("phy:write", slog.Uint64("reg", uint64(reg)), internal.SlogHex16("val", value))
	return nil
}

// waitBits polls reg until the bits in mask equal want or the reset timeout expires.
func (g *Generic) waitBits(reg, mask, want uint16) error {
	deadline := time.Now().Add(g.resetTimeout)
	backoff := internal.NewBackoff(100*time.Microsecond, g.resetTimeout/8)
	for {
		v, err := g.ReadReg(reg)
		if err != nil {
			return err
		}
		if v&mask == want {
			return nil
		}
		if time.Now().After(deadline) {
			g.logerr("phy:wait-timeout", slog.Uint64("reg", uint64(reg)), internal.SlogHex16("val", v))
			return ethphy.ErrTimeout
		}
		backoff.Miss()
	}
}

func (g *Generic) debug(msg string, attrs ...slog.Attr) {
	internal.LogAttrs(g.log, slog.LevelDebug, msg, attrs...)
}

func (g *Generic) trace(msg string, attrs ...slog.Attr) {
	internal.LogAttrs(g.log, internal.LevelTrace, msg, attrs...)
}

func (g *Generic) logerr(msg string, attrs ...slog.Attr) {
	internal.LogAttrs(g.log, slog.LevelError, msg, attrs...)
}
