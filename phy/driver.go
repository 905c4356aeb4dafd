package phy

import (
	"log/slog"
	"strconv"
	"time"
)

// Driver is the set of operations a host Ethernet driver performs on a PHY.
// Each method returns nil on success, an error to propagate to the caller, or an
// error matching [ethphy.ErrNotSupported] for operations the PHY cannot perform.
//
// Drivers assume callers serialize all access to a Driver and to the bus it sits on.
type Driver interface {
	// SetMediator sets the host transport and state change sink. Must be called before Init.
	SetMediator(Mediator) error
	// Init brings the PHY out of power down, resets it and checks its identity.
	Init() error
	// Deinit powers the PHY down.
	Deinit() error
	// Reset performs a software reset of the PHY.
	Reset() error
	// ResetHW pulses the hardware reset line, if the PHY has one.
	ResetHW() error
	// GetLink polls link status and notifies the mediator on link edges.
	GetLink() error
	// SetLink overrides the cached link status, notifying the mediator if it changed.
	SetLink(up bool) error
	// AutoNegotiation runs an auto-negotiation command and returns whether
	// auto-negotiation is enabled afterwards.
	AutoNegotiation(AutoNegCmd) (enabled bool, err error)
	// PowerControl powers the PHY up or down.
	PowerControl(enable bool) error
	// Addr returns the PHY address on the management bus.
	Addr() (uint8, error)
	// SetAddr sets the PHY address on the management bus.
	SetAddr(addr uint8) error
	// AdvertisePauseAbility sets the pause bits advertised during auto-negotiation.
	AdvertisePauseAbility(ability bool) error
	// SetLoopback enables or disables near-end loopback.
	SetLoopback(enable bool) error
	// SetSpeed forces the link speed. The cached link is marked down so the next GetLink re-reports.
	SetSpeed(Speed) error
	// SetDuplex forces the duplex mode. The cached link is marked down so the next GetLink re-reports.
	SetDuplex(Duplex) error
	// Ioctl runs a vendor specific command.
	Ioctl(cmd IoctlCmd, arg any) error
	// Close releases the driver. The driver must not be used after Close.
	Close() error
}

// AutoNegCmd selects the auto-negotiation operation of [Driver.AutoNegotiation].
type AutoNegCmd uint8

const (
	_               AutoNegCmd = iota
	AutoNegRestart             // restart
	AutoNegEnable              // enable
	AutoNegDisable             // disable
	AutoNegStatus              // status
)

func (c AutoNegCmd) String() string {
	switch c {
	case AutoNegRestart:
		return "restart"
	case AutoNegEnable:
		return "enable"
	case AutoNegDisable:
		return "disable"
	case AutoNegStatus:
		return "status"
	}
	return "AutoNegCmd(" + strconv.Itoa(int(c)) + ")"
}

// IoctlCmd identifies a command of [Driver.Ioctl].
type IoctlCmd uint16

const (
	_ IoctlCmd = iota
	// IoctlReadReg reads RegAccess.Reg into RegAccess.Value. Argument is *RegAccess.
	IoctlReadReg
	// IoctlWriteReg writes RegAccess.Value to RegAccess.Reg. Argument is *RegAccess.
	IoctlWriteReg

	// IoctlVendor is the first command number free for vendor drivers.
	IoctlVendor IoctlCmd = 0x100
)

// RegAccess is the argument of register access ioctls.
type RegAccess struct {
	Reg   uint16
	Value uint16
}

// ResetPin drives a PHY hardware reset line. Reset is active low.
type ResetPin func(high bool)

// AddrAuto makes Init scan the bus for the PHY address.
const AddrAuto = -1

// Config configures a PHY driver built on [Generic].
type Config struct {
	// Addr is the PHY address on the management bus (0..31) or [AddrAuto].
	Addr int8
	// ResetTimeout bounds the wait for software reset and power state changes. Defaults to 100ms.
	ResetTimeout time.Duration
	// ResetAssert is how long ResetHW holds the reset line low. Defaults to 100µs.
	ResetAssert time.Duration
	// ResetPin is the hardware reset line. If nil ResetHW does nothing.
	ResetPin ResetPin
	Logger   *slog.Logger
}
