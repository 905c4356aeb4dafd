//go:build linux && !baremetal

package phy

import (
	"fmt"
	"unsafe"

	"github.com/junka/ioctl"
	"golang.org/x/sys/unix"

	"github.com/soypat/ethphy"
)

// mdioPhyIDC45 marks a Clause 45 phy_id in struct mii_ioctl_data, see linux/mdio.h.
const mdioPhyIDC45 = 0x8000

// miiIfreq is struct ifreq with struct mii_ioctl_data in the ifr_ifru union.
type miiIfreq struct {
	name   [unix.IFNAMSIZ]byte
	phyID  uint16
	regNum uint16
	valIn  uint16
	valOut uint16
	_      [16]byte // pad union to sizeof(struct ifmap).
}

var _ MDIOBus = (*MIIBus)(nil) // compile time guarantee of interface implementation.

// MIIBus accesses the MDIO bus behind a Linux network interface through the
// SIOCGMIIREG and SIOCSMIIREG ioctls, the same interface mii-tool and
// mdio-tool use. Requires CAP_NET_ADMIN for writes.
type MIIBus struct {
	fd      int
	ifname  string
	phyAddr uint8
}

// OpenMIIBus opens a control socket for the named interface and queries the address of the PHY attached to it.
func OpenMIIBus(ifname string) (*MIIBus, error) {
	if len(ifname) >= unix.IFNAMSIZ {
		return nil, ethphy.ErrInvalidArg
	}
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("cannot get control socket: %w", err)
	}
	m := &MIIBus{fd: fd, ifname: ifname}
	ifr := m.ifreq()
	err = ioctl.Ioctl(m.fd, unix.SIOCGMIIPHY, uintptr(unsafe.Pointer(&ifr)))
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("SIOCGMIIPHY on %s: %w", ifname, err)
	}
	m.phyAddr = uint8(ifr.phyID & 0x1f)
	return m, nil
}

// PHYAddr returns the address of the PHY the kernel driver attached to the interface.
func (m *MIIBus) PHYAddr() uint8 { return m.phyAddr }

// Name returns the interface name.
func (m *MIIBus) Name() string { return m.ifname }

// Read implements [MDIOBus].
func (m *MIIBus) Read(phyAddr, devAddr uint8, regAddr uint16) (uint16, error) {
	ifr, err := m.request(phyAddr, devAddr, regAddr)
	if err != nil {
		return 0, err
	}
	err = ioctl.Ioctl(m.fd, unix.SIOCGMIIREG, uintptr(unsafe.Pointer(&ifr)))
	if err != nil {
		return 0, err
	}
	return ifr.valOut, nil
}

// Write implements [MDIOBus].
func (m *MIIBus) Write(phyAddr, devAddr uint8, regAddr, value uint16) error {
	ifr, err := m.request(phyAddr, devAddr, regAddr)
	if err != nil {
		return err
	}
	ifr.valIn = value
	return ioctl.Ioctl(m.fd, unix.SIOCSMIIREG, uintptr(unsafe.Pointer(&ifr)))
}

// Close closes the control socket.
func (m *MIIBus) Close() error {
	return unix.Close(m.fd)
}

func (m *MIIBus) request(phyAddr, devAddr uint8, regAddr uint16) (miiIfreq, error) {
	ifr := m.ifreq()
	err := validateFrame(phyAddr, devAddr, regAddr)
	if err != nil {
		return ifr, err
	}
	ifr.phyID = uint16(phyAddr)
	if devAddr != 0 {
		ifr.phyID = mdioPhyIDC45 | uint16(phyAddr)<<5 | uint16(devAddr)
	}
	ifr.regNum = regAddr
	return ifr, nil
}

func (m *MIIBus) ifreq() (ifr miiIfreq) {
	copy(ifr.name[:], m.ifname)
	return ifr
}
