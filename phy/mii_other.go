//go:build !linux || baremetal

package phy

import "github.com/soypat/ethphy"

// MIIBus accesses the MDIO bus behind a network interface. Only available on Linux.
type MIIBus struct{}

func OpenMIIBus(ifname string) (*MIIBus, error) {
	return nil, ethphy.ErrNotSupported
}

func (m *MIIBus) PHYAddr() uint8 { return 0 }
func (m *MIIBus) Name() string   { return "" }
func (m *MIIBus) Read(phyAddr, devAddr uint8, regAddr uint16) (uint16, error) {
	return 0, ethphy.ErrNotSupported
}
func (m *MIIBus) Write(phyAddr, devAddr uint8, regAddr, value uint16) error {
	return ethphy.ErrNotSupported
}
func (m *MIIBus) Close() error {
	return ethphy.ErrNotSupported
}
