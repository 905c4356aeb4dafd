package phy

import (
	"errors"

	"github.com/soypat/ethphy"
)

// MDIOBus is a HAL for MDIO bus access supporting both Clause 22 and Clause 45 devices.
// Implementations should use devaddr to select the framing:
//   - devaddr=0: Clause 22 framing (devaddr ignored in transaction)
//   - devaddr>=1: Clause 45 framing (PMA/PMD=1, WIS=2, PCS=3, PHY XS=4, DTE XS=5, AN=7)
//
// Register address range: Clause 22 uses 0-31, Clause 45 uses 0-65535.
// Every driver operation reduces to an ordered sequence of these two primitives.
type MDIOBus interface {
	// Read reads a 16-bit register from the PHY.
	Read(phyAddr, devaddr uint8, regAddr uint16) (value uint16, err error)
	// Write writes a 16-bit value to a PHY register.
	Write(phyAddr, devaddr uint8, regAddr, value uint16) error
}

// Mediator is the host side of a PHY driver: register transport plus the
// sink for link state changes. The host must serialize all calls on a PHY
// and on the bus it sits on; drivers do no locking.
type Mediator interface {
	MDIOBus
	// OnStateChanged is called by drivers when link decoding detects a link edge.
	// A returned error aborts the notification sequence and is returned to the caller of the driver.
	OnStateChanged(StateChange) error
}

// BusMediator adapts an MDIOBus into a [Mediator]. State changes are passed
// to OnChange, which may be nil.
type BusMediator struct {
	MDIOBus
	OnChange func(StateChange) error
}

var _ Mediator = BusMediator{}

// OnStateChanged implements [Mediator].
func (bm BusMediator) OnStateChanged(sc StateChange) error {
	if bm.OnChange == nil {
		return nil
	}
	return bm.OnChange(sc)
}

var errNoPHY = errors.New("no phy found")

// FindClause22PHYs finds all regular non-clause45 PHYs on the MDIO bus and writes their addresses to dst.
// A PHY is considered present when its first identifier register reads as neither all ones nor all zeros.
// FindClause22PHYs returns error only if unable to find any PHY.
func FindClause22PHYs(mdio MDIOBus, dst []uint8) (n int, err error) {
	const maxAddr = 31
	if len(dst) < maxAddr+1 {
		return -1, ethphy.ErrShortBuffer
	}
	for addr := uint8(0); addr <= maxAddr; addr++ {
		val, err := mdio.Read(addr, 0, AddrPHYIDR1)
		if err != nil {
			continue
		}
		// Undriven MDIO line is pulled up and reads as all ones.
		if val != 0xffff && val != 0x0000 {
			dst[n] = addr
			n++
		}
	}
	if n <= 0 {
		err = errNoPHY
	}
	return n, err
}
