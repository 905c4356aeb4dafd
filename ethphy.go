// Package ethphy holds definitions shared by the Ethernet PHY drivers in this
// module: generic errors and the RFC 791 ones' complement checksum.
//
// Drivers live in their own packages:
//   - [github.com/soypat/ethphy/phy]: management bus access, host driver interface and IEEE 802.3 base driver.
//   - [github.com/soypat/ethphy/adin1200]: Analog Devices ADIN1200.
//   - [github.com/soypat/ethphy/dp83640]: TI DP83640 with IEEE 1588 hardware clock.
//   - [github.com/soypat/ethphy/dummy]: PHY-less link emulation.
package ethphy
