package dp83640

import (
	"net/netip"

	"github.com/soypat/ethphy"
	"github.com/soypat/ethphy/internal"
)

// MiscConfig holds PTP message detection and SFD output settings.
type MiscConfig struct {
	// EtherType identifies Layer 2 PTP messages, 0x88f7 for IEEE 1588.
	EtherType uint16
	// Offset is the byte offset of the PTP message from the EtherType for Layer 2
	// or from the end of the UDP header for UDP/IP.
	Offset uint8
	// TxSFDGPIO and RxSFDGPIO route start of frame delimiter signals to a pin, 1 through 12. Zero disables.
	TxSFDGPIO uint8
	RxSFDGPIO uint8
}

// ConfigMisc writes PTP_ETR, PTP_OFF and PTP_SFDCFG.
func (p *PHY) ConfigMisc(cfg MiscConfig) error {
	if cfg.TxSFDGPIO > MaxGPIO || cfg.RxSFDGPIO > MaxGPIO {
		return ethphy.ErrInvalidArg
	}
	err := p.selectPage(PagePTPConfig2)
	if err != nil {
		return err
	}
	err = p.write(RegPTPETR, cfg.EtherType)
	if err != nil {
		return err
	}
	err = p.write(RegPTPOFF, offOffset.Set(0, uint16(cfg.Offset)))
	if err != nil {
		return err
	}
	sfd := sfdRxGPIO.Set(0, uint16(cfg.RxSFDGPIO))
	return p.write(RegPTPSFDCFG, sfdTxGPIO.Set(sfd, uint16(cfg.TxSFDGPIO)))
}

// ClockSource selects the reference clock of the PTP clock.
type ClockSource uint8

const (
	ClockSource125M ClockSource = iota // 125 MHz from the internal phase generation module.
	ClockSourceDivN                    // Divide-by-N of the internal 125 MHz.
	ClockSourceExt                     // External reference clock.
)

// SetClockSource selects the PTP reference clock. period is the clock period
// in nanoseconds, 7 bits.
func (p *PHY) SetClockSource(src ClockSource, period uint8) error {
	if src > ClockSourceExt || period > 0x7f {
		return ethphy.ErrInvalidArg
	}
	err := p.selectPage(PagePTPConfig2)
	if err != nil {
		return err
	}
	return p.write(RegPTPCLKSRC, clkSrc.Set(clkPeriod.Set(0, uint16(period)), uint16(src)))
}

// ClockOutSource is the root clock of the divide-by-N clock output.
type ClockOutSource uint8

const (
	ClockOutFCO ClockOutSource = iota // Frequency controlled oscillator.
	ClockOutPGM                       // Phase generation module.
)

// ClockOutput configures the PTP clock output pin.
type ClockOutput struct {
	Source ClockOutSource
	// Div divides the 250 MHz root clock.
	Div uint8
	// FasterEdge enables faster rise and fall times.
	FasterEdge bool
}

// EnableClockOutput enables the divided PTP clock on the CLK_OUT pin.
func (p *PHY) EnableClockOutput(cfg ClockOutput) error {
	if cfg.Source > ClockOutPGM {
		return ethphy.ErrInvalidArg
	}
	v := cocDiv.Set(0, uint16(cfg.Div))
	v = cocSpeedSel.SetBool(v, cfg.FasterEdge)
	v = cocOutSel.SetBool(v, cfg.Source == ClockOutPGM)
	v = cocEn.SetBool(v, true)
	return p.setClockOutput(v, false)
}

// DisableClockOutput disables the CLK_OUT pin.
func (p *PHY) DisableClockOutput() error {
	return p.setClockOutput(0, true)
}

func (p *PHY) setClockOutput(coc uint16, disable bool) error {
	err := p.selectPage(PagePTPConfig2)
	if err != nil {
		return err
	}
	err = p.write(RegPTPCOC, coc)
	if err != nil {
		return err
	}
	err = p.selectPage(PageExtended)
	if err != nil {
		return err
	}
	_, err = p.modify(RegPHYCR2, func(v uint16) uint16 { return cr2ClkOutDis.SetBool(v, disable) })
	return err
}

// ConfigIntrGPIO routes the PTP interrupt to a pin, 1 through 12. Zero uses the PWRDOWN/INTN pin.
func (p *PHY) ConfigIntrGPIO(gpio uint8) error {
	if gpio > MaxGPIO {
		return ethphy.ErrInvalidArg
	}
	err := p.selectPage(PagePTPConfig2)
	if err != nil {
		return err
	}
	return p.write(RegPTPINTCTL, intGPIO.Set(0, uint16(gpio)))
}

// PSFMAC selects the source MAC address of PHY status frames.
type PSFMAC uint8

const (
	PSFMACNational  PSFMAC = iota // 08:00:17:0B:6B:0F
	PSFMACNational2               // 08:00:17:00:00:00
	PSFMACMulticast               // Multicast destination address.
	PSFMACZero                    // 00:00:00:00:00:00
)

// PSFConfig configures PHY status frames, frames the PHY inserts on the MII
// receive path to deliver timestamps and status to the MAC.
type PSFConfig struct {
	// MinPreamble is the minimum number of preamble bytes the MAC accepts, 3 bits.
	MinPreamble uint8
	MACSource   PSFMAC
	// Event, Trigger, RxTimestamp and TxTimestamp select what status frames deliver.
	Event       bool
	Trigger     bool
	RxTimestamp bool
	TxTimestamp bool
	// Err reports status frame errors. Does not enable status frames on its own.
	Err bool
	// IPv4 sends status frames as IPv4 packets instead of Layer 2 frames.
	IPv4 bool
	// LittleEndian reverses the byte order of 16 bit status fields.
	LittleEndian bool
}

// ConfigPSF writes the PHY status frame configuration.
func (p *PHY) ConfigPSF(cfg PSFConfig) error {
	if cfg.MinPreamble > 7 || cfg.MACSource > PSFMACZero {
		return ethphy.ErrInvalidArg
	}
	var v uint16
	v = psfEvnt.SetBool(v, cfg.Event)
	v = psfTrig.SetBool(v, cfg.Trigger)
	v = psfRxTS.SetBool(v, cfg.RxTimestamp)
	v = psfTxTS.SetBool(v, cfg.TxTimestamp)
	v = psfErr.SetBool(v, cfg.Err)
	v = psfIPv4.SetBool(v, cfg.IPv4)
	v = psfEndian.SetBool(v, cfg.LittleEndian)
	v = psfMinPre.Set(v, uint16(cfg.MinPreamble))
	v = psfMACSrc.Set(v, uint16(cfg.MACSource))
	err := p.selectPage(PagePTPConfig)
	if err != nil {
		return err
	}
	return p.write(RegPSFCFG0, v)
}

// SetPSFIP sets the source IPv4 address of status frames sent as IPv4 packets.
// PSF_CFG4 is loaded with the partial IP header checksum the PHY completes per frame.
func (p *PHY) SetPSFIP(ip netip.Addr) error {
	if !ip.Is4() {
		return ethphy.ErrInvalidArg
	}
	a := ip.As4()
	p.debug("dp83640:psf-ip", internal.SlogAddr4("ip", a))
	err := p.selectPage(PagePTPConfig2)
	if err != nil {
		return err
	}
	err = p.write(RegPSFCFG2, uint16(a[0])|uint16(a[1])<<8)
	if err != nil {
		return err
	}
	err = p.write(RegPSFCFG3, uint16(a[2])|uint16(a[3])<<8)
	if err != nil {
		return err
	}
	return p.write(RegPSFCFG4, PSFChecksum(ip))
}

// PSFChecksum returns the folded ones' complement sum, not complemented, of
// the fixed status frame IPv4 header words and the source address ip.
// Returns 0 if ip is not an IPv4 address.
func PSFChecksum(ip netip.Addr) uint16 {
	if !ip.Is4() {
		return 0
	}
	var crc ethphy.CRC791
	for _, w := range [...]uint16{0x4500, 0x0111, 0xe000, 0x0181} {
		crc.AddUint16(w)
	}
	a := ip.As4()
	crc.WriteEven(a[:])
	return crc.Fold16()
}

// FrameHeader sets PTP header fields of PHY status frames.
type FrameHeader struct {
	// MsgType, TransportSpecific, Version and Reserved are 4 bits each.
	MsgType           uint8
	TransportSpecific uint8
	Version           uint8
	Reserved          uint8
}

// SetPTPFrameHeader writes the PTP header fields of PHY status frames.
func (p *PHY) SetPTPFrameHeader(hdr FrameHeader) error {
	if hdr.MsgType > 0xf || hdr.TransportSpecific > 0xf || hdr.Version > 0xf || hdr.Reserved > 0xf {
		return ethphy.ErrInvalidArg
	}
	v := hdrMsgType.Set(0, uint16(hdr.MsgType))
	v = hdrTrans.Set(v, uint16(hdr.TransportSpecific))
	v = hdrVer.Set(v, uint16(hdr.Version))
	v = hdrReserved.Set(v, uint16(hdr.Reserved))
	err := p.selectPage(PagePTPConfig2)
	if err != nil {
		return err
	}
	return p.write(RegPSFCFG1, v)
}
