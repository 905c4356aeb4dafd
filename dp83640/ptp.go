package dp83640

import (
	"log/slog"
	"net/netip"
	"time"

	"github.com/soypat/ethphy"
	"github.com/soypat/ethphy/internal"
)

const (
	// adjustCompensation is added to every step adjustment to account for the
	// two 8 ns clock cycles the pipelined addition takes at the default clock rate.
	adjustCompensation = 16
	maxRate            = 1<<26 - 1
	nsecPerSec         = 1e9
)

// Timestamp is a PTP clock value.
type Timestamp struct {
	Sec  uint32
	Nsec uint32
}

// TimestampOf returns the PTP clock value of t. Times before the Unix epoch or
// beyond the 32 bit seconds range are truncated.
func TimestampOf(t time.Time) Timestamp {
	return Timestamp{Sec: uint32(t.Unix()), Nsec: uint32(t.Nanosecond())}
}

// Time returns ts as a Go time.
func (ts Timestamp) Time() time.Time {
	return time.Unix(int64(ts.Sec), int64(ts.Nsec))
}

// TxTimestamp is a transmit timestamp popped from the hardware queue.
type TxTimestamp struct {
	Timestamp
	// Overflow counts timestamps lost to a full queue. Saturates at 3.
	Overflow uint8
}

// RxTimestamp is a receive timestamp popped from the hardware queue along with
// identification of the PTP message it belongs to.
type RxTimestamp struct {
	Timestamp
	// Overflow counts timestamps lost to a full queue. Saturates at 3.
	Overflow uint8
	SeqID    uint16
	MsgType  uint8
	// Hash is the 12 bit hash of the message source port identity.
	Hash uint16
}

// RateDir is the direction of a PTP clock rate adjustment.
type RateDir uint8

const (
	RateSlower RateDir = iota // Subtract rate from the clock.
	RateFaster                // Add rate to the clock.
)

// PTPEnable starts or stops the PTP clock.
func (p *PHY) PTPEnable(enable bool) error {
	err := p.selectPage(PagePTPBase)
	if err != nil {
		return err
	}
	_, err = p.modify(RegPTPCTL, func(v uint16) uint16 {
		v = ctlEnable.SetBool(v, enable)
		return ctlDisable.SetBool(v, !enable)
	})
	return err
}

// PTPReset pulses the PTP reset bit, resetting the PTP clock and timestamp logic.
func (p *PHY) PTPReset() error {
	err := p.selectPage(PagePTPBase)
	if err != nil {
		return err
	}
	ctl, err := p.modify(RegPTPCTL, func(v uint16) uint16 { return ctlReset.SetBool(v, true) })
	if err != nil {
		return err
	}
	return p.write(RegPTPCTL, ctlReset.SetBool(ctl, false))
}

// SetTime loads the PTP clock with ts.
func (p *PHY) SetTime(ts Timestamp) error {
	if ts.Nsec >= nsecPerSec {
		return ethphy.ErrInvalidArg
	}
	err := p.selectPage(PagePTPBase)
	if err != nil {
		return err
	}
	err = p.writeTDR(ts.Nsec, ts.Sec)
	if err != nil {
		return err
	}
	_, err = p.modify(RegPTPCTL, func(v uint16) uint16 { return ctlLoadClk.SetBool(v, true) })
	if err != nil {
		return err
	}
	p.debug("dp83640:set-time", slog.Uint64("sec", uint64(ts.Sec)), slog.Uint64("nsec", uint64(ts.Nsec)))
	return nil
}

// Time latches the PTP clock and reads it.
func (p *PHY) Time() (Timestamp, error) {
	err := p.selectPage(PagePTPBase)
	if err != nil {
		return Timestamp{}, err
	}
	_, err = p.modify(RegPTPCTL, func(v uint16) uint16 { return ctlRdClk.SetBool(v, true) })
	if err != nil {
		return Timestamp{}, err
	}
	var w [4]uint16
	err = p.readWords(RegPTPTDR, w[:])
	if err != nil {
		return Timestamp{}, err
	}
	return Timestamp{
		Nsec: uint32(w[1])<<16 | uint32(w[0]),
		Sec:  uint32(w[3])<<16 | uint32(w[2]),
	}, nil
}

// AdjustTime steps the PTP clock by sec seconds and nsec nanoseconds, either
// of which may be negative. A fixed compensation of 16 ns is always added for the
// time the hardware takes to apply the step, so AdjustTime(0, 0) advances the clock 16 ns.
func (p *PHY) AdjustTime(sec, nsec int32) error {
	nsec += adjustCompensation
	err := p.selectPage(PagePTPBase)
	if err != nil {
		return err
	}
	err = p.writeTDR(uint32(nsec), uint32(sec))
	if err != nil {
		return err
	}
	_, err = p.modify(RegPTPCTL, func(v uint16) uint16 { return ctlStepClk.SetBool(v, true) })
	if err != nil {
		return err
	}
	p.debug("dp83640:adjust-time", slog.Int64("sec", int64(sec)), slog.Int64("nsec", int64(nsec)))
	return nil
}

// SetNormalRate sets the rate at which the PTP clock is continuously corrected.
// The rate is a 26 bit value in units of 2**-32 ns per reference clock cycle.
func (p *PHY) SetNormalRate(rate uint32, dir RateDir) error {
	return p.setRate(rate, false, dir)
}

// SetTempRate sets a rate correction that applies for duration reference clock
// cycles and then reverts to the normal rate. The duration is a 26 bit value
// only written to the PHY when it differs from the last one written.
func (p *PHY) SetTempRate(rate, duration uint32, dir RateDir) error {
	if duration > maxRate || rate > maxRate {
		return ethphy.ErrInvalidArg
	}
	if duration != p.lastDuration {
		err := p.selectPage(PagePTPConfig)
		if err != nil {
			return err
		}
		err = p.write(RegPTPTRDH, trdhHigh.Set(0, uint16(duration>>16)))
		if err != nil {
			return err
		}
		err = p.write(RegPTPTRDL, uint16(duration))
		if err != nil {
			return err
		}
		p.lastDuration = duration
	}
	return p.setRate(rate, true, dir)
}

func (p *PHY) setRate(rate uint32, temp bool, dir RateDir) error {
	if rate > maxRate || dir > RateFaster {
		return ethphy.ErrInvalidArg
	}
	err := p.selectPage(PagePTPBase)
	if err != nil {
		return err
	}
	_, err = p.modify(RegPTPRATEH, func(v uint16) uint16 {
		v = ratehHigh.Set(v, uint16(rate>>16))
		v = ratehDir.SetBool(v, dir == RateFaster)
		return ratehTmp.SetBool(v, temp)
	})
	if err != nil {
		return err
	}
	return p.write(RegPTPRATEL, uint16(rate))
}

// TxTimestamp pops the oldest transmit timestamp from the hardware queue.
// Check [EventStatus] for [TxTimestampReady] before calling.
func (p *PHY) TxTimestamp() (TxTimestamp, error) {
	err := p.selectPage(PagePTPBase)
	if err != nil {
		return TxTimestamp{}, err
	}
	var w [4]uint16
	err = p.readWords(RegPTPTXTS, w[:])
	if err != nil {
		return TxTimestamp{}, err
	}
	ts, ovf := decodeQueued(w)
	return TxTimestamp{Timestamp: ts, Overflow: ovf}, nil
}

// RxTimestamp pops the oldest receive timestamp from the hardware queue.
// Check [EventStatus] for [RxTimestampReady] before calling.
func (p *PHY) RxTimestamp() (RxTimestamp, error) {
	err := p.selectPage(PagePTPBase)
	if err != nil {
		return RxTimestamp{}, err
	}
	var w [6]uint16
	err = p.readWords(RegPTPRXTS, w[:])
	if err != nil {
		return RxTimestamp{}, err
	}
	ts, ovf := decodeQueued([4]uint16(w[:4]))
	return RxTimestamp{
		Timestamp: ts,
		Overflow:  ovf,
		SeqID:     w[4],
		MsgType:   uint8(w[5] >> 12),
		Hash:      w[5] & 0xfff,
	}, nil
}

// decodeQueued decodes timestamp queue words. The top two bits of the high
// nanoseconds word hold the saturating overflow counter.
func decodeQueued(w [4]uint16) (Timestamp, uint8) {
	return Timestamp{
		Nsec: uint32(w[1]&0x3fff)<<16 | uint32(w[0]),
		Sec:  uint32(w[3])<<16 | uint32(w[2]),
	}, uint8(w[1] >> 14)
}

// readWords reads consecutive words from a data window register.
func (p *PHY) readWords(r Reg, dst []uint16) (err error) {
	for i := range dst {
		dst[i], err = p.read(r)
		if err != nil {
			return err
		}
	}
	return nil
}

// writeTDR writes the nanoseconds and seconds words to PTP_TDR, low word first.
func (p *PHY) writeTDR(nsec, sec uint32) error {
	words := [4]uint16{uint16(nsec), uint16(nsec >> 16), uint16(sec), uint16(sec >> 16)}
	for _, w := range words {
		err := p.write(RegPTPTDR, w)
		if err != nil {
			return err
		}
	}
	return nil
}

// TxConfig configures transmit timestamping.
type TxConfig struct {
	// Version is the PTP version of messages to timestamp, 4 bits.
	Version uint8
	// Timestamp enables transmit timestamping.
	Timestamp bool
	// IPv4 and IPv6 enable detection of UDP/IP encapsulated PTP messages.
	IPv4 bool
	IPv6 bool
	// L2 enables detection of Layer 2 encapsulated PTP messages.
	L2 bool
	// IP1588Filter restricts IP timestamping to the IEEE 1588 multicast addresses.
	IP1588Filter bool
	// Chk1Step enables the UDP checksum update for one-step operation.
	Chk1Step bool
	// CRC1Step enables the CRC check on one-step Sync messages.
	CRC1Step    bool
	Ignore2Step bool
	// NTP timestamps NTP packets instead of PTP.
	NTP bool
	// DRInsert inserts a timestamp in Delay_Req messages.
	DRInsert  bool
	Sync1Step bool
}

// SetTxConfig writes the transmit timestamping configuration.
func (p *PHY) SetTxConfig(cfg TxConfig) error {
	if cfg.Version > 0xf {
		return ethphy.ErrInvalidArg
	}
	var v uint16
	v = txTSEn.SetBool(v, cfg.Timestamp)
	v = txVer.Set(v, uint16(cfg.Version))
	v = txIPv4.SetBool(v, cfg.IPv4)
	v = txIPv6.SetBool(v, cfg.IPv6)
	v = txL2.SetBool(v, cfg.L2)
	v = txIP1588.SetBool(v, cfg.IP1588Filter)
	v = txChk1Step.SetBool(v, cfg.Chk1Step)
	v = txCRC1Step.SetBool(v, cfg.CRC1Step)
	v = txIgnore2Step.SetBool(v, cfg.Ignore2Step)
	v = txNTP.SetBool(v, cfg.NTP)
	v = txDRInsert.SetBool(v, cfg.DRInsert)
	v = txSync1Step.SetBool(v, cfg.Sync1Step)
	err := p.selectPage(PagePTPConfig)
	if err != nil {
		return err
	}
	return p.write(RegPTPTXCFG0, v)
}

// SetTxFirstByteFilter restricts transmit timestamping to messages whose first
// byte matches data on the bits set in mask.
func (p *PHY) SetTxFirstByteFilter(mask, data uint8) error {
	err := p.selectPage(PagePTPConfig)
	if err != nil {
		return err
	}
	return p.write(RegPTPTXCFG1, byte0Mask.Set(byte0Data.Set(0, uint16(data)), uint16(mask)))
}

// IPFilter selects the IEEE 1588 multicast destination addresses received messages are timestamped for.
type IPFilter uint8

const (
	IPFilterPrimary   IPFilter = 1 << iota // 224.0.1.129
	IPFilterAlternate                      // 224.0.1.130 through 224.0.1.132
	IPFilterPeerDelay                      // 224.0.0.107
)

// RxConfig configures receive timestamping.
type RxConfig struct {
	// Version is the PTP version of messages to timestamp, 4 bits.
	Version uint8
	// IPFilter is a mask of multicast destinations to timestamp. Zero accepts any address.
	IPFilter IPFilter
	// Domain is the PTP domain messages must match when DomainFilter is set.
	Domain    uint8
	Timestamp bool
	IPv4      bool
	IPv6      bool
	L2        bool
	// Slave restricts timestamping to messages a slave clock needs.
	Slave bool
	// NoAltMaster disables timestamping of messages from alternate masters.
	NoAltMaster  bool
	DomainFilter bool
}

// SetRxConfig writes the receive timestamping configuration and the PTP domain.
func (p *PHY) SetRxConfig(cfg RxConfig) error {
	if cfg.Version > 0xf || cfg.IPFilter > 0x7 {
		return ethphy.ErrInvalidArg
	}
	var v uint16
	v = rxTSEn.SetBool(v, cfg.Timestamp)
	v = rxVer.Set(v, uint16(cfg.Version))
	v = rxIPv4.SetBool(v, cfg.IPv4)
	v = rxIPv6.SetBool(v, cfg.IPv6)
	v = rxL2.SetBool(v, cfg.L2)
	v = rxIP1588.Set(v, uint16(cfg.IPFilter))
	v = rxSlave.SetBool(v, cfg.Slave)
	v = rxAltMstDis.SetBool(v, cfg.NoAltMaster)
	v = rxDomainEn.SetBool(v, cfg.DomainFilter)
	err := p.selectPage(PagePTPConfig)
	if err != nil {
		return err
	}
	err = p.write(RegPTPRXCFG0, v)
	if err != nil {
		return err
	}
	_, err = p.modify(RegPTPRXCFG3, func(v uint16) uint16 { return rx3Domain.Set(v, uint16(cfg.Domain)) })
	return err
}

// SetRxUserIPFilter enables timestamping of messages sent to the IPv4 address ip.
// The address is written in two halves through PTP_RXCFG2, high half first.
func (p *PHY) SetRxUserIPFilter(ip netip.Addr) error {
	if !ip.Is4() {
		return ethphy.ErrInvalidArg
	}
	a := ip.As4()
	hi := uint16(a[0])<<8 | uint16(a[1])
	lo := uint16(a[2])<<8 | uint16(a[3])
	p.debug("dp83640:rx-ip-filter", internal.SlogAddr4("ip", a))
	err := p.selectPage(PagePTPConfig)
	if err != nil {
		return err
	}
	cfg0, err := p.modify(RegPTPRXCFG0, func(v uint16) uint16 {
		v = rxUserIPEn.SetBool(v, true)
		return rxUserIPSel.SetBool(v, false)
	})
	if err != nil {
		return err
	}
	err = p.write(RegPTPRXCFG2, hi)
	if err != nil {
		return err
	}
	err = p.write(RegPTPRXCFG0, rxUserIPSel.SetBool(cfg0, true))
	if err != nil {
		return err
	}
	return p.write(RegPTPRXCFG2, lo)
}

// SetRxFirstByteFilter restricts receive timestamping to messages whose first
// byte matches data on the bits set in mask.
func (p *PHY) SetRxFirstByteFilter(mask, data uint8) error {
	err := p.selectPage(PagePTPConfig)
	if err != nil {
		return err
	}
	return p.write(RegPTPRXCFG1, byte0Mask.Set(byte0Data.Set(0, uint16(data)), uint16(mask)))
}

// SecLen is the number of least significant seconds bytes inserted in received messages.
type SecLen uint8

const (
	SecLen1 SecLen = iota
	SecLen2
	SecLen3
	SecLen4
)

// InsertConfig configures insertion of receive timestamps into received PTP messages.
type InsertConfig struct {
	// NsecOffset and SecOffset are the byte offsets into the PTP message where
	// the timestamp fields are inserted, 6 bits each.
	NsecOffset uint8
	SecOffset  uint8
	// MinIFG is the minimum inter frame gap enforced when appending, 4 bits.
	MinIFG uint8
	SecLen SecLen
	// InsertSec includes seconds in the inserted timestamp.
	InsertSec bool
	// AppendL2 appends the timestamp to Layer 2 messages instead of inserting it.
	AppendL2 bool
	// AcceptCRCErr and AcceptUDPErr keep timestamping messages with bad CRC or UDP checksum.
	AcceptCRCErr bool
	AcceptUDPErr bool
	// UpdateUDPChecksum fixes the UDP checksum of IPv4 messages after insertion.
	UpdateUDPChecksum bool
}

// EnableRxTimestampInsertion turns on insertion of receive timestamps into received messages.
func (p *PHY) EnableRxTimestampInsertion(cfg InsertConfig) error {
	if cfg.NsecOffset > 0x3f || cfg.SecOffset > 0x3f || cfg.MinIFG > 0xf || cfg.SecLen > SecLen4 {
		return ethphy.ErrInvalidArg
	}
	err := p.selectPage(PagePTPConfig)
	if err != nil {
		return err
	}
	_, err = p.modify(RegPTPRXCFG3, func(v uint16) uint16 {
		v = rx3TSInsert.SetBool(v, true)
		v = rx3TSAppend.SetBool(v, cfg.AppendL2)
		v = rx3AccCRC.SetBool(v, cfg.AcceptCRCErr)
		v = rx3AccUDP.SetBool(v, cfg.AcceptUDPErr)
		return rx3MinIFG.Set(v, uint16(cfg.MinIFG))
	})
	if err != nil {
		return err
	}
	var v uint16
	v = rx4SecOffset.Set(v, uint16(cfg.SecOffset))
	v = rx4NsecOffset.Set(v, uint16(cfg.NsecOffset))
	v = rx4SecLen.Set(v, uint16(cfg.SecLen))
	v = rx4SecEn.SetBool(v, cfg.InsertSec)
	v = rx4UDPMod.SetBool(v, cfg.UpdateUDPChecksum)
	return p.write(RegPTPRXCFG4, v)
}

// DisableRxTimestampInsertion turns off receive timestamp insertion. Other PTP_RXCFG3 fields are kept.
func (p *PHY) DisableRxTimestampInsertion() error {
	err := p.selectPage(PagePTPConfig)
	if err != nil {
		return err
	}
	_, err = p.modify(RegPTPRXCFG3, func(v uint16) uint16 { return rx3TSInsert.SetBool(v, false) })
	return err
}
