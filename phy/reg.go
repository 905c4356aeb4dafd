package phy

// Clause 22 register addresses common to every PHY. Vendor registers start at 0x10.
const (
	AddrBMCR    = 0x00 // Basic mode control.
	AddrBMSR    = 0x01 // Basic mode status.
	AddrPHYIDR1 = 0x02 // OUI bits 3..18.
	AddrPHYIDR2 = 0x03 // OUI bits 19..24, 6 bit model, 4 bit revision.
	AddrANAR    = 0x04 // Auto-negotiation advertisement.
	AddrANLPAR  = 0x05 // Link partner ability, same layout as ANAR.
	AddrANER    = 0x06 // Auto-negotiation expansion.
)

// BMCR is the value of the basic mode control register (IEEE 802.3 22.2.4.1).
type BMCR uint16

const (
	BMCRSpeed1000  BMCR = 1 << 6  // Speed select MSB.
	BMCRFullDuplex BMCR = 1 << 8  // Forced full duplex.
	BMCRANRestart  BMCR = 1 << 9  // Self clearing.
	BMCRIsolate    BMCR = 1 << 10 // Electrically isolate the PHY from the MII.
	BMCRPowerDown  BMCR = 1 << 11
	BMCRANEnable   BMCR = 1 << 12
	BMCRSpeed100   BMCR = 1 << 13 // Speed select LSB.
	BMCRLoopback   BMCR = 1 << 14 // Near-end loopback.
	BMCRReset      BMCR = 1 << 15 // Self clearing.
)

// LinkMode returns the mode forced by the speed select and duplex bits.
// Auto-negotiation overrides it when BMCRANEnable is set.
func (c BMCR) LinkMode() LinkMode {
	var speed Speed
	switch c & (BMCRSpeed1000 | BMCRSpeed100) {
	case BMCRSpeed100:
		speed = Speed100M
	case BMCRSpeed1000:
		speed = Speed1000M
	default:
		speed = Speed10M // 0b11 is reserved.
	}
	duplex := HalfDuplex
	if c&BMCRFullDuplex != 0 {
		duplex = FullDuplex
	}
	return LinkState{Up: true, Speed: speed, Duplex: duplex}.Mode()
}

// BMSR is the value of the basic mode status register (IEEE 802.3 22.2.4.2).
type BMSR uint16

const (
	BMSRExtCap     BMSR = 1 << 0
	BMSRLinkStatus BMSR = 1 << 2 // Latches low on link failure.
	BMSRANCap      BMSR = 1 << 3
	BMSRANComplete BMSR = 1 << 5
	BMSR10Half     BMSR = 1 << 11
	BMSR10Full     BMSR = 1 << 12
	BMSR100Half    BMSR = 1 << 13
	BMSR100Full    BMSR = 1 << 14
)

// LinkUp reports the link status bit. Since the bit latches low the first
// read after a link drop always reports down.
func (s BMSR) LinkUp() bool { return s&BMSRLinkStatus != 0 }

// AutoNegotiationComplete reports whether auto-negotiation finished.
func (s BMSR) AutoNegotiationComplete() bool { return s&BMSRANComplete != 0 }

// ANAR is the value of the auto-negotiation advertisement register or of
// ANLPAR, which shares its layout (IEEE 802.3 28.2.4.1).
type ANAR uint16

const (
	ANARSelector8023 ANAR = 0x0001 // Selector field for IEEE 802.3, bits 0..4.
	ANAR10Half       ANAR = 1 << 5
	ANAR10Full       ANAR = 1 << 6
	ANAR100Half      ANAR = 1 << 7
	ANAR100Full      ANAR = 1 << 8
	ANAR100BaseT4    ANAR = 1 << 9
	ANARPause        ANAR = 1 << 10 // Symmetric pause.
	ANARPauseAsym    ANAR = 1 << 11
	ANARRemoteFault  ANAR = 1 << 13
	ANARNextPage     ANAR = 1 << 15

	anarSpeeds = ANAR10Half | ANAR10Full | ANAR100Half | ANAR100Full | ANAR100BaseT4
)

// NewANAR returns an advertisement with only the IEEE 802.3 selector set.
func NewANAR() ANAR { return ANARSelector8023 }

// WithPause returns a with its pause bits replaced.
func (a ANAR) WithPause(symmetric, asymmetric bool) ANAR {
	a &^= ANARPause | ANARPauseAsym
	if symmetric {
		a |= ANARPause
	}
	if asymmetric {
		a |= ANARPauseAsym
	}
	return a
}

// WithMaxSpeed returns a advertising every 10BASE-T and 100BASE-TX mode at or
// below maxMbps. Bits other than the speed bits are kept.
func (a ANAR) WithMaxSpeed(maxMbps int) ANAR {
	a &^= anarSpeeds
	if maxMbps >= 100 {
		a |= ANAR100Half | ANAR100Full
	}
	if maxMbps >= 10 {
		a |= ANAR10Half | ANAR10Full
	}
	return a
}

// LinkMode returns the highest priority mode advertised by a, following the
// priority resolution of IEEE 802.3 Annex 28B.3, or LinkDown if none is.
func (a ANAR) LinkMode() LinkMode {
	for _, m := range [...]struct {
		bit  ANAR
		mode LinkMode
	}{
		{ANAR100Full, Link100FDX},
		{ANAR100BaseT4, Link100T4},
		{ANAR100Half, Link100HDX},
		{ANAR10Full, Link10FDX},
		{ANAR10Half, Link10HDX},
	} {
		if a&m.bit != 0 {
			return m.mode
		}
	}
	return LinkDown
}
