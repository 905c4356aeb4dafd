package dp83640

import (
	"strconv"

	"github.com/soypat/ethphy/internal"
)

// Page selects which bank of registers is mapped at addresses 0x14..0x1f.
// Registers below 0x14 are common to every page.
type Page uint8

const (
	PageExtended   Page = 0
	PageTest       Page = 1
	PageLinkDiag   Page = 2
	PagePTPBase    Page = 4
	PagePTPConfig  Page = 5
	PagePTPConfig2 Page = 6

	pageNone Page = 0xff
)

func (pg Page) String() string {
	switch pg {
	case PageExtended:
		return "extended"
	case PageTest:
		return "test"
	case PageLinkDiag:
		return "link-diag"
	case PagePTPBase:
		return "ptp-base"
	case PagePTPConfig:
		return "ptp-config"
	case PagePTPConfig2:
		return "ptp-config2"
	case pageNone:
		return "none"
	}
	return "page(" + strconv.Itoa(int(pg)) + ")"
}

// Vendor registers common to every page.
const (
	AddrPHYSTS  = 0x10
	AddrMICR    = 0x11
	AddrMISR    = 0x12
	AddrPAGESEL = 0x13
)

// Reg identifies a DP83640 vendor register by page and address.
type Reg uint8

const (
	RegPHYSTS Reg = iota
	RegMICR
	RegMISR
	RegPAGESEL

	RegFCSCR
	RegRECR
	RegPCSR
	RegRBR
	RegLEDCR
	RegPHYCR
	Reg10BTSCR
	RegCDCTRL1
	RegPHYCR2
	RegEDCR
	RegPCFCR

	RegLEN100DET
	RegFREQ100
	RegTDRCTRL
	RegTDRWIN
	RegTDRPEAK
	RegTDRTHR
	RegVARCTRL
	RegVARDAT
	RegLQMR
	RegLQDR
	RegLQMR2

	RegPTPCTL
	RegPTPTDR
	RegPTPSTS
	RegPTPTSTS
	RegPTPRATEL
	RegPTPRATEH
	RegPTPRDCKSUM
	RegPTPWRCKSUM
	RegPTPTXTS
	RegPTPRXTS
	RegPTPESTS
	RegPTPEDATA

	RegPTPTRIG
	RegPTPEVNT
	RegPTPTXCFG0
	RegPTPTXCFG1
	RegPSFCFG0
	RegPTPRXCFG0
	RegPTPRXCFG1
	RegPTPRXCFG2
	RegPTPRXCFG3
	RegPTPRXCFG4
	RegPTPTRDL
	RegPTPTRDH

	RegPTPCOC
	RegPSFCFG1
	RegPSFCFG2
	RegPSFCFG3
	RegPSFCFG4
	RegPTPSFDCFG
	RegPTPINTCTL
	RegPTPCLKSRC
	RegPTPETR
	RegPTPOFF
	RegPTPGPIOMON
	RegPTPRXHASH

	numRegs
)

var regTable = [numRegs]struct {
	page Page
	addr uint16
	name string
}{
	RegPHYSTS:  {pageNone, AddrPHYSTS, "PHYSTS"},
	RegMICR:    {pageNone, AddrMICR, "MICR"},
	RegMISR:    {pageNone, AddrMISR, "MISR"},
	RegPAGESEL: {pageNone, AddrPAGESEL, "PAGESEL"},

	RegFCSCR:   {PageExtended, 0x14, "FCSCR"},
	RegRECR:    {PageExtended, 0x15, "RECR"},
	RegPCSR:    {PageExtended, 0x16, "PCSR"},
	RegRBR:     {PageExtended, 0x17, "RBR"},
	RegLEDCR:   {PageExtended, 0x18, "LEDCR"},
	RegPHYCR:   {PageExtended, 0x19, "PHYCR"},
	Reg10BTSCR: {PageExtended, 0x1a, "10BTSCR"},
	RegCDCTRL1: {PageExtended, 0x1b, "CDCTRL1"},
	RegPHYCR2:  {PageExtended, 0x1c, "PHYCR2"},
	RegEDCR:    {PageExtended, 0x1d, "EDCR"},
	RegPCFCR:   {PageExtended, 0x1f, "PCFCR"},

	RegLEN100DET: {PageLinkDiag, 0x14, "LEN100_DET"},
	RegFREQ100:   {PageLinkDiag, 0x15, "FREQ100"},
	RegTDRCTRL:   {PageLinkDiag, 0x16, "TDR_CTRL"},
	RegTDRWIN:    {PageLinkDiag, 0x17, "TDR_WIN"},
	RegTDRPEAK:   {PageLinkDiag, 0x18, "TDR_PEAK"},
	RegTDRTHR:    {PageLinkDiag, 0x19, "TDR_THR"},
	RegVARCTRL:   {PageLinkDiag, 0x1a, "VAR_CTRL"},
	RegVARDAT:    {PageLinkDiag, 0x1b, "VAR_DAT"},
	RegLQMR:      {PageLinkDiag, 0x1d, "LQMR"},
	RegLQDR:      {PageLinkDiag, 0x1e, "LQDR"},
	RegLQMR2:     {PageLinkDiag, 0x1f, "LQMR2"},

	RegPTPCTL:     {PagePTPBase, 0x14, "PTP_CTL"},
	RegPTPTDR:     {PagePTPBase, 0x15, "PTP_TDR"},
	RegPTPSTS:     {PagePTPBase, 0x16, "PTP_STS"},
	RegPTPTSTS:    {PagePTPBase, 0x17, "PTP_TSTS"},
	RegPTPRATEL:   {PagePTPBase, 0x18, "PTP_RATEL"},
	RegPTPRATEH:   {PagePTPBase, 0x19, "PTP_RATEH"},
	RegPTPRDCKSUM: {PagePTPBase, 0x1a, "PTP_RDCKSUM"},
	RegPTPWRCKSUM: {PagePTPBase, 0x1b, "PTP_WRCKSUM"},
	RegPTPTXTS:    {PagePTPBase, 0x1c, "PTP_TXTS"},
	RegPTPRXTS:    {PagePTPBase, 0x1d, "PTP_RXTS"},
	RegPTPESTS:    {PagePTPBase, 0x1e, "PTP_ESTS"},
	RegPTPEDATA:   {PagePTPBase, 0x1f, "PTP_EDATA"},

	RegPTPTRIG:   {PagePTPConfig, 0x14, "PTP_TRIG"},
	RegPTPEVNT:   {PagePTPConfig, 0x15, "PTP_EVNT"},
	RegPTPTXCFG0: {PagePTPConfig, 0x16, "PTP_TXCFG0"},
	RegPTPTXCFG1: {PagePTPConfig, 0x17, "PTP_TXCFG1"},
	RegPSFCFG0:   {PagePTPConfig, 0x18, "PSF_CFG0"},
	RegPTPRXCFG0: {PagePTPConfig, 0x19, "PTP_RXCFG0"},
	RegPTPRXCFG1: {PagePTPConfig, 0x1a, "PTP_RXCFG1"},
	RegPTPRXCFG2: {PagePTPConfig, 0x1b, "PTP_RXCFG2"},
	RegPTPRXCFG3: {PagePTPConfig, 0x1c, "PTP_RXCFG3"},
	RegPTPRXCFG4: {PagePTPConfig, 0x1d, "PTP_RXCFG4"},
	RegPTPTRDL:   {PagePTPConfig, 0x1e, "PTP_TRDL"},
	RegPTPTRDH:   {PagePTPConfig, 0x1f, "PTP_TRDH"},

	RegPTPCOC:     {PagePTPConfig2, 0x14, "PTP_COC"},
	RegPSFCFG1:    {PagePTPConfig2, 0x15, "PSF_CFG1"},
	RegPSFCFG2:    {PagePTPConfig2, 0x16, "PSF_CFG2"},
	RegPSFCFG3:    {PagePTPConfig2, 0x17, "PSF_CFG3"},
	RegPSFCFG4:    {PagePTPConfig2, 0x18, "PSF_CFG4"},
	RegPTPSFDCFG:  {PagePTPConfig2, 0x19, "PTP_SFDCFG"},
	RegPTPINTCTL:  {PagePTPConfig2, 0x1a, "PTP_INTCTL"},
	RegPTPCLKSRC:  {PagePTPConfig2, 0x1b, "PTP_CLKSRC"},
	RegPTPETR:     {PagePTPConfig2, 0x1c, "PTP_ETR"},
	RegPTPOFF:     {PagePTPConfig2, 0x1d, "PTP_OFF"},
	RegPTPGPIOMON: {PagePTPConfig2, 0x1e, "PTP_GPIOMON"},
	RegPTPRXHASH:  {PagePTPConfig2, 0x1f, "PTP_RXHASH"},
}

// Addr returns the MDIO register address of r.
func (r Reg) Addr() uint16 {
	if r >= numRegs {
		return 0xffff
	}
	return regTable[r].addr
}

// Page returns the page r lives in. Only meaningful if r is paged.
func (r Reg) Page() Page {
	if r >= numRegs {
		return pageNone
	}
	return regTable[r].page
}

// Paged reports whether a page must be selected before accessing r.
func (r Reg) Paged() bool { return r.Page() != pageNone }

func (r Reg) String() string {
	if r >= numRegs {
		return "Reg(" + strconv.Itoa(int(r)) + ")"
	}
	return regTable[r].name
}

// LookupReg returns the register with the datasheet name, i.e: "PTP_CTL".
func LookupReg(name string) (Reg, bool) {
	for r := Reg(0); r < numRegs; r++ {
		if regTable[r].name == name {
			return r, true
		}
	}
	return 0, false
}

// PHYSTS.
var (
	stsLink   = internal.Bit(0)
	stsSpeed  = internal.Bit(1) // Set for 10 Mbps.
	stsDuplex = internal.Bit(2) // Set for full duplex.
)

// PHYCR2.
var cr2ClkOutDis = internal.Bit(1)

// PTP_CTL.
var (
	ctlReset    = internal.Bit(0)
	ctlDisable  = internal.Bit(1)
	ctlEnable   = internal.Bit(2)
	ctlStepClk  = internal.Bit(3)
	ctlLoadClk  = internal.Bit(4)
	ctlRdClk    = internal.Bit(5)
	ctlTrigLoad = internal.Bit(6)
	ctlTrigEn   = internal.Bit(8)
	ctlTrigDis  = internal.Bit(9)
	ctlTrigSel  = internal.Field{Shift: 10, Width: 3}
)

// PTP_STS. Interrupt enables live in bits 0..3 and their ready flags in 8..11.
var stsEvents = internal.Field{Shift: 8, Width: 4}

// PTP_RATEH.
var (
	ratehHigh = internal.Field{Shift: 0, Width: 10}
	ratehTmp  = internal.Bit(14)
	ratehDir  = internal.Bit(15)
)

// PTP_ESTS.
var (
	estsDet    = internal.Bit(0)
	estsMult   = internal.Bit(1)
	estsNum    = internal.Field{Shift: 2, Width: 3}
	estsRise   = internal.Bit(5)
	estsMissed = internal.Field{Shift: 8, Width: 3}
)

// PTP_TRIG.
var (
	trigWr     = internal.Bit(0)
	trigCSel   = internal.Field{Shift: 1, Width: 3}
	trigToggle = internal.Bit(7)
	trigGPIO   = internal.Field{Shift: 8, Width: 4}
	trigNotify = internal.Bit(12)
	trigIfLate = internal.Bit(13)
	trigPer    = internal.Bit(14)
	trigPulse  = internal.Bit(15)
)

// PTP_EVNT.
var (
	evntWr     = internal.Bit(0)
	evntSel    = internal.Field{Shift: 1, Width: 3}
	evntGPIO   = internal.Field{Shift: 7, Width: 4}
	evntSingle = internal.Bit(11)
	evntFall   = internal.Bit(12)
	evntRise   = internal.Bit(13)
)

// PTP_TXCFG0.
var (
	txTSEn        = internal.Bit(0)
	txVer         = internal.Field{Shift: 1, Width: 4}
	txIPv4        = internal.Bit(5)
	txIPv6        = internal.Bit(6)
	txL2          = internal.Bit(7)
	txIP1588      = internal.Bit(8)
	txChk1Step    = internal.Bit(9)
	txCRC1Step    = internal.Bit(10)
	txIgnore2Step = internal.Bit(11)
	txNTP         = internal.Bit(12)
	txDRInsert    = internal.Bit(13)
	txSync1Step   = internal.Bit(15)
)

// PTP_TXCFG1 and PTP_RXCFG1.
var (
	byte0Data = internal.Field{Shift: 0, Width: 8}
	byte0Mask = internal.Field{Shift: 8, Width: 8}
)

// PSF_CFG0.
var (
	psfEvnt   = internal.Bit(0)
	psfTrig   = internal.Bit(1)
	psfRxTS   = internal.Bit(2)
	psfTxTS   = internal.Bit(3)
	psfErr    = internal.Bit(4)
	psfIPv4   = internal.Bit(6)
	psfEndian = internal.Bit(7)
	psfMinPre = internal.Field{Shift: 8, Width: 3}
	psfMACSrc = internal.Field{Shift: 11, Width: 2}
)

// PTP_RXCFG0.
var (
	rxTSEn      = internal.Bit(0)
	rxVer       = internal.Field{Shift: 1, Width: 4}
	rxIPv4      = internal.Bit(5)
	rxIPv6      = internal.Bit(6)
	rxL2        = internal.Bit(7)
	rxIP1588    = internal.Field{Shift: 8, Width: 3}
	rxSlave     = internal.Bit(11)
	rxUserIPEn  = internal.Bit(12)
	rxUserIPSel = internal.Bit(13)
	rxAltMstDis = internal.Bit(14)
	rxDomainEn  = internal.Bit(15)
)

// PTP_RXCFG3.
var (
	rx3Domain   = internal.Field{Shift: 0, Width: 8}
	rx3TSInsert = internal.Bit(8)
	rx3TSAppend = internal.Bit(9)
	rx3AccCRC   = internal.Bit(10)
	rx3AccUDP   = internal.Bit(11)
	rx3MinIFG   = internal.Field{Shift: 12, Width: 4}
)

// PTP_RXCFG4.
var (
	rx4SecOffset  = internal.Field{Shift: 0, Width: 6}
	rx4NsecOffset = internal.Field{Shift: 6, Width: 6}
	rx4SecLen     = internal.Field{Shift: 12, Width: 2}
	rx4SecEn      = internal.Bit(14)
	rx4UDPMod     = internal.Bit(15)
)

// PTP_TRDH holds the top 10 bits of the temporary rate duration.
var trdhHigh = internal.Field{Shift: 0, Width: 10}

// PTP_COC.
var (
	cocDiv      = internal.Field{Shift: 0, Width: 8}
	cocSpeedSel = internal.Bit(13)
	cocOutSel   = internal.Bit(14)
	cocEn       = internal.Bit(15)
)

// PSF_CFG1.
var (
	hdrMsgType  = internal.Field{Shift: 0, Width: 4}
	hdrTrans    = internal.Field{Shift: 4, Width: 4}
	hdrVer      = internal.Field{Shift: 8, Width: 4}
	hdrReserved = internal.Field{Shift: 12, Width: 4}
)

// PTP_SFDCFG.
var (
	sfdRxGPIO = internal.Field{Shift: 0, Width: 4}
	sfdTxGPIO = internal.Field{Shift: 4, Width: 4}
)

// PTP_INTCTL.
var intGPIO = internal.Field{Shift: 0, Width: 4}

// PTP_CLKSRC.
var (
	clkPeriod = internal.Field{Shift: 0, Width: 7}
	clkSrc    = internal.Field{Shift: 14, Width: 2}
)

// PTP_OFF.
var offOffset = internal.Field{Shift: 0, Width: 8}
