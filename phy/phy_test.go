package phy_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/soypat/ethphy"
	"github.com/soypat/ethphy/internal/phytest"
	"github.com/soypat/ethphy/phy"
)

const testAddr = 3

func newGeneric(t *testing.T, cfg phy.Config) (*phy.Generic, *phytest.Mediator) {
	t.Helper()
	m := phytest.NewMediator(testAddr)
	m.Set(0, phy.AddrPHYIDR1, 0x2000)
	m.Set(0, phy.AddrPHYIDR2, 0x5ce1)
	m.SelfClear(0, phy.AddrBMCR, uint16(phy.BMCRReset))
	if cfg.ResetTimeout == 0 {
		cfg.ResetTimeout = 5 * time.Millisecond
	}
	g, err := phy.NewGeneric(cfg)
	if err != nil {
		t.Fatal(err)
	}
	err = g.SetMediator(m)
	if err != nil {
		t.Fatal(err)
	}
	return g, m
}

func TestGenericInit(t *testing.T) {
	g, m := newGeneric(t, phy.Config{Addr: phy.AddrAuto})
	if _, err := g.Addr(); err == nil {
		t.Fatal("expected address error before detection")
	}
	m.Set(0, phy.AddrBMCR, uint16(phy.BMCRPowerDown))
	err := g.Init()
	if err != nil {
		t.Fatal(err)
	}
	addr, err := g.Addr()
	if err != nil || addr != testAddr {
		t.Fatalf("detected addr=%d err=%v; want %d", addr, err, testAddr)
	}
	if bmcr := phy.BMCR(m.Get(0, phy.AddrBMCR)); bmcr&(phy.BMCRPowerDown|phy.BMCRReset) != 0 {
		t.Errorf("PHY left powered down or in reset: %#04x", bmcr)
	}
	oui, err := g.ReadOUI()
	if err != nil {
		t.Fatal(err)
	}
	model, rev, err := g.ReadManufacturerInfo()
	if err != nil {
		t.Fatal(err)
	}
	if oui != 0x80017 || model != 0x0e || rev != 1 {
		t.Errorf("got oui=%#x model=%#x rev=%d", oui, model, rev)
	}
	if err := g.CheckID(0x80017, 0x0e); err != nil {
		t.Error(err)
	}
	err = g.CheckID(0xa0ef, 0x02)
	if !errors.Is(err, ethphy.ErrWrongChip) {
		t.Errorf("want wrong chip error, got %v", err)
	}
	var idErr *phy.IDError
	if !errors.As(err, &idErr) || idErr.OUI != 0x80017 {
		t.Errorf("want IDError with read OUI, got %#v", err)
	}
}

func TestGenericResetTimeout(t *testing.T) {
	m := phytest.NewMediator(testAddr)
	g, err := phy.NewGeneric(phy.Config{Addr: testAddr, ResetTimeout: 2 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	g.SetMediator(m)
	// Reset bit never self-clears.
	err = g.Reset()
	if !errors.Is(err, ethphy.ErrTimeout) {
		t.Fatalf("want timeout, got %v", err)
	}
}

func TestGenericConfig(t *testing.T) {
	_, err := phy.NewGeneric(phy.Config{Addr: 32})
	if !errors.Is(err, ethphy.ErrInvalidAddr) {
		t.Errorf("addr 32: got %v", err)
	}
	g, err := phy.NewGeneric(phy.Config{Addr: 1})
	if err != nil {
		t.Fatal(err)
	}
	if err := g.SetMediator(nil); !errors.Is(err, ethphy.ErrInvalidArg) {
		t.Errorf("nil mediator: got %v", err)
	}
	if err := g.GetLink(); !errors.Is(err, ethphy.ErrInvalidState) {
		t.Errorf("no mediator: got %v", err)
	}
	if err := g.SetAddr(40); err == nil {
		t.Error("expected error setting addr 40")
	}
}

func TestGenericGetLinkEdges(t *testing.T) {
	g, m := newGeneric(t, phy.Config{Addr: testAddr})
	m.Set(0, phy.AddrBMCR, uint16(phy.BMCRANEnable))
	m.Set(0, phy.AddrANAR, uint16(phy.NewANAR().WithMaxSpeed(100).WithPause(true, false)))
	m.Set(0, phy.AddrANLPAR, uint16(phy.NewANAR()|phy.ANAR10Half|phy.ANAR10Full|phy.ANAR100Full|phy.ANARPause))
	m.Set(0, phy.AddrBMSR, uint16(phy.BMSRLinkStatus|phy.BMSRANComplete))

	for i := 0; i < 3; i++ {
		err := g.GetLink()
		if err != nil {
			t.Fatal(err)
		}
	}
	want := []phy.StateChange{
		{Kind: phy.StateSpeed, Speed: phy.Speed100M},
		{Kind: phy.StateDuplex, Duplex: phy.FullDuplex},
		{Kind: phy.StatePause, Pause: true},
		{Kind: phy.StateLink, Up: true},
	}
	if diff := cmp.Diff(want, m.Changes); diff != "" {
		t.Fatalf("link up notifications mismatch (-want +got):\n%s", diff)
	}
	if !g.LinkUp() {
		t.Error("link not cached as up")
	}

	m.Changes = nil
	m.Set(0, phy.AddrBMSR, 0)
	g.GetLink()
	g.GetLink()
	want = []phy.StateChange{{Kind: phy.StateLink, Up: false}}
	if diff := cmp.Diff(want, m.Changes); diff != "" {
		t.Fatalf("link down notifications mismatch (-want +got):\n%s", diff)
	}
}

func TestGenericGetLinkForced(t *testing.T) {
	g, m := newGeneric(t, phy.Config{Addr: testAddr})
	m.Set(0, phy.AddrBMCR, uint16(phy.BMCRSpeed100))
	m.Set(0, phy.AddrANLPAR, uint16(phy.ANARPause))
	m.Set(0, phy.AddrBMSR, uint16(phy.BMSRLinkStatus))
	err := g.GetLink()
	if err != nil {
		t.Fatal(err)
	}
	want := []phy.StateChange{
		{Kind: phy.StateSpeed, Speed: phy.Speed100M},
		{Kind: phy.StateDuplex, Duplex: phy.HalfDuplex},
		{Kind: phy.StatePause, Pause: false}, // Pause needs full duplex.
		{Kind: phy.StateLink, Up: true},
	}
	if diff := cmp.Diff(want, m.Changes); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestGenericNotifyError(t *testing.T) {
	g, m := newGeneric(t, phy.Config{Addr: testAddr})
	m.Set(0, phy.AddrBMSR, uint16(phy.BMSRLinkStatus))
	hostErr := errors.New("host refused")
	m.Err = hostErr
	err := g.GetLink()
	if !errors.Is(err, hostErr) {
		t.Fatalf("want host error, got %v", err)
	}
	if g.LinkUp() {
		t.Fatal("link cached as up after failed notification")
	}
	m.Err = nil
	err = g.GetLink()
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Changes) != 4 {
		t.Errorf("want retried link up notification, got %v", m.Changes)
	}
}

func TestGenericBusError(t *testing.T) {
	g, m := newGeneric(t, phy.Config{Addr: testAddr})
	m.FailAt(2) // BMSR read.
	err := g.GetLink()
	if !errors.Is(err, phytest.ErrBus) {
		t.Fatalf("want bus error, got %v", err)
	}
	var regErr *ethphy.RegisterError
	if !errors.As(err, &regErr) {
		t.Fatalf("want RegisterError, got %T", err)
	}
	if regErr.Op != "read" || regErr.Reg != phy.AddrBMSR || regErr.Page != -1 {
		t.Errorf("got %+v", regErr)
	}
}

func TestGenericAutoNegotiation(t *testing.T) {
	g, m := newGeneric(t, phy.Config{Addr: testAddr})
	_, err := g.AutoNegotiation(phy.AutoNegRestart)
	if !errors.Is(err, ethphy.ErrInvalidState) {
		t.Errorf("restart with AN disabled: got %v", err)
	}
	tests := []struct {
		cmd     phy.AutoNegCmd
		want    bool
		wantReg phy.BMCR
	}{
		{cmd: phy.AutoNegEnable, want: true, wantReg: phy.BMCRANEnable | phy.BMCRANRestart},
		{cmd: phy.AutoNegStatus, want: true, wantReg: phy.BMCRANEnable | phy.BMCRANRestart},
		{cmd: phy.AutoNegRestart, want: true, wantReg: phy.BMCRANEnable | phy.BMCRANRestart},
		{cmd: phy.AutoNegDisable, want: false, wantReg: 0},
		{cmd: phy.AutoNegStatus, want: false, wantReg: 0},
	}
	for _, tc := range tests {
		t.Run(tc.cmd.String(), func(t *testing.T) {
			got, err := g.AutoNegotiation(tc.cmd)
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Errorf("enabled=%v want %v", got, tc.want)
			}
			if reg := phy.BMCR(m.Get(0, phy.AddrBMCR)); reg != tc.wantReg {
				t.Errorf("BMCR=%#04x want %#04x", reg, tc.wantReg)
			}
		})
	}
	_, err = g.AutoNegotiation(phy.AutoNegCmd(99))
	if !errors.Is(err, ethphy.ErrInvalidArg) {
		t.Errorf("unknown cmd: got %v", err)
	}
}

func TestGenericSpeedDuplexLoopback(t *testing.T) {
	g, m := newGeneric(t, phy.Config{Addr: testAddr})
	m.Set(0, phy.AddrBMCR, uint16(phy.BMCRSpeed1000))
	if err := g.SetSpeed(phy.Speed100M); err != nil {
		t.Fatal(err)
	}
	if got := phy.BMCR(m.Get(0, phy.AddrBMCR)); got != phy.BMCRSpeed100 {
		t.Errorf("after SetSpeed BMCR=%#04x", got)
	}
	if err := g.SetDuplex(phy.FullDuplex); err != nil {
		t.Fatal(err)
	}
	if err := g.SetLoopback(true); err != nil {
		t.Fatal(err)
	}
	if got := phy.BMCR(m.Get(0, phy.AddrBMCR)); got != phy.BMCRSpeed100|phy.BMCRFullDuplex|phy.BMCRLoopback {
		t.Errorf("BMCR=%#04x", got)
	}
	if err := g.SetDuplex(phy.HalfDuplex); !errors.Is(err, ethphy.ErrInvalidState) {
		t.Errorf("half duplex in loopback: got %v", err)
	}
	if err := g.SetLoopback(false); err != nil {
		t.Fatal(err)
	}
	if err := g.SetDuplex(phy.HalfDuplex); err != nil {
		t.Fatal(err)
	}
	if got := phy.BMCR(m.Get(0, phy.AddrBMCR)); got != phy.BMCRSpeed100 {
		t.Errorf("BMCR=%#04x", got)
	}
	if err := g.SetSpeed(phy.Speed(7)); !errors.Is(err, ethphy.ErrInvalidArg) {
		t.Errorf("bad speed: got %v", err)
	}
	if err := g.SetupForced(phy.Link10FDX); err != nil {
		t.Fatal(err)
	}
	if got := phy.BMCR(m.Get(0, phy.AddrBMCR)); got.LinkMode() != phy.Link10FDX {
		t.Errorf("forced mode %v", got.LinkMode())
	}
}

func TestGenericPauseAdvertisement(t *testing.T) {
	g, m := newGeneric(t, phy.Config{Addr: testAddr})
	base := phy.NewANAR() | phy.ANAR10Half | phy.ANAR10Full
	m.Set(0, phy.AddrANAR, uint16(base))
	if err := g.AdvertisePauseAbility(true); err != nil {
		t.Fatal(err)
	}
	want := base | phy.ANARPause | phy.ANARPauseAsym
	if got := phy.ANAR(m.Get(0, phy.AddrANAR)); got != want {
		t.Errorf("ANAR=%#04x want %#04x", got, want)
	}
	if err := g.AdvertisePauseAbility(false); err != nil {
		t.Fatal(err)
	}
	if got := phy.ANAR(m.Get(0, phy.AddrANAR)); got != base {
		t.Errorf("ANAR=%#04x", got)
	}
}

func TestGenericSetLink(t *testing.T) {
	g, m := newGeneric(t, phy.Config{Addr: testAddr})
	g.SetLink(true)
	g.SetLink(true)
	g.SetLink(false)
	want := []phy.StateChange{{Kind: phy.StateLink, Up: true}, {Kind: phy.StateLink, Up: false}}
	if diff := cmp.Diff(want, m.Changes); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestGenericIoctl(t *testing.T) {
	g, m := newGeneric(t, phy.Config{Addr: testAddr})
	m.Set(0, 0x1f, 0xbeef)
	ra := phy.RegAccess{Reg: 0x1f}
	if err := g.Ioctl(phy.IoctlReadReg, &ra); err != nil {
		t.Fatal(err)
	}
	if ra.Value != 0xbeef {
		t.Errorf("read %#04x", ra.Value)
	}
	ra = phy.RegAccess{Reg: 0x1e, Value: 0x1234}
	if err := g.Ioctl(phy.IoctlWriteReg, &ra); err != nil {
		t.Fatal(err)
	}
	if m.Get(0, 0x1e) != 0x1234 {
		t.Error("write not applied")
	}
	if err := g.Ioctl(phy.IoctlReadReg, ra); !errors.Is(err, ethphy.ErrInvalidArg) {
		t.Errorf("non-pointer arg: got %v", err)
	}
	if err := g.Ioctl(phy.IoctlVendor, nil); !errors.Is(err, ethphy.ErrNotSupported) {
		t.Errorf("vendor cmd: got %v", err)
	}
}

func TestGenericResetHW(t *testing.T) {
	var levels []bool
	g, _ := newGeneric(t, phy.Config{Addr: testAddr, ResetPin: func(high bool) { levels = append(levels, high) }})
	if err := g.ResetHW(); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]bool{false, true}, levels); diff != "" {
		t.Errorf("reset pin sequence (-want +got):\n%s", diff)
	}
}

func TestFindClause22PHYs(t *testing.T) {
	m := phytest.New(17)
	m.Set(0, phy.AddrPHYIDR1, 0x0283)
	var found [32]uint8
	n, err := phy.FindClause22PHYs(m, found[:])
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 || found[0] != 17 {
		t.Errorf("found %v", found[:n])
	}
	_, err = phy.FindClause22PHYs(phytest.New(0), found[:])
	if err == nil {
		t.Error("PHY with zero ID should not be found")
	}
	_, err = phy.FindClause22PHYs(m, found[:4])
	if !errors.Is(err, ethphy.ErrShortBuffer) {
		t.Errorf("short buffer: got %v", err)
	}
}
