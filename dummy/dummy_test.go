package dummy_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/soypat/ethphy"
	"github.com/soypat/ethphy/dummy"
	"github.com/soypat/ethphy/internal/phytest"
	"github.com/soypat/ethphy/phy"
)

func newDummy(t *testing.T) (*dummy.PHY, *phytest.Mediator) {
	t.Helper()
	m := phytest.NewMediator(0)
	p := dummy.New(dummy.Config{})
	if err := p.SetMediator(m); err != nil {
		t.Fatal(err)
	}
	return p, m
}

func TestGetLink(t *testing.T) {
	p, m := newDummy(t)
	for i := 0; i < 3; i++ {
		if err := p.GetLink(); err != nil {
			t.Fatal(err)
		}
	}
	want := []phy.StateChange{
		{Kind: phy.StateSpeed, Speed: phy.Speed100M},
		{Kind: phy.StateDuplex, Duplex: phy.FullDuplex},
		{Kind: phy.StatePause, Pause: false},
		{Kind: phy.StateLink, Up: true},
	}
	if diff := cmp.Diff(want, m.Changes); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if len(m.Log) != 0 {
		t.Errorf("dummy PHY accessed the bus: %v", m.Log)
	}
}

func TestSetSpeedDuplex(t *testing.T) {
	p, m := newDummy(t)
	p.GetLink()
	m.Changes = nil
	if err := p.SetSpeed(phy.Speed10M); err != nil {
		t.Fatal(err)
	}
	if err := p.SetDuplex(phy.HalfDuplex); err != nil {
		t.Fatal(err)
	}
	want := []phy.StateChange{
		{Kind: phy.StateSpeed, Speed: phy.Speed10M},
		{Kind: phy.StateDuplex, Duplex: phy.FullDuplex},
		{Kind: phy.StatePause, Pause: false},
		{Kind: phy.StateLink, Up: true},
		{Kind: phy.StateSpeed, Speed: phy.Speed10M},
		{Kind: phy.StateDuplex, Duplex: phy.HalfDuplex},
		{Kind: phy.StatePause, Pause: false},
		{Kind: phy.StateLink, Up: true},
	}
	if diff := cmp.Diff(want, m.Changes); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if got := p.Link().Mode(); got != phy.Link10HDX {
		t.Errorf("mode %v", got)
	}
}

func TestSetSpeedNotifyErrorIgnored(t *testing.T) {
	p, m := newDummy(t)
	m.Err = errors.New("host busy")
	if err := p.SetSpeed(phy.Speed10M); err != nil {
		t.Fatalf("SetSpeed must not fail on notification error: %v", err)
	}
}

func TestSetLink(t *testing.T) {
	p, m := newDummy(t)
	p.SetLink(true)
	p.SetLink(true)
	p.SetLink(false)
	p.SetLink(false)
	want := []phy.StateChange{{Kind: phy.StateLink, Up: true}, {Kind: phy.StateLink, Up: false}}
	if diff := cmp.Diff(want, m.Changes); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestAutoNegotiation(t *testing.T) {
	p, _ := newDummy(t)
	for _, cmd := range []phy.AutoNegCmd{phy.AutoNegRestart, phy.AutoNegEnable, phy.AutoNegDisable} {
		_, err := p.AutoNegotiation(cmd)
		if !errors.Is(err, ethphy.ErrNotSupported) {
			t.Errorf("%v: got %v", cmd, err)
		}
	}
	enabled, err := p.AutoNegotiation(phy.AutoNegStatus)
	if err != nil || enabled {
		t.Errorf("status: enabled=%v err=%v", enabled, err)
	}
	_, err = p.AutoNegotiation(0)
	if !errors.Is(err, ethphy.ErrInvalidArg) {
		t.Errorf("unknown: got %v", err)
	}
}

func TestSetMediatorNil(t *testing.T) {
	p := dummy.New(dummy.Config{})
	if err := p.SetMediator(nil); !errors.Is(err, ethphy.ErrInvalidArg) {
		t.Errorf("got %v", err)
	}
}

func TestResetHW(t *testing.T) {
	var levels []bool
	p := dummy.New(dummy.Config{ResetPin: func(high bool) { levels = append(levels, high) }})
	if err := p.ResetHW(); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]bool{false, true}, levels); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	// No pin configured is a no-op.
	if err := dummy.New(dummy.Config{}).ResetHW(); err != nil {
		t.Error(err)
	}
}
