package dp83640_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/soypat/ethphy"
	"github.com/soypat/ethphy/dp83640"
	"github.com/soypat/ethphy/internal/phytest"
)

func TestSetTriggerBehavior(t *testing.T) {
	p, m := newDP(t)
	err := p.SetTriggerBehavior(dp83640.TriggerBehavior{
		ID:       3,
		GPIO:     5,
		Pulse:    true,
		Periodic: true,
		Notify:   true,
	})
	if err != nil {
		t.Fatal(err)
	}
	checkLog(t, m, []phytest.Access{
		sel(dp83640.PagePTPConfig),
		wr(5, 0x14, 1|3<<1|5<<8|1<<12|1<<14|1<<15),
	})
	for _, bad := range []dp83640.TriggerBehavior{{ID: 8}, {GPIO: 13}} {
		err = p.SetTriggerBehavior(bad)
		if !errors.Is(err, ethphy.ErrInvalidArg) {
			t.Errorf("%+v: got %v", bad, err)
		}
	}
}

func TestRegisterTrigger(t *testing.T) {
	trig := dp83640.Trigger{
		Expire:       dp83640.Timestamp{Sec: 0x00050006, Nsec: 500_000_000}, // 0x1dcd6500
		PulseWidth:   0x00010002,
		PulseWidth2:  0x00030004,
		Init:         true,
		WaitRollover: true,
	}
	timing := []uint16{0x6500, 0xc000 | 0x1dcd, 0x0006, 0x0005, 0x0002, 0x0001}
	for id := uint8(0); id < dp83640.NumTriggers; id++ {
		p, m := newDP(t)
		trig.ID = id
		err := p.RegisterTrigger(trig)
		if err != nil {
			t.Fatal(err)
		}
		words := timing
		if id <= 1 {
			words = append(words[:len(words):len(words)], 0x0004, 0x0003)
		}
		want := []phytest.Access{
			sel(dp83640.PagePTPBase),
			rd(4, regCTL, 0),
			wr(4, regCTL, uint16(id)<<10|1<<6), // TRIG_SEL, TRIG_LOAD.
		}
		for _, w := range words {
			want = append(want, wr(4, regTDR, w))
		}
		want = append(want, wr(4, regCTL, uint16(id)<<10|1<<8)) // TRIG_SEL, TRIG_EN.
		if diff := cmp.Diff(want, m.Log); diff != "" {
			t.Errorf("trigger %d (-want +got):\n%s", id, diff)
		}
	}
}

func TestRegisterTriggerInvalid(t *testing.T) {
	p, m := newDP(t)
	for _, trig := range []dp83640.Trigger{{ID: 8}, {Expire: dp83640.Timestamp{Nsec: 1e9}}} {
		err := p.RegisterTrigger(trig)
		if !errors.Is(err, ethphy.ErrInvalidArg) {
			t.Errorf("%+v: got %v", trig, err)
		}
	}
	if len(m.Log) != 0 {
		t.Errorf("bus accessed: %v", m.Log)
	}
}

func TestTriggerExpired(t *testing.T) {
	tests := []struct {
		tsts    uint16
		expired bool
		err     error
	}{
		{tsts: 1 << 4, expired: false},
		{tsts: 0, expired: true},
		// Other triggers do not matter.
		{tsts: 0xffcf, expired: true},
		{tsts: 1<<4 | 1<<5, err: ethphy.ErrTriggerLate},
	}
	for _, tc := range tests {
		p, m := newDP(t)
		m.Set(4, regTSTS, tc.tsts)
		expired, err := p.TriggerExpired(2)
		if !errors.Is(err, tc.err) {
			t.Errorf("tsts %#04x: got err %v want %v", tc.tsts, err, tc.err)
		}
		if expired != tc.expired {
			t.Errorf("tsts %#04x: got expired %v", tc.tsts, expired)
		}
	}
	p, _ := newDP(t)
	_, err := p.TriggerExpired(8)
	if !errors.Is(err, ethphy.ErrInvalidArg) {
		t.Errorf("trigger 8: %v", err)
	}
}

func TestUnregisterTrigger(t *testing.T) {
	p, m := newDP(t)
	m.Set(4, regCTL, 1<<2) // Enabled.
	err := p.UnregisterTrigger(5)
	if err != nil {
		t.Fatal(err)
	}
	checkLog(t, m, []phytest.Access{
		sel(dp83640.PagePTPBase),
		rd(4, regCTL, 1<<2),
		wr(4, regCTL, 1<<2|5<<10|1<<9),
	})
	err = p.UnregisterTrigger(8)
	if !errors.Is(err, ethphy.ErrInvalidArg) {
		t.Errorf("trigger 8: %v", err)
	}
}

func TestConfigEvent(t *testing.T) {
	p, m := newDP(t)
	err := p.ConfigEvent(dp83640.EventConfig{ID: 2, GPIO: 12, Rise: true, Single: true})
	if err != nil {
		t.Fatal(err)
	}
	checkLog(t, m, []phytest.Access{
		sel(dp83640.PagePTPConfig),
		wr(5, 0x15, 1|2<<1|12<<7|1<<11|1<<13),
	})
	for _, bad := range []dp83640.EventConfig{{ID: 8}, {GPIO: 13}} {
		err = p.ConfigEvent(bad)
		if !errors.Is(err, ethphy.ErrInvalidArg) {
			t.Errorf("%+v: got %v", bad, err)
		}
	}
}

func TestEventStatus(t *testing.T) {
	p, m := newDP(t)
	// Interrupt enables in the low nibble must not leak into the status.
	m.Set(4, regSTS, 1<<9|1<<11|0xf)
	got, err := p.EventStatus()
	if err != nil {
		t.Fatal(err)
	}
	if want := dp83640.TriggerDone | dp83640.TxTimestampReady; got != want {
		t.Errorf("got %v want %v", got, want)
	}
	if s := got.String(); s != "trigger|txts" {
		t.Errorf("String() = %q", s)
	}
	if s := dp83640.EventStatus(0).String(); s != "none" {
		t.Errorf("String() = %q", s)
	}
}

func TestEventNone(t *testing.T) {
	p, m := newDP(t)
	m.Set(4, regESTS, 3<<8) // Three events missed, none detected.
	ev, err := p.Event()
	if !errors.Is(err, ethphy.ErrNoEvent) {
		t.Fatalf("got %v", err)
	}
	if ev.Missed != 3 {
		t.Errorf("missed %d", ev.Missed)
	}
	checkLog(t, m, []phytest.Access{
		sel(dp83640.PagePTPBase),
		rd(4, regESTS, 3<<8),
	})
}

func TestEvent(t *testing.T) {
	tests := []struct {
		name  string
		ests  uint16
		edata []uint16
		want  dp83640.Event
	}{
		{
			name:  "single-rise",
			ests:  1 | 5<<2 | 1<<5, // Detected, event 5, rising.
			edata: []uint16{1000, 0, 7, 0},
			want: dp83640.Event{
				Detected: 1 << 5,
				Rising:   1 << 5,
				Time:     dp83640.Timestamp{Sec: 7, Nsec: 965},
			},
		},
		{
			name:  "single-fall-missed",
			ests:  1 | 2<<2 | 1<<8,
			edata: []uint16{0x0023, 0x0001, 0x0001, 0x0001},
			want: dp83640.Event{
				Detected: 1 << 2,
				Time:     dp83640.Timestamp{Sec: 0x10001, Nsec: 0x10000},
				Missed:   1,
			},
		},
		{
			name: "multiple-borrow",
			ests: 1 | 1<<1,
			// Event 0 rising, event 3 falling, then the timestamp.
			edata: []uint16{0b11 | 1<<6, 10, 0, 5, 0},
			want: dp83640.Event{
				Detected: 1<<0 | 1<<3,
				Rising:   1 << 0,
				Time:     dp83640.Timestamp{Sec: 4, Nsec: 999_999_975},
			},
		},
		{
			name:  "clamp-at-zero",
			ests:  1,
			edata: []uint16{10, 0, 0, 0},
			want:  dp83640.Event{Detected: 1},
		},
		{
			name:  "exact-delay",
			ests:  1,
			edata: []uint16{35, 0, 1, 0},
			want:  dp83640.Event{Detected: 1, Time: dp83640.Timestamp{Sec: 1}},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p, m := newDP(t)
			m.Set(4, regESTS, tc.ests)
			m.Queue(4, regEDAT, tc.edata...)
			got, err := p.Event()
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
			if n := m.Reads(4, regEDAT); n != len(tc.edata) {
				t.Errorf("read EDATA %d times want %d", n, len(tc.edata))
			}
		})
	}
}

func TestEventReadError(t *testing.T) {
	p, m := newDP(t)
	m.Set(4, regESTS, 1)
	m.FailAt(4) // Second EDATA read.
	_, err := p.Event()
	var regErr *ethphy.RegisterError
	if !errors.As(err, &regErr) || regErr.Page != 4 || regErr.Reg != regEDAT {
		t.Fatalf("want EDATA register error, got %v", err)
	}
}
