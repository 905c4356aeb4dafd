package phy

import "strconv"

// Speed is the Ethernet link speed reported to the host.
type Speed uint8

const (
	Speed10M   Speed = iota // 10Mbps
	Speed100M               // 100Mbps
	Speed1000M              // 1000Mbps
)

// Mbps returns the speed in megabits per second.
func (s Speed) Mbps() int {
	switch s {
	case Speed10M:
		return 10
	case Speed100M:
		return 100
	case Speed1000M:
		return 1000
	}
	return 0
}

func (s Speed) String() string {
	switch s {
	case Speed10M:
		return "10Mbps"
	case Speed100M:
		return "100Mbps"
	case Speed1000M:
		return "1000Mbps"
	}
	return "Speed(" + strconv.Itoa(int(s)) + ")"
}

// Duplex is the Ethernet link duplex mode reported to the host.
type Duplex uint8

const (
	HalfDuplex Duplex = iota
	FullDuplex
)

func (d Duplex) String() string {
	switch d {
	case HalfDuplex:
		return "half"
	case FullDuplex:
		return "full"
	}
	return "Duplex(" + strconv.Itoa(int(d)) + ")"
}

// LinkState is the abstract link tuple every vendor decoder normalizes to.
type LinkState struct {
	Up     bool
	Speed  Speed
	Duplex Duplex
	// Pause is set when running full duplex and the link partner advertised symmetric pause.
	Pause bool
}

// Mode returns the LinkMode equivalent of s. Returns LinkDown when the link is down.
func (s LinkState) Mode() LinkMode {
	if !s.Up {
		return LinkDown
	}
	full := s.Duplex == FullDuplex
	switch s.Speed {
	case Speed10M:
		if full {
			return Link10FDX
		}
		return Link10HDX
	case Speed100M:
		if full {
			return Link100FDX
		}
		return Link100HDX
	case Speed1000M:
		if full {
			return Link1000FDX
		}
		return Link1000HDX
	}
	return LinkDown
}

// modeState returns the speed and duplex of lm. Modes above gigabit and LinkDown
// return 10Mbps half duplex, the defaults of a link with no resolved technology.
func modeState(lm LinkMode) (Speed, Duplex) {
	duplex := HalfDuplex
	if lm.IsFullDuplex() {
		duplex = FullDuplex
	}
	switch lm.SpeedMbps() {
	case 100:
		return Speed100M, duplex
	case 1000:
		return Speed1000M, duplex
	case 10:
		return Speed10M, duplex
	}
	return Speed10M, HalfDuplex
}

// LinkMode represents the negotiated/force-set Ethernet link speed and duplex mode.
//
// Naming convention:
//   - H/HDX: Half-duplex (one direction at a time)
//   - F/FDX: Full-duplex (simultaneous bidirectional)
//   - T4: 100BASE-T4 (100Mbps over 4 twisted pairs, legacy)
type LinkMode uint8

const (
	LinkDown    LinkMode = iota // down
	Link10HDX                   // 10M-H
	Link10FDX                   // 10M-F
	Link100HDX                  // 100M-H
	Link100FDX                  // 100M-F
	Link100T4                   // 100M-T4
	Link1000HDX                 // 1000M-H
	Link1000FDX                 // 1000M-F
)

func (lm LinkMode) String() string {
	switch lm {
	case LinkDown:
		return "down"
	case Link10HDX:
		return "10M-H"
	case Link10FDX:
		return "10M-F"
	case Link100HDX:
		return "100M-H"
	case Link100FDX:
		return "100M-F"
	case Link100T4:
		return "100M-T4"
	case Link1000HDX:
		return "1000M-H"
	case Link1000FDX:
		return "1000M-F"
	}
	return "LinkMode(" + strconv.Itoa(int(lm)) + ")"
}

// SpeedMbps returns the link speed in megabits per second.
func (lm LinkMode) SpeedMbps() int {
	switch lm {
	case Link10HDX, Link10FDX:
		return 10
	case Link100HDX, Link100FDX, Link100T4:
		return 100
	case Link1000HDX, Link1000FDX:
		return 1000
	default:
		return 0
	}
}

// IsFullDuplex returns true if the link mode is full duplex.
func (lm LinkMode) IsFullDuplex() bool {
	return lm == Link10FDX || lm == Link100FDX || lm == Link1000FDX
}

// StateKind identifies which part of the link state a [StateChange] carries.
type StateKind uint8

const (
	_ StateKind = iota
	StateLink
	StateSpeed
	StateDuplex
	StatePause
)

func (k StateKind) String() string {
	switch k {
	case StateLink:
		return "link"
	case StateSpeed:
		return "speed"
	case StateDuplex:
		return "duplex"
	case StatePause:
		return "pause"
	}
	return "StateKind(" + strconv.Itoa(int(k)) + ")"
}

// StateChange is pushed to the host through [Mediator.OnStateChanged] whenever
// link decoding detects a link edge. Only the field selected by Kind is meaningful.
type StateChange struct {
	Kind   StateKind
	Up     bool
	Speed  Speed
	Duplex Duplex
	Pause  bool
}

func (sc StateChange) String() string {
	var v string
	switch sc.Kind {
	case StateLink:
		v = "down"
		if sc.Up {
			v = "up"
		}
	case StateSpeed:
		v = sc.Speed.String()
	case StateDuplex:
		v = sc.Duplex.String()
	case StatePause:
		v = strconv.FormatBool(sc.Pause)
	}
	return sc.Kind.String() + "=" + v
}
