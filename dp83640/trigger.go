package dp83640

import (
	"log/slog"

	"github.com/soypat/ethphy"
)

const (
	// NumTriggers is the number of trigger units, IDs 0 through 7.
	NumTriggers = 8
	// NumEvents is the number of event timestamp units, IDs 0 through 7.
	NumEvents = 8
	// MaxGPIO is the highest GPIO a trigger or event may be connected to. Zero disconnects.
	MaxGPIO = 12

	// pinInputDelay is subtracted from event timestamps: 4 reference clock
	// periods of edge detection plus 3 ns of pin input delay.
	pinInputDelay = 35
)

// TDR high nanosecond word flags of the trigger expire time.
const (
	trigInitValue    = 1 << 15
	trigWaitRollover = 1 << 14
)

// TriggerBehavior configures the output a trigger generates when it expires.
type TriggerBehavior struct {
	ID uint8
	// GPIO connects the trigger to a pin, 1 through 12. Zero leaves it disconnected.
	GPIO uint8
	// Pulse generates a pulse instead of a single edge.
	Pulse bool
	// Periodic repeats the signal every pulse period.
	Periodic bool
	// IfLate fires immediately when the trigger is registered with an expire time in the past.
	IfLate bool
	// Notify reports trigger completion and late errors in PTP_STS.
	Notify bool
	// Toggle toggles the output on expiry ignoring the initial value.
	Toggle bool
}

// SetTriggerBehavior writes the behavior of a trigger unit.
func (p *PHY) SetTriggerBehavior(cfg TriggerBehavior) error {
	if cfg.ID >= NumTriggers || cfg.GPIO > MaxGPIO {
		return ethphy.ErrInvalidArg
	}
	v := trigWr.SetBool(0, true)
	v = trigCSel.Set(v, uint16(cfg.ID))
	v = trigGPIO.Set(v, uint16(cfg.GPIO))
	v = trigPulse.SetBool(v, cfg.Pulse)
	v = trigPer.SetBool(v, cfg.Periodic)
	v = trigIfLate.SetBool(v, cfg.IfLate)
	v = trigNotify.SetBool(v, cfg.Notify)
	v = trigToggle.SetBool(v, cfg.Toggle)
	err := p.selectPage(PagePTPConfig)
	if err != nil {
		return err
	}
	return p.write(RegPTPTRIG, v)
}

// Trigger is the timing of a trigger unit.
type Trigger struct {
	ID     uint8
	Expire Timestamp
	// PulseWidth is the width of the generated pulse in nanoseconds.
	PulseWidth uint32
	// PulseWidth2 is the low period of periodic signals. Only triggers 0 and 1 support it.
	PulseWidth2 uint32
	// Init is the output value before the trigger expires.
	Init bool
	// WaitRollover delays arming until the clock's seconds roll over.
	WaitRollover bool
}

// RegisterTrigger loads the timing of a trigger unit and enables it.
func (p *PHY) RegisterTrigger(trig Trigger) error {
	if trig.ID >= NumTriggers || trig.Expire.Nsec >= nsecPerSec {
		return ethphy.ErrInvalidArg
	}
	err := p.selectPage(PagePTPBase)
	if err != nil {
		return err
	}
	ctl, err := p.modify(RegPTPCTL, func(v uint16) uint16 {
		v = ctlTrigSel.Set(v, uint16(trig.ID))
		return ctlTrigLoad.SetBool(v, true)
	})
	if err != nil {
		return err
	}
	nsecHi := uint16(trig.Expire.Nsec >> 16)
	if trig.Init {
		nsecHi |= trigInitValue
	}
	if trig.WaitRollover {
		nsecHi |= trigWaitRollover
	}
	words := [8]uint16{
		uint16(trig.Expire.Nsec), nsecHi,
		uint16(trig.Expire.Sec), uint16(trig.Expire.Sec >> 16),
		uint16(trig.PulseWidth), uint16(trig.PulseWidth >> 16),
		uint16(trig.PulseWidth2), uint16(trig.PulseWidth2 >> 16),
	}
	n := len(words)
	if trig.ID > 1 {
		n -= 2
	}
	for _, w := range words[:n] {
		err = p.write(RegPTPTDR, w)
		if err != nil {
			return err
		}
	}
	ctl = ctlTrigEn.SetBool(ctl, true)
	err = p.write(RegPTPCTL, ctlTrigLoad.SetBool(ctl, false))
	if err != nil {
		return err
	}
	p.debug("dp83640:trigger", slog.Uint64("id", uint64(trig.ID)),
		slog.Uint64("sec", uint64(trig.Expire.Sec)), slog.Uint64("nsec", uint64(trig.Expire.Nsec)))
	return nil
}

// TriggerExpired reports whether a registered trigger has fired. If the trigger
// was registered with an expire time already in the past it returns [ethphy.ErrTriggerLate].
func (p *PHY) TriggerExpired(id uint8) (bool, error) {
	if id >= NumTriggers {
		return false, ethphy.ErrInvalidArg
	}
	err := p.selectPage(PagePTPBase)
	if err != nil {
		return false, err
	}
	tsts, err := p.read(RegPTPTSTS)
	if err != nil {
		return false, err
	}
	active := tsts&(1<<(2*id)) != 0
	late := tsts&(1<<(2*id+1)) != 0
	if late {
		return false, ethphy.ErrTriggerLate
	}
	return !active, nil
}

// UnregisterTrigger disables a trigger unit.
func (p *PHY) UnregisterTrigger(id uint8) error {
	if id >= NumTriggers {
		return ethphy.ErrInvalidArg
	}
	err := p.selectPage(PagePTPBase)
	if err != nil {
		return err
	}
	_, err = p.modify(RegPTPCTL, func(v uint16) uint16 {
		v = ctlTrigSel.Set(v, uint16(id))
		return ctlTrigDis.SetBool(v, true)
	})
	return err
}

// EventConfig configures an event timestamp unit.
type EventConfig struct {
	ID uint8
	// GPIO connects the event unit to a pin, 1 through 12. Zero leaves it disconnected.
	GPIO uint8
	Rise bool
	Fall bool
	// Single captures one event and then clears Rise and Fall.
	Single bool
}

// ConfigEvent writes the configuration of an event timestamp unit.
func (p *PHY) ConfigEvent(cfg EventConfig) error {
	if cfg.ID >= NumEvents || cfg.GPIO > MaxGPIO {
		return ethphy.ErrInvalidArg
	}
	v := evntWr.SetBool(0, true)
	v = evntSel.Set(v, uint16(cfg.ID))
	v = evntGPIO.Set(v, uint16(cfg.GPIO))
	v = evntSingle.SetBool(v, cfg.Single)
	v = evntFall.SetBool(v, cfg.Fall)
	v = evntRise.SetBool(v, cfg.Rise)
	err := p.selectPage(PagePTPConfig)
	if err != nil {
		return err
	}
	return p.write(RegPTPEVNT, v)
}

// EventStatus flags the PTP units that have data ready.
type EventStatus uint8

const (
	EventTimestampReady EventStatus = 1 << iota
	TriggerDone
	RxTimestampReady
	TxTimestampReady
)

func (s EventStatus) String() string {
	if s == 0 {
		return "none"
	}
	var buf [64]byte
	b := buf[:0]
	names := [...]string{"event", "trigger", "rxts", "txts"}
	for i, name := range names {
		if s&(1<<i) == 0 {
			continue
		}
		if len(b) > 0 {
			b = append(b, '|')
		}
		b = append(b, name...)
	}
	return string(b)
}

// EventStatus reads the ready flags of PTP_STS. Reading clears the trigger done flag.
func (p *PHY) EventStatus() (EventStatus, error) {
	err := p.selectPage(PagePTPBase)
	if err != nil {
		return 0, err
	}
	sts, err := p.read(RegPTPSTS)
	if err != nil {
		return 0, err
	}
	return EventStatus(stsEvents.Get(sts)), nil
}

// Event is a timestamped edge captured by one or more event units.
type Event struct {
	// Detected has bit n set if event unit n captured this event.
	Detected uint8
	// Rising has bit n set if event unit n captured a rising edge.
	Rising uint8
	// Time is the capture time corrected by the pin input delay.
	Time Timestamp
	// Missed is the number of events lost since the last read, saturating at 7.
	Missed uint8
}

// Event pops the oldest event from the event queue. If there is none it returns
// [ethphy.ErrNoEvent] and an Event with only Missed set.
func (p *PHY) Event() (Event, error) {
	err := p.selectPage(PagePTPBase)
	if err != nil {
		return Event{}, err
	}
	ests, err := p.read(RegPTPESTS)
	if err != nil {
		return Event{}, err
	}
	ev := Event{Missed: uint8(estsMissed.Get(ests))}
	if !estsDet.IsSet(ests) {
		return ev, ethphy.ErrNoEvent
	}
	if estsMult.IsSet(ests) {
		edata, err := p.read(RegPTPEDATA)
		if err != nil {
			return ev, err
		}
		for i := 0; i < NumEvents; i++ {
			if edata&(1<<(2*i)) == 0 {
				continue
			}
			ev.Detected |= 1 << i
			if edata&(1<<(2*i+1)) != 0 {
				ev.Rising |= 1 << i
			}
		}
	} else {
		num := estsNum.Get(ests)
		ev.Detected = 1 << num
		if estsRise.IsSet(ests) {
			ev.Rising = 1 << num
		}
	}
	var w [4]uint16
	err = p.readWords(RegPTPEDATA, w[:])
	if err != nil {
		return ev, err
	}
	ev.Time = compensateInputDelay(Timestamp{
		Nsec: uint32(w[1])<<16 | uint32(w[0]),
		Sec:  uint32(w[3])<<16 | uint32(w[2]),
	})
	return ev, nil
}

// compensateInputDelay subtracts the pin input delay from a raw event time,
// borrowing a second if needed. Times within the delay of zero clamp to zero.
func compensateInputDelay(ts Timestamp) Timestamp {
	switch {
	case ts.Nsec >= pinInputDelay:
		ts.Nsec -= pinInputDelay
	case ts.Sec > 0:
		ts.Sec--
		ts.Nsec += nsecPerSec - pinInputDelay
	default:
		ts = Timestamp{}
	}
	return ts
}
