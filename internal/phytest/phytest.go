// Package phytest provides a simulated PHY register file for driver tests.
// It records every bus transaction so tests can assert on exact register sequences.
package phytest

import (
	"errors"
	"strconv"

	"github.com/soypat/ethphy/phy"
)

// Unpaged marks registers common to every page and transactions on them.
const Unpaged = -1

// ErrBus is returned by [PHY] when a transaction is configured to fail.
var ErrBus = errors.New("phytest: bus error")

// Access is a bus transaction observed by [PHY].
type Access struct {
	Write bool
	// Page selected when the access happened, [Unpaged] for registers common to every page.
	Page  int
	Reg   uint16
	Value uint16
}

func (a Access) String() string {
	op := "R"
	if a.Write {
		op = "W"
	}
	return op + " p" + strconv.Itoa(a.Page) + " 0x" + strconv.FormatUint(uint64(a.Reg), 16) +
		"=0x" + strconv.FormatUint(uint64(a.Value), 16)
}

type key struct {
	page int
	reg  uint16
}

// PHY simulates a Clause 22 PHY at a single address. Registers read as zero until set.
// The zero value is not ready for use, call [New].
type PHY struct {
	addr uint8
	// pageReg is the page select register, registers at or above pagedFrom are banked. Zero disables paging.
	pageReg   uint16
	pagedFrom uint16
	page      int
	regs      map[key]uint16
	queues    map[key][]uint16
	selfClear map[key]uint16
	n         int
	failAt    int

	// Log holds every transaction addressed to the simulated PHY in order.
	Log []Access
}

// New returns a PHY answering on addr with no register paging.
func New(addr uint8) *PHY {
	return &PHY{
		addr:      addr,
		regs:      make(map[key]uint16),
		queues:    make(map[key][]uint16),
		selfClear: make(map[key]uint16),
	}
}

// SetPaging makes registers at or above pagedFrom banked by the value written to pageReg.
func (p *PHY) SetPaging(pageReg, pagedFrom uint16) {
	p.pageReg = pageReg
	p.pagedFrom = pagedFrom
}

// Set sets the value of a register. Page is ignored for unpaged registers.
func (p *PHY) Set(page int, reg, value uint16) {
	p.regs[p.key(page, reg)] = value
}

// Get returns the last value written to or set on a register.
func (p *PHY) Get(page int, reg uint16) uint16 {
	return p.regs[p.key(page, reg)]
}

// Queue makes successive reads of a register return values in order, as
// hardware FIFO windows do. Once the queue drains reads return the stored value.
func (p *PHY) Queue(page int, reg uint16, values ...uint16) {
	k := p.key(page, reg)
	p.queues[k] = append(p.queues[k], values...)
}

// SelfClear makes bits in mask read back as zero after being written, as reset and strobe bits do.
func (p *PHY) SelfClear(page int, reg, mask uint16) {
	p.selfClear[p.key(page, reg)] |= mask
}

// FailAt makes the n'th transaction counting from now (1 based) fail with [ErrBus]. Zero disables failure.
func (p *PHY) FailAt(n int) {
	p.n = 0
	p.failAt = n
}

// ClearLog discards recorded transactions.
func (p *PHY) ClearLog() { p.Log = p.Log[:0] }

// Writes returns the recorded write transactions.
func (p *PHY) Writes() []Access {
	var w []Access
	for _, a := range p.Log {
		if a.Write {
			w = append(w, a)
		}
	}
	return w
}

// Reads returns how many reads of a register were recorded.
func (p *PHY) Reads(page int, reg uint16) (n int) {
	k := p.key(page, reg)
	for _, a := range p.Log {
		if !a.Write && a.Page == k.page && a.Reg == reg {
			n++
		}
	}
	return n
}

// Read implements [phy.MDIOBus]. Addresses without a PHY read as all ones.
func (p *PHY) Read(phyAddr, devAddr uint8, reg uint16) (uint16, error) {
	if phyAddr != p.addr || devAddr != 0 {
		return 0xffff, nil
	}
	if p.fail() {
		return 0, ErrBus
	}
	k := p.key(p.page, reg)
	v := p.regs[k]
	if q := p.queues[k]; len(q) > 0 {
		v = q[0]
		p.queues[k] = q[1:]
	}
	p.Log = append(p.Log, Access{Page: k.page, Reg: reg, Value: v})
	return v, nil
}

// Write implements [phy.MDIOBus].
func (p *PHY) Write(phyAddr, devAddr uint8, reg, value uint16) error {
	if phyAddr != p.addr || devAddr != 0 {
		return nil
	}
	if p.fail() {
		return ErrBus
	}
	k := p.key(p.page, reg)
	p.Log = append(p.Log, Access{Write: true, Page: k.page, Reg: reg, Value: value})
	p.regs[k] = value &^ p.selfClear[k]
	if p.pageReg != 0 && reg == p.pageReg {
		p.page = int(value)
	}
	return nil
}

func (p *PHY) fail() bool {
	p.n++
	return p.failAt > 0 && p.n == p.failAt
}

func (p *PHY) key(page int, reg uint16) key {
	if p.pageReg == 0 || reg < p.pagedFrom {
		page = Unpaged
	}
	return key{page: page, reg: reg}
}

// Mediator is a [phy.Mediator] over a simulated PHY that records state change notifications.
type Mediator struct {
	*PHY
	Changes []phy.StateChange
	// Err is returned from OnStateChanged when set.
	Err error
}

var _ phy.Mediator = (*Mediator)(nil)

// NewMediator returns a Mediator over a new PHY at addr.
func NewMediator(addr uint8) *Mediator {
	return &Mediator{PHY: New(addr)}
}

// OnStateChanged implements [phy.Mediator].
func (m *Mediator) OnStateChanged(sc phy.StateChange) error {
	if m.Err != nil {
		return m.Err
	}
	m.Changes = append(m.Changes, sc)
	return nil
}
