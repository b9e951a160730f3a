package zmod4xxx_test

import (
	"encoding/binary"
	"time"
)

type write struct {
	reg  byte
	data []byte
}

// fakeBus is a scripted register map. Reads of registers without a script
// return zeros. Writes are recorded and stored so later reads see them.
type fakeBus struct {
	regs map[byte][]byte

	// Successive values returned for the status and error-event registers;
	// the last value repeats.
	status []byte
	events []byte

	initResult []byte
	frame      []byte

	readErr   map[byte]error
	writeErr  map[byte]error
	failWrite func(reg byte, data []byte) error
	probeErr  error

	writes []write
	reads  []byte
	sleeps []time.Duration
	probes int
	resets int
}

func newFakeBus(pid uint16) *fakeBus {
	f := &fakeBus{
		regs:       map[byte][]byte{},
		readErr:    map[byte]error{},
		writeErr:   map[byte]error{},
		initResult: []byte{0x10, 0x00, 0xF0, 0x00},
		frame:      make([]byte, 32),
	}
	var p [2]byte
	binary.BigEndian.PutUint16(p[:], pid)
	f.regs[0x00] = p[:]
	f.regs[0x20] = []byte{0x02, 0x00, 0x4E, 0x20, 0x10, 0x20}
	f.regs[0x26] = []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	f.regs[0x3A] = []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x00, 0x01}
	for i := range f.frame {
		f.frame[i] = byte(0x40 + i)
	}
	return f
}

func next(q *[]byte) byte {
	if len(*q) == 0 {
		return 0
	}
	v := (*q)[0]
	if len(*q) > 1 {
		*q = (*q)[1:]
	}
	return v
}

func (f *fakeBus) ReadRegister(addr uint16, reg byte, buf []byte) error {
	f.reads = append(f.reads, reg)
	if err := f.readErr[reg]; err != nil {
		return err
	}
	switch reg {
	case 0x94:
		buf[0] = next(&f.status)
		return nil
	case 0xB7:
		buf[0] = next(&f.events)
		return nil
	case 0x97:
		if len(buf) == len(f.initResult) {
			copy(buf, f.initResult)
		} else {
			copy(buf, f.frame)
		}
		return nil
	}
	for i := range buf {
		buf[i] = 0
	}
	copy(buf, f.regs[reg])
	return nil
}

func (f *fakeBus) WriteRegister(addr uint16, reg byte, data []byte) error {
	if err := f.writeErr[reg]; err != nil {
		return err
	}
	if f.failWrite != nil {
		if err := f.failWrite(reg, data); err != nil {
			return err
		}
	}
	cp := append([]byte(nil), data...)
	f.writes = append(f.writes, write{reg: reg, data: cp})
	f.regs[reg] = cp
	return nil
}

func (f *fakeBus) Sleep(d time.Duration) { f.sleeps = append(f.sleeps, d) }
func (f *fakeBus) Reset() error          { f.resets++; return nil }
func (f *fakeBus) Probe(addr uint16) error {
	f.probes++
	return f.probeErr
}

func (f *fakeBus) io() int { return len(f.reads) + len(f.writes) + f.probes }

func (f *fakeBus) writesTo(reg byte) []write {
	var out []write
	for _, w := range f.writes {
		if w.reg == reg {
			out = append(out, w)
		}
	}
	return out
}

// noSleep has every capability except Sleep.
type noSleep struct{ f *fakeBus }

func (n noSleep) ReadRegister(a uint16, r byte, b []byte) error  { return n.f.ReadRegister(a, r, b) }
func (n noSleep) WriteRegister(a uint16, r byte, d []byte) error { return n.f.WriteRegister(a, r, d) }
func (n noSleep) Reset() error                                   { return n.f.Reset() }
func (n noSleep) Probe(a uint16) error                           { return n.f.Probe(a) }

// readOnly only reads.
type readOnly struct{ f *fakeBus }

func (r readOnly) ReadRegister(a uint16, reg byte, b []byte) error { return r.f.ReadRegister(a, reg, b) }
