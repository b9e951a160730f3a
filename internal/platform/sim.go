package platform

import (
	"bytes"
	"encoding/binary"
	"slices"
	"sync"

	"gassense-go/drivers/zmod4xxx"
	"gassense-go/drivers/zmod4xxx/zmod4510"
)

// Register map of the simulated part.
const (
	simRegPID      = 0x00
	simRegConfig   = 0x20
	simRegProdData = 0x26
	simRegTracking = 0x3A
	simRegCommand  = 0x93
	simRegStatus   = 0x94
	simRegEvent    = 0xB7

	simBlocksStart = 0x40
	simBlocksEnd   = 0x88
)

// Fault is a failure the simulator applies to one measurement cycle.
type Fault uint8

const (
	FaultNone Fault = iota
	// FaultPOR loses the programmed blocks and flags a power-on reset.
	FaultPOR
	// FaultAccessConflict leaves the sequencer running with an access
	// conflict event.
	FaultAccessConflict
	// FaultInconsistent leaves the sequencer running with no event.
	FaultInconsistent
	// FaultPostRead raises an access conflict once the result is read.
	FaultPostRead
	// FaultSaturated returns ADC words below the low reference.
	FaultSaturated
)

func (f Fault) String() string {
	switch f {
	case FaultNone:
		return "none"
	case FaultPOR:
		return "por"
	case FaultAccessConflict:
		return "access_conflict"
	case FaultInconsistent:
		return "inconsistent"
	case FaultPostRead:
		return "post_read"
	case FaultSaturated:
		return "saturated"
	default:
		return "unknown"
	}
}

// SimConfig seeds the identity and calibration registers of a Sim.
type SimConfig struct {
	Address  uint16
	PID      uint16
	Conf     [zmod4xxx.LenConfig]byte
	ProdData []byte
	Tracking [zmod4xxx.LenTracking]byte
	MoxLR    uint16
	MoxER    uint16
}

// DefaultSimConfig describes a healthy ZMOD4510.
func DefaultSimConfig() SimConfig {
	return SimConfig{
		Address:  zmod4510.Address,
		PID:      zmod4510.PID,
		Conf:     [zmod4xxx.LenConfig]byte{0x02, 0x00, 0x4E, 0x20, 0x10, 0x20},
		ProdData: []byte{0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88, 0x99, 0xAA},
		Tracking: [zmod4xxx.LenTracking]byte{0x00, 0x01, 0x5E, 0xA1, 0x20, 0x7C},
		MoxLR:    0x0A00,
		MoxER:    0xF600,
	}
}

// Sim is a register-level model of a ZMOD4510 on an I2C bus. It implements
// tinygo's drivers.I2C. The non-volatile cleaning flag survives across
// devices bound to the same Sim.
type Sim struct {
	mu sync.Mutex

	cfg  SimConfig
	meas zmod4xxx.Profile
	regs [256]byte
	ptr  int // register pointer left by the last write

	running  bool
	event    byte
	postRead bool
	absent   bool
	faults   []Fault

	starts int
	cycles int
}

// NewSim builds a powered-up Sim with cfg's identity registers.
func NewSim(cfg SimConfig) *Sim {
	profiles := zmod4510.Profiles()
	s := &Sim{cfg: cfg, meas: *profiles.Get(zmod4xxx.ProfileMeasurement)}
	binary.BigEndian.PutUint16(s.regs[simRegPID:], cfg.PID)
	copy(s.regs[simRegConfig:], cfg.Conf[:])
	copy(s.regs[simRegProdData:], cfg.ProdData)
	copy(s.regs[simRegTracking:], cfg.Tracking[:])
	return s
}

// Inject queues faults for the next measurement cycles, one per cycle.
func (s *Sim) Inject(f ...Fault) {
	s.mu.Lock()
	s.faults = append(s.faults, f...)
	s.mu.Unlock()
}

// SetAbsent makes the device stop acknowledging its address.
func (s *Sim) SetAbsent(absent bool) {
	s.mu.Lock()
	s.absent = absent
	s.mu.Unlock()
}

// Cleaned reports whether the cleaning flag is set.
func (s *Sim) Cleaned() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.regs[zmod4510.CleaningFlagReg]&zmod4510.CleaningFlagMask != 0
}

// Starts is the number of sequencer start commands received.
func (s *Sim) Starts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.starts
}

// Tx performs one bus transaction: w[0] selects the register, the rest of w
// is written from there and r is read from the same register.
func (s *Sim) Tx(addr uint16, w, r []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Like Linux i2c-dev, an empty transfer completes without bus traffic.
	if len(w) == 0 && len(r) == 0 {
		return nil
	}
	if s.absent || addr != s.cfg.Address {
		return ErrNack
	}
	if len(w) == 0 {
		s.read(s.ptr, r)
		return nil
	}
	reg := int(w[0])
	s.ptr = reg
	if data := w[1:]; len(data) > 0 {
		if reg+len(data) > len(s.regs) {
			return ErrShortTransfer
		}
		copy(s.regs[reg:], data)
		if reg == simRegCommand && data[0]&0x80 != 0 {
			s.start()
		}
	}
	if len(r) > 0 {
		if reg+len(r) > len(s.regs) {
			return ErrShortTransfer
		}
		s.read(reg, r)
	}
	return nil
}

// read copies from reg, stopping at the end of the map.
func (s *Sim) read(reg int, r []byte) {
	if s.running {
		s.regs[simRegStatus] = zmod4xxx.StatusSequencerRunning
	} else {
		s.regs[simRegStatus] = 0
	}
	s.regs[simRegEvent] = s.event
	copy(r, s.regs[reg:])

	if s.postRead && reg == int(s.meas.R.Addr) {
		s.postRead = false
		s.event = zmod4xxx.EventAccessConflict
	}
}

func (s *Sim) measuring() bool {
	b := s.meas.S
	return bytes.Equal(s.regs[int(b.Addr):int(b.Addr)+b.Len], b.Data)
}

func (s *Sim) start() {
	s.starts++
	s.event = 0
	s.running = false
	s.postRead = false

	sb := s.meas.S
	if !slices.ContainsFunc(s.regs[int(sb.Addr):int(sb.Addr)+sb.Len], func(b byte) bool { return b != 0 }) {
		// Nothing programmed since power-on.
		s.running = true
		return
	}
	if !s.measuring() {
		// Init and cleaning programs return the ADC reference levels.
		binary.BigEndian.PutUint16(s.regs[s.meas.R.Addr:], s.cfg.MoxLR)
		binary.BigEndian.PutUint16(s.regs[s.meas.R.Addr+2:], s.cfg.MoxER)
		return
	}

	f := FaultNone
	if len(s.faults) > 0 {
		f = s.faults[0]
		s.faults = s.faults[1:]
	}
	switch f {
	case FaultPOR:
		clear(s.regs[simBlocksStart:simBlocksEnd])
		s.running = true
		s.event = zmod4xxx.EventPOR
		return
	case FaultAccessConflict:
		s.running = true
		s.event = zmod4xxx.EventAccessConflict
		return
	case FaultInconsistent:
		s.running = true
		return
	case FaultPostRead:
		s.postRead = true
	}
	s.fillFrame(f == FaultSaturated)
	s.cycles++
}

// fillFrame writes one ADC word per channel between the reference levels,
// drifting slowly from cycle to cycle.
func (s *Sim) fillFrame(saturated bool) {
	lr, er := float64(s.cfg.MoxLR), float64(s.cfg.MoxER)
	base := int(s.meas.R.Addr)
	for i := 0; i < s.meas.R.Len/2; i++ {
		adc := uint16(lr / 2)
		if !saturated {
			frac := 0.25 + 0.02*float64(i%8) + 0.01*float64(s.cycles%5)
			adc = uint16(lr + (er-lr)*frac)
		}
		binary.BigEndian.PutUint16(s.regs[base+2*i:], adc)
	}
}
