package platform

import (
	"sync"

	"gassense-go/drivers/aht20"
	"gassense-go/x/mathx"

	"tinygo.org/x/drivers"
)

// AHT20Sim models an AHT20 temperature/humidity sensor. A conversion stays
// busy for a configurable number of reads before its result appears.
type AHT20Sim struct {
	mu sync.Mutex

	addr       uint16
	tempC      float64
	rh         float64
	busyReads  int
	absent     bool
	calibrated bool

	pending int
	ready   bool
}

// NewAHT20Sim builds an uncalibrated device reporting 23.5 °C and 41 %RH.
func NewAHT20Sim(addr uint16) *AHT20Sim {
	if addr == 0 {
		addr = aht20.Address
	}
	return &AHT20Sim{addr: addr, tempC: 23.5, rh: 41, busyReads: 1}
}

func (s *AHT20Sim) Address() uint16 { return s.addr }

// SetConditions changes what later conversions report.
func (s *AHT20Sim) SetConditions(tempC, rh float64) {
	s.mu.Lock()
	s.tempC, s.rh = tempC, rh
	s.mu.Unlock()
}

// SetBusyReads sets how many result reads report busy after a trigger.
func (s *AHT20Sim) SetBusyReads(n int) {
	s.mu.Lock()
	s.busyReads = n
	s.mu.Unlock()
}

// SetAbsent makes the device stop acknowledging its address.
func (s *AHT20Sim) SetAbsent(absent bool) {
	s.mu.Lock()
	s.absent = absent
	s.mu.Unlock()
}

func (s *AHT20Sim) Tx(addr uint16, w, r []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(w) == 0 && len(r) == 0 {
		return nil
	}
	if s.absent || addr != s.addr {
		return ErrNack
	}
	if len(w) > 0 {
		switch w[0] {
		case 0xBE:
			s.calibrated = true
		case 0xBA:
			s.calibrated, s.ready, s.pending = false, false, 0
		case 0xAC:
			s.ready, s.pending = true, s.busyReads
		case 0x71:
			if len(r) > 0 {
				r[0] = s.status()
			}
			return nil
		}
		return nil
	}
	s.result(r)
	return nil
}

func (s *AHT20Sim) status() byte {
	st := byte(0x10)
	if s.calibrated {
		st |= 0x08
	}
	if s.pending > 0 {
		st |= 0x80
	}
	return st
}

// result fills a measurement read: status, 20-bit humidity, 20-bit
// temperature and the checksum.
func (s *AHT20Sim) result(r []byte) {
	var b [7]byte
	b[0] = s.status()
	switch {
	case s.pending > 0:
		s.pending--
	case s.ready:
		h := uint32(mathx.Clamp(s.rh, 0, 100) / 100 * (1 << 20))
		t := uint32((mathx.Clamp(s.tempC, -50, 150) + 50) / 200 * (1 << 20))
		h, t = min(h, 1<<20-1), min(t, 1<<20-1)
		b[1], b[2] = byte(h>>12), byte(h>>4)
		b[3] = byte(h<<4) | byte(t>>16&0x0F)
		b[4], b[5] = byte(t>>8), byte(t)
	}
	b[6] = aht20.CRC8(b[:6])
	copy(r, b[:])
}

// Mux routes each transaction to the device registered at its address.
// Unknown addresses are not acknowledged.
type Mux map[uint16]drivers.I2C

func (m Mux) Tx(addr uint16, w, r []byte) error {
	if len(w) == 0 && len(r) == 0 {
		return nil
	}
	d, ok := m[addr]
	if !ok {
		return ErrNack
	}
	return d.Tx(addr, w, r)
}
