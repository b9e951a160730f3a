// Package platform adapts concrete I2C buses to the zmod4xxx transport
// capabilities and provides an in-process sensor simulation.
package platform

import (
	"io"
	"time"

	"gassense-go/errcode"

	"tinygo.org/x/drivers"
)

// TxTransport implements zmod4xxx.Transport and zmod4xxx.Prober on top of any
// bus with a tinygo-style Tx method. It is not safe for concurrent use.
type TxTransport struct {
	bus drivers.I2C

	// SleepFunc replaces time.Sleep, mainly for tests and simulation.
	SleepFunc func(time.Duration)

	reg [1]byte
	w   []byte
}

// NewTxTransport wraps bus. It does not touch the bus.
func NewTxTransport(bus drivers.I2C) *TxTransport {
	return &TxTransport{bus: bus, SleepFunc: time.Sleep}
}

// Bus returns the wrapped bus.
func (t *TxTransport) Bus() drivers.I2C { return t.bus }

// ReadRegister writes the register pointer and reads len(buf) bytes in one
// repeated-start transaction.
func (t *TxTransport) ReadRegister(addr uint16, reg byte, buf []byte) error {
	t.reg[0] = reg
	return MapBusErr(t.bus.Tx(addr, t.reg[:], buf))
}

// WriteRegister sends the register pointer followed by data.
func (t *TxTransport) WriteRegister(addr uint16, reg byte, data []byte) error {
	t.w = append(t.w[:0], reg)
	t.w = append(t.w, data...)
	return MapBusErr(t.bus.Tx(addr, t.w, nil))
}

// Probe reads one byte from the current register pointer. A zero-length
// transfer is not used: Linux i2c-dev completes it without addressing the bus.
func (t *TxTransport) Probe(addr uint16) error {
	return MapBusErr(t.bus.Tx(addr, nil, t.reg[:]))
}

func (t *TxTransport) Sleep(d time.Duration) {
	if t.SleepFunc != nil {
		t.SleepFunc(d)
	}
}

// Reset is a no-op: the sensor has no bus-level reset line on these hosts.
func (t *TxTransport) Reset() error { return nil }

// Close releases the underlying bus if it owns a handle.
func (t *TxTransport) Close() error {
	c, ok := t.bus.(io.Closer)
	if !ok {
		return nil
	}
	if err := c.Close(); err != nil {
		return &errcode.E{C: errcode.Release, Op: "releasing bus", Err: err}
	}
	return nil
}
