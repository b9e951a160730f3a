package platform

import (
	"strings"

	"gassense-go/errcode"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// PeriphBus is a Linux I2C bus opened through periph.io. It satisfies
// tinygo's drivers.I2C so it can be wrapped by TxTransport.
type PeriphBus struct {
	name string
	bus  i2c.BusCloser
}

// OpenPeriph initialises the host drivers and opens the named bus. Device
// paths such as "/dev/i2c-1" are accepted as well as periph names; an empty
// name selects the first bus found.
func OpenPeriph(name string) (*PeriphBus, error) {
	if _, err := host.Init(); err != nil {
		return nil, &errcode.E{C: errcode.BusOpen, Op: "host init", Err: err}
	}
	b, err := i2creg.Open(periphName(name))
	if err != nil {
		return nil, &errcode.E{C: errcode.BusOpen, Op: "opening " + name, Err: err}
	}
	return &PeriphBus{name: name, bus: b}, nil
}

func periphName(name string) string {
	return strings.TrimPrefix(name, "/dev/i2c-")
}

func (p *PeriphBus) Tx(addr uint16, w, r []byte) error {
	return p.bus.Tx(addr, w, r)
}

func (p *PeriphBus) Close() error { return p.bus.Close() }

func (p *PeriphBus) String() string { return p.name }
