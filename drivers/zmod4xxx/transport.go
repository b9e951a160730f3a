package zmod4xxx

import "time"

// RegisterReader reads len(buf) bytes starting at register reg of the device
// at addr.
type RegisterReader interface {
	ReadRegister(addr uint16, reg byte, buf []byte) error
}

// RegisterWriter writes data starting at register reg. Implementations must
// transfer exactly len(data) bytes or fail.
type RegisterWriter interface {
	WriteRegister(addr uint16, reg byte, data []byte) error
}

// Sleeper blocks the caller for d.
type Sleeper interface {
	Sleep(d time.Duration)
}

// Resetter resets the bus or the device behind it.
type Resetter interface {
	Reset() error
}

// Prober is optional. Probe performs the smallest transaction that addresses
// the device on the wire and reports whether it acknowledged.
type Prober interface {
	Probe(addr uint16) error
}

// Transport is the full capability set the driver needs.
// It is not safe for concurrent use without external synchronisation.
type Transport interface {
	RegisterReader
	RegisterWriter
	Sleeper
	Resetter
}

// Bind checks that hal provides every required capability and returns it as
// a Transport. The first missing capability is reported, in the order read,
// write, sleep, reset. Bind never touches the bus.
func Bind(hal any) (Transport, error) {
	if _, ok := hal.(RegisterReader); !ok {
		return nil, &MissingCapabilityError{Capability: CapRead}
	}
	if _, ok := hal.(RegisterWriter); !ok {
		return nil, &MissingCapabilityError{Capability: CapWrite}
	}
	if _, ok := hal.(Sleeper); !ok {
		return nil, &MissingCapabilityError{Capability: CapSleep}
	}
	if _, ok := hal.(Resetter); !ok {
		return nil, &MissingCapabilityError{Capability: CapReset}
	}
	return hal.(Transport), nil
}
