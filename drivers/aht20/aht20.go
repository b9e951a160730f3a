// Package aht20 drives the AHT20 temperature/humidity sensor. It supplies
// the ambient conditions the gas algorithm is compensated with.
//
//	d := aht20.New(bus, aht20.Config{})
//	var s aht20.Sample
//	err := d.Read(&s)      // trigger, wait, poll, check CRC
//	c, rh := s.Celsius(), s.RelHumidity()
//
// I2C.Tx MUST perform a write followed by a repeated-start read when both w
// and r are provided, without releasing the bus.
package aht20

import (
	"errors"
	"time"

	"tinygo.org/x/drivers"
)

// I2C address.
const Address = 0x38

const (
	cmdTrigger    = 0xAC
	cmdInitialize = 0xBE
	cmdSoftReset  = 0xBA
	cmdStatus     = 0x71

	statusBusy       = 0x80
	statusCalibrated = 0x08
)

// Errors returned by the driver.
var (
	ErrTimeout       = errors.New("aht20: timeout")
	ErrNotReady      = errors.New("aht20: not ready")
	ErrCRC           = errors.New("aht20: crc mismatch")
	ErrNotCalibrated = errors.New("aht20: calibration bit not set after init")
)

// Config controls timing. All fields are optional.
type Config struct {
	// Address defaults to 0x38.
	Address uint16
	// TriggerHint is the conversion time waited before the first poll.
	// Default 80 ms.
	TriggerHint time.Duration
	// PollInterval and MaxPolls bound the wait for a busy device.
	// Defaults 15 ms and 16.
	PollInterval time.Duration
	MaxPolls     int
	// Sleep defaults to time.Sleep.
	Sleep func(time.Duration)
}

// Device is one AHT20 on a bus. It is not safe for concurrent use.
type Device struct {
	bus  drivers.I2C
	cfg  Config
	init bool

	cmd  [3]byte
	buf  [7]byte
	last Sample
}

// New applies defaults. It does not touch the bus.
func New(bus drivers.I2C, cfg Config) *Device {
	if cfg.Address == 0 {
		cfg.Address = Address
	}
	if cfg.TriggerHint <= 0 {
		cfg.TriggerHint = 80 * time.Millisecond
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 15 * time.Millisecond
	}
	if cfg.MaxPolls <= 0 {
		cfg.MaxPolls = 16
	}
	if cfg.Sleep == nil {
		cfg.Sleep = time.Sleep
	}
	return &Device{bus: bus, cfg: cfg}
}

func (d *Device) Address() uint16 { return d.cfg.Address }

// Status reads the status byte.
func (d *Device) Status() (byte, error) {
	d.cmd[0] = cmdStatus
	if err := d.bus.Tx(d.cfg.Address, d.cmd[:1], d.buf[:1]); err != nil {
		return 0, err
	}
	return d.buf[0], nil
}

// Init loads the calibration if the device reports it missing. Read calls it
// on first use.
func (d *Device) Init() error {
	st, err := d.Status()
	if err != nil {
		return err
	}
	if st&statusCalibrated == 0 {
		d.cmd = [3]byte{cmdInitialize, 0x08, 0x00}
		if err := d.bus.Tx(d.cfg.Address, d.cmd[:], nil); err != nil {
			return err
		}
		d.cfg.Sleep(10 * time.Millisecond)
		if st, err = d.Status(); err != nil {
			return err
		}
		if st&statusCalibrated == 0 {
			return ErrNotCalibrated
		}
	}
	d.init = true
	return nil
}

// Reset issues a soft reset; the device needs about 20 ms before use.
func (d *Device) Reset() error {
	d.init = false
	d.cmd[0] = cmdSoftReset
	return d.bus.Tx(d.cfg.Address, d.cmd[:1], nil)
}

// Trigger starts a conversion without waiting.
func (d *Device) Trigger() error {
	d.cmd = [3]byte{cmdTrigger, 0x33, 0x00}
	return d.bus.Tx(d.cfg.Address, d.cmd[:], nil)
}

// Collect fetches a finished conversion. ErrNotReady means the device is
// still busy.
func (d *Device) Collect(out *Sample) error {
	data := d.buf[:]
	if err := d.bus.Tx(d.cfg.Address, nil, data); err != nil {
		return err
	}
	if data[0]&statusBusy != 0 || data[0]&statusCalibrated == 0 {
		return ErrNotReady
	}
	if CRC8(data[:6]) != data[6] {
		return ErrCRC
	}
	d.last = Sample{
		RawHumidity: uint32(data[1])<<12 | uint32(data[2])<<4 | uint32(data[3])>>4,
		RawTemp:     uint32(data[3]&0x0F)<<16 | uint32(data[4])<<8 | uint32(data[5]),
	}
	if out != nil {
		*out = d.last
	}
	return nil
}

// Read runs a full measurement: init if needed, trigger, wait for the
// conversion and poll until the result is ready.
func (d *Device) Read(out *Sample) error {
	if !d.init {
		if err := d.Init(); err != nil {
			return err
		}
	}
	if err := d.Trigger(); err != nil {
		return err
	}
	d.cfg.Sleep(d.cfg.TriggerHint)
	for i := 0; ; i++ {
		err := d.Collect(out)
		if !errors.Is(err, ErrNotReady) {
			return err
		}
		if i+1 >= d.cfg.MaxPolls {
			return ErrTimeout
		}
		d.cfg.Sleep(d.cfg.PollInterval)
	}
}

// Last returns the most recent valid sample.
func (d *Device) Last() Sample { return d.last }

// Sample holds the raw 20-bit readings.
type Sample struct {
	RawHumidity uint32
	RawTemp     uint32
}

func (s Sample) Celsius() float64 { return float64(s.RawTemp)*200/(1<<20) - 50 }

func (s Sample) RelHumidity() float64 { return float64(s.RawHumidity) * 100 / (1 << 20) }

// DeciCelsius returns tenths of °C.
func (s Sample) DeciCelsius() int32 { return int32(int64(s.RawTemp)*2000/(1<<20)) - 500 }

// DeciRelHumidity returns tenths of %RH.
func (s Sample) DeciRelHumidity() int32 { return int32(int64(s.RawHumidity) * 1000 / (1 << 20)) }

// CRC8 is the checksum the device appends to a measurement: polynomial 0x31,
// initial value 0xFF.
func CRC8(b []byte) byte {
	crc := byte(0xFF)
	for _, v := range b {
		crc ^= v
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ 0x31
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
