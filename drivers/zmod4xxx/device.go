package zmod4xxx

import (
	"log/slog"
	"time"

	"gassense-go/errcode"
)

// State is the lifecycle position of a Device. Transitions only move forward;
// Faulted is terminal and reachable from any state.
type State uint8

const (
	StateUninitialized State = iota
	StateDetected
	StateConditioned
	StateReady
	StateFaulted
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateDetected:
		return "detected"
	case StateConditioned:
		return "conditioned"
	case StateReady:
		return "ready"
	case StateFaulted:
		return "faulted"
	default:
		return "unknown"
	}
}

// Config describes one sensor model and the timing the driver uses with it.
type Config struct {
	Address  uint16
	PID      uint16
	Profiles Profiles

	// SampleInterval is the settling time between starting a measurement and
	// reading it. It is fixed by the measurement profile.
	SampleInterval time.Duration

	// Conditioner runs the one-time cleaning step. Required.
	Conditioner Conditioner

	// PowerUpDelay precedes the presence probe. Default 200 ms.
	PowerUpDelay time.Duration
	// PollInterval and MaxPolls bound waits for the sequencer to go idle.
	// Defaults 50 ms and 1000.
	PollInterval time.Duration
	MaxPolls     int

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Calibration holds the values derived from the device's trim data.
type Calibration struct {
	// Heater set points as programmed into the H block of each profile.
	InitHSP []byte
	MeasHSP []byte
	// ADC reference levels read back from the init program.
	MoxLR uint16
	MoxER uint16
	// Scale is general config byte 0, the resistance scale in kΩ.
	Scale byte
}

// Device is the descriptor of one sensor on a register bus.
type Device struct {
	raw any
	hal Transport
	cfg Config
	log *slog.Logger

	state    State
	conf     [LenConfig]byte
	prodData []byte
	tracking [LenTracking]byte
	cal      Calibration
	status   byte

	frame   []byte
	frameOK bool

	cmd [1]byte
}

// New creates a Device for the transport hal. hal must provide the
// capabilities listed by Transport; this is checked by BringUp, not here.
// New does not touch the bus.
func New(hal any, cfg Config) *Device {
	if cfg.PowerUpDelay <= 0 {
		cfg.PowerUpDelay = 200 * time.Millisecond
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 50 * time.Millisecond
	}
	if cfg.MaxPolls <= 0 {
		cfg.MaxPolls = 1000
	}
	lg := cfg.Logger
	if lg == nil {
		lg = slog.Default()
	}
	return &Device{
		raw: hal,
		cfg: cfg,
		log: lg.With("driver", "zmod4xxx", "addr", cfg.Address),
	}
}

// Introspection.
func (d *Device) State() State             { return d.state }
func (d *Device) Address() uint16          { return d.cfg.Address }
func (d *Device) PID() uint16              { return d.cfg.PID }
func (d *Device) Status() byte             { return d.status }
func (d *Device) Calibration() Calibration { return d.cal }
func (d *Device) ConfigBytes() [LenConfig]byte {
	return d.conf
}
func (d *Device) Tracking() [LenTracking]byte { return d.tracking }
func (d *Device) SampleInterval() time.Duration {
	return d.cfg.SampleInterval
}
func (d *Device) Profile(k ProfileKind) Profile { return *d.cfg.Profiles.Get(k) }

// ProdData returns a copy of the trim data.
func (d *Device) ProdData() []byte { return append([]byte(nil), d.prodData...) }

// Frame returns the last raw frame, or nil if the last cycle did not produce
// a valid one.
func (d *Device) Frame() []byte {
	if !d.frameOK {
		return nil
	}
	return append([]byte(nil), d.frame...)
}

// Reset forwards to the transport's reset capability.
func (d *Device) Reset() error {
	if d.hal == nil {
		return ErrInvalidState
	}
	return busErr(d.hal.Reset())
}

// ---- register helpers, also used by Conditioner implementations ----

// ReadRegister reads len(buf) bytes at reg.
func (d *Device) ReadRegister(reg byte, buf []byte) error {
	return busErr(d.hal.ReadRegister(d.cfg.Address, reg, buf))
}

// WriteRegister writes data at reg.
func (d *Device) WriteRegister(reg byte, data []byte) error {
	return busErr(d.hal.WriteRegister(d.cfg.Address, reg, data))
}

// Sleep blocks through the transport's sleeper.
func (d *Device) Sleep(t time.Duration) { d.hal.Sleep(t) }

// Program writes the H, D, M and S blocks of p in order, replacing the
// heater data with hsp. Every write carries exactly the block's declared
// length.
func (d *Device) Program(p *Profile, hsp []byte) error {
	blocks := p.Blocks()
	blocks[0].Data = hsp
	names := [4]string{"h", "d", "m", "s"}
	for i, b := range blocks {
		if len(b.Data) != b.Len {
			return &errcode.E{C: errcode.LengthMismatch, Op: p.Name + " block " + names[i],
				Msg: "data length differs from declared length"}
		}
		if err := d.WriteRegister(b.Addr, b.Data); err != nil {
			return errcode.Wrap(p.Name+" block "+names[i], err)
		}
	}
	return nil
}

// StartSequence writes cmd to the command register.
func (d *Device) StartSequence(cmd byte) error {
	d.cmd[0] = cmd
	return d.WriteRegister(regCommand, d.cmd[:])
}

// ReadStatus reads and caches the status register.
func (d *Device) ReadStatus() (byte, error) {
	var b [1]byte
	if err := d.ReadRegister(regStatus, b[:]); err != nil {
		return 0, err
	}
	d.status = b[0]
	return b[0], nil
}

// ReadErrorEvent reads the error-event register.
func (d *Device) ReadErrorEvent() (byte, error) {
	var b [1]byte
	if err := d.ReadRegister(regErrorEvent, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// WaitIdle polls the status register until the sequencer stops.
func (d *Device) WaitIdle() error {
	for i := 0; i < d.cfg.MaxPolls; i++ {
		st, err := d.ReadStatus()
		if err != nil {
			return err
		}
		if st&StatusSequencerRunning == 0 {
			return nil
		}
		d.hal.Sleep(d.cfg.PollInterval)
	}
	return &errcode.E{C: errcode.GasTimeout, Msg: "sequencer did not go idle"}
}
