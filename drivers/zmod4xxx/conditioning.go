package zmod4xxx

import (
	"time"

	"gassense-go/errcode"
)

// Conditioner runs the one-time cleaning step. It must return
// ErrAlreadyConditioned (or any error matching errcode.AlreadyConditioned)
// when the device reports that cleaning has already been done. The driver
// treats that return as authoritative.
type Conditioner interface {
	Condition(d *Device) error
}

// CleaningProgram describes a flag-gated cleaning run.
type CleaningProgram struct {
	// FlagReg holds a non-volatile bit recording a completed cleaning.
	FlagReg  byte
	FlagMask byte
	// Profile is the heater program run during cleaning.
	Profile Profile
	// Duration is how long the program runs before the flag is set.
	Duration time.Duration
}

// FlagConditioner cleans the sensor unless the device flag says it already
// has been. The run blocks for Program.Duration, about a minute.
type FlagConditioner struct {
	Program CleaningProgram
}

func (c FlagConditioner) Condition(d *Device) error {
	p := c.Program
	var flag [1]byte
	if err := d.ReadRegister(p.FlagReg, flag[:]); err != nil {
		return errcode.Wrap("reading cleaning flag", err)
	}
	if flag[0]&p.FlagMask != 0 {
		return ErrAlreadyConditioned
	}
	if err := p.Profile.Validate(); err != nil {
		return err
	}

	hsp, err := HeaterSetpoints(p.Profile.H.Data, d.ConfigBytes())
	if err != nil {
		return &errcode.E{C: errcode.InvalidProfile, Op: p.Profile.Name, Err: err}
	}
	if err := d.Program(&p.Profile, hsp); err != nil {
		return err
	}
	if err := d.StartSequence(p.Profile.Start); err != nil {
		return errcode.Wrap("starting cleaning", err)
	}
	d.log.Info("cleaning started", "duration", p.Duration)
	d.Sleep(p.Duration)
	if err := d.WaitIdle(); err != nil {
		return err
	}

	flag[0] |= p.FlagMask
	if err := d.WriteRegister(p.FlagReg, flag[:]); err != nil {
		return errcode.Wrap("setting cleaning flag", err)
	}
	return nil
}
