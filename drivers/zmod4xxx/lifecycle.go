package zmod4xxx

import (
	"encoding/binary"
	"errors"

	"gassense-go/errcode"
)

// Operation names used as error context during bring-up.
const (
	OpBind     = "binding transport"
	OpProbe    = "sensor initialization"
	OpIdentity = "reading sensor information"
	OpTracking = "reading tracking number"
	OpCleaning = "sensor cleaning"
	OpPrepare  = "sensor preparation"
)

// BringUp takes the device from Uninitialized to Ready:
// bind, probe, identify, read tracking number, clean once, prepare.
//
// Each step runs only if the previous one succeeded. A failed tracking read
// is reported and skipped. A cleaning that was already done is logged and
// skipped. Any other failure moves the device to Faulted and is returned
// tagged with the step name. Cleaning is never retried.
func (d *Device) BringUp() error {
	if d.state != StateUninitialized {
		return errcode.Report(errcode.Wrap("bring-up", ErrInvalidState))
	}

	if err := d.bind(); err != nil {
		return d.fault(OpBind, err)
	}
	if err := d.probe(); err != nil {
		return d.fault(OpProbe, &errcode.E{C: errcode.DeviceNotFound, Err: err})
	}
	if err := d.readIdentity(); err != nil {
		return d.fault(OpIdentity, err)
	}
	d.state = StateDetected
	d.log.Info("sensor detected", "pid", d.cfg.PID, "trim", d.prodData)

	if err := d.readTracking(); err != nil {
		err = errcode.Report(errcode.Wrap(OpTracking, err))
		d.log.Warn("tracking number unavailable", "err", err)
	} else {
		d.log.Info("tracking number", "id", d.TrackingString())
	}

	err := d.cfg.Conditioner.Condition(d)
	switch {
	case err == nil:
		d.log.Info("cleaning completed")
	case errors.Is(err, errcode.AlreadyConditioned):
		d.log.Info("skipping cleaning, already performed")
	default:
		return d.fault(OpCleaning, withCode(errcode.CleaningFailed, err))
	}
	d.state = StateConditioned

	if err := d.prepare(); err != nil {
		return d.fault(OpPrepare, err)
	}
	d.state = StateReady
	d.log.Info("sensor ready", "sample_interval", d.cfg.SampleInterval)
	return nil
}

// Recover reprograms the measurement profile of a Ready device, for use after
// a cycle reported an unexpected reset. It does not repeat cleaning.
// A failed reprogram moves the device to Faulted.
func (d *Device) Recover() error {
	if d.state != StateReady {
		return errcode.Report(errcode.Wrap(OpPrepare, ErrInvalidState))
	}
	if err := d.prepare(); err != nil {
		return d.fault(OpPrepare, err)
	}
	return nil
}

// TrackingString formats the tracking number as printed on support requests.
func (d *Device) TrackingString() string {
	const hex = "0123456789ABCDEF"
	b := []byte("x0000")
	for _, v := range d.tracking {
		b = append(b, hex[v>>4], hex[v&0x0F])
	}
	return string(b)
}

func (d *Device) fault(op string, err error) error {
	d.state = StateFaulted
	d.frameOK = false
	return errcode.Report(errcode.Wrap(op, err))
}

func (d *Device) bind() error {
	t, err := Bind(d.raw)
	if err != nil {
		return err
	}
	if d.cfg.Conditioner == nil {
		return ErrNoConditioner
	}
	for _, k := range []ProfileKind{ProfileInit, ProfileMeasurement} {
		if err := d.cfg.Profiles.Get(k).Validate(); err != nil {
			return err
		}
	}
	if d.cfg.Profiles.Get(ProfileInit).R.Len < 4 {
		return &errcode.E{C: errcode.InvalidProfile, Op: "init", Msg: "result region must hold both reference levels"}
	}
	d.hal = t
	return nil
}

func (d *Device) probe() error {
	d.hal.Sleep(d.cfg.PowerUpDelay)
	if p, ok := d.raw.(Prober); ok {
		return busErr(p.Probe(d.cfg.Address))
	}
	var b [lenPID]byte
	return d.ReadRegister(regPID, b[:])
}

func (d *Device) readIdentity() error {
	if err := d.WaitIdle(); err != nil {
		return err
	}
	var pid [lenPID]byte
	if err := d.ReadRegister(regPID, pid[:]); err != nil {
		return err
	}
	if got := binary.BigEndian.Uint16(pid[:]); got != d.cfg.PID {
		return &IdentityMismatchError{Expected: d.cfg.PID, Actual: got}
	}
	if err := d.ReadRegister(regConfig, d.conf[:]); err != nil {
		return err
	}
	d.cal.Scale = d.conf[0]

	meas := d.cfg.Profiles.Get(ProfileMeasurement)
	d.prodData = make([]byte, meas.ProdDataLen)
	if len(d.prodData) > 0 {
		if err := d.ReadRegister(regProdData, d.prodData); err != nil {
			return err
		}
	}

	ip := d.cfg.Profiles.Get(ProfileInit)
	hsp, err := HeaterSetpoints(ip.H.Data, d.conf)
	if err != nil {
		return &errcode.E{C: errcode.InvalidProfile, Op: ip.Name, Err: err}
	}
	if err := d.Program(ip, hsp); err != nil {
		return err
	}
	if err := d.StartSequence(ip.Start); err != nil {
		return err
	}
	if err := d.WaitIdle(); err != nil {
		return err
	}
	r := make([]byte, ip.R.Len)
	if err := d.ReadRegister(ip.R.Addr, r); err != nil {
		return err
	}
	d.cal.InitHSP = hsp
	d.cal.MoxLR = binary.BigEndian.Uint16(r[0:])
	d.cal.MoxER = binary.BigEndian.Uint16(r[2:])
	return nil
}

func (d *Device) readTracking() error {
	return d.ReadRegister(regTracking, d.tracking[:])
}

func (d *Device) prepare() error {
	meas := d.cfg.Profiles.Get(ProfileMeasurement)
	hsp, err := HeaterSetpoints(meas.H.Data, d.conf)
	if err != nil {
		return &errcode.E{C: errcode.InvalidProfile, Op: meas.Name, Err: err}
	}
	if err := d.Program(meas, hsp); err != nil {
		return err
	}
	d.cal.MeasHSP = hsp
	d.frame = make([]byte, meas.R.Len)
	d.frameOK = false
	return nil
}
