package zmod4xxx

import (
	"gassense-go/errcode"
)

// Operation names used as error context during acquisition.
const (
	OpStart  = "starting measurement"
	OpStatus = "reading sensor status"
	OpResult = "reading result"
	OpADC    = "reading ADC results"
	OpVerify = "verifying ADC results"
)

// AcquireCycle runs one measurement: start the sequencer, block for the
// sample interval, verify the sequencer finished, read the raw frame and
// check the error-event register again.
//
// The returned frame is a copy and is only returned when every check passed.
// Cycle failures leave the device Ready; the caller decides whether to
// continue. No fault state is carried into the next cycle.
func (d *Device) AcquireCycle() ([]byte, error) {
	if d.state != StateReady {
		return nil, errcode.Report(errcode.Wrap(OpStart, ErrInvalidState))
	}
	d.frameOK = false
	meas := d.cfg.Profiles.Get(ProfileMeasurement)

	if err := d.StartSequence(meas.Start); err != nil {
		return nil, d.cycleErr(OpStart, &errcode.E{C: errcode.StartFailed, Err: err})
	}

	d.hal.Sleep(d.cfg.SampleInterval)

	st, err := d.ReadStatus()
	if err != nil {
		return nil, d.cycleErr(OpStatus, err)
	}
	if st&StatusSequencerRunning != 0 {
		ev, err := d.ReadErrorEvent()
		if err != nil {
			return nil, d.cycleErr(OpResult, err)
		}
		return nil, d.cycleErr(OpResult, classifyRunning(ev))
	}

	if err := d.ReadRegister(meas.R.Addr, d.frame); err != nil {
		return nil, d.cycleErr(OpADC, err)
	}

	ev, err := d.ReadErrorEvent()
	if err != nil {
		return nil, d.cycleErr(OpVerify, err)
	}
	if ev&eventFaultMask != 0 {
		return nil, d.cycleErr(OpVerify, &PostReadFaultError{Event: ev})
	}

	d.frameOK = true
	return append([]byte(nil), d.frame...), nil
}

// classifyRunning maps the error event seen while the sequencer is still
// running to a fault.
func classifyRunning(ev byte) error {
	switch {
	case ev&EventPOR != 0:
		return &errcode.E{C: errcode.UnexpectedReset, Msg: "unexpected sensor reset"}
	case ev&eventFaultMask == 0:
		return &errcode.E{C: errcode.InconsistentSetup, Msg: "sequencer running without error event, wrong sensor setup"}
	default:
		return &SequencerFaultError{Event: ev}
	}
}

func (d *Device) cycleErr(op string, err error) error {
	return errcode.Report(errcode.Wrap(op, err))
}
