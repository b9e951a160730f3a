// Package session drives a sensor from bring-up through repeated
// acquisition cycles and hands every outcome to a Sink.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gassense-go/algo"
	"gassense-go/drivers/zmod4xxx"
	"gassense-go/errcode"
)

// Kind classifies one cycle outcome.
type Kind uint8

const (
	KindResult Kind = iota
	KindWarmup
	KindDamage
	KindFault
)

func (k Kind) String() string {
	switch k {
	case KindResult:
		return "result"
	case KindWarmup:
		return "warmup"
	case KindDamage:
		return "damage"
	case KindFault:
		return "fault"
	default:
		return "unknown"
	}
}

// Outcome is what one cycle produced.
type Outcome struct {
	Seq     int
	Time    time.Time
	Kind    Kind
	Ambient Ambient // conditions given to the algorithm
	Results algo.Results
	Err     error
}

// Sink receives outcomes in cycle order. A Sink error is logged, never fatal.
type Sink interface {
	Deliver(o Outcome) error
}

// Sinks fans an outcome out to several sinks.
type Sinks []Sink

func (s Sinks) Deliver(o Outcome) error {
	var errs []error
	for _, k := range s {
		if err := k.Deliver(o); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Ambient supplies the conditions passed to the algorithm.
type Ambient struct {
	TemperatureC float64
	HumidityPct  float64
}

// AmbientSource measures the conditions around the sensor, usually with a
// separate temperature/humidity sensor.
type AmbientSource interface {
	ReadAmbient() (Ambient, error)
}

// DefaultMaxFaults is used when Runner.MaxFaults is zero.
const DefaultMaxFaults = 10

// Runner owns the device for the length of a session. It is single-threaded:
// cycles run back to back on the caller's goroutine.
type Runner struct {
	Dev  *zmod4xxx.Device
	Algo algo.Algorithm
	Sink Sink
	Log  *slog.Logger

	// AmbientSource, if set, is read before each computation. Ambient is
	// used without a source or when its read fails.
	AmbientSource AmbientSource
	Ambient       Ambient

	// MaxCycles stops the session after that many cycles; 0 runs until ctx
	// is cancelled.
	MaxCycles int
	// MaxFaults ends the session after that many failed cycles in a row.
	MaxFaults int

	// OnReady, if set, is called once after bring-up succeeds.
	OnReady func(d *zmod4xxx.Device)

	// Now stamps outcomes; defaults to time.Now.
	Now func() time.Time

	ambientFailing bool
}

// Run brings the device up and loops until ctx is done, MaxCycles is reached
// or a terminal fault occurs. Cancellation is checked between cycles only.
// A nil return means an orderly stop.
func (r *Runner) Run(ctx context.Context) error {
	r.defaults()

	if err := r.Dev.BringUp(); err != nil {
		return err
	}
	if r.OnReady != nil {
		r.OnReady(r.Dev)
	}

	faults := 0
	for seq := 1; r.MaxCycles == 0 || seq <= r.MaxCycles; seq++ {
		if err := ctx.Err(); err != nil {
			r.Log.Info("session stopped", "cycles", seq-1)
			return nil
		}

		o, err := r.cycle(seq)
		if o.Kind == KindFault {
			faults++
		} else {
			faults = 0
		}
		if sErr := r.Sink.Deliver(o); sErr != nil {
			r.Log.Warn("sink failed", "seq", seq, "err", sErr)
		}
		if err != nil {
			return err
		}
		if faults >= r.MaxFaults {
			return errcode.Report(errcode.Wrap("acquisition", fmt.Errorf("%d consecutive failed cycles: %w", faults, o.Err)))
		}
	}
	r.Log.Info("session complete", "cycles", r.MaxCycles)
	return nil
}

// cycle runs one acquisition and classifies the result. A non-nil error
// ends the session.
func (r *Runner) cycle(seq int) (Outcome, error) {
	o := Outcome{Seq: seq}
	frame, err := r.Dev.AcquireCycle()
	o.Time = r.Now()
	if err != nil {
		o.Kind, o.Err = KindFault, err
		if !errcode.CycleRecoverable(err) {
			return o, err
		}
		r.Log.Warn("cycle failed, continuing", "seq", seq, "code", errcode.Of(err), "err", err)
		if errcode.Of(err) == errcode.UnexpectedReset {
			if rErr := r.Dev.Recover(); rErr != nil {
				return o, rErr
			}
			r.Log.Info("measurement profile restored after reset", "seq", seq)
		}
		return o, nil
	}

	o.Ambient = r.ambient(seq)
	res, err := r.Algo.Compute(r.Dev, algo.Inputs{
		Frame:        frame,
		TemperatureC: o.Ambient.TemperatureC,
		HumidityPct:  o.Ambient.HumidityPct,
	})
	o.Results = res
	if err == nil && res.Status == algo.OtherError {
		err = errors.New("algorithm reported an error status")
	}
	if err != nil {
		o.Kind = KindFault
		o.Err = errcode.Report(&errcode.E{C: errcode.AlgorithmFailed, Op: "calculating results", Err: err})
		return o, o.Err
	}

	switch res.Status {
	case algo.Stabilizing:
		o.Kind = KindWarmup
		r.Log.Info("warm-up", "seq", seq)
	case algo.SensorDamageSuspected:
		o.Kind = KindDamage
		r.Log.Error("sensor damage suspected", "seq", seq)
	default:
		o.Kind = KindResult
		r.Log.Debug("result", "seq", seq, "o3_ppb", res.O3ppb, "no2_ppb", res.NO2ppb,
			"fast_aqi", res.FastAQI, "epa_aqi", res.EPAAQI)
	}
	return o, nil
}

// ambient reads the ambient source, falling back to r.Ambient. Only changes
// between working and failing are logged above debug level.
func (r *Runner) ambient(seq int) Ambient {
	if r.AmbientSource == nil {
		return r.Ambient
	}
	a, err := r.AmbientSource.ReadAmbient()
	if err != nil {
		if !r.ambientFailing {
			r.Log.Warn("ambient read failed, using fallback", "seq", seq, "err", err,
				"temperature_c", r.Ambient.TemperatureC, "humidity_pct", r.Ambient.HumidityPct)
		} else {
			r.Log.Debug("ambient read failed", "seq", seq, "err", err)
		}
		r.ambientFailing = true
		return r.Ambient
	}
	if r.ambientFailing {
		r.Log.Info("ambient source recovered", "seq", seq)
		r.ambientFailing = false
	}
	r.Log.Debug("ambient", "seq", seq, "temperature_c", a.TemperatureC, "humidity_pct", a.HumidityPct)
	return a
}

func (r *Runner) defaults() {
	if r.Log == nil {
		r.Log = slog.Default()
	}
	if r.Sink == nil {
		r.Sink = Sinks(nil)
	}
	if r.MaxFaults <= 0 {
		r.MaxFaults = DefaultMaxFaults
	}
	if r.Now == nil {
		r.Now = time.Now
	}
}
