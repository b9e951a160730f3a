// Package rmox is a reference Algorithm: it reports per-channel MOX
// resistances, gates the first samples as warm-up and flags channels that
// sit on the resistance bounds. It does not estimate concentrations, so the
// ambient temperature and humidity in Inputs are accepted but not used.
package rmox

import (
	"errors"

	"gassense-go/algo"
	"gassense-go/drivers/zmod4xxx"
)

// StabilizationSamples is the number of frames reported as Stabilizing.
const StabilizationSamples = 50

var (
	ErrNoDevice   = errors.New("rmox: no device")
	ErrEmptyFrame = errors.New("rmox: empty frame")
)

// Algorithm is not safe for concurrent use.
type Algorithm struct {
	samples int
}

// New returns a fresh handle.
func New() (algo.Algorithm, error) { return &Algorithm{}, nil }

var _ algo.Factory = New

func (a *Algorithm) Compute(dev *zmod4xxx.Device, in algo.Inputs) (algo.Results, error) {
	if dev == nil {
		return algo.Results{Status: algo.OtherError}, ErrNoDevice
	}
	if len(in.Frame) < 2 {
		return algo.Results{Status: algo.OtherError}, ErrEmptyFrame
	}
	res := algo.Results{Rmox: dev.Calibration().Rmox(in.Frame)}
	a.samples++
	switch {
	case a.samples <= StabilizationSamples:
		res.Status = algo.Stabilizing
	case saturated(res.Rmox):
		res.Status = algo.SensorDamageSuspected
	default:
		res.Status = algo.OK
	}
	return res, nil
}

// Samples is the number of frames processed.
func (a *Algorithm) Samples() int { return a.samples }

func saturated(r []float64) bool {
	for _, v := range r {
		if v <= zmod4xxx.RmoxMin || v >= zmod4xxx.RmoxMax {
			return true
		}
	}
	return false
}
