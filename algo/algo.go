// Package algo defines the contract between the acquisition loop and the
// gas-concentration algorithm that turns raw frames into results.
package algo

import (
	"gassense-go/drivers/zmod4xxx"
)

// Status is the algorithm's verdict on one frame.
type Status uint8

const (
	// Stabilizing: the sensor is warming up and results are not yet valid.
	Stabilizing Status = iota
	OK
	// SensorDamageSuspected: results are computed but the self-check failed.
	SensorDamageSuspected
	// OtherError: the algorithm could not produce results.
	OtherError
)

func (s Status) String() string {
	switch s {
	case Stabilizing:
		return "stabilizing"
	case OK:
		return "ok"
	case SensorDamageSuspected:
		return "damage_suspected"
	case OtherError:
		return "error"
	default:
		return "unknown"
	}
}

// OnChipTemperature requests the sensor's own temperature estimate.
const OnChipTemperature = -300.0

// Inputs is one frame plus the ambient conditions it was taken in.
type Inputs struct {
	Frame        []byte
	TemperatureC float64
	HumidityPct  float64
}

// Results are the outputs for one frame.
type Results struct {
	Rmox    []float64
	O3ppb   float64
	NO2ppb  float64
	FastAQI int
	EPAAQI  int
	Status  Status
}

// Algorithm computes results from raw frames. Implementations keep their own
// history and are used by one goroutine at a time.
type Algorithm interface {
	Compute(dev *zmod4xxx.Device, in Inputs) (Results, error)
}

// Factory creates an initialised algorithm handle.
type Factory func() (Algorithm, error)
