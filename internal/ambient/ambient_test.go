package ambient

import (
	"testing"
	"time"

	"gassense-go/drivers/aht20"
	"gassense-go/internal/platform"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSource(sim *platform.AHT20Sim) *AHT20 {
	return NewAHT20(aht20.New(sim, aht20.Config{Sleep: func(time.Duration) {}}))
}

func TestReadAmbient(t *testing.T) {
	sim := platform.NewAHT20Sim(0)
	sim.SetConditions(18.25, 62)
	src := newSource(sim)

	a, err := src.ReadAmbient()
	require.NoError(t, err)
	assert.InDelta(t, 18.25, a.TemperatureC, 0.01)
	assert.InDelta(t, 62.0, a.HumidityPct, 0.01)
}

func TestReadAmbientOutOfRange(t *testing.T) {
	sim := platform.NewAHT20Sim(0)
	sim.SetConditions(-45, 50)
	src := newSource(sim)

	_, err := src.ReadAmbient()
	assert.ErrorContains(t, err, "temperature")

	sim.SetConditions(20, 50)
	_, err = src.ReadAmbient()
	assert.NoError(t, err)
}

func TestReadAmbientDeviceGone(t *testing.T) {
	sim := platform.NewAHT20Sim(0)
	src := newSource(sim)
	_, err := src.ReadAmbient()
	require.NoError(t, err)

	sim.SetAbsent(true)
	_, err = src.ReadAmbient()
	assert.ErrorIs(t, err, platform.ErrNack)
}
