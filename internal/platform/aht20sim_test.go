package platform

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"gassense-go/drivers/aht20"
	"gassense-go/drivers/zmod4xxx"
	"gassense-go/drivers/zmod4xxx/zmod4510"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nosleep(time.Duration) {}

func TestAHT20SimThroughDriver(t *testing.T) {
	sim := NewAHT20Sim(0)
	sim.SetBusyReads(2)
	d := aht20.New(sim, aht20.Config{Sleep: nosleep})

	var s aht20.Sample
	require.NoError(t, d.Read(&s))
	assert.InDelta(t, 23.5, s.Celsius(), 0.01)
	assert.InDelta(t, 41.0, s.RelHumidity(), 0.01)

	sim.SetConditions(-10, 85)
	require.NoError(t, d.Read(&s))
	assert.InDelta(t, -10.0, s.Celsius(), 0.01)
	assert.InDelta(t, 85.0, s.RelHumidity(), 0.01)
}

func TestAHT20SimStaysBusy(t *testing.T) {
	sim := NewAHT20Sim(0)
	sim.SetBusyReads(10)
	d := aht20.New(sim, aht20.Config{MaxPolls: 4, Sleep: nosleep})
	assert.ErrorIs(t, d.Read(nil), aht20.ErrTimeout)
}

func TestAHT20SimAbsent(t *testing.T) {
	sim := NewAHT20Sim(0)
	sim.SetAbsent(true)
	assert.ErrorIs(t, aht20.New(sim, aht20.Config{Sleep: nosleep}).Read(nil), ErrNack)
	assert.NoError(t, sim.Tx(aht20.Address, nil, nil))
}

func TestMuxSharesBus(t *testing.T) {
	gas := NewSim(DefaultSimConfig())
	env := NewAHT20Sim(0)
	bus := Mux{zmod4510.Address: gas, aht20.Address: env}

	tr := NewTxTransport(bus)
	tr.SleepFunc = nil
	cfg := zmod4510.Config()
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	d := zmod4xxx.New(tr, cfg)
	require.NoError(t, d.BringUp())
	assert.True(t, gas.Cleaned())

	var s aht20.Sample
	require.NoError(t, aht20.New(bus, aht20.Config{Sleep: nosleep}).Read(&s))
	assert.InDelta(t, 23.5, s.Celsius(), 0.01)

	_, err := d.AcquireCycle()
	require.NoError(t, err)

	assert.ErrorIs(t, bus.Tx(0x50, []byte{0}, nil), ErrNack)
	assert.NoError(t, bus.Tx(0x50, nil, nil))
}
