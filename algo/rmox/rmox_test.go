package rmox

import (
	"encoding/binary"
	"io"
	"log/slog"
	"testing"

	"gassense-go/algo"
	"gassense-go/drivers/zmod4xxx"
	"gassense-go/drivers/zmod4xxx/zmod4510"
	"gassense-go/internal/platform"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readyDevice(t *testing.T) *zmod4xxx.Device {
	t.Helper()
	tr := platform.NewTxTransport(platform.NewSim(platform.DefaultSimConfig()))
	tr.SleepFunc = nil
	cfg := zmod4510.Config()
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	d := zmod4xxx.New(tr, cfg)
	require.NoError(t, d.BringUp())
	return d
}

func frameOf(words ...uint16) []byte {
	b := make([]byte, 2*len(words))
	for i, w := range words {
		binary.BigEndian.PutUint16(b[2*i:], w)
	}
	return b
}

func TestStabilizationGate(t *testing.T) {
	d := readyDevice(t)
	a, err := New()
	require.NoError(t, err)

	in := algo.Inputs{Frame: frameOf(0x4000, 0x5000), TemperatureC: algo.OnChipTemperature, HumidityPct: 50}
	for i := 0; i < StabilizationSamples; i++ {
		res, err := a.Compute(d, in)
		require.NoError(t, err)
		require.Equal(t, algo.Stabilizing, res.Status, "sample %d", i+1)
	}
	res, err := a.Compute(d, in)
	require.NoError(t, err)
	assert.Equal(t, algo.OK, res.Status)
	assert.Len(t, res.Rmox, 2)
	assert.Zero(t, res.O3ppb)
	assert.Equal(t, StabilizationSamples+1, a.(*Algorithm).Samples())
}

func TestDamageSuspected(t *testing.T) {
	d := readyDevice(t)
	a := &Algorithm{samples: StabilizationSamples}
	cal := d.Calibration()

	res, err := a.Compute(d, algo.Inputs{Frame: frameOf(cal.MoxLR-1, 0x4000)})
	require.NoError(t, err)
	assert.Equal(t, algo.SensorDamageSuspected, res.Status)

	res, err = a.Compute(d, algo.Inputs{Frame: frameOf(cal.MoxER, 0x4000)})
	require.NoError(t, err)
	assert.Equal(t, algo.SensorDamageSuspected, res.Status)
}

func TestComputeErrors(t *testing.T) {
	a := &Algorithm{}
	res, err := a.Compute(nil, algo.Inputs{Frame: frameOf(1)})
	assert.ErrorIs(t, err, ErrNoDevice)
	assert.Equal(t, algo.OtherError, res.Status)

	res, err = a.Compute(readyDevice(t), algo.Inputs{})
	assert.ErrorIs(t, err, ErrEmptyFrame)
	assert.Equal(t, algo.OtherError, res.Status)
	assert.Zero(t, a.Samples())
}

func TestAmbientDoesNotChangeResult(t *testing.T) {
	d := readyDevice(t)
	frame := frameOf(0x4000, 0x5000)
	var got []algo.Results
	for _, in := range []algo.Inputs{
		{Frame: frame, TemperatureC: algo.OnChipTemperature, HumidityPct: 50},
		{Frame: frame, TemperatureC: 35, HumidityPct: 90},
		{Frame: frame, TemperatureC: -20, HumidityPct: 0},
	} {
		a := &Algorithm{samples: StabilizationSamples}
		res, err := a.Compute(d, in)
		require.NoError(t, err)
		got = append(got, res)
	}
	assert.Equal(t, got[0], got[1])
	assert.Equal(t, got[0], got[2])
}

func TestStatusNames(t *testing.T) {
	assert.Equal(t, "stabilizing", algo.Stabilizing.String())
	assert.Equal(t, "damage_suspected", algo.SensorDamageSuspected.String())
	assert.Equal(t, "unknown", algo.Status(9).String())
}
