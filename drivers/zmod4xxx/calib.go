package zmod4xxx

import (
	"encoding/binary"
	"errors"

	"gassense-go/x/mathx"
)

var errOddHeater = errors.New("zmod4xxx: heater table has odd length")

// HeaterSetpoints converts the signed 16-bit heater entries of an H block
// into device set points using general config bytes 2..5:
//
//	hsp = -(c2*256 + c3) * ((c4 + 640) * (c5 + h) - 512000) / 12288000
//
// Results are clamped to the 16-bit register range.
func HeaterSetpoints(h []byte, conf [LenConfig]byte) ([]byte, error) {
	if len(h)%2 != 0 {
		return nil, errOddHeater
	}
	gain := float64(conf[2])*256 + float64(conf[3])
	out := make([]byte, len(h))
	for i := 0; i < len(h); i += 2 {
		t := float64(int16(binary.BigEndian.Uint16(h[i:])))
		hsp := -gain * ((float64(conf[4])+640)*(float64(conf[5])+t) - 512000) / 12288000
		binary.BigEndian.PutUint16(out[i:], uint16(mathx.Clamp(hsp, 0, 65535)))
	}
	return out, nil
}

// Resistance bounds used when an ADC word falls outside the reference levels.
const (
	RmoxMin = 1e-3
	RmoxMax = 10e9
)

// Rmox converts a raw frame of big-endian ADC words into MOX resistances in Ω.
func (c Calibration) Rmox(frame []byte) []float64 {
	lr, er := float64(c.MoxLR), float64(c.MoxER)
	out := make([]float64, 0, len(frame)/2)
	for i := 0; i+1 < len(frame); i += 2 {
		adc := float64(binary.BigEndian.Uint16(frame[i:]))
		switch {
		case adc-lr < 0:
			out = append(out, RmoxMin)
		case er-adc <= 0:
			out = append(out, RmoxMax)
		default:
			out = append(out, float64(c.Scale)*1e3*(adc-lr)/(er-adc))
		}
	}
	return out
}
