// Package ambient feeds readings from a temperature/humidity sensor into a
// measurement session.
package ambient

import (
	"fmt"

	"gassense-go/drivers/aht20"
	"gassense-go/internal/session"
	"gassense-go/x/mathx"
)

// AHT20 reads ambient conditions from an AHT20. It satisfies
// session.AmbientSource.
type AHT20 struct {
	dev *aht20.Device
	s   aht20.Sample
}

func NewAHT20(dev *aht20.Device) *AHT20 { return &AHT20{dev: dev} }

// ReadAmbient runs one conversion. Readings outside the range the gas
// algorithm accepts are returned as errors so the session falls back.
func (a *AHT20) ReadAmbient() (session.Ambient, error) {
	if err := a.dev.Read(&a.s); err != nil {
		return session.Ambient{}, err
	}
	amb := session.Ambient{TemperatureC: a.s.Celsius(), HumidityPct: a.s.RelHumidity()}
	if !mathx.Between(amb.TemperatureC, -40, 125) {
		return session.Ambient{}, fmt.Errorf("aht20: temperature %.1f °C out of range", amb.TemperatureC)
	}
	if !mathx.Between(amb.HumidityPct, 0, 100) {
		return session.Ambient{}, fmt.Errorf("aht20: humidity %.1f %% out of range", amb.HumidityPct)
	}
	return amb, nil
}
