package main

import (
	"fmt"
	"io"

	"gassense-go/errcode"
	"gassense-go/internal/session"
	"gassense-go/internal/store"
)

// consoleSink prints one line per cycle.
type consoleSink struct {
	w io.Writer
}

func (c consoleSink) Deliver(o session.Outcome) error {
	var err error
	switch o.Kind {
	case session.KindWarmup:
		_, err = fmt.Fprintf(c.w, "#%d Warm-Up!\n", o.Seq)
	case session.KindDamage:
		_, err = fmt.Fprintf(c.w, "#%d Error: sensor probably damaged, algorithm results may be incorrect\n", o.Seq)
	case session.KindFault:
		_, err = fmt.Fprintf(c.w, "#%d Cycle failed (%s): %v\n", o.Seq, errcode.Of(o.Err), o.Err)
	default:
		r := o.Results
		_, err = fmt.Fprintf(c.w, "#%d O3_conc_ppb = %6.3f  NO2_conc_ppb = %6.3f  FAST_AQI = %d  EPA_AQI = %d\n",
			o.Seq, r.O3ppb, r.NO2ppb, r.FastAQI, r.EPAAQI)
	}
	return err
}

// recorder writes each outcome to the cycle database.
type recorder struct {
	db *store.Store
}

func (r recorder) Deliver(o session.Outcome) error {
	c := store.Cycle{
		Seq:          o.Seq,
		Time:         o.Time,
		Kind:         o.Kind.String(),
		TemperatureC: o.Ambient.TemperatureC,
		HumidityPct:  o.Ambient.HumidityPct,
		Status:       o.Results.Status.String(),
		O3ppb:        o.Results.O3ppb,
		NO2ppb:       o.Results.NO2ppb,
		FastAQI:      o.Results.FastAQI,
		EPAAQI:       o.Results.EPAAQI,
		Rmox:         o.Results.Rmox,
	}
	if o.Err != nil {
		c.Status = ""
		c.ErrCode = string(errcode.Of(o.Err))
	}
	return r.db.Record(c)
}
