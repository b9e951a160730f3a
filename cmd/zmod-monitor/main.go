// Command zmod-monitor brings up a ZMOD4510 gas sensor and reports its
// measurements until interrupted.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gassense-go/algo/rmox"
	"gassense-go/drivers/aht20"
	"gassense-go/drivers/zmod4xxx"
	"gassense-go/drivers/zmod4xxx/zmod4510"
	"gassense-go/errcode"
	"gassense-go/internal/ambient"
	"gassense-go/internal/config"
	"gassense-go/internal/platform"
	"gassense-go/internal/session"
	"gassense-go/internal/store"

	"tinygo.org/x/drivers"
)

// simTimeScale compresses simulated waits so a cleaning run takes 60 ms.
const simTimeScale = 1000

var models = map[string]func() zmod4xxx.Config{
	"zmod4510": zmod4510.Config,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run returns the process exit status.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("zmod-monitor", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		cfgPath = fs.String("config", "", "YAML configuration file")
		bus     = fs.String("bus", "", "I2C bus (default "+config.DefaultBus+")")
		sim     = fs.Bool("sim", false, "Use a simulated sensor with time compressed 1000x")
		ambSrc  = fs.String("ambient", "", "Ambient temperature/humidity source: none or aht20")
		dbPath  = fs.String("db", "", "Record cycles to this SQLite database")
		cycles  = fs.Int("cycles", 0, "Stop after this many cycles (0 = run until interrupted)")
		verbose = fs.Bool("v", false, "Debug logging")
	)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return errcode.InvalidConfig.Num()
	}

	cfg := &config.Config{}
	if *cfgPath != "" {
		var err error
		if cfg, err = config.Load(*cfgPath); err != nil {
			fmt.Fprintf(stderr, "config load failed: %v\n", err)
			return errcode.InvalidConfig.Num()
		}
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "bus":
			cfg.Sensor.Bus = *bus
		case "sim":
			cfg.Sensor.Sim = *sim
		case "ambient":
			cfg.Ambient.Source = *ambSrc
		case "db":
			cfg.DBPath = *dbPath
		case "cycles":
			cfg.Session.MaxCycles = *cycles
		case "v":
			if *verbose {
				cfg.LogLevel = "debug"
			}
		}
	})
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(stderr, "config validation failed: %v\n", err)
		return errcode.InvalidConfig.Num()
	}
	config.Normalize(cfg)

	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.Level()}))

	i2cBus, err := openBus(cfg)
	if err != nil {
		log.Error("bus open failed", "bus", cfg.Sensor.Bus, "code", errcode.Of(err), "err", err)
		return errcode.Of(err).Num()
	}
	sleep := time.Sleep
	if cfg.Sensor.Sim {
		sleep = func(d time.Duration) { time.Sleep(d / simTimeScale) }
	}
	tr := platform.NewTxTransport(i2cBus)
	tr.SleepFunc = sleep

	sinks := session.Sinks{consoleSink{w: stdout}}
	var db *store.Store
	if cfg.DBPath != "" {
		if db, err = store.Open(cfg.DBPath); err != nil {
			log.Error("database open failed", "path", cfg.DBPath, "err", err)
			return release(log, tr, errcode.Report(&errcode.E{C: errcode.InvalidConfig, Op: "opening database", Err: err}))
		}
		defer db.Close()
		log = log.With("session", db.Session())
		sinks = append(sinks, recorder{db})
	}

	dcfg := models[cfg.Sensor.Model]()
	if cfg.Sensor.Address != 0 {
		dcfg.Address = cfg.Sensor.Address
	}
	dcfg.Logger = log

	a, err := rmox.New()
	if err != nil {
		return release(log, tr, errcode.Report(&errcode.E{C: errcode.AlgorithmFailed, Op: "initializing algorithm", Err: err}))
	}

	r := &session.Runner{
		Dev:  zmod4xxx.New(tr, dcfg),
		Algo: a,
		Ambient: session.Ambient{
			TemperatureC: *cfg.Ambient.TemperatureC,
			HumidityPct:  *cfg.Ambient.HumidityPct,
		},
		AmbientSource: ambientSource(cfg.Ambient, i2cBus, sleep),
		Sink:          sinks,
		Log:           log,
		MaxCycles:     cfg.Session.MaxCycles,
		MaxFaults:     cfg.Session.MaxConsecutiveFaults,
		OnReady: func(d *zmod4xxx.Device) {
			fmt.Fprintf(stdout, "Sensor tracking number: %s\n", d.TrackingString())
			fmt.Fprintf(stdout, "Sensor trimming data: % X\n", d.ProdData())
			if db != nil {
				if err := db.SetTracking(d.TrackingString()); err != nil {
					log.Warn("recording tracking number failed", "err", err)
				}
			}
		},
	}
	return release(log, tr, r.Run(ctx))
}

// openBus opens the configured bus. In simulation the ambient sensor, when
// configured, shares the bus with the gas sensor.
func openBus(cfg *config.Config) (drivers.I2C, error) {
	if cfg.Sensor.Sim {
		gas := platform.NewSim(platform.DefaultSimConfig())
		if cfg.Ambient.Source != config.AmbientAHT20 {
			return gas, nil
		}
		env := platform.NewAHT20Sim(cfg.Ambient.Address)
		return platform.Mux{zmod4510.Address: gas, env.Address(): env}, nil
	}
	b, err := platform.OpenPeriph(cfg.Sensor.Bus)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func ambientSource(c config.AmbientConfig, bus drivers.I2C, sleep func(time.Duration)) session.AmbientSource {
	if c.Source != config.AmbientAHT20 {
		return nil
	}
	return ambient.NewAHT20(aht20.New(bus, aht20.Config{Address: c.Address, Sleep: sleep}))
}

// release logs a terminal error, frees the bus and picks the exit status.
// A release failure overrides the status of the original error.
func release(log *slog.Logger, tr *platform.TxTransport, runErr error) int {
	code := errcode.Of(runErr)
	if runErr != nil {
		log.Error("terminal fault", "code", code, "scope", code.Scope(), "op", errcode.Op(runErr), "err", runErr)
	}
	if err := tr.Close(); err != nil {
		err = errcode.Report(err)
		log.Error("releasing bus failed", "code", errcode.Of(err), "err", err)
		return errcode.Of(err).Num()
	}
	return code.Num()
}
