package zmod4xxx_test

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"gassense-go/drivers/zmod4xxx"
	"gassense-go/drivers/zmod4xxx/zmod4510"
	"gassense-go/errcode"
)

func quietConfig() zmod4xxx.Config {
	c := zmod4510.Config()
	c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return c
}

func readyDevice(t *testing.T, f *fakeBus) *zmod4xxx.Device {
	t.Helper()
	d := zmod4xxx.New(f, quietConfig())
	if err := d.BringUp(); err != nil {
		t.Fatalf("BringUp: %v", err)
	}
	return d
}

func lens(ws []write) []int {
	out := make([]int, len(ws))
	for i, w := range ws {
		out[i] = len(w.data)
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestBringUpReachesReady(t *testing.T) {
	f := newFakeBus(zmod4510.PID)
	d := readyDevice(t, f)

	if d.State() != zmod4xxx.StateReady {
		t.Fatalf("state %v", d.State())
	}
	if got := d.TrackingString(); got != "x0000DEADBEEF0001" {
		t.Fatalf("tracking %q", got)
	}
	if pd := d.ProdData(); len(pd) != zmod4510.ProdDataLen || pd[9] != 10 {
		t.Fatalf("trim data %v", pd)
	}
	cal := d.Calibration()
	if cal.MoxLR != 0x1000 || cal.MoxER != 0xF000 || cal.Scale != 0x02 {
		t.Fatalf("calibration %+v", cal)
	}
	if len(cal.InitHSP) != 2 || len(cal.MeasHSP) != 8 {
		t.Fatalf("set points %v %v", cal.InitHSP, cal.MeasHSP)
	}
}

// Every block write carries exactly the declared length: init 2/2/2/4,
// cleaning 2/2/2/4, measurement 8/8/2/32.
func TestBlockWritesMatchDeclaredLengths(t *testing.T) {
	f := newFakeBus(zmod4510.PID)
	readyDevice(t, f)

	want := map[byte][]int{
		0x40: {2, 2, 8},
		0x50: {2, 2, 8},
		0x60: {2, 2, 2},
		0x68: {4, 4, 32},
	}
	for reg, w := range want {
		if got := lens(f.writesTo(reg)); !equalInts(got, w) {
			t.Fatalf("reg 0x%02X write lengths %v want %v", reg, got, w)
		}
	}
	if n := len(f.writesTo(0x93)); n != 2 {
		t.Fatalf("start commands %d want 2 (init + cleaning)", n)
	}
}

func TestBringUpMissingSleepDoesNoIO(t *testing.T) {
	errcode.ResetLast()
	f := newFakeBus(zmod4510.PID)
	d := zmod4xxx.New(noSleep{f}, quietConfig())

	err := d.BringUp()
	var mc *zmod4xxx.MissingCapabilityError
	if !errors.As(err, &mc) || mc.Capability != zmod4xxx.CapSleep {
		t.Fatalf("expected missing sleep, got %v", err)
	}
	if errcode.Of(err) != errcode.MissingCapability || errcode.Op(err) != zmod4xxx.OpBind {
		t.Fatalf("code %q op %q", errcode.Of(err), errcode.Op(err))
	}
	if f.io() != 0 {
		t.Fatalf("bus I/O attempted: %d", f.io())
	}
	if d.State() != zmod4xxx.StateFaulted {
		t.Fatalf("state %v", d.State())
	}
	if errcode.Last().Code != errcode.MissingCapability {
		t.Fatalf("last error %+v", errcode.Last())
	}
}

func TestBringUpMissingWrite(t *testing.T) {
	f := newFakeBus(zmod4510.PID)
	err := zmod4xxx.New(readOnly{f}, quietConfig()).BringUp()
	var mc *zmod4xxx.MissingCapabilityError
	if !errors.As(err, &mc) || mc.Capability != zmod4xxx.CapWrite {
		t.Fatalf("expected missing write, got %v", err)
	}
}

func TestIdentityMismatchFaults(t *testing.T) {
	f := newFakeBus(0x1234)
	d := zmod4xxx.New(f, quietConfig())

	err := d.BringUp()
	var im *zmod4xxx.IdentityMismatchError
	if !errors.As(err, &im) || im.Expected != 0x6320 || im.Actual != 0x1234 {
		t.Fatalf("expected identity mismatch, got %v", err)
	}
	if errcode.Op(err) != zmod4xxx.OpIdentity {
		t.Fatalf("op %q", errcode.Op(err))
	}
	if d.State() != zmod4xxx.StateFaulted {
		t.Fatalf("state %v", d.State())
	}
	if len(f.writesTo(0x40)) != 0 {
		t.Fatal("profile programmed after identity mismatch")
	}
	if _, err := d.AcquireCycle(); !errors.Is(err, errcode.InvalidState) {
		t.Fatalf("acquire on faulted device: %v", err)
	}
}

func TestDeviceNotFound(t *testing.T) {
	f := newFakeBus(zmod4510.PID)
	f.probeErr = errors.New("nack")
	d := zmod4xxx.New(f, quietConfig())

	err := d.BringUp()
	if errcode.Of(err) != errcode.DeviceNotFound {
		t.Fatalf("code %q: %v", errcode.Of(err), err)
	}
	if d.State() != zmod4xxx.StateFaulted {
		t.Fatalf("state %v", d.State())
	}
}

func TestTrackingFailureDoesNotBlock(t *testing.T) {
	errcode.ResetLast()
	f := newFakeBus(zmod4510.PID)
	f.readErr[0x3A] = errors.New("io")

	d := readyDevice(t, f)
	if d.State() != zmod4xxx.StateReady {
		t.Fatalf("state %v", d.State())
	}
	if s := errcode.Last(); s.Op != zmod4xxx.OpTracking || s.Code != errcode.BusError {
		t.Fatalf("tracking failure not reported: %+v", s)
	}
}

func TestConditioningRunsOnce(t *testing.T) {
	f := newFakeBus(zmod4510.PID)
	readyDevice(t, f)
	readyDevice(t, f)

	if n := len(f.writesTo(zmod4510.CleaningFlagReg)); n != 1 {
		t.Fatalf("cleaning flag written %d times", n)
	}
	long := 0
	for _, s := range f.sleeps {
		if s == zmod4510.CleaningTime {
			long++
		}
	}
	if long != 1 {
		t.Fatalf("cleaning ran %d times", long)
	}
	// init start x2, cleaning start x1
	if n := len(f.writesTo(0x93)); n != 3 {
		t.Fatalf("start commands %d want 3", n)
	}
}

func TestAlreadyConditionedIsSkipped(t *testing.T) {
	f := newFakeBus(zmod4510.PID)
	f.regs[zmod4510.CleaningFlagReg] = []byte{zmod4510.CleaningFlagMask}

	d := readyDevice(t, f)
	if d.State() != zmod4xxx.StateReady {
		t.Fatalf("state %v", d.State())
	}
	if n := len(f.writesTo(zmod4510.CleaningFlagReg)); n != 0 {
		t.Fatalf("flag rewritten %d times", n)
	}
}

func TestCleaningFailureIsFatal(t *testing.T) {
	f := newFakeBus(zmod4510.PID)
	f.writeErr[zmod4510.CleaningFlagReg] = errors.New("nvm")
	d := zmod4xxx.New(f, quietConfig())

	err := d.BringUp()
	if err == nil || errcode.Op(err) != zmod4xxx.OpCleaning {
		t.Fatalf("expected cleaning failure, got %v", err)
	}
	if d.State() != zmod4xxx.StateFaulted {
		t.Fatalf("state %v", d.State())
	}
	if len(f.writesTo(0x40)) != 2 {
		t.Fatal("measurement profile must not be programmed after a cleaning failure")
	}
}

type failingConditioner struct{ calls int }

func (c *failingConditioner) Condition(*zmod4xxx.Device) error {
	c.calls++
	return errors.New("heater open")
}

func TestConditionerErrorGetsCleaningCode(t *testing.T) {
	f := newFakeBus(zmod4510.PID)
	cfg := quietConfig()
	fc := &failingConditioner{}
	cfg.Conditioner = fc

	err := zmod4xxx.New(f, cfg).BringUp()
	if errcode.Of(err) != errcode.CleaningFailed {
		t.Fatalf("code %q", errcode.Of(err))
	}
	if fc.calls != 1 {
		t.Fatalf("conditioner called %d times", fc.calls)
	}
}

func TestPrepareFailureIsFatal(t *testing.T) {
	f := newFakeBus(zmod4510.PID)
	f.failWrite = func(reg byte, data []byte) error {
		if reg == 0x68 && len(data) == 32 {
			return errors.New("nack")
		}
		return nil
	}
	d := zmod4xxx.New(f, quietConfig())

	err := d.BringUp()
	if errcode.Op(err) != zmod4xxx.OpPrepare || d.State() != zmod4xxx.StateFaulted {
		t.Fatalf("op %q state %v", errcode.Op(err), d.State())
	}
}

func TestBringUpTwiceIsRejected(t *testing.T) {
	f := newFakeBus(zmod4510.PID)
	d := readyDevice(t, f)
	if err := d.BringUp(); !errors.Is(err, errcode.InvalidState) {
		t.Fatalf("second BringUp: %v", err)
	}
	if d.State() != zmod4xxx.StateReady {
		t.Fatalf("state changed to %v", d.State())
	}
}

func TestInvalidProfileRejectedBeforeIO(t *testing.T) {
	f := newFakeBus(zmod4510.PID)
	cfg := quietConfig()
	m := cfg.Profiles.Get(zmod4xxx.ProfileMeasurement)
	m.D.Len = 7

	err := zmod4xxx.New(f, cfg).BringUp()
	if errcode.Of(err) != errcode.InvalidProfile {
		t.Fatalf("code %q", errcode.Of(err))
	}
	if f.io() != 0 {
		t.Fatal("bus I/O attempted")
	}
}

func TestMissingConditionerRejected(t *testing.T) {
	f := newFakeBus(zmod4510.PID)
	cfg := quietConfig()
	cfg.Conditioner = nil
	if err := zmod4xxx.New(f, cfg).BringUp(); errcode.Of(err) != errcode.InvalidConfig {
		t.Fatalf("code %q", errcode.Of(err))
	}
}

func TestSequencerNeverIdleTimesOut(t *testing.T) {
	f := newFakeBus(zmod4510.PID)
	f.status = []byte{0x80}
	cfg := quietConfig()
	cfg.MaxPolls = 5

	err := zmod4xxx.New(f, cfg).BringUp()
	if errcode.Of(err) != errcode.GasTimeout {
		t.Fatalf("code %q", errcode.Of(err))
	}
}
