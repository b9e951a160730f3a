package errcode

import (
	"errors"
	"strings"
	"sync"
)

// Code is a stable, log-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Scope groups codes by the layer that raised them.
type Scope uint8

const (
	ScopeNone   Scope = iota
	ScopeBus          // transport / bus transaction
	ScopeDevice       // sensor protocol
	ScopeHAL          // platform and configuration
)

func (s Scope) String() string {
	switch s {
	case ScopeBus:
		return "bus"
	case ScopeDevice:
		return "device"
	case ScopeHAL:
		return "hal"
	default:
		return "none"
	}
}

// Canonical codes (short, stable).
const (
	OK Code = "ok"

	// Bus
	LengthMismatch Code = "length_mismatch"
	AddressNack    Code = "address_nack"
	Timeout        Code = "timeout"
	BusError       Code = "bus_error"

	// Device
	DeviceNotFound     Code = "device_not_found"
	IdentityMismatch   Code = "identity_mismatch"
	GasTimeout         Code = "gas_timeout"
	UnexpectedReset    Code = "unexpected_reset"
	InconsistentSetup  Code = "inconsistent_setup"
	SequencerFault     Code = "sequencer_fault"
	PostReadFault      Code = "post_read_fault"
	StartFailed        Code = "start_failed"
	CleaningFailed     Code = "cleaning_failed"
	AlreadyConditioned Code = "already_conditioned"
	InvalidState       Code = "invalid_state"
	AlgorithmFailed    Code = "algorithm_failed"

	// HAL
	MissingCapability Code = "missing_capability"
	InvalidProfile    Code = "invalid_profile"
	InvalidConfig     Code = "invalid_config"
	BusOpen           Code = "bus_open"
	Release           Code = "release"

	Error Code = "error" // generic fallback
)

type codeInfo struct {
	scope Scope
	num   int
}

// Numbers are used as process exit statuses; keep them stable and < 126.
var table = map[Code]codeInfo{
	OK: {ScopeNone, 0},

	LengthMismatch: {ScopeBus, 10},
	AddressNack:    {ScopeBus, 11},
	Timeout:        {ScopeBus, 12},
	BusError:       {ScopeBus, 13},

	DeviceNotFound:     {ScopeDevice, 20},
	IdentityMismatch:   {ScopeDevice, 21},
	GasTimeout:         {ScopeDevice, 22},
	UnexpectedReset:    {ScopeDevice, 23},
	InconsistentSetup:  {ScopeDevice, 24},
	SequencerFault:     {ScopeDevice, 25},
	PostReadFault:      {ScopeDevice, 26},
	StartFailed:        {ScopeDevice, 27},
	CleaningFailed:     {ScopeDevice, 28},
	AlreadyConditioned: {ScopeDevice, 29},
	InvalidState:       {ScopeDevice, 30},
	AlgorithmFailed:    {ScopeDevice, 31},

	MissingCapability: {ScopeHAL, 40},
	InvalidProfile:    {ScopeHAL, 41},
	InvalidConfig:     {ScopeHAL, 42},
	BusOpen:           {ScopeHAL, 43},
	Release:           {ScopeHAL, 44},

	Error: {ScopeNone, 1},
}

// Scope returns the layer a code belongs to. Unknown codes have ScopeNone.
func (c Code) Scope() Scope { return table[c].scope }

// Num returns the stable numeric form of the code. Unknown codes map to 1.
func (c Code) Num() int {
	if in, ok := table[c]; ok {
		return in.num
	}
	return 1
}

// E wraps a cause with its code and the operation in progress.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string { return e.text(true) }

// text renders op, code, msg and cause. A directly nested E with the same
// code is rendered without repeating the code.
func (e *E) text(withCode bool) string {
	parts := make([]string, 0, 4)
	if e.Op != "" {
		parts = append(parts, e.Op)
	}
	if withCode {
		parts = append(parts, string(e.C))
	}
	if e.Msg != "" {
		parts = append(parts, e.Msg)
	}
	if e.Err != nil && e.Err != error(e.C) {
		if in, ok := e.Err.(*E); ok && in.C == e.C {
			if t := in.text(false); t != "" {
				parts = append(parts, t)
			}
		} else {
			parts = append(parts, e.Err.Error())
		}
	}
	return strings.Join(parts, ": ")
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Is lets errors.Is(err, SomeCode) match a wrapped E.
func (e *E) Is(target error) bool {
	c, ok := target.(Code)
	return ok && c == e.C
}

// Of extracts a Code from an error chain, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	type coder interface{ Code() Code }
	var x coder
	if errors.As(err, &x) {
		return x.Code()
	}
	var c Code
	if errors.As(err, &c) {
		return c
	}
	return Error
}

// Wrap tags err with the operation in progress, keeping its code.
// A nil err yields nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &E{C: Of(err), Op: op, Err: err}
}

// New builds an E for the given code and operation.
func New(c Code, op, msg string) error {
	return &E{C: c, Op: op, Msg: msg}
}

// Op returns the outermost operation recorded on err, if any.
func Op(err error) string {
	var e *E
	if errors.As(err, &e) {
		return e.Op
	}
	return ""
}

// ---- last error snapshot ----

// Snapshot is the diagnostic view of the most recently reported error.
type Snapshot struct {
	Code    Code
	Scope   Scope
	Op      string
	Message string
}

var (
	lastMu sync.Mutex
	last   = Snapshot{Code: OK}
)

// Report records err as the last error and returns it unchanged.
// Reporting nil is a no-op. This is a convenience surface for diagnostics;
// callers still act on the returned error.
func Report(err error) error {
	if err == nil {
		return nil
	}
	c := Of(err)
	lastMu.Lock()
	last = Snapshot{Code: c, Scope: c.Scope(), Op: Op(err), Message: err.Error()}
	lastMu.Unlock()
	return err
}

// Last returns the most recently reported error.
func Last() Snapshot {
	lastMu.Lock()
	defer lastMu.Unlock()
	return last
}

// ResetLast clears the snapshot.
func ResetLast() {
	lastMu.Lock()
	last = Snapshot{Code: OK}
	lastMu.Unlock()
}

// CycleRecoverable reports whether an error from a single acquisition cycle
// leaves the session usable. Bus-scope failures are included: the caller may
// retry the cycle. Configuration and identity failures are never recoverable.
func CycleRecoverable(err error) bool {
	c := Of(err)
	switch c {
	case UnexpectedReset, InconsistentSetup, SequencerFault, PostReadFault, StartFailed:
		return true
	}
	return c.Scope() == ScopeBus
}
