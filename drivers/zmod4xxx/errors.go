package zmod4xxx

import (
	"fmt"

	"gassense-go/errcode"
)

// Sentinel errors.
var (
	ErrInvalidState       = &errcode.E{C: errcode.InvalidState, Msg: "zmod4xxx: operation not allowed in current state"}
	ErrAlreadyConditioned = &errcode.E{C: errcode.AlreadyConditioned, Msg: "zmod4xxx: cleaning already performed"}
	ErrNoConditioner      = &errcode.E{C: errcode.InvalidConfig, Msg: "zmod4xxx: no conditioner configured"}
)

// Capability names one of the transport operations the driver needs.
type Capability string

const (
	CapRead  Capability = "read"
	CapWrite Capability = "write"
	CapSleep Capability = "sleep"
	CapReset Capability = "reset"
)

// MissingCapabilityError is returned when the transport lacks an operation.
type MissingCapabilityError struct {
	Capability Capability
}

func (e *MissingCapabilityError) Error() string {
	return "zmod4xxx: transport is missing capability " + string(e.Capability)
}
func (e *MissingCapabilityError) Code() errcode.Code { return errcode.MissingCapability }

// IdentityMismatchError reports a product id other than the configured one.
type IdentityMismatchError struct {
	Expected uint16
	Actual   uint16
}

func (e *IdentityMismatchError) Error() string {
	return fmt.Sprintf("zmod4xxx: product id 0x%04X, expected 0x%04X", e.Actual, e.Expected)
}
func (e *IdentityMismatchError) Code() errcode.Code { return errcode.IdentityMismatch }

// SequencerFaultError reports an unrecognised error event seen while the
// sequencer was still running.
type SequencerFaultError struct {
	Event byte
}

func (e *SequencerFaultError) Error() string {
	return fmt.Sprintf("zmod4xxx: unknown sequencer fault (event 0x%02X)", e.Event)
}
func (e *SequencerFaultError) Code() errcode.Code { return errcode.SequencerFault }

// PostReadFaultError invalidates a frame that was transferred while the
// device flagged an error event.
type PostReadFaultError struct {
	Event byte
}

func (e *PostReadFaultError) Error() string {
	return fmt.Sprintf("zmod4xxx: error event 0x%02X after result read", e.Event)
}
func (e *PostReadFaultError) Code() errcode.Code { return errcode.PostReadFault }

// busErr tags transport failures that carry no code of their own.
func busErr(err error) error {
	if err == nil {
		return nil
	}
	if errcode.Of(err) == errcode.Error {
		return &errcode.E{C: errcode.BusError, Err: err}
	}
	return err
}

// withCode tags err with c unless it already carries a code.
func withCode(c errcode.Code, err error) error {
	if errcode.Of(err) == errcode.Error {
		return &errcode.E{C: c, Err: err}
	}
	return err
}
