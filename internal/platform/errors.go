package platform

import (
	"errors"
	"strings"
	"syscall"

	"gassense-go/errcode"
)

// Bus errors raised by the adapters in this package.
var (
	ErrNack          = errors.New("platform: address not acknowledged")
	ErrShortTransfer = errors.New("platform: short transfer")
)

// MapBusErr tags a raw bus error with a bus-scope code. Errors that already
// carry a code are returned unchanged; nil stays nil.
func MapBusErr(err error) error {
	if err == nil {
		return nil
	}
	if errcode.Of(err) != errcode.Error {
		return err
	}
	return &errcode.E{C: classify(err), Err: err}
}

func classify(err error) errcode.Code {
	switch {
	case errors.Is(err, ErrNack), errors.Is(err, syscall.ENXIO):
		return errcode.AddressNack
	case errors.Is(err, ErrShortTransfer):
		return errcode.LengthMismatch
	case errors.Is(err, syscall.ETIMEDOUT):
		return errcode.Timeout
	}
	// MCU bus drivers report plain strings; EREMOTEIO is Linux-only.
	s := strings.ToLower(err.Error())
	switch {
	case strings.Contains(s, "nack"), strings.Contains(s, "not acknowledged"), strings.Contains(s, "remote i/o"):
		return errcode.AddressNack
	case strings.Contains(s, "timeout"), strings.Contains(s, "timed out"):
		return errcode.Timeout
	}
	return errcode.BusError
}
