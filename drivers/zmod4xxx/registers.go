// Package zmod4xxx drives Renesas ZMOD4xxx metal-oxide gas sensors over a
// byte-addressed register bus.
//
// The device moves through a fixed lifecycle:
//
//	d := zmod4xxx.New(hal, zmod4510.Config())
//	err := d.BringUp()          // bind, probe, identify, clean once, prepare
//	frame, err := d.AcquireCycle() // start, wait, verify, read
//
// BringUp runs once. AcquireCycle is called repeatedly by the owner, which
// decides cadence and whether a failed cycle ends the session.
//
// The transport is not safe for concurrent use. A Device binds to exactly one
// transport for its lifetime and never closes it.
package zmod4xxx

// Register addresses shared by the family.
const (
	regPID        = 0x00
	regConfig     = 0x20
	regProdData   = 0x26
	regTracking   = 0x3A
	regCommand    = 0x93
	regStatus     = 0x94
	regErrorEvent = 0xB7
)

// Fixed lengths.
const (
	lenPID      = 2
	LenConfig   = 6
	LenTracking = 6
)

// Status register (0x94) bits.
const (
	StatusSequencerRunning  = 0x80
	StatusSleepTimerEnabled = 0x40
	StatusAlarm             = 0x20
	StatusLastSeqStep       = 0x1F
)

// Error-event register (0xB7) bits.
const (
	EventPOR            = 0x80
	EventAccessConflict = 0x40

	eventFaultMask = EventPOR | EventAccessConflict
)
