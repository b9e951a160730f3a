// Package zmod4510 holds the register tables of the ZMOD4510 outdoor air
// quality sensor running the NO2/O3 program.
package zmod4510

import (
	"time"

	"gassense-go/drivers/zmod4xxx"
)

const (
	// PID is the product id read from register 0x00.
	PID = 0x6320
	// Address is the 7-bit I2C address.
	Address = 0x33
	// ProdDataLen is the trim data length.
	ProdDataLen = 10
	// ADCDataLen is the raw frame length of one measurement.
	ADCDataLen = 32
	// SampleTime is the fixed interval between start and result read.
	SampleTime = 6000 * time.Millisecond
)

// Block addresses.
const (
	addrH      = 0x40
	addrD      = 0x50
	addrM      = 0x60
	addrS      = 0x68
	addrResult = 0x97
	cmdStart   = 0x80
)

// Cleaning flag location and program length.
const (
	CleaningFlagReg  = 0x88
	CleaningFlagMask = 0x01
	CleaningTime     = 60 * time.Second
)

var dataInit = [...]byte{
	0x00, 0x50,
	0x00, 0x28, 0xC3, 0xE3,
	0x00, 0x00, 0x80, 0x40,
}

var dataNO2O3 = [...]byte{
	0x00, 0x50, 0xFF, 0x06,
	0xFE, 0xA2, 0xFE, 0x3E,
	0x00, 0x10, 0x00, 0x52,
	0x3F, 0x66, 0x00, 0x42,
	0x23, 0x03,
	0x00, 0x00, 0x02, 0x41,
	0x00, 0x41, 0x00, 0x41,
	0x00, 0x49, 0x00, 0x50,
	0x02, 0x42, 0x00, 0x42,
	0x00, 0x42, 0x00, 0x4A,
	0x00, 0x50, 0x02, 0x43,
	0x00, 0x43, 0x00, 0x43,
	0x00, 0x43, 0x80, 0x5B,
}

var dataCleaning = [...]byte{
	0x01, 0xF4,
	0x00, 0x28, 0xC3, 0xE3,
	0x00, 0x00, 0x80, 0x40,
}

// Profiles returns the INIT and MEASUREMENT programs.
func Profiles() zmod4xxx.Profiles {
	return zmod4xxx.Profiles{
		zmod4xxx.ProfileInit: {
			Name:  "init",
			Start: cmdStart,
			H:     zmod4xxx.RegisterBlock{Addr: addrH, Len: 2, Data: dataInit[0:2]},
			D:     zmod4xxx.RegisterBlock{Addr: addrD, Len: 2, Data: dataInit[2:4]},
			M:     zmod4xxx.RegisterBlock{Addr: addrM, Len: 2, Data: dataInit[4:6]},
			S:     zmod4xxx.RegisterBlock{Addr: addrS, Len: 4, Data: dataInit[6:10]},
			R:     zmod4xxx.ResultRegion{Addr: addrResult, Len: 4},
		},
		zmod4xxx.ProfileMeasurement: {
			Name:        "no2_o3",
			Start:       cmdStart,
			H:           zmod4xxx.RegisterBlock{Addr: addrH, Len: 8, Data: dataNO2O3[0:8]},
			D:           zmod4xxx.RegisterBlock{Addr: addrD, Len: 8, Data: dataNO2O3[8:16]},
			M:           zmod4xxx.RegisterBlock{Addr: addrM, Len: 2, Data: dataNO2O3[16:18]},
			S:           zmod4xxx.RegisterBlock{Addr: addrS, Len: 32, Data: dataNO2O3[18:50]},
			R:           zmod4xxx.ResultRegion{Addr: addrResult, Len: ADCDataLen},
			ProdDataLen: ProdDataLen,
		},
	}
}

// CleaningProgram returns the one-time cleaning run.
func CleaningProgram() zmod4xxx.CleaningProgram {
	return zmod4xxx.CleaningProgram{
		FlagReg:  CleaningFlagReg,
		FlagMask: CleaningFlagMask,
		Profile: zmod4xxx.Profile{
			Name:  "cleaning",
			Start: cmdStart,
			H:     zmod4xxx.RegisterBlock{Addr: addrH, Len: 2, Data: dataCleaning[0:2]},
			D:     zmod4xxx.RegisterBlock{Addr: addrD, Len: 2, Data: dataCleaning[2:4]},
			M:     zmod4xxx.RegisterBlock{Addr: addrM, Len: 2, Data: dataCleaning[4:6]},
			S:     zmod4xxx.RegisterBlock{Addr: addrS, Len: 4, Data: dataCleaning[6:10]},
			R:     zmod4xxx.ResultRegion{Addr: addrResult, Len: 4},
		},
		Duration: CleaningTime,
	}
}

// Config returns a driver configuration for a ZMOD4510 at the default address.
func Config() zmod4xxx.Config {
	return zmod4xxx.Config{
		Address:        Address,
		PID:            PID,
		Profiles:       Profiles(),
		SampleInterval: SampleTime,
		Conditioner:    zmod4xxx.FlagConditioner{Program: CleaningProgram()},
	}
}
