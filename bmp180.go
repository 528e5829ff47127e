package barowatch

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"periph.io/x/conn/v3/i2c"
)

const (
	bmp180Addr = 0x77

	// Identity
	chipIDReg  = 0xD0
	bmp180Chip = 0x55

	// Control registers
	ctrlMeas     = 0xF4
	softResetReg = 0xE0
	softResetCmd = 0xB6
	tempCmd      = 0x2E
	pressCmd     = 0x34

	// Bit 5 of the control register reads 1 while a conversion is running.
	scoBit = 1 << 5

	// Data registers
	dataReg = 0xF6
)

// Conversion times from the datasheet. The host must not touch the result
// registers before the full conversion time has elapsed.
const tempConversionTime = 4500 * time.Microsecond

var pressConversionTimes = [4]time.Duration{
	4500 * time.Microsecond,
	7500 * time.Microsecond,
	13500 * time.Microsecond,
	25500 * time.Microsecond,
}

// Oversampling selects pressure conversion precision against conversion
// time. Fixed for the lifetime of a driver instance.
type Oversampling uint8

const (
	UltraLowPower Oversampling = iota
	Standard
	HighResolution
	UltraHighResolution
)

var (
	// ErrIdentityMismatch is returned when the chip-ID register does not
	// hold the BMP180 identity at construction.
	ErrIdentityMismatch = errors.New("bmp180: chip identity mismatch")

	// ErrConversionNotComplete is returned when the start-of-conversion
	// flag is still set after the prescribed wait. The reading is
	// discarded; the driver does not retry.
	ErrConversionNotComplete = errors.New("bmp180: conversion not complete")
)

// BMP180 drives a Bosch BMP180 pressure/temperature sensor over I2C.
//
// The bus is borrowed, never closed or reconfigured. One instance assumes
// exclusive access to the device for the duration of each measurement;
// callers sharing a bus must serialize externally.
type BMP180 struct {
	dev   i2c.Dev
	oss   Oversampling
	cal   CalibrationStore
	sleep func(time.Duration)
}

// New verifies the chip identity and reads the factory calibration
// coefficients. Either failure aborts construction.
func New(bus i2c.Bus, oss Oversampling) (*BMP180, error) {
	if oss > UltraHighResolution {
		return nil, fmt.Errorf("bmp180: invalid oversampling setting %d", oss)
	}

	b := &BMP180{
		dev:   i2c.Dev{Bus: bus, Addr: bmp180Addr},
		oss:   oss,
		sleep: time.Sleep,
	}

	id, err := b.ChipID()
	if err != nil {
		return nil, err
	}
	if id != bmp180Chip {
		return nil, fmt.Errorf("%w: got %#x, want %#x", ErrIdentityMismatch, id, bmp180Chip)
	}

	if err := b.Recalibrate(); err != nil {
		return nil, err
	}
	return b, nil
}

// ChipID reads the identity register. It is a live read every call, not a
// cached value.
func (b *BMP180) ChipID() (byte, error) {
	buf := make([]byte, 1)
	if err := b.dev.Tx([]byte{chipIDReg}, buf); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// Recalibrate refreshes all 11 calibration coefficients from the sensor,
// one 2-byte read per coefficient. A bus failure partway through leaves the
// store partially updated.
func (b *BMP180) Recalibrate() error {
	buf := make([]byte, 2)
	for _, c := range calCoefficients {
		if err := b.dev.Tx([]byte{c.reg}, buf); err != nil {
			return err
		}
		raw := binary.BigEndian.Uint16(buf)
		v := int32(raw)
		if c.signed {
			v = int32(int16(raw))
		}
		if err := b.cal.Set(c.name, v); err != nil {
			return err
		}
	}
	return nil
}

// Reset writes the soft-reset command. The time the device needs before it
// responds again is the caller's problem; no wait is performed here.
func (b *BMP180) Reset() error {
	return b.dev.Tx([]byte{softResetReg, softResetCmd}, nil)
}

// ReadTemperature triggers a temperature conversion and returns degrees
// Celsius.
func (b *BMP180) ReadTemperature() (float64, error) {
	ut, err := b.rawTemperature()
	if err != nil {
		return 0, err
	}
	t, _ := b.compensateTemperature(ut)
	return t, nil
}

// ReadPressure triggers a pressure conversion and returns hectopascals.
// Every pressure reading also performs a complete fresh temperature
// conversion: the b5 term must reflect the current device state, not a
// value left over from a prior call.
func (b *BMP180) ReadPressure() (float64, error) {
	up, err := b.rawPressure()
	if err != nil {
		return 0, err
	}
	ut, err := b.rawTemperature()
	if err != nil {
		return 0, err
	}
	_, b5 := b.compensateTemperature(ut)
	return b.compensatePressure(up, b5), nil
}

func (b *BMP180) rawTemperature() (int32, error) {
	if err := b.dev.Tx([]byte{ctrlMeas, tempCmd}, nil); err != nil {
		return 0, err
	}
	b.sleep(tempConversionTime)
	v, err := b.readConverted(2)
	if err != nil {
		return 0, err
	}
	return int32(v), nil
}

func (b *BMP180) rawPressure() (int32, error) {
	if err := b.dev.Tx([]byte{ctrlMeas, pressCmd | byte(b.oss)<<6}, nil); err != nil {
		return 0, err
	}
	b.sleep(pressConversionTimes[b.oss])
	v, err := b.readConverted(3)
	if err != nil {
		return 0, err
	}
	return int32(v >> (8 - uint(b.oss))), nil
}

// readConverted verifies the start-of-conversion flag has cleared, then
// reads n result bytes big-endian. A set flag after the prescribed wait
// means the caller polled too early or the device is stuck; the driver
// surfaces that instead of waiting longer.
func (b *BMP180) readConverted(n int) (uint32, error) {
	ctrl := make([]byte, 1)
	if err := b.dev.Tx([]byte{ctrlMeas}, ctrl); err != nil {
		return 0, err
	}
	if ctrl[0]&scoBit != 0 {
		return 0, ErrConversionNotComplete
	}

	buf := make([]byte, n)
	if err := b.dev.Tx([]byte{dataReg}, buf); err != nil {
		return 0, err
	}
	var v uint32
	for _, by := range buf {
		v = v<<8 | uint32(by)
	}
	return v, nil
}

// compensateTemperature applies the datasheet temperature formula and
// returns degrees Celsius plus the b5 intermediate the pressure formula
// needs. Arithmetic stays in float64 throughout; variable names follow the
// datasheet.
func (b *BMP180) compensateTemperature(ut int32) (float64, float64) {
	x1 := (float64(ut) - float64(b.cal.ac6)) * float64(b.cal.ac5) / 32768
	x2 := float64(b.cal.mc) * 2048 / (x1 + float64(b.cal.md))
	b5 := x1 + x2
	return (b5 + 8) / 16 * 0.1, b5
}

// compensatePressure applies the datasheet pressure formula and returns
// hectopascals. The floor on b3's numerator before the oversampling shift
// is the only integer truncation in the pipeline; reordering it changes
// rounding and breaks compatibility with reference sensor output.
func (b *BMP180) compensatePressure(up int32, b5 float64) float64 {
	b6 := b5 - 4000
	x1 := float64(b.cal.b2) * (b6 * b6 / 4096) / 1024
	x2 := float64(b.cal.ac2) * b6 / 1024
	x3 := x1 + x2
	b3 := (math.Floor(float64(b.cal.ac1)*4+x3)*float64(int32(1)<<b.oss) + 2) / 4

	x1 = float64(b.cal.ac3) * b6 / 8192
	x2 = float64(b.cal.b1) * (b6 * b6 / 4096) / 65536
	x3 = (x1 + x2 + 2) / 4
	b4 := float64(b.cal.ac4) * (x3 + 32768) / 16384
	b7 := (float64(up) - b3) * float64(uint32(50000)>>uint(b.oss))

	var p float64
	if b7 < 0x80000000 {
		p = b7 * 2 / b4
	} else {
		p = b7 / b4 * 2
	}

	x1 = (p / 128) * (p / 128)
	x1 = x1 * 3038 / 32768
	x2 = -7357 * p / 32768
	p += (x1 + x2 + 3791) / 8

	return p * 0.01
}
