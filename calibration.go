package barowatch

import "fmt"

// calCoefficient describes one factory calibration word: its datasheet name,
// the E2PROM register it lives at, and whether the 16-bit value is signed.
type calCoefficient struct {
	name   string
	reg    byte
	signed bool
}

// Calibration register map, 2 bytes each, big-endian. Every entry is read
// exactly once per refresh, in table order.
var calCoefficients = [11]calCoefficient{
	{"ac1", 0xAA, true},
	{"ac2", 0xAC, true},
	{"ac3", 0xAE, true},
	{"ac4", 0xB0, false},
	{"ac5", 0xB2, false},
	{"ac6", 0xB4, false},
	{"b1", 0xB6, true},
	{"b2", 0xB8, true},
	{"mb", 0xBA, true},
	{"mc", 0xBC, true},
	{"md", 0xBE, true},
}

// CalibrationStore caches the coefficients read from the sensor E2PROM.
// All values are zero until the first refresh. Unsigned words are widened
// into int32 alongside the signed ones so the compensation math has a single
// integer type to start from.
type CalibrationStore struct {
	ac1, ac2, ac3 int32
	ac4, ac5, ac6 int32
	b1, b2        int32
	mb, mc, md    int32
}

// Set stores a coefficient by its datasheet name.
func (c *CalibrationStore) Set(name string, value int32) error {
	switch name {
	case "ac1":
		c.ac1 = value
	case "ac2":
		c.ac2 = value
	case "ac3":
		c.ac3 = value
	case "ac4":
		c.ac4 = value
	case "ac5":
		c.ac5 = value
	case "ac6":
		c.ac6 = value
	case "b1":
		c.b1 = value
	case "b2":
		c.b2 = value
	case "mb":
		c.mb = value
	case "mc":
		c.mc = value
	case "md":
		c.md = value
	default:
		return fmt.Errorf("unknown calibration coefficient %q", name)
	}
	return nil
}

// Get returns a coefficient by its datasheet name.
func (c *CalibrationStore) Get(name string) (int32, error) {
	switch name {
	case "ac1":
		return c.ac1, nil
	case "ac2":
		return c.ac2, nil
	case "ac3":
		return c.ac3, nil
	case "ac4":
		return c.ac4, nil
	case "ac5":
		return c.ac5, nil
	case "ac6":
		return c.ac6, nil
	case "b1":
		return c.b1, nil
	case "b2":
		return c.b2, nil
	case "mb":
		return c.mb, nil
	case "mc":
		return c.mc, nil
	case "md":
		return c.md, nil
	}
	return 0, fmt.Errorf("unknown calibration coefficient %q", name)
}
