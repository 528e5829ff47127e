package barowatch

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"go.bug.st/serial"
)

// Remote barometer nodes stream fixed 8-byte frames:
//
//	byte 0    sync marker 0xAA
//	bytes 1-2 temperature, int16 big-endian, hundredths of a degree C
//	bytes 3-6 pressure, uint32 big-endian, hundredths of a hPa
//	byte 7    XOR of bytes 0-6, masked to 7 bits
const (
	frameLen  = 8
	frameSync = 0xAA
)

var (
	errBadSync     = errors.New("no sync marker")
	errBadChecksum = errors.New("checksum mismatch")
)

// SerialReader ingests framed readings from a serial-attached node. Only
// the byte stream is needed, so the port is held as an io.Reader.
type SerialReader struct {
	port              io.Reader
	status            chan<- StatusMessage
	buffer            []byte
	consecutiveErrors int
}

func NewSerialReader(port serial.Port, status chan<- StatusMessage) *SerialReader {
	return &SerialReader{
		port:   port,
		status: status,
		buffer: make([]byte, frameLen),
	}
}

// StartReading reads frames until the error budget is exhausted, sending
// decoded readings to the provided channel.
func (sr *SerialReader) StartReading(readings chan<- Reading) error {
	const maxConsecutiveErrors = 10

	for {
		if sr.consecutiveErrors >= maxConsecutiveErrors {
			err := fmt.Errorf("too many consecutive read errors (%d)", sr.consecutiveErrors)
			sr.status <- StatusMessage{Device: DeviceTypeSerial, Status: StatusDisconnected, Error: err.Error()}
			return err
		}

		if err := sr.readFrame(); err != nil {
			log.Printf("Error reading from serial: %v", err)
			sr.consecutiveErrors++
			continue
		}

		reading, err := decodeFrame(sr.buffer)
		if err != nil {
			log.Printf("Dropping serial frame: %v", err)
			sr.consecutiveErrors++
			continue
		}
		sr.consecutiveErrors = 0

		reading.Timestamp = time.Now().UnixMicro()
		readings <- reading
	}
}

// readFrame fills the buffer with one frame, scanning byte by byte for the
// sync marker so a dropped byte costs one frame, not the whole stream. The
// scan gives up after a frame's worth of garbage.
func (sr *SerialReader) readFrame() error {
	for i := 0; i < frameLen; i++ {
		if _, err := io.ReadFull(sr.port, sr.buffer[:1]); err != nil {
			return err
		}
		if sr.buffer[0] == frameSync {
			_, err := io.ReadFull(sr.port, sr.buffer[1:])
			return err
		}
	}
	return errBadSync
}

func decodeFrame(buf []byte) (Reading, error) {
	if len(buf) != frameLen {
		return Reading{}, fmt.Errorf("frame length %d, want %d", len(buf), frameLen)
	}
	if buf[0] != frameSync {
		return Reading{}, fmt.Errorf("%w: %#x", errBadSync, buf[0])
	}

	checksum := uint8(0)
	for i := 0; i < frameLen-1; i++ {
		checksum ^= buf[i]
	}
	checksum &= 0x7F
	if checksum != buf[frameLen-1] {
		return Reading{}, fmt.Errorf("%w: calculated %#02x, received %#02x", errBadChecksum, checksum, buf[frameLen-1])
	}

	temp := int16(binary.BigEndian.Uint16(buf[1:3]))
	press := binary.BigEndian.Uint32(buf[3:7])

	return Reading{
		Source:      "serial",
		Temperature: float64(temp) / 100.0,
		Pressure:    float64(press) / 100.0,
	}, nil
}
