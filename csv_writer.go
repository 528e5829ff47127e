package barowatch

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// CSVWriter appends readings to a CSV stream, one row per reading.
type CSVWriter struct {
	writer *csv.Writer
}

func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{
		writer: csv.NewWriter(w),
	}
}

func (cw *CSVWriter) WriteHeader() error {
	if err := cw.writer.Write([]string{"timestamp", "source", "temperature", "pressure"}); err != nil {
		return fmt.Errorf("error writing CSV header: %v", err)
	}
	cw.writer.Flush()
	return cw.writer.Error()
}

func (cw *CSVWriter) WriteReading(reading Reading) error {
	if err := cw.writer.Write([]string{
		time.UnixMicro(reading.Timestamp).Format(time.RFC3339),
		reading.Source,
		strconv.FormatFloat(reading.Temperature, 'f', 2, 64),
		strconv.FormatFloat(reading.Pressure, 'f', 2, 64),
	}); err != nil {
		return fmt.Errorf("error writing CSV: %v", err)
	}
	cw.writer.Flush()
	return cw.writer.Error()
}
