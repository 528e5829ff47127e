package barowatch

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestCSVWriter(t *testing.T) {
	var buf bytes.Buffer
	cw := NewCSVWriter(&buf)

	if err := cw.WriteHeader(); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}

	ts := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	err := cw.WriteReading(Reading{
		Source:      "bmp180",
		Temperature: 15.047,
		Pressure:    699.6102,
		Timestamp:   ts.UnixMicro(),
	})
	if err != nil {
		t.Fatalf("WriteReading: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0] != "timestamp,source,temperature,pressure" {
		t.Errorf("header: %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], ",bmp180,15.05,699.61") {
		t.Errorf("row: %q", lines[1])
	}

	// RFC3339 renders in the local zone; compare instants, not strings.
	got, err := time.Parse(time.RFC3339, strings.SplitN(lines[1], ",", 2)[0])
	if err != nil {
		t.Fatalf("parse row timestamp: %v", err)
	}
	if !got.Equal(ts) {
		t.Errorf("row timestamp: got %v, want %v", got, ts)
	}
}
