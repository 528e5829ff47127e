package barowatch

import "testing"

func setupTestRecorder(t *testing.T) *Recorder {
	t.Helper()
	recorder, err := NewRecorder(":memory:")
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	t.Cleanup(func() {
		if err := recorder.Close(); err != nil {
			t.Errorf("close recorder: %v", err)
		}
	})
	return recorder
}

func TestRecorderAddAndHistory(t *testing.T) {
	recorder := setupTestRecorder(t)

	readings := []Reading{
		{Source: "bmp180", Temperature: 15.0, Pressure: 699.61, Timestamp: 100},
		{Source: "serial", Temperature: 21.3, Pressure: 1013.25, Timestamp: 200},
		{Source: "bmp180", Temperature: 15.1, Pressure: 699.70, Timestamp: 300},
	}
	for _, r := range readings {
		if err := recorder.Add(r); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	history, err := recorder.History(100, 200)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("History returned %d readings, want 2", len(history))
	}
	if history[0] != readings[0] || history[1] != readings[1] {
		t.Errorf("History: got %+v, want %+v", history, readings[:2])
	}

	history, err = recorder.History(400, 500)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("History of empty range returned %d readings", len(history))
	}
}

func TestRecorderSameTimestampDistinctSources(t *testing.T) {
	recorder := setupTestRecorder(t)

	if err := recorder.Add(Reading{Source: "bmp180", Temperature: 15.0, Pressure: 699.61, Timestamp: 100}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := recorder.Add(Reading{Source: "serial", Temperature: 21.3, Pressure: 1013.25, Timestamp: 100}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	history, err := recorder.History(0, 1000)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 2 {
		t.Errorf("History returned %d readings, want 2", len(history))
	}
}
