package barowatch

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHandleHistory(t *testing.T) {
	recorder := setupTestRecorder(t)
	if err := recorder.Add(Reading{Source: "bmp180", Temperature: 15.0, Pressure: 699.61, Timestamp: 150}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	s := NewServer(nil, recorder, nil, time.Second)

	w := httptest.NewRecorder()
	s.handleHistory(w, httptest.NewRequest("GET", "/history?start=100&end=200", nil))
	if w.Code != 200 {
		t.Fatalf("status: got %d, want 200", w.Code)
	}

	var history []Reading
	if err := json.NewDecoder(w.Body).Decode(&history); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(history) != 1 || history[0].Timestamp != 150 {
		t.Errorf("history: got %+v", history)
	}
}

func TestHandleHistoryBadParams(t *testing.T) {
	s := NewServer(nil, setupTestRecorder(t), nil, time.Second)

	w := httptest.NewRecorder()
	s.handleHistory(w, httptest.NewRequest("GET", "/history?start=abc&end=200", nil))
	if w.Code != 400 {
		t.Errorf("status with bad start: got %d, want 400", w.Code)
	}

	w = httptest.NewRecorder()
	s.handleHistory(w, httptest.NewRequest("GET", "/history?start=100", nil))
	if w.Code != 400 {
		t.Errorf("status with missing end: got %d, want 400", w.Code)
	}
}

func TestHandleHistoryNoRecorder(t *testing.T) {
	s := NewServer(nil, nil, nil, time.Second)

	w := httptest.NewRecorder()
	s.handleHistory(w, httptest.NewRequest("GET", "/history?start=0&end=1", nil))
	if w.Code != 404 {
		t.Errorf("status without recorder: got %d, want 404", w.Code)
	}
}
