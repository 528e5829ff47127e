package barowatch

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.bug.st/serial"
)

const (
	DeviceTypeSerial = "serial"

	StatusConnected    = "connected"
	StatusDisconnected = "disconnected"
)

// StatusMessage reports device attach/detach events to websocket clients.
type StatusMessage struct {
	Type   string `json:"type"`
	Device string `json:"device"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Server polls the locally attached sensor, ingests serial-attached nodes,
// records every reading and broadcasts it to websocket clients.
type Server struct {
	wsServer *WebSocketServer
	recorder *Recorder
	csv      *CSVWriter

	bmp       *BMP180
	pollEvery time.Duration

	readings   chan Reading
	statusChan chan StatusMessage

	serialPort serial.Port
	serialMux  sync.Mutex
}

// NewServer wires the monitor together. bmp, recorder and csv may each be
// nil; the corresponding path is skipped.
func NewServer(bmp *BMP180, recorder *Recorder, csv *CSVWriter, pollEvery time.Duration) *Server {
	return &Server{
		wsServer:   NewWebSocketServer(),
		recorder:   recorder,
		csv:        csv,
		bmp:        bmp,
		pollEvery:  pollEvery,
		readings:   make(chan Reading),
		statusChan: make(chan StatusMessage),
	}
}

// Start registers the HTTP handlers and blocks serving on addr.
func (s *Server) Start(addr string) error {
	http.HandleFunc("/ws", s.wsServer.HandleWS)
	http.HandleFunc("/history", s.handleHistory)
	http.HandleFunc("/serial_ports", s.handleListSerialPorts)
	http.HandleFunc("/connect", s.handleConnectSerialPort)

	go s.wsServer.Run()
	go s.fanOut()

	if s.bmp != nil {
		go s.pollSensor()
	}

	if s.csv != nil {
		if err := s.csv.WriteHeader(); err != nil {
			return err
		}
	}

	log.Printf("Starting web server on %s", addr)
	return http.ListenAndServe(addr, nil)
}

func (s *Server) fanOut() {
	for {
		select {
		case reading := <-s.readings:
			s.wsServer.Broadcast(reading)
			if s.recorder != nil {
				if err := s.recorder.Add(reading); err != nil {
					log.Printf("Error recording reading: %v", err)
				}
			}
			if s.csv != nil {
				if err := s.csv.WriteReading(reading); err != nil {
					log.Printf("Error writing CSV: %v", err)
				}
			}
		case status := <-s.statusChan:
			status.Type = "status"
			s.wsServer.Broadcast(status)
		}
	}
}

func (s *Server) pollSensor() {
	ticker := time.NewTicker(s.pollEvery)
	defer ticker.Stop()

	for range ticker.C {
		temp, err := s.bmp.ReadTemperature()
		if err != nil {
			log.Printf("Error reading temperature: %v", err)
			continue
		}
		pressure, err := s.bmp.ReadPressure()
		if err != nil {
			log.Printf("Error reading pressure: %v", err)
			continue
		}

		s.readings <- Reading{
			Source:      "bmp180",
			Temperature: temp,
			Pressure:    pressure,
			Timestamp:   time.Now().UnixMicro(),
		}
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.recorder == nil {
		http.Error(w, "No recorder configured", http.StatusNotFound)
		return
	}

	start, err := strconv.ParseInt(r.URL.Query().Get("start"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid start parameter", http.StatusBadRequest)
		return
	}
	end, err := strconv.ParseInt(r.URL.Query().Get("end"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid end parameter", http.StatusBadRequest)
		return
	}

	history, err := s.recorder.History(start, end)
	if err != nil {
		log.Printf("Error querying history: %v", err)
		http.Error(w, "Failed to query history", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(history)
}

func (s *Server) handleListSerialPorts(w http.ResponseWriter, r *http.Request) {
	ports, err := serial.GetPortsList()
	if err != nil {
		http.Error(w, "Failed to list serial ports", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(ports)
}

func (s *Server) handleConnectSerialPort(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Invalid request method", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		PortName string `json:"port_name"`
		BaudRate int    `json:"baud_rate"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	s.serialMux.Lock()
	defer s.serialMux.Unlock()

	// Close existing port if connected
	if s.serialPort != nil {
		s.serialPort.Close()
		s.serialPort = nil
	}

	mode := &serial.Mode{BaudRate: req.BaudRate}
	port, err := serial.Open(req.PortName, mode)
	if err != nil {
		log.Printf("Failed to open serial port %s: %v", req.PortName, err)
		s.statusChan <- StatusMessage{Device: DeviceTypeSerial, Status: StatusDisconnected, Error: err.Error()}
		http.Error(w, "Failed to open serial port", http.StatusInternalServerError)
		return
	}

	s.serialPort = port
	serialReader := NewSerialReader(port, s.statusChan)
	go serialReader.StartReading(s.readings)

	s.statusChan <- StatusMessage{Device: DeviceTypeSerial, Status: StatusConnected}
	log.Printf("Connected to %s with baud rate %d", req.PortName, req.BaudRate)
	w.WriteHeader(http.StatusOK)
}
