package main

import (
	"flag"
	"log"
	"os"
	"time"

	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"barowatch"
)

func main() {
	listen := flag.String("listen", ":8080", "HTTP listen address")
	dbPath := flag.String("db", "readings.db", "sqlite database path (empty disables recording)")
	csvPath := flag.String("csv", "", "CSV log path (empty disables CSV logging)")
	busName := flag.String("bus", "", "I2C bus name (empty selects the first available)")
	oss := flag.Int("oss", 1, "oversampling setting, 0-3")
	poll := flag.Duration("poll", 2*time.Second, "sensor poll interval")
	flag.Parse()

	if _, err := host.Init(); err != nil {
		log.Fatal(err)
	}

	// A missing local sensor is not fatal: the server can still ingest
	// serial-attached nodes.
	var bmp *barowatch.BMP180
	bus, err := i2creg.Open(*busName)
	if err != nil {
		log.Printf("Failed to open I2C bus: %v", err)
	} else {
		defer bus.Close()
		bmp, err = barowatch.New(bus, barowatch.Oversampling(*oss))
		if err != nil {
			log.Printf("Failed to initialize BMP180: %v", err)
		}
	}

	var recorder *barowatch.Recorder
	if *dbPath != "" {
		recorder, err = barowatch.NewRecorder(*dbPath)
		if err != nil {
			log.Fatal(err)
		}
		defer recorder.Close()
	}

	var csv *barowatch.CSVWriter
	if *csvPath != "" {
		f, err := os.OpenFile(*csvPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		csv = barowatch.NewCSVWriter(f)
	}

	server := barowatch.NewServer(bmp, recorder, csv, *poll)
	log.Fatal(server.Start(*listen))
}
