package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"barowatch"
)

func main() {
	busName := flag.String("bus", "", "I2C bus name (empty selects the first available)")
	oss := flag.Int("oss", 1, "oversampling setting, 0-3")
	flag.Parse()

	if _, err := host.Init(); err != nil {
		log.Fatal(err)
	}

	bus, err := i2creg.Open(*busName)
	if err != nil {
		log.Fatal(err)
	}
	defer bus.Close()

	bmp, err := barowatch.New(bus, barowatch.Oversampling(*oss))
	if err != nil {
		log.Fatal(err)
	}

	// Print CSV header
	fmt.Println("timestamp,temperature,pressure")

	for {
		temp, err := bmp.ReadTemperature()
		if err != nil {
			log.Printf("Error reading temperature: %v", err)
			continue
		}
		pressure, err := bmp.ReadPressure()
		if err != nil {
			log.Printf("Error reading pressure: %v", err)
			continue
		}

		// Output in CSV format with RFC3339 timestamp
		fmt.Printf("%s,%.2f,%.2f\n",
			time.Now().Format(time.RFC3339),
			temp,
			pressure)

		time.Sleep(2 * time.Second)
	}
}
