package main

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strconv"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type reportMessage struct {
	ReporterID     int64   `json:"reporter_id"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	CountryID      int64   `json:"country_id"`
	EmergencyCatID int64   `json:"emergency_cat_id"`
	Timestamp      int64   `json:"timestamp"`
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <interval_seconds>\n", os.Args[0])
		os.Exit(1)
	}

	intervalSec, err := strconv.Atoi(os.Args[1])
	if err != nil || intervalSec <= 0 {
		fmt.Fprintf(os.Stderr, "error: interval must be a positive integer\n")
		os.Exit(1)
	}

	broker := "tcp://localhost:1883"
	if v := os.Getenv("MQTT_BROKER"); v != "" {
		broker = v
	}

	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID("report-mock-publisher")

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalf("mqtt connect: %v", token.Error())
	}
	defer client.Disconnect(250)

	log.Printf("connected to %s, publishing every %ds...", broker, intervalSec)

	ticker := time.NewTicker(time.Duration(intervalSec) * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		reporterID := int64(1 + rand.Intn(50))

		var lat, lng float64
		// 40% chance to land inside the sample Tel Aviv coverage area,
		// the rest scatter across the globe and should go unmatched.
		if rand.Float64() < 0.4 {
			lat = 32.08 + (rand.Float64()-0.5)*0.02
			lng = 34.78 + (rand.Float64()-0.5)*0.02
		} else {
			lat = -90 + rand.Float64()*180
			lng = -180 + rand.Float64()*360
		}

		msg := reportMessage{
			ReporterID:     reporterID,
			Latitude:       lat,
			Longitude:      lng,
			CountryID:      1,
			EmergencyCatID: int64(1 + rand.Intn(5)),
			Timestamp:      time.Now().Unix(),
		}

		payload, _ := json.Marshal(msg)
		topic := fmt.Sprintf("/sayvu/report/%d/filed", reporterID)

		token := client.Publish(topic, 1, false, payload)
		token.Wait()

		log.Printf("published to %s: %s", topic, payload)
	}
}
