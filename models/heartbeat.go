package models

import (
	"time"
)

// DeviceStatus represents the liveness state of a smart toilet unit.
type DeviceStatus string

const (
	DeviceOnline    DeviceStatus = "online"
	DeviceTimeout   DeviceStatus = "timeout"
	DeviceRecovered DeviceStatus = "recovered"
)

// ProbeStatus reports which measurement probes the unit considers healthy.
type ProbeStatus struct {
	PH        bool `json:"ph"`
	TDS       bool `json:"tds"`
	Turbidity bool `json:"turbidity"`
	Ammonia   bool `json:"ammonia"`
	Dipstick  bool `json:"dipstick"`
}

// HeartbeatData is the periodic health message a unit publishes over
// MQTT, consumed here via the bridged RabbitMQ queue.
type HeartbeatData struct {
	DeviceID       string      `json:"device_id"`
	UserID         string      `json:"user_id"`
	Timestamp      time.Time   `json:"timestamp"`
	WiFiConnected  bool        `json:"wifi_connected"`
	MQTTConnected  bool        `json:"mqtt_connected"`
	BatteryPercent float64     `json:"battery_percent"`
	UptimeMs       int64       `json:"uptime_ms"`
	Probes         ProbeStatus `json:"probes"`
}

// DeviceHealth tracks the liveness state of one unit between heartbeats.
type DeviceHealth struct {
	DeviceID      string
	LastHeartbeat *HeartbeatData
	LastSeen      time.Time
	Status        DeviceStatus
	TimeoutAt     time.Time // set when the device timed out
}
