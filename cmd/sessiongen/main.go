package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"uriscan/models"

	firebase "firebase.google.com/go/v4"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

var (
	uid          = flag.String("uid", "mock-user-001", "User ID to write sessions under")
	deviceID     = flag.String("device", "URISCAN-MOCK-001", "Device ID for heartbeats")
	interval     = flag.Int("interval", 60, "Seconds between generated hardware sessions")
	abnormal     = flag.Float64("abnormal", 0.2, "Probability of abnormal readings (0.0-1.0)")
	withMedical  = flag.Float64("medical", 0.7, "Probability a dipstick session follows a hardware session")
	heartbeatSec = flag.Int("heartbeat", 30, "Seconds between heartbeats (0 disables)")
	mqttBroker   = flag.String("broker", "localhost:1883", "MQTT broker address (host:port)")
	mqttUser     = flag.String("user", "uriscan", "MQTT username")
	mqttPass     = flag.String("pass", "uriscan2026", "MQTT password")
	mqttTopic    = flag.String("topic", "device_heartbeat_queue", "MQTT topic for heartbeats")
)

// MockSessionGenerator produces hardware and dipstick sessions shaped
// like the ones the unit firmware writes.
type MockSessionGenerator struct {
	uid                 string
	abnormalProbability float64
	logger              *zap.Logger
}

func NewMockSessionGenerator(uid string, abnormalProb float64, logger *zap.Logger) *MockSessionGenerator {
	return &MockSessionGenerator{
		uid:                 uid,
		abnormalProbability: abnormalProb,
		logger:              logger,
	}
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func sessionKey(ts time.Time) string {
	return fmt.Sprintf("%d-%s", ts.Unix(), uuid.NewString()[:8])
}

// GenerateHardwareSession builds one sensorData payload. Values sit in
// the normal bands unless this sample rolls abnormal.
func (m *MockSessionGenerator) GenerateHardwareSession(ts time.Time) (string, map[string]interface{}) {
	isAbnormal := rand.Float64() < m.abnormalProbability

	ph := 5.5 + rand.Float64()*2.0           // 5.5-7.5
	sg := 1.010 + rand.Float64()*0.015       // 1.010-1.025
	tds := 100.0 + rand.Float64()*180.0      // 100-280 ppm
	turbidity := rand.Float64() * 15.0       // 0-15 NTU
	ammonia := 20.0 + rand.Float64()*300.0   // 20-320 ppm
	temperature := 35.5 + rand.Float64()*1.3 // 35.5-36.8
	bloodDetected := false
	leakage := false

	if isAbnormal {
		switch rand.Intn(6) {
		case 0:
			ph = 8.2 + rand.Float64()*1.5
		case 1:
			sg = 1.032 + rand.Float64()*0.005
		case 2:
			tds = 520.0 + rand.Float64()*300.0
		case 3:
			turbidity = 55.0 + rand.Float64()*40.0
		case 4:
			temperature = 37.2 + rand.Float64()*1.0
		case 5:
			bloodDetected = true
		}
	}

	payload := map[string]interface{}{
		"metadata": map[string]interface{}{
			"time": ts.Format(models.TimeLayout),
		},
		"sensorData": map[string]interface{}{
			"ph_value_sensor":         round1(ph),
			"specific_gravity_sensor": math.Round(sg*1000) / 1000,
			"tds_value":               round1(tds),
			"turbidity":               round1(turbidity),
			"ammonia_sensor":          round1(ammonia),
			"temperature_sensor":      round1(temperature),
			"blood_detected_sensor":   bloodDetected,
			"leakage_detected":        leakage,
		},
	}

	return sessionKey(ts), payload
}

// GenerateMedicalSession builds one Chemistry_Result payload.
func (m *MockSessionGenerator) GenerateMedicalSession(ts time.Time) (string, map[string]interface{}) {
	isAbnormal := rand.Float64() < m.abnormalProbability

	chem := map[string]interface{}{
		"chem_bilirubin":       "neg",
		"chem_urobilinogen":    round1(0.2 + rand.Float64()*0.8),
		"chem_ketones":         "neg",
		"chem_ascorbicAcid":    "neg",
		"chem_glucose":         "neg",
		"chem_protein":         "neg",
		"chem_blood":           "neg",
		"chem_ph":              round1(5.5 + rand.Float64()*2.0),
		"chem_nitrite":         "neg",
		"chem_leukocytes":      "neg",
		"chem_specificGravity": math.Round((1.010+rand.Float64()*0.015)*1000) / 1000,
	}

	if isAbnormal {
		switch rand.Intn(5) {
		case 0:
			chem["chem_protein"] = 45.0 + rand.Float64()*60.0
		case 1:
			chem["chem_glucose"] = "2+"
		case 2:
			chem["chem_blood"] = 25.0 + rand.Float64()*50.0
		case 3:
			chem["chem_nitrite"] = "pos"
		case 4:
			chem["chem_leukocytes"] = 70.0 + rand.Float64()*100.0
		}
	}

	payload := map[string]interface{}{
		"metadata": map[string]interface{}{
			"time": ts.Format(models.TimeLayout),
		},
		"Chemistry_Result": chem,
	}

	return sessionKey(ts), payload
}

// GenerateHeartbeat builds one heartbeat message like the firmware's.
func (m *MockSessionGenerator) GenerateHeartbeat(deviceID string, startTime time.Time) *models.HeartbeatData {
	return &models.HeartbeatData{
		DeviceID:       deviceID,
		UserID:         m.uid,
		Timestamp:      time.Now(),
		WiFiConnected:  true,
		MQTTConnected:  true,
		BatteryPercent: round1(40 + rand.Float64()*60),
		UptimeMs:       time.Since(startTime).Milliseconds(),
		Probes: models.ProbeStatus{
			PH:        true,
			TDS:       true,
			Turbidity: true,
			Ammonia:   rand.Float64() > 0.05,
			Dipstick:  true,
		},
	}
}

func main() {
	flag.Parse()

	// Initialize logger
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	if err := godotenv.Load(); err != nil {
		logger.Warn("Error loading .env file", zap.Error(err))
	}

	serviceAccountJSON := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON")
	dbURL := os.Getenv("FIREBASE_DB_URL")
	if serviceAccountJSON == "" || dbURL == "" {
		logger.Fatal("FIREBASE_SERVICE_ACCOUNT_JSON and FIREBASE_DB_URL must be set")
	}

	logger.Info("Mock session generator started",
		zap.String("uid", *uid),
		zap.String("device_id", *deviceID),
		zap.Int("interval_seconds", *interval),
		zap.Float64("abnormal_probability", *abnormal),
		zap.Float64("medical_probability", *withMedical),
	)
	logger.Info("Press Ctrl+C to stop gracefully")

	// Initialize Firebase app
	conf := &firebase.Config{DatabaseURL: dbURL}
	opt := option.WithCredentialsJSON([]byte(serviceAccountJSON))
	app, err := firebase.NewApp(context.Background(), conf, opt)
	if err != nil {
		logger.Fatal("Failed to initialize Firebase app", zap.Error(err))
	}

	rtdb, err := app.Database(context.Background())
	if err != nil {
		logger.Fatal("Failed to get database client", zap.Error(err))
	}

	// Initialize MQTT client for heartbeats (simulating the unit firmware)
	var mqttClient mqtt.Client
	if *heartbeatSec > 0 {
		opts := mqtt.NewClientOptions()
		opts.AddBroker(fmt.Sprintf("tcp://%s", *mqttBroker))
		opts.SetClientID(fmt.Sprintf("%s-generator", *deviceID))
		opts.SetUsername(*mqttUser)
		opts.SetPassword(*mqttPass)
		opts.SetKeepAlive(60 * time.Second)
		opts.SetPingTimeout(10 * time.Second)
		opts.SetAutoReconnect(true)

		opts.OnConnect = func(client mqtt.Client) {
			logger.Info("Connected to MQTT broker", zap.String("broker", *mqttBroker))
		}
		opts.OnConnectionLost = func(client mqtt.Client, err error) {
			logger.Error("MQTT connection lost", zap.Error(err))
		}

		mqttClient = mqtt.NewClient(opts)
		if token := mqttClient.Connect(); token.Wait() && token.Error() != nil {
			logger.Fatal("Failed to connect to MQTT broker", zap.Error(token.Error()))
		}
		defer mqttClient.Disconnect(250)
	}

	mockGen := NewMockSessionGenerator(*uid, *abnormal, logger)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, stopping generator")
		cancel()
	}()

	sessionTicker := time.NewTicker(time.Duration(*interval) * time.Second)
	defer sessionTicker.Stop()

	var heartbeatC <-chan time.Time
	if *heartbeatSec > 0 {
		heartbeatTicker := time.NewTicker(time.Duration(*heartbeatSec) * time.Second)
		defer heartbeatTicker.Stop()
		heartbeatC = heartbeatTicker.C
	}

	startTime := time.Now()
	sessionCount := 0
	heartbeatCount := 0

	for {
		select {
		case <-ctx.Done():
			logger.Info("Shutting down gracefully",
				zap.Int("sessions_written", sessionCount),
				zap.Int("heartbeats_published", heartbeatCount),
				zap.Duration("uptime", time.Since(startTime)))
			return

		case <-sessionTicker.C:
			now := time.Now()
			date := now.Format(models.DateLayout)

			hwKey, hwPayload := mockGen.GenerateHardwareSession(now)
			ref := rtdb.NewRef(fmt.Sprintf("Users/%s/Reports/%s/Hardware_Sessions/%s", *uid, date, hwKey))
			if err := ref.Set(ctx, hwPayload); err != nil {
				logger.Error("Failed to write hardware session", zap.Error(err))
				continue
			}
			sessionCount++

			logger.Info("Hardware session written",
				zap.String("date", date),
				zap.String("key", hwKey))

			// Dipstick result follows a short while after the capture
			if rand.Float64() < *withMedical {
				medTime := now.Add(time.Duration(1+rand.Intn(5)) * time.Minute)
				medKey, medPayload := mockGen.GenerateMedicalSession(medTime)
				medRef := rtdb.NewRef(fmt.Sprintf("Users/%s/Reports/%s/Medical_Sessions/%s", *uid, date, medKey))
				if err := medRef.Set(ctx, medPayload); err != nil {
					logger.Error("Failed to write medical session", zap.Error(err))
					continue
				}
				sessionCount++

				logger.Info("Medical session written",
					zap.String("date", date),
					zap.String("key", medKey))
			}

		case <-heartbeatC:
			heartbeat := mockGen.GenerateHeartbeat(*deviceID, startTime)
			jsonData, err := json.Marshal(heartbeat)
			if err != nil {
				logger.Error("Failed to marshal heartbeat", zap.Error(err))
				continue
			}

			token := mqttClient.Publish(*mqttTopic, 0, false, jsonData)
			if token.Wait() && token.Error() != nil {
				logger.Error("Failed to publish heartbeat", zap.Error(token.Error()))
				continue
			}
			heartbeatCount++

			logger.Debug("Heartbeat published",
				zap.String("device_id", heartbeat.DeviceID),
				zap.String("topic", *mqttTopic),
				zap.Int("count", heartbeatCount))
		}
	}
}
