package services

import (
	"context"
	"fmt"
	"time"

	"uriscan/config"
	"uriscan/models"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Realtime Database paths written by the capture pipeline.
const (
	usersPath           = "Users"
	reportsNode         = "Reports"
	hardwareSessionNode = "Hardware_Sessions"
	medicalSessionNode  = "Medical_Sessions"
	sensorDataNode      = "sensorData"
	chemistryResultNode = "Chemistry_Result"
)

// Firestore collections consumed by the dashboard.
const (
	profileCollection      = "users"
	notificationCollection = "notifications"
	healthDataCollection   = "healthData"
)

type FirebaseService struct {
	rtdb      *db.Client
	firestore *firestore.Client
	config    *config.Config
	logger    *zap.Logger
}

func NewFirebaseService(cfg *config.Config, logger *zap.Logger) (*FirebaseService, error) {
	ctx := context.Background()

	// Parse the service account JSON from environment variable
	serviceAccountJSON := []byte(cfg.FirebaseServiceAccountJSON)

	conf := &firebase.Config{
		DatabaseURL: cfg.FirebaseDbUrl,
		ProjectID:   cfg.FirebaseProjectID,
	}

	opt := option.WithCredentialsJSON(serviceAccountJSON)
	app, err := firebase.NewApp(ctx, conf, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %v", err)
	}

	rtdbClient, err := app.Database(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting database client: %v", err)
	}

	fsClient, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firestore client: %v", err)
	}

	fs := &FirebaseService{
		rtdb:      rtdbClient,
		firestore: fsClient,
		config:    cfg,
		logger:    logger,
	}

	// Test Firebase connection with retry
	if err := fs.testConnection(); err != nil {
		logger.Error("Firebase connection test failed", zap.Error(err))
		return nil, fmt.Errorf("firebase connection test failed: %v", err)
	}

	return fs, nil
}

// testConnection tests Firebase connection with retry logic
func (fs *FirebaseService) testConnection() error {
	ctx := context.Background()
	maxRetries := 3

	for attempt := 1; attempt <= maxRetries; attempt++ {
		fs.logger.Info("Testing Firebase connection", zap.Int("attempt", attempt), zap.Int("max_retries", maxRetries))

		ref := fs.rtdb.NewRef(usersPath)
		var data interface{}
		err := ref.Get(ctx, &data)

		if err == nil {
			fs.logger.Info("Firebase connection successful")
			return nil
		}

		fs.logger.Warn("Firebase connection failed",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", maxRetries),
			zap.Error(err))

		if attempt < maxRetries {
			time.Sleep(time.Duration(attempt) * time.Second) // Exponential backoff
		}
	}

	return fmt.Errorf("failed to connect to Firebase after %d attempts", maxRetries)
}

// FetchUserReports reads one user's full report tree and parses it into
// daily reports keyed by date.
func (fs *FirebaseService) FetchUserReports(ctx context.Context, uid string) (map[string]*models.DailyReport, error) {
	ref := fs.rtdb.NewRef(usersPath + "/" + uid + "/" + reportsNode)

	var raw map[string]interface{}
	if err := ref.Get(ctx, &raw); err != nil {
		return nil, fmt.Errorf("error getting reports for user %s: %v", uid, err)
	}

	return fs.parseReports(uid, raw), nil
}

// SubscribeToReports polls the Users tree and invokes the callback with
// each user's parsed report tree. New-session detection is the caller's
// concern; every poll hands over a fresh snapshot.
func (fs *FirebaseService) SubscribeToReports(ctx context.Context, callback func(uid string, reports map[string]*models.DailyReport)) error {
	ref := fs.rtdb.NewRef(usersPath)
	interval := time.Duration(fs.config.PollInterval) * time.Second

	go func() {
		defer fs.logger.Info("Firebase report polling stopped")

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		fs.logger.Info("Starting Firebase report polling", zap.Duration("interval", interval))

		for {
			select {
			case <-ctx.Done():
				fs.logger.Info("Firebase polling received shutdown signal")
				return
			case <-ticker.C:
				var tree map[string]interface{}
				if err := ref.Get(ctx, &tree); err != nil {
					fs.logger.Error("Error getting user reports", zap.Error(err))
					continue
				}

				for uid, userData := range tree {
					userMap, ok := userData.(map[string]interface{})
					if !ok {
						continue
					}
					rawReports, ok := userMap[reportsNode].(map[string]interface{})
					if !ok {
						continue
					}
					callback(uid, fs.parseReports(uid, rawReports))
				}
			}
		}
	}()

	return nil
}

// parseReports converts the raw report tree into typed daily reports,
// skipping nodes that do not look like date keys.
func (fs *FirebaseService) parseReports(uid string, raw map[string]interface{}) map[string]*models.DailyReport {
	reports := make(map[string]*models.DailyReport)

	for date, node := range raw {
		if !models.DateKeyPattern.MatchString(date) {
			continue
		}
		dayMap, ok := node.(map[string]interface{})
		if !ok {
			continue
		}

		report := &models.DailyReport{
			Date:             date,
			HardwareSessions: make(map[string]*models.SensorSession),
			MedicalSessions:  make(map[string]*models.ChemistrySession),
		}

		for key, sessionNode := range asStringMap(dayMap[hardwareSessionNode]) {
			sessionMap, ok := sessionNode.(map[string]interface{})
			if !ok {
				fs.logger.Warn("Invalid hardware session format",
					zap.String("uid", uid),
					zap.String("date", date),
					zap.String("session_key", key))
				continue
			}
			report.HardwareSessions[key] = &models.SensorSession{
				Date:     date,
				Key:      key,
				Metadata: parseMetadata(sessionMap),
				Readings: asStringMap(sessionMap[sensorDataNode]),
			}
		}

		for key, sessionNode := range asStringMap(dayMap[medicalSessionNode]) {
			sessionMap, ok := sessionNode.(map[string]interface{})
			if !ok {
				fs.logger.Warn("Invalid medical session format",
					zap.String("uid", uid),
					zap.String("date", date),
					zap.String("session_key", key))
				continue
			}
			report.MedicalSessions[key] = &models.ChemistrySession{
				Date:     date,
				Key:      key,
				Metadata: parseMetadata(sessionMap),
				Readings: asStringMap(sessionMap[chemistryResultNode]),
			}
		}

		reports[date] = report
	}

	return reports
}

func parseMetadata(sessionMap map[string]interface{}) models.SessionMetadata {
	meta := asStringMap(sessionMap["metadata"])
	clock, _ := meta["time"].(string)
	return models.SessionMetadata{Time: clock}
}

func asStringMap(v interface{}) map[string]interface{} {
	if m, ok := v.(map[string]interface{}); ok {
		return m
	}
	return map[string]interface{}{}
}

// AppendNotification writes one alert into the user's notification feed
// with the document shape the dashboard panel renders.
func (fs *FirebaseService) AppendNotification(ctx context.Context, uid string, alert *models.Alert) error {
	doc := fs.firestore.Collection(profileCollection).Doc(uid).
		Collection(notificationCollection).Doc(uuid.NewString())

	_, err := doc.Set(ctx, map[string]interface{}{
		"message":    alert.Message,
		"timestamp":  alert.Timestamp,
		"isRead":     false,
		"type":       string(alert.Severity),
		"sensorName": alert.SensorName,
	})
	if err != nil {
		return fmt.Errorf("error writing notification for user %s: %v", uid, err)
	}

	fs.logger.Debug("Notification appended",
		zap.String("uid", uid),
		zap.String("sensor_name", alert.SensorName),
		zap.String("severity", string(alert.Severity)))
	return nil
}

// AppendHealthRecord appends a reconciled record to the user's history
// log. The document ID is the record's derived identity, so re-observing
// the same session rewrites the same document instead of duplicating it.
// Only raw readings are stored; verdicts are derived at read time and
// never persisted.
func (fs *FirebaseService) AppendHealthRecord(ctx context.Context, uid string, record *models.CombinedRecord) error {
	fields := map[string]interface{}{
		"timestamp": record.Timestamp,
		"date":      record.Date,
	}
	for _, param := range models.MonitoredParameters {
		reading := record.Reading(param)
		if reading.Kind == models.ReadingUnknown {
			continue
		}
		fields[param.WireKey()] = reading.Raw
	}
	if sg, ok := asNumber(record.Reading(models.ParamSpecificGravity)); ok {
		fields["hydration_percent"] = HydrationPercent(sg)
	}

	doc := fs.firestore.Collection(profileCollection).Doc(uid).
		Collection(healthDataCollection).Doc(record.ID)
	if _, err := doc.Set(ctx, fields); err != nil {
		return fmt.Errorf("error writing health record %s for user %s: %v", record.ID, uid, err)
	}

	fs.logger.Debug("Health record appended",
		zap.String("uid", uid),
		zap.String("record_id", record.ID))
	return nil
}

// GetUserProfile reads the user's profile document.
func (fs *FirebaseService) GetUserProfile(ctx context.Context, uid string) (map[string]interface{}, error) {
	snap, err := fs.firestore.Collection(profileCollection).Doc(uid).Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting profile for user %s: %v", uid, err)
	}
	return snap.Data(), nil
}

// Close closes the Firestore connection; the Realtime Database client
// needs no explicit shutdown.
func (fs *FirebaseService) Close() error {
	fs.logger.Info("Closing Firebase service")
	return fs.firestore.Close()
}
