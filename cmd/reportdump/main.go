package main

import (
	"context"
	"flag"
	"fmt"
	stdlog "log"
	"os"
	"time"

	"uriscan/models"
	"uriscan/services"

	firebase "firebase.google.com/go/v4"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// reportdump reads one user's report tree straight from the Realtime
// Database and prints the reconciled, classified records. Useful for
// checking what the monitoring service will see without running it.
func main() {
	uid := flag.String("uid", "", "user id whose reports to dump")
	flag.Parse()

	if *uid == "" {
		stdlog.Fatal("usage: reportdump -uid <user-id>")
	}

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		stdlog.Printf("Warning: Error loading .env file: %v", err)
	}

	serviceAccountJSON := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON")
	dbURL := os.Getenv("FIREBASE_DB_URL")

	if serviceAccountJSON == "" {
		stdlog.Fatal("FIREBASE_SERVICE_ACCOUNT_JSON environment variable is not set")
	}
	if dbURL == "" {
		stdlog.Fatal("FIREBASE_DB_URL environment variable is not set")
	}

	// Initialize Firebase app
	conf := &firebase.Config{
		DatabaseURL: dbURL,
	}

	opt := option.WithCredentialsJSON([]byte(serviceAccountJSON))
	app, err := firebase.NewApp(context.Background(), conf, opt)
	if err != nil {
		stdlog.Fatalf("Error initializing Firebase app: %v", err)
	}

	client, err := app.Database(context.Background())
	if err != nil {
		stdlog.Fatalf("Error getting database client: %v", err)
	}

	// Read the raw report tree
	var rawReports map[string]interface{}
	ref := client.NewRef(fmt.Sprintf("Users/%s/Reports", *uid))
	if err := ref.Get(context.Background(), &rawReports); err != nil {
		stdlog.Fatalf("Error reading reports: %v", err)
	}

	fmt.Printf("Report days found: %d\n", len(rawReports))

	reports := make(map[string]*models.DailyReport)
	for date, node := range rawReports {
		if !models.DateKeyPattern.MatchString(date) {
			continue
		}
		report := parseDay(date, node)
		if report != nil {
			reports[date] = report
		}
	}

	reconciler := services.NewReconciler(zap.NewNop())
	records := reconciler.ReconcileRange(reports)

	fmt.Printf("Combined records: %d\n\n", len(records))

	for _, record := range records {
		fmt.Printf("Record: %s\n", record.ID)
		fmt.Printf("  Time: %s\n", record.Timestamp.Format(time.RFC3339))
		if record.Chemistry != nil {
			fmt.Printf("  Chemistry session: %s\n", record.Chemistry.Key)
		} else {
			fmt.Println("  Chemistry session: (none)")
		}
		for _, verdict := range services.ClassifyRecord(record) {
			fmt.Printf("  %-20s %-10s value=%s range=%s\n",
				verdict.Parameter.DisplayName(),
				verdict.Status,
				verdict.DisplayValue,
				verdict.NormalRange)
		}
		fmt.Println("---")
	}
}

func parseDay(date string, node interface{}) *models.DailyReport {
	day, ok := node.(map[string]interface{})
	if !ok {
		return nil
	}

	report := &models.DailyReport{
		Date:             date,
		HardwareSessions: make(map[string]*models.SensorSession),
		MedicalSessions:  make(map[string]*models.ChemistrySession),
	}

	if hw, ok := day["Hardware_Sessions"].(map[string]interface{}); ok {
		for key, raw := range hw {
			session, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			readings, _ := session["sensorData"].(map[string]interface{})
			report.HardwareSessions[key] = &models.SensorSession{
				Date:     date,
				Key:      key,
				Metadata: parseMetadata(session),
				Readings: readings,
			}
		}
	}

	if med, ok := day["Medical_Sessions"].(map[string]interface{}); ok {
		for key, raw := range med {
			session, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			readings, _ := session["Chemistry_Result"].(map[string]interface{})
			report.MedicalSessions[key] = &models.ChemistrySession{
				Date:     date,
				Key:      key,
				Metadata: parseMetadata(session),
				Readings: readings,
			}
		}
	}

	return report
}

func parseMetadata(session map[string]interface{}) models.SessionMetadata {
	meta, ok := session["metadata"].(map[string]interface{})
	if !ok {
		return models.SessionMetadata{}
	}
	clock, _ := meta["time"].(string)
	return models.SessionMetadata{Time: clock}
}
