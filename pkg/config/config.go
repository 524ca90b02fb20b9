package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort      string
	FirebaseProject string
	Environment     string

	// Settlement rail
	SettlementBaseURL string
	SettlementAPIKey  string

	// Dispute engine windows
	InactivityWindow time.Duration
	EscalationWindow time.Duration
	AppealWindow     time.Duration

	// Scheduler
	SchedulerInterval time.Duration
	SchedulerBatch    int

	// Abuse control
	DisputeCreateLimit int // disputes per actor per hour
}

func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		FirebaseProject: getEnv("FIREBASE_PROJECT_ID", ""),
		Environment:     getEnv("ENVIRONMENT", "development"),

		SettlementBaseURL: getEnv("SETTLEMENT_BASE_URL", "http://localhost:9090/v1"),
		SettlementAPIKey:  getEnv("SETTLEMENT_API_KEY", ""),

		InactivityWindow: getEnvAsDays("DISPUTE_INACTIVITY_DAYS", 14),
		EscalationWindow: getEnvAsDays("DISPUTE_ESCALATION_DAYS", 14),
		AppealWindow:     getEnvAsDays("APPEAL_WINDOW_DAYS", 7),

		SchedulerInterval: getEnvAsMinutes("SCHEDULER_INTERVAL_MINUTES", 10),
		SchedulerBatch:    getEnvAsInt("SCHEDULER_BATCH_SIZE", 100),

		DisputeCreateLimit: getEnvAsInt("DISPUTE_CREATE_LIMIT", 5),
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.Atoi(value)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDays(key string, defaultValue int) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultValue)) * 24 * time.Hour
}

func getEnvAsMinutes(key string, defaultValue int) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultValue)) * time.Minute
}
