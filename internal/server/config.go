package server

import (
	"os"
	"strconv"
	"time"

	"github.com/docuflow/docstate/internal/core"
)

// Config holds service configuration from environment variables.
type Config struct {
	Port    string
	NatsURL string

	SchedulerURL    string
	SchedulerAPIKey string
	JobQueue        string
	JobDefinition   string

	// StaleAfter is the reconciler's staleness threshold.
	StaleAfter        time.Duration
	ReconcileInterval time.Duration
	PollInterval      time.Duration
	BatchSize         int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// LoadConfig reads configuration from environment variables with defaults.
// Missing required settings abort the invocation: everything downstream
// assumes a fully-formed config.
func LoadConfig() (Config, error) {
	cfg := Config{
		Port:    getEnv("DOCSTATE_PORT", "8080"),
		NatsURL: getEnv("NATS_URL", "nats://localhost:4222"),

		SchedulerURL:    getEnv("DOCSTATE_SCHEDULER_URL", ""),
		SchedulerAPIKey: getEnv("DOCSTATE_SCHEDULER_API_KEY", ""),
		JobQueue:        getEnv("DOCSTATE_JOB_QUEUE", ""),
		JobDefinition:   getEnv("DOCSTATE_JOB_DEFINITION", ""),

		StaleAfter:        time.Duration(getEnvInt("DOCSTATE_STALE_AFTER_MINUTES", 120)) * time.Minute,
		ReconcileInterval: getEnvDuration("DOCSTATE_RECONCILE_INTERVAL", 5*time.Minute),
		PollInterval:      getEnvDuration("DOCSTATE_POLL_INTERVAL", 2*time.Second),
		BatchSize:         getEnvInt("DOCSTATE_BATCH_SIZE", 10),

		ReadTimeout:     getEnvDuration("DOCSTATE_READ_TIMEOUT", 10*time.Second),
		WriteTimeout:    getEnvDuration("DOCSTATE_WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:     getEnvDuration("DOCSTATE_IDLE_TIMEOUT", 120*time.Second),
		ShutdownTimeout: getEnvDuration("DOCSTATE_SHUTDOWN_TIMEOUT", 15*time.Second),
	}

	if cfg.SchedulerURL == "" {
		return Config{}, core.NewInvalidConfigError("DOCSTATE_SCHEDULER_URL is required")
	}
	if cfg.JobQueue == "" {
		return Config{}, core.NewInvalidConfigError("DOCSTATE_JOB_QUEUE is required")
	}
	if cfg.JobDefinition == "" {
		return Config{}, core.NewInvalidConfigError("DOCSTATE_JOB_DEFINITION is required")
	}
	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
