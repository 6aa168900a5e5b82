package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the harness configuration
type Config struct {
	// Cluster
	NodeCount        int
	FormationTimeout time.Duration
	PollInterval     time.Duration

	// Jobs
	JobTimeout time.Duration

	// Node hosts: "local" runs nodes in-process, "aws" provisions EC2 hosts
	NodeProvider    string
	AWSRegion       string
	AWSInstanceType string

	// Run ledger (disabled when empty)
	DatabaseURL string

	// Datasets
	RegressionDataset     string
	ClassificationDataset string

	// Logging
	LogLevel  string
	LogFormat string
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		NodeCount:             getEnvInt("NODE_COUNT", 4),
		FormationTimeout:      getEnvDuration("FORMATION_TIMEOUT", 60*time.Second),
		PollInterval:          getEnvDuration("FORMATION_POLL_INTERVAL", 100*time.Millisecond),
		JobTimeout:            getEnvDuration("JOB_TIMEOUT", 5*time.Minute),
		NodeProvider:          getEnv("NODE_PROVIDER", "local"),
		AWSRegion:             getEnv("AWS_REGION", "us-east-1"),
		AWSInstanceType:       getEnv("AWS_INSTANCE_TYPE", "m5.xlarge"),
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		RegressionDataset:     getEnv("REGRESSION_DATASET", "smalldata/gaussian_regression.csv"),
		ClassificationDataset: getEnv("CLASSIFICATION_DATASET", "smalldata/titanic_alt.csv"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		LogFormat:             getEnv("LOG_FORMAT", "console"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
