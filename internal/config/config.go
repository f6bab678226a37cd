package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port              string
	DatabaseURL       string
	FacilityTimezone  string
	IssueRetryLimit   int
	PatientPrefix     string
	PatientPad        int
	StaffPrefix       string
	StaffPad          int
	QueuePrefix       string
	QueuePad          int
	TxnPrefix         string
	TxnPad            int
	RateLimitPerMin   int
	RateLimitBurst    int
	EventPollInterval time.Duration
	EventBatchSize    int
}

func Load() Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	return Config{
		Port:              port,
		DatabaseURL:       os.Getenv("DB_DSN"),
		FacilityTimezone:  readString("FACILITY_TIMEZONE", "UTC"),
		IssueRetryLimit:   readInt("ISSUE_RETRY_LIMIT", 30),
		PatientPrefix:     readString("PATIENT_PREFIX", "PAT"),
		PatientPad:        readInt("PATIENT_PAD", 4),
		StaffPrefix:       readString("STAFF_PREFIX", "STF"),
		StaffPad:          readInt("STAFF_PAD", 4),
		QueuePrefix:       readString("QUEUE_PREFIX", "Q"),
		QueuePad:          readInt("QUEUE_PAD", 4),
		TxnPrefix:         readString("TXN_PREFIX", "TXN"),
		TxnPad:            readInt("TXN_PAD", 4),
		RateLimitPerMin:   readInt("RATE_LIMIT_PER_MIN", 120),
		RateLimitBurst:    readInt("RATE_LIMIT_BURST", 30),
		EventPollInterval: readDurationSeconds("EVENT_POLL_INTERVAL_SECONDS", 2),
		EventBatchSize:    readInt("EVENT_BATCH_SIZE", 100),
	}
}

func readString(key, fallback string) string {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	return raw
}

func readDurationSeconds(key string, fallback int) time.Duration {
	value := readInt(key, fallback)
	if value <= 0 {
		return 0
	}
	return time.Duration(value) * time.Second
}

func readInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
