package config

import (
	"os"
	"strconv"
	"time"
)

// Server holds all configuration the API server reads at startup. Values are
// loaded once and passed into components; nothing reads the environment
// after boot.
type Server struct {
	Addr        string
	DatabaseURL string
	SMTP        SMTP
}

// SMTP carries mail credentials for threshold alerting. When Host is empty
// alerting is disabled and metric pushes only update the project record.
type SMTP struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Configured reports whether alert mail can be sent.
func (s SMTP) Configured() bool {
	return s.Host != ""
}

// Agent holds the CLI agent's configuration: where to ship logs, the key to
// ship them under, and the buffer/monitor tuning knobs.
type Agent struct {
	APIURL          string
	APIKey          string
	FlushInterval   time.Duration
	BatchSize       int
	MaxBufferSize   int
	MonitorInterval time.Duration
	ExcludePattern  string
}

// LoadServer reads server configuration from the environment.
func LoadServer() Server {
	return Server{
		Addr:        envString("SKYLOG_ADDR", ":8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		SMTP: SMTP{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     envInt("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASS"),
			From:     envString("SMTP_FROM", "alerts@skylog.dev"),
		},
	}
}

// LoadAgent reads agent configuration from the environment.
func LoadAgent() Agent {
	return Agent{
		APIURL:          envString("SKYLOG_API_URL", "http://localhost:8080"),
		APIKey:          os.Getenv("SKYLOG_API_KEY"),
		FlushInterval:   envDuration("SKYLOG_FLUSH_INTERVAL", 5*time.Second),
		BatchSize:       envInt("SKYLOG_BATCH_SIZE", 10),
		MaxBufferSize:   envInt("SKYLOG_MAX_BUFFER", 1000),
		MonitorInterval: envDuration("SKYLOG_MONITOR_INTERVAL", 15*time.Second),
		ExcludePattern:  os.Getenv("SKYLOG_EXCLUDE"),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
