package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port             string
	DatabaseURL      string
	RedisURL         string
	FREDAPIKey       string
	APIKey           string
	TelegramBotToken string
	SnapshotPollSecs int

	SSHHost            string
	SSHPort            string
	SSHHostKeyPath     string
	SSHAllowedKeys     []string
	SSHIdleTimeoutSecs int
}

func Load() *Config {
	cfg := &Config{
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		FREDAPIKey:       os.Getenv("FRED_API_KEY"),
		APIKey:           os.Getenv("API_KEY"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
	}

	cfg.Port = strings.TrimSpace(os.Getenv("PORT"))
	if cfg.Port == "" {
		cfg.Port = "8080"
	}

	if cfg.DatabaseURL == "" {
		log.Println("Warning: DATABASE_URL not set, live snapshots will not be persisted")
	}
	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}
	if cfg.FREDAPIKey == "" {
		log.Println("Warning: FRED_API_KEY not set, live aggregation will degrade to metals and crypto")
	}
	if cfg.APIKey == "" {
		log.Println("Warning: API_KEY not set, live rebuild endpoint is disabled")
	}
	if cfg.TelegramBotToken == "" {
		log.Println("Warning: TELEGRAM_BOT_TOKEN not set")
	}

	cfg.SnapshotPollSecs = 21600
	if v := strings.TrimSpace(os.Getenv("SNAPSHOT_POLL_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SnapshotPollSecs = n
		}
	}

	cfg.SSHHost = strings.TrimSpace(os.Getenv("SSH_HOST"))
	if cfg.SSHHost == "" {
		cfg.SSHHost = "0.0.0.0"
	}

	cfg.SSHPort = strings.TrimSpace(os.Getenv("SSH_PORT"))
	if cfg.SSHPort == "" {
		cfg.SSHPort = "2222"
	}

	cfg.SSHHostKeyPath = strings.TrimSpace(os.Getenv("SSH_HOST_KEY_PATH"))
	if cfg.SSHHostKeyPath == "" {
		cfg.SSHHostKeyPath = ".ssh/metior_host_key"
	}

	if v := strings.TrimSpace(os.Getenv("SSH_ALLOWED_KEYS")); v != "" {
		for _, fp := range strings.Split(v, ",") {
			fp = strings.TrimSpace(fp)
			if fp != "" {
				cfg.SSHAllowedKeys = append(cfg.SSHAllowedKeys, fp)
			}
		}
	}

	cfg.SSHIdleTimeoutSecs = 600
	if v := strings.TrimSpace(os.Getenv("SSH_IDLE_TIMEOUT_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SSHIdleTimeoutSecs = n
		}
	}

	return cfg
}
