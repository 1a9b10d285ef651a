package config

import (
	"os"
	"time"
)

type LockConfig struct {
	KeyPrefix    string
	WaitTimeout  time.Duration
	LeaseTimeout time.Duration
	SpinInterval time.Duration
}

func LoadLockConfig() *LockConfig {
	return &LockConfig{
		KeyPrefix:    getEnv("LOCK_KEY_PREFIX", "ACLK"),
		WaitTimeout:  getEnvAsDuration("LOCK_WAIT_TIMEOUT", 1*time.Second),
		LeaseTimeout: getEnvAsDuration("LOCK_LEASE_TIMEOUT", 15*time.Second),
		SpinInterval: getEnvAsDuration("LOCK_SPIN_INTERVAL", 100*time.Millisecond),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}
