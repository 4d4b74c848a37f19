package app

import (
	"time"

	"github.com/mindforge-ai/mindforge-backend/internal/platform/envutil"
	"github.com/mindforge-ai/mindforge-backend/internal/platform/logger"
)

type Config struct {
	Port        string
	ServiceName string
	Environment string
	Version     string

	// StatusValidationDisabled turns off the transition table and lets any
	// known status be written, matching systems that treat status as a
	// free-form column.
	StatusValidationDisabled bool

	SweepInterval time.Duration
	SweepDisabled bool
}

func LoadConfig(log *logger.Logger) Config {
	sweepSeconds := envutil.GetEnvAsInt("BLOB_SWEEP_INTERVAL_SECONDS", 60, log)
	return Config{
		Port:                     envutil.GetEnv("PORT", "8080", log),
		ServiceName:              envutil.GetEnv("SERVICE_NAME", "mindforge-knowledge", log),
		Environment:              envutil.GetEnv("ENVIRONMENT", "development", log),
		Version:                  envutil.GetEnv("SERVICE_VERSION", "dev", log),
		StatusValidationDisabled: envutil.GetEnvAsBool("STATUS_VALIDATION_DISABLED", false, log),
		SweepInterval:            time.Duration(sweepSeconds) * time.Second,
		SweepDisabled:            envutil.GetEnvAsBool("BLOB_SWEEP_DISABLED", false, log),
	}
}
