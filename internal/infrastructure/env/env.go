package env

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"qutebrowser-agent/internal/application/port/output"

	"github.com/joho/godotenv"
)

var _ output.ConfigPort = (*EnvService)(nil)

type EnvService struct{}

func NewEnvService() *EnvService {
	appEnv := os.Getenv("APP_ENV")
	if appEnv == "" {
		appEnv = "dev"
	}

	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Info: no .env file with secrets found (this is OK for CI/CD)")
	}

	envFile := fmt.Sprintf(".env.%s", appEnv)
	if err := godotenv.Overload(envFile); err != nil {
		log.Printf("Warning: could not load %s: %v", envFile, err)
	}

	log.Printf("Environment loaded: APP_ENV=%s", appEnv)

	return &EnvService{}
}

func (e *EnvService) Get(key string) string {
	return os.Getenv(key)
}

func (e *EnvService) Lookup(key string) (string, bool) {
	return os.LookupEnv(key)
}

func (e *EnvService) GetWithDefault(key string, defaultValue string) string {
	val, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	return val
}

func (e *EnvService) GetBool(key string, defaultValue bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return defaultValue, fmt.Errorf("%s: invalid boolean %q", key, val)
	}
	return parsed, nil
}

func (e *EnvService) GetInt(key string, defaultValue int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue, fmt.Errorf("%s: invalid integer %q", key, val)
	}
	return parsed, nil
}

// GetDuration accepts Go duration strings ("3s") and bare integers, which
// are read as milliseconds.
func (e *EnvService) GetDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue, nil
	}
	if ms, err := strconv.Atoi(val); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		return defaultValue, fmt.Errorf("%s: invalid duration %q", key, val)
	}
	return parsed, nil
}
