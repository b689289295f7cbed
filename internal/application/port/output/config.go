package output

import "time"

// ConfigPort reads settings. The typed getters return defaultValue when the
// key is unset or empty, and an error when the value cannot be parsed.
type ConfigPort interface {
	Get(key string) string
	Lookup(key string) (string, bool)
	GetWithDefault(key string, defaultValue string) string
	GetBool(key string, defaultValue bool) (bool, error)
	GetInt(key string, defaultValue int) (int, error)
	GetDuration(key string, defaultValue time.Duration) (time.Duration, error)
}
