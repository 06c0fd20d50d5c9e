// Package envconfig reads jaeger settings from JAEGER_* environment variables.
package envconfig

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// LogLevel returns the log level.
// Configurable via JAEGER_DEBUG: a boolean, or an integer verbosity where each
// step lowers the level by 4 (2 enables trace-style output below debug).
func LogLevel() slog.Level {
	level := slog.LevelInfo
	if s := Var("JAEGER_DEBUG"); s != "" {
		if b, _ := strconv.ParseBool(s); b {
			level = slog.LevelDebug
		} else if i, _ := strconv.ParseInt(s, 10, 64); i != 0 {
			level = slog.Level(i * -4)
		}
	}
	return level
}

// NumThreads returns the number of CPU workers for tensor kernels.
// Configurable via JAEGER_NUM_THREADS. Default: GOMAXPROCS.
func NumThreads() int {
	return int(Uint("JAEGER_NUM_THREADS", uint(runtime.GOMAXPROCS(0)))())
}

// Seed returns the seed used for weight initialization and synthetic inputs.
// Configurable via JAEGER_SEED. Default: 0.
func Seed() int64 {
	if s := Var("JAEGER_SEED"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err == nil {
			return n
		}
		slog.Warn("invalid environment variable, using default", "key", "JAEGER_SEED", "value", s, "default", 0)
	}
	return 0
}

// Uint returns a getter for an unsigned integer variable with a default.
// Zero and malformed values fall back to the default.
func Uint(key string, defaultValue uint) func() uint {
	return func() uint {
		if s := Var(key); s != "" {
			if n, err := strconv.ParseUint(s, 10, 64); err != nil || n == 0 {
				slog.Warn("invalid environment variable, using default", "key", key, "value", s, "default", defaultValue)
			} else {
				return uint(n)
			}
		}
		return defaultValue
	}
}

// Var returns an environment variable stripped of surrounding whitespace and quotes.
func Var(key string) string {
	return strings.Trim(strings.TrimSpace(os.Getenv(key)), "\"'")
}

// EnvVar describes one supported variable.
type EnvVar struct {
	Name        string
	Value       any
	Description string
}

// AsMap returns every supported variable with its current value.
func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"JAEGER_DEBUG":       {"JAEGER_DEBUG", LogLevel(), "Show additional debug information (e.g. JAEGER_DEBUG=1)"},
		"JAEGER_NUM_THREADS": {"JAEGER_NUM_THREADS", NumThreads(), "Maximum number of CPU workers for tensor kernels"},
		"JAEGER_SEED":        {"JAEGER_SEED", Seed(), "Seed for weight initialization and synthetic inputs"},
	}
}

// Values returns every supported variable formatted as a string.
func Values() map[string]string {
	vals := make(map[string]string)
	for k, v := range AsMap() {
		vals[k] = fmt.Sprintf("%v", v.Value)
	}
	return vals
}
