package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultDBLocation      = "db.sqlite"
	DefaultIntervalMinutes = 5
)

type Config struct {
	DBLocation string
	HTTPAddr   string
	Verbose    bool
	Offline    bool
	GitHub     *GitHubConfig
	Sync       *SyncConfig
}

// Load reads the configuration from the environment. Command-line flags are
// layered on top by the caller.
func Load() (*Config, error) {
	gh := DefaultGitHubConfig()
	gh.Token = getEnv("GITHUB_TOKEN", "")
	gh.APIBaseURL = getEnv("GITHUB_API_URL", gh.APIBaseURL)

	timeout, err := strconv.Atoi(getEnv("FETCH_TIMEOUT_SECONDS", strconv.Itoa(int(gh.Timeout/time.Second))))
	if err != nil {
		return nil, err
	}
	gh.Timeout = time.Duration(timeout) * time.Second

	sync := DefaultSyncConfig()
	sync.Interval = ParseInterval(getEnv("SYNC_INTERVAL_MINUTES", ""))

	return &Config{
		DBLocation: getEnv("TRENDING_DB", DefaultDBLocation),
		HTTPAddr:   getEnv("TRENDING_HTTP_ADDR", ""),
		Verbose:    getBool("TRENDING_VERBOSE"),
		Offline:    getBool("TRENDING_OFFLINE"),
		GitHub:     gh,
		Sync:       sync,
	}, nil
}

// ParseInterval converts a minutes value into a duration. Anything that is
// not a positive integer falls back to the default interval.
func ParseInterval(minutes string) time.Duration {
	n, err := strconv.Atoi(strings.TrimSpace(minutes))
	if err != nil || n <= 0 {
		n = DefaultIntervalMinutes
	}
	return time.Duration(n) * time.Minute
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}
