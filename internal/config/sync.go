package config

import "time"

// SyncConfig holds synchronization configuration
type SyncConfig struct {
	Interval     time.Duration
	MaxSnapshots int
}

// DefaultSyncConfig returns the default sync configuration
func DefaultSyncConfig() *SyncConfig {
	return &SyncConfig{
		Interval:     DefaultIntervalMinutes * time.Minute,
		MaxSnapshots: 30,
	}
}
