package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// SyncReport summarises one fetch-reconcile-prune cycle
type SyncReport struct {
	Fetched   int       `json:"fetched"`
	Inserted  int       `json:"inserted"`
	Updated   int       `json:"updated"`
	Unchanged int       `json:"unchanged"`
	Failed    int       `json:"failed"`
	Pruned    int64     `json:"pruned"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// Duration returns how long the cycle took
func (r *SyncReport) Duration() time.Duration {
	if r.EndTime.IsZero() {
		return 0
	}
	return r.EndTime.Sub(r.StartTime)
}

// String returns the JSON string representation of the report
func (r *SyncReport) String() string {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Sprintf(`{"error":"failed to marshal sync report: %v"}`, err)
	}
	return string(data)
}
