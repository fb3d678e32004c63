package converter

import "time"

// Report summarizes the result of a single Execute run.
type Report struct {
	Summary ReportSummary `json:"summary" yaml:"summary" toml:"summary"`
	Tiles   []TileResult  `json:"tiles" yaml:"tiles" toml:"tiles"`
	Skipped []SkippedInfo `json:"skipped" yaml:"skipped" toml:"skipped"`
	Errors  []ErrorInfo   `json:"errors" yaml:"errors" toml:"errors"`
}

// ReportSummary contains aggregated statistics for a run.
// Attempted equals Queued unless the run was cancelled.
type ReportSummary struct {
	Mode            Mode      `json:"mode" yaml:"mode" toml:"mode"`
	Root            string    `json:"root" yaml:"root" toml:"root"`
	ConfigFilePath  string    `json:"configFilePath,omitempty" yaml:"configFilePath,omitempty" toml:"configFilePath,omitempty"`
	Queued          int       `json:"queued" yaml:"queued" toml:"queued"`
	Attempted       int       `json:"attempted" yaml:"attempted" toml:"attempted"`
	Succeeded       int       `json:"succeeded" yaml:"succeeded" toml:"succeeded"`
	Failed          int       `json:"failed" yaml:"failed" toml:"failed"`
	SkippedCount    int       `json:"skippedCount" yaml:"skippedCount" toml:"skippedCount"`
	Workers         int       `json:"workers" yaml:"workers" toml:"workers"`
	DryRun          bool      `json:"dryRun" yaml:"dryRun" toml:"dryRun"`
	Cancelled       bool      `json:"cancelled" yaml:"cancelled" toml:"cancelled"`
	DurationSeconds float64   `json:"durationSeconds" yaml:"durationSeconds" toml:"durationSeconds"`
	Timestamp       time.Time `json:"timestamp" yaml:"timestamp" toml:"timestamp"`
	SchemaVersion   string    `json:"schemaVersion,omitempty" yaml:"schemaVersion,omitempty" toml:"schemaVersion,omitempty"`
}

// TileResult details one job. Queued-but-unrun jobs of a dry run carry StatusPending.
type TileResult struct {
	Path       string `json:"path" yaml:"path" toml:"path"`
	Action     Action `json:"action" yaml:"action" toml:"action"`
	Status     Status `json:"status" yaml:"status" toml:"status"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty" toml:"error,omitempty"`
	DurationMs int64  `json:"durationMs" yaml:"durationMs" toml:"durationMs"`
	WorkerID   int    `json:"workerId" yaml:"workerId" toml:"workerId"`
}

// SkippedInfo details a candidate tile that was not queued.
type SkippedInfo struct {
	Path    string `json:"path" yaml:"path" toml:"path"`
	Reason  string `json:"reason" yaml:"reason" toml:"reason"`
	Details string `json:"details,omitempty" yaml:"details,omitempty" toml:"details,omitempty"`
}

// ErrorInfo details a failed tile job. Per-tile errors never stop the run.
type ErrorInfo struct {
	Path  string `json:"path" yaml:"path" toml:"path"`
	Error string `json:"error" yaml:"error" toml:"error"`
}
