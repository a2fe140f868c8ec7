package model

import "time"

// RunReport summarizes a single reconciliation run for one dataset. It
// distinguishes "completed with unresolved entities remaining" from "did not
// run": fatal errors surface as a returned error, everything here describes
// a run that persisted output.
type RunReport struct {
	RunID      string        `json:"run_id"`
	Dataset    string        `json:"dataset"`
	EntityType string        `json:"entity_type"`
	OutputPath string        `json:"output_path"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`

	// Stage accounting.
	TotalRows       int    `json:"total_rows"`
	DroppedCounts   int    `json:"dropped_count_rows"`
	DroppedLookups  int    `json:"dropped_lookup_rows"`
	MatchedOnMerge  int    `json:"matched_on_merge"`
	ResolvedXref    int    `json:"resolved_xref"`
	ResolvedCache   int    `json:"resolved_cache"`
	ResolvedOracle  int    `json:"resolved_oracle"`
	Unresolved      int    `json:"unresolved"`
	OracleFailures  int    `json:"oracle_failures"`
	OracleLastError string `json:"oracle_last_error,omitempty"`
}

// Resolved is the total number of rows carrying a real country code in the
// persisted output.
func (r *RunReport) Resolved() int {
	return r.TotalRows - r.Unresolved
}
