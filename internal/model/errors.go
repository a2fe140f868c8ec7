package model

import "github.com/rotisserie/eris"

// Pipeline error taxonomy. Fatal errors abort the run; oracle errors are
// recorded on the run report and the pipeline completes with whatever the
// local phases resolved. Check with errors.Is.
var (
	// ErrSourceNotFound means a raw input file is missing or unreadable. Fatal.
	ErrSourceNotFound = eris.New("source not found")

	// ErrSchema means a required column is absent after header normalization. Fatal.
	ErrSchema = eris.New("schema error")

	// ErrOracleUnavailable means the oracle could not be reached or timed out.
	ErrOracleUnavailable = eris.New("oracle unavailable")

	// ErrOracleMalformed means the oracle reply could not be parsed back
	// into the submitted schema.
	ErrOracleMalformed = eris.New("oracle response malformed")

	// ErrOracleValidation means the oracle reply parsed but violated the
	// batch contract (entity set mismatch, duplicate rows). The whole batch
	// is discarded.
	ErrOracleValidation = eris.New("oracle response failed validation")

	// ErrPersistence means the corrected output could not be written. Fatal.
	ErrPersistence = eris.New("persistence error")
)
