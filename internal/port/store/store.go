// Package store defines the screening history store port.
package store

import "github.com/shadegov/sentinel/internal/domain/proposal"

// Totals summarizes stored screening and execution state for status reporting.
type Totals struct {
	Screened  int `json:"screened"`
	Approved  int `json:"approved"`
	Rejected  int `json:"rejected"`
	Succeeded int `json:"executions_succeeded"`
	Failed    int `json:"executions_failed"`
	Pending   int `json:"executions_pending"`
}

// Store holds screening results and execution statuses keyed by proposal id.
// Screening and execution state live in separate maps so execution history
// survives re-screening. Implementations must be safe for concurrent use.
type Store interface {
	SaveResult(res proposal.ScreeningResult)
	Result(id string) (proposal.ScreeningResult, bool)
	Results() []proposal.ScreeningResult

	SaveExecution(st proposal.ExecutionStatus)
	Execution(id string) (proposal.ExecutionStatus, bool)

	Totals() Totals
	Clear()
}
