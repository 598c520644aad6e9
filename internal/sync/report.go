package sync

import "time"

// Phase is where a running pass currently is. The UI polls it to show
// progress; it is informational only.
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseFetching    Phase = "fetching"
	PhaseClassifying Phase = "classifying"
	PhaseExecuting   Phase = "executing"
	PhaseReporting   Phase = "reporting"
)

// Report is the outcome of one sync pass. Every queued mutation lands in
// exactly one of the four counters.
type Report struct {
	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"duration"`
	// Succeeded moves and scans the server confirmed.
	Succeeded int `json:"succeeded"`
	// Recovered moves the server answered 404 for: the source was already
	// empty, so the move had happened and only the confirmation was lost.
	Recovered int `json:"recovered"`
	// Skipped mutations dropped because their lot left the warehouse.
	Skipped int `json:"skipped"`
	// Failed mutations stay queued for the next pass.
	Failed   int       `json:"failed"`
	Failures []Failure `json:"failures,omitempty"`
}

// Resolved counts every mutation that left the queue in this pass.
func (r *Report) Resolved() int {
	return r.Succeeded + r.Recovered + r.Skipped
}

// Failure explains one mutation that stayed queued.
type Failure struct {
	MutationID string `json:"mutationId"`
	LotCode    string `json:"lotCode"`
	Reason     string `json:"reason"`
}
