package mirror

import (
	"time"

	"github.com/carlosatFroom/learning-system/internal/replicate"
)

// Status is the terminal state of a run.
type Status string

const (
	StatusSuccess Status = "success"
	StatusSkipped Status = "skipped"
	StatusError   Status = "error"
)

// MessageBusy is reported when another run holds the remote target.
const MessageBusy = "sync already in progress"

// Report is the outcome of Run. Details is set only on success and is keyed
// by entity name; Message is set otherwise.
type Report struct {
	RunID      string                      `json:"run_id"`
	Status     Status                      `json:"status"`
	Message    string                      `json:"message,omitempty"`
	Details    map[string]replicate.Result `json:"details,omitempty"`
	StartedAt  time.Time                   `json:"started_at"`
	FinishedAt time.Time                   `json:"finished_at"`
}

// Totals sums the per-entity results.
func (r Report) Totals() replicate.Result {
	var total replicate.Result
	for _, res := range r.Details {
		total.Add(res)
	}
	return total
}

// StatusReport answers "may a sync run now, and when did the last one finish".
type StatusReport struct {
	LastSync         *time.Time `json:"last_sync"`
	RemoteConfigured bool       `json:"remote_configured"`
	CanSync          bool       `json:"can_sync"`
	Message          string     `json:"message"`
}
