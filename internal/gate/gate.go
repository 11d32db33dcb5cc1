// Package gate decides whether a sync run may start.
package gate

import (
	"fmt"
	"time"
)

// DefaultCooldown is the minimum time between two unforced syncs.
const DefaultCooldown = 6 * time.Hour

// Reasons reported by Evaluate for the fixed outcomes.
const (
	ReasonNotConfigured     = "no remote configured"
	ReasonForced            = "forced"
	ReasonNeverSynced       = "never synced"
	ReasonCooldownElapsed   = "cooldown elapsed"
	reasonUnreachablePrefix = "remote unreachable: "
)

// Input is everything a decision depends on.
type Input struct {
	RemoteConfigured bool

	// Probe checks remote liveness. It is only called when the remote is
	// configured. A nil Probe counts as reachable.
	Probe func() error

	// LastSync is the time of the last successful sync; zero means never.
	LastSync time.Time

	Force bool

	// Now is the evaluation time; zero means time.Now().
	Now time.Time

	// Cooldown defaults to DefaultCooldown when zero.
	Cooldown time.Duration
}

// Decision is the outcome of Evaluate.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason"`
}

// Evaluate applies the rules in strict order: configuration, reachability,
// force, first sync, cooldown. Force only bypasses the cooldown.
func Evaluate(in Input) Decision {
	if !in.RemoteConfigured {
		return Decision{Reason: ReasonNotConfigured}
	}

	if in.Probe != nil {
		if err := in.Probe(); err != nil {
			return Decision{Reason: reasonUnreachablePrefix + err.Error()}
		}
	}

	if in.Force {
		return Decision{Allowed: true, Reason: ReasonForced}
	}

	if in.LastSync.IsZero() {
		return Decision{Allowed: true, Reason: ReasonNeverSynced}
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}
	cooldown := in.Cooldown
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}

	if elapsed := now.Sub(in.LastSync); elapsed < cooldown {
		wait := (cooldown - elapsed).Round(time.Second)
		return Decision{Reason: fmt.Sprintf("last sync at %s was less than %s ago; next sync allowed in %s",
			in.LastSync.UTC().Format(time.RFC3339), formatDuration(cooldown), wait)}
	}

	return Decision{Allowed: true, Reason: ReasonCooldownElapsed}
}

func formatDuration(d time.Duration) string {
	if d%time.Hour == 0 {
		return fmt.Sprintf("%dh", int(d/time.Hour))
	}
	return d.String()
}
