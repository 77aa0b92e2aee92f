package domain

import "strings"

// RunStatus is the lifecycle state of an analysis run.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

var runStatusLabels = map[RunStatus]string{
	RunStatusPending:   "Pending",
	RunStatusRunning:   "Running",
	RunStatusCompleted: "Completed",
	RunStatusFailed:    "Failed",
}

// Label returns a human-readable label for the status.
func (s RunStatus) Label() string {
	if label, ok := runStatusLabels[s]; ok {
		return label
	}

	return "Unknown"
}

// ParseRunStatus returns the status for a given label (case-insensitive).
func ParseRunStatus(label string) (RunStatus, bool) {
	status := RunStatus(strings.ToLower(strings.TrimSpace(label)))
	_, ok := runStatusLabels[status]

	return status, ok
}
