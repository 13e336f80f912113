package catalog

import (
	"strings"
	"time"

	"reelforge/internal/stage"
)

// Status represents the lifecycle of a catalogued entity.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusFailed    Status = "failed"
	StatusCompleted Status = "completed"
)

var allStatuses = []Status{
	StatusPending,
	StatusRunning,
	StatusFailed,
	StatusCompleted,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// InterruptedReason is recorded when a running entry is found at startup
// without a live run.
const InterruptedReason = "run interrupted"

// Entry mirrors one content entity.
type Entry struct {
	ID           int64
	Dir          string
	Kind         string
	Stage        stage.Name
	Status       Status
	Languages    []string
	ErrorMessage string
	ErrorKind    string
	Attempts     int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HealthSummary describes aggregated counts per lifecycle state.
type HealthSummary struct {
	Total     int
	Pending   int
	Running   int
	Failed    int
	Completed int
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// StatusForStage derives the resting status of an entity at current.
func StatusForStage(current stage.Name, table stage.Table) Status {
	if current == table.Last() {
		return StatusCompleted
	}
	return StatusPending
}

// Runnable reports whether a batch run should pick the entry up.
func (e Entry) Runnable() bool {
	return e.Status == StatusPending || e.Status == StatusFailed
}
