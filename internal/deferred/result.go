package deferred

import "time"

// Status is the outcome of one invocation
type Status string

const (
	StatusNothingToDo Status = "nothing_to_do" // Target absent at start; no wait
	StatusDeleted     Status = "deleted"       // Target removed
	StatusIgnored     Status = "ignored"       // Removal failed; error swallowed
	StatusSkipped     Status = "skipped"       // Neither file nor directory when the wait ended
	StatusAborted     Status = "aborted"       // Wait interrupted; target left in place
)

// Statuses lists every Status in a stable order
var Statuses = []Status{StatusNothingToDo, StatusDeleted, StatusIgnored, StatusSkipped, StatusAborted}

// Object types recorded on a Result
const (
	ObjectFile      = "file"
	ObjectDirectory = "directory"
	ObjectSymlink   = "symlink" // Link to a directory; never followed for removal
	ObjectOther     = "other"
	ObjectMissing   = "missing"
)

// Result is the typed ignore-and-continue outcome of Execute.
// Err carries the swallowed deletion error for StatusIgnored and is never
// turned into a failing exit code.
type Result struct {
	RunID          string
	Target         string
	Delay          time.Duration
	DelayDefaulted bool
	Status         Status
	ObjectType     string
	Size           int64 // Bytes under the target before removal; 0 unless measured
	Err            error
	StartedAt      time.Time
	FinishedAt     time.Time
}

// ErrorMessage returns Err as text, or "" when nil
func (r Result) ErrorMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}
