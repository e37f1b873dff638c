package document

import "strings"

// Status represents the lifecycle of a document record.
type Status string

const (
	StatusReady      Status = "ready"
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
	StatusCancelled  Status = "cancelled"
)

var allStatuses = []Status{
	StatusReady,
	StatusQueued,
	StatusProcessing,
	StatusCompleted,
	StatusError,
	StatusCancelled,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// terminalStatuses end one processing attempt. They are not terminal for the
// record itself: reset and reprocess re-enter the machine.
var terminalStatuses = map[Status]struct{}{
	StatusCompleted: {},
	StatusError:     {},
	StatusCancelled: {},
}

var legalTransitions = map[Status][]Status{
	StatusReady:      {StatusQueued},
	StatusQueued:     {StatusProcessing, StatusError},
	StatusProcessing: {StatusCompleted, StatusError, StatusCancelled},
	StatusCompleted:  {StatusReady, StatusQueued},
	StatusError:      {StatusReady, StatusQueued},
	StatusCancelled:  {StatusReady, StatusQueued},
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

// IsTerminal reports whether a status ends a processing attempt.
func IsTerminal(status Status) bool {
	_, ok := terminalStatuses[status]
	return ok
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to Status) bool {
	for _, candidate := range legalTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}
