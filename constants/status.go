package constants

// LoadStatus is the lifecycle status for rows in load_records.
type LoadStatus string

// Stable values (store these exact strings).
const (
	StatusActive    LoadStatus = "Active"    // default on ingest
	StatusCompleted LoadStatus = "Completed" // delivered and billed
	StatusDisputed  LoadStatus = "Disputed"  // rate under review
	StatusCancelled LoadStatus = "Cancelled" // load fell through
)

var allStatuses = []LoadStatus{
	StatusActive,
	StatusCompleted,
	StatusDisputed,
	StatusCancelled,
}

// ValidStatus reports whether s is one of the stable status strings.
func ValidStatus(s string) bool {
	for _, st := range allStatuses {
		if s == string(st) {
			return true
		}
	}
	return false
}

// StatusStrings returns the stable status values for validation messages.
func StatusStrings() []string {
	out := make([]string, len(allStatuses))
	for i, st := range allStatuses {
		out[i] = string(st)
	}
	return out
}
