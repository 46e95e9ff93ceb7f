package monitoring

// Command status labels. Failed commands use the lower-cased error kind.
const (
	StatusOK = "ok"

	unmatchedRoute = "unmatched"
)
