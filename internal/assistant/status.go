package assistant

import "github.com/lunbi/lunbi/internal/log"

// Status is the terminal outcome of one pipeline invocation. Each invocation
// computes exactly one status; there are no transitions.
type Status string

const (
	// StatusSuccess means an answer was generated (or the example list served).
	StatusSuccess Status = "success"

	// StatusOutOfContext means the relevance gate rejected the query.
	StatusOutOfContext Status = "outofcontext"

	// StatusFailed means generation failed and the fixed apology was returned.
	StatusFailed Status = "failed"
)

// ParseStatus normalizes a raw status value. Unrecognized values are coerced
// to StatusSuccess with a logged warning.
func ParseStatus(raw string, logger log.Logger) Status {
	switch Status(raw) {
	case StatusSuccess, StatusOutOfContext, StatusFailed:
		return Status(raw)
	}
	if logger != nil {
		logger.Warn("unknown prompt status, coercing to success", "status", raw)
	}
	return StatusSuccess
}
