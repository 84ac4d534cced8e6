package prompt

import (
	"time"

	"github.com/lunbi/lunbi/internal/assistant"
)

// Record is the durable audit row for one pipeline invocation. It is created
// exactly once, after the answer and source are resolved, and never mutated.
type Record struct {
	ID        int64            `json:"id"`
	Query     string           `json:"query"`
	Answer    *string          `json:"answer,omitempty"`
	Status    assistant.Status `json:"status"`
	SourceID  *int64           `json:"source_id,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}
