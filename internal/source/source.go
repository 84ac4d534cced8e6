// Package source implements durable source records and the multi-stage
// resolver that maps retrieval references to them.
//
// A Source is a deduplicated article record (title + canonical URL) keyed by
// its markdown filename. Resolution tries a durable lookup first and falls
// back to the in-memory catalog index, upserting on a catalog hit. Sources
// are never deleted by the pipeline.
package source

import "time"

// Source is a durable, deduplicated article record.
// Filename and URL are each globally unique.
type Source struct {
	ID        int64
	Title     string
	URL       string
	Filename  string // markdown filename, the deduplication key
	CreatedAt time.Time
}

// Payload is the display form of a resolved source returned to clients.
type Payload struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Metadata is one catalog entry: title and URL keyed by markdown filename.
type Metadata struct {
	Title string
	URL   string
}
