package knowledge

import "time"

// Document is one embedded passage from the article corpus.
type Document struct {
	ID        string    // Unique identifier
	Content   string    // Passage text
	Source    string    // Originating reference (markdown filename), may be empty
	CreatedAt time.Time // Creation timestamp
}

// Result is a single search result with its relevance score.
type Result struct {
	Document Document
	// Similarity is cosine similarity in [0, 1]; higher is more relevant.
	Similarity float64
}
