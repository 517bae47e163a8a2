package memory

import (
	"context"
	"time"

	"github.com/Hackr0212/Noir-chroma/core"
)

// Record is one stored conversational turn. Records are immutable after
// creation and are removed only by a bulk Clear.
type Record struct {
	// ID is generated at write time and never changes.
	ID string

	// Text is the verbatim message content.
	Text string

	// Role is the turn's origin, fixed at creation.
	Role core.Role

	// Embedding is produced by the Embedder at write time and cached with
	// the record; it is never recomputed.
	Embedding []float32

	CreatedAt time.Time
}

// Match couples a retrieved record with its cosine distance to the query
// embedding. Lower distance means more similar.
type Match struct {
	Record   Record
	Distance float32
}

// Stats summarizes the store contents by role.
type Stats struct {
	Total     int
	User      int
	Assistant int
}

// Embedder converts text to a fixed-length vector. Implementations must be
// deterministic (repeated calls on the same text yield the same vector),
// side-effect free, and safe for concurrent use.
//
// Implementations: mock.Embedder (testing), onnx.Embedder (local,
// all-MiniLM-L6-v2), Voyage or similar API embedders (production).
type Embedder interface {
	// Embed converts a single text to an embedding vector.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int
}

// Store is the vector storage backend. Implementations must persist across
// process restarts when configured to, and must allow queries to proceed
// concurrently with an in-flight insert. A query racing a concurrent insert
// may miss that insert; read-your-writes only holds for sequential use.
type Store interface {
	// Insert saves a record. The record must have its embedding set.
	Insert(ctx context.Context, rec Record) error

	// Search returns up to k matches ordered by ascending distance.
	// An empty role searches both roles. Searching an empty store returns
	// an empty result, not an error.
	Search(ctx context.Context, embedding []float32, k int, role core.Role) ([]Match, error)

	// Count returns the number of stored records, restricted to role when
	// one is given.
	Count(ctx context.Context, role core.Role) (int, error)

	// Clear atomically empties the store. A subsequent Search or Count
	// observes an empty store.
	Clear(ctx context.Context) error

	// Close releases resources.
	Close() error
}
