// Package chromem persists conversation records in chromem-go, a pure Go
// embedded vector database with cosine similarity search.
package chromem

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	chromem "github.com/philippgille/chromem-go"

	"github.com/Hackr0212/Noir-chroma/core"
	"github.com/Hackr0212/Noir-chroma/memory"
)

// Records are split into one collection per role. Role-filtered search and
// count become structural instead of metadata filters, and both survive a
// restart of a persistent database.
const collectionPrefix = "chat_memory"

var roles = []core.Role{core.RoleUser, core.RoleAssistant}

// Config configures the store.
type Config struct {
	// PersistPath is the directory for the on-disk database. Records
	// written there survive process restarts. Empty keeps everything in
	// memory, which is what tests want.
	PersistPath string

	// Compress gzips persisted documents.
	Compress bool
}

// Store implements memory.Store on top of chromem-go.
//
// Searches take a read lock so queries proceed concurrently with an
// in-flight insert; only Clear is exclusive.
type Store struct {
	db          *chromem.DB
	mu          sync.RWMutex
	collections map[core.Role]*chromem.Collection
}

// New opens (or creates) the store.
func New(cfg Config) (*Store, error) {
	var db *chromem.DB
	if cfg.PersistPath != "" {
		var err error
		db, err = chromem.NewPersistentDB(cfg.PersistPath, cfg.Compress)
		if err != nil {
			return nil, fmt.Errorf("open persistent db: %w", err)
		}
	} else {
		db = chromem.NewDB()
	}

	s := &Store{
		db:          db,
		collections: make(map[core.Role]*chromem.Collection, len(roles)),
	}
	for _, role := range roles {
		col, err := db.GetOrCreateCollection(collectionName(role), nil, nil)
		if err != nil {
			return nil, fmt.Errorf("create collection %q: %w", collectionName(role), err)
		}
		s.collections[role] = col
	}
	return s, nil
}

func collectionName(role core.Role) string {
	return collectionPrefix + "_" + string(role)
}

// Insert saves a record into its role's collection.
func (s *Store) Insert(ctx context.Context, rec memory.Record) error {
	if err := rec.Role.Validate(); err != nil {
		return err
	}

	s.mu.RLock()
	col := s.collections[rec.Role]
	s.mu.RUnlock()

	doc := chromem.Document{
		ID:        rec.ID,
		Content:   rec.Text,
		Embedding: rec.Embedding,
		Metadata: map[string]string{
			"role":       string(rec.Role),
			"created_at": rec.CreatedAt.Format(time.RFC3339Nano),
		},
	}

	if err := col.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("add document: %w", err)
	}

	log.Printf("[CHROMEM] Stored record id=%s role=%s", rec.ID, rec.Role)
	return nil
}

// Search returns up to k matches ordered by ascending cosine distance.
// An empty role searches both collections and merges the results.
func (s *Store) Search(ctx context.Context, embedding []float32, k int, role core.Role) ([]memory.Match, error) {
	if k <= 0 {
		return nil, nil
	}

	searchRoles := roles
	if role != "" {
		if err := role.Validate(); err != nil {
			return nil, err
		}
		searchRoles = []core.Role{role}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []memory.Match
	for _, r := range searchRoles {
		col := s.collections[r]

		// chromem rejects nResults larger than the collection.
		n := col.Count()
		if n == 0 {
			continue
		}
		limit := k
		if limit > n {
			limit = n
		}

		results, err := col.QueryEmbedding(ctx, embedding, limit, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("query collection %q: %w", collectionName(r), err)
		}

		for _, result := range results {
			matches = append(matches, resultToMatch(result, r))
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// Count returns the number of stored records, restricted to role when one
// is given.
func (s *Store) Count(ctx context.Context, role core.Role) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if role != "" {
		if err := role.Validate(); err != nil {
			return 0, err
		}
		return s.collections[role].Count(), nil
	}

	total := 0
	for _, r := range roles {
		total += s.collections[r].Count()
	}
	return total, nil
}

// Clear drops and recreates both collections. With a persistent database
// this also removes the on-disk documents.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range roles {
		name := collectionName(r)
		if err := s.db.DeleteCollection(name); err != nil {
			return fmt.Errorf("delete collection %q: %w", name, err)
		}
		col, err := s.db.GetOrCreateCollection(name, nil, nil)
		if err != nil {
			return fmt.Errorf("recreate collection %q: %w", name, err)
		}
		s.collections[r] = col
	}

	log.Printf("[CHROMEM] Cleared all collections")
	return nil
}

// Close releases resources. chromem persists writes as they happen, so
// there is nothing to flush.
func (s *Store) Close() error {
	return nil
}

func resultToMatch(result chromem.Result, role core.Role) memory.Match {
	createdAt, _ := time.Parse(time.RFC3339Nano, result.Metadata["created_at"])
	return memory.Match{
		Record: memory.Record{
			ID:        result.ID,
			Text:      result.Content,
			Role:      role,
			Embedding: result.Embedding,
			CreatedAt: createdAt,
		},
		// chromem reports cosine similarity; the engine ranks by distance.
		Distance: 1 - result.Similarity,
	}
}
