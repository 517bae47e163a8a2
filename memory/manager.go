package memory

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/google/uuid"

	"github.com/Hackr0212/Noir-chroma/core"
)

// Manager is the memory engine: it turns raw conversational text into
// stored, searchable records and turns a new query into a ranked,
// role-filtered, deduplicated context block.
//
// Manager is constructed with an injected Store and Embedder so sessions
// can be isolated and tests can run deterministically. It holds no global
// state.
type Manager struct {
	store    Store
	embedder Embedder
	config   *Config
	cache    *ristretto.Cache // text -> embedding; sound because Embedder is deterministic
}

// Config tunes retrieval. The user/assistant split is a tunable, not a
// contract; the defaults mirror the assistant's original weighting.
type Config struct {
	// UserTopK is the retrieval budget for past user turns.
	// Default: 3
	UserTopK int

	// AssistantTopK is the retrieval budget for past assistant turns.
	// Default: 2
	AssistantTopK int

	// MaxDistance is the relevance threshold. Matches at or beyond this
	// cosine distance are discarded even if that leaves fewer than topK
	// results - precision over quantity.
	// Default: 1.0
	MaxDistance float32

	// CacheMaxCost bounds the embedding cache in bytes. Zero uses the
	// default; negative disables the cache.
	// Default: 16 MiB
	CacheMaxCost int64
}

// DefaultConfig returns the retrieval defaults.
var DefaultConfig = &Config{
	UserTopK:      3,
	AssistantTopK: 2,
	MaxDistance:   1.0,
	CacheMaxCost:  16 << 20,
}

// NewManager creates a memory engine over the given store and embedder.
// A nil config uses DefaultConfig.
func NewManager(store Store, embedder Embedder, config *Config) (*Manager, error) {
	if config == nil {
		config = DefaultConfig
	}
	cfg := *config
	if cfg.UserTopK == 0 {
		cfg.UserTopK = DefaultConfig.UserTopK
	}
	if cfg.AssistantTopK == 0 {
		cfg.AssistantTopK = DefaultConfig.AssistantTopK
	}
	if cfg.MaxDistance == 0 {
		cfg.MaxDistance = DefaultConfig.MaxDistance
	}
	if cfg.CacheMaxCost == 0 {
		cfg.CacheMaxCost = DefaultConfig.CacheMaxCost
	}

	m := &Manager{
		store:    store,
		embedder: embedder,
		config:   &cfg,
	}

	if cfg.CacheMaxCost > 0 {
		cache, err := ristretto.NewCache(&ristretto.Config{
			NumCounters: 1e4,
			MaxCost:     cfg.CacheMaxCost,
			BufferItems: 64,
		})
		if err != nil {
			return nil, fmt.Errorf("create embedding cache: %w", err)
		}
		m.cache = cache
	}

	return m, nil
}

// Add embeds text, assigns an identifier, and writes the record durably.
// Callers must treat a failure here as non-fatal to the conversation: the
// turn is reported, not silently dropped, and generation proceeds without
// the record.
func (m *Manager) Add(ctx context.Context, text string, role core.Role) (Record, error) {
	if err := role.Validate(); err != nil {
		return Record{}, err
	}

	embedding, err := m.embed(ctx, text)
	if err != nil {
		return Record{}, fmt.Errorf("embed message: %w", err)
	}

	rec := Record{
		ID:        uuid.NewString(),
		Text:      text,
		Role:      role,
		Embedding: embedding,
		CreatedAt: time.Now().UTC(),
	}

	if err := m.store.Insert(ctx, rec); err != nil {
		return Record{}, fmt.Errorf("store record: %w", err)
	}

	log.Printf("[MEMORY] Stored %s record %s (%d chars)", role, rec.ID[:8], len(text))
	return rec, nil
}

// Query embeds text and returns up to topK matches ordered by ascending
// distance, restricted to role when one is given. Matches at or beyond the
// relevance threshold are discarded. Querying an empty store returns an
// empty result, never an error; topK is clamped to the number of available
// records.
func (m *Manager) Query(ctx context.Context, text string, topK int, role core.Role) ([]Match, error) {
	if topK <= 0 {
		return nil, nil
	}
	if role != "" {
		if err := role.Validate(); err != nil {
			return nil, err
		}
	}

	count, err := m.store.Count(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}
	if count == 0 {
		return nil, nil
	}
	if topK > count {
		topK = count
	}

	embedding, err := m.embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	matches, err := m.store.Search(ctx, embedding, topK, role)
	if err != nil {
		return nil, fmt.Errorf("search store: %w", err)
	}

	relevant := matches[:0]
	for _, match := range matches {
		if match.Distance < m.config.MaxDistance {
			relevant = append(relevant, match)
		}
	}

	log.Printf("[MEMORY] Query matched %d/%d records (role=%q)", len(relevant), count, role)
	return relevant, nil
}

// RecallResult is the context block assembled for one turn. Degraded
// distinguishes "empty because a subsystem failed" from "empty because the
// store holds nothing relevant" so callers and tests can tell the two
// apart.
type RecallResult struct {
	// Context is the deduplicated context block, user memories first,
	// one memory per line. Empty when nothing relevant was found.
	Context string

	// User and Assistant hold the raw matches behind Context.
	User      []Match
	Assistant []Match

	// Degraded is true when embedding or store access failed for either
	// role. The turn should continue with whatever context remains.
	Degraded bool

	// Err carries the underlying failure(s) when Degraded.
	Err error
}

// Recall runs the role-split retrieval for a new user message: the top
// user-turn matches followed by the top assistant-turn matches, joined into
// one context block. Failures degrade to a smaller (possibly empty) block
// rather than propagating as errors.
func (m *Manager) Recall(ctx context.Context, query string) RecallResult {
	var res RecallResult

	userMatches, userErr := m.Query(ctx, query, m.config.UserTopK, core.RoleUser)
	if userErr != nil {
		log.Printf("[MEMORY] Recall of user turns failed: %v", userErr)
	}
	assistantMatches, assistantErr := m.Query(ctx, query, m.config.AssistantTopK, core.RoleAssistant)
	if assistantErr != nil {
		log.Printf("[MEMORY] Recall of assistant turns failed: %v", assistantErr)
	}

	res.User = userMatches
	res.Assistant = assistantMatches
	res.Degraded = userErr != nil || assistantErr != nil
	res.Err = errors.Join(userErr, assistantErr)

	seen := make(map[string]bool)
	var lines []string
	for _, match := range append(append([]Match{}, userMatches...), assistantMatches...) {
		if seen[match.Record.Text] {
			continue
		}
		seen[match.Record.Text] = true
		lines = append(lines, match.Record.Text)
	}
	res.Context = strings.Join(lines, "\n")

	return res
}

// Clear atomically empties the store.
func (m *Manager) Clear(ctx context.Context) error {
	if err := m.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear store: %w", err)
	}
	log.Printf("[MEMORY] Cleared")
	return nil
}

// Count returns the number of stored records, restricted to role when one
// is given.
func (m *Manager) Count(ctx context.Context, role core.Role) (int, error) {
	return m.store.Count(ctx, role)
}

// Stats reports store contents by role.
func (m *Manager) Stats(ctx context.Context) (Stats, error) {
	user, err := m.store.Count(ctx, core.RoleUser)
	if err != nil {
		return Stats{}, err
	}
	assistant, err := m.store.Count(ctx, core.RoleAssistant)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		Total:     user + assistant,
		User:      user,
		Assistant: assistant,
	}, nil
}

// Close releases the embedding cache. The store and embedder are owned by
// the caller and are not closed here.
func (m *Manager) Close() {
	if m.cache != nil {
		m.cache.Close()
	}
}

// embed returns the embedding for text, consulting the cache first.
func (m *Manager) embed(ctx context.Context, text string) ([]float32, error) {
	if m.cache != nil {
		if cached, ok := m.cache.Get(text); ok {
			if embedding, ok := cached.([]float32); ok {
				return embedding, nil
			}
		}
	}

	embedding, err := m.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if m.cache != nil {
		m.cache.Set(text, embedding, int64(4*len(embedding)))
	}
	return embedding, nil
}
