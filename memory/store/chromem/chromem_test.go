package chromem_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hackr0212/Noir-chroma/core"
	"github.com/Hackr0212/Noir-chroma/memory"
	"github.com/Hackr0212/Noir-chroma/memory/store/chromem"
)

// unitVec builds a 4-dim unit vector so cosine distances in assertions are
// exact by construction.
func unitVec(x, y float32) []float32 {
	return []float32{x, y, 0, 0}
}

func record(id, text string, role core.Role, embedding []float32) memory.Record {
	return memory.Record{
		ID:        id,
		Text:      text,
		Role:      role,
		Embedding: embedding,
		CreatedAt: time.Now().UTC(),
	}
}

func newStore(t *testing.T) *chromem.Store {
	t.Helper()
	store, err := chromem.New(chromem.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSearchOrdersByAscendingDistance(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	// Cosine distances to the query [1,0]: exact 0, 0.2, 1.
	require.NoError(t, store.Insert(ctx, record("far", "far", core.RoleUser, unitVec(0, 1))))
	require.NoError(t, store.Insert(ctx, record("near", "near", core.RoleUser, unitVec(0.8, 0.6))))
	require.NoError(t, store.Insert(ctx, record("exact", "exact", core.RoleUser, unitVec(1, 0))))

	matches, err := store.Search(ctx, unitVec(1, 0), 3, core.RoleUser)
	require.NoError(t, err)
	require.Len(t, matches, 3)

	assert.Equal(t, "exact", matches[0].Record.ID)
	assert.Equal(t, "near", matches[1].Record.ID)
	assert.Equal(t, "far", matches[2].Record.ID)

	assert.InDelta(t, 0.0, float64(matches[0].Distance), 1e-4)
	assert.InDelta(t, 0.2, float64(matches[1].Distance), 1e-4)
	assert.InDelta(t, 1.0, float64(matches[2].Distance), 1e-4)
}

func TestSearchRoleIsolation(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	require.NoError(t, store.Insert(ctx, record("u1", "user turn", core.RoleUser, unitVec(1, 0))))
	require.NoError(t, store.Insert(ctx, record("a1", "assistant turn", core.RoleAssistant, unitVec(1, 0))))

	userOnly, err := store.Search(ctx, unitVec(1, 0), 5, core.RoleUser)
	require.NoError(t, err)
	require.Len(t, userOnly, 1)
	assert.Equal(t, core.RoleUser, userOnly[0].Record.Role)

	both, err := store.Search(ctx, unitVec(1, 0), 5, "")
	require.NoError(t, err)
	assert.Len(t, both, 2)
}

func TestSearchEmptyStore(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	matches, err := store.Search(ctx, unitVec(1, 0), 5, core.RoleUser)
	require.NoError(t, err)
	assert.Empty(t, matches)

	matches, err = store.Search(ctx, unitVec(1, 0), 5, "")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestSearchClampsToCollectionSize(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	require.NoError(t, store.Insert(ctx, record("only", "only", core.RoleUser, unitVec(1, 0))))

	matches, err := store.Search(ctx, unitVec(1, 0), 10, core.RoleUser)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestCountByRole(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	require.NoError(t, store.Insert(ctx, record("u1", "a", core.RoleUser, unitVec(1, 0))))
	require.NoError(t, store.Insert(ctx, record("u2", "b", core.RoleUser, unitVec(0, 1))))
	require.NoError(t, store.Insert(ctx, record("a1", "c", core.RoleAssistant, unitVec(1, 0))))

	total, err := store.Count(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	users, err := store.Count(ctx, core.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, 2, users)

	assistants, err := store.Count(ctx, core.RoleAssistant)
	require.NoError(t, err)
	assert.Equal(t, 1, assistants)
}

func TestClearEmptiesEverything(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	require.NoError(t, store.Insert(ctx, record("u1", "a", core.RoleUser, unitVec(1, 0))))
	require.NoError(t, store.Insert(ctx, record("a1", "b", core.RoleAssistant, unitVec(0, 1))))

	require.NoError(t, store.Clear(ctx))

	for _, role := range []core.Role{"", core.RoleUser, core.RoleAssistant} {
		count, err := store.Count(ctx, role)
		require.NoError(t, err)
		assert.Zero(t, count, "role %q", role)
	}

	matches, err := store.Search(ctx, unitVec(1, 0), 5, "")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestInsertRejectsInvalidRole(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	err := store.Insert(ctx, record("x", "x", core.Role("system"), unitVec(1, 0)))
	assert.Error(t, err)
}

func TestPersistenceAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := chromem.New(chromem.Config{PersistPath: dir})
	require.NoError(t, err)
	require.NoError(t, store.Insert(ctx, record("u1", "durable turn", core.RoleUser, unitVec(1, 0))))
	require.NoError(t, store.Close())

	reopened, err := chromem.New(chromem.Config{PersistPath: dir})
	require.NoError(t, err)
	defer reopened.Close()

	count, err := reopened.Count(ctx, core.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	matches, err := reopened.Search(ctx, unitVec(1, 0), 1, core.RoleUser)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "durable turn", matches[0].Record.Text)
	assert.Equal(t, core.RoleUser, matches[0].Record.Role)
}

func TestConcurrentQueriesDuringWrites(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	require.NoError(t, store.Insert(ctx, record("seed", "seed", core.RoleUser, unitVec(1, 0))))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			rec := record(fmt.Sprintf("w%d", i), "write", core.RoleUser, unitVec(0, 1))
			assert.NoError(t, store.Insert(ctx, rec))
		}(i)
		go func() {
			defer wg.Done()
			_, err := store.Search(ctx, unitVec(1, 0), 1, core.RoleUser)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	count, err := store.Count(ctx, core.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, 9, count)
}
