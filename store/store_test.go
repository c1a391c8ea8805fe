package store_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/archviz/graph"
	"github.com/smallnest/archviz/store"
	"github.com/smallnest/archviz/store/memory"
	"github.com/smallnest/archviz/store/storetest"
)

func TestMarshal_Envelope(t *testing.T) {
	data, err := store.Marshal(storetest.SampleState())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"version":0`)
	assert.Contains(t, string(data), `"state":{"system":"shop"`)

	got, err := store.Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, "shop", got.System)
	assert.Len(t, got.Nodes, 2)
}

func TestUnmarshal_Errors(t *testing.T) {
	_, err := store.Unmarshal([]byte(`{"state":`))
	assert.Error(t, err)

	_, err = store.Unmarshal([]byte(`{"state":{"system":"x"},"version":7}`))
	assert.ErrorContains(t, err, "unsupported document version 7")
}

func TestFingerprint(t *testing.T) {
	a, err := store.Fingerprint(storetest.SampleState())
	require.NoError(t, err)
	b, err := store.Fingerprint(storetest.SampleState())
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	changed := storetest.SampleState()
	changed.Nodes[1].Label = "Orders"
	c, err := store.Fingerprint(changed)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

type failingStore struct {
	store.StateStore
	err error
}

func (f failingStore) Save(context.Context, string, *graph.PersistedState) error {
	return f.err
}

func TestAutoSaver_ConcurrentMutationsSaveLatestState(t *testing.T) {
	ctx := context.Background()
	for round := 0; round < 5; round++ {
		backend := memory.NewMemoryStateStore()
		gs := graph.NewStore()
		gs.SetGraph("shop", nil, nil, "Build shop")
		_, detach := store.Attach(gs, backend, store.WithKey("session"))

		var wg sync.WaitGroup
		for w := 0; w < 8; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				for i := 0; i < 10; i++ {
					gs.AddNodes([]graph.Node{{ID: fmt.Sprintf("n-%d-%d", w, i), Label: "N", Type: graph.NodeTypeService}})
				}
			}(w)
		}
		wg.Wait()
		detach()

		require.Len(t, gs.Nodes(), 80)
		loaded, err := backend.Load(ctx, "session")
		require.NoError(t, err)
		assert.Len(t, loaded.Nodes, len(gs.Nodes()), "round %d", round)
	}
}

func TestAutoSaver_SavesPersistentEvents(t *testing.T) {
	ctx := context.Background()
	backend := memory.NewMemoryStateStore()
	gs := graph.NewStore()
	saver, detach := store.Attach(gs, backend, store.WithKey("session"))
	defer detach()

	gs.SetGraph("shop", []graph.Node{{ID: "a", Label: "A", Type: graph.NodeTypeService}}, nil, "Build shop")
	assert.Equal(t, 1, saver.Saves())

	loaded, err := backend.Load(ctx, "session")
	require.NoError(t, err)
	assert.Equal(t, "shop", loaded.System)
	assert.Len(t, loaded.History, 1)

	// Transient changes are not written
	gs.SelectNode("a")
	gs.SetSearchTerm("a")
	gs.SetLoading(true)
	gs.SetError("boom")
	assert.Equal(t, 1, saver.Saves())

	gs.Pin("a", 10, 20)
	assert.Equal(t, 2, saver.Saves())

	loaded, err = backend.Load(ctx, "session")
	require.NoError(t, err)
	require.NotNil(t, loaded.Nodes[0].FX)
	assert.Equal(t, 10.0, *loaded.Nodes[0].FX)
}

func TestAutoSaver_SkipsUnchangedState(t *testing.T) {
	ctx := context.Background()
	backend := memory.NewMemoryStateStore()
	gs := graph.NewStore()
	gs.SetGraph("shop", []graph.Node{{ID: "a", Label: "A", Type: graph.NodeTypeService}}, nil, "")

	saver := store.NewAutoSaver(backend)
	require.NoError(t, saver.Flush(ctx, gs))
	require.NoError(t, saver.Flush(ctx, gs))
	assert.Equal(t, 1, saver.Saves())

	// Adding an already known node is a no-op merge
	gs.AddNodes([]graph.Node{{ID: "a", Label: "A", Type: graph.NodeTypeService}})
	require.NoError(t, saver.Flush(ctx, gs))
	assert.Equal(t, 1, saver.Saves())

	keys, err := backend.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{store.DefaultKey}, keys)
}

func TestAutoSaver_RecordsFailures(t *testing.T) {
	boom := errors.New("disk full")
	gs := graph.NewStore()
	saver, detach := store.Attach(gs, failingStore{err: boom})
	defer detach()

	gs.SetGraph("shop", nil, nil, "")
	assert.ErrorIs(t, saver.LastError(), boom)
	assert.Equal(t, 0, saver.Saves())

	// The failed state is retried on the next flush
	assert.ErrorIs(t, saver.Flush(context.Background(), gs), boom)
}

func TestAutoSaver_Detach(t *testing.T) {
	backend := memory.NewMemoryStateStore()
	gs := graph.NewStore()
	saver, detach := store.Attach(gs, backend)
	detach()

	gs.SetGraph("shop", nil, nil, "")
	assert.Equal(t, 0, saver.Saves())
}

func TestRestore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	backend := memory.NewMemoryStateStore()

	src := graph.NewStore()
	src.SetGraph("shop", []graph.Node{{ID: "a", Label: "A", Type: graph.NodeTypeService}}, nil, "Build shop")
	ps := src.Persisted()
	require.NoError(t, backend.Save(ctx, store.DefaultKey, &ps))

	dst := graph.NewStore()
	dst.SetSearchTerm("leftover")
	ok, err := store.Restore(ctx, backend, store.DefaultKey, dst)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, src.Nodes(), dst.Nodes())
	assert.Equal(t, "", dst.SearchTerm())
	assert.Equal(t, src.History()[0].ID, dst.History()[0].ID)
}
