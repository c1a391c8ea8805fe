// Package storetest holds the behaviour every store.StateStore backend must show.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/archviz/graph"
	"github.com/smallnest/archviz/store"
)

// SampleState returns a small persisted state with one pinned node and a history.
func SampleState() *graph.PersistedState {
	x, y := 120.5, -40.0
	nodes := []graph.Node{
		{ID: "gw", Label: "API Gateway", Description: "**edge** routing", Type: graph.NodeTypeGateway, Level: 0, Expandable: true, FX: &x, FY: &y},
		{ID: "orders", Label: "Order Service", Type: graph.NodeTypeService, Level: 1, Expandable: true},
	}
	edges := []graph.Edge{{ID: "e1", Source: "gw", Target: "orders", Relation: "routes"}}
	return &graph.PersistedState{
		System: "shop",
		Nodes:  nodes,
		Edges:  edges,
		History: []graph.HistoryItem{{
			ID:        "h1",
			Timestamp: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
			Action:    "Build shop",
			System:    "shop",
			Nodes:     nodes,
			Edges:     edges,
		}},
	}
}

// Run exercises Save, Load, Delete and List against the backend returned by newStore.
// Each subtest gets a fresh backend.
func Run(t *testing.T, newStore func(t *testing.T) store.StateStore) {
	ctx := context.Background()

	t.Run("save and load", func(t *testing.T) {
		s := newStore(t)
		want := SampleState()
		require.NoError(t, s.Save(ctx, store.DefaultKey, want))

		got, err := s.Load(ctx, store.DefaultKey)
		require.NoError(t, err)
		assert.Equal(t, want.System, got.System)
		assert.Equal(t, want.Nodes, got.Nodes)
		assert.Equal(t, want.Edges, got.Edges)
		require.Len(t, got.History, 1)
		assert.Equal(t, "Build shop", got.History[0].Action)
		assert.True(t, want.History[0].Timestamp.Equal(got.History[0].Timestamp))
		require.NotNil(t, got.Nodes[0].FX)
		assert.Equal(t, 120.5, *got.Nodes[0].FX)
		assert.Nil(t, got.Nodes[1].FX)
	})

	t.Run("load missing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Load(ctx, "does-not-exist")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("overwrite", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Save(ctx, "k", SampleState()))

		next := SampleState()
		next.System = "bank"
		next.History = nil
		require.NoError(t, s.Save(ctx, "k", next))

		got, err := s.Load(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "bank", got.System)
		assert.Empty(t, got.History)
	})

	t.Run("list and delete", func(t *testing.T) {
		s := newStore(t)
		for _, k := range []string{"b", "a", "c/with slash"} {
			require.NoError(t, s.Save(ctx, k, SampleState()))
		}

		keys, err := s.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c/with slash"}, keys)

		require.NoError(t, s.Delete(ctx, "b"))
		require.NoError(t, s.Delete(ctx, "never-saved"))
		_, err = s.Load(ctx, "b")
		assert.ErrorIs(t, err, store.ErrNotFound)

		keys, err = s.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "c/with slash"}, keys)
	})

	t.Run("restore into store", func(t *testing.T) {
		s := newStore(t)
		gs := graph.NewStore()

		ok, err := store.Restore(ctx, s, store.DefaultKey, gs)
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, s.Save(ctx, store.DefaultKey, SampleState()))
		ok, err = store.Restore(ctx, s, store.DefaultKey, gs)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "shop", gs.System())
		assert.Len(t, gs.Nodes(), 2)
		assert.Len(t, gs.History(), 1)
		assert.Equal(t, 0, gs.Version())
	})
}
