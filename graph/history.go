package graph

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// HistoryLimit is the maximum number of snapshots kept by a Store.
const HistoryLimit = 20

// DefaultBuildAction labels SetGraph snapshots when no action is given.
const DefaultBuildAction = "Build Graph"

// HistoryItem is an immutable snapshot of the canonical graph.
type HistoryItem struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	System    string    `json:"system"`
	Nodes     []Node    `json:"nodes"`
	Edges     []Edge    `json:"edges"`
}

// Clone returns a deep copy of the item.
func (h HistoryItem) Clone() HistoryItem {
	h.Nodes = cloneNodes(h.Nodes)
	h.Edges = cloneEdges(h.Edges)
	return h
}

// ExpandAction is the history label used for an expansion of nodeID.
func ExpandAction(nodeID string) string {
	return fmt.Sprintf("Expand Node %s", nodeID)
}

func newHistoryID() string {
	return uuid.NewString()
}

// prependHistory returns history with item at index 0, capped at HistoryLimit.
func prependHistory(history []HistoryItem, item HistoryItem) []HistoryItem {
	out := make([]HistoryItem, 0, min(len(history)+1, HistoryLimit))
	out = append(out, item)
	for _, h := range history {
		if len(out) == HistoryLimit {
			break
		}
		out = append(out, h)
	}
	return out
}

func cloneHistory(history []HistoryItem) []HistoryItem {
	out := make([]HistoryItem, len(history))
	for i, h := range history {
		out[i] = h.Clone()
	}
	return out
}
