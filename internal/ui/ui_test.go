package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/smallnest/archviz/graph"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcd…", Truncate("abcdefgh", 5))
	assert.Equal(t, "a b", Truncate("a\nb", 0))
	assert.Equal(t, "…", Truncate("abc", 1))
}

func TestTable(t *testing.T) {
	out := Table([]string{"ID", "Type"}, [][]string{
		{"gw", Category(graph.NodeTypeGateway)},
		{"db", Category(graph.NodeTypeDatabase)},
	})
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "gw")
	assert.Contains(t, out, "database")
	assert.GreaterOrEqual(t, strings.Count(out, "\n"), 5)
}
