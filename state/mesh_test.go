package state

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func nodeIds(ids ...string) []NodeId {
	out := make([]NodeId, 0, len(ids))
	for _, id := range ids {
		out = append(out, NodeId(id))
	}
	return out
}

func TestExpandMesh_Simple(t *testing.T) {
	nodes := nodeIds("1", "2", "3", "4", "5")
	input := `1, 2
3, 4
1,3,5`
	pairs, err := ExpandMesh(strings.Split(input, "\n"), nodes)
	assert.NoError(t, err)
	assert.Equal(t, []Pair[NodeId, NodeId]{
		{"1", "2"},
		{"1", "3"},
		{"1", "5"},
		{"3", "4"},
		{"3", "5"},
	}, pairs)
}

func TestExpandMesh_Groups(t *testing.T) {
	nodes := nodeIds("1", "2", "3", "4", "5", "6", "7")
	input := `a = 1,2
b=3,,,4
c=5,6
d=a,b
d,d
7,d`
	pairs, err := ExpandMesh(strings.Split(input, "\n"), nodes)
	assert.NoError(t, err)
	assert.ElementsMatch(t, pairs, []Pair[NodeId, NodeId]{
		// d,d
		{"1", "2"},
		{"1", "3"},
		{"1", "4"},
		{"2", "3"},
		{"2", "4"},
		{"3", "4"},
		// 7,d
		{"1", "7"},
		{"2", "7"},
		{"3", "7"},
		{"4", "7"},
	})
}

func TestExpandMesh_NoLines(t *testing.T) {
	pairs, err := ExpandMesh(nil, nodeIds("1"))
	assert.NoError(t, err)
	assert.Empty(t, pairs)
}

func TestExpandMesh_Cycle(t *testing.T) {
	input := `a = b
b = c
c = a`
	_, err := ExpandMesh(strings.Split(input, "\n"), nil)
	assert.ErrorContains(t, err, "cycle detected in graph: [a b c]")
}

func TestExpandMesh_DupGroupName(t *testing.T) {
	input := `a = b
a = b
b = b`
	_, err := ExpandMesh(strings.Split(input, "\n"), nil)
	assert.ErrorContains(t, err, "duplicate group name: a")
}

func TestExpandMesh_SymbolError(t *testing.T) {
	input := `a = 1
b = 2`
	_, err := ExpandMesh(strings.Split(input, "\n"), nodeIds("1"))
	assert.ErrorContains(t, err, "2 is not a valid node/group")
}

func TestExpandMesh_EmptyGroup(t *testing.T) {
	_, err := ExpandMesh([]string{`a =`}, nodeIds("1"))
	assert.ErrorContains(t, err, "node/group list must not be empty")
}

func TestExpandMesh_GroupNameIsNodeName(t *testing.T) {
	_, err := ExpandMesh([]string{`1 = 1`}, nodeIds("1"))
	assert.ErrorContains(t, err, "group name must not be a node name: 1")
}

func TestExpandMesh_InvalidGroupDefinition(t *testing.T) {
	_, err := ExpandMesh([]string{`a = 1 = b`}, nodeIds("1"))
	assert.ErrorContains(t, err, ". group definition must contain one '='")
}

func TestExpandMesh_Single(t *testing.T) {
	_, err := ExpandMesh([]string{`1`}, nodeIds("1", "2", "3", "4", "5"))
	assert.ErrorContains(t, err, "invalid pairing, [1]")
}

func TestExpandMesh_EmptyLine(t *testing.T) {
	_, err := ExpandMesh([]string{``}, nodeIds("1", "2", "3", "4", "5"))
	assert.ErrorContains(t, err, "node/group list must not be empty")
}

func TestExpandMesh_GroupsDeep(t *testing.T) {
	nodes := nodeIds("1", "2", "3", "4", "5", "6", "7")
	lines := []string{"a = 1,2"}
	for _, grp := range strings.Split("bcdefghijk", "") {
		lines = append(lines, grp+" = "+strings.Repeat("a,", 28)+"a")
	}
	lines = append(lines, "k,k,3")
	pairs, err := ExpandMesh(lines, nodes)
	assert.NoError(t, err)
	assert.Equal(t, []Pair[NodeId, NodeId]{
		{"1", "2"},
		{"1", "3"},
		{"2", "3"},
	}, pairs)
}

func failMesh(t *testing.T, mesh string) {
	_, err := ExpandMesh(strings.Split(mesh, "\n"), nodeIds("1", "2", "3", "4", "5", "6", "7", "8", "9", "10"))
	assert.Error(t, err, mesh)
}

func TestExpandMesh_Invalid(t *testing.T) {
	failMesh(t, `this graph is a baddie`)
	failMesh(t, `=========,,,,`)
	failMesh(t, `#`)
	failMesh(t, `\n\n\n\n\n\n`)
	failMesh(t, `1`)
	failMesh(t, `1,2,3,4,5,6,a`)
	failMesh(t, `1,2,3,4,5,6,7,8,9,10,11,12,13,14,15`)
	failMesh(t, `,,,,,,,,,,,,,,,,`)
	failMesh(t, `a=a`)
}
