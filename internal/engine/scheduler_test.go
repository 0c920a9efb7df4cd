package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cascade/internal/api/models"
)

func indexOf(order []string, id string) int {
	for i, v := range order {
		if v == id {
			return i
		}
	}
	return -1
}

func TestTopoSort_DependenciesFirst(t *testing.T) {
	// a <- b <- c, plus d independent
	workflow := workflowOf("wf",
		[]models.Node{
			promptNode(t, "c", depPart("b")),
			promptNode(t, "b", depPart("a")),
			pieceNode(t, "a", textPart("root")),
			pieceNode(t, "d", textPart("loner")),
		},
	)
	g := NewGraph(workflow)

	order, err := TopoSort(g, g.NodeIDs())
	require.NoError(t, err)
	require.Len(t, order, 4)

	assert.Less(t, indexOf(order, "a"), indexOf(order, "b"))
	assert.Less(t, indexOf(order, "b"), indexOf(order, "c"))
	assert.NotEqual(t, -1, indexOf(order, "d"))
}

func TestTopoSort_EdgeDependencies(t *testing.T) {
	workflow := workflowOf("wf",
		[]models.Node{
			mustNode(t, "agg", models.NodeTypeDataset, models.DatasetConfig{Source: models.DatasetSourceAggregate}),
			pieceNode(t, "src", textPart("x")),
		},
		models.Edge{FromNode: "src", ToNode: "agg"},
	)
	g := NewGraph(workflow)

	order, err := TopoSort(g, g.NodeIDs())
	require.NoError(t, err)
	assert.Less(t, indexOf(order, "src"), indexOf(order, "agg"))
}

func TestTopoSort_SubsetIgnoresOutsideDeps(t *testing.T) {
	workflow := workflowOf("wf",
		[]models.Node{
			pieceNode(t, "a", textPart("root")),
			promptNode(t, "b", depPart("a")),
			promptNode(t, "c", depPart("b")),
		},
	)
	g := NewGraph(workflow)

	// Only b and c in the subset: a is outside and must not appear.
	order, err := TopoSort(g, []string{"c", "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, order)
}

func TestTopoSort_CycleDetected(t *testing.T) {
	workflow := workflowOf("wf",
		[]models.Node{
			promptNode(t, "a", depPart("b")),
			promptNode(t, "b", depPart("a")),
		},
	)
	g := NewGraph(workflow)

	_, err := TopoSort(g, g.NodeIDs())
	require.Error(t, err)

	var cycleErr *CycleError
	require.ErrorAs(t, err, &cycleErr)
	assert.Contains(t, cycleErr.Nodes, "a")
	assert.Contains(t, cycleErr.Nodes, "b")
}

func TestTopoSort_SelfCycle(t *testing.T) {
	workflow := workflowOf("wf",
		[]models.Node{
			promptNode(t, "a", depPart("a")),
		},
	)
	g := NewGraph(workflow)

	_, err := TopoSort(g, g.NodeIDs())
	var cycleErr *CycleError
	require.ErrorAs(t, err, &cycleErr)
}
