package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"cascade/internal/api/models"
)

func TestBlockedSet_PausedSubtree(t *testing.T) {
	// a -> b -> c, with sibling d off of a.
	workflow := workflowOf("wf",
		[]models.Node{
			pieceNode(t, "a", textPart("root")),
			promptNode(t, "b", depPart("a")),
			promptNode(t, "c", depPart("b")),
			promptNode(t, "d", depPart("a")),
		},
	)
	g := NewGraph(workflow)

	blocked := BlockedSet(g, []string{"b"})
	assert.True(t, blocked["b"])
	assert.True(t, blocked["c"])
	assert.False(t, blocked["a"])
	assert.False(t, blocked["d"])
}

func TestBlockedSet_NoPausedNodes(t *testing.T) {
	workflow := workflowOf("wf", []models.Node{pieceNode(t, "a", textPart("x"))})
	assert.Empty(t, BlockedSet(NewGraph(workflow), nil))
}
