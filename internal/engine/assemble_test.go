package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cascade/internal/api/models"
)

func TestAssemblePrompt_SeparatorsBetweenCategories(t *testing.T) {
	env := newTestEnv()
	node := pieceNode(t, "piece",
		textPart("first line"),
		textPart("second line"),
		depPart("dep"),
	)
	workflow := workflowOf("wf", []models.Node{node, pieceNode(t, "dep", textPart("dep text"))})
	p := newPass("acme", NewGraph(workflow), env.rt)
	p.results["dep"] = "resolved dependency"

	prompt, err := assemblePrompt(context.Background(), &node, p)
	require.NoError(t, err)

	// Same-kind neighbors join with a newline, category changes with the
	// separator.
	assert.Equal(t, "first line\nsecond line\n\n---\n\nresolved dependency", prompt)
}

func TestAssemblePrompt_NonStringDependencyRendersJSON(t *testing.T) {
	env := newTestEnv()
	node := pieceNode(t, "piece", depPart("dep"))
	workflow := workflowOf("wf", []models.Node{node, pieceNode(t, "dep", textPart("x"))})
	p := newPass("acme", NewGraph(workflow), env.rt)
	p.results["dep"] = map[string]any{"count": 3}

	prompt, err := assemblePrompt(context.Background(), &node, p)
	require.NoError(t, err)
	assert.Equal(t, `{"count":3}`, prompt)
}

func TestAssemblePrompt_MissingDependencyResolvesEmpty(t *testing.T) {
	env := newTestEnv()
	node := pieceNode(t, "piece", textPart("intro"), depPart("ghost"))
	workflow := workflowOf("wf", []models.Node{node})
	p := newPass("acme", NewGraph(workflow), env.rt)

	prompt, err := assemblePrompt(context.Background(), &node, p)
	require.NoError(t, err)
	assert.Equal(t, "intro\n\n---\n\n", prompt)
}

func TestFrameworkDescriptor_StructuredSchema(t *testing.T) {
	env := newTestEnv()
	env.frameworks.frameworks["fw1"] = &models.Framework{
		ID:          "fw1",
		Name:        "Scoring rubric",
		Description: "How to score",
		Type:        "structured",
		Schema:      []byte(`{"fields": ["a", "b"]}`),
	}
	workflow := workflowOf("wf", nil)
	p := newPass("acme", NewGraph(workflow), env.rt)

	descriptor, err := p.frameworkDescriptor(context.Background(), "fw1")
	require.NoError(t, err)
	assert.Equal(t, "Scoring rubric", descriptor["name"])
	assert.Equal(t, map[string]any{"fields": []any{"a", "b"}}, descriptor["schema"])
}

func TestFrameworkDescriptor_DocumentSchemaStaysOpaque(t *testing.T) {
	env := newTestEnv()
	env.frameworks.frameworks["doc"] = &models.Framework{
		ID:     "doc",
		Name:   "Style guide",
		Type:   models.FrameworkTypeDocument,
		Schema: []byte(`{"looks": "like json but stays text"}`),
	}
	workflow := workflowOf("wf", nil)
	p := newPass("acme", NewGraph(workflow), env.rt)

	descriptor, err := p.frameworkDescriptor(context.Background(), "doc")
	require.NoError(t, err)
	assert.Equal(t, `{"looks": "like json but stays text"}`, descriptor["schema"])
}

func TestFrameworkDescriptor_NotFound(t *testing.T) {
	env := newTestEnv()
	workflow := workflowOf("wf", nil)
	p := newPass("acme", NewGraph(workflow), env.rt)

	_, err := p.frameworkDescriptor(context.Background(), "missing")
	assert.Error(t, err)
}
