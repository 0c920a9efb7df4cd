package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cascade/internal/api/models"
	"cascade/pkg"
)

// ============ Caching and staleness ============

func chainWorkflow(t *testing.T) *models.Workflow {
	// a -> b -> c, all prompt pieces so no generation calls happen.
	return workflowOf("wf",
		[]models.Node{
			pieceNode(t, "a", textPart("root value")),
			pieceNode(t, "b", textPart("b:"), depPart("a")),
			pieceNode(t, "c", textPart("c:"), depPart("b")),
		},
	)
}

func TestRun_FirstPassExecutesEverything(t *testing.T) {
	env := newTestEnv()
	workflow := chainWorkflow(t)

	result, err := env.runner.Run(context.Background(), Request{CompanyID: "acme", Workflow: workflow})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"a", "b", "c"}, result.Executed)
	assert.Empty(t, result.Cached)
	assert.Empty(t, result.Errored)

	record, err := env.records.Find(context.Background(), "acme", "wf", "b")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, 1, record.Version)
	assert.Len(t, record.ContentHash, 64)
	// The snapshot pins a's hash at execution time.
	aRecord, _ := env.records.Find(context.Background(), "acme", "wf", "a")
	assert.Equal(t, aRecord.ContentHash, record.DependencyHashes["a"])
}

func TestRun_UnchangedRerunExecutesNothing(t *testing.T) {
	env := newTestEnv()
	workflow := chainWorkflow(t)

	_, err := env.runner.Run(context.Background(), Request{CompanyID: "acme", Workflow: workflow})
	require.NoError(t, err)

	result, err := env.runner.Run(context.Background(), Request{CompanyID: "acme", Workflow: workflow})
	require.NoError(t, err)

	assert.Empty(t, result.Executed)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, result.Cached)

	// Cached results hand back the persisted output.
	assert.Equal(t, "root value", result.Nodes["a"].Output)
	assert.True(t, result.Nodes["a"].Cached)
}

func TestRun_SeedChangePropagatesDownstream(t *testing.T) {
	env := newTestEnv()
	workflow := workflowOf("wf",
		[]models.Node{
			ingestNode(t, "x"),
			pieceNode(t, "b", textPart("b:"), depPart("x")),
			pieceNode(t, "c", textPart("c:"), depPart("b")),
		},
	)

	run1, err := env.runner.Run(context.Background(), Request{
		CompanyID: "acme", Workflow: workflow,
		Seeds: map[string]any{"x": "v1"},
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"x", "b", "c"}, run1.Executed)

	// Identical seed: nothing is stale, nothing runs.
	run2, err := env.runner.Run(context.Background(), Request{
		CompanyID: "acme", Workflow: workflow,
		Seeds: map[string]any{"x": "v1"},
	})
	require.NoError(t, err)
	assert.Empty(t, run2.Executed)
	assert.ElementsMatch(t, []string{"x", "b", "c"}, run2.Cached)

	// Changed seed: the whole chain re-runs.
	run3, err := env.runner.Run(context.Background(), Request{
		CompanyID: "acme", Workflow: workflow,
		Seeds: map[string]any{"x": "v2"},
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"x", "b", "c"}, run3.Executed)

	record, _ := env.records.Find(context.Background(), "acme", "wf", "x")
	assert.Equal(t, 2, record.Version)
}

func TestRun_UnseededIngestIsAlwaysStale(t *testing.T) {
	env := newTestEnv()
	env.submissions.submissions = []models.IngestionSubmission{
		{Source: models.SubmissionSourceAPI, Data: []byte(`{"orders": 1}`)},
	}
	workflow := workflowOf("wf", []models.Node{ingestNode(t, "x")})

	for i := 0; i < 2; i++ {
		result, err := env.runner.Run(context.Background(), Request{CompanyID: "acme", Workflow: workflow})
		require.NoError(t, err)
		assert.Equal(t, []string{"x"}, result.Executed)
	}
}

func TestRun_NonTriggeringDependencyDoesNotPropagate(t *testing.T) {
	env := newTestEnv()
	noTrigger := false
	workflow := workflowOf("wf",
		[]models.Node{
			ingestNode(t, "x"),
			pieceNode(t, "b", textPart("b:"), models.PromptPart{
				Kind:              models.PromptPartDependency,
				TargetNodeID:      "x",
				TriggersExecution: &noTrigger,
			}),
		},
	)

	_, err := env.runner.Run(context.Background(), Request{
		CompanyID: "acme", Workflow: workflow,
		Seeds: map[string]any{"x": "v1"},
	})
	require.NoError(t, err)

	result, err := env.runner.Run(context.Background(), Request{
		CompanyID: "acme", Workflow: workflow,
		Seeds: map[string]any{"x": "v2"},
	})
	require.NoError(t, err)

	// x changed, but the suppressed edge keeps b cached.
	assert.Equal(t, []string{"x"}, result.Executed)
	assert.Contains(t, result.Cached, "b")
}

func TestRun_TargetReexecutionStopsWhenOutputUnchanged(t *testing.T) {
	env := newTestEnv()
	workflow := chainWorkflow(t)

	_, err := env.runner.Run(context.Background(), Request{CompanyID: "acme", Workflow: workflow})
	require.NoError(t, err)

	result, err := env.runner.Run(context.Background(), Request{
		CompanyID: "acme", Workflow: workflow,
		Targets: map[string]bool{"b": true},
	})
	require.NoError(t, err)

	// b is forced, but it reproduces the same output hash so c stays cached.
	assert.Equal(t, []string{"b"}, result.Executed)
	assert.ElementsMatch(t, []string{"a", "c"}, result.Cached)

	record, _ := env.records.Find(context.Background(), "acme", "wf", "b")
	assert.Equal(t, 2, record.Version)
}

func TestRun_CrossWorkflowDependency(t *testing.T) {
	env := newTestEnv()

	remote := &models.NodeExecutionRecord{
		CompanyID: "acme", WorkflowID: "wf2", NodeID: "r",
		ContentHash: ContentHash("remote out"),
	}
	require.NoError(t, remote.SetPayload(models.RecordPayload{Output: "remote out"}))
	require.NoError(t, env.records.Save(context.Background(), remote))

	workflow := workflowOf("wf",
		[]models.Node{
			pieceNode(t, "b", textPart("b:"), models.PromptPart{
				Kind:         models.PromptPartDependency,
				TargetNodeID: "r",
				WorkflowID:   "wf2",
			}),
		},
	)

	run1, err := env.runner.Run(context.Background(), Request{CompanyID: "acme", Workflow: workflow})
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, run1.Executed)
	assert.Equal(t, "b:\n\n---\n\nremote out", run1.Nodes["b"].Output)

	record, _ := env.records.Find(context.Background(), "acme", "wf", "b")
	assert.Equal(t, ContentHash("remote out"), record.DependencyHashes["wf2/r"])

	// Unchanged remote record: cached.
	run2, err := env.runner.Run(context.Background(), Request{CompanyID: "acme", Workflow: workflow})
	require.NoError(t, err)
	assert.Empty(t, run2.Executed)

	// The remote workflow re-ran and produced a new output: b goes stale.
	remote.ContentHash = ContentHash("changed")
	require.NoError(t, remote.SetPayload(models.RecordPayload{Output: "changed"}))
	require.NoError(t, env.records.Save(context.Background(), remote))

	run3, err := env.runner.Run(context.Background(), Request{CompanyID: "acme", Workflow: workflow})
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, run3.Executed)
}

// ============ Pause, errors, concurrency ============

func TestRun_PausedSubtreeIsSkipped(t *testing.T) {
	env := newTestEnv()
	workflow := chainWorkflow(t)
	workflow.Nodes[1].Paused = true // b

	result, err := env.runner.Run(context.Background(), Request{CompanyID: "acme", Workflow: workflow})
	require.NoError(t, err)

	assert.Equal(t, []string{"a"}, result.Executed)
	assert.ElementsMatch(t, []string{"b", "c"}, result.Cached)

	// Skipped nodes leave no record behind.
	record, err := env.records.Find(context.Background(), "acme", "wf", "b")
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestRun_NodeErrorToleratedDownstream(t *testing.T) {
	env := newTestEnv()
	workflow := workflowOf("wf",
		[]models.Node{
			mustNode(t, "fw", models.NodeTypeFramework, models.FrameworkConfig{FrameworkID: "missing"}),
			pieceNode(t, "b", textPart("b:"), depPart("fw")),
		},
	)

	result, err := env.runner.Run(context.Background(), Request{CompanyID: "acme", Workflow: workflow})
	require.NoError(t, err)

	assert.Equal(t, []string{"fw"}, result.Errored)
	assert.Equal(t, []string{"b"}, result.Executed)

	// The failure is stored as an inline error marker, and downstream
	// consumed it as a regular value.
	fwRecord, _ := env.records.Find(context.Background(), "acme", "wf", "fw")
	require.NotNil(t, fwRecord)
	payload, err := fwRecord.Payload()
	require.NoError(t, err)
	assert.True(t, IsErrorMarker(payload.Output))

	bOutput, ok := result.Nodes["b"].Output.(string)
	require.True(t, ok)
	assert.Contains(t, bOutput, "Error: ")
}

func TestRun_QuotaErrorAbortsCascade(t *testing.T) {
	env := newTestEnv()
	env.llm.reply = func(pkg.ChatRequest) (*pkg.ChatResponse, error) {
		return nil, &pkg.ChatError{StatusCode: 429, Message: "rate limited"}
	}
	workflow := workflowOf("wf",
		[]models.Node{promptNode(t, "gen", textPart("hello"))},
	)

	_, err := env.runner.Run(context.Background(), Request{CompanyID: "acme", Workflow: workflow})
	require.Error(t, err)

	var chatErr *pkg.ChatError
	require.ErrorAs(t, err, &chatErr)
	assert.Equal(t, 429, chatErr.StatusCode)

	// Nothing was persisted for the aborted node.
	record, _ := env.records.Find(context.Background(), "acme", "wf", "gen")
	assert.Nil(t, record)
}

func TestRun_BusyWorkflowRejected(t *testing.T) {
	env := newTestEnv()
	workflow := chainWorkflow(t)

	inflight.Store("acme/wf", struct{}{})
	defer inflight.Delete("acme/wf")

	_, err := env.runner.Run(context.Background(), Request{CompanyID: "acme", Workflow: workflow})
	assert.ErrorIs(t, err, ErrCascadeBusy)

	// A different workflow is unaffected.
	other := workflowOf("wf-other", []models.Node{pieceNode(t, "a", textPart("x"))})
	_, err = env.runner.Run(context.Background(), Request{CompanyID: "acme", Workflow: other})
	assert.NoError(t, err)
}

func TestRun_CycleFailsUpFront(t *testing.T) {
	env := newTestEnv()
	workflow := workflowOf("wf",
		[]models.Node{
			pieceNode(t, "a", depPart("b")),
			pieceNode(t, "b", depPart("a")),
		},
	)

	_, err := env.runner.Run(context.Background(), Request{CompanyID: "acme", Workflow: workflow})
	var cycleErr *CycleError
	require.ErrorAs(t, err, &cycleErr)
	assert.Equal(t, 0, env.records.saves)
}

func TestRun_CancelledContextStopsPass(t *testing.T) {
	env := newTestEnv()
	workflow := chainWorkflow(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := env.runner.Run(ctx, Request{CompanyID: "acme", Workflow: workflow})
	require.NoError(t, err)
	assert.Empty(t, result.Executed)
}

// ============ Evaluation and events ============

func generationOrMetric(generated string, metricScore int) func(pkg.ChatRequest) (*pkg.ChatResponse, error) {
	metric := metricReply(metricScore)
	return func(req pkg.ChatRequest) (*pkg.ChatResponse, error) {
		if req.Format != nil {
			return metric(req)
		}
		return &pkg.ChatResponse{Content: generated, FinishReason: "stop"}, nil
	}
}

func TestRun_GenerativeOutputEvaluated(t *testing.T) {
	env := newTestEnv().withEvaluator()
	env.rt.EvaluationMinOutputLen = 10
	env.llm.reply = generationOrMetric("a sufficiently long generated answer", 10)

	workflow := workflowOf("wf",
		[]models.Node{promptNode(t, "gen", textPart("write something"))},
	)

	result, err := env.runner.Run(context.Background(), Request{CompanyID: "acme", Workflow: workflow})
	require.NoError(t, err)

	evaluation := result.Nodes["gen"].Evaluation
	require.NotNil(t, evaluation)
	assert.Equal(t, 10, evaluation.OverallScore)
	assert.Len(t, evaluation.Flags, 3)

	// Every flagged metric raised a deduplicable alert.
	events := env.alerts.all()
	require.Len(t, events, 3)
	for _, event := range events {
		assert.Equal(t, models.AlertTypeLowQuality, event.Type)
	}

	record, _ := env.records.Find(context.Background(), "acme", "wf", "gen")
	payload, err := record.Payload()
	require.NoError(t, err)
	require.NotNil(t, payload.Evaluation)
	assert.Len(t, payload.Flags, 3)
}

func TestRun_ShortOutputSkipsEvaluation(t *testing.T) {
	env := newTestEnv().withEvaluator()
	env.rt.EvaluationMinOutputLen = 100
	env.llm.reply = generationOrMetric("short", 10)

	workflow := workflowOf("wf",
		[]models.Node{promptNode(t, "gen", textPart("write something"))},
	)

	result, err := env.runner.Run(context.Background(), Request{CompanyID: "acme", Workflow: workflow})
	require.NoError(t, err)
	assert.Nil(t, result.Nodes["gen"].Evaluation)
	// Only the generation call happened.
	assert.Equal(t, 1, env.llm.callCount())
}

func TestRun_TruncationRaisesAlert(t *testing.T) {
	env := newTestEnv()
	env.llm.reply = func(pkg.ChatRequest) (*pkg.ChatResponse, error) {
		return &pkg.ChatResponse{Content: "cut off mid", FinishReason: "length"}, nil
	}
	workflow := workflowOf("wf",
		[]models.Node{promptNode(t, "gen", textPart("write"))},
	)

	_, err := env.runner.Run(context.Background(), Request{CompanyID: "acme", Workflow: workflow})
	require.NoError(t, err)

	events := env.alerts.all()
	require.Len(t, events, 1)
	assert.Equal(t, models.AlertTypeTokenTruncation, events[0].Type)
	assert.Equal(t, models.AlertSeverityWarning, events[0].Severity)
}

func TestRun_ModelUnavailableRaisesAlertAndMarksError(t *testing.T) {
	env := newTestEnv()
	env.llm.reply = func(pkg.ChatRequest) (*pkg.ChatResponse, error) {
		return nil, &pkg.ChatError{StatusCode: 404, Message: "model not found"}
	}
	workflow := workflowOf("wf",
		[]models.Node{promptNode(t, "gen", textPart("write"))},
	)

	result, err := env.runner.Run(context.Background(), Request{CompanyID: "acme", Workflow: workflow})
	require.NoError(t, err)

	assert.Equal(t, []string{"gen"}, result.Errored)
	events := env.alerts.all()
	require.Len(t, events, 1)
	assert.Equal(t, models.AlertTypeModelUnavailable, events[0].Type)
}

func TestRun_PublishesProgressEvents(t *testing.T) {
	env := newTestEnv()
	workflow := chainWorkflow(t)

	_, err := env.runner.Run(context.Background(), Request{CompanyID: "acme", Workflow: workflow})
	require.NoError(t, err)

	kinds := env.events.kinds()
	require.Len(t, kinds, 4)
	assert.Equal(t, "cascade_completed", kinds[3])
	for _, kind := range kinds[:3] {
		assert.Equal(t, "node_executed", kind)
	}
}

func TestRun_AgentNodeBehavesLikePromptTemplate(t *testing.T) {
	env := newTestEnv()
	workflow := workflowOf("wf",
		[]models.Node{mustNode(t, "agent", models.NodeTypeAgent, models.PromptConfig{
			Parts: []models.PromptPart{textPart("act on this")},
		})},
	)

	result, err := env.runner.Run(context.Background(), Request{CompanyID: "acme", Workflow: workflow})
	require.NoError(t, err)
	assert.Equal(t, []string{"agent"}, result.Executed)
	assert.Equal(t, "generated text", result.Nodes["agent"].Output)
	assert.Equal(t, 1, env.llm.callCount())
}

func TestRun_UnknownNodeTypeErrors(t *testing.T) {
	env := newTestEnv()
	workflow := &models.Workflow{
		ID: "wf", CompanyID: "acme",
		Nodes: []models.Node{{ID: "odd", Type: "hologram"}},
	}

	result, err := env.runner.Run(context.Background(), Request{CompanyID: "acme", Workflow: workflow})
	require.NoError(t, err)
	require.Equal(t, []string{"odd"}, result.Errored)
	assert.Contains(t, result.Nodes["odd"].Err, "no executor registered")
}
