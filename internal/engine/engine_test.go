package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"cascade/internal/api/models"
	"cascade/pkg"
)

// ============ In-memory fakes ============

type fakeRecordStore struct {
	mu      sync.Mutex
	records map[string]*models.NodeExecutionRecord
	saves   int
}

func newFakeRecordStore() *fakeRecordStore {
	return &fakeRecordStore{records: make(map[string]*models.NodeExecutionRecord)}
}

func recordKey(companyID, workflowID, nodeID string) string {
	return companyID + "/" + workflowID + "/" + nodeID
}

func (slf *fakeRecordStore) Find(_ context.Context, companyID, workflowID, nodeID string) (*models.NodeExecutionRecord, error) {
	slf.mu.Lock()
	defer slf.mu.Unlock()
	record, ok := slf.records[recordKey(companyID, workflowID, nodeID)]
	if !ok {
		return nil, nil
	}
	copied := *record
	return &copied, nil
}

func (slf *fakeRecordStore) Save(_ context.Context, record *models.NodeExecutionRecord) error {
	slf.mu.Lock()
	defer slf.mu.Unlock()
	copied := *record
	slf.records[recordKey(record.CompanyID, record.WorkflowID, record.NodeID)] = &copied
	slf.saves++
	return nil
}

func (slf *fakeRecordStore) ListByWorkflow(_ context.Context, companyID, workflowID string) ([]models.NodeExecutionRecord, error) {
	slf.mu.Lock()
	defer slf.mu.Unlock()
	var out []models.NodeExecutionRecord
	for _, record := range slf.records {
		if record.CompanyID == companyID && record.WorkflowID == workflowID {
			out = append(out, *record)
		}
	}
	return out, nil
}

type fakeLLM struct {
	mu    sync.Mutex
	calls []pkg.ChatRequest
	// reply decides the response per request; nil means echo a canned string.
	reply func(req pkg.ChatRequest) (*pkg.ChatResponse, error)
}

func (slf *fakeLLM) Chat(_ context.Context, req pkg.ChatRequest) (*pkg.ChatResponse, error) {
	slf.mu.Lock()
	slf.calls = append(slf.calls, req)
	slf.mu.Unlock()
	if slf.reply != nil {
		return slf.reply(req)
	}
	return &pkg.ChatResponse{Content: "generated text", FinishReason: "stop"}, nil
}

func (slf *fakeLLM) callCount() int {
	slf.mu.Lock()
	defer slf.mu.Unlock()
	return len(slf.calls)
}

type fakeSubmissions struct {
	submissions []models.IngestionSubmission
}

func (slf *fakeSubmissions) Recent(context.Context, string) ([]models.IngestionSubmission, error) {
	return slf.submissions, nil
}

type fakeSchemas struct {
	definitions []models.SchemaDefinition
}

func (slf *fakeSchemas) Definitions(context.Context, string) ([]models.SchemaDefinition, error) {
	return slf.definitions, nil
}

type fakeVariables struct {
	values map[string]*models.Variable
}

func (slf *fakeVariables) Value(_ context.Context, _, name string) (*models.Variable, error) {
	return slf.values[name], nil
}

type fakeFrameworks struct {
	frameworks map[string]*models.Framework
}

func (slf *fakeFrameworks) Find(_ context.Context, id string) (*models.Framework, error) {
	return slf.frameworks[id], nil
}

type fakeCache struct {
	mu     sync.Mutex
	values map[string]any
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: make(map[string]any)}
}

func (slf *fakeCache) Read(_ context.Context, companyID, cacheID string) (any, bool, error) {
	slf.mu.Lock()
	defer slf.mu.Unlock()
	value, ok := slf.values[companyID+"/"+cacheID]
	return value, ok, nil
}

func (slf *fakeCache) Write(_ context.Context, companyID, cacheID string, value any) error {
	slf.mu.Lock()
	defer slf.mu.Unlock()
	slf.values[companyID+"/"+cacheID] = value
	return nil
}

type fakeIntegrations struct {
	result string
	err    error
}

func (slf *fakeIntegrations) Call(context.Context, string, string) (string, error) {
	return slf.result, slf.err
}

type fakeAlerts struct {
	mu     sync.Mutex
	events []AlertEvent
}

func (slf *fakeAlerts) Raise(_ context.Context, event AlertEvent) {
	slf.mu.Lock()
	defer slf.mu.Unlock()
	slf.events = append(slf.events, event)
}

func (slf *fakeAlerts) all() []AlertEvent {
	slf.mu.Lock()
	defer slf.mu.Unlock()
	return append([]AlertEvent{}, slf.events...)
}

type fakeEvents struct {
	mu     sync.Mutex
	events []Event
}

func (slf *fakeEvents) Publish(event Event) {
	slf.mu.Lock()
	defer slf.mu.Unlock()
	slf.events = append(slf.events, event)
}

func (slf *fakeEvents) kinds() []string {
	slf.mu.Lock()
	defer slf.mu.Unlock()
	var out []string
	for _, event := range slf.events {
		out = append(out, event.Kind)
	}
	return out
}

// ============ Test runtime and workflow builders ============

type testEnv struct {
	records      *fakeRecordStore
	llm          *fakeLLM
	submissions  *fakeSubmissions
	schemas      *fakeSchemas
	variables    *fakeVariables
	frameworks   *fakeFrameworks
	cache        *fakeCache
	integrations *fakeIntegrations
	alerts       *fakeAlerts
	events       *fakeEvents
	rt           *Runtime
	runner       *Runner
}

func newTestEnv() *testEnv {
	env := &testEnv{
		records:      newFakeRecordStore(),
		llm:          &fakeLLM{},
		submissions:  &fakeSubmissions{},
		schemas:      &fakeSchemas{},
		variables:    &fakeVariables{values: map[string]*models.Variable{}},
		frameworks:   &fakeFrameworks{frameworks: map[string]*models.Framework{}},
		cache:        newFakeCache(),
		integrations: &fakeIntegrations{},
		alerts:       &fakeAlerts{},
		events:       &fakeEvents{},
	}
	env.rt = &Runtime{
		Records:      env.records,
		LLM:          env.llm,
		Schemas:      env.schemas,
		Submissions:  env.submissions,
		Variables:    env.variables,
		Frameworks:   env.frameworks,
		Cache:        env.cache,
		Integrations: env.integrations,
		Alerts:       env.alerts,
		Events:       env.events,
		DefaultModel: "test-model",
		Logger:       zerolog.Nop(),
	}
	env.runner = NewRunner(env.rt)
	return env
}

func (slf *testEnv) withEvaluator() *testEnv {
	slf.rt.Evaluator = NewEvaluator(slf.llm, "eval-model", zerolog.Nop())
	return slf
}

func mustNode(t *testing.T, id string, nodeType models.NodeType, data any) models.Node {
	t.Helper()
	node := models.Node{ID: id, Type: nodeType, Label: id}
	require.NoError(t, node.SetData(data))
	return node
}

func promptNode(t *testing.T, id string, parts ...models.PromptPart) models.Node {
	t.Helper()
	return mustNode(t, id, models.NodeTypePromptTemplate, models.PromptConfig{Parts: parts})
}

func pieceNode(t *testing.T, id string, parts ...models.PromptPart) models.Node {
	t.Helper()
	return mustNode(t, id, models.NodeTypePromptPiece, models.PromptConfig{Parts: parts})
}

func ingestNode(t *testing.T, id string) models.Node {
	t.Helper()
	return mustNode(t, id, models.NodeTypeIngest, models.IngestConfig{})
}

func textPart(text string) models.PromptPart {
	return models.PromptPart{Kind: models.PromptPartText, Text: text}
}

func depPart(targetID string) models.PromptPart {
	return models.PromptPart{Kind: models.PromptPartDependency, TargetNodeID: targetID}
}

func workflowOf(id string, nodes []models.Node, edges ...models.Edge) *models.Workflow {
	return &models.Workflow{ID: id, CompanyID: "acme", Name: id, Active: true, Nodes: nodes, Edges: edges}
}

func metricReply(score int) func(pkg.ChatRequest) (*pkg.ChatResponse, error) {
	return func(req pkg.ChatRequest) (*pkg.ChatResponse, error) {
		return &pkg.ChatResponse{
			Content:      fmt.Sprintf(`{"score": %d, "reasoning": "test"}`, score),
			FinishReason: "stop",
		}, nil
	}
}
