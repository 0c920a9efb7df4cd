package models

import "encoding/json"

// PromptConfig configures promptTemplate, promptPiece and agent nodes.
// promptPiece nodes ignore the generation fields: they return the assembled
// text without calling the model.
type PromptConfig struct {
	Model        string       `json:"model,omitempty"`
	Temperature  float64      `json:"temperature,omitempty"`
	MaxTokens    int          `json:"maxTokens,omitempty"`
	SystemPrompt string       `json:"systemPrompt,omitempty"`
	Parts        []PromptPart `json:"parts"`
	Evaluation   *EvalToggles `json:"evaluation,omitempty"`
}

// EvalToggles enables or disables individual quality metrics. A nil pointer
// means enabled.
type EvalToggles struct {
	Hallucination *bool `json:"hallucination,omitempty"`
	DataQuality   *bool `json:"dataQuality,omitempty"`
	Complexity    *bool `json:"complexity,omitempty"`
}

func enabled(v *bool) bool { return v == nil || *v }

func (slf *EvalToggles) HallucinationEnabled() bool {
	return slf == nil || enabled(slf.Hallucination)
}

func (slf *EvalToggles) DataQualityEnabled() bool {
	return slf == nil || enabled(slf.DataQuality)
}

func (slf *EvalToggles) ComplexityEnabled() bool {
	return slf == nil || enabled(slf.Complexity)
}

type DatasetSource string

const (
	// DatasetSourceStatic returns a configured literal.
	DatasetSourceStatic DatasetSource = "static"
	// DatasetSourceAggregate collects the outputs of the node's dependencies.
	DatasetSourceAggregate DatasetSource = "aggregate"
	// DatasetSourceSchema snapshots the structured-schema definitions live.
	DatasetSourceSchema DatasetSource = "schema"
	// DatasetSourceSharedCache reads a named cache partition shared across
	// workflows.
	DatasetSourceSharedCache DatasetSource = "sharedCache"
	// DatasetSourceIngest reads the most recent qualifying external submission.
	DatasetSourceIngest DatasetSource = "ingest"
)

type DatasetConfig struct {
	Source DatasetSource   `json:"source"`
	Value  json.RawMessage `json:"value,omitempty"`
	// CacheID names the shared cache partition; distinct from the node id.
	CacheID string       `json:"cacheId,omitempty"`
	Parts   []PromptPart `json:"parts,omitempty"`
}

type VariableConfig struct {
	Name    string `json:"name"`
	Default string `json:"default,omitempty"`
}

type FrameworkConfig struct {
	FrameworkID string `json:"frameworkId"`
}

type IngestConfig struct{}

type WorkflowConfig struct {
	TargetWorkflowID string `json:"targetWorkflowId"`
}

type IntegrationConfig struct {
	// Capability names the external call, e.g. "webScrape".
	Capability string `json:"capability"`
	URL        string `json:"url,omitempty"`
}
