package response

import "time"

// CascadeSummaryDTO aggregates what one run did.
type CascadeSummaryDTO struct {
	Executed        []string `json:"executed"`
	Cached          []string `json:"cached"`
	Errored         []string `json:"errored,omitempty"`
	ExecutionTimeMs int64    `json:"executionTimeMs"`
}

// IngestNodeResultDTO is one evaluated node output returned with a submission.
type IngestNodeResultDTO struct {
	Output     any `json:"output"`
	Evaluation any `json:"evaluation,omitempty"`
}

// IngestResponseDTO summarizes what one submission triggered.
type IngestResponseDTO struct {
	Success      bool                           `json:"success"`
	SubmissionID string                         `json:"submissionId"`
	WorkflowID   string                         `json:"workflowId"`
	Status       string                         `json:"status"`
	Cascade      CascadeSummaryDTO              `json:"cascade"`
	Results      map[string]IngestNodeResultDTO `json:"results,omitempty"`
}

type RetestNodeDTO struct {
	NodeID     string    `json:"nodeId"`
	Output     any       `json:"output"`
	Cached     bool      `json:"cached"`
	ExecutedAt time.Time `json:"executedAt"`
	Error      string    `json:"error,omitempty"`
}

type RetestResponseDTO struct {
	WorkflowID string            `json:"workflowId"`
	Cascade    CascadeSummaryDTO `json:"cascade"`
	Results    []RetestNodeDTO   `json:"results"`
}

// RecordDTO is one persisted node execution record.
type RecordDTO struct {
	NodeID         string    `json:"nodeId"`
	NodeType       string    `json:"nodeType"`
	NodeLabel      string    `json:"nodeLabel"`
	Output         any       `json:"output"`
	Evaluation     any       `json:"evaluation,omitempty"`
	Flags          []string  `json:"flags,omitempty"`
	ContentHash    string    `json:"contentHash"`
	Version        int       `json:"version"`
	LastExecutedAt time.Time `json:"lastExecutedAt"`
}
