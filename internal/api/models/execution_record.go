package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// HashMap stores per-dependency content hashes as a jsonb column.
type HashMap map[string]string

// Scan implements sql.Scanner interface
func (m *HashMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("cannot scan type %T into HashMap", value)
	}
}

// Value implements driver.Valuer interface
func (m HashMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// NodeExecutionRecord is the cache unit: one row per (company, workflow,
// node), updated in place on every re-execution and never deleted.
type NodeExecutionRecord struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	CompanyID  string `gorm:"uniqueIndex:idx_execution_record_key" json:"companyId"`
	WorkflowID string `gorm:"uniqueIndex:idx_execution_record_key" json:"workflowId"`
	NodeID     string `gorm:"uniqueIndex:idx_execution_record_key" json:"nodeId"`

	NodeType  NodeType `json:"nodeType"`
	NodeLabel string   `json:"nodeLabel"`
	Data      NodeData `gorm:"type:jsonb" json:"data"`

	// ContentHash is the lowercase hex SHA-256 of the serialized output.
	ContentHash string `json:"contentHash"`
	// DependencyHashes snapshots the dependency hashes in effect at the
	// time the output was computed; compared on the next run to detect
	// staleness.
	DependencyHashes HashMap `gorm:"type:jsonb" json:"dependencyHashes"`

	Version        int       `json:"version"`
	LastExecutedAt time.Time `json:"lastExecutedAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// RecordPayload is the shape of NodeExecutionRecord.Data.
type RecordPayload struct {
	Output     any               `json:"output"`
	Evaluation *EvaluationRecord `json:"evaluation,omitempty"`
	Flags      []string          `json:"flags,omitempty"`
}

// Payload deserializes the record's data column.
func (slf NodeExecutionRecord) Payload() (RecordPayload, error) {
	var payload RecordPayload
	if slf.Data == nil {
		return payload, nil
	}
	if err := json.Unmarshal(slf.Data, &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal record payload: %w", err)
	}
	return payload, nil
}

// SetPayload serializes and stores the record's data column.
func (slf *NodeExecutionRecord) SetPayload(payload RecordPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal record payload: %w", err)
	}
	slf.Data = data
	return nil
}

// MetricScore is one quality metric result; 100 is best.
type MetricScore struct {
	Score     int    `json:"score"`
	Reasoning string `json:"reasoning"`
}

// EvaluationRecord aggregates the weighted quality evaluation of one
// generative output.
type EvaluationRecord struct {
	Hallucination *MetricScore `json:"hallucination,omitempty"`
	DataQuality   *MetricScore `json:"dataQuality,omitempty"`
	Complexity    *MetricScore `json:"complexity,omitempty"`
	OverallScore  int          `json:"overallScore"`
	Flags         []string     `json:"flags,omitempty"`
	EvaluatedAt   time.Time    `json:"evaluatedAt"`
}

// EvaluationHistory is an append-only log, one row per generative execution.
type EvaluationHistory struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CompanyID  string    `gorm:"index" json:"companyId"`
	WorkflowID string    `gorm:"index" json:"workflowId"`
	NodeID     string    `gorm:"index" json:"nodeId"`
	Data       NodeData  `gorm:"type:jsonb" json:"data"`
	CreatedAt  time.Time `json:"createdAt"`
}
