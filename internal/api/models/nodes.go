package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

type NodeType string

const (
	NodeTypePromptTemplate NodeType = "promptTemplate"
	NodeTypePromptPiece    NodeType = "promptPiece"
	NodeTypeDataset        NodeType = "dataset"
	NodeTypeVariable       NodeType = "variable"
	NodeTypeFramework      NodeType = "framework"
	NodeTypeIngest         NodeType = "ingest"
	NodeTypeWorkflow       NodeType = "workflow"
	NodeTypeIntegration    NodeType = "integration"
	NodeTypeAgent          NodeType = "agent"
)

// IsGenerative reports whether the type produces model-generated text that
// should go through quality evaluation.
func (t NodeType) IsGenerative() bool {
	return t == NodeTypePromptTemplate || t == NodeTypeAgent
}

type Node struct {
	ID string `gorm:"primaryKey" json:"id"`
	// Type of the node. It has to be immutable
	Type       NodeType `json:"type"`
	Label      string   `json:"label"`
	Paused     bool     `json:"paused"`
	Data       NodeData `json:"data" gorm:"type:jsonb"`
	WorkflowID string   `gorm:"index" json:"workflowId"`
}

// SetData serializes and stores typed config data
func (slf *Node) SetData(data any) error {
	// Validate data type matches node type
	switch slf.Type {
	case NodeTypePromptTemplate, NodeTypePromptPiece, NodeTypeAgent:
		if _, ok := data.(PromptConfig); !ok {
			return errors.New("invalid data type for " + string(slf.Type) + " node")
		}
	case NodeTypeDataset:
		if _, ok := data.(DatasetConfig); !ok {
			return errors.New("invalid data type for dataset node")
		}
	case NodeTypeVariable:
		if _, ok := data.(VariableConfig); !ok {
			return errors.New("invalid data type for variable node")
		}
	case NodeTypeFramework:
		if _, ok := data.(FrameworkConfig); !ok {
			return errors.New("invalid data type for framework node")
		}
	case NodeTypeIngest:
		if _, ok := data.(IngestConfig); !ok {
			return errors.New("invalid data type for ingest node")
		}
	case NodeTypeWorkflow:
		if _, ok := data.(WorkflowConfig); !ok {
			return errors.New("invalid data type for workflow node")
		}
	case NodeTypeIntegration:
		if _, ok := data.(IntegrationConfig); !ok {
			return errors.New("invalid data type for integration node")
		}
	default:
		return errors.New("unknown node type: " + string(slf.Type))
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}
	slf.Data = jsonData
	return nil
}

// GetTypedData deserializes the JSON data into the expected type
func GetTypedData[T any](node Node) (T, error) {
	var result T
	if node.Data == nil {
		return result, errors.New("node data is nil")
	}
	if err := json.Unmarshal(node.Data, &result); err != nil {
		return result, fmt.Errorf("failed to unmarshal data: %w", err)
	}
	return result, nil
}

func (slf Node) GetPromptConfig() (PromptConfig, error) {
	switch slf.Type {
	case NodeTypePromptTemplate, NodeTypePromptPiece, NodeTypeAgent:
		return GetTypedData[PromptConfig](slf)
	}
	return PromptConfig{}, errors.New("node is not a prompt type")
}

func (slf Node) GetDatasetConfig() (DatasetConfig, error) {
	if slf.Type != NodeTypeDataset {
		return DatasetConfig{}, errors.New("node is not a dataset type")
	}
	return GetTypedData[DatasetConfig](slf)
}

func (slf Node) GetVariableConfig() (VariableConfig, error) {
	if slf.Type != NodeTypeVariable {
		return VariableConfig{}, errors.New("node is not a variable type")
	}
	return GetTypedData[VariableConfig](slf)
}

func (slf Node) GetFrameworkConfig() (FrameworkConfig, error) {
	if slf.Type != NodeTypeFramework {
		return FrameworkConfig{}, errors.New("node is not a framework type")
	}
	return GetTypedData[FrameworkConfig](slf)
}

func (slf Node) GetWorkflowConfig() (WorkflowConfig, error) {
	if slf.Type != NodeTypeWorkflow {
		return WorkflowConfig{}, errors.New("node is not a workflow type")
	}
	return GetTypedData[WorkflowConfig](slf)
}

func (slf Node) GetIntegrationConfig() (IntegrationConfig, error) {
	if slf.Type != NodeTypeIntegration {
		return IntegrationConfig{}, errors.New("node is not an integration type")
	}
	return GetTypedData[IntegrationConfig](slf)
}

// Parts returns the ordered prompt parts embedded in the node config, or nil
// for node types that carry none.
func (slf Node) Parts() []PromptPart {
	switch slf.Type {
	case NodeTypePromptTemplate, NodeTypePromptPiece, NodeTypeAgent:
		config, err := slf.GetPromptConfig()
		if err != nil {
			return nil
		}
		return config.Parts
	case NodeTypeDataset:
		config, err := slf.GetDatasetConfig()
		if err != nil {
			return nil
		}
		return config.Parts
	}
	return nil
}
