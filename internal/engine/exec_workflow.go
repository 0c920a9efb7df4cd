package engine

import (
	"context"

	"cascade/internal/api/models"
)

// workflowExecutor is the nested-workflow stub: it references the target
// workflow's latest persisted outputs rather than executing it recursively.
type workflowExecutor struct{}

func (workflowExecutor) Execute(ctx context.Context, node *models.Node, p *pass) (any, error) {
	config, err := node.GetWorkflowConfig()
	if err != nil {
		return nil, err
	}

	records, err := p.rt.Records.ListByWorkflow(ctx, p.companyID, config.TargetWorkflowID)
	if err != nil {
		return nil, err
	}

	outputs := make(map[string]any, len(records))
	for _, record := range records {
		payload, err := record.Payload()
		if err != nil {
			continue
		}
		key := record.NodeLabel
		if key == "" {
			key = record.NodeID
		}
		outputs[key] = payload.Output
	}

	return map[string]any{
		"workflowId": config.TargetWorkflowID,
		"outputs":    outputs,
	}, nil
}
