package engine

import (
	"context"

	"cascade/internal/api/models"
)

type variableExecutor struct{}

func (variableExecutor) Execute(ctx context.Context, node *models.Node, p *pass) (any, error) {
	config, err := node.GetVariableConfig()
	if err != nil {
		return nil, err
	}

	variable, err := p.rt.Variables.Value(ctx, p.companyID, config.Name)
	if err != nil {
		return nil, err
	}
	if variable == nil {
		return config.Default, nil
	}

	current := variable.Current()
	if current == "" {
		return config.Default, nil
	}
	return current, nil
}
