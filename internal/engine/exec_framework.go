package engine

import (
	"context"

	"cascade/internal/api/models"
)

type frameworkExecutor struct{}

func (frameworkExecutor) Execute(ctx context.Context, node *models.Node, p *pass) (any, error) {
	config, err := node.GetFrameworkConfig()
	if err != nil {
		return nil, err
	}
	return p.frameworkDescriptor(ctx, config.FrameworkID)
}
