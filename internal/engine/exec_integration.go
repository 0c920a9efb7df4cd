package engine

import (
	"context"
	"strings"

	"cascade/internal/api/models"
)

// integrationExecutor delegates to an external capability call. A failed call
// produces an inline error-marker output instead of aborting the run.
type integrationExecutor struct{}

func (integrationExecutor) Execute(ctx context.Context, node *models.Node, p *pass) (any, error) {
	config, err := node.GetIntegrationConfig()
	if err != nil {
		return nil, err
	}

	var inputs []string
	if config.URL != "" {
		inputs = append(inputs, config.URL)
	}
	for _, ref := range p.graph.DependenciesOf(node.ID) {
		value, err := p.resolveRef(ctx, ref)
		if err != nil {
			return nil, err
		}
		if rendered := stringify(value); rendered != "" {
			inputs = append(inputs, rendered)
		}
	}

	result, err := p.rt.Integrations.Call(ctx, config.Capability, strings.Join(inputs, "\n\n"))
	if err != nil {
		return errorOutputPrefix + err.Error(), nil
	}
	return result, nil
}
