package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"cascade/internal/api/models"
)

type datasetExecutor struct{}

func (datasetExecutor) Execute(ctx context.Context, node *models.Node, p *pass) (any, error) {
	config, err := node.GetDatasetConfig()
	if err != nil {
		return nil, err
	}

	var output any

	switch config.Source {
	case models.DatasetSourceStatic:
		if config.Value != nil {
			var value any
			if err := json.Unmarshal(config.Value, &value); err != nil {
				return nil, fmt.Errorf("invalid static dataset value: %w", err)
			}
			output = value
		} else {
			output = ""
		}

	case models.DatasetSourceAggregate:
		aggregate := make(map[string]any)
		for _, ref := range p.graph.DependenciesOf(node.ID) {
			value, err := p.resolveRef(ctx, ref)
			if err != nil {
				return nil, err
			}
			key := ref.NodeID
			if ref.Local() {
				if dep := p.graph.Node(ref.NodeID); dep != nil && dep.Label != "" {
					key = dep.Label
				}
			}
			aggregate[key] = value
		}
		output = aggregate

	case models.DatasetSourceSchema:
		snapshot, err := p.liveSchemaSnapshot(ctx)
		if err != nil {
			return nil, err
		}
		output = snapshot

	case models.DatasetSourceSharedCache:
		value, ok, err := p.rt.Cache.Read(ctx, p.companyID, config.CacheID)
		if err != nil {
			return nil, err
		}
		if !ok {
			value = map[string]any{}
		}
		return value, nil

	case models.DatasetSourceIngest:
		submissions, err := p.rt.Submissions.Recent(ctx, p.companyID)
		if err != nil {
			return nil, err
		}
		output = SelectSubmission(submissions)

	default:
		return nil, fmt.Errorf("unknown dataset source: %s", config.Source)
	}

	// Publish to the shared partition so other workflows can read it.
	if config.CacheID != "" {
		if err := p.rt.Cache.Write(ctx, p.companyID, config.CacheID, output); err != nil {
			p.rt.Logger.Error().Err(err).Str("cacheId", config.CacheID).Msg("Failed to publish dataset to shared cache")
		}
	}

	return output, nil
}
