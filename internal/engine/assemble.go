package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"cascade/internal/api/models"
)

// partSeparator keeps assembled context readable when the part category
// changes (text vs. dependency vs. framework).
const partSeparator = "\n\n---\n\n"

// assemblePrompt concatenates a node's prompt parts in order, inserting a
// separator between consecutive parts of different categories.
func assemblePrompt(ctx context.Context, node *models.Node, p *pass) (string, error) {
	parts := node.Parts()

	var b strings.Builder
	var lastKind models.PromptPartKind

	for i, part := range parts {
		var value string

		switch part.Kind {
		case models.PromptPartText:
			value = part.Text
		case models.PromptPartDependency:
			ref := DepRef{
				NodeID:     part.TargetNodeID,
				LiveSchema: part.LiveSchema,
			}
			if part.WorkflowID != "" && part.WorkflowID != p.workflowID {
				ref.WorkflowID = part.WorkflowID
			}
			resolved, err := p.resolveRef(ctx, ref)
			if err != nil {
				return "", fmt.Errorf("failed to resolve dependency %s: %w", part.TargetNodeID, err)
			}
			value = stringify(resolved)
		case models.PromptPartFramework:
			descriptor, err := p.frameworkDescriptor(ctx, part.FrameworkID)
			if err != nil {
				return "", err
			}
			value = stringify(descriptor)
		default:
			continue
		}

		if i > 0 {
			if part.Kind != lastKind {
				b.WriteString(partSeparator)
			} else {
				b.WriteString("\n")
			}
		}
		b.WriteString(value)
		lastKind = part.Kind
	}

	return b.String(), nil
}

// frameworkDescriptor serializes a framework as {name, description, type,
// schema}; the schema stays opaque text for "document" frameworks and is
// parsed as structured data otherwise.
func (slf *pass) frameworkDescriptor(ctx context.Context, frameworkID string) (map[string]any, error) {
	framework, err := slf.rt.Frameworks.Find(ctx, frameworkID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve framework %s: %w", frameworkID, err)
	}
	if framework == nil {
		return nil, fmt.Errorf("framework %s not found", frameworkID)
	}

	descriptor := map[string]any{
		"name":        framework.Name,
		"description": framework.Description,
		"type":        framework.Type,
	}

	if framework.Type == models.FrameworkTypeDocument {
		descriptor["schema"] = string(framework.Schema)
	} else {
		var parsed any
		if err := json.Unmarshal(framework.Schema, &parsed); err != nil {
			descriptor["schema"] = string(framework.Schema)
		} else {
			descriptor["schema"] = parsed
		}
	}

	return descriptor, nil
}
