package engine

import (
	"context"

	"cascade/internal/api/models"
	"cascade/pkg"
)

// promptTemplateExecutor assembles the prompt and calls the text-generation
// service.
type promptTemplateExecutor struct{}

func (promptTemplateExecutor) Execute(ctx context.Context, node *models.Node, p *pass) (any, error) {
	config, err := node.GetPromptConfig()
	if err != nil {
		return nil, err
	}

	prompt, err := assemblePrompt(ctx, node, p)
	if err != nil {
		return nil, err
	}
	p.prompts[node.ID] = prompt

	model := config.Model
	if model == "" {
		model = p.rt.DefaultModel
	}

	var messages []pkg.ChatMessage
	if config.SystemPrompt != "" {
		messages = append(messages, pkg.ChatMessage{Role: "system", Content: config.SystemPrompt})
	}
	messages = append(messages, pkg.ChatMessage{Role: "user", Content: prompt})

	resp, err := p.rt.LLM.Chat(ctx, pkg.ChatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: config.Temperature,
		MaxTokens:   config.MaxTokens,
	})
	if err != nil {
		if event := ClassifyGenerationError(err, model, p.companyID, p.workflowID, node.ID); event != nil {
			p.rt.raiseAlert(ctx, *event)
		}
		return nil, err
	}

	if resp.Truncated() {
		p.rt.raiseAlert(ctx, TruncationEvent(model, p.companyID, p.workflowID, node.ID))
	}

	return resp.Content, nil
}

// promptPieceExecutor runs the same assembly but returns the text directly,
// no generation call.
type promptPieceExecutor struct{}

func (promptPieceExecutor) Execute(ctx context.Context, node *models.Node, p *pass) (any, error) {
	prompt, err := assemblePrompt(ctx, node, p)
	if err != nil {
		return nil, err
	}
	return prompt, nil
}
