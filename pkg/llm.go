package pkg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ChatMessage is one turn of a chat request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest describes a single text-generation call.
// Format, when set, asks the model for structured JSON output matching the
// given JSON schema.
type ChatRequest struct {
	Model       string
	Messages    []ChatMessage
	Temperature float64
	MaxTokens   int
	Format      map[string]any
}

// ChatResponse is the normalized result of a generation call.
// FinishReason "length" means the output was truncated at the token limit.
type ChatResponse struct {
	Content          string
	FinishReason     string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Truncated reports whether generation stopped at the token limit.
func (r *ChatResponse) Truncated() bool {
	return r.FinishReason == "length"
}

// ChatError is a non-2xx response from the generation service.
type ChatError struct {
	StatusCode int
	Message    string
}

func (e *ChatError) Error() string {
	return fmt.Sprintf("generation service returned %d: %s", e.StatusCode, e.Message)
}

type chatApiCall struct {
	Model    string         `json:"model"`
	Messages []ChatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Format   map[string]any `json:"format,omitempty"`
	Options  map[string]any `json:"options"`
}

type chatRawResponse struct {
	Model   string `json:"model"`
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done            bool   `json:"done"`
	DoneReason      string `json:"done_reason"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
}

type chatErrorBody struct {
	Error string `json:"error"`
}

// ChatClient talks to an Ollama-compatible chat endpoint.
type ChatClient struct {
	host   string
	client *http.Client
}

func NewChatClient(host string) *ChatClient {
	return &ChatClient{
		host:   host,
		client: &http.Client{Timeout: 5 * time.Minute},
	}
}

// Chat performs one blocking generation call.
func (slf *ChatClient) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	options := map[string]any{
		"temperature": req.Temperature,
	}
	if req.MaxTokens > 0 {
		options["num_predict"] = req.MaxTokens
	}

	call := chatApiCall{
		Model:    req.Model,
		Messages: req.Messages,
		Stream:   false,
		Format:   req.Format,
		Options:  options,
	}

	data, err := json.Marshal(call)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		fmt.Sprintf("%s/api/chat", slf.host),
		bytes.NewBuffer(data),
	)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := slf.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody chatErrorBody
		message := string(body)
		if err := json.Unmarshal(body, &errBody); err == nil && errBody.Error != "" {
			message = errBody.Error
		}
		return nil, &ChatError{StatusCode: resp.StatusCode, Message: message}
	}

	var raw chatRawResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}
	if !raw.Done {
		return nil, fmt.Errorf("generation call did not complete")
	}

	finishReason := raw.DoneReason
	if finishReason == "" {
		finishReason = "stop"
	}

	return &ChatResponse{
		Content:          raw.Message.Content,
		FinishReason:     finishReason,
		PromptTokens:     raw.PromptEvalCount,
		CompletionTokens: raw.EvalCount,
		TotalTokens:      raw.PromptEvalCount + raw.EvalCount,
	}, nil
}
