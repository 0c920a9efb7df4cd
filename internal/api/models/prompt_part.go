package models

type PromptPartKind string

const (
	PromptPartText       PromptPartKind = "text"
	PromptPartDependency PromptPartKind = "dependency"
	PromptPartFramework  PromptPartKind = "framework"
)

// PromptPart is one ordered atom of a prompt assembly: a text literal, a
// reference to another node's output, or a framework injection.
type PromptPart struct {
	Kind PromptPartKind `json:"kind"`
	Text string         `json:"text,omitempty"`

	// Dependency fields. WorkflowID is set for cross-workflow references,
	// which are resolved against persisted records rather than the current
	// run's in-memory results.
	TargetNodeID      string `json:"targetNodeId,omitempty"`
	WorkflowID        string `json:"workflowId,omitempty"`
	TriggersExecution *bool  `json:"triggersExecution,omitempty"`
	SystemPromptID    string `json:"systemPromptId,omitempty"`
	// LiveSchema marks a dependency that bypasses the cache and reads the
	// structured-schema store fresh on every assembly.
	LiveSchema bool `json:"liveSchema,omitempty"`

	FrameworkID string `json:"frameworkId,omitempty"`
}

// Triggers reports whether a change in this dependency marks the owning node
// stale. Defaults to true when unset.
func (slf PromptPart) Triggers() bool {
	return slf.TriggersExecution == nil || *slf.TriggersExecution
}
