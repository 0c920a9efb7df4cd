package request

// IngestDTO is the body of an external data submission. Data carries the
// payload seeded into the workflow's ingest nodes.
type IngestDTO struct {
	Data     map[string]any `json:"data" validate:"required"`
	Metadata map[string]any `json:"metadata"`
}

// RetestDTO asks for a targeted re-run of specific workflow nodes.
type RetestDTO struct {
	CompanyID  string   `json:"companyId" validate:"required"`
	WorkflowID string   `json:"workflowId" validate:"required"`
	NodeIDs    []string `json:"nodeIds" validate:"required,min=1"`
}

type ResolveAlertDTO struct {
	AlertID uint `json:"alertId" validate:"required"`
}
