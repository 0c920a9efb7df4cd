package models

import "time"

// ApiKey authenticates ingestion callers. KeyHash is the SHA-256 hex of the
// raw key, so lookups stay a single indexed query. WorkflowID assigns the
// workflow that processes this caller's submissions.
type ApiKey struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	CompanyID  string     `gorm:"index" json:"companyId"`
	WorkflowID string     `json:"workflowId"`
	Label      string     `json:"label"`
	KeyHash    string     `gorm:"uniqueIndex" json:"-"`
	Active     bool       `json:"active"`
	LastUsedAt *time.Time `json:"lastUsedAt,omitempty"`
}
