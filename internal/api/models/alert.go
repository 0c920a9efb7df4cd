package models

import "time"

type AlertType string

const (
	AlertTypeModelUnavailable AlertType = "model_unavailable"
	AlertTypeTokenTruncation  AlertType = "token_truncation"
	AlertTypeLowQuality       AlertType = "low_quality"
)

type AlertSeverity string

const (
	AlertSeverityWarning  AlertSeverity = "warning"
	AlertSeverityCritical AlertSeverity = "critical"
)

// Alert is an operational alert deduplicated by DedupKey: repeated
// occurrences bump the counter instead of inserting new rows.
type Alert struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	DedupKey string `gorm:"uniqueIndex" json:"dedupKey"`

	AlertType     AlertType     `json:"alertType"`
	Severity      AlertSeverity `json:"severity"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	AffectedModel string        `json:"affectedModel"`

	CompanyID  string `gorm:"index" json:"companyId"`
	WorkflowID string `json:"workflowId"`
	NodeID     string `json:"nodeId"`

	OccurrenceCount int        `json:"occurrenceCount"`
	FirstSeenAt     time.Time  `json:"firstSeenAt"`
	LastSeenAt      time.Time  `json:"lastSeenAt"`
	IsResolved      bool       `json:"isResolved"`
	ResolvedAt      *time.Time `json:"resolvedAt,omitempty"`
}
