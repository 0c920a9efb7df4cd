package models

import "time"

type SubmissionSource string

const (
	// SubmissionSourcePlatform is data synced from an integrated platform.
	SubmissionSourcePlatform SubmissionSource = "platform"
	SubmissionSourceAPI      SubmissionSource = "api"
	SubmissionSourceManual   SubmissionSource = "manual"
)

type SubmissionStatus string

const (
	SubmissionStatusReceived  SubmissionStatus = "received"
	SubmissionStatusProcessed SubmissionStatus = "processed"
	SubmissionStatusFailed    SubmissionStatus = "failed"
)

// IngestionSubmission is one external data submission for a company.
type IngestionSubmission struct {
	ID        string           `gorm:"primaryKey" json:"id"`
	CompanyID string           `gorm:"index" json:"companyId"`
	Source    SubmissionSource `json:"source"`
	Status    SubmissionStatus `json:"status"`
	Data      NodeData         `gorm:"type:jsonb" json:"data"`
	Metadata  NodeData         `gorm:"type:jsonb" json:"metadata"`
	CreatedAt time.Time        `json:"createdAt"`
}
