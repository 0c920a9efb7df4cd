package models

import "time"

// SchemaDefinition mirrors the structured "single source of truth" company
// data maintained by the approval workflow. The engine only reads it.
type SchemaDefinition struct {
	ID         string    `gorm:"primaryKey" json:"id"`
	CompanyID  string    `gorm:"index" json:"companyId"`
	Name       string    `json:"name"`
	Definition NodeData  `gorm:"type:jsonb" json:"definition"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
