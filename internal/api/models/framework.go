package models

// Framework is a reusable schema/prompt-framework definition injected into
// prompt assemblies. Type "document" marks the schema as opaque text rather
// than structured data.
type Framework struct {
	ID          string   `gorm:"primaryKey" json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Type        string   `json:"type"`
	Schema      NodeData `gorm:"type:jsonb" json:"schema"`
}

const FrameworkTypeDocument = "document"
