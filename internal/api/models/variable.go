package models

type Variable struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	CompanyID    string  `gorm:"uniqueIndex:idx_variable_name" json:"companyId"`
	Name         string  `gorm:"uniqueIndex:idx_variable_name" json:"name"`
	Value        *string `json:"value"`
	DefaultValue string  `json:"defaultValue"`
}

// Current returns the variable's value or its default when unset.
func (slf Variable) Current() string {
	if slf.Value != nil {
		return *slf.Value
	}
	return slf.DefaultValue
}
