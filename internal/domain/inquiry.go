package domain

import (
	"strings"
	"time"
)

// Draft holds caller-supplied inquiry fields before persistence.
type Draft struct {
	Name        string `json:"name"`
	Company     string `json:"company"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Requirement string `json:"requirement"`
}

// Normalize trims surrounding whitespace from every field. Line breaks inside
// the requirement are kept.
func (d Draft) Normalize() Draft {
	return Draft{
		Name:        strings.TrimSpace(d.Name),
		Company:     strings.TrimSpace(d.Company),
		Email:       strings.TrimSpace(d.Email),
		Phone:       strings.TrimSpace(d.Phone),
		Requirement: strings.TrimSpace(d.Requirement),
	}
}

// MissingFields returns the JSON names of empty fields, in declaration order.
func (d Draft) MissingFields() []string {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"name", d.Name},
		{"company", d.Company},
		{"email", d.Email},
		{"phone", d.Phone},
		{"requirement", d.Requirement},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// Inquiry represents a persisted contact form submission. It is never
// updated or deleted once created.
type Inquiry struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Company     string    `gorm:"not null" json:"company"`
	Email       string    `gorm:"not null;index" json:"email"`
	Phone       string    `gorm:"not null" json:"phone"`
	Requirement string    `gorm:"type:text;not null" json:"requirement"`
	CreatedAt   time.Time `gorm:"not null;index" json:"created_at"`
}

// TableName specifies the table name for Inquiry
func (Inquiry) TableName() string {
	return "inquiries"
}
