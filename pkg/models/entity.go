package models

import "time"

// Entity is a capital-seeking company profile. Industry, stage and description
// are nil when the profile left them empty.
type Entity struct {
	ID          string    `json:"id" db:"id"`
	CompanyName string    `json:"company_name" db:"company_name"`
	Industry    *string   `json:"industry" db:"industry"`
	Stage       *string   `json:"stage" db:"stage"`
	Description *string   `json:"description" db:"description"`
	City        *string   `json:"city,omitempty" db:"city"`
	Country     *string   `json:"country,omitempty" db:"country"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
