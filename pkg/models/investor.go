package models

// Investor is a read-only directory row. Free-text columns are never nil;
// missing values are stored as empty strings.
type Investor struct {
	ID               string   `json:"id" db:"id"`
	FirmName         string   `json:"firm_name" db:"firm_name"`
	Website          string   `json:"website" db:"website"`
	HQLocation       string   `json:"hq_location" db:"hq_location"`
	InvestmentFocus  string   `json:"investment_focus" db:"investment_focus"`
	Stages           string   `json:"stages" db:"stages"`
	InvestmentThesis string   `json:"investment_thesis" db:"investment_thesis"`
	InvestorType     string   `json:"investor_type" db:"investor_type"`
	MinCheckSize     *float64 `json:"min_check_size,omitempty" db:"min_check_size"`
	MaxCheckSize     *float64 `json:"max_check_size,omitempty" db:"max_check_size"`
}
