package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type createRequest struct {
	InvestorID string `json:"investor_id" validate:"required,uuid"`
	Initiator  string `json:"initiator" validate:"omitempty,oneof=entity investor"`
}

func TestValidate(t *testing.T) {
	_, err := Validate(createRequest{InvestorID: "8d3a4c56-2b7e-4f0a-9f43-5a4c5d2e1b10"})
	assert.NoError(t, err)

	_, err = Validate(createRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field 'InvestorID' failed rule 'required'")

	_, err = Validate(createRequest{InvestorID: "8d3a4c56-2b7e-4f0a-9f43-5a4c5d2e1b10", Initiator: "bank"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oneof=entity investor")
}

func TestValidateValue(t *testing.T) {
	assert.NoError(t, ValidateValue(10, "min=1,max=500"))
	assert.Error(t, ValidateValue(0, "min=1,max=500"))
}
