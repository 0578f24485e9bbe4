package dto

import (
	"bytes"
	"encoding/json"
)

// FormValue is a form field that accepts a JSON string or a bare number
type FormValue string

func (v *FormValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*v = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = FormValue(s)
		return nil
	}
	if len(b) > 0 && b[0] == '[' {
		// features sent as a JSON array are kept verbatim
		*v = FormValue(b)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*v = FormValue(n)
	return nil
}

// PlanForm is the plan editor payload. Numbers arrive as typed text
// ("1.234,56" or "1234.56") and features either as a JSON array or as a
// textarea with one feature per line.
type PlanForm struct {
	Code          FormValue `json:"code" form:"code"`
	Name          FormValue `json:"name" form:"name"`
	Description   FormValue `json:"description" form:"description"`
	BillingCycle  FormValue `json:"billing_cycle" form:"billing_cycle"`
	Months        FormValue `json:"months" form:"months"`
	PricePerMonth FormValue `json:"price_per_month" form:"price_per_month"`
	Features      FormValue `json:"features" form:"features"`
	IsActive      *bool     `json:"is_active" form:"is_active"`
	SortOrder     FormValue `json:"sort_order" form:"sort_order"`
}

// SetActiveRequest toggles a plan
type SetActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}
