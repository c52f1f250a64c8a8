package model

import "time"

// FieldStatus is the per-field verdict attached to a validation result.
type FieldStatus string

const (
	FieldValid   FieldStatus = "valid"
	FieldInvalid FieldStatus = "invalid"
	FieldAbsent  FieldStatus = "absent"
)

// ValidationResult is one field's verdict. Results are plain values that
// callers aggregate into a report; a failed check never aborts processing.
type ValidationResult struct {
	Field  string
	Status FieldStatus
	Reason string
}

// Projection is a person record annotated with validation diagnostics, as
// handed to document-filling code. The caller decides whether to proceed on
// invalid fields; the core only reports.
type Projection struct {
	Record      PersonRecord
	Checks      []ValidationResult
	GeneratedAt time.Time
}

// Check returns the result for the named field, or nil if the field was not
// checked.
func (p *Projection) Check(field string) *ValidationResult {
	for i := range p.Checks {
		if p.Checks[i].Field == field {
			return &p.Checks[i]
		}
	}
	return nil
}
