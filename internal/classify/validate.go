package classify

import (
	"fmt"

	"github.com/casetrace/smart-import/internal/mapping"
	"github.com/casetrace/smart-import/internal/schema"
)

// Severity grades a field warning.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// FieldWarning is one structured finding about a file's column mappings.
type FieldWarning struct {
	Field    string   `json:"field"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
	Impact   string   `json:"impact"`
}

// LowConfidenceThreshold is the confidence below which an automatic mapping
// gets an advisory warning suggesting manual verification.
const LowConfidenceThreshold = 80

// Validate checks a classified file's mappings against the per-type schema.
// Warnings are ordered: missing required fields first, then missing linking
// fields, then low-confidence automatic mappings. Unknown files validate
// clean; they are simply excluded from analysis.
func Validate(recordType schema.RecordType, mappings []mapping.ColumnMapping) []FieldWarning {
	if recordType == schema.RecordTypeUnknown {
		return nil
	}

	typeSchema, ok := schema.TypeSchemas[recordType]
	if !ok {
		return nil
	}

	fields := mapping.MappedFields(mappings)
	var warnings []FieldWarning

	for _, required := range typeSchema.Required {
		if !fields[required] {
			warnings = append(warnings, FieldWarning{
				Field:    required,
				Message:  fmt.Sprintf("required field %q is not mapped to any column", required),
				Severity: SeverityError,
				Impact:   "file cannot be analyzed",
			})
		}
	}

	for _, linking := range typeSchema.Linking {
		if !fields[linking.Field] {
			warnings = append(warnings, FieldWarning{
				Field:    linking.Field,
				Message:  fmt.Sprintf("linking field %q is not mapped to any column", linking.Field),
				Severity: SeverityWarning,
				Impact:   linking.Impact,
			})
		}
	}

	for _, m := range mappings {
		if m.AutoMapped && m.Confidence > 0 && m.Confidence < LowConfidenceThreshold {
			warnings = append(warnings, FieldWarning{
				Field:    m.CanonicalField,
				Message:  fmt.Sprintf("column %q was auto-mapped to %q with %d%% confidence", m.OriginalHeader, m.CanonicalField, m.Confidence),
				Severity: SeverityInfo,
				Impact:   "verify the mapping manually before running analysis",
			})
		}
	}

	return warnings
}

// HasBlocking reports whether any warning carries error severity. A file with
// a blocking warning keeps the whole batch out of the analysis step until the
// mapping is fixed or the file removed.
func HasBlocking(warnings []FieldWarning) bool {
	for _, w := range warnings {
		if w.Severity == SeverityError {
			return true
		}
	}
	return false
}
