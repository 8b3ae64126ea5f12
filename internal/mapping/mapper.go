// Package mapping proposes canonical-field mappings for a file's header row
// and rewrites raw records onto canonical field names.
package mapping

import (
	"fmt"
	"strings"

	"github.com/casetrace/smart-import/internal/parser"
	"github.com/casetrace/smart-import/internal/schema"
)

// Confidence levels assigned by the mapper, in priority order.
const (
	ConfidenceExact  = 100
	ConfidenceAlias  = 90
	ConfidenceFuzzy  = 70
	ConfidenceNone   = 0
	ConfidenceManual = 100
)

// ColumnMapping records how one original header maps onto a canonical field.
// An unmapped column keeps its original header as the canonical field with
// confidence zero.
type ColumnMapping struct {
	OriginalHeader string `json:"original_header"`
	CanonicalField string `json:"canonical_field"`
	Confidence     int    `json:"confidence"`
	AutoMapped     bool   `json:"auto_mapped"`
}

// MapColumns proposes one ColumnMapping per header. Pure function of the
// header list and the alias dictionary; first matching rule wins:
// exact canonical name, alias match, fuzzy substring match, no match.
func MapColumns(headers []string) []ColumnMapping {
	mappings := make([]ColumnMapping, 0, len(headers))
	for _, header := range headers {
		mappings = append(mappings, mapColumn(header))
	}
	return mappings
}

func mapColumn(header string) ColumnMapping {
	normalized := strings.ToLower(strings.TrimSpace(header))

	// Exact match against a canonical field name.
	for _, field := range schema.CanonicalFields {
		if normalized == field {
			return ColumnMapping{
				OriginalHeader: header,
				CanonicalField: field,
				Confidence:     ConfidenceExact,
				AutoMapped:     true,
			}
		}
	}

	// Alias match: the header equals an alias or is contained within one.
	for _, field := range schema.CanonicalFields {
		for _, alias := range schema.AliasDictionary[field] {
			if normalized == alias || (normalized != "" && strings.Contains(alias, normalized)) {
				return ColumnMapping{
					OriginalHeader: header,
					CanonicalField: field,
					Confidence:     ConfidenceAlias,
					AutoMapped:     true,
				}
			}
		}
	}

	// Fuzzy match: header and canonical field contain one another.
	if normalized != "" {
		for _, field := range schema.CanonicalFields {
			if strings.Contains(normalized, field) || strings.Contains(field, normalized) {
				return ColumnMapping{
					OriginalHeader: header,
					CanonicalField: field,
					Confidence:     ConfidenceFuzzy,
					AutoMapped:     true,
				}
			}
		}
	}

	return ColumnMapping{
		OriginalHeader: header,
		CanonicalField: header,
		Confidence:     ConfidenceNone,
		AutoMapped:     false,
	}
}

// Override replaces one column's mapping with a manual assignment. The
// override is idempotent and leaves every other column untouched.
func Override(mappings []ColumnMapping, header, canonicalField string) ([]ColumnMapping, error) {
	updated := make([]ColumnMapping, len(mappings))
	copy(updated, mappings)

	for i := range updated {
		if updated[i].OriginalHeader == header {
			updated[i].CanonicalField = canonicalField
			updated[i].Confidence = ConfidenceManual
			updated[i].AutoMapped = false
			return updated, nil
		}
	}

	return nil, fmt.Errorf("no column with header %q", header)
}

// MappedFields returns the set of canonical fields that mapped with nonzero
// confidence. The classifier and validator operate on this set.
func MappedFields(mappings []ColumnMapping) map[string]bool {
	fields := make(map[string]bool, len(mappings))
	for _, m := range mappings {
		if m.Confidence > ConfidenceNone {
			fields[m.CanonicalField] = true
		}
	}
	return fields
}

// Apply rewrites raw records keyed by original headers into records keyed by
// canonical field names. Unmapped columns keep their original header as key,
// so no column is dropped.
func Apply(records []parser.RawRecord, mappings []ColumnMapping) []map[string]string {
	applied := make([]map[string]string, 0, len(records))
	for _, record := range records {
		normalized := make(map[string]string, len(mappings))
		for _, m := range mappings {
			if value, ok := record[m.OriginalHeader]; ok {
				normalized[m.CanonicalField] = value
			}
		}
		applied = append(applied, normalized)
	}
	return applied
}
