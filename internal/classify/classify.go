// Package classify decides which record type a mapped file represents and
// validates that the mapping can support cross-file analysis.
package classify

import (
	"github.com/casetrace/smart-import/internal/mapping"
	"github.com/casetrace/smart-import/internal/schema"
)

// typeRule is one classification predicate evaluated against the set of
// mapped canonical fields.
type typeRule struct {
	recordType schema.RecordType
	matches    func(fields map[string]bool) bool
}

// typeRules is evaluated in order and the first match wins. Bank, phone and
// crypto schemas are structurally specific (pairs of typed endpoints); person
// is the generic fallback and must stay last so a transaction file that also
// carries a name column is not misclassified.
var typeRules = []typeRule{
	{
		recordType: schema.RecordTypeBank,
		matches: func(fields map[string]bool) bool {
			return fields[schema.FieldFromAccount] && fields[schema.FieldToAccount] && fields[schema.FieldAmount]
		},
	},
	{
		recordType: schema.RecordTypePhone,
		matches: func(fields map[string]bool) bool {
			return fields[schema.FieldFromNumber] && fields[schema.FieldToNumber]
		},
	},
	{
		recordType: schema.RecordTypeCrypto,
		matches: func(fields map[string]bool) bool {
			return fields[schema.FieldFromWallet] && fields[schema.FieldToWallet]
		},
	},
	{
		recordType: schema.RecordTypePerson,
		matches: func(fields map[string]bool) bool {
			return fields[schema.FieldFirstName] || fields[schema.FieldIDCard]
		},
	},
}

// Classify returns the record type and display label for a file's proposed
// mappings. Files matching no rule resolve to unknown, which is excluded from
// entity resolution rather than treated as an error.
func Classify(mappings []mapping.ColumnMapping) (schema.RecordType, string) {
	fields := mapping.MappedFields(mappings)

	for _, rule := range typeRules {
		if rule.matches(fields) {
			return rule.recordType, schema.TypeSchemas[rule.recordType].Label
		}
	}

	return schema.RecordTypeUnknown, "Unknown"
}
