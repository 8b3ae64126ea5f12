package schema

// RecordType identifies the kind of tabular export a file contains.
type RecordType string

const (
	RecordTypeBank    RecordType = "bank"
	RecordTypePhone   RecordType = "phone"
	RecordTypeCrypto  RecordType = "crypto"
	RecordTypePerson  RecordType = "person"
	RecordTypeUnknown RecordType = "unknown"
)

// Canonical field names for bank transfer records.
const (
	FieldFromAccount = "from_account"
	FieldToAccount   = "to_account"
	FieldAmount      = "amount"
	FieldFromName    = "from_name"
	FieldToName      = "to_name"
	FieldFromBank    = "from_bank"
	FieldToBank      = "to_bank"
	FieldDate        = "date"
)

// Canonical field names for call detail records.
const (
	FieldFromNumber = "from_number"
	FieldToNumber   = "to_number"
	FieldDuration   = "duration"
)

// Canonical field names for crypto transfer records.
const (
	FieldFromWallet = "from_wallet"
	FieldToWallet   = "to_wallet"
	FieldAsset      = "asset"
	FieldTxHash     = "tx_hash"
)

// Canonical field names for person registry records.
const (
	FieldFirstName     = "first_name"
	FieldLastName      = "last_name"
	FieldIDCard        = "id_card"
	FieldPhoneNumber   = "phone_number"
	FieldBankAccount   = "bank_account"
	FieldWalletAddress = "wallet_address"
	FieldAddress       = "address"
	FieldRole          = "role"
)

// CanonicalFields lists every canonical field in a fixed order. The column
// mapper walks this slice so that mapping results are deterministic for a
// given header set.
var CanonicalFields = []string{
	FieldFromAccount,
	FieldToAccount,
	FieldAmount,
	FieldFromName,
	FieldToName,
	FieldFromBank,
	FieldToBank,
	FieldDate,
	FieldFromNumber,
	FieldToNumber,
	FieldDuration,
	FieldFromWallet,
	FieldToWallet,
	FieldAsset,
	FieldTxHash,
	FieldFirstName,
	FieldLastName,
	FieldIDCard,
	FieldPhoneNumber,
	FieldBankAccount,
	FieldWalletAddress,
	FieldAddress,
	FieldRole,
}

// TypeSchema describes which canonical fields a record type needs. Required
// fields block analysis when absent; linking fields only degrade cross-file
// association and carry a human-readable impact statement.
type TypeSchema struct {
	Label    string
	Required []string
	Linking  []LinkingField
}

// LinkingField is an optional field whose absence weakens entity linking.
type LinkingField struct {
	Field  string
	Impact string
}

// TypeSchemas is the per-type validation table. Pure configuration data,
// consumed by the field validator.
var TypeSchemas = map[RecordType]TypeSchema{
	RecordTypeBank: {
		Label:    "Bank Transfers",
		Required: []string{FieldFromAccount, FieldToAccount, FieldAmount},
		Linking: []LinkingField{
			{Field: FieldDate, Impact: "transfers cannot be placed on the case timeline"},
			{Field: FieldFromName, Impact: "cannot associate this record with a known registry entity"},
		},
	},
	RecordTypePhone: {
		Label:    "Call Records",
		Required: []string{FieldFromNumber, FieldToNumber},
		Linking: []LinkingField{
			{Field: FieldDuration, Impact: "call frequency signals will not include call time"},
			{Field: FieldDate, Impact: "calls cannot be placed on the case timeline"},
		},
	},
	RecordTypeCrypto: {
		Label:    "Crypto Transfers",
		Required: []string{FieldFromWallet, FieldToWallet},
		Linking: []LinkingField{
			{Field: FieldAmount, Impact: "transferred value cannot be accumulated per wallet"},
			{Field: FieldDate, Impact: "transfers cannot be placed on the case timeline"},
		},
	},
	RecordTypePerson: {
		Label:    "Person Registry",
		Required: []string{FieldFirstName},
		Linking: []LinkingField{
			{Field: FieldIDCard, Impact: "persons can only be deduplicated by constructed name"},
			{Field: FieldPhoneNumber, Impact: "call records cannot be attributed to this person"},
			{Field: FieldBankAccount, Impact: "bank transfers cannot be attributed to this person"},
			{Field: FieldWalletAddress, Impact: "crypto transfers cannot be attributed to this person"},
		},
	},
}
