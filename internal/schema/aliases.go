package schema

// AliasDictionary maps each canonical field to the header variants observed
// in exports from banks, telcos, exchanges and forensic extraction tools.
// Matching is case-insensitive; an incoming header matches an alias when it
// equals the alias or is contained within it.
var AliasDictionary = map[string][]string{
	FieldFromAccount: {
		"sender_account", "source_account", "acc_from", "account_from",
		"from_acc", "debit_account", "origin_account", "sender_acc_no",
	},
	FieldToAccount: {
		"receiver_account", "destination_account", "acc_to", "account_to",
		"to_acc", "credit_account", "beneficiary_account", "receiver_acc_no",
	},
	FieldAmount: {
		"transfer_amount", "txn_amount", "transaction_amount", "value",
		"amount_thb", "sum", "total",
	},
	FieldFromName: {
		"sender_name", "source_name", "payer_name", "account_holder",
	},
	FieldToName: {
		"receiver_name", "destination_name", "payee_name", "beneficiary_name",
	},
	FieldFromBank: {
		"sender_bank", "source_bank", "bank_from", "origin_bank",
	},
	FieldToBank: {
		"receiver_bank", "destination_bank", "bank_to", "beneficiary_bank",
	},
	FieldDate: {
		"transaction_date", "txn_date", "transfer_date", "datetime",
		"timestamp", "call_date", "tx_date",
	},
	FieldFromNumber: {
		"caller", "calling_number", "a_number", "msisdn_a", "origin_number",
		"phone_from", "src_number",
	},
	FieldToNumber: {
		"callee", "called_number", "b_number", "msisdn_b", "destination_number",
		"phone_to", "dst_number",
	},
	FieldDuration: {
		"call_duration", "duration_sec", "duration_seconds", "call_time", "seconds",
	},
	FieldFromWallet: {
		"sender_wallet", "source_wallet", "from_address", "sender_address",
		"input_address", "wallet_from",
	},
	FieldToWallet: {
		"receiver_wallet", "destination_wallet", "to_address", "receiver_address",
		"output_address", "wallet_to",
	},
	FieldAsset: {
		"currency", "coin", "token", "symbol", "blockchain",
	},
	FieldTxHash: {
		"transaction_hash", "txid", "tx_id", "hash", "transaction_id",
	},
	FieldFirstName: {
		"firstname", "given_name", "name", "fname",
	},
	FieldLastName: {
		"lastname", "surname", "family_name", "lname",
	},
	FieldIDCard: {
		"national_id", "citizen_id", "id_number", "idcard", "nid", "thai_id",
	},
	FieldPhoneNumber: {
		"phone", "mobile", "tel", "telephone", "mobile_number", "contact_number",
	},
	FieldBankAccount: {
		"account_number", "account_no", "bank_acc", "acc_no",
	},
	FieldWalletAddress: {
		"wallet", "crypto_address", "crypto_wallet", "btc_address", "eth_address",
	},
	FieldAddress: {
		"home_address", "residence", "location", "addr",
	},
	FieldRole: {
		"person_role", "status", "involvement", "party_type",
	},
}
