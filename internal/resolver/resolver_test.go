package resolver

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casetrace/smart-import/internal/schema"
)

func testResolver() *Resolver {
	return NewResolver(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func edgesOfType(g *Graph, edgeType string) []*Edge {
	var matched []*Edge
	for _, e := range g.Edges() {
		if e.Type == edgeType {
			matched = append(matched, e)
		}
	}
	return matched
}

func TestResolve_CrossFileLinking(t *testing.T) {
	// A registry person owning account 111 must absorb the transaction
	// signal of a bank transfer sent from that account, while the transfer
	// edge itself stays between the two accounts.
	files := []InputFile{
		{
			Name: "persons.csv",
			Type: schema.RecordTypePerson,
			Records: []map[string]string{
				{
					schema.FieldFirstName:   "Somchai",
					schema.FieldBankAccount: "111",
				},
			},
		},
		{
			Name: "transfers.csv",
			Type: schema.RecordTypeBank,
			Records: []map[string]string{
				{
					schema.FieldFromAccount: "111",
					schema.FieldToAccount:   "222",
					schema.FieldAmount:      "50000",
				},
			},
		},
	}

	graph := testResolver().Resolve(files)

	person, ok := graph.Lookup(EntityKey(EntityPerson, "Somchai"))
	require.True(t, ok)
	assert.Equal(t, 50000.0, person.Metadata.TotalSent)
	assert.Equal(t, 1, person.Metadata.TransactionCount)
	assert.ElementsMatch(t, []string{"persons.csv", "transfers.csv"}, person.Sources)

	transfers := edgesOfType(graph, EdgeMoneyTransfer)
	require.Len(t, transfers, 1)
	assert.Equal(t, EntityKey(EntityAccount, "111"), transfers[0].SourceKey)
	assert.Equal(t, EntityKey(EntityAccount, "222"), transfers[0].TargetKey)

	ownerships := edgesOfType(graph, EdgeOwnership)
	require.Len(t, ownerships, 1)
	assert.Equal(t, person.Key, ownerships[0].SourceKey)
}

func TestResolve_IdentityIsExactNormalizedMatch(t *testing.T) {
	t.Run("Case And Whitespace Collapse", func(t *testing.T) {
		files := []InputFile{
			{
				Name: "transfers.csv",
				Type: schema.RecordTypeBank,
				Records: []map[string]string{
					{schema.FieldFromAccount: "ABC-1", schema.FieldToAccount: "222", schema.FieldAmount: "100"},
					{schema.FieldFromAccount: " abc-1 ", schema.FieldToAccount: "333", schema.FieldAmount: "200"},
				},
			},
		}

		graph := testResolver().Resolve(files)

		sender, ok := graph.Lookup(EntityKey(EntityAccount, "ABC-1"))
		require.True(t, ok)
		assert.Equal(t, 300.0, sender.Metadata.TotalSent)
		assert.Equal(t, 2, sender.Metadata.TransactionCount)
		assert.Len(t, graph.Entities(), 3)
	})

	t.Run("Different Values Stay Distinct", func(t *testing.T) {
		files := []InputFile{
			{
				Name: "transfers.csv",
				Type: schema.RecordTypeBank,
				Records: []map[string]string{
					{schema.FieldFromAccount: "111", schema.FieldToAccount: "222", schema.FieldAmount: "100"},
					{schema.FieldFromAccount: "1110", schema.FieldToAccount: "222", schema.FieldAmount: "100"},
				},
			},
		}

		graph := testResolver().Resolve(files)

		assert.Len(t, graph.Entities(), 3)
	})
}

func TestResolve_EdgesAreNeverDeduplicated(t *testing.T) {
	record := map[string]string{
		schema.FieldFromAccount: "111",
		schema.FieldToAccount:   "222",
		schema.FieldAmount:      "100",
	}
	files := []InputFile{
		{
			Name:    "transfers.csv",
			Type:    schema.RecordTypeBank,
			Records: []map[string]string{record, record, record},
		},
	}

	graph := testResolver().Resolve(files)

	assert.Len(t, graph.Edges(), 3)
	sender, _ := graph.Lookup(EntityKey(EntityAccount, "111"))
	assert.Equal(t, 300.0, sender.Metadata.TotalSent)
	assert.Equal(t, 3, sender.Metadata.TransactionCount)
}

func TestResolve_CallRecords(t *testing.T) {
	files := []InputFile{
		{
			Name: "persons.csv",
			Type: schema.RecordTypePerson,
			Records: []map[string]string{
				{schema.FieldFirstName: "Somchai", schema.FieldPhoneNumber: "0812345678"},
			},
		},
		{
			Name: "calls.csv",
			Type: schema.RecordTypePhone,
			Records: []map[string]string{
				{schema.FieldFromNumber: "0812345678", schema.FieldToNumber: "0898765432", schema.FieldDuration: "120"},
				{schema.FieldFromNumber: "0812345678", schema.FieldToNumber: "0898765432", schema.FieldDuration: "45"},
			},
		},
	}

	graph := testResolver().Resolve(files)

	phone, ok := graph.Lookup(EntityKey(EntityPhone, "0812345678"))
	require.True(t, ok)
	assert.Equal(t, 2, phone.Metadata.CallCount)
	assert.Equal(t, 165.0, phone.Metadata.CallDuration)

	person, ok := graph.Lookup(EntityKey(EntityPerson, "Somchai"))
	require.True(t, ok)
	assert.Equal(t, 2, person.Metadata.CallCount)

	calls := edgesOfType(graph, EdgePhoneCall)
	require.Len(t, calls, 2)
	assert.Equal(t, "120s", calls[0].Label)
}

func TestResolve_CryptoFlags(t *testing.T) {
	files := []InputFile{
		{
			Name: "persons.csv",
			Type: schema.RecordTypePerson,
			Records: []map[string]string{
				{schema.FieldFirstName: "Somchai", schema.FieldWalletAddress: "0xaaa"},
			},
		},
		{
			Name: "crypto.csv",
			Type: schema.RecordTypeCrypto,
			Records: []map[string]string{
				{
					schema.FieldFromWallet: "0xaaa",
					schema.FieldToWallet:   "tornado-cash-router",
					schema.FieldAmount:     "2.5",
					schema.FieldAsset:      "eth",
				},
			},
		},
	}

	graph := testResolver().Resolve(files)

	wallet, ok := graph.Lookup(EntityKey(EntityWallet, "0xaaa"))
	require.True(t, ok)
	assert.True(t, wallet.Metadata.UsedMixer)

	dest, ok := graph.Lookup(EntityKey(EntityWallet, "tornado-cash-router"))
	require.True(t, ok)
	assert.True(t, dest.Metadata.MixerLike)

	person, ok := graph.Lookup(EntityKey(EntityPerson, "Somchai"))
	require.True(t, ok)
	assert.True(t, person.Metadata.UsedMixer)
	assert.Equal(t, 2.5, person.Metadata.TotalSent)

	transfers := edgesOfType(graph, EdgeCryptoTransfer)
	require.Len(t, transfers, 1)
	assert.Equal(t, "2.50 ETH", transfers[0].Label)
}

func TestResolve_PersonIdentity(t *testing.T) {
	t.Run("ID Card Beats Constructed Name", func(t *testing.T) {
		files := []InputFile{
			{
				Name: "persons.csv",
				Type: schema.RecordTypePerson,
				Records: []map[string]string{
					{schema.FieldFirstName: "Somchai", schema.FieldLastName: "Jaidee", schema.FieldIDCard: "110170"},
					{schema.FieldFirstName: "Somchai J.", schema.FieldIDCard: "110170"},
				},
			},
		}

		graph := testResolver().Resolve(files)

		person, ok := graph.Lookup(EntityKey(EntityPerson, "110170"))
		require.True(t, ok)
		assert.Equal(t, "Somchai Jaidee", person.Label)
		assert.Len(t, graph.Entities(), 1)
	})

	t.Run("Records Without Any Identity Are Skipped", func(t *testing.T) {
		files := []InputFile{
			{
				Name:    "persons.csv",
				Type:    schema.RecordTypePerson,
				Records: []map[string]string{{schema.FieldRole: "suspect"}},
			},
		}

		graph := testResolver().Resolve(files)

		assert.Empty(t, graph.Entities())
	})

	t.Run("Role Is Normalized And Kept", func(t *testing.T) {
		files := []InputFile{
			{
				Name: "persons.csv",
				Type: schema.RecordTypePerson,
				Records: []map[string]string{
					{schema.FieldFirstName: "Somchai", schema.FieldRole: " Suspect "},
				},
			},
		}

		graph := testResolver().Resolve(files)

		person, ok := graph.Lookup(EntityKey(EntityPerson, "Somchai"))
		require.True(t, ok)
		assert.Equal(t, RoleSuspect, person.Metadata.Role)
	})
}

func TestResolve_RegistryOrderIndependence(t *testing.T) {
	// Registry files are ingested before any transactions, so a person file
	// appearing after the bank file in the batch still claims the account.
	files := []InputFile{
		{
			Name: "transfers.csv",
			Type: schema.RecordTypeBank,
			Records: []map[string]string{
				{schema.FieldFromAccount: "111", schema.FieldToAccount: "222", schema.FieldAmount: "50000"},
			},
		},
		{
			Name: "persons.csv",
			Type: schema.RecordTypePerson,
			Records: []map[string]string{
				{schema.FieldFirstName: "Somchai", schema.FieldBankAccount: "111"},
			},
		},
	}

	graph := testResolver().Resolve(files)

	person, ok := graph.Lookup(EntityKey(EntityPerson, "Somchai"))
	require.True(t, ok)
	assert.Equal(t, 50000.0, person.Metadata.TotalSent)
}

func TestResolve_AccountLabelPrefersHolderName(t *testing.T) {
	files := []InputFile{
		{
			Name: "transfers.csv",
			Type: schema.RecordTypeBank,
			Records: []map[string]string{
				{
					schema.FieldFromAccount: "111",
					schema.FieldFromName:    "Wichai K.",
					schema.FieldToAccount:   "222",
					schema.FieldAmount:      "1000",
				},
			},
		},
	}

	graph := testResolver().Resolve(files)

	sender, ok := graph.Lookup(EntityKey(EntityAccount, "111"))
	require.True(t, ok)
	assert.Equal(t, "Wichai K.", sender.Label)

	receiver, ok := graph.Lookup(EntityKey(EntityAccount, "222"))
	require.True(t, ok)
	assert.Equal(t, "222", receiver.Label)
}

func TestResolve_ExchangeDestinationFlagsMixerLike(t *testing.T) {
	files := []InputFile{
		{
			Name: "transfers.csv",
			Type: schema.RecordTypeBank,
			Records: []map[string]string{
				{
					schema.FieldFromAccount: "111",
					schema.FieldToAccount:   "777",
					schema.FieldToName:      "Binance Deposit",
					schema.FieldAmount:      "90000",
				},
			},
		},
	}

	graph := testResolver().Resolve(files)

	dest, ok := graph.Lookup(EntityKey(EntityAccount, "777"))
	require.True(t, ok)
	assert.True(t, dest.Metadata.MixerLike)
}

func TestMergeMetadata(t *testing.T) {
	t.Run("Numbers Add Flags Or Scalars Fill", func(t *testing.T) {
		existing := Metadata{TotalSent: 100, TransactionCount: 1, Role: RoleVictim}
		incoming := Metadata{TotalSent: 50, TransactionCount: 2, UsedMixer: true, Role: RoleSuspect, Bank: "KBank"}

		merged := MergeMetadata(existing, incoming)

		assert.Equal(t, 150.0, merged.TotalSent)
		assert.Equal(t, 3, merged.TransactionCount)
		assert.True(t, merged.UsedMixer)
		assert.Equal(t, RoleVictim, merged.Role, "first role wins")
		assert.Equal(t, "KBank", merged.Bank)
	})

	t.Run("Flags Never Reset", func(t *testing.T) {
		existing := Metadata{UsedMixer: true, ForeignTransfer: true}

		merged := MergeMetadata(existing, Metadata{})

		assert.True(t, merged.UsedMixer)
		assert.True(t, merged.ForeignTransfer)
	})
}

func TestParseAmount(t *testing.T) {
	assert.Equal(t, 50000.0, parseAmount("50000"))
	assert.Equal(t, 1500000.5, parseAmount("1,500,000.50"))
	assert.Equal(t, 1200.0, parseAmount("฿1,200"))
	assert.Equal(t, -300.0, parseAmount("-300"))
	assert.Equal(t, 0.0, parseAmount("n/a"))
	assert.Equal(t, 0.0, parseAmount(""))
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "50,000.00", formatAmount(50000))
	assert.Equal(t, "1,500,000.50", formatAmount(1500000.5))
	assert.Equal(t, "999.00", formatAmount(999))
	assert.Equal(t, "-12,345.60", formatAmount(-12345.6))
	assert.Equal(t, "0.00", formatAmount(0))
}

func TestGraph_Links(t *testing.T) {
	g := NewGraph()
	a := g.GetOrCreate(EntityAccount, "111", "111", "f.csv", Metadata{})
	b := g.GetOrCreate(EntityAccount, "222", "222", "f.csv", Metadata{})

	g.AddEdge(a, b, EdgeMoneyTransfer, "100.00", 100, "")
	g.AddEdge(a, b, EdgeMoneyTransfer, "100.00", 100, "")

	assert.Len(t, g.Edges(), 2)
	assert.Equal(t, []string{b.Key}, a.LinkedKeys, "linked keys stay a set")
	assert.Equal(t, []string{a.Key}, b.LinkedKeys)
}
