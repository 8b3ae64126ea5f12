// Package resolver builds the deduplicated entity set and relationship graph
// for one import batch. Resolution is a single sequential pass: every record
// mutates shared entity state, and transaction ingestion depends on the
// completed registry lookup tables, so the phase must not run concurrently.
package resolver

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/casetrace/smart-import/internal/schema"
)

// InputFile is one mapped file ready for resolution: its classified type and
// records rewritten onto canonical field names.
type InputFile struct {
	Name    string
	Type    schema.RecordType
	Records []map[string]string
}

// transactionOrder fixes Phase B processing order. The order only affects how
// totals accumulate, never classification, but it must be deterministic so
// repeated runs produce identical summaries.
var transactionOrder = []schema.RecordType{
	schema.RecordTypeBank,
	schema.RecordTypePhone,
	schema.RecordTypeCrypto,
}

// Resolver turns normalized records from a batch into an entity graph.
type Resolver struct {
	logger *slog.Logger
}

// NewResolver creates a resolver.
func NewResolver(logger *slog.Logger) *Resolver {
	return &Resolver{logger: logger}
}

// Resolve processes a batch in two phases: person registry files first, which
// also build the identifier ownership tables, then transaction files grouped
// by type in the fixed bank, phone, crypto order. Files classified unknown
// are skipped.
func (r *Resolver) Resolve(files []InputFile) *Graph {
	graph := NewGraph()

	// Phase A: registry ingestion.
	for _, file := range files {
		if file.Type != schema.RecordTypePerson {
			continue
		}
		for _, record := range file.Records {
			r.ingestPerson(graph, file.Name, record)
		}
	}

	// Phase B: transaction ingestion, per type in fixed order, batch
	// insertion order within a type.
	for _, recordType := range transactionOrder {
		for _, file := range files {
			if file.Type != recordType {
				continue
			}
			for _, record := range file.Records {
				switch recordType {
				case schema.RecordTypeBank:
					r.ingestBankTransfer(graph, file.Name, record)
				case schema.RecordTypePhone:
					r.ingestCallRecord(graph, file.Name, record)
				case schema.RecordTypeCrypto:
					r.ingestCryptoTransfer(graph, file.Name, record)
				}
			}
		}
	}

	r.logger.Info("entity resolution completed",
		"files", len(files),
		"entities", len(graph.entities),
		"edges", len(graph.edges))

	return graph
}

// ingestPerson creates the person entity, its owned identifier entities and
// ownership edges, and registers the identifiers in the lookup tables.
func (r *Resolver) ingestPerson(g *Graph, fileName string, record map[string]string) {
	firstName := record[schema.FieldFirstName]
	lastName := record[schema.FieldLastName]
	idCard := record[schema.FieldIDCard]

	// Identity prefers the national id; a constructed name is the fallback.
	identity := idCard
	if Normalize(identity) == "" {
		identity = strings.TrimSpace(firstName + " " + lastName)
	}
	if Normalize(identity) == "" {
		return
	}

	label := strings.TrimSpace(firstName + " " + lastName)
	if label == "" {
		label = identity
	}

	person := g.GetOrCreate(EntityPerson, identity, label, fileName, Metadata{
		Role:   Normalize(record[schema.FieldRole]),
		IDCard: idCard,
	})

	if phone := record[schema.FieldPhoneNumber]; Normalize(phone) != "" {
		owned := g.GetOrCreate(EntityPhone, phone, phone, fileName, Metadata{})
		g.AddEdge(person, owned, EdgeOwnership, "owns", 0, "")
		registerOwner(g.phoneOwners, phone, person.Key)
	}
	if account := record[schema.FieldBankAccount]; Normalize(account) != "" {
		owned := g.GetOrCreate(EntityAccount, account, account, fileName, Metadata{})
		g.AddEdge(person, owned, EdgeOwnership, "owns", 0, "")
		registerOwner(g.accountOwners, account, person.Key)
	}
	if wallet := record[schema.FieldWalletAddress]; Normalize(wallet) != "" {
		owned := g.GetOrCreate(EntityWallet, wallet, wallet, fileName, Metadata{})
		g.AddEdge(person, owned, EdgeOwnership, "owns", 0, "")
		registerOwner(g.walletOwners, wallet, person.Key)
	}
}

// ingestBankTransfer accumulates sent/received totals on both accounts,
// creates the money transfer edge and propagates the same increments onto
// owning persons. The edge itself stays account-to-account.
func (r *Resolver) ingestBankTransfer(g *Graph, fileName string, record map[string]string) {
	fromAccount := record[schema.FieldFromAccount]
	toAccount := record[schema.FieldToAccount]
	if Normalize(fromAccount) == "" || Normalize(toAccount) == "" {
		return
	}

	amount := parseAmount(record[schema.FieldAmount])

	source := g.GetOrCreate(EntityAccount, fromAccount, accountLabel(record[schema.FieldFromName], fromAccount), fileName, Metadata{
		TotalSent:        amount,
		TransactionCount: 1,
		Bank:             record[schema.FieldFromBank],
	})

	destLabel := accountLabel(record[schema.FieldToName], toAccount)
	dest := g.GetOrCreate(EntityAccount, toAccount, destLabel, fileName, Metadata{
		TotalReceived:    amount,
		TransactionCount: 1,
		Bank:             record[schema.FieldToBank],
		MixerLike:        isExchangeLabel(destLabel),
	})

	g.AddEdge(source, dest, EdgeMoneyTransfer, formatAmount(amount), amount, record[schema.FieldDate])

	if owner, ok := g.owner(g.accountOwners, fromAccount); ok {
		owner.addSource(fileName)
		owner.Metadata = MergeMetadata(owner.Metadata, Metadata{TotalSent: amount, TransactionCount: 1})
	}
	if owner, ok := g.owner(g.accountOwners, toAccount); ok {
		owner.addSource(fileName)
		owner.Metadata = MergeMetadata(owner.Metadata, Metadata{TotalReceived: amount, TransactionCount: 1})
	}
}

// ingestCallRecord accumulates call counts on the originating number and
// creates the phone call edge.
func (r *Resolver) ingestCallRecord(g *Graph, fileName string, record map[string]string) {
	fromNumber := record[schema.FieldFromNumber]
	toNumber := record[schema.FieldToNumber]
	if Normalize(fromNumber) == "" || Normalize(toNumber) == "" {
		return
	}

	duration := parseAmount(record[schema.FieldDuration])

	origin := g.GetOrCreate(EntityPhone, fromNumber, fromNumber, fileName, Metadata{
		CallCount:    1,
		CallDuration: duration,
	})
	dest := g.GetOrCreate(EntityPhone, toNumber, toNumber, fileName, Metadata{})

	label := "call"
	if duration > 0 {
		label = fmt.Sprintf("%.0fs", duration)
	}
	g.AddEdge(origin, dest, EdgePhoneCall, label, 0, record[schema.FieldDate])

	if owner, ok := g.owner(g.phoneOwners, fromNumber); ok {
		owner.addSource(fileName)
		owner.Metadata = MergeMetadata(owner.Metadata, Metadata{CallCount: 1})
	}
}

// ingestCryptoTransfer accumulates sent value and mixer/cross-border flags on
// the source wallet, creates the crypto transfer edge and propagates the
// signal onto the owning person.
func (r *Resolver) ingestCryptoTransfer(g *Graph, fileName string, record map[string]string) {
	fromWallet := record[schema.FieldFromWallet]
	toWallet := record[schema.FieldToWallet]
	if Normalize(fromWallet) == "" || Normalize(toWallet) == "" {
		return
	}

	amount := parseAmount(record[schema.FieldAmount])
	usedMixer := isMixerLabel(toWallet)
	foreign := isCrossBorder(toWallet)

	source := g.GetOrCreate(EntityWallet, fromWallet, fromWallet, fileName, Metadata{
		TotalSent:        amount,
		TransactionCount: 1,
		UsedMixer:        usedMixer,
		ForeignTransfer:  foreign,
	})
	dest := g.GetOrCreate(EntityWallet, toWallet, toWallet, fileName, Metadata{
		TotalReceived: amount,
		MixerLike:     usedMixer,
	})

	label := formatAmount(amount)
	if asset := strings.TrimSpace(record[schema.FieldAsset]); asset != "" {
		label = fmt.Sprintf("%s %s", formatAmount(amount), strings.ToUpper(asset))
	}
	g.AddEdge(source, dest, EdgeCryptoTransfer, label, amount, record[schema.FieldDate])

	if owner, ok := g.owner(g.walletOwners, fromWallet); ok {
		owner.addSource(fileName)
		owner.Metadata = MergeMetadata(owner.Metadata, Metadata{
			TotalSent:       amount,
			UsedMixer:       usedMixer,
			ForeignTransfer: foreign,
		})
	}
}

// accountLabel prefers the account holder's name over the bare number.
func accountLabel(holderName, accountNumber string) string {
	if name := strings.TrimSpace(holderName); name != "" {
		return name
	}
	return strings.TrimSpace(accountNumber)
}
