package resolver

import "strings"

// EntityType identifies what real-world thing an entity represents.
type EntityType string

const (
	EntityPerson  EntityType = "person"
	EntityAccount EntityType = "account"
	EntityPhone   EntityType = "phone"
	EntityWallet  EntityType = "wallet"
)

// Roles a person can carry in a case, taken from the registry's role column.
const (
	RoleSuspect = "suspect"
	RoleVictim  = "victim"
)

// Metadata accumulates behavioral signal on an entity across every record
// that mentions it. Merging never overwrites accumulated numbers.
type Metadata struct {
	TotalSent        float64 `json:"total_sent"`
	TotalReceived    float64 `json:"total_received"`
	TransactionCount int     `json:"transaction_count"`
	CallCount        int     `json:"call_count"`
	CallDuration     float64 `json:"call_duration"`
	UsedMixer        bool    `json:"used_mixer"`
	ForeignTransfer  bool    `json:"foreign_transfer"`
	MixerLike        bool    `json:"mixer_like"`
	Role             string  `json:"role,omitempty"`
	Bank             string  `json:"bank,omitempty"`
	IDCard           string  `json:"id_card,omitempty"`
}

// MergeMetadata combines incoming signal into existing metadata as a pure
// reduction: numeric fields add, flags OR together, scalar fields fill in
// only when previously unset.
func MergeMetadata(existing, incoming Metadata) Metadata {
	merged := existing
	merged.TotalSent += incoming.TotalSent
	merged.TotalReceived += incoming.TotalReceived
	merged.TransactionCount += incoming.TransactionCount
	merged.CallCount += incoming.CallCount
	merged.CallDuration += incoming.CallDuration
	merged.UsedMixer = merged.UsedMixer || incoming.UsedMixer
	merged.ForeignTransfer = merged.ForeignTransfer || incoming.ForeignTransfer
	merged.MixerLike = merged.MixerLike || incoming.MixerLike
	if merged.Role == "" {
		merged.Role = incoming.Role
	}
	if merged.Bank == "" {
		merged.Bank = incoming.Bank
	}
	if merged.IDCard == "" {
		merged.IDCard = incoming.IDCard
	}
	return merged
}

// RiskFactor is one discrete contribution to an entity's risk score.
type RiskFactor struct {
	Name        string `json:"name"`
	Score       int    `json:"score_contribution"`
	Description string `json:"description"`
}

// Entity is one deduplicated logical node in the analysis graph. Entities
// live only for the duration of a run; persistence assigns its own IDs.
type Entity struct {
	Key         string       `json:"key"`
	Type        EntityType   `json:"type"`
	Label       string       `json:"display_label"`
	Sources     []string     `json:"sources"`
	LinkedKeys  []string     `json:"linked_entity_keys"`
	Metadata    Metadata     `json:"metadata"`
	RiskScore   int          `json:"risk_score"`
	RiskFactors []RiskFactor `json:"risk_factors"`
}

// HasSource reports whether the entity was seen in the named file.
func (e *Entity) HasSource(fileName string) bool {
	for _, s := range e.Sources {
		if s == fileName {
			return true
		}
	}
	return false
}

// addSource unions a file name into the entity's source set.
func (e *Entity) addSource(fileName string) {
	if fileName == "" || e.HasSource(fileName) {
		return
	}
	e.Sources = append(e.Sources, fileName)
}

// addLink unions another entity's key into the linked set. Adding an existing
// link is a no-op.
func (e *Entity) addLink(key string) {
	for _, k := range e.LinkedKeys {
		if k == key {
			return
		}
	}
	e.LinkedKeys = append(e.LinkedKeys, key)
}

// Edge types in the relationship graph.
const (
	EdgeMoneyTransfer  = "money_transfer"
	EdgePhoneCall      = "phone_call"
	EdgeCryptoTransfer = "crypto_transfer"
	EdgeOwnership      = "ownership"
)

// Edge is one relationship between two entities. Edges are never
// deduplicated: repeated transfers between the same pair stay repeated.
type Edge struct {
	ID        string  `json:"id"`
	SourceKey string  `json:"source_key"`
	TargetKey string  `json:"target_key"`
	Type      string  `json:"edge_type"`
	Label     string  `json:"label"`
	Amount    float64 `json:"amount,omitempty"`
	Date      string  `json:"date,omitempty"`
}

// EntityKey builds the canonical identity key for an entity: the type joined
// with the normalized identifying value.
func EntityKey(entityType EntityType, value string) string {
	return string(entityType) + ":" + Normalize(value)
}

// Normalize lowercases and trims an identifying value. Identity is exact
// match on this normalized form; there is deliberately no fuzzy matching.
func Normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
