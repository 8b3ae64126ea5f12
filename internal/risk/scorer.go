// Package risk computes the additive, capped risk score for resolved
// entities. Scoring is pure and order-independent across entities, and
// recomputation on the same metadata always yields the same factors.
package risk

import (
	"fmt"
	"log/slog"

	"github.com/casetrace/smart-import/internal/resolver"
)

// MaxScore caps every entity's total risk score.
const MaxScore = 100

// rule is one independent scoring rule. It contributes zero or one factor
// with a fixed point value when its condition holds.
type rule struct {
	name     string
	evaluate func(e *resolver.Entity) (int, string, bool)
}

// rules is evaluated in order for every entity; the order fixes the factor
// list ordering, not the total.
var rules = []rule{
	{
		name: "suspect_role",
		evaluate: func(e *resolver.Entity) (int, string, bool) {
			if e.Metadata.Role == resolver.RoleSuspect {
				return 40, "registered as a suspect in the case registry", true
			}
			return 0, "", false
		},
	},
	{
		name: "large_inflow",
		evaluate: func(e *resolver.Entity) (int, string, bool) {
			received := e.Metadata.TotalReceived
			switch {
			case received >= 1_000_000:
				return 30, fmt.Sprintf("received %s in total, above the 1M threshold", formatTotal(received)), true
			case received >= 500_000:
				return 20, fmt.Sprintf("received %s in total, above the 500K threshold", formatTotal(received)), true
			case received >= 100_000:
				return 10, fmt.Sprintf("received %s in total, above the 100K threshold", formatTotal(received)), true
			}
			return 0, "", false
		},
	},
	{
		name: "high_transaction_frequency",
		evaluate: func(e *resolver.Entity) (int, string, bool) {
			count := e.Metadata.TransactionCount
			switch {
			case count > 20:
				return 15, fmt.Sprintf("involved in %d transfers", count), true
			case count > 10:
				return 10, fmt.Sprintf("involved in %d transfers", count), true
			}
			return 0, "", false
		},
	},
	{
		name: "mixer_usage",
		evaluate: func(e *resolver.Entity) (int, string, bool) {
			if e.Metadata.UsedMixer {
				return 25, "sent funds to a known mixing or exchange service", true
			}
			return 0, "", false
		},
	},
	{
		name: "cross_border_transfer",
		evaluate: func(e *resolver.Entity) (int, string, bool) {
			if e.Metadata.ForeignTransfer {
				return 15, "transferred funds to a foreign destination", true
			}
			return 0, "", false
		},
	},
	{
		name: "high_call_frequency",
		evaluate: func(e *resolver.Entity) (int, string, bool) {
			if e.Metadata.CallCount > 50 {
				return 10, fmt.Sprintf("originated %d calls", e.Metadata.CallCount), true
			}
			return 0, "", false
		},
	},
	{
		name: "multiple_sources",
		evaluate: func(e *resolver.Entity) (int, string, bool) {
			if len(e.Sources) >= 3 {
				return 15, fmt.Sprintf("appears in %d distinct source files", len(e.Sources)), true
			}
			return 0, "", false
		},
	},
}

// Scorer assigns risk scores and audit factors to resolved entities.
type Scorer struct {
	logger *slog.Logger
}

// NewScorer creates a scorer.
func NewScorer(logger *slog.Logger) *Scorer {
	return &Scorer{logger: logger}
}

// Score evaluates every rule against every entity, setting the entity's
// factor list and its clamped total.
func (s *Scorer) Score(entities []*resolver.Entity) {
	scored := 0
	for _, entity := range entities {
		ScoreEntity(entity)
		if entity.RiskScore > 0 {
			scored++
		}
	}
	s.logger.Info("risk scoring completed",
		"entities", len(entities),
		"flagged", scored)
}

// ScoreEntity recomputes one entity's risk score from scratch. Idempotent.
func ScoreEntity(entity *resolver.Entity) {
	entity.RiskFactors = nil
	total := 0

	for _, r := range rules {
		points, description, ok := r.evaluate(entity)
		if !ok {
			continue
		}
		entity.RiskFactors = append(entity.RiskFactors, resolver.RiskFactor{
			Name:        r.name,
			Score:       points,
			Description: description,
		})
		total += points
	}

	if total > MaxScore {
		total = MaxScore
	}
	entity.RiskScore = total
}

func formatTotal(amount float64) string {
	return fmt.Sprintf("%.2f", amount)
}
