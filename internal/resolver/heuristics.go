package resolver

import (
	"strconv"
	"strings"
)

// mixerSubstrings marks a destination wallet label as a mixing or obfuscation
// service. Checked case-insensitively against the label text.
var mixerSubstrings = []string{
	"mixer", "tumbler", "tornado", "blender", "coinjoin",
}

// exchangeSubstrings marks a bank destination as an exchange, cash-out or
// gambling channel typically used to break the money trail.
var exchangeSubstrings = []string{
	"exchange", "binance", "okx", "bybit", "casino", "gambling",
}

// crossBorderSubstrings marks a destination as a transfer leaving the
// jurisdiction.
var crossBorderSubstrings = []string{
	"international", "foreign", "overseas", "offshore", "abroad",
}

func containsAny(label string, substrings []string) bool {
	lowered := strings.ToLower(label)
	for _, s := range substrings {
		if strings.Contains(lowered, s) {
			return true
		}
	}
	return false
}

func isMixerLabel(label string) bool {
	return containsAny(label, mixerSubstrings) || containsAny(label, exchangeSubstrings)
}

func isExchangeLabel(label string) bool {
	return containsAny(label, exchangeSubstrings)
}

func isCrossBorder(label string) bool {
	return containsAny(label, crossBorderSubstrings)
}

// parseAmount reads a numeric cell value, tolerating thousands separators,
// currency symbols and surrounding whitespace. Unparseable values contribute
// zero; the record still produces its edge.
func parseAmount(value string) float64 {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-':
			return r
		default:
			return -1
		}
	}, value)

	if cleaned == "" {
		return 0
	}
	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return amount
}

// formatAmount renders an amount with thousands separators for edge labels.
func formatAmount(amount float64) string {
	formatted := strconv.FormatFloat(amount, 'f', 2, 64)
	parts := strings.SplitN(formatted, ".", 2)
	integer := parts[0]

	negative := strings.HasPrefix(integer, "-")
	if negative {
		integer = integer[1:]
	}

	var b strings.Builder
	for i, digit := range integer {
		if i > 0 && (len(integer)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}

	result := b.String()
	if negative {
		result = "-" + result
	}
	if len(parts) == 2 {
		result += "." + parts[1]
	}
	return result
}
