package service

import (
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/urbanharvest/vending-api/internal/enum"
)

// StockSeverity classifies a quantity against its low-stock threshold:
// empty or at most half the threshold is critical, at or below it a
// warning, and "" above it.
func StockSeverity(qty, threshold int32) string {
	switch {
	case qty <= 0 || int64(qty)*2 <= int64(threshold):
		return enum.SeverityCritical
	case qty <= threshold:
		return enum.SeverityWarning
	}
	return ""
}

// crossedThreshold reports whether a deduction of consumed took the row from
// above its threshold to at or below it.
func crossedThreshold(remaining, consumed, threshold int32) bool {
	return remaining <= threshold && remaining+consumed > threshold
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
