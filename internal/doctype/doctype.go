package doctype

import (
	"fmt"
	"strings"
)

// Type identifies the kind of financial document being processed.
type Type string

const (
	BankStatement Type = "bank_statement"
	Invoice       Type = "invoice"
	PurchaseOrder Type = "purchase_order"
	TrialBalance  Type = "trial_balance"
	ProfitLoss    Type = "profit_loss"
	GSTReturn     Type = "gst_return"

	// Auto defers classification to the extraction pipeline.
	Auto Type = "auto"
)

var known = map[Type]struct{}{
	BankStatement: {},
	Invoice:       {},
	PurchaseOrder: {},
	TrialBalance:  {},
	ProfitLoss:    {},
	GSTReturn:     {},
	Auto:          {},
}

// Parse normalizes a raw document-type tag and rejects unknown values.
// Spaces and hyphens map to underscores, matching tags sent by older clients.
func Parse(raw string) (Type, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.ReplaceAll(normalized, " ", "_")
	normalized = strings.ReplaceAll(normalized, "-", "_")
	if normalized == "" {
		return Auto, nil
	}
	t := Type(normalized)
	if _, ok := known[t]; !ok {
		return "", fmt.Errorf("unsupported document type: %s", raw)
	}
	return t, nil
}

// Valid reports whether t is a known document type.
func (t Type) Valid() bool {
	_, ok := known[t]
	return ok
}

// Concrete reports whether t names a specific extraction, not auto-detection.
func (t Type) Concrete() bool {
	return t.Valid() && t != Auto
}

func (t Type) String() string { return string(t) }

// All returns the concrete document types in a stable order.
func All() []Type {
	return []Type{BankStatement, Invoice, PurchaseOrder, TrialBalance, ProfitLoss, GSTReturn}
}
