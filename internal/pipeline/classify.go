package pipeline

import (
	"strings"

	"finsight-backend/internal/doctype"
)

// classify guesses the document type from extracted text when the caller
// submitted with type auto. Unknown documents default to bank statement
// extraction, which tolerates arbitrary tabular text best.
func classify(text string) doctype.Type {
	lower := strings.ToLower(text)

	switch {
	case strings.Contains(lower, "gstin") || strings.Contains(lower, "gst return"):
		return doctype.GSTReturn
	case strings.Contains(lower, "purchase order"):
		return doctype.PurchaseOrder
	case strings.Contains(lower, "trial balance"):
		return doctype.TrialBalance
	case strings.Contains(lower, "profit") && strings.Contains(lower, "loss"):
		return doctype.ProfitLoss
	case strings.Contains(lower, "invoice"):
		return doctype.Invoice
	case strings.Contains(lower, "statement") || strings.Contains(lower, "account"):
		return doctype.BankStatement
	default:
		return doctype.BankStatement
	}
}
