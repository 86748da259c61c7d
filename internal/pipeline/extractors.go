package pipeline

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	datePattern = regexp.MustCompile(`\d{2}[/-]\d{2}[/-]\d{2,4}`)

	// Monetary amounts require digit grouping or a decimal part, so bare
	// integers in ids and dates are not mistaken for money.
	amountPattern = regexp.MustCompile(`(?:₹|\$|Rs\.?\s*)?(\d{1,3}(?:,\d{3})+(?:\.\d{1,2})?|\d+\.\d{1,2})\b`)

	invoiceNoPattern = regexp.MustCompile(`(?i)invoice\s*(?:no|number|#)[:.\s]*([A-Za-z0-9/-]+)`)
	orderNoPattern   = regexp.MustCompile(`(?i)(?:po|order)\s*(?:no|number|#)[:.\s]*([A-Za-z0-9/-]+)`)
	gstinPattern     = regexp.MustCompile(`(?i)gstin[:.\s]*([0-9A-Z]{15})`)
	periodPattern    = regexp.MustCompile(`(?i)period[:.\s]*([A-Za-z0-9 /-]+)`)
)

// lastAmount returns the rightmost amount on a line, which in tabular
// statements is the transaction or balance column.
func lastAmount(line string) (float64, bool) {
	matches := amountPattern.FindAllStringSubmatch(line, -1)
	if len(matches) == 0 {
		return 0, false
	}
	raw := matches[len(matches)-1][1]
	val, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return val, true
}

func isCreditLine(line string) bool {
	lower := strings.ToLower(line)
	return strings.Contains(lower, "deposit") ||
		strings.Contains(lower, "credit") ||
		strings.Contains(lower, "payment received") ||
		strings.Contains(lower, "refund")
}

func extractBankStatement(text string) BankStatementData {
	data := BankStatementData{Transactions: []Transaction{}}
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if len(trimmed) < 10 || !datePattern.MatchString(trimmed) {
			continue
		}
		date := datePattern.FindString(trimmed)
		rest := strings.TrimSpace(strings.Replace(trimmed, date, "", 1))
		amount, ok := lastAmount(rest)
		if !ok {
			continue
		}

		txType := "debit"
		if isCreditLine(trimmed) {
			txType = "credit"
		}

		description := rest
		if idx := amountPattern.FindStringIndex(description); idx != nil {
			description = strings.TrimSpace(description[:idx[0]])
		}

		tx := Transaction{
			Date:        date,
			Description: description,
			Amount:      amount,
			Type:        txType,
		}
		data.Transactions = append(data.Transactions, tx)
		if txType == "credit" {
			data.TotalCredits += amount
		} else {
			data.TotalDebits += amount
		}
	}
	return data
}

func extractInvoice(text string) InvoiceData {
	data := InvoiceData{LineItems: []LineItem{}}
	lines := strings.Split(text, "\n")

	if m := invoiceNoPattern.FindStringSubmatch(text); len(m) > 1 {
		data.InvoiceNumber = m[1]
	}
	if d := datePattern.FindString(text); d != "" {
		data.InvoiceDate = d
	}

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		lower := strings.ToLower(trimmed)

		// First non-header line is usually the vendor name.
		if data.VendorName == "" && i < 5 && !strings.Contains(lower, "invoice") {
			data.VendorName = trimmed
			continue
		}

		amount, ok := lastAmount(trimmed)
		if !ok {
			continue
		}
		switch {
		case strings.Contains(lower, "total"):
			data.Total = amount
		case strings.Contains(lower, "gst") || strings.Contains(lower, "tax"):
			data.TaxAmount = amount
		default:
			desc := trimmed
			if idx := amountPattern.FindStringIndex(desc); idx != nil {
				desc = strings.TrimSpace(desc[:idx[0]])
			}
			if desc != "" {
				data.LineItems = append(data.LineItems, LineItem{Description: desc, Amount: amount})
			}
		}
	}

	if data.Total == 0 {
		for _, item := range data.LineItems {
			data.Total += item.Amount
		}
		data.Total += data.TaxAmount
	}
	return data
}

func extractPurchaseOrder(text string) PurchaseOrderData {
	data := PurchaseOrderData{LineItems: []LineItem{}}

	if m := orderNoPattern.FindStringSubmatch(text); len(m) > 1 {
		data.OrderNumber = m[1]
	}
	if d := datePattern.FindString(text); d != "" {
		data.OrderDate = d
	}

	for i, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		lower := strings.ToLower(trimmed)

		if data.SupplierName == "" && i < 5 && !strings.Contains(lower, "purchase order") {
			data.SupplierName = trimmed
			continue
		}

		amount, ok := lastAmount(trimmed)
		if !ok {
			continue
		}
		if strings.Contains(lower, "total") {
			data.Total = amount
			continue
		}
		desc := trimmed
		if idx := amountPattern.FindStringIndex(desc); idx != nil {
			desc = strings.TrimSpace(desc[:idx[0]])
		}
		if desc != "" {
			data.LineItems = append(data.LineItems, LineItem{Description: desc, Amount: amount})
		}
	}

	if data.Total == 0 {
		for _, item := range data.LineItems {
			data.Total += item.Amount
		}
	}
	return data
}

func extractTrialBalance(text string) TrialBalanceData {
	data := TrialBalanceData{Entries: []LedgerEntry{}}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		lower := strings.ToLower(trimmed)
		if trimmed == "" || strings.Contains(lower, "trial balance") {
			continue
		}
		matches := amountPattern.FindAllStringSubmatch(trimmed, -1)
		if len(matches) == 0 {
			continue
		}

		idx := amountPattern.FindStringIndex(trimmed)
		account := strings.TrimSpace(trimmed[:idx[0]])
		if account == "" {
			continue
		}

		entry := LedgerEntry{Account: account}
		first, _ := strconv.ParseFloat(strings.ReplaceAll(matches[0][1], ",", ""), 64)
		if len(matches) >= 2 {
			second, _ := strconv.ParseFloat(strings.ReplaceAll(matches[len(matches)-1][1], ",", ""), 64)
			entry.Debit = first
			entry.Credit = second
		} else if strings.Contains(lower, "cr") {
			entry.Credit = first
		} else {
			entry.Debit = first
		}

		if strings.Contains(lower, "total") {
			data.TotalDebits = entry.Debit
			data.TotalCredits = entry.Credit
			continue
		}
		data.Entries = append(data.Entries, entry)
	}

	if data.TotalDebits == 0 && data.TotalCredits == 0 {
		for _, e := range data.Entries {
			data.TotalDebits += e.Debit
			data.TotalCredits += e.Credit
		}
	}
	data.Balanced = data.TotalDebits == data.TotalCredits
	return data
}

func extractProfitLoss(text string) ProfitLossData {
	data := ProfitLossData{Income: []AccountAmount{}, Expenses: []AccountAmount{}}
	inExpenses := false

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		lower := strings.ToLower(trimmed)

		switch {
		case strings.Contains(lower, "expense"):
			inExpenses = true
		case strings.Contains(lower, "income") || strings.Contains(lower, "revenue"):
			if _, ok := lastAmount(trimmed); !ok {
				inExpenses = false
			}
		}

		amount, ok := lastAmount(trimmed)
		if !ok {
			continue
		}
		if strings.Contains(lower, "net profit") || strings.Contains(lower, "net loss") {
			data.NetProfit = amount
			continue
		}
		if strings.Contains(lower, "total") {
			continue
		}

		idx := amountPattern.FindStringIndex(trimmed)
		account := strings.TrimSpace(trimmed[:idx[0]])
		if account == "" {
			continue
		}
		entry := AccountAmount{Account: account, Amount: amount}
		if inExpenses {
			data.Expenses = append(data.Expenses, entry)
			data.TotalExpenses += amount
		} else {
			data.Income = append(data.Income, entry)
			data.TotalIncome += amount
		}
	}

	if data.NetProfit == 0 {
		data.NetProfit = data.TotalIncome - data.TotalExpenses
	}
	return data
}

func extractGSTReturn(text string) GSTReturnData {
	data := GSTReturnData{}

	if m := gstinPattern.FindStringSubmatch(text); len(m) > 1 {
		data.GSTIN = strings.ToUpper(m[1])
	}
	if m := periodPattern.FindStringSubmatch(text); len(m) > 1 {
		data.Period = strings.TrimSpace(m[1])
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		lower := strings.ToLower(trimmed)
		amount, ok := lastAmount(trimmed)
		if !ok {
			continue
		}
		switch {
		case strings.Contains(lower, "taxable"):
			data.TaxableValue = amount
		case strings.Contains(lower, "cgst"):
			data.CGST = amount
		case strings.Contains(lower, "sgst"):
			data.SGST = amount
		case strings.Contains(lower, "igst"):
			data.IGST = amount
		}
	}

	data.TotalTax = data.CGST + data.SGST + data.IGST
	return data
}
