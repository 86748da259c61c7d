package pipeline

// Transaction is one bank statement row.
type Transaction struct {
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Type        string  `json:"type"` // credit or debit
}

// BankStatementData is the structured form of a bank statement.
type BankStatementData struct {
	Transactions []Transaction `json:"transactions"`
	TotalCredits float64       `json:"total_credits"`
	TotalDebits  float64       `json:"total_debits"`
}

// LineItem is one row of an invoice or purchase order.
type LineItem struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

// InvoiceData is the structured form of an invoice.
type InvoiceData struct {
	InvoiceNumber string     `json:"invoice_number"`
	InvoiceDate   string     `json:"invoice_date"`
	VendorName    string     `json:"vendor_name"`
	LineItems     []LineItem `json:"line_items"`
	TaxAmount     float64    `json:"tax_amount"`
	Total         float64    `json:"total"`
}

// PurchaseOrderData is the structured form of a purchase order.
type PurchaseOrderData struct {
	OrderNumber  string     `json:"order_number"`
	OrderDate    string     `json:"order_date"`
	SupplierName string     `json:"supplier_name"`
	LineItems    []LineItem `json:"line_items"`
	Total        float64    `json:"total"`
}

// LedgerEntry is one account row of a trial balance.
type LedgerEntry struct {
	Account string  `json:"account"`
	Debit   float64 `json:"debit"`
	Credit  float64 `json:"credit"`
}

// TrialBalanceData is the structured form of a trial balance.
type TrialBalanceData struct {
	Entries      []LedgerEntry `json:"entries"`
	TotalDebits  float64       `json:"total_debits"`
	TotalCredits float64       `json:"total_credits"`
	Balanced     bool          `json:"balanced"`
}

// AccountAmount is a named amount on a P&L statement.
type AccountAmount struct {
	Account string  `json:"account"`
	Amount  float64 `json:"amount"`
}

// ProfitLossData is the structured form of a profit and loss statement.
type ProfitLossData struct {
	Income        []AccountAmount `json:"income"`
	Expenses      []AccountAmount `json:"expenses"`
	TotalIncome   float64         `json:"total_income"`
	TotalExpenses float64         `json:"total_expenses"`
	NetProfit     float64         `json:"net_profit"`
}

// GSTReturnData is the structured form of a GST return.
type GSTReturnData struct {
	GSTIN        string  `json:"gstin"`
	Period       string  `json:"period"`
	TaxableValue float64 `json:"taxable_value"`
	CGST         float64 `json:"cgst"`
	SGST         float64 `json:"sgst"`
	IGST         float64 `json:"igst"`
	TotalTax     float64 `json:"total_tax"`
}
