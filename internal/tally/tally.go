// Package tally renders extraction results as Tally import XML
// (ENVELOPE/BODY/IMPORTDATA/TALLYMESSAGE vouchers) ready for Tally's
// Import Data screen.
package tally

import (
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"time"

	"finsight-backend/internal/doctype"
	"finsight-backend/internal/pipeline"
)

// ErrUnsupported is returned for document types with no voucher mapping.
var ErrUnsupported = errors.New("document type has no Tally voucher mapping")

const (
	voucherTypeReceipt  = "Receipt"
	voucherTypePayment  = "Payment"
	voucherTypeSales    = "Sales"
	voucherTypePurchase = "Purchase"
	voucherTypeJournal  = "Journal"
)

type envelope struct {
	XMLName xml.Name `xml:"ENVELOPE"`
	Header  header   `xml:"HEADER"`
	Body    body     `xml:"BODY"`
}

type header struct {
	TallyRequest string `xml:"TALLYREQUEST"`
}

type body struct {
	ImportData importData `xml:"IMPORTDATA"`
}

type importData struct {
	RequestDesc requestDesc    `xml:"REQUESTDESC"`
	RequestData []tallyMessage `xml:"REQUESTDATA>TALLYMESSAGE"`
}

type requestDesc struct {
	ReportName      string          `xml:"REPORTNAME"`
	StaticVariables staticVariables `xml:"STATICVARIABLES"`
}

type staticVariables struct {
	CurrentCompany string `xml:"SVCURRENTCOMPANY,omitempty"`
}

type tallyMessage struct {
	Voucher voucher `xml:"VOUCHER"`
}

type voucher struct {
	VoucherTypeName string        `xml:"VOUCHERTYPENAME"`
	Date            string        `xml:"DATE"`
	Narration       string        `xml:"NARRATION"`
	PartyLedgerName string        `xml:"PARTYLEDGERNAME,omitempty"`
	Entries         []ledgerEntry `xml:"ALLLEDGERENTRIES.LIST"`
}

type ledgerEntry struct {
	LedgerName       string  `xml:"LEDGERNAME"`
	IsDeemedPositive string  `xml:"ISDEEMEDPOSITIVE"`
	Amount           float64 `xml:"AMOUNT"`
}

// BuildVouchers renders the result payload of a succeeded job as Tally
// import XML. company is optional and fills SVCURRENTCOMPANY when set.
func BuildVouchers(raw json.RawMessage, company string) ([]byte, error) {
	var result pipeline.Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}

	var messages []tallyMessage
	var err error
	switch result.DocumentType {
	case doctype.BankStatement:
		messages, err = bankStatementVouchers(result.ExtractedData)
	case doctype.Invoice:
		messages, err = invoiceVouchers(result.ExtractedData)
	case doctype.PurchaseOrder:
		messages, err = purchaseOrderVouchers(result.ExtractedData)
	case doctype.TrialBalance:
		messages, err = trialBalanceVouchers(result.ExtractedData)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, result.DocumentType)
	}
	if err != nil {
		return nil, err
	}

	env := envelope{
		Header: header{TallyRequest: "Import Data"},
		Body: body{
			ImportData: importData{
				RequestDesc: requestDesc{
					ReportName:      "Vouchers",
					StaticVariables: staticVariables{CurrentCompany: company},
				},
				RequestData: messages,
			},
		},
	}

	out, err := xml.MarshalIndent(env, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}

func bankStatementVouchers(raw json.RawMessage) ([]tallyMessage, error) {
	var data pipeline.BankStatementData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode bank statement data: %w", err)
	}
	messages := make([]tallyMessage, 0, len(data.Transactions))
	for _, tx := range data.Transactions {
		vtype := voucherTypePayment
		bankPositive, contraPositive := "No", "Yes"
		if tx.Type == "credit" {
			vtype = voucherTypeReceipt
			bankPositive, contraPositive = "Yes", "No"
		}
		messages = append(messages, tallyMessage{Voucher: voucher{
			VoucherTypeName: vtype,
			Date:            tallyDate(tx.Date),
			Narration:       tx.Description,
			Entries: []ledgerEntry{
				{LedgerName: "Bank", IsDeemedPositive: bankPositive, Amount: signed(tx.Amount, bankPositive)},
				{LedgerName: "Suspense", IsDeemedPositive: contraPositive, Amount: signed(tx.Amount, contraPositive)},
			},
		}})
	}
	return messages, nil
}

func invoiceVouchers(raw json.RawMessage) ([]tallyMessage, error) {
	var data pipeline.InvoiceData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode invoice data: %w", err)
	}
	party := data.VendorName
	if party == "" {
		party = "Sundry Debtors"
	}
	entries := []ledgerEntry{
		{LedgerName: party, IsDeemedPositive: "Yes", Amount: -data.Total},
		{LedgerName: "Sales", IsDeemedPositive: "No", Amount: data.Total - data.TaxAmount},
	}
	if data.TaxAmount > 0 {
		entries = append(entries, ledgerEntry{LedgerName: "Output Tax", IsDeemedPositive: "No", Amount: data.TaxAmount})
	}
	narration := "Invoice"
	if data.InvoiceNumber != "" {
		narration = "Invoice " + data.InvoiceNumber
	}
	return []tallyMessage{{Voucher: voucher{
		VoucherTypeName: voucherTypeSales,
		Date:            tallyDate(data.InvoiceDate),
		Narration:       narration,
		PartyLedgerName: party,
		Entries:         entries,
	}}}, nil
}

func purchaseOrderVouchers(raw json.RawMessage) ([]tallyMessage, error) {
	var data pipeline.PurchaseOrderData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode purchase order data: %w", err)
	}
	party := data.SupplierName
	if party == "" {
		party = "Sundry Creditors"
	}
	narration := "Purchase order"
	if data.OrderNumber != "" {
		narration = "Purchase order " + data.OrderNumber
	}
	return []tallyMessage{{Voucher: voucher{
		VoucherTypeName: voucherTypePurchase,
		Date:            tallyDate(data.OrderDate),
		Narration:       narration,
		PartyLedgerName: party,
		Entries: []ledgerEntry{
			{LedgerName: "Purchases", IsDeemedPositive: "Yes", Amount: -data.Total},
			{LedgerName: party, IsDeemedPositive: "No", Amount: data.Total},
		},
	}}}, nil
}

func trialBalanceVouchers(raw json.RawMessage) ([]tallyMessage, error) {
	var data pipeline.TrialBalanceData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode trial balance data: %w", err)
	}
	entries := make([]ledgerEntry, 0, len(data.Entries))
	for _, e := range data.Entries {
		if e.Debit > 0 {
			entries = append(entries, ledgerEntry{LedgerName: e.Account, IsDeemedPositive: "Yes", Amount: -e.Debit})
		}
		if e.Credit > 0 {
			entries = append(entries, ledgerEntry{LedgerName: e.Account, IsDeemedPositive: "No", Amount: e.Credit})
		}
	}
	return []tallyMessage{{Voucher: voucher{
		VoucherTypeName: voucherTypeJournal,
		Date:            tallyDate(""),
		Narration:       "Opening balances from trial balance",
		Entries:         entries,
	}}}, nil
}

func signed(amount float64, deemedPositive string) float64 {
	if deemedPositive == "Yes" {
		return -amount
	}
	return amount
}

var dateLayouts = []string{"02/01/2006", "02-01-2006", "02/01/06", "02-01-06", "2006-01-02"}

// tallyDate converts an extracted date string to Tally's YYYYMMDD form,
// falling back to today when the source date cannot be parsed.
func tallyDate(raw string) string {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("20060102")
		}
	}
	return time.Now().Format("20060102")
}
