package tally

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"finsight-backend/internal/doctype"
	"finsight-backend/internal/pipeline"
)

func marshalResult(t *testing.T, documentType doctype.Type, data any) json.RawMessage {
	t.Helper()
	extracted, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal data: %v", err)
	}
	payload, err := json.Marshal(pipeline.Result{
		DocumentType:  documentType,
		FileName:      "doc.txt",
		ExtractedData: extracted,
	})
	if err != nil {
		t.Fatalf("marshal result: %v", err)
	}
	return payload
}

func TestBankStatementVouchers(t *testing.T) {
	raw := marshalResult(t, "bank_statement", pipeline.BankStatementData{
		Transactions: []pipeline.Transaction{
			{Date: "01/02/2025", Description: "Salary credit", Amount: 50000, Type: "credit"},
			{Date: "03/02/2025", Description: "Rent", Amount: 15000, Type: "debit"},
		},
	})

	out, err := BuildVouchers(raw, "Acme Traders")
	if err != nil {
		t.Fatalf("BuildVouchers: %v", err)
	}
	xml := string(out)

	for _, want := range []string{
		"<TALLYREQUEST>Import Data</TALLYREQUEST>",
		"<SVCURRENTCOMPANY>Acme Traders</SVCURRENTCOMPANY>",
		"<VOUCHERTYPENAME>Receipt</VOUCHERTYPENAME>",
		"<VOUCHERTYPENAME>Payment</VOUCHERTYPENAME>",
		"<NARRATION>Salary credit</NARRATION>",
		"<DATE>20250201</DATE>",
	} {
		if !strings.Contains(xml, want) {
			t.Fatalf("missing %q in:\n%s", want, xml)
		}
	}
}

func TestInvoiceVoucherBalances(t *testing.T) {
	raw := marshalResult(t, "invoice", pipeline.InvoiceData{
		InvoiceNumber: "INV-42",
		InvoiceDate:   "15/03/2025",
		VendorName:    "Sunrise Traders",
		Total:         1180,
		TaxAmount:     180,
	})

	out, err := BuildVouchers(raw, "")
	if err != nil {
		t.Fatalf("BuildVouchers: %v", err)
	}
	xml := string(out)

	for _, want := range []string{
		"<VOUCHERTYPENAME>Sales</VOUCHERTYPENAME>",
		"<PARTYLEDGERNAME>Sunrise Traders</PARTYLEDGERNAME>",
		"<NARRATION>Invoice INV-42</NARRATION>",
		"<LEDGERNAME>Output Tax</LEDGERNAME>",
		"<AMOUNT>-1180</AMOUNT>",
		"<AMOUNT>1000</AMOUNT>",
	} {
		if !strings.Contains(xml, want) {
			t.Fatalf("missing %q in:\n%s", want, xml)
		}
	}
	if strings.Contains(xml, "SVCURRENTCOMPANY") {
		t.Fatalf("empty company must omit SVCURRENTCOMPANY:\n%s", xml)
	}
}

func TestTrialBalanceJournal(t *testing.T) {
	raw := marshalResult(t, "trial_balance", pipeline.TrialBalanceData{
		Entries: []pipeline.LedgerEntry{
			{Account: "Cash", Debit: 5000},
			{Account: "Capital", Credit: 5000},
		},
		Balanced: true,
	})

	out, err := BuildVouchers(raw, "")
	if err != nil {
		t.Fatalf("BuildVouchers: %v", err)
	}
	xml := string(out)
	if !strings.Contains(xml, "<VOUCHERTYPENAME>Journal</VOUCHERTYPENAME>") {
		t.Fatalf("expected journal voucher:\n%s", xml)
	}
	if !strings.Contains(xml, "<LEDGERNAME>Cash</LEDGERNAME>") || !strings.Contains(xml, "<LEDGERNAME>Capital</LEDGERNAME>") {
		t.Fatalf("expected both ledgers:\n%s", xml)
	}
}

func TestUnsupportedDocumentType(t *testing.T) {
	raw := marshalResult(t, "gst_return", pipeline.GSTReturnData{GSTIN: "22AAAAA0000A1Z5"})

	_, err := BuildVouchers(raw, "")
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestTallyDateFallsBackOnUnparseable(t *testing.T) {
	if got := tallyDate("01/02/2025"); got != "20250201" {
		t.Fatalf("expected 20250201, got %s", got)
	}
	if got := tallyDate("not a date"); len(got) != 8 {
		t.Fatalf("expected YYYYMMDD fallback, got %s", got)
	}
}
