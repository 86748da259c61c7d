// Package export renders extraction results as XLSX workbooks for
// download alongside the Tally XML path.
package export

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"finsight-backend/internal/doctype"
	"finsight-backend/internal/pipeline"
)

// WorkbookXLSX returns an XLSX workbook (as bytes) for a succeeded job's
// result payload. Row layout depends on the document type; every workbook
// carries a Summary sheet built from the generated reports.
func WorkbookXLSX(raw json.RawMessage) ([]byte, error) {
	var result pipeline.Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}

	f := excelize.NewFile()
	if err := writeData(f, result); err != nil {
		return nil, err
	}
	if err := writeSummary(f, result.Reports); err != nil {
		return nil, err
	}
	// excelize opens with a default sheet; keep ours active.
	if index, err := f.GetSheetIndex("Data"); err == nil && index != -1 {
		f.SetActiveSheet(index)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func writeData(f *excelize.File, result pipeline.Result) error {
	const sheet = "Data"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	switch result.DocumentType {
	case doctype.BankStatement:
		var data pipeline.BankStatementData
		if err := json.Unmarshal(result.ExtractedData, &data); err != nil {
			return fmt.Errorf("decode bank statement data: %w", err)
		}
		writeHeaders(f, sheet, []string{"Date", "Description", "Amount", "Type"})
		for i, tx := range data.Transactions {
			writeRow(f, sheet, i+2, tx.Date, tx.Description, tx.Amount, tx.Type)
		}
	case doctype.Invoice:
		var data pipeline.InvoiceData
		if err := json.Unmarshal(result.ExtractedData, &data); err != nil {
			return fmt.Errorf("decode invoice data: %w", err)
		}
		writeHeaders(f, sheet, []string{"Invoice Number", "Date", "Vendor", "Description", "Amount"})
		for i, item := range data.LineItems {
			writeRow(f, sheet, i+2, data.InvoiceNumber, data.InvoiceDate, data.VendorName, item.Description, item.Amount)
		}
	case doctype.PurchaseOrder:
		var data pipeline.PurchaseOrderData
		if err := json.Unmarshal(result.ExtractedData, &data); err != nil {
			return fmt.Errorf("decode purchase order data: %w", err)
		}
		writeHeaders(f, sheet, []string{"Order Number", "Date", "Supplier", "Description", "Amount"})
		for i, item := range data.LineItems {
			writeRow(f, sheet, i+2, data.OrderNumber, data.OrderDate, data.SupplierName, item.Description, item.Amount)
		}
	case doctype.TrialBalance:
		var data pipeline.TrialBalanceData
		if err := json.Unmarshal(result.ExtractedData, &data); err != nil {
			return fmt.Errorf("decode trial balance data: %w", err)
		}
		writeHeaders(f, sheet, []string{"Account", "Debit", "Credit"})
		for i, entry := range data.Entries {
			writeRow(f, sheet, i+2, entry.Account, entry.Debit, entry.Credit)
		}
	case doctype.ProfitLoss:
		var data pipeline.ProfitLossData
		if err := json.Unmarshal(result.ExtractedData, &data); err != nil {
			return fmt.Errorf("decode profit and loss data: %w", err)
		}
		writeHeaders(f, sheet, []string{"Section", "Account", "Amount"})
		row := 2
		for _, item := range data.Income {
			writeRow(f, sheet, row, "Income", item.Account, item.Amount)
			row++
		}
		for _, item := range data.Expenses {
			writeRow(f, sheet, row, "Expense", item.Account, item.Amount)
			row++
		}
	case doctype.GSTReturn:
		var data pipeline.GSTReturnData
		if err := json.Unmarshal(result.ExtractedData, &data); err != nil {
			return fmt.Errorf("decode GST return data: %w", err)
		}
		writeHeaders(f, sheet, []string{"GSTIN", "Taxable Value", "CGST", "SGST", "IGST"})
		writeRow(f, sheet, 2, data.GSTIN, data.TaxableValue, data.CGST, data.SGST, data.IGST)
	default:
		return fmt.Errorf("unexpected document type %q", result.DocumentType)
	}

	_ = f.SetColWidth(sheet, "A", "A", 18)
	_ = f.SetColWidth(sheet, "B", "B", 40)
	_ = f.SetColWidth(sheet, "C", "E", 14)
	return nil
}

func writeSummary(f *excelize.File, reports pipeline.Reports) error {
	const sheet = "Summary"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	_ = f.SetCellValue(sheet, "A1", "Summary")
	_ = f.SetCellValue(sheet, "B1", reports.Summary)
	row := 3
	for _, key := range sortedKeys(reports.Totals) {
		cellA, _ := excelize.CoordinatesToCellName(1, row)
		cellB, _ := excelize.CoordinatesToCellName(2, row)
		_ = f.SetCellValue(sheet, cellA, key)
		_ = f.SetCellValue(sheet, cellB, reports.Totals[key])
		row++
	}
	_ = f.SetColWidth(sheet, "A", "A", 24)
	_ = f.SetColWidth(sheet, "B", "B", 60)
	return nil
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func writeHeaders(f *excelize.File, sheet string, headers []string) {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
}

func writeRow(f *excelize.File, sheet string, row int, values ...any) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}
