package pipeline

import "fmt"

// buildReports produces the per-type summary shipped alongside extracted
// data. Report failures are not fatal to a run; callers get an empty
// Reports value instead.
func buildReports(data any) Reports {
	switch d := data.(type) {
	case BankStatementData:
		return Reports{
			Summary: fmt.Sprintf("%d transactions, credits %.2f, debits %.2f", len(d.Transactions), d.TotalCredits, d.TotalDebits),
			Totals: map[string]float64{
				"credits":      d.TotalCredits,
				"debits":       d.TotalDebits,
				"net_movement": d.TotalCredits - d.TotalDebits,
			},
		}
	case InvoiceData:
		return Reports{
			Summary: fmt.Sprintf("invoice %s: %d line items, total %.2f", d.InvoiceNumber, len(d.LineItems), d.Total),
			Totals: map[string]float64{
				"total": d.Total,
				"tax":   d.TaxAmount,
			},
		}
	case PurchaseOrderData:
		return Reports{
			Summary: fmt.Sprintf("purchase order %s: %d line items, total %.2f", d.OrderNumber, len(d.LineItems), d.Total),
			Totals:  map[string]float64{"total": d.Total},
		}
	case TrialBalanceData:
		return Reports{
			Summary: fmt.Sprintf("%d accounts, debits %.2f, credits %.2f, balanced=%t", len(d.Entries), d.TotalDebits, d.TotalCredits, d.Balanced),
			Totals: map[string]float64{
				"debits":  d.TotalDebits,
				"credits": d.TotalCredits,
			},
		}
	case ProfitLossData:
		return Reports{
			Summary: fmt.Sprintf("income %.2f, expenses %.2f, net %.2f", d.TotalIncome, d.TotalExpenses, d.NetProfit),
			Totals: map[string]float64{
				"income":     d.TotalIncome,
				"expenses":   d.TotalExpenses,
				"net_profit": d.NetProfit,
			},
		}
	case GSTReturnData:
		return Reports{
			Summary: fmt.Sprintf("GSTIN %s period %s, tax %.2f", d.GSTIN, d.Period, d.TotalTax),
			Totals: map[string]float64{
				"taxable_value": d.TaxableValue,
				"total_tax":     d.TotalTax,
			},
		}
	default:
		return Reports{}
	}
}
