// Package export renders financial statements as XLSX workbooks.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"erpledger/internal/core/types"
	"erpledger/internal/domain/reports"
)

// ContentType is the MIME type of the produced workbooks.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Built-in excelize number format "#,##0.00".
const moneyFormat = 4

const firstLineRow = 4

// line is one labelled amount on a statement sheet.
type line struct {
	label string
	value types.Money
	total bool
}

// statement is a titled list of lines rendered on one sheet.
type statement struct {
	sheet       string
	title       string
	generatedAt time.Time
	lines       []line
}

// IncomeStatement writes the income statement workbook to w.
func IncomeStatement(w io.Writer, s *reports.IncomeStatement) error {
	return write(w, statement{
		sheet:       "Income Statement",
		title:       "Income Statement",
		generatedAt: s.GeneratedAt,
		lines: []line{
			{label: "Revenue", value: s.Revenue},
			{label: "Cost of Goods Sold", value: s.CostOfGoodsSold},
			{label: "Gross Profit", value: s.GrossProfit, total: true},
			{label: "Operating Expenses", value: s.OperatingExpenses},
			{label: "Net Income", value: s.NetIncome, total: true},
			{label: "Profit Margin (%)", value: s.ProfitMargin},
		},
	})
}

// BalanceSheet writes the balance sheet workbook to w.
func BalanceSheet(w io.Writer, s *reports.BalanceSheet) error {
	return write(w, statement{
		sheet:       "Balance Sheet",
		title:       "Balance Sheet",
		generatedAt: s.GeneratedAt,
		lines: []line{
			{label: "Inventory", value: s.Inventory},
			{label: "Accounts Receivable", value: s.AccountsReceivable},
			{label: "Cash and Cash Equivalents", value: s.Cash},
			{label: "Total Assets", value: s.TotalAssets, total: true},
			{label: "Accounts Payable", value: s.AccountsPayable},
			{label: "Retained Earnings", value: s.RetainedEarnings},
			{label: "Total Liabilities and Equity", value: s.TotalLiabilities, total: true},
			{label: "Balance Difference", value: s.Difference},
		},
	})
}

// CashFlow writes the cash flow statement workbook to w.
func CashFlow(w io.Writer, s *reports.CashFlow) error {
	return write(w, statement{
		sheet:       "Cash Flow",
		title:       "Cash Flow Statement",
		generatedAt: s.GeneratedAt,
		lines: []line{
			{label: "Cash received from customers", value: s.CashFromSales},
			{label: "Cash paid to suppliers", value: s.CashToPurchases.Neg()},
			{label: "Other operating cash flows", value: s.OtherOperating},
			{label: "Net cash from operating activities", value: s.Operating, total: true},
			{label: "Net cash from investing activities", value: s.Investing, total: true},
			{label: "Net cash from financing activities", value: s.Financing, total: true},
			{label: "Net change in cash", value: s.Net, total: true},
		},
	})
}

func write(w io.Writer, st statement) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err := f.SetSheetName("Sheet1", st.sheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}
	if err := f.SetColWidth(st.sheet, "A", "A", 40); err != nil {
		return fmt.Errorf("size columns: %w", err)
	}
	if err := f.SetColWidth(st.sheet, "B", "B", 18); err != nil {
		return fmt.Errorf("size columns: %w", err)
	}

	heading, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	amount, err := f.NewStyle(&excelize.Style{NumFmt: moneyFormat})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	total, err := f.NewStyle(&excelize.Style{NumFmt: moneyFormat, Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	if err := f.SetCellValue(st.sheet, "A1", st.title); err != nil {
		return err
	}
	if err := f.SetCellStyle(st.sheet, "A1", "A1", heading); err != nil {
		return err
	}
	if err := f.SetCellValue(st.sheet, "A2", "Generated on "+st.generatedAt.Format("2006-01-02 15:04 MST")); err != nil {
		return err
	}

	for i, l := range st.lines {
		row := firstLineRow + i
		label, _ := excelize.CoordinatesToCellName(1, row)
		value, _ := excelize.CoordinatesToCellName(2, row)
		if err := f.SetCellValue(st.sheet, label, l.label); err != nil {
			return err
		}
		if err := f.SetCellFloat(st.sheet, value, l.value.InexactFloat64(), -1, 64); err != nil {
			return err
		}
		style := amount
		if l.total {
			style = total
		}
		if err := f.SetCellStyle(st.sheet, label, value, style); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
