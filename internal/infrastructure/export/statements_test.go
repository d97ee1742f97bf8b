package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"erpledger/internal/core/types"
	"erpledger/internal/domain/reports"
)

func openWorkbook(t *testing.T, buf *bytes.Buffer) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func cellAmount(t *testing.T, f *excelize.File, sheet, cell string) decimal.Decimal {
	t.Helper()
	raw, err := f.GetCellValue(sheet, cell, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	d, err := decimal.NewFromString(raw)
	require.NoError(t, err)
	return d
}

func TestIncomeStatementWorkbook(t *testing.T) {
	var buf bytes.Buffer
	err := IncomeStatement(&buf, &reports.IncomeStatement{
		GeneratedAt:       time.Date(2024, 6, 30, 18, 0, 0, 0, time.UTC),
		Revenue:           types.MustMoney("350"),
		CostOfGoodsSold:   types.MustMoney("150"),
		GrossProfit:       types.MustMoney("200"),
		OperatingExpenses: types.MustMoney("80"),
		NetIncome:         types.MustMoney("120"),
		ProfitMargin:      types.MustMoney("34.29"),
	})
	require.NoError(t, err)

	f := openWorkbook(t, &buf)
	assert.Equal(t, []string{"Income Statement"}, f.GetSheetList())

	title, err := f.GetCellValue("Income Statement", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Income Statement", title)

	generated, err := f.GetCellValue("Income Statement", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Generated on 2024-06-30 18:00 UTC", generated)

	label, err := f.GetCellValue("Income Statement", "A8")
	require.NoError(t, err)
	assert.Equal(t, "Net Income", label)
	assert.True(t, cellAmount(t, f, "Income Statement", "B8").Equal(decimal.NewFromInt(120)))
	assert.True(t, cellAmount(t, f, "Income Statement", "B9").Equal(types.MustMoney("34.29")))
}

func TestBalanceSheetWorkbook(t *testing.T) {
	var buf bytes.Buffer
	err := BalanceSheet(&buf, &reports.BalanceSheet{
		Inventory:          types.MustMoney("350"),
		AccountsReceivable: types.MustMoney("250"),
		Cash:               types.MustMoney("420"),
		TotalAssets:        types.MustMoney("1020"),
		AccountsPayable:    types.MustMoney("30"),
		RetainedEarnings:   types.MustMoney("200"),
		TotalLiabilities:   types.MustMoney("230"),
		Difference:         types.MustMoney("790"),
	})
	require.NoError(t, err)

	f := openWorkbook(t, &buf)
	label, err := f.GetCellValue("Balance Sheet", "A7")
	require.NoError(t, err)
	assert.Equal(t, "Total Assets", label)
	assert.True(t, cellAmount(t, f, "Balance Sheet", "B7").Equal(decimal.NewFromInt(1020)))
	assert.True(t, cellAmount(t, f, "Balance Sheet", "B11").Equal(decimal.NewFromInt(790)))
}

func TestCashFlowWorkbook_PaymentsAreNegative(t *testing.T) {
	var buf bytes.Buffer
	err := CashFlow(&buf, &reports.CashFlow{
		Operating:       types.MustMoney("420"),
		Investing:       types.Zero(),
		Financing:       types.Zero(),
		Net:             types.MustMoney("420"),
		CashFromSales:   types.MustMoney("350"),
		CashToPurchases: types.MustMoney("150"),
		OtherOperating:  types.MustMoney("220"),
	})
	require.NoError(t, err)

	f := openWorkbook(t, &buf)
	assert.True(t, cellAmount(t, f, "Cash Flow", "B5").Equal(decimal.NewFromInt(-150)))
	assert.True(t, cellAmount(t, f, "Cash Flow", "B10").Equal(decimal.NewFromInt(420)))
}
