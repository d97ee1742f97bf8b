package report_repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erpledger/internal/domain/reports"
	"erpledger/internal/infrastructure/storage/postgres/record_repo"
)

func TestStatusCountsQuery(t *testing.T) {
	repo := NewReportRepo(nil)

	sql, args, err := repo.statusCountsQuery(record_repo.TableInvoices).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT status, COUNT(*) AS count FROM invoices GROUP BY status ORDER BY status", sql)
	assert.Empty(t, args)
}

func TestStatusTable(t *testing.T) {
	table, err := statusTable(reports.StatusPurchaseOrders)
	require.NoError(t, err)
	assert.Equal(t, record_repo.TablePurchaseOrders, table)

	_, err = statusTable("shipments")
	assert.Error(t, err)
}

func TestRankingQuery(t *testing.T) {
	repo := NewReportRepo(nil)

	sql, _, err := repo.rankingQuery(record_repo.TableCustomers, record_repo.TableSalesOrders, "customer_id", 5).ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT p.id, p.name, COALESCE(SUM(o.total_amount), 0) AS amount FROM customers p "+
			"LEFT JOIN sales_orders o ON o.customer_id = p.id GROUP BY p.id, p.name "+
			"ORDER BY amount DESC, p.name LIMIT 5",
		sql)

	sql, _, err = repo.rankingQuery(record_repo.TableSuppliers, record_repo.TablePurchaseOrders, "supplier_id", 0).ToSql()
	require.NoError(t, err)
	assert.NotContains(t, sql, "LIMIT")
}

func TestTotalsQuery(t *testing.T) {
	repo := NewReportRepo(nil)

	sql, args, err := repo.totalsQuery().ToSql()
	require.NoError(t, err)
	assert.Empty(t, args)
	assert.Contains(t, sql, "(SELECT COALESCE(SUM(total_amount), 0) FROM sales_orders WHERE status <> 'completed') AS open_receivables")
	assert.Contains(t, sql, "(SELECT COALESCE(SUM(total_amount), 0) FROM purchase_orders WHERE status <> 'closed') AS open_payables")
	assert.Contains(t, sql, "(SELECT COALESCE(SUM(-amount), 0) FROM transactions WHERE amount < 0) AS outflow")
	assert.Contains(t, sql, "(SELECT COUNT(*) FROM employees) AS employees")
}

func TestDepartmentCountsQuery(t *testing.T) {
	repo := NewReportRepo(nil)

	sql, _, err := repo.departmentCountsQuery().ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "COALESCE(d.name, 'Unassigned') AS department")
	assert.Contains(t, sql, "LEFT JOIN departments d ON d.id = e.department_id")
	assert.Contains(t, sql, "ORDER BY d.name NULLS LAST")
}
