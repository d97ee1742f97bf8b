// Package report_repo provides the PostgreSQL implementation of reports.Repository.
// Aggregates are computed by the database instead of scanning rows.
package report_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"erpledger/internal/domain/documents"
	"erpledger/internal/domain/reports"
	"erpledger/internal/infrastructure/storage/postgres"
	"erpledger/internal/infrastructure/storage/postgres/record_repo"
)

// ReportRepo implements reports.Repository.
type ReportRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewReportRepo creates a new report repository.
func NewReportRepo(txm *postgres.TxManager) *ReportRepo {
	return &ReportRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *ReportRepo) selectAll(ctx context.Context, dst any, q squirrel.SelectBuilder, what string) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build %s query: %w", what, err)
	}
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), dst, sql, args...); err != nil {
		return fmt.Errorf("%s report: %w", what, err)
	}
	return nil
}

func (r *ReportRepo) totalsQuery() squirrel.SelectBuilder {
	sum := func(expr, table, where, alias string) string {
		q := fmt.Sprintf("(SELECT COALESCE(SUM(%s), 0) FROM %s", expr, table)
		if where != "" {
			q += " WHERE " + where
		}
		return q + ") AS " + alias
	}
	count := func(table, alias string) string {
		return fmt.Sprintf("(SELECT COUNT(*) FROM %s) AS %s", table, alias)
	}

	return r.builder.Select(
		sum("total_amount", record_repo.TableSalesOrders, "", "sales_revenue"),
		sum("total_amount", record_repo.TablePurchaseOrders, "", "purchase_spend"),
		count(record_repo.TableSalesOrders, "sales_orders"),
		count(record_repo.TablePurchaseOrders, "purchase_orders"),
		count(record_repo.TableEmployees, "employees"),
		sum("stock_quantity * unit_price", record_repo.TableProducts, "", "inventory_value"),
		sum("total_amount", record_repo.TableSalesOrders,
			fmt.Sprintf("status <> '%s'", documents.SalesOrderCompleted), "open_receivables"),
		sum("total_amount", record_repo.TablePurchaseOrders,
			fmt.Sprintf("status <> '%s'", documents.PurchaseOrderClosed), "open_payables"),
		sum("amount", record_repo.TableTransactions, "amount > 0", "inflow"),
		sum("-amount", record_repo.TableTransactions, "amount < 0", "outflow"),
	)
}

// GetTotals implements reports.Repository.
func (r *ReportRepo) GetTotals(ctx context.Context) (*reports.Totals, error) {
	sql, args, err := r.totalsQuery().ToSql()
	if err != nil {
		return nil, fmt.Errorf("build totals query: %w", err)
	}
	var t reports.Totals
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &t, sql, args...); err != nil {
		return nil, fmt.Errorf("totals report: %w", err)
	}
	return &t, nil
}

func statusTable(kind reports.StatusKind) (string, error) {
	switch kind {
	case reports.StatusSalesOrders:
		return record_repo.TableSalesOrders, nil
	case reports.StatusPurchaseOrders:
		return record_repo.TablePurchaseOrders, nil
	case reports.StatusInvoices:
		return record_repo.TableInvoices, nil
	}
	return "", fmt.Errorf("unknown status kind %q", kind)
}

func (r *ReportRepo) statusCountsQuery(table string) squirrel.SelectBuilder {
	return r.builder.
		Select("status", "COUNT(*) AS count").
		From(table).
		GroupBy("status").
		OrderBy("status")
}

// GetStatusCounts implements reports.Repository.
func (r *ReportRepo) GetStatusCounts(ctx context.Context, kind reports.StatusKind) ([]reports.StatusCount, error) {
	table, err := statusTable(kind)
	if err != nil {
		return nil, err
	}
	var rows []reports.StatusCount
	if err := r.selectAll(ctx, &rows, r.statusCountsQuery(table), "status counts"); err != nil {
		return nil, err
	}
	return rows, nil
}

// rankingQuery sums order totals per counterparty, largest first.
func (r *ReportRepo) rankingQuery(parties, orders, fk string, limit int) squirrel.SelectBuilder {
	q := r.builder.
		Select("p.id", "p.name", "COALESCE(SUM(o.total_amount), 0) AS amount").
		From(parties + " p").
		LeftJoin(fmt.Sprintf("%s o ON o.%s = p.id", orders, fk)).
		GroupBy("p.id", "p.name").
		OrderBy("amount DESC", "p.name")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	return q
}

// GetTopCustomers implements reports.Repository.
func (r *ReportRepo) GetTopCustomers(ctx context.Context, limit int) ([]reports.NamedAmount, error) {
	var rows []reports.NamedAmount
	q := r.rankingQuery(record_repo.TableCustomers, record_repo.TableSalesOrders, "customer_id", limit)
	if err := r.selectAll(ctx, &rows, q, "top customers"); err != nil {
		return nil, err
	}
	return rows, nil
}

// GetTopSuppliers implements reports.Repository.
func (r *ReportRepo) GetTopSuppliers(ctx context.Context, limit int) ([]reports.NamedAmount, error) {
	var rows []reports.NamedAmount
	q := r.rankingQuery(record_repo.TableSuppliers, record_repo.TablePurchaseOrders, "supplier_id", limit)
	if err := r.selectAll(ctx, &rows, q, "top suppliers"); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ReportRepo) productStockQuery() squirrel.SelectBuilder {
	return r.builder.
		Select("id", "name", "sku", "stock_quantity AS stock", "reorder_level").
		From(record_repo.TableProducts)
}

// GetTopProducts implements reports.Repository.
func (r *ReportRepo) GetTopProducts(ctx context.Context, limit int) ([]reports.ProductStock, error) {
	q := r.productStockQuery().OrderBy("stock_quantity DESC", "name")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	var rows []reports.ProductStock
	if err := r.selectAll(ctx, &rows, q, "top products"); err != nil {
		return nil, err
	}
	return rows, nil
}

// GetLowStock implements reports.Repository.
func (r *ReportRepo) GetLowStock(ctx context.Context) ([]reports.ProductStock, error) {
	q := r.productStockQuery().
		Where("reorder_level > 0 AND stock_quantity <= reorder_level").
		OrderBy("stock_quantity")
	var rows []reports.ProductStock
	if err := r.selectAll(ctx, &rows, q, "low stock"); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ReportRepo) departmentCountsQuery() squirrel.SelectBuilder {
	return r.builder.
		Select(fmt.Sprintf("COALESCE(d.name, '%s') AS department", reports.UnassignedDepartment), "COUNT(*) AS employees").
		From(record_repo.TableEmployees + " e").
		LeftJoin(record_repo.TableDepartments + " d ON d.id = e.department_id").
		GroupBy("d.name").
		OrderBy("d.name NULLS LAST")
}

// GetDepartmentCounts implements reports.Repository.
func (r *ReportRepo) GetDepartmentCounts(ctx context.Context) ([]reports.DepartmentCount, error) {
	var rows []reports.DepartmentCount
	if err := r.selectAll(ctx, &rows, r.departmentCountsQuery(), "department counts"); err != nil {
		return nil, err
	}
	return rows, nil
}

// GetAccountBalances implements reports.Repository.
func (r *ReportRepo) GetAccountBalances(ctx context.Context) ([]reports.NamedAmount, error) {
	q := r.builder.
		Select("id", "name", "balance AS amount").
		From(record_repo.TableAccounts).
		OrderBy("name")
	var rows []reports.NamedAmount
	if err := r.selectAll(ctx, &rows, q, "account balances"); err != nil {
		return nil, err
	}
	return rows, nil
}

var _ reports.Repository = (*ReportRepo)(nil)
