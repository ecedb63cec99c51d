package repo

import (
	"context"
	"database/sql"

	"github.com/pinggolf/replenish-engine/internal/domain"
	"github.com/pinggolf/replenish-engine/internal/storage"
)

// Orders is the confirmed-order repository (§4.2 OrderLog).
type Orders struct {
	eng *storage.Engine
}

func NewOrders(eng *storage.Engine) *Orders { return &Orders{eng: eng} }

// Insert writes a new OrderLog row. Callers assign order_id deterministically
// (§4.8 "Order confirmation"); uniqueness violations surface as DuplicateKey.
func (r *Orders) Insert(ctx context.Context, o *domain.OrderLog) error {
	return r.eng.WithTx(ctx, storage.Immediate, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO order_logs (order_id, date, sku, qty_ordered, qty_received, status, receipt_date, explain)
			VALUES (?,?,?,?,?,?,?,?)`,
			o.OrderID, o.Date, o.SKU, o.QtyOrdered, o.QtyReceived, string(o.Status), o.ReceiptDate, o.ExplainJSON)
		return classify("insert order log", err)
	})
}

// Get fetches one order by id within an ambient transaction (tx may be nil
// to use the pool directly).
func (r *Orders) Get(ctx context.Context, tx *sql.Tx, orderID string) (*domain.OrderLog, error) {
	row := r.queryRow(ctx, tx, orderSelectCols+" WHERE order_id = ?", orderID)
	o, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, domain.NotFound("order not found: "+orderID, err)
	}
	return o, err
}

// ListPendingForSKU returns orders in PENDING or PARTIAL status for sku,
// ordered by date ascending (FIFO allocation order, §4.8).
func (r *Orders) ListPendingForSKU(ctx context.Context, tx *sql.Tx, sku string) ([]*domain.OrderLog, error) {
	rows, err := r.query(ctx, tx, orderSelectCols+
		" WHERE sku = ? AND status IN ('PENDING','PARTIAL') ORDER BY date ASC, order_id ASC", sku)
	if err != nil {
		return nil, classify("list pending orders", err)
	}
	defer rows.Close()
	var out []*domain.OrderLog
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// UpdateReceived updates qty_received and the derived status for order_id
// within the caller's transaction (§4.8 receipt closure step 3).
func (r *Orders) UpdateReceived(ctx context.Context, tx *sql.Tx, orderID string, qtyReceived int, status domain.OrderStatus) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE order_logs SET qty_received = ?, status = ? WHERE order_id = ?`,
		qtyReceived, string(status), orderID)
	if err != nil {
		return classify("update order received", err)
	}
	return requireRowsAffected(res, "order not found: "+orderID)
}

func (r *Orders) queryRow(ctx context.Context, tx *sql.Tx, query string, args ...interface{}) *sql.Row {
	if tx != nil {
		return tx.QueryRowContext(ctx, query, args...)
	}
	return r.eng.DB().QueryRowContext(ctx, query, args...)
}

func (r *Orders) query(ctx context.Context, tx *sql.Tx, query string, args ...interface{}) (*sql.Rows, error) {
	if tx != nil {
		return tx.QueryContext(ctx, query, args...)
	}
	return r.eng.DB().QueryContext(ctx, query, args...)
}

const orderSelectCols = `SELECT order_id, date, sku, qty_ordered, qty_received, status, receipt_date, explain FROM order_logs`

func scanOrder(row rowScanner) (*domain.OrderLog, error) {
	var o domain.OrderLog
	var status string
	var receiptDate sql.NullTime
	if err := row.Scan(&o.OrderID, &o.Date, &o.SKU, &o.QtyOrdered, &o.QtyReceived, &status, &receiptDate, &o.ExplainJSON); err != nil {
		return nil, err
	}
	o.Status = domain.OrderStatus(status)
	if receiptDate.Valid {
		o.ReceiptDate = receiptDate.Time
	}
	return &o, nil
}
