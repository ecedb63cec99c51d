package repo

import (
	"context"
	"database/sql"

	"github.com/pinggolf/replenish-engine/internal/domain"
	"github.com/pinggolf/replenish-engine/internal/storage"
)

// Receiving is the physical-receipt document repository (§4.2 ReceivingLog).
type Receiving struct {
	eng *storage.Engine
}

func NewReceiving(eng *storage.Engine) *Receiving { return &Receiving{eng: eng} }

// Exists reports whether document_id has already been processed, the core
// of the receipt-closure idempotency check (§4.8 step 1).
func (r *Receiving) Exists(ctx context.Context, tx *sql.Tx, documentID string) (bool, error) {
	var n int
	err := tx.QueryRowContext(ctx, "SELECT COUNT(1) FROM receiving_logs WHERE document_id = ?", documentID).Scan(&n)
	if err != nil {
		return false, classify("check receiving document", err)
	}
	return n > 0, nil
}

// Insert writes one ReceivingLog row within the caller's transaction.
func (r *Receiving) Insert(ctx context.Context, tx *sql.Tx, l *domain.ReceivingLog) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO receiving_logs (document_id, receipt_id, date, sku, qty_received, receipt_date)
		VALUES (?,?,?,?,?,?)`,
		l.DocumentID, l.ReceiptID, l.Date, l.SKU, l.QtyReceived, l.ReceiptDate)
	return classify("insert receiving log", err)
}

// LinkOrder inserts the order_receipts junction row tying a receiving
// document to an order it (partially) fulfilled.
func (r *Receiving) LinkOrder(ctx context.Context, tx *sql.Tx, orderID, documentID string) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO order_receipts (order_id, document_id) VALUES (?,?)", orderID, documentID)
	return classify("link order receipt", err)
}

// WithTx runs fn inside an immediate-isolation transaction, the scope the
// whole receipt-closure workflow (§4.8) must execute in.
func (r *Receiving) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return r.eng.WithTx(ctx, storage.Immediate, fn)
}
