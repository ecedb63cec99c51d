package repo

import (
	"context"
	"database/sql"

	"github.com/pinggolf/replenish-engine/internal/domain"
	"github.com/pinggolf/replenish-engine/internal/storage"
)

// Lots is the FEFO-tracked inventory-lot repository (§4.2).
type Lots struct {
	eng *storage.Engine
}

func NewLots(eng *storage.Engine) *Lots { return &Lots{eng: eng} }

// ListForSKU returns every lot for sku, unordered; callers FEFO-sort via
// internal/ledger.
func (r *Lots) ListForSKU(ctx context.Context, sku string) ([]*domain.Lot, error) {
	rows, err := r.eng.DB().QueryContext(ctx,
		"SELECT lot_id, sku, qty_on_hand, expiry_date, receipt_id FROM lots WHERE sku = ?", sku)
	if err != nil {
		return nil, classify("list lots", err)
	}
	defer rows.Close()
	var out []*domain.Lot
	for rows.Next() {
		l, err := scanLot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Insert creates a new lot, typically on receipt.
func (r *Lots) Insert(ctx context.Context, tx *sql.Tx, l *domain.Lot) error {
	exec := func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO lots (lot_id, sku, qty_on_hand, expiry_date, receipt_id) VALUES (?,?,?,?,?)",
			l.LotID, l.SKU, l.QtyOnHand, l.ExpiryDate, l.ReceiptID)
		return classify("insert lot", err)
	}
	if tx != nil {
		return exec(tx)
	}
	return r.eng.WithTx(ctx, storage.Immediate, exec)
}

// SetQty updates a lot's qty_on_hand, e.g. after FEFO consumption.
func (r *Lots) SetQty(ctx context.Context, tx *sql.Tx, lotID string, qty int) error {
	res, err := tx.ExecContext(ctx, "UPDATE lots SET qty_on_hand = ? WHERE lot_id = ?", qty, lotID)
	if err != nil {
		return classify("update lot qty", err)
	}
	return requireRowsAffected(res, "lot not found: "+lotID)
}

func scanLot(row rowScanner) (*domain.Lot, error) {
	var l domain.Lot
	var expiry sql.NullTime
	if err := row.Scan(&l.LotID, &l.SKU, &l.QtyOnHand, &expiry, &l.ReceiptID); err != nil {
		return nil, err
	}
	if expiry.Valid {
		e := expiry.Time
		l.ExpiryDate = &e
	}
	return &l, nil
}
