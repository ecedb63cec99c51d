package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/pinggolf/replenish-engine/internal/domain"
	"github.com/pinggolf/replenish-engine/internal/storage"
)

// Ledger is the append-only transaction log repository (§4.2).
type Ledger struct {
	eng *storage.Engine
}

func NewLedger(eng *storage.Engine) *Ledger { return &Ledger{eng: eng} }

// Append inserts one transaction and returns its assigned id.
func (r *Ledger) Append(ctx context.Context, tx *domain.Transaction) (int64, error) {
	var id int64
	err := r.eng.WithTx(ctx, storage.Immediate, func(sqlTx *sql.Tx) error {
		var err error
		id, err = r.AppendTx(ctx, sqlTx, tx)
		return err
	})
	return id, err
}

// AppendTx inserts one transaction within the caller's transaction, for
// workflows (e.g. receipt closure, §4.8) that need the ledger write to
// share atomicity with other repository writes.
func (r *Ledger) AppendTx(ctx context.Context, sqlTx *sql.Tx, tx *domain.Transaction) (int64, error) {
	if !tx.Event.Valid() {
		return 0, domain.BusinessRule("invalid event type: "+string(tx.Event), nil)
	}
	res, err := sqlTx.ExecContext(ctx,
		`INSERT INTO transactions (date, sku, event, qty, receipt_date, note) VALUES (?,?,?,?,?,?)`,
		tx.Date, tx.SKU, string(tx.Event), tx.Qty, tx.ReceiptDate, tx.Note)
	if err != nil {
		return 0, classify("append transaction", err)
	}
	return res.LastInsertId()
}

// AppendBatch inserts all transactions atomically (all-or-nothing) under an
// immediate-isolation transaction.
func (r *Ledger) AppendBatch(ctx context.Context, txs []*domain.Transaction) ([]int64, error) {
	ids := make([]int64, len(txs))
	err := r.eng.WithTx(ctx, storage.Immediate, func(sqlTx *sql.Tx) error {
		for i, tx := range txs {
			if !tx.Event.Valid() {
				return domain.BusinessRule("invalid event type: "+string(tx.Event), nil)
			}
			res, err := sqlTx.ExecContext(ctx,
				`INSERT INTO transactions (date, sku, event, qty, receipt_date, note) VALUES (?,?,?,?,?,?)`,
				tx.Date, tx.SKU, string(tx.Event), tx.Qty, tx.ReceiptDate, tx.Note)
			if err != nil {
				return classify("append transaction batch", err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				return err
			}
			ids[i] = id
		}
		return nil
	})
	return ids, err
}

// DeleteByID is the only sanctioned mutation of the ledger, used to revert
// exception rows (§4.2, §9).
func (r *Ledger) DeleteByID(ctx context.Context, id int64) error {
	return r.eng.WithTx(ctx, storage.Immediate, func(sqlTx *sql.Tx) error {
		res, err := sqlTx.ExecContext(ctx, "DELETE FROM transactions WHERE transaction_id = ?", id)
		if err != nil {
			return classify("delete transaction", err)
		}
		return requireRowsAffected(res, "transaction not found")
	})
}

// ListForSKU returns every transaction for sku, unordered; callers sort via
// internal/ledger's deterministic replay order.
func (r *Ledger) ListForSKU(ctx context.Context, sku string) ([]*domain.Transaction, error) {
	rows, err := r.eng.DB().QueryContext(ctx,
		`SELECT transaction_id, date, sku, event, qty, receipt_date, note
		 FROM transactions WHERE sku = ?`, sku)
	if err != nil {
		return nil, classify("list transactions", err)
	}
	defer rows.Close()

	var out []*domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		var event string
		var receiptDate sql.NullTime
		if err := rows.Scan(&t.ID, &t.Date, &t.SKU, &event, &t.Qty, &receiptDate, &t.Note); err != nil {
			return nil, err
		}
		t.Event = domain.EventType(event)
		if receiptDate.Valid {
			rd := receiptDate.Time
			t.ReceiptDate = &rd
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

// FindException locates a ledger row matching the natural key used by
// exception idempotency (date, sku, event), per §4.8.
func (r *Ledger) FindException(ctx context.Context, date time.Time, sku string, event domain.EventType) (*domain.Transaction, error) {
	row := r.eng.DB().QueryRowContext(ctx,
		`SELECT transaction_id, date, sku, event, qty, receipt_date, note
		 FROM transactions WHERE date = ? AND sku = ? AND event = ? LIMIT 1`,
		date, sku, string(event))
	var t domain.Transaction
	var ev string
	var receiptDate sql.NullTime
	err := row.Scan(&t.ID, &t.Date, &t.SKU, &ev, &t.Qty, &receiptDate, &t.Note)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	t.Event = domain.EventType(ev)
	if receiptDate.Valid {
		rd := receiptDate.Time
		t.ReceiptDate = &rd
	}
	return &t, nil
}
