package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/pinggolf/replenish-engine/internal/domain"
	"github.com/pinggolf/replenish-engine/internal/storage"
)

// Sales is the daily (date, sku) sales-record repository (§3 SalesRecord).
type Sales struct {
	eng *storage.Engine
}

func NewSales(eng *storage.Engine) *Sales { return &Sales{eng: eng} }

// Upsert writes or replaces a sales record for (date, sku), the shape EOD
// reconciliation (§4.8) needs.
func (r *Sales) Upsert(ctx context.Context, tx *sql.Tx, rec *domain.SalesRecord) error {
	exec := func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sales (date, sku, qty_sold, promo_flag) VALUES (?,?,?,?)
			ON CONFLICT (date, sku) DO UPDATE SET qty_sold = excluded.qty_sold, promo_flag = excluded.promo_flag`,
			rec.Date, rec.SKU, rec.QtySold, boolToInt(rec.PromoFlag))
		return classify("upsert sales record", err)
	}
	if tx != nil {
		return exec(tx)
	}
	return r.eng.WithTx(ctx, storage.Immediate, exec)
}

// ListForSKU returns every sales record for sku strictly before horizonEnd,
// the training window forecast.FitBaseline consumes.
func (r *Sales) ListForSKU(ctx context.Context, sku string, horizonEnd time.Time) ([]*domain.SalesRecord, error) {
	rows, err := r.eng.DB().QueryContext(ctx,
		"SELECT date, sku, qty_sold, promo_flag FROM sales WHERE sku = ? AND date < ? ORDER BY date ASC",
		sku, horizonEnd)
	if err != nil {
		return nil, classify("list sales records", err)
	}
	defer rows.Close()
	var out []*domain.SalesRecord
	for rows.Next() {
		var s domain.SalesRecord
		var promoFlag int
		if err := rows.Scan(&s.Date, &s.SKU, &s.QtySold, &promoFlag); err != nil {
			return nil, err
		}
		s.PromoFlag = promoFlag != 0
		out = append(out, &s)
	}
	return out, rows.Err()
}
