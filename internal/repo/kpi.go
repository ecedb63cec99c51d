package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/pinggolf/replenish-engine/internal/storage"
)

// KPIDaily is the daily KPI snapshot repository, keyed by (sku, date, mode)
// where mode distinguishes e.g. "legacy" vs "csl" policy runs (§9).
type KPIDaily struct {
	eng *storage.Engine
}

func NewKPIDaily(eng *storage.Engine) *KPIDaily { return &KPIDaily{eng: eng} }

// Upsert writes or replaces the KPI payload for (sku, date, mode).
func (r *KPIDaily) Upsert(ctx context.Context, sku string, date time.Time, mode string, payloadJSON string) error {
	return r.eng.WithTx(ctx, storage.Immediate, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO kpi_daily (sku, date, mode, payload) VALUES (?,?,?,?)
			ON CONFLICT (sku, date, mode) DO UPDATE SET payload = excluded.payload`,
			sku, date, mode, payloadJSON)
		return classify("upsert kpi daily", err)
	})
}

// ListRange returns KPI rows for sku within [from, to] for the given mode.
func (r *KPIDaily) ListRange(ctx context.Context, sku string, from, to time.Time, mode string) ([]KPIRow, error) {
	rows, err := r.eng.DB().QueryContext(ctx, `
		SELECT sku, date, mode, payload FROM kpi_daily
		WHERE sku = ? AND mode = ? AND date BETWEEN ? AND ? ORDER BY date ASC`,
		sku, mode, from, to)
	if err != nil {
		return nil, classify("list kpi daily", err)
	}
	defer rows.Close()
	var out []KPIRow
	for rows.Next() {
		var k KPIRow
		if err := rows.Scan(&k.SKU, &k.Date, &k.Mode, &k.PayloadJSON); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// KPIRow is one kpi_daily row.
type KPIRow struct {
	SKU         string
	Date        time.Time
	Mode        string
	PayloadJSON string
}
