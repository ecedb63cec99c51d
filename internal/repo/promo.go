package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/pinggolf/replenish-engine/internal/domain"
	"github.com/pinggolf/replenish-engine/internal/storage"
)

// Promo is the promotional-calendar repository (§4.2 PromoWindow).
type Promo struct {
	eng *storage.Engine
}

func NewPromo(eng *storage.Engine) *Promo { return &Promo{eng: eng} }

func (r *Promo) Insert(ctx context.Context, p *domain.PromoWindow) error {
	return r.eng.WithTx(ctx, storage.Immediate, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO promo_calendar (sku, start_date, end_date, store_id) VALUES (?,?,?,?)",
			p.SKU, p.StartDate, p.EndDate, p.StoreID)
		return classify("insert promo window", err)
	})
}

// ListOverlapping returns promo windows for sku overlapping [from, to].
func (r *Promo) ListOverlapping(ctx context.Context, sku string, from, to time.Time) ([]*domain.PromoWindow, error) {
	rows, err := r.eng.DB().QueryContext(ctx, `
		SELECT sku, start_date, end_date, store_id FROM promo_calendar
		WHERE sku = ? AND start_date <= ? AND end_date >= ?`, sku, to, from)
	if err != nil {
		return nil, classify("list promo windows", err)
	}
	defer rows.Close()
	var out []*domain.PromoWindow
	for rows.Next() {
		var p domain.PromoWindow
		if err := rows.Scan(&p.SKU, &p.StartDate, &p.EndDate, &p.StoreID); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}
