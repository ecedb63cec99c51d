package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/pinggolf/replenish-engine/internal/domain"
	"github.com/pinggolf/replenish-engine/internal/storage"
)

// SKUs is the SKU master repository (§4.2).
type SKUs struct {
	eng *storage.Engine
}

func NewSKUs(eng *storage.Engine) *SKUs { return &SKUs{eng: eng} }

// Upsert inserts the SKU if absent, or updates every field otherwise.
func (r *SKUs) Upsert(ctx context.Context, s *domain.SKU) error {
	if err := s.Validate(); err != nil {
		return err
	}
	return r.eng.WithTx(ctx, storage.Immediate, func(tx *sql.Tx) error {
		now := time.Now().UTC()
		_, err := tx.ExecContext(ctx, `
			INSERT INTO skus (
				sku, description, ean, category, department, in_assortment,
				moq, pack_size, lead_time_days, review_period_days, safety_stock,
				reorder_point, max_stock, shelf_life_days, min_shelf_life_days,
				waste_penalty_mode, waste_penalty_factor, waste_risk_threshold,
				demand_variability, target_csl, forecast_method, mc_distribution,
				mc_n_simulations, mc_random_seed, mc_output_stat, mc_output_percentile,
				mc_horizon_mode, mc_horizon_days, oos_popup_preference, created_at, updated_at
			) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
			ON CONFLICT(sku) DO UPDATE SET
				description=excluded.description, ean=excluded.ean, category=excluded.category,
				department=excluded.department, in_assortment=excluded.in_assortment,
				moq=excluded.moq, pack_size=excluded.pack_size, lead_time_days=excluded.lead_time_days,
				review_period_days=excluded.review_period_days, safety_stock=excluded.safety_stock,
				reorder_point=excluded.reorder_point, max_stock=excluded.max_stock,
				shelf_life_days=excluded.shelf_life_days, min_shelf_life_days=excluded.min_shelf_life_days,
				waste_penalty_mode=excluded.waste_penalty_mode, waste_penalty_factor=excluded.waste_penalty_factor,
				waste_risk_threshold=excluded.waste_risk_threshold, demand_variability=excluded.demand_variability,
				target_csl=excluded.target_csl, forecast_method=excluded.forecast_method,
				mc_distribution=excluded.mc_distribution, mc_n_simulations=excluded.mc_n_simulations,
				mc_random_seed=excluded.mc_random_seed, mc_output_stat=excluded.mc_output_stat,
				mc_output_percentile=excluded.mc_output_percentile, mc_horizon_mode=excluded.mc_horizon_mode,
				mc_horizon_days=excluded.mc_horizon_days, oos_popup_preference=excluded.oos_popup_preference,
				updated_at=excluded.updated_at
		`,
			s.Code, s.Description, s.EAN, s.Category, s.Department, boolToInt(s.InAssortment),
			s.MOQ, s.PackSize, s.LeadTimeDays, s.ReviewPeriodDays, s.SafetyStock,
			s.ReorderPoint, s.MaxStock, s.ShelfLifeDays, s.MinShelfLifeDays,
			string(s.WastePenaltyMode), s.WastePenaltyFactor, s.WasteRiskThreshold,
			string(s.DemandVariability), s.TargetCSL, string(s.ForecastMethod), s.MCDistribution,
			s.MCNSimulations, s.MCRandomSeed, s.MCOutputStat, s.MCOutputPercentile,
			s.MCHorizonMode, s.MCHorizonDays, string(s.OOSPopupPreference), now, now,
		)
		return classify("upsert sku", err)
	})
}

// Get fetches a SKU by code.
func (r *SKUs) Get(ctx context.Context, code string) (*domain.SKU, error) {
	row := r.eng.DB().QueryRowContext(ctx, skuSelectCols+" WHERE sku = ?", code)
	s, err := scanSKU(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.NotFound("sku not found: "+code, err)
		}
		return nil, err
	}
	return s, nil
}

// ListInAssortment returns all SKUs with in_assortment = 1.
func (r *SKUs) ListInAssortment(ctx context.Context) ([]*domain.SKU, error) {
	rows, err := r.eng.DB().QueryContext(ctx, skuSelectCols+" WHERE in_assortment = 1 ORDER BY sku")
	if err != nil {
		return nil, classify("list skus in assortment", err)
	}
	defer rows.Close()
	var out []*domain.SKU
	for rows.Next() {
		s, err := scanSKU(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ToggleAssortment performs the soft-delete described in §4.2.
func (r *SKUs) ToggleAssortment(ctx context.Context, code string, inAssortment bool) error {
	return r.eng.WithTx(ctx, storage.Immediate, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "UPDATE skus SET in_assortment = ?, updated_at = ? WHERE sku = ?",
			boolToInt(inAssortment), time.Now().UTC(), code)
		if err != nil {
			return classify("toggle assortment", err)
		}
		return requireRowsAffected(res, "sku not found: "+code)
	})
}

// Delete hard-deletes a SKU; fails with ForeignKey if any transaction
// references it (RESTRICT surfaces here).
func (r *SKUs) Delete(ctx context.Context, code string) error {
	return r.eng.WithTx(ctx, storage.Immediate, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM skus WHERE sku = ?", code)
		if err != nil {
			return classify("delete sku", err)
		}
		return requireRowsAffected(res, "sku not found: "+code)
	})
}

func requireRowsAffected(res sql.Result, notFoundMsg string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFound(notFoundMsg, nil)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

const skuSelectCols = `SELECT
	sku, description, ean, category, department, in_assortment,
	moq, pack_size, lead_time_days, review_period_days, safety_stock,
	reorder_point, max_stock, shelf_life_days, min_shelf_life_days,
	waste_penalty_mode, waste_penalty_factor, waste_risk_threshold,
	demand_variability, target_csl, forecast_method, mc_distribution,
	mc_n_simulations, mc_random_seed, mc_output_stat, mc_output_percentile,
	mc_horizon_mode, mc_horizon_days, oos_popup_preference, created_at, updated_at
	FROM skus`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSKU(row rowScanner) (*domain.SKU, error) {
	var s domain.SKU
	var inAssortment int
	var wasteMode, variability, method, oosPref string
	if err := row.Scan(
		&s.Code, &s.Description, &s.EAN, &s.Category, &s.Department, &inAssortment,
		&s.MOQ, &s.PackSize, &s.LeadTimeDays, &s.ReviewPeriodDays, &s.SafetyStock,
		&s.ReorderPoint, &s.MaxStock, &s.ShelfLifeDays, &s.MinShelfLifeDays,
		&wasteMode, &s.WastePenaltyFactor, &s.WasteRiskThreshold,
		&variability, &s.TargetCSL, &method, &s.MCDistribution,
		&s.MCNSimulations, &s.MCRandomSeed, &s.MCOutputStat, &s.MCOutputPercentile,
		&s.MCHorizonMode, &s.MCHorizonDays, &oosPref, &s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	s.InAssortment = inAssortment == 1
	s.WastePenaltyMode = domain.WastePenaltyMode(wasteMode)
	s.DemandVariability = domain.Variability(variability)
	s.ForecastMethod = domain.ForecastMethod(method)
	s.OOSPopupPreference = domain.OOSPopupPreference(oosPref)
	return &s, nil
}
