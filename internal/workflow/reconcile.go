package workflow

import (
	"context"
	"time"

	"github.com/pinggolf/replenish-engine/internal/domain"
	"github.com/pinggolf/replenish-engine/internal/ledger"
)

// ReconcileResult reports one SKU's end-of-day reconciliation outcome.
type ReconcileResult struct {
	SKU      string
	QtySold  int
	Residual int // non-zero only when declared_on_hand couldn't be reached by a sale alone
}

// ReconcileEOD implements end-of-day stock reconciliation (§4.8): for each
// declared on-hand count, the gap against the ledger's theoretical count is
// attributed to sales, recorded both as a SalesRecord (forecasting input)
// and a SALE ledger transaction (stock effect); any gap a sale can't explain
// — a negative implied sale, i.e. more stock counted than expected — is
// closed with an absolute-set ADJUST instead.
func (e *Engine) ReconcileEOD(ctx context.Context, eodDate time.Time, declared map[string]int) ([]ReconcileResult, error) {
	results := make([]ReconcileResult, 0, len(declared))
	for sku, declaredOnHand := range declared {
		if err := e.Throttle.Wait(ctx, "reconcile"); err != nil {
			return nil, err
		}

		txs, err := e.Ledger.ListForSKU(ctx, sku)
		if err != nil {
			return nil, err
		}
		theoretical := ledger.AsOf(txs, eodDate.AddDate(0, 0, 1)).OnHand

		impliedSold := theoretical - declaredOnHand
		qtySold := impliedSold
		if qtySold < 0 {
			qtySold = 0
		}

		if err := e.Sales.Upsert(ctx, nil, &domain.SalesRecord{Date: eodDate, SKU: sku, QtySold: qtySold}); err != nil {
			return nil, err
		}
		if qtySold > 0 {
			if _, err := e.Ledger.Append(ctx, &domain.Transaction{
				Date: eodDate, SKU: sku, Event: domain.EventSale, Qty: qtySold,
				Note: "eod reconciliation",
			}); err != nil {
				return nil, err
			}
		}

		residual := declaredOnHand - (theoretical - qtySold)
		if residual != 0 {
			if _, err := e.Ledger.Append(ctx, &domain.Transaction{
				Date: eodDate, SKU: sku, Event: domain.EventAdjust, Qty: declaredOnHand,
				Note: "eod reconciliation residual",
			}); err != nil {
				return nil, err
			}
		}

		results = append(results, ReconcileResult{SKU: sku, QtySold: qtySold, Residual: residual})
	}
	return results, nil
}
