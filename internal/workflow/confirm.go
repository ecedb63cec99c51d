package workflow

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pinggolf/replenish-engine/internal/auditlog"
	"github.com/pinggolf/replenish-engine/internal/domain"
)

// Confirmation is one accepted proposal, now persisted as an OrderLog and a
// pending ORDER transaction.
type Confirmation struct {
	OrderID    string
	SKU        string
	QtyOrdered int
}

// ConfirmOrders assigns a deterministic order_id per proposal (date plus
// sequence index within that date, §4.8 "Order confirmation"), writes the
// ORDER transaction and OrderLog row for every proposal with a nonzero
// final quantity, and logs one ORDER_CONFIRMED audit event per order.
func (e *Engine) ConfirmOrders(ctx context.Context, proposals []Proposal, user, runID string) ([]Confirmation, error) {
	var out []Confirmation
	seq := 0
	for _, p := range proposals {
		if p.Explain.FinalQty <= 0 {
			continue
		}
		orderID := fmt.Sprintf("ORD-%s-%04d", p.Explain.OrderDate.Format("20060102"), seq)
		seq++

		explainJSON, err := json.Marshal(p.Explain)
		if err != nil {
			return nil, err
		}

		// Insert and Append each run in their own single-statement
		// transaction (repo.Orders/repo.Ledger own that scope); order_id
		// uniqueness is the confirmation's idempotency guard, and the
		// OrderLog insert runs first so a replayed confirmation fails with
		// DuplicateKey before it writes a second ORDER transaction.
		if err := e.Orders.Insert(ctx, &domain.OrderLog{
			OrderID: orderID, Date: p.Explain.OrderDate, SKU: p.SKU,
			QtyOrdered: p.Explain.FinalQty, QtyReceived: 0,
			Status: domain.OrderPending, ReceiptDate: p.Explain.ReceiptDate,
			ExplainJSON: string(explainJSON),
		}); err != nil {
			return nil, err
		}
		receiptDate := p.Explain.ReceiptDate
		if _, err := e.Ledger.Append(ctx, &domain.Transaction{
			Date: p.Explain.OrderDate, SKU: p.SKU, Event: domain.EventOrder,
			Qty: p.Explain.FinalQty, ReceiptDate: &receiptDate,
			Note: fmt.Sprintf("order %s lane=%s", orderID, p.Lane),
		}); err != nil {
			return nil, err
		}

		if err := e.Audit.LogEvent(ctx, auditlog.OpOrderConfirmed, user, p.SKU,
			fmt.Sprintf("order_id=%s qty=%d lane=%s", orderID, p.Explain.FinalQty, p.Lane), runID); err != nil {
			return nil, err
		}

		out = append(out, Confirmation{OrderID: orderID, SKU: p.SKU, QtyOrdered: p.Explain.FinalQty})
	}
	return out, nil
}
