package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/pinggolf/replenish-engine/internal/auditlog"
	"github.com/pinggolf/replenish-engine/internal/domain"
)

// ExceptionResult reports whether RecordException wrote a new row.
type ExceptionResult struct {
	AlreadyRecorded bool
	TransactionID   int64
}

// RecordException writes a WASTE/ADJUST/UNFULFILLED ledger row, idempotent
// by the (date, sku, event) natural key (§4.8 "Exception events").
func (e *Engine) RecordException(ctx context.Context, event domain.EventType, sku string, qty int, date time.Time, note, user, runID string) (ExceptionResult, error) {
	existing, err := e.Ledger.FindException(ctx, date, sku, event)
	if err != nil {
		return ExceptionResult{}, err
	}
	if existing != nil {
		return ExceptionResult{AlreadyRecorded: true, TransactionID: existing.ID}, nil
	}

	id, err := e.Ledger.Append(ctx, &domain.Transaction{
		Date: date, SKU: sku, Event: event, Qty: qty, Note: note,
	})
	if err != nil {
		return ExceptionResult{}, err
	}

	if err := e.Audit.LogEvent(ctx, auditlog.OpExceptionRecorded, user, sku,
		fmt.Sprintf("event=%s qty=%d date=%s", event, qty, date.Format("2006-01-02")), runID); err != nil {
		return ExceptionResult{}, err
	}
	return ExceptionResult{TransactionID: id}, nil
}

// RevertExceptionDay deletes every ledger row matching (date, sku, event),
// the only sanctioned ledger mutation outside of Append (§4.2, §9).
func (e *Engine) RevertExceptionDay(ctx context.Context, event domain.EventType, sku string, date time.Time, user, runID string) error {
	existing, err := e.Ledger.FindException(ctx, date, sku, event)
	if err != nil {
		return err
	}
	if existing == nil {
		return domain.NotFound(fmt.Sprintf("no %s row for sku=%s date=%s", event, sku, date.Format("2006-01-02")), nil)
	}
	for existing != nil {
		if err := e.Ledger.DeleteByID(ctx, existing.ID); err != nil {
			return err
		}
		if existing, err = e.Ledger.FindException(ctx, date, sku, event); err != nil {
			return err
		}
	}
	return e.Audit.LogEvent(ctx, auditlog.OpExceptionReverted, user, sku,
		fmt.Sprintf("event=%s date=%s", event, date.Format("2006-01-02")), runID)
}
