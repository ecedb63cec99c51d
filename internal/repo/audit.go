package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/pinggolf/replenish-engine/internal/domain"
	"github.com/pinggolf/replenish-engine/internal/storage"
)

// AuditEvent is an alias to domain.AuditEntry, the canonical audit_log row
// shape (§3, §6).
type AuditEvent = domain.AuditEntry

// Audit is the append-only audit-log repository.
type Audit struct {
	eng *storage.Engine
}

func NewAudit(eng *storage.Engine) *Audit { return &Audit{eng: eng} }

// Insert writes one audit event; timestamp is DB-provided (DEFAULT
// CURRENT_TIMESTAMP), never supplied by the caller.
func (r *Audit) Insert(ctx context.Context, e AuditEvent) (int64, error) {
	var sku any
	if e.SKU != "" {
		sku = e.SKU
	}
	res, err := r.eng.DB().ExecContext(ctx,
		"INSERT INTO audit_log (operation, user, sku, details, run_id) VALUES (?,?,?,?,?)",
		e.Operation, e.User, sku, e.Details, e.RunID)
	if err != nil {
		return 0, classify("insert audit event", err)
	}
	return res.LastInsertId()
}

// AuditFilter narrows a List query; zero-value fields are unconstrained.
type AuditFilter struct {
	SKU       string
	Operation string
	RunID     string
	Limit     int
	Offset    int
}

// List returns audit events matching filter, newest first.
func (r *Audit) List(ctx context.Context, f AuditFilter) ([]AuditEvent, error) {
	q := "SELECT audit_id, timestamp, operation, user, sku, details, run_id FROM audit_log WHERE 1=1"
	var args []interface{}
	if f.SKU != "" {
		q += " AND sku = ?"
		args = append(args, f.SKU)
	}
	if f.Operation != "" {
		q += " AND operation = ?"
		args = append(args, f.Operation)
	}
	if f.RunID != "" {
		q += " AND run_id = ?"
		args = append(args, f.RunID)
	}
	q += " ORDER BY timestamp DESC, audit_id DESC"
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	q += " LIMIT ? OFFSET ?"
	args = append(args, limit, f.Offset)

	rows, err := r.eng.DB().QueryContext(ctx, q, args...)
	if err != nil {
		return nil, classify("list audit events", err)
	}
	defer rows.Close()
	var out []AuditEvent
	for rows.Next() {
		var e AuditEvent
		var sku sql.NullString
		if err := rows.Scan(&e.AuditID, &e.Timestamp, &e.Operation, &e.User, &sku, &e.Details, &e.RunID); err != nil {
			return nil, err
		}
		e.SKU = sku.String
		out = append(out, e)
	}
	return out, rows.Err()
}

// BatchSummary is the result of GetBatchOperations: the aggregate shape of
// one BATCH_START/BATCH_END-bounded run.
type BatchSummary struct {
	RunID    string
	Count    int
	First    time.Time
	Last     time.Time
	Duration time.Duration
	Events   []AuditEvent
}

// GetBatchOperations returns every event sharing runID plus the derived
// aggregate (count, span, duration).
func (r *Audit) GetBatchOperations(ctx context.Context, runID string) (BatchSummary, error) {
	events, err := r.List(ctx, AuditFilter{RunID: runID, Limit: 100000})
	if err != nil {
		return BatchSummary{}, err
	}
	summary := BatchSummary{RunID: runID, Count: len(events), Events: events}
	if len(events) == 0 {
		return summary, nil
	}
	// events is newest-first; last index is the earliest timestamp.
	summary.Last = events[0].Timestamp
	summary.First = events[len(events)-1].Timestamp
	summary.Duration = summary.Last.Sub(summary.First)
	return summary, nil
}
