// Package auditlog implements run-id correlated audit logging (§9, C9):
// individual events plus batch scopes that wrap a group of events sharing
// one run_id between a BATCH_START and BATCH_END pair.
package auditlog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/pinggolf/replenish-engine/internal/repo"
)

// Operation names the closed set of audit event kinds (§9).
type Operation string

const (
	OpBatchStart        Operation = "BATCH_START"
	OpBatchEnd          Operation = "BATCH_END"
	OpOrderConfirmed    Operation = "ORDER_CONFIRMED"
	OpReceiptClosed     Operation = "RECEIPT_CLOSED"
	OpExceptionRecorded Operation = "EXCEPTION_RECORDED"
	OpExceptionReverted Operation = "EXCEPTION_REVERTED"
	OpSettingsUpdated   Operation = "SETTINGS_UPDATED"
	OpSettingsReset     Operation = "SETTINGS_RESET"
	OpSKUCreated        Operation = "SKU_CREATED"
	OpSKUUpdated        Operation = "SKU_UPDATED"
	OpSKUDeleted        Operation = "SKU_DELETED"
	OpBackupCreated     Operation = "BACKUP_CREATED"
	OpBackupRestored    Operation = "BACKUP_RESTORED"
)

// Log wraps the audit repository with run-id generation and structured
// logging of every event (mirrors the teacher's zerolog usage at call
// sites throughout internal/services).
type Log struct {
	repo *repo.Audit
}

func New(auditRepo *repo.Audit) *Log { return &Log{repo: auditRepo} }

// GenerateRunID returns a run_YYYYMMDD_HHMMSS_<uuid> identifier. The
// timestamp component is for human sortability; uniqueness is carried by
// the UUID suffix.
func GenerateRunID(now time.Time) string {
	return fmt.Sprintf("run_%s_%s", now.UTC().Format("20060102_150405"), uuid.NewString())
}

// LogEvent records one audit event. user is the actor identity (§9 treats
// this as an opaque string; batch/scheduled runs use "system").
func (l *Log) LogEvent(ctx context.Context, op Operation, user, sku, details, runID string) error {
	_, err := l.repo.Insert(ctx, repo.AuditEvent{
		Operation: string(op),
		User:      user,
		SKU:       sku,
		Details:   details,
		RunID:     runID,
	})
	if err != nil {
		log.Error().Err(err).Str("operation", string(op)).Str("run_id", runID).Msg("audit event write failed")
		return err
	}
	log.Debug().Str("operation", string(op)).Str("sku", sku).Str("run_id", runID).Msg("audit event logged")
	return nil
}

// BatchScope represents an in-flight BATCH_START/BATCH_END pair sharing
// one run_id. Construct with Begin, always defer End.
type BatchScope struct {
	log   *Log
	runID string
	user  string
}

// Begin writes BATCH_START and returns a scope; callers use scope.RunID()
// to stamp child events, then call End when the batch finishes.
func (l *Log) Begin(ctx context.Context, user, details string, now time.Time) (*BatchScope, error) {
	runID := GenerateRunID(now)
	if err := l.LogEvent(ctx, OpBatchStart, user, "", details, runID); err != nil {
		return nil, err
	}
	return &BatchScope{log: l, runID: runID, user: user}, nil
}

func (b *BatchScope) RunID() string { return b.runID }

// End writes BATCH_END. Safe to call from a defer; logs but does not
// panic on failure since a batch's child events already landed.
func (b *BatchScope) End(ctx context.Context, details string) {
	if err := b.log.LogEvent(ctx, OpBatchEnd, b.user, "", details, b.runID); err != nil {
		log.Error().Err(err).Str("run_id", b.runID).Msg("failed to close batch scope")
	}
}

// Filter mirrors repo.AuditFilter for callers that shouldn't import repo
// directly.
type Filter = repo.AuditFilter

// List delegates to the audit repository.
func (l *Log) List(ctx context.Context, f Filter) ([]repo.AuditEvent, error) {
	return l.repo.List(ctx, f)
}

// GetBatchOperations returns the aggregate summary of a run_id's events.
func (l *Log) GetBatchOperations(ctx context.Context, runID string) (repo.BatchSummary, error) {
	return l.repo.GetBatchOperations(ctx, runID)
}
