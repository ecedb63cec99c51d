package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAudit_InsertAndList(t *testing.T) {
	r := NewAudit(newTestEngine(t))
	ctx := context.Background()

	_, err := r.Insert(ctx, AuditEvent{Operation: "ORDER_CONFIRMED", User: "tester", SKU: "S1", Details: "qty=10", RunID: "run1"})
	require.NoError(t, err)
	_, err = r.Insert(ctx, AuditEvent{Operation: "ORDER_CONFIRMED", User: "tester", SKU: "S2", Details: "qty=5", RunID: "run1"})
	require.NoError(t, err)
	_, err = r.Insert(ctx, AuditEvent{Operation: "SETTINGS_UPDATED", User: "tester", Details: "", RunID: "run2"})
	require.NoError(t, err)

	all, err := r.List(ctx, AuditFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	bySKU, err := r.List(ctx, AuditFilter{SKU: "S1"})
	require.NoError(t, err)
	require.Len(t, bySKU, 1)
	assert.Equal(t, "S1", bySKU[0].SKU)

	byOp, err := r.List(ctx, AuditFilter{Operation: "SETTINGS_UPDATED"})
	require.NoError(t, err)
	require.Len(t, byOp, 1)
	assert.Empty(t, byOp[0].SKU)
}

func TestAudit_GetBatchOperations(t *testing.T) {
	r := NewAudit(newTestEngine(t))
	ctx := context.Background()

	_, err := r.Insert(ctx, AuditEvent{Operation: "BATCH_START", User: "system", RunID: "run1"})
	require.NoError(t, err)
	_, err = r.Insert(ctx, AuditEvent{Operation: "ORDER_CONFIRMED", User: "system", SKU: "S1", RunID: "run1"})
	require.NoError(t, err)
	_, err = r.Insert(ctx, AuditEvent{Operation: "BATCH_END", User: "system", RunID: "run1"})
	require.NoError(t, err)

	summary, err := r.GetBatchOperations(ctx, "run1")
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Count)
	assert.Len(t, summary.Events, 3)
	assert.GreaterOrEqual(t, summary.Last, summary.First)
}

func TestAudit_GetBatchOperations_UnknownRunIDIsEmpty(t *testing.T) {
	r := NewAudit(newTestEngine(t))
	summary, err := r.GetBatchOperations(context.Background(), "nonexistent")
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Count)
}
