package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/pinggolf/replenish-engine/internal/domain"
	"github.com/pinggolf/replenish-engine/internal/storage"
)

// EventRules is the calendar-anchored demand-event repository (§4.2
// EventUpliftRule).
type EventRules struct {
	eng *storage.Engine
}

func NewEventRules(eng *storage.Engine) *EventRules { return &EventRules{eng: eng} }

func (r *EventRules) Insert(ctx context.Context, rule *domain.EventUpliftRule) error {
	return r.eng.WithTx(ctx, storage.Immediate, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO event_uplift_rules (delivery_date, scope_type, scope_key, reason, strength, notes)
			VALUES (?,?,?,?,?,?)`,
			rule.DeliveryDate, string(rule.ScopeType), rule.ScopeKey, rule.Reason, string(rule.Strength), rule.Notes)
		return classify("insert event uplift rule", err)
	})
}

// ListForDate returns every rule anchored to deliveryDate, across all
// scopes; callers resolve precedence via internal/demand.ResolveEventRule.
func (r *EventRules) ListForDate(ctx context.Context, deliveryDate time.Time) ([]*domain.EventUpliftRule, error) {
	rows, err := r.eng.DB().QueryContext(ctx, `
		SELECT delivery_date, scope_type, scope_key, reason, strength, notes
		FROM event_uplift_rules WHERE delivery_date = ?`, deliveryDate)
	if err != nil {
		return nil, classify("list event uplift rules", err)
	}
	defer rows.Close()
	var out []*domain.EventUpliftRule
	for rows.Next() {
		var rule domain.EventUpliftRule
		var scope, strength string
		if err := rows.Scan(&rule.DeliveryDate, &scope, &rule.ScopeKey, &rule.Reason, &strength, &rule.Notes); err != nil {
			return nil, err
		}
		rule.ScopeType = domain.ScopeType(scope)
		rule.Strength = domain.UpliftStrength(strength)
		out = append(out, &rule)
	}
	return out, rows.Err()
}
