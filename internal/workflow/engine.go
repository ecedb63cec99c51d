// Package workflow implements the Order-proposal / confirmation / receipt
// closure / EOD reconciliation / exception-event workflows (§4.8, C8): the
// only layer that composes calendar, forecast, demand, and policy against a
// live store.
package workflow

import (
	"github.com/pinggolf/replenish-engine/internal/auditlog"
	"github.com/pinggolf/replenish-engine/internal/calendar"
	"github.com/pinggolf/replenish-engine/internal/repo"
	"github.com/pinggolf/replenish-engine/internal/storage"
)

// Engine wires every repository the workflows need plus the calendar
// configuration and batch-iteration throttle.
type Engine struct {
	eng *storage.Engine

	SKUs       *repo.SKUs
	Ledger     *repo.Ledger
	Orders     *repo.Orders
	Receiving  *repo.Receiving
	Lots       *repo.Lots
	Promo      *repo.Promo
	EventRules *repo.EventRules
	Sales      *repo.Sales
	Settings   *repo.Settings
	Holidays   *repo.Holidays

	Audit    *auditlog.Log
	Calendar calendar.Config
	Throttle *Throttle
}

// Storage exposes the underlying storage engine for callers that need
// Backup or DB() directly (the scheduler and debug-bundle exporter).
func (e *Engine) Storage() *storage.Engine { return e.eng }

// New wires an Engine from an opened storage engine and calendar config.
func New(storageEngine *storage.Engine, cal calendar.Config, throttle *Throttle) *Engine {
	if throttle == nil {
		throttle = NewThrottle(0, 0)
	}
	auditRepo := repo.NewAudit(storageEngine)
	return &Engine{
		eng:        storageEngine,
		SKUs:       repo.NewSKUs(storageEngine),
		Ledger:     repo.NewLedger(storageEngine),
		Orders:     repo.NewOrders(storageEngine),
		Receiving:  repo.NewReceiving(storageEngine),
		Lots:       repo.NewLots(storageEngine),
		Promo:      repo.NewPromo(storageEngine),
		EventRules: repo.NewEventRules(storageEngine),
		Sales:      repo.NewSales(storageEngine),
		Settings:   repo.NewSettings(storageEngine),
		Holidays:   repo.NewHolidays(storageEngine),
		Audit:      auditlog.New(auditRepo),
		Calendar:   cal,
		Throttle:   throttle,
	}
}
