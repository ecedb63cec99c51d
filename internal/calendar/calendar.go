// Package calendar implements the logistic order/delivery calendar (§4.4,
// C4): which weekdays orders may be placed on, which weekdays deliveries
// land on, the Friday STANDARD/SATURDAY/MONDAY lane split, and the
// protection-window (r1, r2, P) computation.
package calendar

import (
	"time"

	"github.com/pinggolf/replenish-engine/internal/domain"
)

// Lane is the logistic routing selected for an order (§4.4, Glossary).
type Lane string

const (
	LaneStandard Lane = "STANDARD"
	LaneSaturday Lane = "SATURDAY"
	LaneMonday   Lane = "MONDAY"
)

// Config is the calendar configuration (§4.4 CalendarConfig).
type Config struct {
	OrderDays              map[time.Weekday]bool
	DeliveryDays           map[time.Weekday]bool
	LeadTimeDays           int
	SaturdayLaneLeadTime   int
	Holidays               map[string]bool // "2006-01-02" -> true
}

// DefaultConfig is a Mon-Fri ordering, Tue-Fri standard delivery calendar
// typical of a small retail operation (Saturday and Monday deliveries come
// only from the Friday lanes), with no holidays configured.
func DefaultConfig() Config {
	return Config{
		OrderDays: map[time.Weekday]bool{
			time.Monday: true, time.Tuesday: true, time.Wednesday: true,
			time.Thursday: true, time.Friday: true,
		},
		// Saturday and Monday deliveries are the Friday-order special
		// lanes (handled explicitly in NextReceiptDate), not "standard"
		// delivery days — they must stay out of this set so r2's
		// "next delivery day, any lane active" search in §4.4 lands on
		// the following standard cycle rather than re-selecting the
		// lane-specific day it's meant to bound.
		DeliveryDays: map[time.Weekday]bool{
			time.Tuesday: true, time.Wednesday: true, time.Thursday: true,
			time.Friday: true,
		},
		LeadTimeDays:         1,
		SaturdayLaneLeadTime: 1,
		Holidays:             map[string]bool{},
	}
}

func (c Config) isHoliday(d time.Time) bool {
	return c.Holidays[d.Format("2006-01-02")]
}

func normalize(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// LaneForOrderDate resolves the lane(s) active for an order placed on
// orderDate. Friday splits into SATURDAY and MONDAY; every other order day
// is STANDARD. Ordering on a non-order-day is InvalidOrderDay.
func LaneForOrderDate(cfg Config, orderDate time.Time) ([]Lane, error) {
	if !cfg.OrderDays[orderDate.Weekday()] {
		return nil, domain.InvalidOrderDay("order_date " + orderDate.Format("2006-01-02") + " is not a configured order day")
	}
	if orderDate.Weekday() == time.Friday {
		return []Lane{LaneSaturday, LaneMonday}, nil
	}
	return []Lane{LaneStandard}, nil
}

// NextReceiptDate returns the next delivery day at or after `from` that is
// not a holiday, honoring the lane's lead-time floor. STANDARD/MONDAY use
// cfg.LeadTimeDays; SATURDAY uses cfg.SaturdayLaneLeadTime.
func NextReceiptDate(cfg Config, from time.Time, lane Lane) time.Time {
	leadDays := cfg.LeadTimeDays
	if lane == LaneSaturday {
		leadDays = cfg.SaturdayLaneLeadTime
	}
	earliest := normalize(from).AddDate(0, 0, leadDays)

	cursor := earliest
	for i := 0; i < 30; i++ { // 30 days is far more than any realistic calendar gap
		wd := cursor.Weekday()
		wantsWeekday := (lane == LaneSaturday && wd == time.Saturday) ||
			(lane == LaneMonday && wd == time.Monday) ||
			(lane == LaneStandard && cfg.DeliveryDays[wd])
		if wantsWeekday && !cfg.isHoliday(cursor) {
			return cursor
		}
		cursor = cursor.AddDate(0, 0, 1)
	}
	return cursor
}

// NextReceiptDateAnyLane finds the next delivery day (any active lane,
// i.e. any configured delivery weekday) on or after `from`, skipping
// holidays. Used to compute r2 in the protection window.
func NextReceiptDateAnyLane(cfg Config, from time.Time) time.Time {
	cursor := normalize(from)
	for i := 0; i < 30; i++ {
		if cfg.DeliveryDays[cursor.Weekday()] && !cfg.isHoliday(cursor) {
			return cursor
		}
		cursor = cursor.AddDate(0, 0, 1)
	}
	return cursor
}

// ProtectionWindow computes r1, r2, and P = r2-r1 (days) for an order
// placed on orderDate routed over lane (§4.4).
type ProtectionWindow struct {
	R1 time.Time
	R2 time.Time
	P  int
}

func ComputeProtectionWindow(cfg Config, orderDate time.Time, lane Lane) ProtectionWindow {
	r1 := NextReceiptDate(cfg, orderDate, lane)
	r2 := NextReceiptDateAnyLane(cfg, orderDate.AddDate(0, 0, 1))
	p := int(normalize(r2).Sub(normalize(r1)).Hours() / 24)
	if p < 0 {
		p = 0
	}
	return ProtectionWindow{R1: r1, R2: r2, P: p}
}
