package settingsdoc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHolidays_MergedAlwaysIncludesBuiltins(t *testing.T) {
	h := Holidays{}
	merged := h.Merged()
	names := make([]string, 0, len(merged))
	for _, m := range merged {
		names = append(names, m.Name)
	}
	assert.Contains(t, names, "New Year's Day")
	assert.Contains(t, names, "Christmas Day")
}

func TestHolidays_MergedKeepsUserEntriesAlongsideBuiltins(t *testing.T) {
	h := Holidays{Holidays: []Holiday{
		{Name: "Store Inventory Day", Scope: ScopeOrders, Effect: EffectNoOrder, Type: TypeSingle, Params: HolidayParams{Date: strPtr("2026-07-04")}},
	}}
	merged := h.Merged()
	assert.Len(t, merged, 3)
}

func strPtr(s string) *string { return &s }
