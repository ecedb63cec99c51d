package settingsdoc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettings_RoundTripPreservesUnknownKeys(t *testing.T) {
	s := Default()
	s.ReorderEngine.MOQ = 5

	raw, err := json.Marshal(s)
	require.NoError(t, err)

	var withExtra map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &withExtra))
	withExtra["future_block"] = json.RawMessage(`{"flag":true}`)
	raw2, err := json.Marshal(withExtra)
	require.NoError(t, err)

	var roundTripped Settings
	require.NoError(t, json.Unmarshal(raw2, &roundTripped))
	assert.Equal(t, 5, roundTripped.ReorderEngine.MOQ)
	assert.Contains(t, roundTripped.Unknown, "future_block")

	raw3, err := json.Marshal(roundTripped)
	require.NoError(t, err)
	var final map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw3, &final))
	assert.Contains(t, final, "future_block", "unknown keys must survive a second round trip")
	assert.Contains(t, final, "reorder_engine")
}

func TestDefault_IntermittentForecastMatchesSpecDefaults(t *testing.T) {
	s := Default()
	assert.Equal(t, "sba", s.IntermittentForecast.DefaultMethod)
	assert.Equal(t, 4, s.IntermittentForecast.BacktestPeriods)
	assert.Equal(t, 28, s.IntermittentForecast.BacktestMinHistory)
	assert.Equal(t, "wmape", s.IntermittentForecast.BacktestMetric)
}

func TestDefault_PromoUpliftThresholdsAreNonZero(t *testing.T) {
	s := Default()
	// a zero threshold would let an empty pooling tier win trivially.
	assert.Greater(t, s.PromoUplift.MinEventsSKU, 0)
	assert.Greater(t, s.PromoUplift.MinValidDaysSKU, 0)
	assert.Greater(t, s.PromoUplift.MinEventsCategory, 0)
	assert.Greater(t, s.PromoUplift.MinEventsDepartment, 0)
	assert.Greater(t, s.PromoUplift.ConfidenceThresholdA, 0)
	assert.Greater(t, s.PromoUplift.ConfidenceThresholdB, 0)
}
