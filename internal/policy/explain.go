package policy

import (
	"time"

	"github.com/pinggolf/replenish-engine/internal/calendar"
	"github.com/pinggolf/replenish-engine/internal/domain"
)

// MCExplain is the OrderExplain's Monte-Carlo metadata block (§4.7).
type MCExplain struct {
	NSimulations     int
	Seed             int64
	Distribution     string
	HorizonDays      int
	OutputPercentile float64
}

// OrderExplain is the fully serializable, fixed-column per-proposal
// explain record (§4.7). Field order here is the canonical export order.
type OrderExplain struct {
	SKU             string
	OrderDate       time.Time
	ReceiptDate     time.Time
	Lane            calendar.Lane
	P               int
	AlphaTarget     float64
	AlphaEffective  float64
	Method          domain.ReorderPointMethod
	QuantileUsed    float64
	S               float64
	MuP             float64
	SigmaP          float64
	IP              int
	BaselineMap     map[time.Time]float64
	AdjustedMap     map[time.Time]float64
	EventExplain    any
	PromoExplain    any
	MC              *MCExplain
	ConstraintsApplied []string
	FinalQty        int
	ReorderPointMethod domain.ReorderPointMethod
}
