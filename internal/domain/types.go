package domain

import "time"

// EventType is the transaction ledger's event kind (§3 Transaction).
type EventType string

const (
	EventSnapshot    EventType = "SNAPSHOT"
	EventOrder       EventType = "ORDER"
	EventReceipt     EventType = "RECEIPT"
	EventSale        EventType = "SALE"
	EventWaste       EventType = "WASTE"
	EventAdjust      EventType = "ADJUST"
	EventUnfulfilled EventType = "UNFULFILLED"
)

// Priority returns the within-date replay priority from §4.3 step 2.
func (e EventType) Priority() int {
	switch e {
	case EventSnapshot:
		return 0
	case EventReceipt, EventOrder:
		return 1
	case EventSale, EventWaste, EventAdjust:
		return 2
	case EventUnfulfilled:
		return 3
	default:
		return 99
	}
}

func (e EventType) Valid() bool {
	switch e {
	case EventSnapshot, EventOrder, EventReceipt, EventSale, EventWaste, EventAdjust, EventUnfulfilled:
		return true
	}
	return false
}

// Variability is the demand_variability SKU flag.
type Variability string

const (
	VariabilityStable   Variability = "STABLE"
	VariabilityLow      Variability = "LOW"
	VariabilityHigh     Variability = "HIGH"
	VariabilitySeasonal Variability = "SEASONAL"
)

// WastePenaltyMode is the SKU's shelf-life penalty mode.
type WastePenaltyMode string

const (
	WasteNone WastePenaltyMode = ""
	WasteSoft WastePenaltyMode = "soft"
	WasteHard WastePenaltyMode = "hard"
)

// OOSPopupPreference controls desktop-collaborator prompting; carried as an
// opaque flag on SKU only — the core never prompts.
type OOSPopupPreference string

const (
	OOSAsk      OOSPopupPreference = "ask"
	OOSAlwaysYes OOSPopupPreference = "always_yes"
	OOSAlwaysNo  OOSPopupPreference = "always_no"
)

// PolicyMode selects the reorder-point formula family (§4.7).
type PolicyMode string

const (
	PolicyLegacy PolicyMode = "legacy"
	PolicyCSL    PolicyMode = "csl"
)

// ForecastMethod is the dispatchable demand model (§4.5).
type ForecastMethod string

const (
	ForecastSimple          ForecastMethod = "simple"
	ForecastMonteCarlo      ForecastMethod = "monte_carlo"
	ForecastIntermittentAuto ForecastMethod = "intermittent_auto"
	ForecastCroston         ForecastMethod = "croston"
	ForecastSBA             ForecastMethod = "sba"
	ForecastTSB             ForecastMethod = "tsb"
)

// ReorderPointMethod records how S was derived, for OrderExplain.
type ReorderPointMethod string

const (
	MethodQuantile       ReorderPointMethod = "quantile"
	MethodZScore         ReorderPointMethod = "z_score"
	MethodZScoreFallback ReorderPointMethod = "z_score_fallback"
	MethodLegacy         ReorderPointMethod = "legacy"
)

// SKU is the product master (§3).
type SKU struct {
	Code          string
	Description   string
	EAN           string
	Category      string
	Department    string
	InAssortment  bool

	PackSize int
	MOQ      int

	LeadTimeDays     int
	ReviewPeriodDays int
	SafetyStock      int
	ReorderPoint     int
	MaxStock         int

	ShelfLifeDays       int
	MinShelfLifeDays    int
	WastePenaltyMode    WastePenaltyMode
	WastePenaltyFactor  float64
	WasteRiskThreshold  float64 // percent, 0..100

	DemandVariability Variability
	TargetCSL         float64 // 0 means unset

	ForecastMethod     ForecastMethod
	MCDistribution     string
	MCNSimulations      int
	MCRandomSeed        int64
	MCOutputStat        string
	MCOutputPercentile  float64
	MCHorizonMode       string
	MCHorizonDays       int

	OOSPopupPreference OOSPopupPreference

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate enforces the §3 SKU invariant.
func (s *SKU) Validate() error {
	if s.PackSize < 1 {
		return BusinessRule("pack_size must be >= 1", nil)
	}
	if s.MOQ < 0 {
		return BusinessRule("moq must be >= 0", nil)
	}
	if s.ShelfLifeDays > 0 && s.MinShelfLifeDays > s.ShelfLifeDays {
		return BusinessRule("min_shelf_life_days must be <= shelf_life_days when shelf_life_days > 0", nil)
	}
	switch s.WastePenaltyMode {
	case WasteNone, WasteSoft, WasteHard:
	default:
		return BusinessRule("invalid waste_penalty_mode", nil)
	}
	return nil
}

// Transaction is an immutable ledger row (§3).
type Transaction struct {
	ID          int64
	Date        time.Time
	SKU         string
	Event       EventType
	Qty         int
	ReceiptDate *time.Time
	Note        string
}

// SalesRecord is a (date, sku) daily sales row (§3).
type SalesRecord struct {
	Date      time.Time
	SKU       string
	QtySold   int
	PromoFlag bool
}

// OrderStatus is the derived OrderLog.status.
type OrderStatus string

const (
	OrderPending  OrderStatus = "PENDING"
	OrderPartial  OrderStatus = "PARTIAL"
	OrderReceived OrderStatus = "RECEIVED"
)

// DeriveStatus computes status from qty_received vs qty_ordered (§3).
func DeriveStatus(qtyOrdered, qtyReceived int) OrderStatus {
	switch {
	case qtyReceived <= 0:
		return OrderPending
	case qtyReceived >= qtyOrdered:
		return OrderReceived
	default:
		return OrderPartial
	}
}

// OrderLog is a confirmed order (§3).
type OrderLog struct {
	OrderID      string
	Date         time.Time
	SKU          string
	QtyOrdered   int
	QtyReceived  int
	Status       OrderStatus
	ReceiptDate  time.Time
	ExplainJSON  string
}

// ReceivingLog records a physical receipt document (§3).
type ReceivingLog struct {
	DocumentID  string
	ReceiptID   string
	Date        time.Time
	SKU         string
	QtyReceived int
	ReceiptDate time.Time
}

// Lot is a FEFO-tracked inventory lot (§3).
type Lot struct {
	LotID      string
	SKU        string
	QtyOnHand  int
	ExpiryDate *time.Time
	ReceiptID  string
}

// PromoWindow is a promotional date range (§3).
type PromoWindow struct {
	SKU       string
	StartDate time.Time
	EndDate   time.Time
	StoreID   string
}

// UpliftStrength is the event-uplift rule's qualitative size.
type UpliftStrength string

const (
	StrengthLow  UpliftStrength = "LOW"
	StrengthMed  UpliftStrength = "MED"
	StrengthHigh UpliftStrength = "HIGH"
)

// ScopeType is the event-uplift rule's resolution scope (§3).
type ScopeType string

const (
	ScopeAll        ScopeType = "ALL"
	ScopeCategory   ScopeType = "CATEGORY"
	ScopeDepartment ScopeType = "DEPARTMENT"
	ScopeSKU        ScopeType = "SKU"
)

// EventUpliftRule is a calendar-anchored demand event (§3).
type EventUpliftRule struct {
	DeliveryDate time.Time
	ScopeType    ScopeType
	ScopeKey     string
	Reason       string
	Strength     UpliftStrength
	Notes        string
}

// AuditEntry is one audit_log row (§3, §6).
type AuditEntry struct {
	AuditID   int64
	Timestamp time.Time
	Operation string
	User      string
	SKU       string
	Details   string
	RunID     string
}
