package powerinfo

import "math"

// RawStatus is the unrefined classification of what the battery is doing.
type RawStatus int

const (
	// Missing indicates the battery is not present.
	Missing RawStatus = iota
	// Unknown indicates the driver reports a status batticon cannot map.
	Unknown
	// Charged indicates the battery is full.
	Charged
	// Charging indicates the battery is charging.
	Charging
	// Discharging indicates the battery is discharging.
	Discharging
	// NotCharging indicates the battery is plugged in but not charging.
	NotCharging
)

func (s RawStatus) String() string {
	switch s {
	case Missing:
		return "Missing"
	case Unknown:
		return "Unknown"
	case Charged:
		return "Charged"
	case Charging:
		return "Charging"
	case Discharging:
		return "Discharging"
	case NotCharging:
		return "NotCharging"
	default:
		return "Invalid"
	}
}

// IsDischarging reports whether s belongs to a discharge episode.
func (s RawStatus) IsDischarging() bool {
	return s == Discharging || s == NotCharging
}

// DisplayState is a RawStatus, or one of the warning levels shown while
// discharging.
type DisplayState int

const (
	DisplayMissing     = DisplayState(Missing)
	DisplayUnknown     = DisplayState(Unknown)
	DisplayCharged     = DisplayState(Charged)
	DisplayCharging    = DisplayState(Charging)
	DisplayDischarging = DisplayState(Discharging)
	DisplayNotCharging = DisplayState(NotCharging)
	// LowLevel is shown once the low threshold has been reached.
	LowLevel = DisplayNotCharging + 1
	// CriticalLevel is shown once the critical threshold has been reached.
	CriticalLevel = DisplayNotCharging + 2
)

func (d DisplayState) String() string {
	switch d {
	case LowLevel:
		return "LowLevel"
	case CriticalLevel:
		return "CriticalLevel"
	default:
		return RawStatus(d).String()
	}
}

// CapacityUnit selects which pair of counters a battery exposes.
type CapacityUnit int

const (
	// UnitEnergy uses energy_full / energy_now.
	UnitEnergy CapacityUnit = iota
	// UnitCharge uses charge_full / charge_now.
	UnitCharge
)

func (u CapacityUnit) String() string {
	if u == UnitCharge {
		return "charge"
	}
	return "energy"
}

// FullAttr is the attribute holding the full capacity in this unit.
func (u CapacityUnit) FullAttr() string {
	return u.String() + "_full"
}

// NowAttr is the attribute holding the remaining capacity in this unit.
func (u CapacityUnit) NowAttr() string {
	return u.String() + "_now"
}

// Capacity is a pair of counters read in the same unit.
type Capacity struct {
	Unit CapacityUnit
	Full float64
	Now  float64
}

// Percent returns the remaining capacity in percent, floored and clamped
// to [0, 100].
func (c Capacity) Percent() int {
	if c.Full <= 0 {
		return 0
	}
	p := math.Floor(math.Min(c.Now/c.Full*100.0, 100.0))
	if p < 0 || math.IsNaN(p) {
		return 0
	}
	return int(p)
}
