package powerinfo

import "fmt"

const (
	// ACOnlyMessage is shown when no battery was discovered.
	ACOnlyMessage = "AC only - no battery"
	// ACOnlyIcon is the icon shown when no battery was discovered.
	ACOnlyIcon = "ac-adapter"
)

// Describe returns the sentence shown for d at percent.
func Describe(d DisplayState, percent int) string {
	switch d {
	case DisplayMissing:
		return "Battery is missing!"
	case DisplayCharged:
		return "Fully charged!"
	case DisplayCharging:
		return fmt.Sprintf("Charging (%d%% remaining)", percent)
	case DisplayDischarging:
		return fmt.Sprintf("Discharging (%d%% remaining)", percent)
	case DisplayNotCharging:
		return fmt.Sprintf("Not charging (%d%% remaining)", percent)
	case LowLevel:
		return fmt.Sprintf("Level is low! (%d%% remaining)", percent)
	case CriticalLevel:
		return fmt.Sprintf("Level is critical! (%d%% remaining)", percent)
	default:
		return "Status unknown!"
	}
}

var iconBuckets = []struct {
	max  int
	name string
}{
	{20, "caution"},
	{40, "low"},
	{80, "good"},
}

// IconKey returns the symbolic icon name for status at percent.
func IconKey(status RawStatus, percent int) string {
	if status == Missing || status == Unknown {
		return "battery-missing"
	}

	icon := "battery-full"
	for _, b := range iconBuckets {
		if percent <= b.max {
			icon = "battery-" + b.name
			break
		}
	}

	switch status {
	case Charging:
		icon += "-charging"
	case Charged:
		icon += "-charged"
	}

	return icon
}
