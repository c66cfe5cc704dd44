package powerinfo

import (
	"errors"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/batticon/pkg/powersupply"
	"github.com/charlie0129/batticon/pkg/sysfs"
)

// ErrInsufficientData is returned when the counters needed for a resolution
// cannot be read. The poll that hit it is skipped.
var ErrInsufficientData = errors.New("insufficient data")

// chargedPercent is the level at which an AC-powered battery with an
// unknown status is considered full.
const chargedPercent = 99

var statusPrefixes = []struct {
	prefix string
	status RawStatus
}{
	{"Charging", Charging},
	{"Discharging", Discharging},
	{"Not charging", NotCharging},
	{"Full", Charged},
}

// ParseStatus maps the content of a battery "status" attribute to a
// RawStatus. Trailing text is tolerated.
func ParseStatus(s string) RawStatus {
	for _, p := range statusPrefixes {
		if strings.HasPrefix(s, p.prefix) {
			return p.status
		}
	}
	return Unknown
}

// ReadPresence reads the "present" attribute of the battery once at
// startup.
func ReadPresence(battery *powersupply.Ref) (bool, error) {
	present, err := sysfs.HasPrefix(battery.Path, "present", "1")
	if err != nil {
		return false, pkgerrors.Wrapf(err, "failed to read presence of battery %s", battery.ID)
	}
	return present, nil
}

// Resolver computes percentage and status of the selected battery.
type Resolver struct {
	Battery *powersupply.Ref
	AC      *powersupply.Ref
	// Present is read once at startup. Hot-swapping is not tracked.
	Present bool
}

// ReadCapacity reads the full and remaining counters. The unit is probed on
// every call, energy first.
func (r *Resolver) ReadCapacity() (Capacity, error) {
	dir := r.Battery.Path

	var c Capacity
	var err error
	for _, unit := range []CapacityUnit{UnitEnergy, UnitCharge} {
		c.Unit = unit
		c.Full, err = sysfs.ReadNumber(dir, unit.FullAttr())
		if err == nil {
			break
		}
	}
	if err != nil {
		return Capacity{}, pkgerrors.Wrapf(ErrInsufficientData, "failed to read full capacity of %s", r.Battery.ID)
	}

	c.Now, err = sysfs.ReadNumber(dir, c.Unit.NowAttr())
	if err != nil {
		return Capacity{}, pkgerrors.Wrapf(ErrInsufficientData, "failed to read %s of %s", c.Unit.NowAttr(), r.Battery.ID)
	}

	return c, nil
}

// ResolvePercentage returns the remaining capacity in percent.
func (r *Resolver) ResolvePercentage() (int, error) {
	c, err := r.ReadCapacity()
	if err != nil {
		return 0, err
	}

	p := c.Percent()
	logrus.WithFields(logrus.Fields{
		"unit":    c.Unit.String(),
		"full":    c.Full,
		"now":     c.Now,
		"percent": p,
	}).Trace("capacity resolved")

	return p, nil
}

// ResolveStatus returns the status of the battery. An Unknown status is
// refined using the AC adapter.
func (r *Resolver) ResolveStatus() (RawStatus, error) {
	if !r.Present {
		return Missing, nil
	}

	s, err := sysfs.ReadString(r.Battery.Path, "status")
	if err != nil {
		return Unknown, pkgerrors.Wrapf(ErrInsufficientData, "failed to read status of %s", r.Battery.ID)
	}

	status := ParseStatus(s)
	if status != Unknown {
		return status, nil
	}

	if !r.acOnline() {
		return Discharging, nil
	}

	// A second, independent capacity read. It may disagree on unit with a
	// read made earlier in the same poll.
	if p, err := r.ResolvePercentage(); err == nil && p >= chargedPercent {
		return Charged, nil
	}

	return Charging, nil
}

func (r *Resolver) acOnline() bool {
	if r.AC == nil {
		return false
	}
	online, err := sysfs.HasPrefix(r.AC.Path, "online", "1")
	if err != nil {
		logrus.WithError(err).Debug("failed to read AC online state")
		return false
	}
	return online
}
