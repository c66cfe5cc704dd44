package powersupply

import (
	"os"
	"path/filepath"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/batticon/pkg/sysfs"
)

// Role is the part a power supply plays for batticon.
type Role string

const (
	// RoleBattery is a supply whose type starts with "Battery".
	RoleBattery Role = "Battery"
	// RoleAC is a supply whose type starts with "Mains".
	RoleAC Role = "AC"
)

// Ref points at the attribute directory of a discovered power supply.
type Ref struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

// Entry is a discovered power supply as shown by the listing mode.
type Entry struct {
	Ref
	Role Role `json:"role"`
}

// Supplies holds the selected battery and AC adapter. Either may be nil.
type Supplies struct {
	Battery *Ref
	AC      *Ref
}

// List returns every battery and AC supply under root, in directory order.
// It fails only when root itself cannot be listed.
func List(root string) ([]Entry, error) {
	dirents, err := os.ReadDir(root)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to list power supplies in %s", root)
	}

	var entries []Entry
	for _, d := range dirents {
		path := filepath.Join(root, d.Name())

		typ, err := sysfs.ReadString(path, "type")
		if err != nil {
			logrus.WithField("path", path).Debug("skipping power supply without type")
			continue
		}

		var role Role
		switch {
		case strings.HasPrefix(typ, "Battery"):
			role = RoleBattery
		case strings.HasPrefix(typ, "Mains"):
			role = RoleAC
		default:
			continue
		}

		entries = append(entries, Entry{
			Ref:  Ref{ID: d.Name(), Path: path},
			Role: role,
		})
	}

	return entries, nil
}

// Discover selects the first AC adapter and a battery under root. If
// batteryID is not empty, the first battery whose path ends with batteryID
// is selected instead of the first one.
func Discover(root, batteryID string) (*Supplies, error) {
	entries, err := List(root)
	if err != nil {
		return nil, err
	}

	s := &Supplies{}
	for i := range entries {
		e := entries[i]
		switch e.Role {
		case RoleAC:
			if s.AC == nil {
				s.AC = &e.Ref
			}
		case RoleBattery:
			if s.Battery == nil && (batteryID == "" || strings.HasSuffix(e.Path, batteryID)) {
				s.Battery = &e.Ref
			}
		}
	}

	fields := logrus.Fields{}
	if s.Battery != nil {
		fields["battery"] = s.Battery.Path
	}
	if s.AC != nil {
		fields["ac"] = s.AC.Path
	}
	logrus.WithFields(fields).Debug("power supplies discovered")

	return s, nil
}
