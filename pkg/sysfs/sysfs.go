// Package sysfs reads single attribute files of a power supply in the
// kernel power-supply registry.
package sysfs

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DefaultRoot is the power-supply registry on Linux.
const DefaultRoot = "/sys/class/power_supply"

// minNumber is the smallest value ReadNumber accepts. Some kernels expose a
// zero counter while the value is not populated yet.
const minNumber = 1

// ErrAbsent is returned when an attribute does not exist, cannot be read or
// does not hold a usable value. Callers treat it as "try the alternative".
var ErrAbsent = errors.New("attribute absent")

// ReadString returns the raw content of dir/attr.
func ReadString(dir, attr string) (string, error) {
	p := filepath.Join(dir, attr)

	b, err := os.ReadFile(p)
	if err != nil {
		logrus.WithError(err).Tracef("failed to read %s", p)
		return "", pkgerrors.Wrapf(ErrAbsent, "failed to read %s", p)
	}

	return string(b), nil
}

// ReadNumber parses dir/attr as a decimal integer. Zero and negative
// values are reported as absent, and so is anything that is not a plain
// base-10 integer (NaN, Inf, exponents, hex).
func ReadNumber(dir, attr string) (float64, error) {
	s, err := ReadString(dir, attr)
	if err != nil {
		return 0, err
	}

	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, pkgerrors.Wrapf(ErrAbsent, "failed to parse %s/%s as integer", dir, attr)
	}

	if v < minNumber {
		return 0, pkgerrors.Wrapf(ErrAbsent, "%s/%s is %d", dir, attr, v)
	}

	logrus.Tracef("read %s/%s = %d", dir, attr, v)

	return float64(v), nil
}

// HasPrefix reports whether dir/attr starts with prefix.
func HasPrefix(dir, attr, prefix string) (bool, error) {
	s, err := ReadString(dir, attr)
	if err != nil {
		return false, err
	}

	return strings.HasPrefix(s, prefix), nil
}
