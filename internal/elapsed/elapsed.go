package elapsed

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"
)

// Layout is the only timestamp shape accepted once suffixes are removed.
const Layout = "2006-01-02T15:04:05"

// ErrTimestamp is returned (wrapped) for any timestamp that cannot be parsed.
var ErrTimestamp = errors.New("malformed timestamp")

var (
	offsetSuffix   = regexp.MustCompile(`\+.*$`)
	fractionSuffix = regexp.MustCompile(`\..*$`)
)

// Unit names the bucket an elapsed duration falls into.
type Unit string

const (
	UnitNow     Unit = "now"
	UnitMinutes Unit = "minutes ago"
	UnitHours   Unit = "hours ago"
	UnitDays    Unit = "days ago"
)

// Label is a (magnitude, unit) pair such as (3, "hours ago").
type Label struct {
	Amount int
	Unit   Unit
}

// Magnitude renders the amount, which is empty for UnitNow.
func (l Label) Magnitude() string {
	if l.Unit == UnitNow {
		return ""
	}
	return strconv.Itoa(l.Amount)
}

// Negative reports a publication time after the reference instant.
func (l Label) Negative() bool {
	return l.Amount < 0
}

func (l Label) String() string {
	if l.Unit == UnitNow {
		return string(UnitNow)
	}
	return fmt.Sprintf("%d %s", l.Amount, l.Unit)
}

// TimestampError describes a timestamp that did not match Layout.
type TimestampError struct {
	Raw string
	Err error
}

func (e *TimestampError) Error() string {
	return fmt.Sprintf("parse timestamp %q: %v", e.Raw, e.Err)
}

func (e *TimestampError) Unwrap() []error {
	return []error{ErrTimestamp, e.Err}
}

// Parse drops the timezone offset and fractional seconds, then reads the
// remainder as a UTC wall-clock time.
func Parse(raw string) (time.Time, error) {
	trimmed := offsetSuffix.ReplaceAllString(raw, "")
	trimmed = fractionSuffix.ReplaceAllString(trimmed, "")

	ts, err := time.ParseInLocation(Layout, trimmed, time.UTC)
	if err != nil {
		return time.Time{}, &TimestampError{Raw: raw, Err: err}
	}
	return ts, nil
}

// Since buckets the distance between published and now.
func Since(published, now time.Time) Label {
	minutes := int(math.RoundToEven(now.Sub(published).Seconds() / 60))

	switch {
	case minutes == 0:
		return Label{Unit: UnitNow}
	case minutes < 60:
		return Label{Amount: minutes, Unit: UnitMinutes}
	case minutes < 60*24:
		return Label{Amount: int(math.RoundToEven(float64(minutes) / 60)), Unit: UnitHours}
	default:
		return Label{Amount: int(math.RoundToEven(float64(minutes) / (60 * 24))), Unit: UnitDays}
	}
}

// Format parses raw and labels it relative to now.
func Format(raw string, now time.Time) (Label, error) {
	published, err := Parse(raw)
	if err != nil {
		return Label{}, err
	}
	return Since(published, now), nil
}
