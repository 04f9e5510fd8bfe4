// Package format renders the date and coordinate strings used in text overlays.
package format

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidCoordinates is returned for an unparsable or out-of-range latitude/longitude.
var ErrInvalidCoordinates = errors.New("invalid coordinates")

// ErrInvalidDate is returned for a date or time the form could not have produced.
var ErrInvalidDate = errors.New("invalid date")

const (
	dateLayout      = "January 2, 2006"
	dateTimeLayout  = "January 2, 2006 3:04 PM"
	inputDateLayout = "2006-01-02"
	inputTimeLayout = "15:04"
)

// ParseDateTime reads the form's date (YYYY-MM-DD) and optional time (HH:MM).
func ParseDateTime(date, clock string) (time.Time, error) {
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)
	if clock == "" {
		t, err := time.Parse(inputDateLayout, date)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q: %v", ErrInvalidDate, date, err)
		}
		return t, nil
	}
	t, err := time.Parse(inputDateLayout+" "+inputTimeLayout, date+" "+clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q %q: %v", ErrInvalidDate, date, clock, err)
	}
	return t, nil
}

// FormatDate renders a date for the overlay, optionally with the time of day.
func FormatDate(t time.Time, showTime bool) string {
	if showTime {
		return t.Format(dateTimeLayout)
	}
	return t.Format(dateLayout)
}

// FormatCoordinates renders a position in degrees and decimal minutes,
// e.g. "N32° 56.88113′ W96° 49.12345′".
func FormatCoordinates(lat, lng float64) string {
	return formatDMM(lat, "N", "S") + " " + formatDMM(lng, "E", "W")
}

func formatDMM(v float64, pos, neg string) string {
	hemi := pos
	if v < 0 {
		hemi = neg
		v = -v
	}
	deg := math.Floor(v)
	minutes := math.Round((v-deg)*60*1e5) / 1e5
	if minutes >= 60 {
		deg++
		minutes -= 60
	}
	return fmt.Sprintf("%s%d° %.5f′", hemi, int(deg), minutes)
}

// ParseCoordinate parses a decimal-degree latitude (isLat) or longitude.
func ParseCoordinate(s string, isLat bool) (float64, error) {
	s = strings.TrimSpace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCoordinates, s)
	}
	limit := 180.0
	if isLat {
		limit = 90
	}
	if math.Abs(v) > limit {
		return 0, fmt.Errorf("%w: %v out of range", ErrInvalidCoordinates, v)
	}
	return v, nil
}

// ParseLatLng parses both halves of a position.
func ParseLatLng(lat, lng string) (float64, float64, error) {
	la, err := ParseCoordinate(lat, true)
	if err != nil {
		return 0, 0, fmt.Errorf("latitude: %w", err)
	}
	lo, err := ParseCoordinate(lng, false)
	if err != nil {
		return 0, 0, fmt.Errorf("longitude: %w", err)
	}
	return la, lo, nil
}
