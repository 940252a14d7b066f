package policy

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shrimpsizemoose/kardemumma/internal/models"
)

// Rules holds the award limits for non-admin submissions.
type Rules struct {
	MinEntryPoints  int `toml:"min_entry_points"`
	MaxEntryPoints  int `toml:"max_entry_points"`
	MinReasonLength int `toml:"min_reason_length"`
	DailyCap        int `toml:"daily_cap"`
}

func DefaultRules() Rules {
	return Rules{
		MinEntryPoints:  1,
		MaxEntryPoints:  10,
		MinReasonLength: 10,
		DailyCap:        20,
	}
}

// PointsOutOfRangeError rejects a submission whose magnitude falls
// outside the per-entry bounds.
type PointsOutOfRangeError struct {
	Points int
	Min    int
	Max    int
}

func (e *PointsOutOfRangeError) Error() string {
	return fmt.Sprintf("points must be between %d and %d, got %d", e.Min, e.Max, e.Points)
}

// ReasonTooShortError carries how many characters are still needed so
// the UI can render live feedback while the student types.
type ReasonTooShortError struct {
	Length    int
	MinLength int
}

func (e *ReasonTooShortError) Error() string {
	return fmt.Sprintf("reason must be at least %d characters (%d remaining)", e.MinLength, e.Remaining())
}

func (e *ReasonTooShortError) Remaining() int {
	return e.MinLength - e.Length
}

// DailyLimitError carries the remaining headroom under the daily cap.
type DailyLimitError struct {
	UsedToday int
	Cap       int
}

func (e *DailyLimitError) Error() string {
	return fmt.Sprintf("daily points limit exceeded (%d remaining of %d)", e.Headroom(), e.Cap)
}

func (e *DailyLimitError) Headroom() int {
	return e.Cap - e.UsedToday
}

// Evaluate decides whether a proposed award is admissible. Pure: the
// caller looks up usedToday and commits the entry on nil. Admins bypass
// every check, including reason length, so they can backfill and
// correct awards.
func (r Rules) Evaluate(submitter *models.Student, points int, reason string, usedToday int) error {
	if submitter.IsAdmin() {
		return nil
	}

	if points < r.MinEntryPoints || points > r.MaxEntryPoints {
		return &PointsOutOfRangeError{Points: points, Min: r.MinEntryPoints, Max: r.MaxEntryPoints}
	}

	// Length is in characters, not bytes, so non-ASCII reasons count right.
	trimmed := strings.TrimSpace(reason)
	if n := utf8.RuneCountInString(trimmed); n < r.MinReasonLength {
		return &ReasonTooShortError{Length: n, MinLength: r.MinReasonLength}
	}

	if usedToday+points > r.DailyCap {
		return &DailyLimitError{UsedToday: usedToday, Cap: r.DailyCap}
	}

	return nil
}

// DayWindow returns the [from, to) unix bounds of the calendar day
// containing t, in t's location. The cap is per calendar day, not a
// rolling 24h window.
func DayWindow(t time.Time) (int64, int64) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start.Unix(), start.AddDate(0, 0, 1).Unix()
}
