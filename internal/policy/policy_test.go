package policy

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/kardemumma/internal/models"
)

func TestRules_Evaluate(t *testing.T) {
	rules := DefaultRules()
	user := &models.Student{ID: 1, Role: models.RoleUser}
	admin := &models.Student{ID: 2, Role: models.RoleAdmin}

	testCases := []struct {
		name      string
		submitter *models.Student
		points    int
		reason    string
		usedToday int
		wantErr   error
	}{
		{
			name:      "valid submission",
			submitter: user,
			points:    5,
			reason:    "Helped a peer",
			usedToday: 0,
		},
		{
			name:      "minimum points accepted",
			submitter: user,
			points:    1,
			reason:    "Helped a peer",
			usedToday: 0,
		},
		{
			name:      "maximum points accepted",
			submitter: user,
			points:    10,
			reason:    "Helped a peer",
			usedToday: 0,
		},
		{
			name:      "zero points rejected",
			submitter: user,
			points:    0,
			reason:    "Helped a peer",
			wantErr:   &PointsOutOfRangeError{},
		},
		{
			name:      "eleven points rejected",
			submitter: user,
			points:    11,
			reason:    "Helped a peer",
			wantErr:   &PointsOutOfRangeError{},
		},
		{
			name:      "negative points rejected",
			submitter: user,
			points:    -3,
			reason:    "Helped a peer",
			wantErr:   &PointsOutOfRangeError{},
		},
		{
			name:      "short reason rejected",
			submitter: user,
			points:    5,
			reason:    "Good job",
			wantErr:   &ReasonTooShortError{},
		},
		{
			name:      "whitespace does not count towards reason length",
			submitter: user,
			points:    5,
			reason:    "   Good job   ",
			wantErr:   &ReasonTooShortError{},
		},
		{
			name:      "multibyte reason counted in characters not bytes",
			submitter: user,
			points:    5,
			reason:    "Помог", // 5 characters, 10 bytes
			wantErr:   &ReasonTooShortError{},
		},
		{
			name:      "ten multibyte characters accepted",
			submitter: user,
			points:    5,
			reason:    "Помог всем!",
			usedToday: 0,
		},
		{
			name:      "exactly at daily cap accepted",
			submitter: user,
			points:    5,
			reason:    "Helped a peer",
			usedToday: 15,
		},
		{
			name:      "one over daily cap rejected",
			submitter: user,
			points:    6,
			reason:    "Helped a peer",
			usedToday: 15,
			wantErr:   &DailyLimitError{},
		},
		{
			name:      "admin bypasses points range",
			submitter: admin,
			points:    50,
			reason:    "Backfilled award",
		},
		{
			name:      "admin bypasses daily cap",
			submitter: admin,
			points:    10,
			reason:    "Backfilled award",
			usedToday: 20,
		},
		{
			name:      "admin bypasses reason length",
			submitter: admin,
			points:    5,
			reason:    "x",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := rules.Evaluate(tc.submitter, tc.points, tc.reason, tc.usedToday)
			if tc.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			switch tc.wantErr.(type) {
			case *PointsOutOfRangeError:
				var target *PointsOutOfRangeError
				assert.True(t, errors.As(err, &target))
			case *ReasonTooShortError:
				var target *ReasonTooShortError
				assert.True(t, errors.As(err, &target))
			case *DailyLimitError:
				var target *DailyLimitError
				assert.True(t, errors.As(err, &target))
			}
		})
	}
}

func TestReasonTooShortError_Remaining(t *testing.T) {
	rules := DefaultRules()
	user := &models.Student{ID: 1, Role: models.RoleUser}

	err := rules.Evaluate(user, 5, "Good job", 0)
	require.Error(t, err)

	var reasonErr *ReasonTooShortError
	require.True(t, errors.As(err, &reasonErr))
	assert.Equal(t, 2, reasonErr.Remaining())
	assert.Contains(t, reasonErr.Error(), "2 remaining")

	err = rules.Evaluate(user, 5, "Помог", 0)
	require.Error(t, err)
	require.True(t, errors.As(err, &reasonErr))
	assert.Equal(t, 5, reasonErr.Remaining())
}

func TestDailyLimitError_Headroom(t *testing.T) {
	rules := DefaultRules()
	user := &models.Student{ID: 1, Role: models.RoleUser}

	err := rules.Evaluate(user, 6, "Helped a peer", 15)
	require.Error(t, err)

	var limitErr *DailyLimitError
	require.True(t, errors.As(err, &limitErr))
	assert.Equal(t, 5, limitErr.Headroom())
	assert.Contains(t, limitErr.Error(), "5 remaining")
}

func TestDayWindow(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Stockholm")
	require.NoError(t, err)

	testCases := []struct {
		name string
		at   time.Time
	}{
		{
			name: "midday UTC",
			at:   time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC),
		},
		{
			name: "just before midnight local",
			at:   time.Date(2024, 1, 15, 23, 59, 59, 0, loc),
		},
		{
			name: "just after midnight local",
			at:   time.Date(2024, 1, 16, 0, 0, 1, 0, loc),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			from, to := DayWindow(tc.at)
			assert.Equal(t, int64(24*60*60), to-from)
			assert.LessOrEqual(t, from, tc.at.Unix())
			assert.Greater(t, to, tc.at.Unix())

			start := time.Date(tc.at.Year(), tc.at.Month(), tc.at.Day(), 0, 0, 0, 0, tc.at.Location())
			assert.Equal(t, start.Unix(), from)
		})
	}
}
