package attendance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrcore/internal/apperrors"
)

func TestComputeStats(t *testing.T) {
	tests := []struct {
		name   string
		counts Counts
		want   string
	}{
		{name: "no records", counts: Counts{}, want: "0"},
		{name: "all present", counts: Counts{Total: 4, Present: 4}, want: "100"},
		{name: "two of three", counts: Counts{Total: 3, Present: 2, Absent: 1}, want: "66.67"},
		{name: "one of three", counts: Counts{Total: 3, Present: 1, Late: 2}, want: "33.33"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeStats(tt.counts)
			assert.Equal(t, tt.want, got.AttendanceRate.String())
			assert.Equal(t, tt.counts.Total, got.TotalDays)
		})
	}
}

func TestCheckInTransitions(t *testing.T) {
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

	rec := Record{Status: StatusAbsent}
	require.NoError(t, applyCheckIn(&rec, now))
	assert.Equal(t, StatusPresent, rec.Status)
	assert.Equal(t, StateCheckedIn, StateOf(&rec))

	require.ErrorIs(t, applyCheckIn(&rec, now), apperrors.ErrAlreadyCheckedIn)
}

func TestCheckOutTransitions(t *testing.T) {
	in := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

	empty := Record{}
	require.ErrorIs(t, applyCheckOut(&empty, in), apperrors.ErrNotCheckedIn)

	rec := Record{CheckIn: &in}
	require.NoError(t, applyCheckOut(&rec, in.Add(8*time.Hour)))
	assert.Equal(t, StateCheckedOut, StateOf(&rec))
	require.ErrorIs(t, applyCheckOut(&rec, in.Add(9*time.Hour)), apperrors.ErrAlreadyCheckedOut)

	skewed := Record{CheckIn: &in}
	require.NoError(t, applyCheckOut(&skewed, in.Add(-time.Minute)))
	assert.Equal(t, in, *skewed.CheckOut)
}

func TestApplyPatchKeepsOrder(t *testing.T) {
	in := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	out := in.Add(8 * time.Hour)
	rec := Record{CheckIn: &in, CheckOut: &out, Status: StatusPresent}

	early := in.Add(-time.Hour)
	_, err := applyPatch(rec, Patch{CheckOut: &early})
	require.ErrorIs(t, err, apperrors.ErrValidation)

	late := StatusLate
	note := "traffic"
	merged, err := applyPatch(rec, Patch{Status: &late, Note: &note})
	require.NoError(t, err)
	assert.Equal(t, StatusLate, merged.Status)
	assert.Equal(t, "traffic", merged.Note)

	bogus := Status("sleeping")
	_, err = applyPatch(rec, Patch{Status: &bogus})
	require.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = applyPatch(Record{}, Patch{CheckOut: &out})
	require.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestCalendarDayUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	instant := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), calendarDay(instant, loc))
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), calendarDay(instant, time.UTC))
}

func TestParseStatus(t *testing.T) {
	got, err := ParseStatus(" Half-Day ")
	require.NoError(t, err)
	assert.Equal(t, StatusHalfDay, got)

	_, err = ParseStatus("holiday")
	require.ErrorIs(t, err, apperrors.ErrValidation)
}
