package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weekdays(days ...time.Weekday) []time.Weekday { return days }

func TestDeriveSlots(t *testing.T) {
	tests := []struct {
		name    string
		window  AvailabilityWindow
		want    []string
		wantErr error
	}{
		{
			name:   "two overlapping slots",
			window: AvailabilityWindow{Days: weekdays(time.Monday), StartTime: "09:00", EndTime: "11:30"},
			want:   []string{"09:00-11:00", "09:30-11:30"},
		},
		{
			name:   "exactly one slot",
			window: AvailabilityWindow{Days: weekdays(time.Friday), StartTime: "18:00", EndTime: "20:00"},
			want:   []string{"18:00-20:00"},
		},
		{
			name:   "full evening",
			window: AvailabilityWindow{Days: weekdays(time.Saturday, time.Sunday), StartTime: "20:00", EndTime: "24:00"},
			want:   []string{"20:00-22:00", "20:30-22:30", "21:00-23:00", "21:30-23:30", "22:00-24:00"},
		},
		{
			name:    "shorter than one slot",
			window:  AvailabilityWindow{Days: weekdays(time.Monday), StartTime: "09:00", EndTime: "10:30"},
			want:    []string{},
			wantErr: ErrInvalidWindow,
		},
		{
			name:    "inverted",
			window:  AvailabilityWindow{Days: weekdays(time.Monday), StartTime: "12:00", EndTime: "09:00"},
			want:    []string{},
			wantErr: ErrInvalidWindow,
		},
		{
			name:   "no days",
			window: AvailabilityWindow{StartTime: "09:00", EndTime: "12:00"},
			want:   []string{},
		},
		{
			name:   "missing bound",
			window: AvailabilityWindow{Days: weekdays(time.Monday), StartTime: "09:00"},
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slots, err := DeriveSlots(tt.window, SlotLength, SlotStride)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			require.NotNil(t, slots)

			got := make([]string, 0, len(slots))
			for _, s := range slots {
				got = append(got, s.String())
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeriveSlotsIsDeterministic(t *testing.T) {
	w := AvailabilityWindow{Days: weekdays(time.Tuesday, time.Thursday), StartTime: "08:00", EndTime: "17:00"}

	first, err := DeriveSlots(w, SlotLength, SlotStride)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := DeriveSlots(w, SlotLength, SlotStride)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}

	for i := 1; i < len(first); i++ {
		assert.Less(t, first[i-1].Start, first[i].Start)
		assert.Equal(t, SlotLength, first[i].End-first[i].Start)
	}
}

func TestValidateAcceptsShortWindow(t *testing.T) {
	w := AvailabilityWindow{Days: weekdays(time.Monday), StartTime: "09:00", EndTime: "10:00"}
	assert.NoError(t, w.Validate())

	post := NewPost(uuid.New(), "guitar", 60, w, time.Now())
	assert.Empty(t, post.Slots())
}

func TestValidateRejectsMalformedInput(t *testing.T) {
	assert.ErrorIs(t, AvailabilityWindow{StartTime: "9am", EndTime: "11:00"}.Validate(), ErrInvalidWindow)
	assert.ErrorIs(t, AvailabilityWindow{Days: weekdays(time.Weekday(9))}.Validate(), ErrInvalidWindow)
}

func TestSlotAt(t *testing.T) {
	w := AvailabilityWindow{Days: weekdays(time.Monday), StartTime: "09:00", EndTime: "11:30"}
	monday := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)

	slot, ok := w.SlotAt(monday.Add(9*time.Hour+30*time.Minute), time.UTC)
	require.True(t, ok)
	assert.Equal(t, "09:30-11:30", slot.String())

	_, ok = w.SlotAt(monday.Add(10*time.Hour), time.UTC)
	assert.False(t, ok, "10:00 does not start a derivable slot")

	_, ok = w.SlotAt(monday.Add(24*time.Hour+9*time.Hour), time.UTC)
	assert.False(t, ok, "tuesday is not an open day")

	_, ok = w.SlotAt(monday.Add(9*time.Hour+time.Second), time.UTC)
	assert.False(t, ok)
}

func TestSlotAtUsesLocation(t *testing.T) {
	w := AvailabilityWindow{Days: weekdays(time.Monday), StartTime: "09:00", EndTime: "11:00"}
	plusOne := time.FixedZone("UTC+1", 3600)

	slot, ok := w.SlotAt(time.Date(2024, time.March, 4, 8, 0, 0, 0, time.UTC), plusOne)
	require.True(t, ok)
	assert.Equal(t, 9*60, slot.Start)

	_, ok = w.SlotAt(time.Date(2024, time.March, 4, 9, 0, 0, 0, time.UTC), plusOne)
	assert.False(t, ok)
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "00:00", want: 0},
		{in: "09:30", want: 570},
		{in: "24:00", want: 1440},
		{in: "7:05", want: 425},
		{in: "24:30", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "12:5", wantErr: true},
		{in: "noon", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClock(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidWindow)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCostFor(t *testing.T) {
	post := &Post{CoinsPerHour: 45}
	assert.Equal(t, int64(90), post.CostFor(120))
	assert.Equal(t, int64(22), post.CostFor(30))
	assert.Equal(t, int64(0), (&Post{}).CostFor(120))
}
