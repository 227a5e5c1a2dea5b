package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeStringWithNow(t *testing.T) {
	now := time.Date(2024, 3, 9, 14, 5, 0, 0, time.Local)

	valid := []struct {
		in         string
		hour, mins int
	}{
		{"07:15", 7, 15},
		{"23:59", 23, 59},
		{"00:00", 0, 0},
		{"11:20PM", 23, 20},
		{"6:05 am", 6, 5},
		{"12:00AM", 0, 0},
		{"12:30pm", 12, 30},
	}
	for _, tt := range valid {
		got, err := ParseTimeStringWithNow(tt.in, now)
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, time.Date(2024, 3, 9, tt.hour, tt.mins, 0, 0, time.Local), got, "input %q", tt.in)
	}

	for _, in := range []string{"", "  ", "7", "0715", "07-15", "24:00", "07:61", "07:15 tomorrow"} {
		_, err := ParseTimeStringWithNow(in, now)
		assert.Error(t, err, "input %q", in)
	}
}

func TestParseTimeStringUsesToday(t *testing.T) {
	got, err := ParseTimeString("08:00")
	require.NoError(t, err)

	now := time.Now()
	assert.Equal(t, now.YearDay(), got.YearDay())
	assert.Equal(t, 8, got.Hour())
}

func TestUntilClock(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.Local)

	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		{name: "later today", input: "12:00", want: 2 * time.Hour},
		{name: "12h format", input: "10:30PM", want: 12*time.Hour + 30*time.Minute},
		{name: "already passed rolls over", input: "09:00", want: 23 * time.Hour},
		{name: "exactly now rolls over", input: "10:00", want: 24 * time.Hour},
		{name: "invalid", input: "25:00", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := UntilClock(tt.input, now)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
