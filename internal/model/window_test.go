package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthWindow_NextRollsYear(t *testing.T) {
	w := MonthWindow{Year: 2024, Month: time.December}
	next, err := w.Next()
	require.NoError(t, err)
	assert.Equal(t, MonthWindow{Year: 2025, Month: time.January}, next)
	assert.Equal(t, MonthWindow{Year: 2024, Month: time.December}, w, "receiver must not change")
}

func TestMonthWindow_PrevRollsYear(t *testing.T) {
	w := MonthWindow{Year: 2024, Month: time.January}
	prev, err := w.Prev()
	require.NoError(t, err)
	assert.Equal(t, MonthWindow{Year: 2023, Month: time.December}, prev)
}

func TestMonthWindow_RoundTrip(t *testing.T) {
	for year := 2022; year <= 2025; year++ {
		for m := time.January; m <= time.December; m++ {
			w := MonthWindow{Year: year, Month: m}

			prev, err := w.Prev()
			require.NoError(t, err)
			back, err := prev.Next()
			require.NoError(t, err)
			assert.Equal(t, w, back, "next(prev(%s))", w)

			next, err := w.Next()
			require.NoError(t, err)
			back, err = next.Prev()
			require.NoError(t, err)
			assert.Equal(t, w, back, "prev(next(%s))", w)
		}
	}
}

func TestMonthWindow_Invalid(t *testing.T) {
	tests := []struct {
		name string
		w    MonthWindow
	}{
		{"month zero", MonthWindow{Year: 2024, Month: 0}},
		{"month thirteen", MonthWindow{Year: 2024, Month: 13}},
		{"year zero", MonthWindow{Year: 0, Month: time.March}},
		{"year overflow", MonthWindow{Year: 10000, Month: time.March}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.w.Next()
			var iwe *InvalidWindowError
			require.ErrorAs(t, err, &iwe)
			assert.Equal(t, tt.w, iwe.Window)

			_, err = tt.w.Prev()
			require.ErrorAs(t, err, &iwe)
		})
	}
}

func TestMonthWindow_NavigationOffTheEnd(t *testing.T) {
	_, err := MonthWindow{Year: 9999, Month: time.December}.Next()
	var iwe *InvalidWindowError
	assert.ErrorAs(t, err, &iwe)

	_, err = MonthWindow{Year: 1, Month: time.January}.Prev()
	assert.ErrorAs(t, err, &iwe)
}

func TestParseMonthWindow(t *testing.T) {
	w, err := ParseMonthWindow("2024-03")
	require.NoError(t, err)
	assert.Equal(t, MonthWindow{Year: 2024, Month: time.March}, w)
	assert.Equal(t, "2024-03", w.String())

	_, err = ParseMonthWindow("2024-3x")
	assert.Error(t, err)
}

func TestMonthWindow_ContainsUsesLocation(t *testing.T) {
	manila := time.FixedZone("PHT", 8*3600)
	// 2024-03-31 20:00 UTC is already April 1st in Manila.
	ts := time.Date(2024, time.March, 31, 20, 0, 0, 0, time.UTC)

	assert.True(t, MonthWindow{Year: 2024, Month: time.March}.Contains(ts, time.UTC))
	assert.True(t, MonthWindow{Year: 2024, Month: time.April}.Contains(ts, manila))
}
