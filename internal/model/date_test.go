package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCalendarDate(t *testing.T) {
	d, err := ParseCalendarDate("2024-03-05")
	require.NoError(t, err)
	assert.Equal(t, CalendarDate{Year: 2024, Month: time.March, Day: 5}, d)
	assert.Equal(t, "2024-03-05", d.String())

	_, err = ParseCalendarDate("03/05/2024")
	assert.Error(t, err)
}

func TestCalendarDate_Valid(t *testing.T) {
	assert.True(t, CalendarDate{Year: 2024, Month: time.February, Day: 29}.Valid())
	assert.False(t, CalendarDate{Year: 2023, Month: time.February, Day: 29}.Valid())
	assert.False(t, CalendarDate{Year: 2024, Month: 13, Day: 1}.Valid())
}

func TestDateRange_Contains(t *testing.T) {
	r := DateRange{
		From: CalendarDate{Year: 2024, Month: time.March, Day: 1},
		To:   CalendarDate{Year: 2024, Month: time.March, Day: 31},
	}
	assert.True(t, r.Contains(CalendarDate{Year: 2024, Month: time.March, Day: 1}))
	assert.True(t, r.Contains(CalendarDate{Year: 2024, Month: time.March, Day: 31}))
	assert.False(t, r.Contains(CalendarDate{Year: 2024, Month: time.April, Day: 1}))
}
