package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSalesDate_AcceptedLayouts(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"03/04/2024", Date(2024, time.April, 3)},
		{"3/4/2024", Date(2024, time.April, 3)},
		{"25-12-2023", Date(2023, time.December, 25)},
		{"03/04/2024 18:30", Date(2024, time.April, 3)},
		{"3 Apr 2024", Date(2024, time.April, 3)},
		{"2024-04-03", Date(2024, time.April, 3)},
		{"2024-04-03 18:30:00", Date(2024, time.April, 3)},
	}
	for _, tt := range tests {
		got := ParseSalesDate(tt.in)
		require.NotNil(t, got, "input %q", tt.in)
		assert.Equal(t, tt.want, *got, "input %q", tt.in)
	}
}

func TestParsePODate_DropsTimeOfDay(t *testing.T) {
	got := ParsePODate("02 Mar 2024 09:15 AM")
	require.NotNil(t, got)
	assert.Equal(t, Date(2024, time.March, 2), *got)

	got = ParsePODate("2 Mar 2024 11:45 PM")
	require.NotNil(t, got)
	assert.Equal(t, Date(2024, time.March, 2), *got)
}

func TestParseFillRateDate(t *testing.T) {
	got := ParseFillRateDate("10-03-2024")
	require.NotNil(t, got)
	assert.Equal(t, Date(2024, time.March, 10), *got)
}

func TestParseDates_UnparsableBecomesUnknown(t *testing.T) {
	assert.Nil(t, ParseSalesDate(""))
	assert.Nil(t, ParseSalesDate("not a date"))
	assert.Nil(t, ParsePODate("10-03-2024"))      // wrong feed format
	assert.Nil(t, ParseFillRateDate("03 Mar 2024 09:15 AM")) // wrong feed format
	assert.Nil(t, ParseFillRateDate(""))
}

func TestInWindow(t *testing.T) {
	from := Date(2024, time.March, 1)
	to := Date(2024, time.March, 15)

	mid := Date(2024, time.March, 10)
	assert.True(t, inWindow(&mid, from, to))
	assert.True(t, inWindow(&from, from, to), "closed interval includes the bounds")
	assert.True(t, inWindow(&to, from, to))

	before := Date(2024, time.February, 29)
	assert.False(t, inWindow(&before, from, to))
	assert.False(t, inWindow(nil, from, to), "unknown dates never satisfy a window")
}
