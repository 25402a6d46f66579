package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := Parse(s)
	require.NoError(t, err)
	return d
}

func TestGenerateDateRange(t *testing.T) {
	t.Run("mon wed fri across a week", func(t *testing.T) {
		start := mustParse(t, "2024-01-01")
		end := mustParse(t, "2024-01-08")

		got := GenerateDateRange(start, end, []time.Weekday{time.Monday, time.Wednesday, time.Friday})

		want := []time.Time{
			mustParse(t, "2024-01-01"),
			mustParse(t, "2024-01-03"),
			mustParse(t, "2024-01-05"),
			mustParse(t, "2024-01-08"),
		}
		assert.Equal(t, want, got)
	})

	t.Run("empty weekday set", func(t *testing.T) {
		got := GenerateDateRange(mustParse(t, "2024-01-01"), mustParse(t, "2024-02-01"), nil)
		assert.Empty(t, got)
	})

	t.Run("end before start", func(t *testing.T) {
		got := GenerateDateRange(mustParse(t, "2024-02-01"), mustParse(t, "2024-01-01"), AllWeekdays)
		assert.Empty(t, got)
	})

	t.Run("single day range", func(t *testing.T) {
		day := mustParse(t, "2024-03-05")
		got := GenerateDateRange(day, day, AllWeekdays)
		assert.Equal(t, []time.Time{day}, got)
	})

	t.Run("strictly increasing and within bounds", func(t *testing.T) {
		start := mustParse(t, "2023-12-20")
		end := mustParse(t, "2024-03-10")
		dow := []time.Weekday{time.Tuesday, time.Saturday}

		got := GenerateDateRange(start, end, dow)
		require.NotEmpty(t, got)
		for i, d := range got {
			assert.False(t, d.Before(start))
			assert.False(t, d.After(end))
			assert.True(t, Contains(dow, d.Weekday()))
			if i > 0 {
				assert.True(t, got[i-1].Before(d))
			}
		}
	})
}

func TestFillRatioPlanned(t *testing.T) {
	now := time.Date(2024, 1, 10, 6, 0, 0, 0, time.UTC)

	assert.Equal(t, 1.0, FillRatioPlanned(mustParse(t, "2024-01-09"), now))
	assert.Equal(t, 0.0, FillRatioPlanned(mustParse(t, "2024-01-11"), now))
	assert.InDelta(t, 0.25, FillRatioPlanned(mustParse(t, "2024-01-10"), now), 1e-9)
}

func TestFillRatioActual(t *testing.T) {
	t.Run("ten per day with twenty five logged", func(t *testing.T) {
		assert.Equal(t, 1.0, FillRatioActual(0, 10, 25))
		assert.Equal(t, 1.0, FillRatioActual(1, 10, 25))
		assert.InDelta(t, 0.5, FillRatioActual(2, 10, 25), 1e-9)
		assert.Equal(t, 0.0, FillRatioActual(3, 10, 25))
		assert.Equal(t, 0.0, FillRatioActual(10, 10, 25))
	})

	t.Run("nothing logged", func(t *testing.T) {
		assert.Equal(t, 0.0, FillRatioActual(0, 10, 0))
	})

	t.Run("fractional quota", func(t *testing.T) {
		assert.Equal(t, 1.0, FillRatioActual(0, 0.5, 0.75))
		assert.InDelta(t, 0.5, FillRatioActual(1, 0.5, 0.75), 1e-9)
	})

	t.Run("monotonic in accumulated count", func(t *testing.T) {
		for index := 0; index < 5; index++ {
			prev := 0.0
			for accum := 0.0; accum <= 60; accum += 0.7 {
				ratio := FillRatioActual(index, 7.5, accum)
				assert.GreaterOrEqual(t, ratio, 0.0)
				assert.LessOrEqual(t, ratio, 1.0)
				assert.GreaterOrEqual(t, ratio, prev, "index %d accum %v", index, accum)
				prev = ratio
			}
		}
	})
}

func TestParseWeekday(t *testing.T) {
	for _, name := range []string{"Monday", "mon", "MON", " Mon "} {
		d, err := ParseWeekday(name)
		require.NoError(t, err, name)
		assert.Equal(t, time.Monday, d)
	}

	_, err := ParseWeekday("Funday")
	assert.Error(t, err)
}

func TestSortWeekdays(t *testing.T) {
	got := SortWeekdays([]time.Weekday{time.Sunday, time.Friday, time.Monday, time.Friday})
	assert.Equal(t, []time.Weekday{time.Monday, time.Friday, time.Sunday}, got)
}
