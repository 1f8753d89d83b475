package credit_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/warp/credit-engine/credit"
)

func TestCivilCalendar_ShiftByDays(t *testing.T) {
	cal := credit.CivilCalendar{}

	assert.Equal(t, "2024-01-31", cal.ShiftByDays("2024-01-01", 30))
	assert.Equal(t, "2024-03-01", cal.ShiftByDays("2024-01-01", 60)) // leap February
	assert.Equal(t, "2024-01-01", cal.ShiftByDays("2024-01-01", 0))
	assert.Equal(t, "2023-12-31", cal.ShiftByDays("2024-01-01", -1))
}

func TestCivilCalendar_EnsureValidDate(t *testing.T) {
	cal := credit.CivilCalendar{}

	assert.Equal(t, "2024-06-15", cal.EnsureValidDate("2024-06-15"))
	assert.Equal(t, "2024-06-15", cal.EnsureValidDate("  2024-06-15  "))

	today := time.Now().UTC().Format("2006-01-02")
	assert.Equal(t, today, cal.EnsureValidDate(""))
	assert.Equal(t, today, cal.EnsureValidDate("garbage"))
	assert.Equal(t, today, cal.EnsureValidDate("2024-02-30"))
}

func TestCivilCalendar_Today_ISOFormat(t *testing.T) {
	got := credit.CivilCalendar{}.Today()
	_, err := time.Parse("2006-01-02", got)
	assert.NoError(t, err)
}
