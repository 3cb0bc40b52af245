package availability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/barberq/internal/barberq"
)

func slot(date, start, end string) barberq.Slot {
	return barberq.Slot{Date: date, StartTime: start, EndTime: end}
}

func TestProject_GroupsByDateInInputOrder(t *testing.T) {
	input := []barberq.Slot{
		slot("2024-06-10", "10:00", "10:30"),
		slot("2024-06-12", "09:00", "09:30"),
		slot("2024-06-10", "09:00", "09:30"),
	}

	idx := Project(input)

	assert.Equal(t, 2, idx.Len())
	assert.Equal(t, []string{"2024-06-10", "2024-06-12"}, idx.Dates())
	got := idx.Slots("2024-06-10")
	require.Len(t, got, 2)
	assert.Equal(t, "10:00", got[0].StartTime, "server order must be kept, not re-sorted")
	assert.Equal(t, "09:00", got[1].StartTime)
}

func TestProject_EveryInputSlotAppearsOnceUnderItsDate(t *testing.T) {
	input := []barberq.Slot{
		slot("2024-07-01", "09:00", "09:15"),
		slot("2024-06-30", "17:00", "17:15"),
		slot("2024-07-01", "08:00", "08:15"),
		slot("2024-06-30", "09:00", "09:15"),
		slot("2024-07-02", "12:00", "12:15"),
	}

	idx := Project(input)

	dates := idx.AvailableDates()
	distinct := map[string]bool{}
	for _, s := range input {
		distinct[s.Date] = true
		assert.True(t, dates.Has(s.Date))

		count := 0
		for _, got := range idx.Slots(s.Date) {
			if got == s {
				count++
			}
		}
		assert.Equal(t, 1, count, "slot %+v", s)
		assert.True(t, idx.Contains(s))
	}
	assert.Len(t, dates, len(distinct))

	// relative order within each date follows the input
	var prev = map[string]int{}
	for i, s := range input {
		pos := -1
		for j, got := range idx.Slots(s.Date) {
			if got == s {
				pos = j
			}
		}
		if last, ok := prev[s.Date]; ok {
			assert.Greater(t, pos, last, "input %d", i)
		}
		prev[s.Date] = pos
	}
}

func TestProject_Empty(t *testing.T) {
	idx := Project(nil)
	assert.True(t, idx.IsEmpty())
	assert.Empty(t, idx.AvailableDates())
	assert.Empty(t, idx.Dates())
	assert.Nil(t, idx.Slots("2024-06-10"))
	assert.False(t, idx.Contains(slot("2024-06-10", "10:00", "10:30")))
}

func TestDateIndex_SlotsReturnsCopy(t *testing.T) {
	idx := Project([]barberq.Slot{slot("2024-06-10", "10:00", "10:30")})
	got := idx.Slots("2024-06-10")
	got[0].StartTime = "23:59"
	assert.Equal(t, "10:00", idx.Slots("2024-06-10")[0].StartTime)
}

func TestDateIndex_Flatten(t *testing.T) {
	idx := Project([]barberq.Slot{
		slot("2024-06-12", "09:00", "09:30"),
		slot("2024-06-10", "11:00", "11:30"),
		slot("2024-06-10", "10:00", "10:30"),
	})
	flat := idx.Flatten()
	require.Len(t, flat, 3)
	assert.Equal(t, "11:00", flat[0].StartTime)
	assert.Equal(t, "10:00", flat[1].StartTime)
	assert.Equal(t, "2024-06-12", flat[2].Date)
}
