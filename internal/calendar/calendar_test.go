package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/barberq/internal/availability"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dates(keys ...string) availability.DateSet {
	set := availability.DateSet{}
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

func TestBuild_June2024LeadingBlanks(t *testing.T) {
	today := day(2024, time.June, 1) // Saturday
	vm := Build(today, MonthOf(today), nil)

	for i := 0; i < 5; i++ {
		assert.True(t, vm.Cells[i].Blank, "cell %d should be blank", i)
	}
	require.False(t, vm.Cells[5].Blank)
	assert.Equal(t, "2024-06-01", vm.Cells[5].Date)
	assert.Equal(t, 1, vm.Cells[5].Day)
	assert.Zero(t, len(vm.Cells)%7)
	assert.Len(t, vm.Cells, 35)
	assert.Equal(t, "2024-06-30", vm.Cells[34].Date)
	assert.Equal(t, "June 2024", vm.Label)
	assert.Len(t, vm.Weeks(), 5)
}

func TestBuild_LeadingBlanksPerWeekday(t *testing.T) {
	tests := []struct {
		name  string
		month Month
		lead  int
		total int
	}{
		{"monday start", Month{2024, time.July}, 0, 35},
		{"sunday start", Month{2024, time.September}, 6, 42},
		{"february leap year", Month{2024, time.February}, 3, 35},
		{"february exact weeks", Month{2021, time.February}, 0, 28},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm := Build(day(2020, time.January, 1), tt.month, nil)
			for i := 0; i < tt.lead; i++ {
				assert.True(t, vm.Cells[i].Blank)
			}
			assert.False(t, vm.Cells[tt.lead].Blank)
			assert.Equal(t, 1, vm.Cells[tt.lead].Day)
			assert.Len(t, vm.Cells, tt.total)
		})
	}
}

func TestBuild_TodayNeverSelectable(t *testing.T) {
	today := time.Date(2024, time.June, 10, 15, 45, 0, 0, time.UTC)
	avail := dates("2024-06-09", "2024-06-10", "2024-06-11")
	vm := Build(today, MonthOf(today), avail)

	past, ok := vm.Cell("2024-06-09")
	require.True(t, ok)
	assert.True(t, past.Available)
	assert.False(t, past.Selectable)

	todayCell, ok := vm.Cell("2024-06-10")
	require.True(t, ok)
	assert.False(t, todayCell.Selectable, "today must not be selectable even when available")

	tomorrow, _ := vm.Cell("2024-06-11")
	assert.True(t, tomorrow.Selectable)

	unavailable, _ := vm.Cell("2024-06-12")
	assert.False(t, unavailable.Selectable)

	assert.False(t, Selectable(today, "2024-06-10", avail))
	assert.True(t, Selectable(today, "2024-06-11", avail))
	assert.False(t, Selectable(today, "2024-06-13", avail))
	assert.False(t, Selectable(today, "garbage", dates("garbage")))
}

func TestNavigationBounds(t *testing.T) {
	today := day(2024, time.November, 20)
	current := MonthOf(today)

	_, ok := Prev(today, current)
	assert.False(t, ok, "cannot go before the current month")

	view := current
	var visited []Month
	for {
		next, ok := Next(today, view)
		if !ok {
			break
		}
		view = next
		visited = append(visited, view)
	}
	assert.Equal(t, []Month{{2024, time.December}, {2025, time.January}}, visited)
	assert.True(t, view.Before(current.Add(MaxMonthsAhead)))

	back, ok := Prev(today, view)
	assert.True(t, ok)
	assert.Equal(t, Month{2024, time.December}, back)

	vm := Build(today, view, nil)
	assert.True(t, vm.CanPrev)
	assert.False(t, vm.CanNext)
}

func TestNavigationNeverLeavesWindow(t *testing.T) {
	today := day(2024, time.June, 1)
	current := MonthOf(today)
	view := current
	moves := []bool{true, true, true, true, false, false, false, false, true}
	for _, forward := range moves {
		if forward {
			view, _ = Next(today, view)
		} else {
			view, _ = Prev(today, view)
		}
		assert.False(t, view.Before(current))
		assert.True(t, view.Before(current.Add(3)))
	}
}

func TestMonthAdd(t *testing.T) {
	assert.Equal(t, Month{2025, time.January}, Month{2024, time.December}.Add(1))
	assert.Equal(t, Month{2023, time.December}, Month{2024, time.January}.Add(-1))
	assert.Equal(t, Month{2026, time.March}, Month{2024, time.March}.Add(24))
	assert.Equal(t, "2024-03", Month{2024, time.March}.String())
	assert.Equal(t, 29, Month{2024, time.February}.Days())
}
