// Package calendar projects a month of availability into a Monday-first day grid.
package calendar

import (
	"fmt"
	"time"

	"github.com/wolfman30/barberq/internal/availability"
	"github.com/wolfman30/barberq/internal/barberq"
)

// MaxMonthsAhead bounds forward navigation: the view stays below current month + MaxMonthsAhead.
const MaxMonthsAhead = 3

// Month identifies a calendar month.
type Month struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

func (m Month) ordinal() int { return m.Year*12 + int(m.Month) - 1 }

// Add returns the month n months after m (n may be negative).
func (m Month) Add(n int) Month {
	o := m.ordinal() + n
	return Month{Year: floorDiv(o, 12), Month: time.Month(o-floorDiv(o, 12)*12) + 1}
}

// Before reports whether m is earlier than o.
func (m Month) Before(o Month) bool { return m.ordinal() < o.ordinal() }

// After reports whether m is later than o.
func (m Month) After(o Month) bool { return m.ordinal() > o.ordinal() }

// First returns midnight of the first day of m in loc.
func (m Month) First(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, loc)
}

// Days returns the number of days in m.
func (m Month) Days() int {
	return time.Date(m.Year, m.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func (m Month) String() string { return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month)) }

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// Cell is one square of the month grid. Blank cells pad the grid to whole weeks.
type Cell struct {
	Blank      bool   `json:"blank"`
	Date       string `json:"date,omitempty"`
	Day        int    `json:"day,omitempty"`
	Available  bool   `json:"available,omitempty"`
	Selectable bool   `json:"selectable,omitempty"`
}

// ViewModel is the rendered month.
type ViewModel struct {
	Year    int        `json:"year"`
	Month   time.Month `json:"month"`
	Label   string     `json:"label"`
	CanPrev bool       `json:"canPrev"`
	CanNext bool       `json:"canNext"`
	Cells   []Cell     `json:"cells"`
}

// Midnight truncates t to the start of its day in t's location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Build lays out view as whole Monday-first weeks. A day is selectable only when
// it is strictly after today and present in available.
func Build(today time.Time, view Month, available availability.DateSet) ViewModel {
	today = Midnight(today)
	first := view.First(today.Location())
	lead := (int(first.Weekday()) + 6) % 7
	days := view.Days()

	cells := make([]Cell, 0, 42)
	for i := 0; i < lead; i++ {
		cells = append(cells, Cell{Blank: true})
	}
	for day := 1; day <= days; day++ {
		date := first.AddDate(0, 0, day-1)
		key := date.Format(barberq.DateLayout)
		has := available.Has(key)
		cells = append(cells, Cell{
			Date:       key,
			Day:        day,
			Available:  has,
			Selectable: has && date.After(today),
		})
	}
	for len(cells)%7 != 0 {
		cells = append(cells, Cell{Blank: true})
	}

	return ViewModel{
		Year:    view.Year,
		Month:   view.Month,
		Label:   first.Format("January 2006"),
		CanPrev: CanPrev(today, view),
		CanNext: CanNext(today, view),
		Cells:   cells,
	}
}

// Selectable reports whether date (YYYY-MM-DD) may be picked on the calendar.
func Selectable(today time.Time, date string, available availability.DateSet) bool {
	if !available.Has(date) {
		return false
	}
	today = Midnight(today)
	d, err := time.ParseInLocation(barberq.DateLayout, date, today.Location())
	if err != nil {
		return false
	}
	return d.After(today)
}

// CanPrev reports whether the month before view may be shown.
func CanPrev(today time.Time, view Month) bool {
	return view.After(MonthOf(today))
}

// CanNext reports whether the month after view may be shown.
func CanNext(today time.Time, view Month) bool {
	return view.Add(1).Before(MonthOf(today).Add(MaxMonthsAhead))
}

// Prev moves the view back one month when allowed.
func Prev(today time.Time, view Month) (Month, bool) {
	if !CanPrev(today, view) {
		return view, false
	}
	return view.Add(-1), true
}

// Next moves the view forward one month when allowed.
func Next(today time.Time, view Month) (Month, bool) {
	if !CanNext(today, view) {
		return view, false
	}
	return view.Add(1), true
}

// Cell returns the cell for date, if it is in this month.
func (v ViewModel) Cell(date string) (Cell, bool) {
	for _, c := range v.Cells {
		if !c.Blank && c.Date == date {
			return c, true
		}
	}
	return Cell{}, false
}

// Weeks splits the cells into rows of seven.
func (v ViewModel) Weeks() [][]Cell {
	weeks := make([][]Cell, 0, len(v.Cells)/7)
	for i := 0; i+7 <= len(v.Cells); i += 7 {
		weeks = append(weeks, v.Cells[i:i+7])
	}
	return weeks
}
