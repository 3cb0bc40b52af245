// Package availability groups fetched slots by calendar date.
package availability

import (
	"sort"

	"github.com/wolfman30/barberq/internal/barberq"
)

// DateSet is the set of dates (YYYY-MM-DD) with at least one open slot.
type DateSet map[string]struct{}

// Has reports whether date is in the set.
func (s DateSet) Has(date string) bool {
	_, ok := s[date]
	return ok
}

// DateIndex maps a calendar date to the slots on that date, in server order.
// An index is never mutated after Project returns it.
type DateIndex struct {
	byDate map[string][]barberq.Slot
}

// Project builds a DateIndex from a flat slot list. Each slot lands under its
// own date exactly once, keeping the relative order of the input.
func Project(slots []barberq.Slot) DateIndex {
	idx := DateIndex{byDate: make(map[string][]barberq.Slot)}
	for _, slot := range slots {
		idx.byDate[slot.Date] = append(idx.byDate[slot.Date], slot)
	}
	return idx
}

// Len returns the number of distinct dates.
func (d DateIndex) Len() int { return len(d.byDate) }

// IsEmpty reports whether no slots were projected.
func (d DateIndex) IsEmpty() bool { return len(d.byDate) == 0 }

// Has reports whether date has at least one slot.
func (d DateIndex) Has(date string) bool {
	_, ok := d.byDate[date]
	return ok
}

// Slots returns a copy of the slots for date.
func (d DateIndex) Slots(date string) []barberq.Slot {
	slots := d.byDate[date]
	if len(slots) == 0 {
		return nil
	}
	out := make([]barberq.Slot, len(slots))
	copy(out, slots)
	return out
}

// Contains reports whether slot is one of the slots listed under its date.
func (d DateIndex) Contains(slot barberq.Slot) bool {
	for _, s := range d.byDate[slot.Date] {
		if s == slot {
			return true
		}
	}
	return false
}

// Dates returns the indexed dates in ascending order.
func (d DateIndex) Dates() []string {
	dates := make([]string, 0, len(d.byDate))
	for date := range d.byDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates
}

// AvailableDates returns the key set of the index.
func (d DateIndex) AvailableDates() DateSet {
	set := make(DateSet, len(d.byDate))
	for date := range d.byDate {
		set[date] = struct{}{}
	}
	return set
}

// Flatten returns every slot, dates ascending and server order within a date.
func (d DateIndex) Flatten() []barberq.Slot {
	var out []barberq.Slot
	for _, date := range d.Dates() {
		out = append(out, d.byDate[date]...)
	}
	return out
}
