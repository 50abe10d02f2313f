package schedule

// Reservation is an existing booking as the overlap rule sees it.
type Reservation struct {
	Start    Clock
	Duration int
}

// End is Start + Duration.
func (r Reservation) End() Clock {
	return r.Start.Add(r.Duration)
}

// Overlaps applies the half-open rule: [aStart, aEnd) and [bStart, bEnd) intersect
// iff aStart < bEnd && aEnd > bStart. Touching endpoints do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd Clock) bool {
	if aEnd <= aStart || bEnd <= bStart {
		return false
	}
	return aStart < bEnd && aEnd > bStart
}

// Conflicts returns the indexes of reservations overlapping [start, end).
func Conflicts(start, end Clock, reservations []Reservation) []int {
	var hits []int
	for i, r := range reservations {
		if Overlaps(start, end, r.Start, r.End()) {
			hits = append(hits, i)
		}
	}
	return hits
}

// IsFree reports whether [start, end) overlaps none of reservations.
func IsFree(start, end Clock, reservations []Reservation) bool {
	for _, r := range reservations {
		if Overlaps(start, end, r.Start, r.End()) {
			return false
		}
	}
	return true
}
