package schedule

// Slot is a candidate window [Start, End).
type Slot struct {
	Start Clock
	End   Clock
}

// GenerateSlots cuts [start, end) into consecutive step-minute slots. The loop stops once
// a slot would start at or after end, so the last slot overhangs end when the window is
// not a multiple of step.
func GenerateSlots(start, end Clock, step int) []Slot {
	if step <= 0 || end <= start {
		return nil
	}

	slots := make([]Slot, 0, (int(end-start)+step-1)/step)
	for cur := start; cur < end; cur = cur.Add(step) {
		slots = append(slots, Slot{Start: cur, End: cur.Add(step)})
	}
	return slots
}
