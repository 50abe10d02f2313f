package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Weekday follows the Sunday=0 .. Saturday=6 convention.
type Weekday int

const (
	Sunday Weekday = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

var weekdayNames = [...]string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

func (d Weekday) String() string {
	if d < Sunday || d > Saturday {
		return fmt.Sprintf("weekday(%d)", int(d))
	}
	return weekdayNames[d]
}

// Valid reports whether d is one of the seven weekdays.
func (d Weekday) Valid() bool {
	return d >= Sunday && d <= Saturday
}

// WeekdayOf is the single date -> weekday conversion used across the module.
func WeekdayOf(date time.Time) Weekday {
	return Weekday(date.Weekday())
}

// ParseWeekday accepts full names and three-letter abbreviations, case-insensitive.
func ParseWeekday(name string) (Weekday, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, full := range weekdayNames {
		if n == full || (len(n) == 3 && strings.HasPrefix(full, n)) {
			return Weekday(i), nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", name)
}

// AllWeekdays lists the weekdays in enum order.
func AllWeekdays() []Weekday {
	return []Weekday{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}
}

type WorkingHoursEntry struct {
	Day       string `json:"day"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	IsWorking bool   `json:"is_working"`
}

// WorkingHours is a staff member's weekly template.
type WorkingHours []WorkingHoursEntry

// DefaultWorkingHours is the template used when a staff member declares none:
// Monday to Saturday 09:00-18:00, Sunday off.
func DefaultWorkingHours() WorkingHours {
	wh := make(WorkingHours, 0, 7)
	for _, d := range AllWeekdays() {
		entry := WorkingHoursEntry{Day: d.String(), StartTime: "09:00", EndTime: "18:00", IsWorking: true}
		if d == Sunday {
			entry.IsWorking = false
		}
		wh = append(wh, entry)
	}
	return wh
}

// For returns the first entry declared for day.
func (wh WorkingHours) For(day Weekday) (WorkingHoursEntry, bool) {
	for _, e := range wh {
		d, err := ParseWeekday(e.Day)
		if err != nil {
			continue
		}
		if d == day {
			return e, true
		}
	}
	return WorkingHoursEntry{}, false
}

// Normalize returns exactly one entry per weekday in enum order; undeclared days are off.
func (wh WorkingHours) Normalize() WorkingHours {
	out := make(WorkingHours, 0, 7)
	for _, d := range AllWeekdays() {
		e, ok := wh.For(d)
		if !ok {
			e = WorkingHoursEntry{IsWorking: false}
		}
		e.Day = d.String()
		out = append(out, e)
	}
	return out
}

// ParseWorkingHours decodes a stored template. Both the array form
// [{"day":"monday",...}] and the keyed form {"monday":{...}} are accepted.
func ParseWorkingHours(raw string) (WorkingHours, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return nil, fmt.Errorf("empty working hours")
	}

	var list WorkingHours
	if err := json.Unmarshal([]byte(raw), &list); err == nil {
		if len(list) == 0 {
			return nil, fmt.Errorf("empty working hours")
		}
		return list, nil
	}

	var keyed map[string]WorkingHoursEntry
	if err := json.Unmarshal([]byte(raw), &keyed); err != nil {
		return nil, fmt.Errorf("decode working hours: %w", err)
	}
	for _, d := range AllWeekdays() {
		for name, e := range keyed {
			parsed, err := ParseWeekday(name)
			if err != nil || parsed != d {
				continue
			}
			e.Day = d.String()
			list = append(list, e)
			break
		}
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("no recognizable weekdays in working hours")
	}
	return list, nil
}

// TimeSlot is a candidate appointment window computed per request. Never stored.
type TimeSlot struct {
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	IsAvailable bool   `json:"is_available"`
	StaffID     *int64 `json:"staff_id,omitempty"`
}
