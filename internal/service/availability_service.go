package service

import (
	"context"
	"fmt"
	"time"

	"slotbook/internal/domain"
	"slotbook/internal/metrics"
	"slotbook/internal/models"
	"slotbook/internal/schedule"

	"github.com/rs/zerolog"
)

// AvailabilityService answers read-only slot questions. Identical inputs with no
// intervening writes produce identical output.
type AvailabilityService struct {
	repo         domain.AvailabilityRepository
	slotDuration int
	now          func() time.Time
	logger       *zerolog.Logger
}

func NewAvailabilityService(repo domain.AvailabilityRepository, slotDuration int, logger *zerolog.Logger) *AvailabilityService {
	if slotDuration <= 0 {
		slotDuration = models.DefaultSlotDuration
	}
	return &AvailabilityService{
		repo:         repo,
		slotDuration: slotDuration,
		now:          time.Now,
		logger:       logger,
	}
}

// TimeSlots lists the candidate slots of one day. With a staff member the window is that
// member's working hours and only their bookings count; without one the default business
// hours apply and every active booking of the client counts.
func (s *AvailabilityService) TimeSlots(ctx context.Context, clientID int64, date string, serviceID int64, staffID *int64) ([]models.TimeSlot, error) {
	day, err := parseDate("date", date)
	if err != nil {
		return nil, err
	}
	if serviceID <= 0 {
		return nil, invalid("service_id", "is required")
	}

	if _, err := s.repo.GetService(ctx, clientID, serviceID); err != nil {
		return nil, translate(err)
	}

	hours := models.DefaultWorkingHours()
	if staffID != nil {
		staff, err := s.repo.GetStaff(ctx, clientID, *staffID)
		if err != nil {
			return nil, translate(err)
		}
		if !staff.IsActive {
			return nil, fmt.Errorf("%w: staff %d is inactive", ErrNotFound, staff.ID)
		}
		hours = staff.WorkingHours
	}

	start, end, working := s.window(hours, day, staffID)
	if !working {
		return []models.TimeSlot{}, nil
	}

	bookings, err := s.repo.GetActiveBookings(ctx, clientID, staffID, date)
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}

	reservations, _ := s.reservations(bookings)
	return s.buildSlots(start, end, reservations, staffID), nil
}

// StaffSchedules returns every active staff member with their template and the slots
// computed for date. An empty date means today.
func (s *AvailabilityService) StaffSchedules(ctx context.Context, clientID int64, date string) ([]models.StaffSchedule, error) {
	if date == "" {
		date = s.now().Format(models.DateLayout)
	}
	day, err := parseDate("date", date)
	if err != nil {
		return nil, err
	}

	// публичный маршрут: client_id приходит из запроса
	if _, err := s.repo.GetClient(ctx, clientID); err != nil {
		return nil, translate(err)
	}

	staff, err := s.repo.ListActiveStaff(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}

	schedules := make([]models.StaffSchedule, 0, len(staff))
	for _, member := range staff {
		id := member.ID
		sched := models.StaffSchedule{
			StaffID:      member.ID,
			Name:         member.Name,
			Role:         member.Role,
			Date:         date,
			WorkingHours: member.WorkingHours.Normalize(),
			Slots:        []models.TimeSlot{},
		}

		start, end, working := s.window(member.WorkingHours, day, &id)
		if working {
			bookings, err := s.repo.GetActiveBookings(ctx, clientID, &id, date)
			if err != nil {
				return nil, fmt.Errorf("load bookings for staff %d: %w", id, err)
			}
			reservations, _ := s.reservations(bookings)
			sched.IsWorking = true
			sched.Slots = s.buildSlots(start, end, reservations, &id)
		}
		schedules = append(schedules, sched)
	}
	return schedules, nil
}

// CheckConflicts reports the active bookings overlapping [at, at+duration) on date.
func (s *AvailabilityService) CheckConflicts(ctx context.Context, clientID int64, date, at string, duration int, staffID *int64) (*models.ConflictReport, error) {
	var errs ValidationErrors
	if _, err := parseDate("date", date); err != nil {
		errs = append(errs, err.(*ValidationError))
	}
	start, err := parseClock("time", at)
	if err != nil {
		errs = append(errs, err.(*ValidationError))
	}
	if duration <= 0 {
		errs = append(errs, invalid("duration", "must be a positive number of minutes"))
	}
	if err := errs.orNil(); err != nil {
		return nil, err
	}

	if staffID != nil {
		if _, err := s.repo.GetStaff(ctx, clientID, *staffID); err != nil {
			return nil, translate(err)
		}
	}

	bookings, err := s.repo.GetActiveBookings(ctx, clientID, staffID, date)
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}

	reservations, kept := s.reservations(bookings)
	report := &models.ConflictReport{Conflicts: []*models.Booking{}}
	for _, i := range schedule.Conflicts(start, start.Add(duration), reservations) {
		report.Conflicts = append(report.Conflicts, kept[i])
	}
	report.HasConflict = len(report.Conflicts) > 0
	return report, nil
}

// window resolves the working window of day. A malformed template entry counts as a day off.
func (s *AvailabilityService) window(hours models.WorkingHours, day time.Time, staffID *int64) (schedule.Clock, schedule.Clock, bool) {
	entry, ok := hours.For(models.WeekdayOf(day))
	if !ok || !entry.IsWorking {
		return 0, 0, false
	}

	start, errStart := schedule.ParseClock(entry.StartTime)
	end, errEnd := schedule.ParseClock(entry.EndTime)
	if errStart != nil || errEnd != nil {
		ev := s.logger.Warn().Str("day", entry.Day).Str("start", entry.StartTime).Str("end", entry.EndTime)
		if staffID != nil {
			ev = ev.Int64("staff_id", *staffID)
		}
		ev.Msg("Malformed working hours entry, treating day as off")
		return 0, 0, false
	}
	return start, end, true
}

// reservations converts bookings for the overlap rule. The second slice holds the bookings
// that were kept, index-aligned with the first; unreadable times are skipped.
func (s *AvailabilityService) reservations(bookings []*models.Booking) ([]schedule.Reservation, []*models.Booking) {
	out := make([]schedule.Reservation, 0, len(bookings))
	kept := make([]*models.Booking, 0, len(bookings))
	for _, b := range bookings {
		at, err := schedule.ParseClock(b.BookingTime)
		if err != nil {
			s.logger.Warn().Int64("booking_id", b.ID).Str("booking_time", b.BookingTime).Msg("Skipping booking with unreadable time")
			continue
		}
		out = append(out, schedule.Reservation{Start: at, Duration: b.Duration})
		kept = append(kept, b)
	}
	return out, kept
}

func (s *AvailabilityService) buildSlots(start, end schedule.Clock, reservations []schedule.Reservation, staffID *int64) []models.TimeSlot {
	candidates := schedule.GenerateSlots(start, end, s.slotDuration)
	slots := make([]models.TimeSlot, 0, len(candidates))
	free := 0
	for _, c := range candidates {
		available := schedule.IsFree(c.Start, c.End, reservations)
		if available {
			free++
		}
		slots = append(slots, models.TimeSlot{
			StartTime:   c.Start.String(),
			EndTime:     c.End.String(),
			IsAvailable: available,
			StaffID:     staffID,
		})
	}
	metrics.AddSlots(free, len(slots)-free)
	return slots
}

func parseDate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, invalid(field, "is required")
	}
	d, err := time.Parse(models.DateLayout, value)
	if err != nil {
		return time.Time{}, invalid(field, "must be a date in YYYY-MM-DD format")
	}
	return d, nil
}

func parseClock(field, value string) (schedule.Clock, error) {
	if value == "" {
		return 0, invalid(field, "is required")
	}
	c, err := schedule.ParseClock(value)
	if err != nil {
		return 0, invalid(field, "must be a time in HH:MM format")
	}
	return c, nil
}
