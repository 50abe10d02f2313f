package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"slotbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// 2024-03-04 is a Monday, 2024-03-10 a Sunday.
const (
	monday = "2024-03-04"
	sunday = "2024-03-10"
)

func TestTimeSlots_StaffWorkingDay(t *testing.T) {
	tn := newTenant(t)
	svc := NewAvailabilityService(tn.db, 30, testLogger())

	tn.book(t, &tn.staff.ID, monday, "10:00", 60)

	slots, err := svc.TimeSlots(context.Background(), tn.client.ID, monday, tn.service.ID, &tn.staff.ID)
	require.NoError(t, err)
	require.Len(t, slots, 18, "09:00-18:00 in 30 minute steps")

	assert.Equal(t, "09:00", slots[0].StartTime)
	assert.Equal(t, "09:30", slots[0].EndTime)
	assert.Equal(t, "17:30", slots[17].StartTime)

	byStart := map[string]bool{}
	for _, s := range slots {
		byStart[s.StartTime] = s.IsAvailable
		require.NotNil(t, s.StaffID)
		assert.Equal(t, tn.staff.ID, *s.StaffID)
	}
	assert.True(t, byStart["09:30"], "ends exactly when the booking starts")
	assert.False(t, byStart["10:00"])
	assert.False(t, byStart["10:30"])
	assert.True(t, byStart["11:00"], "starts exactly when the booking ends")
}

func TestTimeSlots_DayOff(t *testing.T) {
	tn := newTenant(t)
	svc := NewAvailabilityService(tn.db, 30, testLogger())

	slots, err := svc.TimeSlots(context.Background(), tn.client.ID, sunday, tn.service.ID, &tn.staff.ID)
	require.NoError(t, err)
	assert.NotNil(t, slots)
	assert.Empty(t, slots)
}

func TestTimeSlots_CustomTemplateAndOverhang(t *testing.T) {
	tn := newTenant(t)
	ctx := context.Background()
	require.NoError(t, tn.db.SetStaffWorkingHours(ctx, tn.client.ID, tn.staff.ID,
		`[{"day":"monday","start_time":"09:00","end_time":"10:45","is_working":true}]`))

	svc := NewAvailabilityService(tn.db, 30, testLogger())
	slots, err := svc.TimeSlots(ctx, tn.client.ID, monday, tn.service.ID, &tn.staff.ID)
	require.NoError(t, err)
	require.Len(t, slots, 4)
	assert.Equal(t, "10:30", slots[3].StartTime)
	assert.Equal(t, "11:00", slots[3].EndTime, "last slot may overhang the window")

	// Tuesday is undeclared in this template.
	slots, err = svc.TimeSlots(ctx, tn.client.ID, "2024-03-05", tn.service.ID, &tn.staff.ID)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestTimeSlots_TenantWideWithoutStaff(t *testing.T) {
	tn := newTenant(t)
	ctx := context.Background()
	other := &models.Staff{ClientID: tn.client.ID, Name: "Lea", IsActive: true}
	require.NoError(t, tn.db.CreateStaff(ctx, other))

	tn.book(t, &other.ID, monday, "12:00", 30)

	svc := NewAvailabilityService(tn.db, 30, testLogger())
	slots, err := svc.TimeSlots(ctx, tn.client.ID, monday, tn.service.ID, nil)
	require.NoError(t, err)
	require.Len(t, slots, 18)
	for _, s := range slots {
		assert.Nil(t, s.StaffID)
		assert.Equal(t, s.StartTime != "12:00", s.IsAvailable, s.StartTime)
	}
}

func TestTimeSlots_Errors(t *testing.T) {
	tn := newTenant(t)
	svc := NewAvailabilityService(tn.db, 30, testLogger())
	ctx := context.Background()

	_, err := svc.TimeSlots(ctx, tn.client.ID, "", tn.service.ID, nil)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "date", ve.Field)

	_, err = svc.TimeSlots(ctx, tn.client.ID, "04/03/2024", tn.service.ID, nil)
	assert.ErrorAs(t, err, &ve)

	_, err = svc.TimeSlots(ctx, tn.client.ID, monday, 0, nil)
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "service_id", ve.Field)

	_, err = svc.TimeSlots(ctx, tn.client.ID, monday, 999, nil)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.TimeSlots(ctx, tn.client.ID, monday, tn.service.ID, ptr(int64(999)))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.TimeSlots(ctx, tn.client.ID+1, monday, tn.service.ID, nil)
	assert.ErrorIs(t, err, ErrNotFound, "another tenant's service is invisible")
}

func TestTimeSlots_Deterministic(t *testing.T) {
	tn := newTenant(t)
	svc := NewAvailabilityService(tn.db, 30, testLogger())
	tn.book(t, &tn.staff.ID, monday, "13:00", 45)

	ctx := context.Background()
	first, err := svc.TimeSlots(ctx, tn.client.ID, monday, tn.service.ID, &tn.staff.ID)
	require.NoError(t, err)
	second, err := svc.TimeSlots(ctx, tn.client.ID, monday, tn.service.ID, &tn.staff.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestStaffSchedules(t *testing.T) {
	tn := newTenant(t)
	ctx := context.Background()
	off := &models.Staff{
		ClientID: tn.client.ID, Name: "Weekend", IsActive: true,
		WorkingHours: models.WorkingHours{{Day: "saturday", StartTime: "10:00", EndTime: "12:00", IsWorking: true}},
	}
	require.NoError(t, tn.db.CreateStaff(ctx, off))
	tn.book(t, &tn.staff.ID, monday, "09:00", 30)

	svc := NewAvailabilityService(tn.db, 30, testLogger())
	schedules, err := svc.StaffSchedules(ctx, tn.client.ID, monday)
	require.NoError(t, err)
	require.Len(t, schedules, 2)

	mia := schedules[0]
	assert.Equal(t, tn.staff.ID, mia.StaffID)
	assert.True(t, mia.IsWorking)
	assert.Len(t, mia.WorkingHours, 7)
	require.Len(t, mia.Slots, 18)
	assert.False(t, mia.Slots[0].IsAvailable)
	assert.True(t, mia.Slots[1].IsAvailable)

	weekend := schedules[1]
	assert.False(t, weekend.IsWorking)
	assert.Empty(t, weekend.Slots)
	assert.Len(t, weekend.WorkingHours, 7)
}

func TestStaffSchedules_DefaultsToToday(t *testing.T) {
	tn := newTenant(t)
	svc := NewAvailabilityService(tn.db, 30, testLogger())
	svc.now = func() time.Time { return time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC) }

	schedules, err := svc.StaffSchedules(context.Background(), tn.client.ID, "")
	require.NoError(t, err)
	require.Len(t, schedules, 1)
	assert.Equal(t, sunday, schedules[0].Date)
	assert.False(t, schedules[0].IsWorking)
}

func TestCheckConflicts(t *testing.T) {
	tn := newTenant(t)
	ctx := context.Background()
	svc := NewAvailabilityService(tn.db, 30, testLogger())

	existing := tn.book(t, &tn.staff.ID, monday, "10:00", 60)

	tests := []struct {
		name     string
		at       string
		duration int
		want     bool
	}{
		{"overlapping", "10:30", 60, true},
		{"containing", "09:00", 180, true},
		{"touching end", "11:00", 30, false},
		{"touching start", "09:00", 60, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := svc.CheckConflicts(ctx, tn.client.ID, monday, tt.at, tt.duration, &tn.staff.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, report.HasConflict)
			if tt.want {
				require.Len(t, report.Conflicts, 1)
				assert.Equal(t, existing.ID, report.Conflicts[0].ID)
			} else {
				assert.NotNil(t, report.Conflicts)
				assert.Empty(t, report.Conflicts)
			}
		})
	}

	t.Run("Validation", func(t *testing.T) {
		_, err := svc.CheckConflicts(ctx, tn.client.ID, "", "25:00", 0, nil)
		fields, ok := Fields(err)
		require.True(t, ok)
		assert.Len(t, fields, 3)
	})

	t.Run("UnknownStaff", func(t *testing.T) {
		report, err := svc.CheckConflicts(ctx, tn.client.ID, monday, "10:00", 30, ptr(int64(999)))
		assert.Nil(t, report)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestCheckConflicts_ForeignStaff(t *testing.T) {
	a := newTenant(t)
	b := seedTenant(t, a.db, "Salon")
	ctx := context.Background()
	a.book(t, &a.staff.ID, monday, "10:00", 30)

	svc := NewAvailabilityService(a.db, 30, testLogger())
	report, err := svc.CheckConflicts(ctx, b.client.ID, monday, "10:00", 30, &a.staff.ID)
	assert.Nil(t, report)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.TimeSlots(ctx, b.client.ID, monday, b.service.ID, &a.staff.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAvailability_TenantIsolation(t *testing.T) {
	a := newTenant(t)
	b := seedTenant(t, a.db, "Salon")
	ctx := context.Background()
	a.book(t, &a.staff.ID, monday, "10:00", 60)
	a.book(t, nil, monday, "14:00", 30)

	svc := NewAvailabilityService(a.db, 30, testLogger())

	for _, staffID := range []*int64{nil, &b.staff.ID} {
		slots, err := svc.TimeSlots(ctx, b.client.ID, monday, b.service.ID, staffID)
		require.NoError(t, err)
		require.Len(t, slots, 18)
		for _, s := range slots {
			assert.True(t, s.IsAvailable, s.StartTime)
		}

		report, err := svc.CheckConflicts(ctx, b.client.ID, monday, "10:00", 300, staffID)
		require.NoError(t, err)
		assert.False(t, report.HasConflict)
		assert.Empty(t, report.Conflicts)
	}

	schedules, err := svc.StaffSchedules(ctx, b.client.ID, monday)
	require.NoError(t, err)
	require.Len(t, schedules, 1)
	assert.Equal(t, b.staff.ID, schedules[0].StaffID)
	require.Len(t, schedules[0].Slots, 18)
	for _, s := range schedules[0].Slots {
		assert.True(t, s.IsAvailable, s.StartTime)
	}

	// the owner still sees its own bookings
	report, err := svc.CheckConflicts(ctx, a.client.ID, monday, "10:00", 300, nil)
	require.NoError(t, err)
	assert.Len(t, report.Conflicts, 2)
}

func TestTimeSlots_InactiveStaff(t *testing.T) {
	tn := newTenant(t)
	ctx := context.Background()
	gone := &models.Staff{ClientID: tn.client.ID, Name: "Former", IsActive: false}
	require.NoError(t, tn.db.CreateStaff(ctx, gone))

	svc := NewAvailabilityService(tn.db, 30, testLogger())
	slots, err := svc.TimeSlots(ctx, tn.client.ID, monday, tn.service.ID, &gone.ID)
	assert.Nil(t, slots)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStaffSchedules_UnknownClient(t *testing.T) {
	tn := newTenant(t)
	svc := NewAvailabilityService(tn.db, 30, testLogger())

	schedules, err := svc.StaffSchedules(context.Background(), tn.client.ID+100, monday)
	assert.Nil(t, schedules)
	assert.ErrorIs(t, err, ErrNotFound)
}

type mockAvailabilityRepo struct {
	mock.Mock
}

func (m *mockAvailabilityRepo) GetClient(ctx context.Context, id int64) (*models.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Client), args.Error(1)
}

func (m *mockAvailabilityRepo) GetStaff(ctx context.Context, clientID, id int64) (*models.Staff, error) {
	args := m.Called(ctx, clientID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Staff), args.Error(1)
}

func (m *mockAvailabilityRepo) ListActiveStaff(ctx context.Context, clientID int64) ([]*models.Staff, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Staff), args.Error(1)
}

func (m *mockAvailabilityRepo) GetService(ctx context.Context, clientID, id int64) (*models.Service, error) {
	args := m.Called(ctx, clientID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Service), args.Error(1)
}

func (m *mockAvailabilityRepo) GetActiveBookings(ctx context.Context, clientID int64, staffID *int64, date string) ([]*models.Booking, error) {
	args := m.Called(ctx, clientID, staffID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}

func TestTimeSlots_StorageFailure(t *testing.T) {
	repo := new(mockAvailabilityRepo)
	repo.On("GetService", mock.Anything, int64(1), int64(2)).Return(&models.Service{ID: 2}, nil)
	repo.On("GetActiveBookings", mock.Anything, int64(1), (*int64)(nil), monday).Return(nil, errors.New("disk I/O error"))

	svc := NewAvailabilityService(repo, 30, testLogger())
	slots, err := svc.TimeSlots(context.Background(), 1, monday, 2, nil)
	assert.Nil(t, slots, "no partial result")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	_, isValidation := Fields(err)
	assert.False(t, isValidation)
	repo.AssertExpectations(t)
}

func TestTimeSlots_MalformedEntryIsDayOff(t *testing.T) {
	repo := new(mockAvailabilityRepo)
	repo.On("GetService", mock.Anything, int64(1), int64(2)).Return(&models.Service{ID: 2}, nil)
	repo.On("GetStaff", mock.Anything, int64(1), int64(3)).Return(&models.Staff{
		ID:       3,
		IsActive: true,
		WorkingHours: models.WorkingHours{
			{Day: "monday", StartTime: "9am", EndTime: "18:00", IsWorking: true},
		},
	}, nil)

	svc := NewAvailabilityService(repo, 30, testLogger())
	slots, err := svc.TimeSlots(context.Background(), 1, monday, 2, ptr(int64(3)))
	require.NoError(t, err)
	assert.Empty(t, slots)
	repo.AssertNotCalled(t, "GetActiveBookings", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckConflicts_SkipsUnreadableTimes(t *testing.T) {
	repo := new(mockAvailabilityRepo)
	repo.On("GetActiveBookings", mock.Anything, int64(1), (*int64)(nil), monday).Return([]*models.Booking{
		{ID: 7, BookingTime: "garbage", Duration: 600},
		{ID: 8, BookingTime: "09:00", Duration: 30},
		{ID: 9, BookingTime: "10:15", Duration: 30},
	}, nil)

	svc := NewAvailabilityService(repo, 30, testLogger())
	report, err := svc.CheckConflicts(context.Background(), 1, monday, "10:00", 30, nil)
	require.NoError(t, err)
	require.Len(t, report.Conflicts, 1)
	assert.Equal(t, int64(9), report.Conflicts[0].ID)
	repo.AssertNotCalled(t, "GetStaff", mock.Anything, mock.Anything, mock.Anything)
}
