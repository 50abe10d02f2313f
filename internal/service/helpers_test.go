package service

import (
	"context"
	"io"
	"testing"

	"slotbook/internal/database"
	"slotbook/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func testLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

type tenant struct {
	db       *database.DB
	client   *models.Client
	service  *models.Service
	staff    *models.Staff
	customer *models.Customer
}

// newTenant opens an in-memory store with one client, a 60 minute service, one staff
// member on the default template and one customer.
func newTenant(t *testing.T) tenant {
	t.Helper()
	db, err := database.NewDB(":memory:", testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return seedTenant(t, db, "Studio")
}

// seedTenant adds another client with the same fixtures to an existing store.
func seedTenant(t *testing.T, db *database.DB, name string) tenant {
	t.Helper()
	ctx := context.Background()

	client := &models.Client{Name: name}
	require.NoError(t, db.CreateClient(ctx, client))
	svc := &models.Service{ClientID: client.ID, Name: "Massage", Duration: 60, Price: 40, IsActive: true}
	require.NoError(t, db.CreateService(ctx, svc))
	staff := &models.Staff{ClientID: client.ID, Name: "Mia", Role: "therapist", IsActive: true}
	require.NoError(t, db.CreateStaff(ctx, staff))
	customer := &models.Customer{ClientID: client.ID, Name: "Tom", Phone: "+1"}
	require.NoError(t, db.CreateCustomer(ctx, customer))

	return tenant{db: db, client: client, service: svc, staff: staff, customer: customer}
}

func (tn tenant) book(t *testing.T, staffID *int64, date, at string, duration int) *models.Booking {
	t.Helper()
	b := &models.Booking{
		ClientID:      tn.client.ID,
		ServiceID:     tn.service.ID,
		StaffID:       staffID,
		BookingDate:   date,
		BookingTime:   at,
		Duration:      duration,
		Status:        models.StatusConfirmed,
		PaymentStatus: models.PaymentPending,
	}
	require.NoError(t, tn.db.CreateBooking(context.Background(), b))
	return b
}

func ptr[T any](v T) *T { return &v }
