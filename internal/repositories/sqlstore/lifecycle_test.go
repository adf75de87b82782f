package sqlstore_test

import (
	"context"
	"testing"
	"time"

	"event-ticketing-manager/internal/clock"
	"event-ticketing-manager/internal/database"
	"event-ticketing-manager/internal/models"
	"event-ticketing-manager/internal/repositories/sqlstore"
	"event-ticketing-manager/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifecycleOverSQLite(t *testing.T) {
	db, err := database.NewConnection(database.Config{Dialect: database.DialectSQLite})
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, db.RunMigrations(ctx))

	store, err := sqlstore.New(db.DB, db.Dialect)
	require.NoError(t, err)
	require.NoError(t, store.VerifyLookupTables(ctx))

	clk := clock.Fake(time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC))
	events := services.NewEventService(store.Events(), store.Tickets(), clk)
	users := services.NewUserService(store.Users(), clk)
	tickets := services.NewTicketService(store.Tickets(), store.Events(), store.Users(), clk)
	sweep := services.NewSweepService(store.Tickets(), store.Events(), clk)

	event, err := events.CreateEvent(ctx, &models.EventCreateRequest{
		Name:          "Concert",
		StartTime:     clk.Now().Add(48 * time.Hour),
		TotalCapacity: 10,
	})
	require.NoError(t, err)

	u1, err := users.CreateUser(ctx, &models.UserCreateRequest{
		Name: "Ana", Surname: "Gomez", BirthDate: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC), Email: "u1@example.com",
	})
	require.NoError(t, err)
	u2, err := users.CreateUser(ctx, &models.UserCreateRequest{
		Name: "Luis", Surname: "Diaz", BirthDate: time.Date(1992, 1, 1, 0, 0, 0, 0, time.UTC), Email: "u2@example.com",
	})
	require.NoError(t, err)

	kept, err := tickets.Reserve(ctx, &models.TicketReserveRequest{EventID: event.ID, UserID: u1.ID, Quantity: 4})
	require.NoError(t, err)

	_, err = tickets.Reserve(ctx, &models.TicketReserveRequest{EventID: event.ID, UserID: u2.ID, Quantity: 7})
	assert.ErrorIs(t, err, models.ErrInsufficientCapacity)
	assert.Contains(t, err.Error(), "Quedan 6 lugares")

	unpaid, err := tickets.Reserve(ctx, &models.TicketReserveRequest{EventID: event.ID, UserID: u2.ID, Quantity: 6})
	require.NoError(t, err)

	clk.Advance(time.Hour)
	_, err = tickets.Pay(ctx, kept.ID)
	require.NoError(t, err)

	clk.Advance(24 * time.Hour)
	result, err := sweep.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, services.SweepResult{ReservationsExpired: 1}, result)

	expired, err := tickets.GetByID(ctx, unpaid.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TicketCancelled, expired.Status)

	clk.Set(event.StartTime.Add(-2 * time.Hour))
	used, err := tickets.Validate(ctx, kept.Code)
	require.NoError(t, err)
	assert.Equal(t, models.TicketUsed, used.Status)

	avail, err := events.Availability(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, avail.Occupied)

	clk.Set(event.StartTime.Add(3 * time.Hour))
	result, err = sweep.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, services.SweepResult{EventsFinalized: 1}, result)

	again, err := sweep.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, services.SweepResult{}, again)
}
