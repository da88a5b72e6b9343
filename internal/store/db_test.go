package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"ticketsync/internal/models"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	t.Cleanup(func() { sqldb.Close() })

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	// ResetModel drops and recreates, so every test starts empty even on the
	// shared in-memory database.
	err = bunDB.ResetModel(context.Background(),
		(*models.EventRow)(nil),
		(*models.OrderItemRow)(nil),
		(*models.EventSalesRow)(nil),
		(*models.UserRow)(nil),
	)
	require.NoError(t, err)

	return &DB{Bun: bunDB}
}

func TestCreateTablesIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	// Tables already exist from setup; a second bootstrap must be a no-op.
	require.NoError(t, db.CreateTables(ctx))
	require.NoError(t, db.CreateTables(ctx))
}

func TestUpsertEventsInsertThenUpdate(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	starts := time.Date(2026, 6, 12, 22, 0, 0, 0, time.UTC)
	row := models.EventRow{ID: 100, Name: "Opening Night", Venue: "Main Room", Status: "LIVE", StartsAt: starts, SyncedAt: time.Now()}
	require.NoError(t, db.UpsertEvents(ctx, []models.EventRow{row}))

	row.Name = "Opening Night (Rescheduled)"
	row.Status = "POSTPONED"
	require.NoError(t, db.UpsertEvents(ctx, []models.EventRow{row}))

	stored, err := db.SelectEvents(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "Opening Night (Rescheduled)", stored[0].Name)
	assert.Equal(t, "POSTPONED", stored[0].Status)
}

func TestUpsertEventsEmptyIsNoop(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.UpsertEvents(context.Background(), nil))
}

func TestUpdateEventStatus(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.UpsertEvents(ctx, []models.EventRow{{ID: 100, Name: "Opening Night", Status: "LIVE"}}))
	require.NoError(t, db.UpdateEventStatus(ctx, 100, "REMOVED"))

	stored, err := db.SelectEvents(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "REMOVED", stored[0].Status)
}

func TestDeleteEvent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.UpsertEvents(ctx, []models.EventRow{{ID: 100, Name: "Opening Night", Status: "LIVE"}}))
	require.NoError(t, db.DeleteEvent(ctx, 100))

	stored, err := db.SelectEvents(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestUpsertOrderItemsPreservesAttendanceFields(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	first := time.Date(2026, 6, 12, 23, 15, 0, 0, time.UTC)
	row := models.OrderItemRow{
		OrderID: 1, OrderSaleID: 10, EventID: 100, Status: "COMPLETE",
		Name: "GA Standard", Category: "GA", Gross: 40, Quantity: 2,
		Reporting: "GA_PAID", Serials: "S1,S2", SyncedAt: time.Now(),
	}
	require.NoError(t, db.UpsertOrderItems(ctx, []models.OrderItemRow{row}))

	// Attendance reconciliation writes its fields through the point update.
	require.NoError(t, db.UpdateOrderAttendance(ctx, 1, 10, "CHECKED_IN,IN_HAND", 1, &first))

	// A later order sync must not clobber what attendance wrote.
	row.Gross = 45
	require.NoError(t, db.UpsertOrderItems(ctx, []models.OrderItemRow{row}))

	stored, err := db.SelectOrderItemsPage(ctx, 100, 0, 10)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, float64(45), stored[0].Gross)
	assert.Equal(t, "CHECKED_IN,IN_HAND", stored[0].CheckinState)
	assert.Equal(t, 1, stored[0].CheckinCount)
	require.NotNil(t, stored[0].FirstCheckin)
	assert.True(t, stored[0].FirstCheckin.Equal(first))
}

func TestSelectOrderItemsPageWindows(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	var rows []models.OrderItemRow
	for i := int64(1); i <= 5; i++ {
		rows = append(rows, models.OrderItemRow{OrderID: i, OrderSaleID: i, EventID: 100, SyncedAt: time.Now()})
	}
	// One row for another event must not leak into the window.
	rows = append(rows, models.OrderItemRow{OrderID: 99, OrderSaleID: 99, EventID: 200, SyncedAt: time.Now()})
	require.NoError(t, db.UpsertOrderItems(ctx, rows))

	page1, err := db.SelectOrderItemsPage(ctx, 100, 0, 2)
	require.NoError(t, err)
	require.Len(t, page1, 2)
	assert.Equal(t, int64(1), page1[0].OrderID)
	assert.Equal(t, int64(2), page1[1].OrderID)

	page3, err := db.SelectOrderItemsPage(ctx, 100, 4, 2)
	require.NoError(t, err)
	require.Len(t, page3, 1) // short page: caller stops here
	assert.Equal(t, int64(5), page3[0].OrderID)
}

func TestUpsertEventSalesInsertThenUpdate(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	row := models.EventSalesRow{EventID: 100, Gross: 500, Net: 450, GAPaid: 10, UniqueCheckins: 4, ComputedAt: time.Now()}
	require.NoError(t, db.UpsertEventSales(ctx, row))

	row.Gross = 650
	row.GAPaid = 13
	row.UniqueCheckins = 7
	require.NoError(t, db.UpsertEventSales(ctx, row))

	var stored []models.EventSalesRow
	require.NoError(t, db.Bun.NewSelect().Model(&stored).Scan(ctx))
	require.Len(t, stored, 1)
	assert.Equal(t, float64(650), stored[0].Gross)
	assert.Equal(t, 13, stored[0].GAPaid)
	assert.Equal(t, 7, stored[0].UniqueCheckins)
}

func TestUpsertUsersInsertThenUpdate(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	row := models.UserRow{UserID: 7, Email: "a@example.com", FirstName: "Ada", OrdersCount: 1, TotalSpent: 40, SyncedAt: time.Now()}
	require.NoError(t, db.UpsertUsers(ctx, []models.UserRow{row}))

	row.OrdersCount = 3
	row.TotalSpent = 120
	require.NoError(t, db.UpsertUsers(ctx, []models.UserRow{row}))

	var stored []models.UserRow
	require.NoError(t, db.Bun.NewSelect().Model(&stored).Scan(ctx))
	require.Len(t, stored, 1)
	assert.Equal(t, 3, stored[0].OrdersCount)
	assert.Equal(t, float64(120), stored[0].TotalSpent)
}
