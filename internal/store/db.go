package store

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"ticketsync/internal/models"
)

// DB is the datastore layer. All writes are idempotent upserts keyed by
// stable identifiers; the sync never takes locks.
type DB struct {
	Bun *bun.DB
}

// CreateTables bootstraps the schema on first run.
func (d *DB) CreateTables(ctx context.Context) error {
	for _, model := range []interface{}{
		(*models.EventRow)(nil),
		(*models.OrderItemRow)(nil),
		(*models.EventSalesRow)(nil),
		(*models.UserRow)(nil),
	} {
		if _, err := d.Bun.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

// ---------------- EVENTS ----------------

func (d *DB) SelectEvents(ctx context.Context) ([]models.EventRow, error) {
	var rows []models.EventRow
	err := d.Bun.NewSelect().
		Model(&rows).
		Order("id").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (d *DB) UpsertEvents(ctx context.Context, rows []models.EventRow) error {
	if len(rows) == 0 {
		return nil
	}
	_, err := d.Bun.NewInsert().
		Model(&rows).
		On("CONFLICT (id) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("venue = EXCLUDED.venue").
		Set("status = EXCLUDED.status").
		Set("starts_at = EXCLUDED.starts_at").
		Set("ends_at = EXCLUDED.ends_at").
		Set("url = EXCLUDED.url").
		Set("synced_at = EXCLUDED.synced_at").
		Exec(ctx)
	return err
}

func (d *DB) UpdateEventStatus(ctx context.Context, id int64, status string) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.EventRow)(nil)).
		Set("status = ?", status).
		Set("synced_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

// DeleteEvent removes an event row, used only by the webhook UNPUBLISH path.
// Reconciliation passes never delete.
func (d *DB) DeleteEvent(ctx context.Context, id int64) error {
	_, err := d.Bun.NewDelete().
		Model((*models.EventRow)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

// ---------------- ORDER ITEMS ----------------

// SelectOrderItemsPage reads one offset/limit window of an event's order
// items. Callers loop until a short page signals the end.
func (d *DB) SelectOrderItemsPage(ctx context.Context, eventID int64, offset, limit int) ([]models.OrderItemRow, error) {
	var rows []models.OrderItemRow
	err := d.Bun.NewSelect().
		Model(&rows).
		Where("event_id = ?", eventID).
		Order("order_id", "order_sale_id").
		Offset(offset).
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (d *DB) UpsertOrderItems(ctx context.Context, rows []models.OrderItemRow) error {
	if len(rows) == 0 {
		return nil
	}
	_, err := d.Bun.NewInsert().
		Model(&rows).
		On("CONFLICT (order_id, order_sale_id) DO UPDATE").
		Set("event_id = EXCLUDED.event_id").
		Set("user_id = EXCLUDED.user_id").
		Set("status = EXCLUDED.status").
		Set("name = EXCLUDED.name").
		Set("category = EXCLUDED.category").
		Set("gross = EXCLUDED.gross").
		Set("net = EXCLUDED.net").
		Set("referral_type = EXCLUDED.referral_type").
		Set("quantity = EXCLUDED.quantity").
		Set("reporting_category = EXCLUDED.reporting_category").
		Set("serials = EXCLUDED.serials").
		Set("synced_at = EXCLUDED.synced_at").
		Exec(ctx)
	return err
}

// UpdateOrderAttendance point-updates the three reconciliation fields of one
// row. Only called when the aggregator found a diff.
func (d *DB) UpdateOrderAttendance(ctx context.Context, orderID, orderSaleID int64, state string, count int, firstCheckin *time.Time) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.OrderItemRow)(nil)).
		Set("checkin_state = ?", state).
		Set("checkin_count = ?", count).
		Set("first_checkin = ?", firstCheckin).
		Set("synced_at = ?", time.Now()).
		Where("order_id = ?", orderID).
		Where("order_sale_id = ?", orderSaleID).
		Exec(ctx)
	return err
}

// ---------------- SALES ----------------

func (d *DB) UpsertEventSales(ctx context.Context, row models.EventSalesRow) error {
	_, err := d.Bun.NewInsert().
		Model(&row).
		On("CONFLICT (event_id) DO UPDATE").
		Set("gross = EXCLUDED.gross").
		Set("net = EXCLUDED.net").
		Set("ga_paid = EXCLUDED.ga_paid").
		Set("vip_paid = EXCLUDED.vip_paid").
		Set("comp_ga = EXCLUDED.comp_ga").
		Set("comp_vip = EXCLUDED.comp_vip").
		Set("free_ga = EXCLUDED.free_ga").
		Set("free_vip = EXCLUDED.free_vip").
		Set("door_ga = EXCLUDED.door_ga").
		Set("door_vip = EXCLUDED.door_vip").
		Set("physical_guestlist = EXCLUDED.physical_guestlist").
		Set("physical_table_prepaid = EXCLUDED.physical_table_prepaid").
		Set("physical_table_door = EXCLUDED.physical_table_door").
		Set("tables_rsvp = EXCLUDED.tables_rsvp").
		Set("coatcheck = EXCLUDED.coatcheck").
		Set("transferred = EXCLUDED.transferred").
		Set("promoter = EXCLUDED.promoter").
		Set("uncategorized = EXCLUDED.uncategorized").
		Set("unique_checkins = EXCLUDED.unique_checkins").
		Set("computed_at = EXCLUDED.computed_at").
		Exec(ctx)
	return err
}

// ---------------- USERS ----------------

func (d *DB) UpsertUsers(ctx context.Context, rows []models.UserRow) error {
	if len(rows) == 0 {
		return nil
	}
	_, err := d.Bun.NewInsert().
		Model(&rows).
		On("CONFLICT (user_id) DO UPDATE").
		Set("email = EXCLUDED.email").
		Set("first_name = EXCLUDED.first_name").
		Set("last_name = EXCLUDED.last_name").
		Set("phone = EXCLUDED.phone").
		Set("orders_count = EXCLUDED.orders_count").
		Set("total_spent = EXCLUDED.total_spent").
		Set("synced_at = EXCLUDED.synced_at").
		Exec(ctx)
	return err
}
