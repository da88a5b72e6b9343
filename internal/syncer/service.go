package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"ticketsync/internal/kafka"
	"ticketsync/internal/logger"
	"ticketsync/internal/models"
)

// EventStatusRemoved is the status stamped on events that vanished from the
// upstream fetch. Reconciliation marks, it never deletes.
const EventStatusRemoved = "REMOVED"

type DBLayer interface {
	SelectEvents(ctx context.Context) ([]models.EventRow, error)
	UpsertEvents(ctx context.Context, rows []models.EventRow) error
	UpdateEventStatus(ctx context.Context, id int64, status string) error
	DeleteEvent(ctx context.Context, id int64) error
	SelectOrderItemsPage(ctx context.Context, eventID int64, offset, limit int) ([]models.OrderItemRow, error)
	UpsertOrderItems(ctx context.Context, rows []models.OrderItemRow) error
	UpdateOrderAttendance(ctx context.Context, orderID, orderSaleID int64, state string, count int, firstCheckin *time.Time) error
	UpsertEventSales(ctx context.Context, row models.EventSalesRow) error
	UpsertUsers(ctx context.Context, rows []models.UserRow) error
}

type TicketingAPI interface {
	ListGroupEvents(ctx context.Context) ([]models.APIEvent, error)
	ListEventOrders(ctx context.Context, eventID int64, status string) ([]models.Order, error)
	ListUserOrders(ctx context.Context, userID int64) ([]models.Order, error)
	GetAttendance(ctx context.Context, eventID int64, serial string) (*models.AttendanceRecord, error)
	GetEvent(ctx context.Context, eventID int64) (*models.APIEvent, error)
	GetOrder(ctx context.Context, orderID int64) (*models.Order, error)
	GetUser(ctx context.Context, userID int64) (*models.User, error)
}

type Publisher interface {
	Publish(topic string, key string, value []byte) error
}

type UserCache interface {
	GetUser(ctx context.Context, userID int64) (*models.User, error)
	PutUser(ctx context.Context, user models.User) error
}

// SyncStats is the final tally of one reconciliation pass.
type SyncStats struct {
	Processed int
	Updated   int
	Skipped   int
	Failed    int
}

func (s SyncStats) String() string {
	return fmt.Sprintf("processed=%d updated=%d skipped=%d failed=%d", s.Processed, s.Updated, s.Skipped, s.Failed)
}

// Service orchestrates reconciliation passes between the ticketing API and
// the datastore. Per-unit failures (one event, one order, one user) are
// logged and counted, never allowed to abort a whole run; only being unable
// to enumerate the work at all is fatal.
type Service struct {
	DB         DBLayer
	API        TicketingAPI
	Kafka      Publisher
	Cache      UserCache
	Classifier *Classifier
	Logger     *logger.Logger

	Concurrency      int
	PageSize         int
	CustomEventIDMax int64
}

func NewService(db DBLayer, api TicketingAPI, publisher Publisher, userCache UserCache, classifier *Classifier, log *logger.Logger) *Service {
	return &Service{
		DB:          db,
		API:         api,
		Kafka:       publisher,
		Cache:       userCache,
		Classifier:  classifier,
		Logger:      log,
		Concurrency: 10,
		PageSize:    200,
	}
}

// ---------------- EVENTS ----------------

// SyncEvents fetches the group's events, diffs them against the stored set,
// and writes the partitions back. Failing to fetch either side aborts the
// run: the removal logic must never see a partial event list.
func (s *Service) SyncEvents(ctx context.Context) (SyncStats, error) {
	runID := uuid.NewString()[:8]
	stats := SyncStats{}

	fresh, err := s.API.ListGroupEvents(ctx)
	if err != nil {
		return stats, fmt.Errorf("list group events: %w", err)
	}
	stored, err := s.DB.SelectEvents(ctx)
	if err != nil {
		return stats, fmt.Errorf("select stored events: %w", err)
	}

	parts := PartitionEvents(stored, fresh, s.CustomEventIDMax)
	s.Logger.LogSync(runID, fmt.Sprintf("events: %d fresh, %d stored, %d new, %d updated, %d status-changed, %d removed",
		len(fresh), len(stored), len(parts.New), len(parts.Updated), len(parts.StatusChanged), len(parts.Removed)))

	now := time.Now()
	stats.Processed = len(fresh)

	upserts := make([]models.EventRow, 0, len(parts.New)+len(parts.Updated)+len(parts.StatusChanged))
	for _, event := range parts.New {
		upserts = append(upserts, eventToRow(event, now))
	}
	for _, event := range parts.Updated {
		upserts = append(upserts, eventToRow(event, now))
	}
	for _, event := range parts.StatusChanged {
		upserts = append(upserts, eventToRow(event, now))
	}
	if err := s.DB.UpsertEvents(ctx, upserts); err != nil {
		return stats, fmt.Errorf("upsert events: %w", err)
	}
	stats.Updated = len(upserts)

	for _, row := range parts.Removed {
		if err := s.DB.UpdateEventStatus(ctx, row.ID, EventStatusRemoved); err != nil {
			s.Logger.Error("SYNC", fmt.Sprintf("mark event %d removed: %v", row.ID, err))
			stats.Failed++
			continue
		}
		s.publish(kafka.TopicEventRemoved, fmt.Sprintf("%d", row.ID), row)
	}

	for _, event := range parts.New {
		s.publish(kafka.TopicEventCreated, fmt.Sprintf("%d", event.ID), event)
	}
	for _, event := range parts.Updated {
		s.publish(kafka.TopicEventUpdated, fmt.Sprintf("%d", event.ID), event)
	}
	for _, event := range parts.StatusChanged {
		s.publish(kafka.TopicEventUpdated, fmt.Sprintf("%d", event.ID), event)
	}

	s.Logger.LogSync(runID, "events done: "+stats.String())
	return stats, nil
}

func eventToRow(event models.APIEvent, now time.Time) models.EventRow {
	return models.EventRow{
		ID:       event.ID,
		Name:     event.Name,
		Venue:    event.Venue,
		Status:   event.Status,
		StartsAt: event.StartsAt,
		EndsAt:   event.EndsAt,
		URL:      event.URL,
		SyncedAt: now,
	}
}

// ---------------- ORDERS ----------------

// SyncEventOrders fetches and persists the orders of each given event, then
// recomputes the event's sales row. Events are processed concurrently; one
// event failing never aborts its peers.
func (s *Service) SyncEventOrders(ctx context.Context, eventIDs []int64) SyncStats {
	runID := uuid.NewString()[:8]
	stats := SyncStats{Processed: len(eventIDs)}

	errs := Run(ctx, len(eventIDs), ExecutorOptions{
		Concurrency: s.Concurrency,
		OnProgress:  s.progressLogger(runID, "orders"),
	}, func(ctx context.Context, i int) error {
		return s.syncOneEventOrders(ctx, eventIDs[i])
	})

	for i, err := range errs {
		if err != nil {
			s.Logger.Error("SYNC", fmt.Sprintf("event %d orders: %v", eventIDs[i], err))
			stats.Failed++
		} else {
			stats.Updated++
		}
	}

	s.Logger.LogSync(runID, "orders done: "+stats.String())
	return stats
}

func (s *Service) syncOneEventOrders(ctx context.Context, eventID int64) error {
	orders, err := s.API.ListEventOrders(ctx, eventID, "")
	if err != nil {
		return err
	}

	now := time.Now()
	rows := make([]models.OrderItemRow, 0, len(orders))
	for _, order := range orders {
		rows = append(rows, s.flattenOrder(order, now)...)
	}
	if err := s.DB.UpsertOrderItems(ctx, rows); err != nil {
		return fmt.Errorf("upsert order items: %w", err)
	}

	stored, err := s.loadEventOrderItems(ctx, eventID)
	if err != nil {
		return fmt.Errorf("load stored order items: %w", err)
	}

	sales := ComputeSales(eventID, stored, s.Classifier, now)
	if err := s.DB.UpsertEventSales(ctx, sales); err != nil {
		return fmt.Errorf("upsert sales: %w", err)
	}
	s.publish(kafka.TopicSalesComputed, fmt.Sprintf("%d", eventID), sales)

	return nil
}

// flattenOrder projects an API order into one persisted row per sale item.
// Serial order is kept exactly as parsed from the API payload.
func (s *Service) flattenOrder(order models.Order, now time.Time) []models.OrderItemRow {
	rows := make([]models.OrderItemRow, 0, len(order.Items))
	for _, item := range order.Items {
		serials := make([]string, 0, len(item.Tickets))
		for _, ticket := range item.Tickets {
			serials = append(serials, ticket.Serial)
		}

		bucket := s.Classifier.Classify(item.Name, item.Category, order.ReferralType, order.Gross)
		rows = append(rows, models.OrderItemRow{
			OrderID:      order.ID,
			OrderSaleID:  item.ID,
			EventID:      order.EventID,
			UserID:       order.UserID,
			Status:       order.Status,
			Name:         item.Name,
			Category:     item.Category,
			Gross:        order.Gross,
			Net:          order.Net,
			ReferralType: order.ReferralType,
			Quantity:     item.Quantity,
			Reporting:    string(bucket),
			Serials:      strings.Join(serials, ","),
			SyncedAt:     now,
		})
	}
	return rows
}

func (s *Service) loadEventOrderItems(ctx context.Context, eventID int64) ([]models.OrderItemRow, error) {
	var all []models.OrderItemRow
	for offset := 0; ; offset += s.PageSize {
		page, err := s.DB.SelectOrderItemsPage(ctx, eventID, offset, s.PageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < s.PageSize {
			return all, nil
		}
	}
}

// ---------------- ATTENDANCE ----------------

// SyncAttendance reconciles check-in state for one event: a per-serial
// attendance lookup fans out through the executor, per-order aggregates diff
// against stored rows, and only rows that actually changed get written.
func (s *Service) SyncAttendance(ctx context.Context, eventID int64) (SyncStats, error) {
	runID := uuid.NewString()[:8]
	stats := SyncStats{}

	rows, err := s.loadEventOrderItems(ctx, eventID)
	if err != nil {
		return stats, fmt.Errorf("load order items for event %d: %w", eventID, err)
	}

	var serials []string
	for i := range rows {
		serials = append(serials, rows[i].SerialList()...)
	}
	s.Logger.LogSync(runID, fmt.Sprintf("attendance: event %d, %d rows, %d serials", eventID, len(rows), len(serials)))

	results := make([]TicketAttendance, len(serials))
	errs := Run(ctx, len(serials), ExecutorOptions{
		Concurrency: s.Concurrency,
		OnProgress:  s.progressLogger(runID, "attendance"),
	}, func(ctx context.Context, i int) error {
		record, err := s.API.GetAttendance(ctx, eventID, serials[i])
		if err != nil {
			return err
		}
		results[i] = DeriveTicketAttendance(record)
		return nil
	})

	bySerial := make(map[string]TicketAttendance, len(serials))
	failedSerials := map[string]bool{}
	for i, err := range errs {
		if err != nil {
			s.Logger.Error("SYNC", fmt.Sprintf("attendance lookup %s: %v", serials[i], err))
			failedSerials[serials[i]] = true
			continue
		}
		bySerial[serials[i]] = results[i]
	}

	for i := range rows {
		row := &rows[i]
		rowSerials := row.SerialList()
		if len(rowSerials) == 0 {
			stats.Skipped++
			continue
		}
		stats.Processed++

		// A row with any failed lookup gets skipped rather than written from
		// incomplete state; the next pass picks it up.
		if anyFailed(rowSerials, failedSerials) {
			stats.Failed++
			continue
		}

		fresh := AggregateOrder(rowSerials, bySerial)
		if !AttendanceDiff(row, fresh) {
			stats.Skipped++
			continue
		}

		if err := s.DB.UpdateOrderAttendance(ctx, row.OrderID, row.OrderSaleID, fresh.State, fresh.CheckinCount, fresh.FirstCheckin); err != nil {
			s.Logger.Error("SYNC", fmt.Sprintf("update attendance order %d/%d: %v", row.OrderID, row.OrderSaleID, err))
			stats.Failed++
			continue
		}
		stats.Updated++
		s.publish(kafka.TopicOrderReconciled, fmt.Sprintf("%d", row.OrderID), map[string]interface{}{
			"order_id":      row.OrderID,
			"order_sale_id": row.OrderSaleID,
			"event_id":      eventID,
			"checkin_state": fresh.State,
			"checkin_count": fresh.CheckinCount,
		})
	}

	s.Logger.LogSync(runID, fmt.Sprintf("attendance done: event %d, %s", eventID, stats))
	return stats, nil
}

func anyFailed(serials []string, failed map[string]bool) bool {
	for _, serial := range serials {
		if failed[serial] {
			return true
		}
	}
	return false
}

// ---------------- USERS ----------------

// SyncUsers refreshes the given users' profiles and order history. Profiles
// already in the cache skip the upstream fetch; a truncated order history
// still refreshes the profile.
func (s *Service) SyncUsers(ctx context.Context, userIDs []int64) SyncStats {
	runID := uuid.NewString()[:8]
	stats := SyncStats{Processed: len(userIDs)}

	errs := Run(ctx, len(userIDs), ExecutorOptions{
		Concurrency: s.Concurrency,
		OnProgress:  s.progressLogger(runID, "users"),
	}, func(ctx context.Context, i int) error {
		return s.syncOneUser(ctx, userIDs[i])
	})

	for i, err := range errs {
		if err != nil {
			s.Logger.Error("SYNC", fmt.Sprintf("user %d: %v", userIDs[i], err))
			stats.Failed++
		} else {
			stats.Updated++
		}
	}

	s.Logger.LogSync(runID, "users done: "+stats.String())
	return stats
}

func (s *Service) syncOneUser(ctx context.Context, userID int64) error {
	var user *models.User
	if s.Cache != nil {
		cached, err := s.Cache.GetUser(ctx, userID)
		if err != nil {
			s.Logger.Warn("CACHE", fmt.Sprintf("user %d: %v", userID, err))
		} else {
			user = cached
		}
	}
	if user == nil {
		fetched, err := s.API.GetUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("fetch user: %w", err)
		}
		user = fetched
		if user != nil && s.Cache != nil {
			if err := s.Cache.PutUser(ctx, *user); err != nil {
				s.Logger.Warn("CACHE", fmt.Sprintf("store user %d: %v", userID, err))
			}
		}
	}

	orders, err := s.API.ListUserOrders(ctx, userID)
	if err != nil {
		return fmt.Errorf("list orders: %w", err)
	}

	now := time.Now()
	var rows []models.OrderItemRow
	var totalSpent float64
	for _, order := range orders {
		rows = append(rows, s.flattenOrder(order, now)...)
		if order.Status == OrderStatusComplete {
			totalSpent += order.Gross
		}
	}
	if err := s.DB.UpsertOrderItems(ctx, rows); err != nil {
		return fmt.Errorf("upsert order items: %w", err)
	}

	userRow := models.UserRow{
		UserID:      userID,
		OrdersCount: len(orders),
		TotalSpent:  totalSpent,
		SyncedAt:    now,
	}
	if user != nil {
		userRow.Email = user.Email
		userRow.FirstName = user.FirstName
		userRow.LastName = user.LastName
		userRow.Phone = user.Phone
	}
	return s.DB.UpsertUsers(ctx, []models.UserRow{userRow})
}

// ---------------- WEBHOOK FOLLOW-UPS ----------------

// RefreshEvent re-fetches one event after a webhook callback and upserts it.
// Returns false when the event no longer exists upstream.
func (s *Service) RefreshEvent(ctx context.Context, eventID int64) (bool, error) {
	event, err := s.API.GetEvent(ctx, eventID)
	if err != nil {
		return false, err
	}
	if event == nil {
		return false, nil
	}
	if err := s.DB.UpsertEvents(ctx, []models.EventRow{eventToRow(*event, time.Now())}); err != nil {
		return false, err
	}
	s.publish(kafka.TopicEventUpdated, fmt.Sprintf("%d", event.ID), *event)
	return true, nil
}

// RemoveEvent deletes one event row after an UNPUBLISH/REMOVED callback.
func (s *Service) RemoveEvent(ctx context.Context, eventID int64) error {
	if err := s.DB.DeleteEvent(ctx, eventID); err != nil {
		return err
	}
	s.publish(kafka.TopicEventRemoved, fmt.Sprintf("%d", eventID), map[string]int64{"event_id": eventID})
	return nil
}

// RefreshOrder re-fetches one order after a webhook callback and upserts its
// rows. Returns false when the order no longer exists upstream.
func (s *Service) RefreshOrder(ctx context.Context, orderID int64) (bool, error) {
	order, err := s.API.GetOrder(ctx, orderID)
	if err != nil {
		return false, err
	}
	if order == nil {
		return false, nil
	}
	rows := s.flattenOrder(*order, time.Now())
	if err := s.DB.UpsertOrderItems(ctx, rows); err != nil {
		return false, err
	}
	s.publish(kafka.TopicOrderReconciled, fmt.Sprintf("%d", order.ID), map[string]interface{}{
		"order_id": order.ID,
		"event_id": order.EventID,
		"status":   order.Status,
	})
	return true, nil
}

// ---------------- HELPERS ----------------

func (s *Service) publish(topic, key string, payload interface{}) {
	if s.Kafka == nil {
		return
	}
	value, err := json.Marshal(payload)
	if err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("marshal for %s: %v", topic, err))
		return
	}
	if err := s.Kafka.Publish(topic, key, value); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("publish to %s: %v", topic, err))
	}
}

func (s *Service) progressLogger(runID, label string) func(done, total int, elapsed time.Duration) {
	return func(done, total int, elapsed time.Duration) {
		if done != total && done%50 != 0 {
			return
		}
		remaining := time.Duration(0)
		if done > 0 {
			remaining = time.Duration(int64(elapsed) / int64(done) * int64(total-done))
		}
		s.Logger.LogSync(runID, fmt.Sprintf("%s: %d/%d (%.0f%%), eta %s",
			label, done, total, float64(done)/float64(total)*100, remaining.Round(time.Second)))
	}
}
