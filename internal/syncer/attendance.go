package syncer

import (
	"sort"
	"strings"
	"time"

	"ticketsync/internal/models"
)

// TicketAttendance is the derived per-serial check-in state.
type TicketAttendance struct {
	State        string
	CheckinCount int
	FirstCheckin *time.Time
}

// OrderAttendance is the per-order aggregate written back to the store.
type OrderAttendance struct {
	// State is one token per serial, comma-joined, in serial list order.
	State string
	// CheckinCount sums all serials' counts; re-entries increment it.
	CheckinCount int
	// FirstCheckin is the earliest first check-in across serials, nil if no
	// serial has checked in.
	FirstCheckin *time.Time
}

// DeriveTicketAttendance turns an upstream attendance record into the derived
// triple. A nil record means the serial has never been scanned. When the
// record carries a transaction history, the history is replayed and wins over
// the snapshot fields.
func DeriveTicketAttendance(record *models.AttendanceRecord) TicketAttendance {
	if record == nil {
		return TicketAttendance{State: models.TicketStateInHand}
	}
	if len(record.Transactions) > 0 {
		return ReplayTransactions(record.Transactions)
	}

	state := record.Status
	if state == "" {
		state = models.TicketStateInHand
	}
	return TicketAttendance{
		State:        state,
		CheckinCount: record.CheckinCount,
		FirstCheckin: record.FirstCheckin,
	}
}

// ReplayTransactions folds a scan history into the derived triple. Events are
// sorted chronologically before folding. The count increments once per
// CHECKED_IN or REENTERED; the first check-in timestamp is set once and never
// overwritten. VOID is terminal: later events are consumed without effect.
func ReplayTransactions(transactions []models.TicketTransaction) TicketAttendance {
	sorted := make([]models.TicketTransaction, len(transactions))
	copy(sorted, transactions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	result := TicketAttendance{State: models.TicketStateInHand}
	for _, tx := range sorted {
		if result.State == models.TicketStateVoid {
			continue
		}
		switch tx.Action {
		case models.ActionCheckedIn, models.ActionReentered:
			result.State = models.TicketStateCheckedIn
			result.CheckinCount++
			if result.FirstCheckin == nil {
				ts := tx.Timestamp
				result.FirstCheckin = &ts
			}
		case models.ActionCheckedOut:
			result.State = models.TicketStateCheckedOut
		case models.ActionVoid:
			result.State = models.TicketStateVoid
		}
	}
	return result
}

// AggregateOrder combines per-serial states into the order-level triple.
// Serial order is the stored serial list order; token i of the joined state
// string belongs to serial i.
func AggregateOrder(serials []string, bySerial map[string]TicketAttendance) OrderAttendance {
	states := make([]string, len(serials))
	agg := OrderAttendance{}

	for i, serial := range serials {
		ticket, ok := bySerial[serial]
		if !ok {
			ticket = TicketAttendance{State: models.TicketStateInHand}
		}
		states[i] = ticket.State
		agg.CheckinCount += ticket.CheckinCount
		if ticket.FirstCheckin != nil {
			if agg.FirstCheckin == nil || ticket.FirstCheckin.Before(*agg.FirstCheckin) {
				agg.FirstCheckin = ticket.FirstCheckin
			}
		}
	}

	agg.State = strings.Join(states, ",")
	return agg
}

// AttendanceDiff decides whether a freshly computed aggregate differs from
// the stored row. Timestamps compare at RFC3339 precision so format drift in
// stored values never manufactures a write.
func AttendanceDiff(row *models.OrderItemRow, fresh OrderAttendance) bool {
	if row.CheckinState != fresh.State {
		return true
	}
	if row.CheckinCount != fresh.CheckinCount {
		return true
	}
	return normalizeTime(row.FirstCheckin) != normalizeTime(fresh.FirstCheckin)
}

func normalizeTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
