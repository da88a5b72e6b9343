package models

import (
	"strings"
	"time"
)

// Per-ticket attendance lifecycle states as reported by (or derived from) the
// upstream scanning system.
const (
	TicketStateInHand     = "IN_HAND"
	TicketStateCheckedIn  = "CHECKED_IN"
	TicketStateCheckedOut = "CHECKED_OUT"
	TicketStateVoid       = "VOID"
)

// Transaction actions appearing in a ticket's scan history.
const (
	ActionCheckedIn  = "CHECKED_IN"
	ActionCheckedOut = "CHECKED_OUT"
	ActionReentered  = "REENTERED"
	ActionVoid       = "VOID"
)

// AttendanceRecord is the upstream per-serial check-in snapshot. Some
// endpoints return the derived fields directly, others only the raw
// transaction history; when Transactions is non-empty it is the source of
// truth and the snapshot fields are recomputed by replay.
type AttendanceRecord struct {
	Serial       string              `json:"serial"`
	Status       string              `json:"status"`
	CheckinCount int                 `json:"checkin_count"`
	FirstCheckin *time.Time          `json:"first_checkin"`
	Transactions []TicketTransaction `json:"transactions"`
}

// TicketTransaction is one scan event in a ticket's history.
type TicketTransaction struct {
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

// SplitStates splits a comma-joined per-serial state string, preserving
// serial order. Empty input yields nil.
func SplitStates(joined string) []string {
	if joined == "" {
		return nil
	}
	return strings.Split(joined, ",")
}
