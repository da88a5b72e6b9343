package models

import (
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// Order is the upstream API's view of a transaction. Owned by the ticketing
// platform; this service only reads it.
type Order struct {
	ID           int64      `json:"id"`
	EventID      int64      `json:"event_id"`
	UserID       int64      `json:"user_id"`
	Status       string     `json:"status"`
	Gross        float64    `json:"gross"`
	Net          float64    `json:"net"`
	ReferralType string     `json:"referral_type"`
	CreatedAt    time.Time  `json:"created_at"`
	Items        []SaleItem `json:"sale_items"`
}

// SaleItem is one line item within an order. Name is free text authored by the
// producer, Category is producer-controlled and not a closed set.
type SaleItem struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name"`
	Category string   `json:"category"`
	Price    float64  `json:"price"`
	Quantity int      `json:"quantity"`
	Tickets  []Ticket `json:"tickets"`
}

// Ticket is a single admission unit. Serial is unique within an event and is
// the join key against attendance state.
type Ticket struct {
	Serial string `json:"serial"`
	Status string `json:"status"`
}

// OrderItemRow is the persisted projection of one sale item of one order.
// Serials and CheckinState are comma-joined, one token per ticket, and keep
// the serial list order as parsed. That ordering is a contract, not an
// accident: token i of CheckinState always belongs to serial i.
type OrderItemRow struct {
	bun.BaseModel `bun:"table:order_items"`

	OrderID      int64      `bun:"order_id,pk"`
	OrderSaleID  int64      `bun:"order_sale_id,pk"`
	EventID      int64      `bun:"event_id"`
	UserID       int64      `bun:"user_id"`
	Status       string     `bun:"status"`
	Name         string     `bun:"name"`
	Category     string     `bun:"category"`
	Gross        float64    `bun:"gross"`
	Net          float64    `bun:"net"`
	ReferralType string     `bun:"referral_type"`
	Quantity     int        `bun:"quantity"`
	Reporting    string     `bun:"reporting_category"`
	Serials      string     `bun:"serials"`
	CheckinState string     `bun:"checkin_state"`
	CheckinCount int        `bun:"checkin_count"`
	FirstCheckin *time.Time `bun:"first_checkin,nullzero"`
	SyncedAt     time.Time  `bun:"synced_at"`
}

// SerialList splits the stored comma-joined serials, preserving order.
func (r *OrderItemRow) SerialList() []string {
	if r.Serials == "" {
		return nil
	}
	return strings.Split(r.Serials, ",")
}
