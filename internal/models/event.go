package models

import (
	"time"

	"github.com/uptrace/bun"
)

// APIEvent is the upstream API's view of an event.
type APIEvent struct {
	ID       int64     `json:"id"`
	Name     string    `json:"name"`
	Venue    string    `json:"venue"`
	Status   string    `json:"status"`
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
	URL      string    `json:"url"`
}

type EventRow struct {
	bun.BaseModel `bun:"table:events"`

	ID        int64     `bun:"id,pk"`
	Name      string    `bun:"name,notnull"`
	Venue     string    `bun:"venue"`
	Status    string    `bun:"status"`
	StartsAt  time.Time `bun:"starts_at"`
	EndsAt    time.Time `bun:"ends_at"`
	URL       string    `bun:"url"`
	SyncedAt  time.Time `bun:"synced_at"`
	CreatedAt time.Time `bun:"created_at"`
}

// EventSalesRow is the per-event reporting rollup, recomputed after each order
// sync so report reads never re-aggregate.
type EventSalesRow struct {
	bun.BaseModel `bun:"table:event_sales"`

	EventID        int64     `bun:"event_id,pk"`
	Gross          float64   `bun:"gross"`
	Net            float64   `bun:"net"`
	GAPaid         int       `bun:"ga_paid"`
	VIPPaid        int       `bun:"vip_paid"`
	CompGA         int       `bun:"comp_ga"`
	CompVIP        int       `bun:"comp_vip"`
	FreeGA         int       `bun:"free_ga"`
	FreeVIP        int       `bun:"free_vip"`
	DoorGA         int       `bun:"door_ga"`
	DoorVIP        int       `bun:"door_vip"`
	Guestlist      int       `bun:"physical_guestlist"`
	TablePrepaid   int       `bun:"physical_table_prepaid"`
	TableDoor      int       `bun:"physical_table_door"`
	TablesRSVP     int       `bun:"tables_rsvp"`
	Coatcheck      int       `bun:"coatcheck"`
	Transferred    int       `bun:"transferred"`
	Promoter       int       `bun:"promoter"`
	Uncategorized  int       `bun:"uncategorized"`
	UniqueCheckins int       `bun:"unique_checkins"`
	ComputedAt     time.Time `bun:"computed_at"`
}
