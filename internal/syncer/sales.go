package syncer

import (
	"time"

	"ticketsync/internal/models"
)

// OrderStatusComplete is the only order status that counts toward sales.
const OrderStatusComplete = "COMPLETE"

// ComputeSales rolls an event's stored order items into the per-event sales
// row. Only COMPLETE orders qualify; gross/net sum over every qualifying
// order regardless of bucket. Pure function of its input: rerunning on the
// same rows yields an identical row (ComputedAt excepted, stamped by the
// caller's clock).
func ComputeSales(eventID int64, rows []models.OrderItemRow, classifier *Classifier, now time.Time) models.EventSalesRow {
	sales := models.EventSalesRow{EventID: eventID, ComputedAt: now}

	seenOrders := map[int64]bool{}
	for _, row := range rows {
		if row.Status != OrderStatusComplete {
			continue
		}

		if !seenOrders[row.OrderID] {
			seenOrders[row.OrderID] = true
			sales.Gross += row.Gross
			sales.Net += row.Net
		}

		bucket := classifier.Classify(row.Name, row.Category, row.ReferralType, row.Gross)
		addToBucket(&sales, bucket, row.Quantity)

		// Unique check-ins count each ticket once, however many times it
		// re-entered.
		for _, state := range models.SplitStates(row.CheckinState) {
			if state == models.TicketStateCheckedIn || state == models.TicketStateCheckedOut {
				sales.UniqueCheckins++
			}
		}
	}

	return sales
}

func addToBucket(sales *models.EventSalesRow, bucket models.ReportingCategory, quantity int) {
	switch bucket {
	case models.CategoryGAPaid:
		sales.GAPaid += quantity
	case models.CategoryVIPPaid:
		sales.VIPPaid += quantity
	case models.CategoryCompGA:
		sales.CompGA += quantity
	case models.CategoryCompVIP:
		sales.CompVIP += quantity
	case models.CategoryFreeGA:
		sales.FreeGA += quantity
	case models.CategoryFreeVIP:
		sales.FreeVIP += quantity
	case models.CategoryDoorGA:
		sales.DoorGA += quantity
	case models.CategoryDoorVIP:
		sales.DoorVIP += quantity
	case models.CategoryPhysicalGuestlist:
		sales.Guestlist += quantity
	case models.CategoryPhysicalTablePre:
		sales.TablePrepaid += quantity
	case models.CategoryPhysicalTableDoor:
		sales.TableDoor += quantity
	case models.CategoryTablesRSVP:
		sales.TablesRSVP += quantity
	case models.CategoryCoatcheck:
		sales.Coatcheck += quantity
	case models.CategoryTransferred:
		sales.Transferred += quantity
	case models.CategoryPromoter:
		sales.Promoter += quantity
	default:
		sales.Uncategorized += quantity
	}
}
