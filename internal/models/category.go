package models

// ReportingCategory is the closed set of buckets a sale item can land in.
// Every classified ticket gets exactly one.
type ReportingCategory string

const (
	CategoryGAPaid              ReportingCategory = "GA_PAID"
	CategoryVIPPaid             ReportingCategory = "VIP_PAID"
	CategoryCompGA              ReportingCategory = "COMP_GA"
	CategoryCompVIP             ReportingCategory = "COMP_VIP"
	CategoryFreeGA              ReportingCategory = "FREE_GA"
	CategoryFreeVIP             ReportingCategory = "FREE_VIP"
	CategoryDoorGA              ReportingCategory = "DOOR_GA"
	CategoryDoorVIP             ReportingCategory = "DOOR_VIP"
	CategoryPhysicalGuestlist   ReportingCategory = "PHYSICAL_GUESTLIST"
	CategoryPhysicalTablePre    ReportingCategory = "PHYSICAL_TABLE_PREPAID"
	CategoryPhysicalTableDoor   ReportingCategory = "PHYSICAL_TABLE_DOOR"
	CategoryTablesRSVP          ReportingCategory = "TABLES_RSVP"
	CategoryCoatcheck           ReportingCategory = "COATCHECK"
	CategoryTransferred         ReportingCategory = "TRANSFERRED"
	CategoryPromoter            ReportingCategory = "PROMOTER"
	CategoryUncategorized       ReportingCategory = "UNCATEGORIZED"
)

// AllReportingCategories lists every bucket, in report column order.
var AllReportingCategories = []ReportingCategory{
	CategoryGAPaid,
	CategoryVIPPaid,
	CategoryCompGA,
	CategoryCompVIP,
	CategoryFreeGA,
	CategoryFreeVIP,
	CategoryDoorGA,
	CategoryDoorVIP,
	CategoryPhysicalGuestlist,
	CategoryPhysicalTablePre,
	CategoryPhysicalTableDoor,
	CategoryTablesRSVP,
	CategoryCoatcheck,
	CategoryTransferred,
	CategoryPromoter,
	CategoryUncategorized,
}
