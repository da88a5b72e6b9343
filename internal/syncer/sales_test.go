package syncer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ticketsync/internal/models"
)

func salesFixture() []models.OrderItemRow {
	return []models.OrderItemRow{
		{OrderID: 1, OrderSaleID: 1, Status: "COMPLETE", Name: "GA Standard", Category: "GA", Gross: 50, Net: 45, Quantity: 2, CheckinState: "CHECKED_IN,IN_HAND"},
		{OrderID: 1, OrderSaleID: 2, Status: "COMPLETE", Name: "Vestiaire", Category: "OUTLET", Gross: 50, Net: 45, Quantity: 1},
		{OrderID: 2, OrderSaleID: 3, Status: "COMPLETE", Name: "COMP - VIP", Category: "VIP", ReferralType: "BACKSTAGE", Gross: 0, Net: 0, Quantity: 1, CheckinState: "CHECKED_OUT"},
		{OrderID: 3, OrderSaleID: 4, Status: "PENDING", Name: "GA Standard", Category: "GA", Gross: 25, Net: 22, Quantity: 1},
	}
}

func TestComputeSalesBuckets(t *testing.T) {
	now := time.Date(2026, 5, 2, 12, 0, 0, 0, time.UTC)
	sales := ComputeSales(42, salesFixture(), NewClassifier(DefaultRules()), now)

	assert.Equal(t, int64(42), sales.EventID)
	// Order 1's gross counts once even though it has two items; the pending
	// order 3 does not count at all.
	assert.Equal(t, 50.0, sales.Gross)
	assert.Equal(t, 45.0, sales.Net)
	assert.Equal(t, 2, sales.GAPaid)
	assert.Equal(t, 1, sales.Coatcheck)
	assert.Equal(t, 1, sales.CompVIP)
	assert.Equal(t, 0, sales.VIPPaid)
	// One checked-in and one checked-out ticket, each counted once.
	assert.Equal(t, 2, sales.UniqueCheckins)
}

func TestComputeSalesIsIdempotent(t *testing.T) {
	now := time.Date(2026, 5, 2, 12, 0, 0, 0, time.UTC)
	rows := salesFixture()
	classifier := NewClassifier(DefaultRules())

	first := ComputeSales(42, rows, classifier, now)
	second := ComputeSales(42, rows, classifier, now)
	assert.Equal(t, first, second)
}

func TestComputeSalesEmptyInput(t *testing.T) {
	sales := ComputeSales(42, nil, NewClassifier(DefaultRules()), time.Now())
	assert.Equal(t, int64(42), sales.EventID)
	assert.Equal(t, 0.0, sales.Gross)
	assert.Equal(t, 0, sales.GAPaid)
	assert.Equal(t, 0, sales.UniqueCheckins)
}
