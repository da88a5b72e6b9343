package syncer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketsync/internal/models"
)

func ts(minute int) time.Time {
	return time.Date(2026, 5, 1, 22, minute, 0, 0, time.UTC)
}

func TestReplayCountsReentries(t *testing.T) {
	t1, t2, t3 := ts(0), ts(30), ts(45)
	result := ReplayTransactions([]models.TicketTransaction{
		{Action: models.ActionCheckedIn, Timestamp: t1},
		{Action: models.ActionCheckedOut, Timestamp: t2},
		{Action: models.ActionReentered, Timestamp: t3},
	})

	assert.Equal(t, models.TicketStateCheckedIn, result.State)
	assert.Equal(t, 2, result.CheckinCount)
	require.NotNil(t, result.FirstCheckin)
	assert.True(t, result.FirstCheckin.Equal(t1))
}

func TestReplaySortsOutOfOrderEvents(t *testing.T) {
	result := ReplayTransactions([]models.TicketTransaction{
		{Action: models.ActionReentered, Timestamp: ts(45)},
		{Action: models.ActionCheckedIn, Timestamp: ts(0)},
		{Action: models.ActionCheckedOut, Timestamp: ts(30)},
	})

	assert.Equal(t, models.TicketStateCheckedIn, result.State)
	assert.Equal(t, 2, result.CheckinCount)
	assert.True(t, result.FirstCheckin.Equal(ts(0)))
}

func TestReplayVoidIsTerminal(t *testing.T) {
	result := ReplayTransactions([]models.TicketTransaction{
		{Action: models.ActionCheckedIn, Timestamp: ts(0)},
		{Action: models.ActionVoid, Timestamp: ts(10)},
		// Later events must be consumed without effect or error.
		{Action: models.ActionCheckedIn, Timestamp: ts(20)},
		{Action: models.ActionCheckedOut, Timestamp: ts(25)},
	})

	assert.Equal(t, models.TicketStateVoid, result.State)
	assert.Equal(t, 1, result.CheckinCount)
	assert.True(t, result.FirstCheckin.Equal(ts(0)))
}

func TestReplayEmptyLogIsInHand(t *testing.T) {
	result := ReplayTransactions(nil)
	assert.Equal(t, models.TicketStateInHand, result.State)
	assert.Equal(t, 0, result.CheckinCount)
	assert.Nil(t, result.FirstCheckin)
}

func TestDeriveUsesTransactionsOverSnapshot(t *testing.T) {
	first := ts(0)
	record := &models.AttendanceRecord{
		Status:       models.TicketStateInHand, // stale snapshot
		CheckinCount: 0,
		Transactions: []models.TicketTransaction{
			{Action: models.ActionCheckedIn, Timestamp: first},
		},
	}

	result := DeriveTicketAttendance(record)
	assert.Equal(t, models.TicketStateCheckedIn, result.State)
	assert.Equal(t, 1, result.CheckinCount)
}

func TestDeriveNilRecordMeansNeverScanned(t *testing.T) {
	result := DeriveTicketAttendance(nil)
	assert.Equal(t, models.TicketStateInHand, result.State)
	assert.Equal(t, 0, result.CheckinCount)
	assert.Nil(t, result.FirstCheckin)
}

func TestAggregateOrderPreservesSerialOrder(t *testing.T) {
	first := ts(5)
	earlier := ts(1)

	agg := AggregateOrder([]string{"S1", "S2", "S3"}, map[string]TicketAttendance{
		"S1": {State: models.TicketStateCheckedIn, CheckinCount: 1, FirstCheckin: &first},
		"S3": {State: models.TicketStateCheckedOut, CheckinCount: 2, FirstCheckin: &earlier},
	})

	assert.Equal(t, "CHECKED_IN,IN_HAND,CHECKED_OUT", agg.State)
	assert.Equal(t, 3, agg.CheckinCount)
	require.NotNil(t, agg.FirstCheckin)
	assert.True(t, agg.FirstCheckin.Equal(earlier))
}

func TestAttendanceDiffNoChangeMeansNoWrite(t *testing.T) {
	first := ts(0)
	row := &models.OrderItemRow{
		CheckinState: "CHECKED_IN,IN_HAND",
		CheckinCount: 1,
		FirstCheckin: &first,
	}

	fresh := OrderAttendance{
		State:        "CHECKED_IN,IN_HAND",
		CheckinCount: 1,
		FirstCheckin: &first,
	}

	assert.False(t, AttendanceDiff(row, fresh))
}

func TestAttendanceDiffIgnoresTimestampFormatDrift(t *testing.T) {
	utc := ts(0)
	elsewhere := utc.In(time.FixedZone("EST", -5*3600))

	row := &models.OrderItemRow{CheckinState: "CHECKED_IN", CheckinCount: 1, FirstCheckin: &elsewhere}
	fresh := OrderAttendance{State: "CHECKED_IN", CheckinCount: 1, FirstCheckin: &utc}

	assert.False(t, AttendanceDiff(row, fresh))
}

func TestAttendanceDiffDetectsEachField(t *testing.T) {
	first := ts(0)
	later := ts(9)
	row := &models.OrderItemRow{CheckinState: "CHECKED_IN", CheckinCount: 1, FirstCheckin: &first}

	assert.True(t, AttendanceDiff(row, OrderAttendance{State: "CHECKED_OUT", CheckinCount: 1, FirstCheckin: &first}))
	assert.True(t, AttendanceDiff(row, OrderAttendance{State: "CHECKED_IN", CheckinCount: 2, FirstCheckin: &first}))
	assert.True(t, AttendanceDiff(row, OrderAttendance{State: "CHECKED_IN", CheckinCount: 1, FirstCheckin: &later}))
	assert.True(t, AttendanceDiff(row, OrderAttendance{State: "CHECKED_IN", CheckinCount: 1, FirstCheckin: nil}))
}
