package syncer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketsync/internal/models"
)

func TestPartitionEvents(t *testing.T) {
	start := time.Date(2026, 6, 1, 20, 0, 0, 0, time.UTC)
	stored := []models.EventRow{
		{ID: 2001, Name: "Friday Night", Venue: "Main Room", Status: "LIVE", StartsAt: start},
		{ID: 2002, Name: "Saturday", Venue: "Main Room", Status: "LIVE", StartsAt: start},
		{ID: 2003, Name: "Gone Show", Venue: "Main Room", Status: "LIVE", StartsAt: start},
	}
	fresh := []models.APIEvent{
		{ID: 2001, Name: "Friday Night (Renamed)", Venue: "Main Room", Status: "LIVE", StartsAt: start},
		{ID: 2002, Name: "Saturday", Venue: "Main Room", Status: "CANCELLED", StartsAt: start},
		{ID: 2004, Name: "Brand New", Venue: "Main Room", Status: "LIVE", StartsAt: start},
	}

	parts := PartitionEvents(stored, fresh, 1000)

	require.Len(t, parts.New, 1)
	assert.Equal(t, int64(2004), parts.New[0].ID)

	require.Len(t, parts.Updated, 1)
	assert.Equal(t, int64(2001), parts.Updated[0].ID)

	require.Len(t, parts.StatusChanged, 1)
	assert.Equal(t, int64(2002), parts.StatusChanged[0].ID)

	require.Len(t, parts.Removed, 1)
	assert.Equal(t, int64(2003), parts.Removed[0].ID)
}

func TestPartitionEventsProtectsCustomIDs(t *testing.T) {
	stored := []models.EventRow{
		{ID: 42, Name: "Hand-curated residency", Status: "LIVE"},
		{ID: 5000, Name: "Synced show", Status: "LIVE"},
	}

	parts := PartitionEvents(stored, nil, 1000)

	require.Len(t, parts.Removed, 1)
	assert.Equal(t, int64(5000), parts.Removed[0].ID)
}

func TestPartitionEventsUnchangedIsQuiet(t *testing.T) {
	start := time.Date(2026, 6, 1, 20, 0, 0, 0, time.UTC)
	stored := []models.EventRow{
		{ID: 2001, Name: "Friday Night", Venue: "Main Room", Status: "LIVE", StartsAt: start, URL: "https://old.example.com"},
	}
	fresh := []models.APIEvent{
		// URL drift is outside the comparable subset and must not fire a
		// write on its own.
		{ID: 2001, Name: "Friday Night", Venue: "Main Room", Status: "LIVE", StartsAt: start, URL: "https://new.example.com"},
	}

	parts := PartitionEvents(stored, fresh, 1000)
	assert.Empty(t, parts.New)
	assert.Empty(t, parts.Updated)
	assert.Empty(t, parts.StatusChanged)
	assert.Empty(t, parts.Removed)
}
