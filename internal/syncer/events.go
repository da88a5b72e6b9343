package syncer

import (
	"ticketsync/internal/models"
)

// EventPartitions is the result of diffing a fresh upstream event fetch
// against the persisted set.
type EventPartitions struct {
	New           []models.APIEvent
	Updated       []models.APIEvent
	StatusChanged []models.APIEvent
	Removed       []models.EventRow
}

// PartitionEvents diffs fresh against stored. Equality for "updated" covers a
// fixed comparable subset (name, venue, start, end); other fields may drift
// without firing a write but ride along in the payload when one does. Status
// changes get their own partition so callers can publish them distinctly.
//
// Events with an ID at or below customIDMax are manually curated, never came
// from the upstream fetch, and are never classified as removed.
func PartitionEvents(stored []models.EventRow, fresh []models.APIEvent, customIDMax int64) EventPartitions {
	storedByID := make(map[int64]models.EventRow, len(stored))
	for _, row := range stored {
		storedByID[row.ID] = row
	}

	freshIDs := make(map[int64]bool, len(fresh))
	parts := EventPartitions{}

	for _, event := range fresh {
		freshIDs[event.ID] = true

		row, ok := storedByID[event.ID]
		if !ok {
			parts.New = append(parts.New, event)
			continue
		}
		if row.Status != event.Status {
			parts.StatusChanged = append(parts.StatusChanged, event)
			continue
		}
		if eventChanged(row, event) {
			parts.Updated = append(parts.Updated, event)
		}
	}

	for _, row := range stored {
		if freshIDs[row.ID] {
			continue
		}
		if row.ID <= customIDMax {
			continue
		}
		parts.Removed = append(parts.Removed, row)
	}

	return parts
}

func eventChanged(row models.EventRow, event models.APIEvent) bool {
	return row.Name != event.Name ||
		row.Venue != event.Venue ||
		!row.StartsAt.Equal(event.StartsAt) ||
		!row.EndsAt.Equal(event.EndsAt)
}
