// AngelaMos | 2026
// mutation.go

package defect

import (
	"time"

	"github.com/google/uuid"
)

// Changes maps a field name to its requested value as decoded from JSON.
// A nil value clears an optional field.
type Changes map[string]any

// FieldChange is a validated pending assignment for one field whose value
// differs from the current state.
type FieldChange struct {
	Field    Field
	OldValue string
	NewValue string
	apply    func(*Defect)
}

// Diff validates every recognised field in changes against d and returns
// the ones that would actually change. d is not modified, so a validation
// error leaves nothing half-applied.
func Diff(d *Defect, changes Changes) ([]FieldChange, error) {
	var pending []FieldChange

	for _, f := range mutableFields {
		raw, ok := changes[string(f.key())]
		if !ok {
			continue
		}

		change, err := f.diff(d, raw)
		if err != nil {
			return nil, err
		}
		if change != nil {
			pending = append(pending, *change)
		}
	}

	return pending, nil
}

// Apply assigns the pending values to d and returns one history entry per
// change. updated_at is stamped only when something changed.
func Apply(
	d *Defect,
	pending []FieldChange,
	actorID string,
	at time.Time,
) []HistoryEntry {
	if len(pending) == 0 {
		return nil
	}

	entries := make([]HistoryEntry, 0, len(pending))
	for _, c := range pending {
		c.apply(d)
		entries = append(entries, HistoryEntry{
			ID:        uuid.New().String(),
			DefectID:  d.ID,
			UserID:    actorID,
			FieldName: c.Field,
			OldValue:  c.OldValue,
			NewValue:  c.NewValue,
			ChangedAt: at,
		})
	}

	d.UpdatedAt = at
	return entries
}
