// AngelaMos | 2026
// fields_test.go

package defect

import (
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/carterperez-dev/defect-tracker/internal/core"
)

func sampleDefect() *Defect {
	assignee := "9a7b1c2d-0000-4000-8000-000000000001"
	return &Defect{
		ID:          "d-1",
		Title:       "Crack in slab",
		Description: "Near column C4",
		Priority:    PriorityHigh,
		Status:      StatusNew,
		ProjectID:   "p-1",
		CreatedBy:   "u-1",
		AssignedTo:  &assignee,
	}
}

func TestMutableFieldsOrder(t *testing.T) {
	gt.Value(t, MutableFields()).Equal([]Field{
		FieldTitle,
		FieldDescription,
		FieldStatus,
		FieldPriority,
		FieldAssignedTo,
		FieldDueDate,
	})
}

func TestDiffDoesNotMutate(t *testing.T) {
	d := sampleDefect()

	pending, err := Diff(d, Changes{"status": "closed", "title": "Crack fixed"})
	gt.NoError(t, err).Required()
	gt.Array(t, pending).Length(2)
	gt.Value(t, d.Status).Equal(StatusNew)
	gt.Value(t, d.Title).Equal("Crack in slab")
}

func TestDiffRejectsMalformedValues(t *testing.T) {
	testCases := []struct {
		name    string
		changes Changes
	}{
		{name: "empty title", changes: Changes{"title": "   "}},
		{name: "long title", changes: Changes{"title": strings.Repeat("x", 201)}},
		{name: "numeric title", changes: Changes{"title": 42.0}},
		{name: "empty description", changes: Changes{"description": ""}},
		{name: "unknown status", changes: Changes{"status": "done"}},
		{name: "unknown priority", changes: Changes{"priority": "urgent"}},
		{name: "assignee not an id", changes: Changes{"assigned_to": "bob"}},
		{name: "due date not a date", changes: Changes{"due_date": "tomorrow"}},
		{name: "null status", changes: Changes{"status": nil}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Diff(sampleDefect(), tc.changes)
			gt.Error(t, err).Is(core.ErrInvalidInput)
		})
	}
}

func TestDiffErrorNamesField(t *testing.T) {
	_, err := Diff(sampleDefect(), Changes{"priority": "urgent"})
	gt.Value(t, err).NotNil()
	gt.String(t, err.Error()).Contains("priority")
}

func TestDiffSkipsEqualValues(t *testing.T) {
	d := sampleDefect()

	pending, err := Diff(d, Changes{
		"title":       "  Crack in slab ",
		"status":      "new",
		"assigned_to": *d.AssignedTo,
		"due_date":    "",
	})
	gt.NoError(t, err).Required()
	gt.Array(t, pending).Length(0)
}

func TestParseOptionalDateLayouts(t *testing.T) {
	want := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

	testCases := []struct {
		input string
		want  time.Time
	}{
		{input: "2026-03-01T09:30:00Z", want: want},
		{input: "2026-03-01T11:30:00+02:00", want: want},
		{input: "2026-03-01T09:30:00", want: want},
		{input: "2026-03-01", want: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := parseOptionalDate(tc.input)
			gt.NoError(t, err).Required()
			gt.Value(t, got).NotNil()
			gt.Bool(t, got.Equal(tc.want)).True()
			gt.Value(t, got.Location()).Equal(time.UTC)
		})
	}
}

func TestApplyStampsOnlyOnChange(t *testing.T) {
	d := sampleDefect()
	at := time.Date(2026, 2, 2, 10, 0, 0, 0, time.UTC)

	gt.Array(t, Apply(d, nil, "u-2", at)).Length(0)
	gt.Bool(t, d.UpdatedAt.IsZero()).True()

	pending, err := Diff(d, Changes{"assigned_to": nil, "priority": "low"})
	gt.NoError(t, err).Required()

	entries := Apply(d, pending, "u-2", at)
	gt.Array(t, entries).Length(2).Required()
	gt.Value(t, entries[0].FieldName).Equal(FieldPriority)
	gt.Value(t, entries[1].FieldName).Equal(FieldAssignedTo)
	gt.Value(t, entries[1].NewValue).Equal("")
	gt.Value(t, entries[0].UserID).Equal("u-2")
	gt.Value(t, d.Priority).Equal(PriorityLow)
	gt.Value(t, d.AssignedTo).Nil()
	gt.Bool(t, d.UpdatedAt.Equal(at)).True()
	gt.String(t, entries[0].ID).NotEqual(entries[1].ID)
}
