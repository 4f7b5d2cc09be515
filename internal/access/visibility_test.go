// AngelaMos | 2026
// visibility_test.go

package access_test

import (
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/carterperez-dev/defect-tracker/internal/access"
)

type row struct {
	id        string
	createdBy string
	assignee  *string
	deleted   bool
}

func rowOwnership(r row) access.Ownership {
	return access.Ownership{CreatedBy: r.createdBy, AssignedTo: r.assignee}
}

func rowDeleted(r row) bool { return r.deleted }

func ids(rows []row) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.id)
	}
	return out
}

func TestFilterVisible(t *testing.T) {
	rows := []row{
		{id: "d1", createdBy: "m1", assignee: strPtr("e1")},
		{id: "d2", createdBy: "e1"},
		{id: "d3", createdBy: "e2"},
		{id: "d4", createdBy: "e1", deleted: true},
		{id: "d5", createdBy: "m1"},
	}

	t.Run("manager sees all non-deleted", func(t *testing.T) {
		p := access.Principal{ID: "m1", Role: access.RoleManager}
		got := access.FilterVisible(p, rows, rowOwnership, rowDeleted)
		gt.Value(t, ids(got)).Equal([]string{"d1", "d2", "d3", "d5"})
	})

	t.Run("observer sees all non-deleted", func(t *testing.T) {
		p := access.Principal{ID: "o1", Role: access.RoleObserver}
		got := access.FilterVisible(p, rows, rowOwnership, rowDeleted)
		gt.Value(t, ids(got)).Equal([]string{"d1", "d2", "d3", "d5"})
	})

	t.Run("engineer sees created or assigned only", func(t *testing.T) {
		p := access.Principal{ID: "e1", Role: access.RoleEngineer}
		got := access.FilterVisible(p, rows, rowOwnership, rowDeleted)
		gt.Value(t, ids(got)).Equal([]string{"d1", "d2"})
	})

	t.Run("unrelated engineer sees nothing", func(t *testing.T) {
		p := access.Principal{ID: "e7", Role: access.RoleEngineer}
		got := access.FilterVisible(p, rows, rowOwnership, rowDeleted)
		gt.Array(t, got).Length(0)
	})
}

func TestVisibilityScope(t *testing.T) {
	gt.Value(t, access.VisibilityScope(access.Principal{ID: "e1", Role: access.RoleEngineer})).Equal("e1")
	gt.Value(t, access.VisibilityScope(access.Principal{ID: "m1", Role: access.RoleManager})).Equal("")
	gt.Value(t, access.VisibilityScope(access.Principal{ID: "o1", Role: access.RoleObserver})).Equal("")
}

func TestParseRole(t *testing.T) {
	r, err := access.ParseRole("observer")
	gt.NoError(t, err).Required()
	gt.Value(t, r).Equal(access.RoleObserver)

	_, err = access.ParseRole("admin")
	gt.Value(t, err).NotNil()
}
