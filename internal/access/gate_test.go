// AngelaMos | 2026
// gate_test.go

package access_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/carterperez-dev/defect-tracker/internal/access"
	"github.com/carterperez-dev/defect-tracker/internal/core"
)

func strPtr(s string) *string { return &s }

func newGate(buf *bytes.Buffer) *access.Gate {
	return access.NewGate(slog.New(slog.NewTextHandler(buf, nil)))
}

func TestGate_Authorize(t *testing.T) {
	ctx := context.Background()

	manager := access.Principal{ID: "m1", Role: access.RoleManager}
	observer := access.Principal{ID: "o1", Role: access.RoleObserver}
	creator := access.Principal{ID: "e1", Role: access.RoleEngineer}
	assignee := access.Principal{ID: "e2", Role: access.RoleEngineer}
	stranger := access.Principal{ID: "e3", Role: access.RoleEngineer}

	target := access.Ownership{CreatedBy: "e1", AssignedTo: strPtr("e2")}

	tests := []struct {
		name    string
		p       access.Principal
		action  access.Action
		allowed bool
	}{
		{"manager deletes", manager, access.ActionDelete, true},
		{"engineer creator cannot delete", creator, access.ActionDelete, false},
		{"observer cannot delete", observer, access.ActionDelete, false},

		{"manager exports", manager, access.ActionExport, true},
		{"engineer cannot export", creator, access.ActionExport, false},
		{"observer cannot export", observer, access.ActionExport, false},

		{"manager updates", manager, access.ActionUpdate, true},
		{"creator updates", creator, access.ActionUpdate, true},
		{"assignee updates", assignee, access.ActionUpdate, true},
		{"unrelated engineer cannot update", stranger, access.ActionUpdate, false},
		{"observer cannot update", observer, access.ActionUpdate, false},

		{"observer creates", observer, access.ActionCreate, true},
		{"engineer creates", stranger, access.ActionCreate, true},
		{"observer comments", observer, access.ActionComment, true},
		{"unrelated engineer comments", stranger, access.ActionComment, true},

		{"observer lists", observer, access.ActionViewList, true},
		{"engineer lists", stranger, access.ActionViewList, true},

		{"unknown action", manager, access.Action("archive"), false},
		{"missing identity", access.Principal{Role: access.RoleManager}, access.ActionCreate, false},
		{"unknown role", access.Principal{ID: "x", Role: "admin"}, access.ActionCreate, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			d := newGate(&buf).Authorize(ctx, tt.p, tt.action, target)

			gt.Value(t, d.Allowed).Equal(tt.allowed)
			if tt.allowed {
				gt.NoError(t, d.Err())
				gt.Value(t, buf.Len()).Equal(0)
				return
			}
			gt.Error(t, d.Err()).Is(core.ErrForbidden)
			gt.String(t, buf.String()).Contains("access denied")
		})
	}
}

func TestGate_UpdateDeniedForUninvolvedEngineers(t *testing.T) {
	var buf bytes.Buffer
	gate := newGate(&buf)
	p := access.Principal{ID: "e9", Role: access.RoleEngineer}

	targets := []access.Ownership{
		{CreatedBy: "e1"},
		{CreatedBy: "e1", AssignedTo: strPtr("e2")},
		{CreatedBy: "m1", AssignedTo: strPtr("")},
	}

	for _, target := range targets {
		d := gate.Authorize(context.Background(), p, access.ActionUpdate, target)
		gt.Bool(t, d.Allowed).False()
	}
}

func TestGate_DenialReportNamesActorActionAndRole(t *testing.T) {
	var buf bytes.Buffer
	gate := newGate(&buf)
	p := access.Principal{ID: "o1", Role: access.RoleObserver}

	d := gate.Authorize(context.Background(), p, access.ActionUpdate, access.Ownership{CreatedBy: "e1"})

	gt.Bool(t, d.Allowed).False()
	gt.String(t, buf.String()).Contains("user_id=o1")
	gt.String(t, buf.String()).Contains("role=observer")
	gt.String(t, buf.String()).Contains("action=update")

	msg := d.Err().Error()
	gt.String(t, msg).Contains("update")
	gt.String(t, msg).Contains("observer")
	gt.Bool(t, bytes.Contains([]byte(msg), []byte("e1"))).False()
}
