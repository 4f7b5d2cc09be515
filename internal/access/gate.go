// AngelaMos | 2026
// gate.go

package access

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/defect-tracker/internal/core"
)

type Action string

const (
	ActionViewList Action = "view_list"
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
	ActionComment  Action = "comment"
	ActionExport   Action = "export"
)

type Decision struct {
	Allowed bool
	Reason  string
	action  Action
	role    Role
}

func allow() Decision {
	return Decision{Allowed: true}
}

// Err returns nil for an allowed decision. A denial wraps
// core.ErrForbidden and names only the attempted action and role.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return fmt.Errorf(
		"%s denied for role %s: %s: %w",
		d.action,
		d.role,
		d.Reason,
		core.ErrForbidden,
	)
}

type Gate struct {
	logger *slog.Logger
}

func NewGate(logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{logger: logger}
}

// Authorize evaluates the defect action table. The first matching rule
// wins; anything not covered is denied.
func (g *Gate) Authorize(
	ctx context.Context,
	p Principal,
	action Action,
	target Ownership,
) Decision {
	d := decide(p, action, target)
	if d.Allowed {
		return d
	}

	d.action = action
	d.role = p.Role
	g.reportDenial(ctx, p, d)
	return d
}

func decide(p Principal, action Action, target Ownership) Decision {
	if p.ID == "" || !p.Role.Valid() {
		return Decision{Reason: "unauthenticated principal"}
	}

	switch action {
	case ActionDelete:
		if p.Role == RoleManager {
			return allow()
		}
		return Decision{Reason: "only managers may delete defects"}

	case ActionExport:
		if p.Role == RoleManager {
			return allow()
		}
		return Decision{Reason: "only managers may export defects"}

	case ActionUpdate:
		switch p.Role {
		case RoleManager:
			return allow()
		case RoleEngineer:
			if target.InvolvesUser(p.ID) {
				return allow()
			}
			return Decision{Reason: "engineers may only edit their own or assigned defects"}
		default:
			return Decision{Reason: "observers may not edit defects"}
		}

	case ActionCreate, ActionComment, ActionViewList:
		return allow()
	}

	return Decision{Reason: "unknown action"}
}

func (g *Gate) reportDenial(ctx context.Context, p Principal, d Decision) {
	g.logger.WarnContext(ctx, "access denied",
		"user_id", p.ID,
		"role", p.Role,
		"action", d.action,
		"reason", d.Reason,
	)

	core.AddSpanEvent(ctx, "access.denied",
		attribute.String("user_id", p.ID),
		attribute.String("role", string(p.Role)),
		attribute.String("action", string(d.action)),
	)
}
