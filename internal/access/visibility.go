// AngelaMos | 2026
// visibility.go

package access

// VisibilityScope returns the user id a listing must be narrowed to, or
// "" when the principal sees every non-deleted defect.
func VisibilityScope(p Principal) string {
	if p.Role == RoleEngineer {
		return p.ID
	}
	return ""
}

func CanView(p Principal, o Ownership) bool {
	switch p.Role {
	case RoleManager, RoleObserver:
		return true
	case RoleEngineer:
		return o.InvolvesUser(p.ID)
	}
	return false
}

// FilterVisible keeps the candidates the principal may see. Deletion is
// checked by the caller-supplied isDeleted so soft-deleted rows drop out
// for every role.
func FilterVisible[T any](
	p Principal,
	candidates []T,
	ownership func(T) Ownership,
	isDeleted func(T) bool,
) []T {
	visible := make([]T, 0, len(candidates))
	for _, c := range candidates {
		if isDeleted(c) {
			continue
		}
		if CanView(p, ownership(c)) {
			visible = append(visible, c)
		}
	}
	return visible
}
