// AngelaMos | 2026
// fields.go

package defect

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/defect-tracker/internal/core"
)

type Field string

const (
	FieldTitle       Field = "title"
	FieldDescription Field = "description"
	FieldStatus      Field = "status"
	FieldPriority    Field = "priority"
	FieldAssignedTo  Field = "assigned_to"
	FieldDueDate     Field = "due_date"
)

const maxTitleLength = 200

// fieldDef is one entry of the mutable field registry.
type fieldDef interface {
	key() Field
	diff(d *Defect, raw any) (*FieldChange, error)
}

type field[T any] struct {
	name   Field
	get    func(*Defect) T
	set    func(*Defect, T)
	parse  func(any) (T, error)
	equal  func(a, b T) bool
	format func(T) string
}

func (f field[T]) key() Field {
	return f.name
}

func (f field[T]) diff(d *Defect, raw any) (*FieldChange, error) {
	next, err := f.parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.name, err)
	}

	current := f.get(d)
	if f.equal(current, next) {
		return nil, nil
	}

	return &FieldChange{
		Field:    f.name,
		OldValue: f.format(current),
		NewValue: f.format(next),
		apply:    func(target *Defect) { f.set(target, next) },
	}, nil
}

// mutableFields lists every field an update may touch, in the order
// history entries are written. Keys outside this list are ignored.
var mutableFields = []fieldDef{
	field[string]{
		name:   FieldTitle,
		get:    func(d *Defect) string { return d.Title },
		set:    func(d *Defect, v string) { d.Title = v },
		parse:  parseTitle,
		equal:  equalComparable[string],
		format: identity,
	},
	field[string]{
		name:   FieldDescription,
		get:    func(d *Defect) string { return d.Description },
		set:    func(d *Defect, v string) { d.Description = v },
		parse:  parseDescription,
		equal:  equalComparable[string],
		format: identity,
	},
	field[Status]{
		name:   FieldStatus,
		get:    func(d *Defect) Status { return d.Status },
		set:    func(d *Defect, v Status) { d.Status = v },
		parse:  parseEnum(ParseStatus),
		equal:  equalComparable[Status],
		format: func(v Status) string { return string(v) },
	},
	field[Priority]{
		name:   FieldPriority,
		get:    func(d *Defect) Priority { return d.Priority },
		set:    func(d *Defect, v Priority) { d.Priority = v },
		parse:  parseEnum(ParsePriority),
		equal:  equalComparable[Priority],
		format: func(v Priority) string { return string(v) },
	},
	field[*string]{
		name:   FieldAssignedTo,
		get:    func(d *Defect) *string { return d.AssignedTo },
		set:    func(d *Defect, v *string) { d.AssignedTo = v },
		parse:  parseOptionalID,
		equal:  equalOptionalString,
		format: formatOptionalString,
	},
	field[*time.Time]{
		name:   FieldDueDate,
		get:    func(d *Defect) *time.Time { return d.DueDate },
		set:    func(d *Defect, v *time.Time) { d.DueDate = v },
		parse:  parseOptionalDate,
		equal:  equalOptionalTime,
		format: formatOptionalTime,
	},
}

func MutableFields() []Field {
	out := make([]Field, 0, len(mutableFields))
	for _, f := range mutableFields {
		out = append(out, f.key())
	}
	return out
}

func equalComparable[T comparable](a, b T) bool {
	return a == b
}

func identity(s string) string {
	return s
}

func invalid(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, core.ErrInvalidInput)...)
}

func asString(raw any) (string, error) {
	s, ok := raw.(string)
	if !ok {
		return "", invalid("expected a string, got %T", raw)
	}
	return s, nil
}

func parseTitle(raw any) (string, error) {
	s, err := asString(raw)
	if err != nil {
		return "", err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", invalid("must not be empty")
	}
	if len([]rune(s)) > maxTitleLength {
		return "", invalid("must be at most %d characters", maxTitleLength)
	}
	return s, nil
}

func parseDescription(raw any) (string, error) {
	s, err := asString(raw)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(s) == "" {
		return "", invalid("must not be empty")
	}
	return s, nil
}

func parseEnum[T ~string](parse func(string) (T, error)) func(any) (T, error) {
	return func(raw any) (T, error) {
		s, err := asString(raw)
		if err != nil {
			var zero T
			return zero, err
		}
		return parse(s)
	}
}

func parseOptionalID(raw any) (*string, error) {
	if raw == nil {
		return nil, nil
	}
	s, err := asString(raw)
	if err != nil {
		return nil, err
	}
	if s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, invalid("%q is not a valid id", s)
	}
	out := id.String()
	return &out, nil
}

// dueDateLayouts are tried in order; a bare date means midnight UTC.
var dueDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	time.DateOnly,
}

func parseOptionalDate(raw any) (*time.Time, error) {
	if raw == nil {
		return nil, nil
	}
	s, err := asString(raw)
	if err != nil {
		return nil, err
	}
	if s == "" {
		return nil, nil
	}
	for _, layout := range dueDateLayouts {
		if t, parseErr := time.Parse(layout, s); parseErr == nil {
			t = t.UTC().Truncate(time.Microsecond)
			return &t, nil
		}
	}
	return nil, invalid("%q is not an ISO 8601 date", s)
}

func equalOptionalString(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func formatOptionalString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func equalOptionalTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func formatOptionalTime(v *time.Time) string {
	if v == nil {
		return ""
	}
	return v.UTC().Format(time.RFC3339)
}
