// AngelaMos | 2026
// service_test.go

package user

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/carterperez-dev/defect-tracker/internal/access"
	"github.com/carterperez-dev/defect-tracker/internal/core"
)

type memoryRepository struct {
	mu    sync.Mutex
	users map[string]User
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{users: make(map[string]User)}
}

func (r *memoryRepository) Create(ctx context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email && !existing.IsDeleted() {
			return fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
	}
	r.users[u.ID] = *u
	return nil
}

func (r *memoryRepository) GetByID(ctx context.Context, id string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || u.IsDeleted() {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	return &u, nil
}

func (r *memoryRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email && !u.IsDeleted() {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("get user by email: %w", core.ErrNotFound)
}

func (r *memoryRepository) UpdateFullName(ctx context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return fmt.Errorf("update user: %w", core.ErrNotFound)
	}
	r.users[u.ID] = *u
	return nil
}

func (r *memoryRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return fmt.Errorf("update password: %w", core.ErrNotFound)
	}
	u.PasswordHash = passwordHash
	r.users[id] = u
	return nil
}

func (r *memoryRepository) ListActive(ctx context.Context, role string) ([]User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []User{}
	for _, u := range r.users {
		if u.IsDeleted() || (role != "" && u.Role != role) {
			continue
		}
		out = append(out, User{ID: u.ID, FullName: u.FullName, Role: u.Role})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

func TestCreateNormalizesEmailAndRole(t *testing.T) {
	svc := NewService(newMemoryRepository())
	ctx := context.Background()

	info, err := svc.Create(ctx, " Site.Lead@Example.COM ", "hash", "Site Lead", "manager")
	gt.NoError(t, err).Required()
	gt.Value(t, info.Email).Equal("site.lead@example.com")
	gt.Value(t, info.Role).Equal("manager")

	found, err := svc.GetByEmail(ctx, "SITE.LEAD@example.com")
	gt.NoError(t, err).Required()
	gt.Value(t, found.ID).Equal(info.ID)

	_, err = svc.Create(ctx, "site.lead@example.com", "hash", "Copy", "engineer")
	gt.Error(t, err).Is(core.ErrDuplicateKey)

	_, err = svc.Create(ctx, "root@example.com", "hash", "Root", "admin")
	gt.Error(t, err).Is(core.ErrInvalidInput)
}

func TestUpdateMe(t *testing.T) {
	svc := NewService(newMemoryRepository())
	ctx := context.Background()

	info, err := svc.Create(ctx, "eng@example.com", "hash", "Eng", "engineer")
	gt.NoError(t, err).Required()

	name := "  Engineer One "
	updated, err := svc.UpdateMe(ctx, info.ID, UpdateProfileRequest{FullName: &name})
	gt.NoError(t, err).Required()
	gt.Value(t, updated.FullName).Equal("Engineer One")
	gt.Value(t, updated.Role).Equal("engineer")

	blank := " "
	_, err = svc.UpdateMe(ctx, info.ID, UpdateProfileRequest{FullName: &blank})
	gt.Error(t, err).Is(core.ErrInvalidInput)

	_, err = svc.UpdateMe(ctx, "", UpdateProfileRequest{})
	gt.Error(t, err).Is(core.ErrUnauthorized)
}

func TestAssigneesIsManagerOnly(t *testing.T) {
	repo := newMemoryRepository()
	svc := NewService(repo)
	ctx := context.Background()

	for _, seed := range []struct{ email, name, role string }{
		{"b@example.com", "Bob", "engineer"},
		{"a@example.com", "Alice", "engineer"},
		{"c@example.com", "Cara", "observer"},
		{"d@example.com", "Dan", "engineer"},
	} {
		_, err := svc.Create(ctx, seed.email, "hash", seed.name, seed.role)
		gt.NoError(t, err).Required()
	}

	gone, err := svc.GetByEmail(ctx, "d@example.com")
	gt.NoError(t, err).Required()
	deletedAt := time.Now()
	dan := repo.users[gone.ID]
	dan.DeletedAt = &deletedAt
	repo.users[gone.ID] = dan

	manager := access.Principal{ID: "m", Role: access.RoleManager}
	engineer := access.Principal{ID: "e", Role: access.RoleEngineer}

	_, err = svc.Assignees(ctx, engineer, "")
	gt.Error(t, err).Is(core.ErrForbidden)

	engineers, err := svc.Assignees(ctx, manager, "engineer")
	gt.NoError(t, err).Required()
	gt.Array(t, engineers).Length(2).Required()
	gt.Value(t, engineers[0].FullName).Equal("Alice")
	gt.Value(t, engineers[1].FullName).Equal("Bob")
	gt.Value(t, engineers[0].PasswordHash).Equal("")

	everyone, err := svc.Assignees(ctx, manager, "")
	gt.NoError(t, err).Required()
	gt.Array(t, everyone).Length(3)

	_, err = svc.Assignees(ctx, manager, "boss")
	gt.Error(t, err).Is(core.ErrInvalidInput)
}
