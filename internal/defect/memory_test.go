// AngelaMos | 2026
// memory_test.go

package defect

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/carterperez-dev/defect-tracker/internal/core"
)

type memoryState struct {
	defects     map[string]Defect
	comments    []Comment
	history     []HistoryEntry
	attachments []Attachment
}

func (s *memoryState) clone() *memoryState {
	out := &memoryState{
		defects:     make(map[string]Defect, len(s.defects)),
		comments:    append([]Comment(nil), s.comments...),
		history:     append([]HistoryEntry(nil), s.history...),
		attachments: append([]Attachment(nil), s.attachments...),
	}
	for k, v := range s.defects {
		out.defects[k] = v
	}
	return out
}

// memoryRepository is an in-process Repository. WithTx snapshots the
// state and restores it when fn fails.
type memoryRepository struct {
	mu    sync.Mutex
	txMu  sync.Mutex
	state *memoryState

	historyErr error
	writes     int
	seq        int64
}

var _ Repository = (*memoryRepository)(nil)

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		state: &memoryState{defects: make(map[string]Defect)},
	}
}

func (r *memoryRepository) WithTx(
	ctx context.Context,
	fn func(repo Repository) error,
) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()

	r.mu.Lock()
	snapshot := r.state.clone()
	writesBefore := r.writes
	r.mu.Unlock()

	if err := fn(r); err != nil {
		r.mu.Lock()
		r.state = snapshot
		r.writes = writesBefore
		r.mu.Unlock()
		return err
	}
	return nil
}

func (r *memoryRepository) Create(ctx context.Context, d *Defect) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.state.defects[d.ID]; ok {
		return fmt.Errorf("create defect: %w", core.ErrDuplicateKey)
	}
	r.state.defects[d.ID] = *d
	r.writes++
	return nil
}

func (r *memoryRepository) GetByID(ctx context.Context, id string) (*Defect, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.state.defects[id]
	if !ok || d.IsDeleted() {
		return nil, fmt.Errorf("get defect: %w", core.ErrNotFound)
	}
	return &d, nil
}

func (r *memoryRepository) GetByIDIncludingDeleted(
	ctx context.Context,
	id string,
) (*Defect, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.state.defects[id]
	if !ok {
		return nil, fmt.Errorf("get defect: %w", core.ErrNotFound)
	}
	return &d, nil
}

func (r *memoryRepository) GetByIDForUpdate(
	ctx context.Context,
	id string,
) (*Defect, error) {
	return r.GetByID(ctx, id)
}

func (r *memoryRepository) List(
	ctx context.Context,
	params ListDefectsParams,
) ([]Defect, int, error) {
	params.Normalize()

	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []Defect
	for _, d := range r.state.defects {
		if d.IsDeleted() {
			continue
		}
		if params.OwnerID != "" && !d.Ownership().InvolvesUser(params.OwnerID) {
			continue
		}
		if params.Status != "" && string(d.Status) != params.Status {
			continue
		}
		if params.Priority != "" && string(d.Priority) != params.Priority {
			continue
		}
		if params.ProjectID != "" && d.ProjectID != params.ProjectID {
			continue
		}
		matched = append(matched, d)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	total := len(matched)
	start := min(params.Offset(), total)
	end := min(start+params.PageSize, total)

	return matched[start:end], total, nil
}

func (r *memoryRepository) Update(ctx context.Context, d *Defect) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.state.defects[d.ID]
	if !ok || current.IsDeleted() {
		return fmt.Errorf("update defect: %w", core.ErrNotFound)
	}
	r.state.defects[d.ID] = *d
	r.writes++
	return nil
}

func (r *memoryRepository) SoftDelete(
	ctx context.Context,
	id string,
	at time.Time,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.state.defects[id]
	if !ok || d.IsDeleted() {
		return fmt.Errorf("delete defect: %w", core.ErrNotFound)
	}
	d.DeletedAt = &at
	d.UpdatedAt = at
	r.state.defects[id] = d
	r.writes++
	return nil
}

func (r *memoryRepository) AppendHistory(
	ctx context.Context,
	entries []HistoryEntry,
) error {
	if r.historyErr != nil {
		return r.historyErr
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range entries {
		r.seq++
		e.Seq = r.seq
		r.state.history = append(r.state.history, e)
	}
	r.writes += len(entries)
	return nil
}

func (r *memoryRepository) GetHistoryEntry(
	ctx context.Context,
	id string,
) (*HistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, h := range r.state.history {
		if h.ID == id {
			return &h, nil
		}
	}
	return nil, fmt.Errorf("get history entry: %w", core.ErrNotFound)
}

func (r *memoryRepository) ListHistory(
	ctx context.Context,
	defectID string,
) ([]HistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []HistoryEntry{}
	for _, h := range r.state.history {
		if h.DefectID == defectID {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ChangedAt.Equal(out[j].ChangedAt) {
			return out[i].ChangedAt.Before(out[j].ChangedAt)
		}
		return out[i].Seq < out[j].Seq
	})
	return out, nil
}

func (r *memoryRepository) CreateComment(ctx context.Context, c *Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.state.comments = append(r.state.comments, *c)
	r.writes++
	return nil
}

func (r *memoryRepository) GetComment(ctx context.Context, id string) (*Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.state.comments {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, fmt.Errorf("get comment: %w", core.ErrNotFound)
}

func (r *memoryRepository) ListComments(
	ctx context.Context,
	defectID string,
) ([]Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []Comment{}
	for _, c := range r.state.comments {
		if c.DefectID == defectID {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *memoryRepository) ListAttachments(
	ctx context.Context,
	defectID string,
) ([]Attachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []Attachment{}
	for _, a := range r.state.attachments {
		if a.DefectID == defectID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memoryRepository) historyCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.state.history)
}

func (r *memoryRepository) writeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writes
}

func (r *memoryRepository) addAttachment(a Attachment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.attachments = append(r.state.attachments, a)
}

type memoryProjects struct {
	projects map[string]bool
	stages   map[string]string
}

func (p *memoryProjects) ProjectExists(ctx context.Context, id string) (bool, error) {
	return p.projects[id], nil
}

func (p *memoryProjects) StageProjectID(ctx context.Context, stageID string) (string, error) {
	projectID, ok := p.stages[stageID]
	if !ok {
		return "", fmt.Errorf("get stage: %w", core.ErrNotFound)
	}
	return projectID, nil
}

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func (c *stepClock) Last() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}
