package repository

import (
	"context"
	"notevault/internal/document/model"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryDocumentRepository keeps documents in process memory. It follows
// the same contract as the Postgres store and is meant for local runs and
// tests; nothing survives a restart.
type MemoryDocumentRepository struct {
	mu     sync.Mutex
	lastID int64
	docs   map[int64]model.Document
	now    func() time.Time
}

func NewMemoryDocumentRepository() *MemoryDocumentRepository {
	return &MemoryDocumentRepository{docs: make(map[int64]model.Document), now: time.Now}
}

// WithClock replaces the time source.
func (r *MemoryDocumentRepository) WithClock(now func() time.Time) *MemoryDocumentRepository {
	r.now = now
	return r
}

func (r *MemoryDocumentRepository) Insert(_ context.Context, nd model.NewDocument) (model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastID++
	now := r.now().UTC()
	d := model.Document{
		ID:        r.lastID,
		Title:     nd.Title,
		Content:   nd.Content,
		IsPublic:  nd.IsPublic,
		OwnerID:   nd.OwnerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.docs[d.ID] = d
	return d, nil
}

func (r *MemoryDocumentRepository) GetByID(_ context.Context, id int64) (model.Document, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[id]
	return d, ok, nil
}

func (r *MemoryDocumentRepository) ListByOwner(_ context.Context, ownerID string) ([]model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.collect(func(d model.Document) bool { return d.OwnerID == ownerID }), nil
}

func (r *MemoryDocumentRepository) Update(_ context.Context, id int64, p model.Patch) (model.Document, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.docs[id]
	if !ok {
		return model.Document{}, false, nil
	}
	if p.Title != nil {
		d.Title = *p.Title
	}
	if p.Content != nil {
		d.Content = *p.Content
	}
	if p.IsPublic != nil {
		d.IsPublic = *p.IsPublic
	}
	now := r.now().UTC()
	if !now.After(d.UpdatedAt) {
		now = d.UpdatedAt.Add(time.Microsecond)
	}
	d.UpdatedAt = now
	r.docs[id] = d
	return d, true, nil
}

func (r *MemoryDocumentRepository) Delete(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.docs[id]
	delete(r.docs, id)
	return ok, nil
}

func (r *MemoryDocumentRepository) SearchByOwner(_ context.Context, ownerID, query string, scope model.SearchScope) ([]model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	q := strings.ToLower(query)
	return r.collect(func(d model.Document) bool {
		if d.OwnerID != ownerID {
			return false
		}
		if strings.Contains(strings.ToLower(d.Title), q) {
			return true
		}
		return scope == model.ScopeTitleContent && strings.Contains(strings.ToLower(d.Content), q)
	}), nil
}

func (r *MemoryDocumentRepository) collect(keep func(model.Document) bool) []model.Document {
	out := []model.Document{}
	for _, d := range r.docs {
		if keep(d) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
