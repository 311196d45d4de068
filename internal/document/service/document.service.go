package service

import (
	"context"
	"fmt"
	"notevault/internal/document/model"
	"notevault/internal/session"
	"notevault/pkg/apperror"
	"strings"
)

// DocumentStore is the persistence contract. Implementations do no
// authorization.
type DocumentStore interface {
	Insert(ctx context.Context, nd model.NewDocument) (model.Document, error)
	GetByID(ctx context.Context, id int64) (model.Document, bool, error)
	ListByOwner(ctx context.Context, ownerID string) ([]model.Document, error)
	Update(ctx context.Context, id int64, p model.Patch) (model.Document, bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	SearchByOwner(ctx context.Context, ownerID, query string, scope model.SearchScope) ([]model.Document, error)
}

// Notifier receives an event after each committed change.
type Notifier interface {
	DocumentChanged(ownerID string, kind string, doc model.Document)
}

const (
	EventCreated = "DOCUMENT_CREATED"
	EventUpdated = "DOCUMENT_UPDATED"
	EventDeleted = "DOCUMENT_DELETED"
)

var errNotFound = apperror.New(apperror.NotFound, "Document not found")

// DocumentService enforces ownership on every document operation. A
// document owned by someone else is reported exactly like a missing one.
type DocumentService struct {
	Repo   DocumentStore
	Notify Notifier
	Scope  model.SearchScope
}

func NewDocumentService(repo DocumentStore, notify Notifier, scope model.SearchScope) *DocumentService {
	return &DocumentService{Repo: repo, Notify: notify, Scope: scope}
}

func (s *DocumentService) Create(ctx context.Context, id session.Identity, title, content string, isPublic bool) (model.Document, error) {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(content) == "" {
		return model.Document{}, apperror.New(apperror.InvalidInput, "Title and content are required")
	}
	doc, err := s.Repo.Insert(ctx, model.NewDocument{
		Title:    title,
		Content:  content,
		IsPublic: isPublic,
		OwnerID:  id.UserID,
	})
	if err != nil {
		return model.Document{}, fmt.Errorf("insert document: %w", err)
	}
	s.publish(EventCreated, doc)
	return doc, nil
}

// List returns the caller's own documents. is_public does not expose
// documents to anyone else.
func (s *DocumentService) List(ctx context.Context, id session.Identity) ([]model.Document, error) {
	docs, err := s.Repo.ListByOwner(ctx, id.UserID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

func (s *DocumentService) Search(ctx context.Context, id session.Identity, query string) ([]model.Document, error) {
	docs, err := s.Repo.SearchByOwner(ctx, id.UserID, query, s.Scope)
	if err != nil {
		return nil, fmt.Errorf("search documents: %w", err)
	}
	return docs, nil
}

func (s *DocumentService) Get(ctx context.Context, id session.Identity, docID int64) (model.Document, error) {
	return s.owned(ctx, id, docID)
}

func (s *DocumentService) Update(ctx context.Context, id session.Identity, docID int64, p model.Patch) (model.Document, error) {
	if (p.Title != nil && strings.TrimSpace(*p.Title) == "") || (p.Content != nil && strings.TrimSpace(*p.Content) == "") {
		return model.Document{}, apperror.New(apperror.InvalidInput, "Title and content cannot be empty")
	}
	if _, err := s.owned(ctx, id, docID); err != nil {
		return model.Document{}, err
	}

	doc, found, err := s.Repo.Update(ctx, docID, p)
	if err != nil {
		return model.Document{}, fmt.Errorf("update document %d: %w", docID, err)
	}
	if !found {
		// deleted between the ownership check and the write
		return model.Document{}, errNotFound
	}
	s.publish(EventUpdated, doc)
	return doc, nil
}

func (s *DocumentService) Delete(ctx context.Context, id session.Identity, docID int64) error {
	doc, err := s.owned(ctx, id, docID)
	if err != nil {
		return err
	}

	removed, err := s.Repo.Delete(ctx, docID)
	if err != nil {
		return fmt.Errorf("delete document %d: %w", docID, err)
	}
	if !removed {
		return errNotFound
	}
	s.publish(EventDeleted, doc)
	return nil
}

// owned loads docID and checks that id owns it. Absence and foreign
// ownership both come back as the same NotFound error.
func (s *DocumentService) owned(ctx context.Context, id session.Identity, docID int64) (model.Document, error) {
	doc, found, err := s.Repo.GetByID(ctx, docID)
	if err != nil {
		return model.Document{}, fmt.Errorf("get document %d: %w", docID, err)
	}
	if !found || id.UserID == "" || doc.OwnerID != id.UserID {
		return model.Document{}, errNotFound
	}
	return doc, nil
}

func (s *DocumentService) publish(kind string, doc model.Document) {
	if s.Notify != nil {
		s.Notify.DocumentChanged(doc.OwnerID, kind, doc)
	}
}
