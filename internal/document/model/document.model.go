package model

import (
	"time"
)

// TimeLayout is how timestamps are rendered to clients.
const TimeLayout = "2006-01-02 03:04:05 PM"

type Document struct {
	ID        int64
	Title     string
	Content   string
	IsPublic  bool
	OwnerID   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type NewDocument struct {
	Title    string
	Content  string
	IsPublic bool
	OwnerID  string
}

// Patch holds the fields of a partial update; nil means "leave as is".
type Patch struct {
	Title    *string
	Content  *string
	IsPublic *bool
}

// SearchScope selects which columns a search query is matched against.
type SearchScope int

const (
	ScopeTitleContent SearchScope = iota
	ScopeTitle
)

type CreateDocRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	IsPublic bool   `json:"is_public"`
}

type UpdateDocRequest struct {
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	IsPublic *bool   `json:"is_public"`
}

func (r UpdateDocRequest) Patch() Patch {
	return Patch{Title: r.Title, Content: r.Content, IsPublic: r.IsPublic}
}

type DocumentResponse struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	IsPublic  bool   `json:"is_public"`
	OwnerID   string `json:"owner_id"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// NewDocumentResponse renders d for clients, converting its UTC timestamps
// into loc.
func NewDocumentResponse(d Document, loc *time.Location) DocumentResponse {
	return DocumentResponse{
		ID:        d.ID,
		Title:     d.Title,
		Content:   d.Content,
		IsPublic:  d.IsPublic,
		OwnerID:   d.OwnerID,
		CreatedAt: d.CreatedAt.In(loc).Format(TimeLayout),
		UpdatedAt: d.UpdatedAt.In(loc).Format(TimeLayout),
	}
}

func NewDocumentResponses(docs []Document, loc *time.Location) []DocumentResponse {
	out := make([]DocumentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, NewDocumentResponse(d, loc))
	}
	return out
}

type MessageResponse struct {
	Msg string `json:"msg"`
}
