package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"notevault/internal/document/model"
	"notevault/internal/session"
	"notevault/middleware"
	"notevault/pkg/apperror"
	"notevault/pkg/response"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

type Service interface {
	Create(ctx context.Context, id session.Identity, title, content string, isPublic bool) (model.Document, error)
	List(ctx context.Context, id session.Identity) ([]model.Document, error)
	Search(ctx context.Context, id session.Identity, query string) ([]model.Document, error)
	Get(ctx context.Context, id session.Identity, docID int64) (model.Document, error)
	Update(ctx context.Context, id session.Identity, docID int64, p model.Patch) (model.Document, error)
	Delete(ctx context.Context, id session.Identity, docID int64) error
}

type DocumentHandler struct {
	Service Service
	Loc     *time.Location
}

func NewDocumentHandler(service Service, loc *time.Location) *DocumentHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &DocumentHandler{Service: service, Loc: loc}
}

var (
	errNoIdentity = apperror.New(apperror.Unauthenticated, "Missing authorization token")
	errNotFound   = apperror.New(apperror.NotFound, "Document not found")
	errBadBody    = apperror.New(apperror.InvalidInput, "Invalid request body")
)

func (h *DocumentHandler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		response.Error(w, errNoIdentity)
		return
	}

	var req model.CreateDocRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, errBadBody)
		return
	}

	doc, err := h.Service.Create(r.Context(), identity, req.Title, req.Content, req.IsPublic)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, model.NewDocumentResponse(doc, h.Loc))
}

func (h *DocumentHandler) GetDocuments(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		response.Error(w, errNoIdentity)
		return
	}

	docs, err := h.Service.List(r.Context(), identity)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.JSON(w, http.StatusOK, model.NewDocumentResponses(docs, h.Loc))
}

func (h *DocumentHandler) SearchDocuments(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		response.Error(w, errNoIdentity)
		return
	}

	docs, err := h.Service.Search(r.Context(), identity, r.URL.Query().Get("q"))
	if err != nil {
		response.Error(w, err)
		return
	}

	response.JSON(w, http.StatusOK, model.NewDocumentResponses(docs, h.Loc))
}

func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	identity, docID, ok := h.target(w, r)
	if !ok {
		return
	}

	doc, err := h.Service.Get(r.Context(), identity, docID)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.JSON(w, http.StatusOK, model.NewDocumentResponse(doc, h.Loc))
}

func (h *DocumentHandler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	identity, docID, ok := h.target(w, r)
	if !ok {
		return
	}

	var req model.UpdateDocRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, errBadBody)
		return
	}

	doc, err := h.Service.Update(r.Context(), identity, docID, req.Patch())
	if err != nil {
		response.Error(w, err)
		return
	}

	response.JSON(w, http.StatusOK, model.NewDocumentResponse(doc, h.Loc))
}

func (h *DocumentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	identity, docID, ok := h.target(w, r)
	if !ok {
		return
	}

	if err := h.Service.Delete(r.Context(), identity, docID); err != nil {
		response.Error(w, err)
		return
	}

	response.JSON(w, http.StatusOK, model.MessageResponse{Msg: "Document deleted"})
}

// target resolves the caller and the {id} path parameter. An id that is
// not a positive integer cannot name an owned document, so it is a 404.
func (h *DocumentHandler) target(w http.ResponseWriter, r *http.Request) (session.Identity, int64, bool) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		response.Error(w, errNoIdentity)
		return session.Identity{}, 0, false
	}
	docID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || docID <= 0 {
		response.Error(w, errNotFound)
		return session.Identity{}, 0, false
	}
	return identity, docID, true
}
