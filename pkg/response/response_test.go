package response

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"notevault/pkg/apperror"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusCreated, Message{Msg: "ok"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"msg":"ok"}`, rec.Body.String())
}

func TestErrorStatusAndBody(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, apperror.New(apperror.NotFound, "Document not found"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"msg":"Document not found"}`, rec.Body.String())
}

func TestErrorHidesInternalCause(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, errors.New("pq: password authentication failed for user \"notes\""))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"msg":"Internal server error"}`, rec.Body.String())
}

func TestUnauthorizedSetsChallenge(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, apperror.New(apperror.Unauthenticated, "Invalid or expired token"))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")
}
