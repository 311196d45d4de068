package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"notevault/internal/auth/model"
	"notevault/pkg/apperror"
	"notevault/pkg/logger"
	"notevault/pkg/response"
)

type Service interface {
	Register(ctx context.Context, email, password string) (string, error)
	Login(ctx context.Context, email, password string) (model.LoginResponse, error)
}

type AuthHandler struct {
	Service Service
}

func NewAuthHandler(service Service) *AuthHandler {
	return &AuthHandler{Service: service}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apperror.New(apperror.InvalidInput, "Invalid request body"))
		return
	}

	userID, err := h.Service.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(w, err)
		return
	}

	logger.Sugar.Infof("Registered user %s", userID)
	response.JSON(w, http.StatusCreated, model.RegisterResponse{Msg: "User registered successfully", UserID: userID})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apperror.New(apperror.InvalidInput, "Invalid request body"))
		return
	}

	resp, err := h.Service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.JSON(w, http.StatusOK, resp)
}
