package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/taskbridge/taskbridge-gobackend/internal/apperr"
	"github.com/taskbridge/taskbridge-gobackend/internal/auth"
	"github.com/taskbridge/taskbridge-gobackend/internal/services"
)

type UserHandler struct {
	service *services.UserService
	logger  *zap.Logger
}

func NewUserHandler(service *services.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{service: service, logger: logger}
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input services.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(h.logger, w, r, apperr.InvalidArgument("invalid request body"))
		return
	}

	user, err := h.service.Register(r.Context(), input)
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	respond(w, http.StatusCreated, "user registered", user)
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(h.logger, w, r, apperr.InvalidArgument("invalid request body"))
		return
	}

	token, user, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	respond(w, http.StatusOK, "logged in", map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

func (h *UserHandler) AddBankAccount(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(h.logger, w, r, apperr.Unauthenticated("missing caller identity"))
		return
	}

	var input services.AddBankAccountInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(h.logger, w, r, apperr.InvalidArgument("invalid request body"))
		return
	}

	account, err := h.service.AddBankAccount(r.Context(), identity, input)
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	respond(w, http.StatusCreated, "bank account added", account)
}
