package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/taskbridge/taskbridge-gobackend/internal/apperr"
	"github.com/taskbridge/taskbridge-gobackend/internal/auth"
	"github.com/taskbridge/taskbridge-gobackend/internal/services"
)

type ProjectHandler struct {
	service *services.ProjectService
	logger  *zap.Logger
}

func NewProjectHandler(service *services.ProjectService, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{service: service, logger: logger}
}

func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(h.logger, w, r, apperr.Unauthenticated("missing caller identity"))
		return
	}

	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(h.logger, w, r, apperr.InvalidArgument("invalid request body"))
		return
	}

	project, err := h.service.Create(r.Context(), identity, req.Title)
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	respond(w, http.StatusCreated, "project created", project)
}

func (h *ProjectHandler) SubmitBid(w http.ResponseWriter, r *http.Request) {
	identity, projectID, err := callerAndProject(r)
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}

	bid, err := h.service.SubmitBid(r.Context(), identity, projectID)
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	respond(w, http.StatusCreated, "bid submitted", bid)
}

func (h *ProjectHandler) AcceptBid(w http.ResponseWriter, r *http.Request) {
	identity, projectID, err := callerAndProject(r)
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	bidID, err := primitive.ObjectIDFromHex(mux.Vars(r)["bidID"])
	if err != nil {
		respondError(h.logger, w, r, apperr.InvalidArgument("invalid bid id"))
		return
	}

	if err := h.service.AcceptBid(r.Context(), identity, projectID, bidID); err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	respond(w, http.StatusOK, "bid accepted", nil)
}
