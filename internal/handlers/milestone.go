package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/taskbridge/taskbridge-gobackend/internal/apperr"
	"github.com/taskbridge/taskbridge-gobackend/internal/models"
	"github.com/taskbridge/taskbridge-gobackend/internal/services"
)

type MilestoneHandler struct {
	service *services.MilestoneService
	logger  *zap.Logger
}

func NewMilestoneHandler(service *services.MilestoneService, logger *zap.Logger) *MilestoneHandler {
	return &MilestoneHandler{service: service, logger: logger}
}

func milestoneID(r *http.Request) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["milestoneID"])
	if err != nil {
		return primitive.NilObjectID, apperr.InvalidArgument("invalid milestone id")
	}
	return id, nil
}

func (h *MilestoneHandler) AddMilestone(w http.ResponseWriter, r *http.Request) {
	identity, projectID, err := callerAndProject(r)
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}

	var input services.AddMilestoneInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(h.logger, w, r, apperr.InvalidArgument("invalid request body"))
		return
	}

	milestone, err := h.service.Add(r.Context(), identity, projectID, input)
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	respond(w, http.StatusCreated, "milestone added", milestone)
}

func (h *MilestoneHandler) ModifyMilestone(w http.ResponseWriter, r *http.Request) {
	identity, projectID, err := callerAndProject(r)
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	msID, err := milestoneID(r)
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}

	var patch models.MilestonePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondError(h.logger, w, r, apperr.InvalidArgument("invalid request body"))
		return
	}

	if err := h.service.Modify(r.Context(), identity, projectID, msID, patch); err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	respond(w, http.StatusOK, "milestone updated", nil)
}

func (h *MilestoneHandler) RemoveMilestone(w http.ResponseWriter, r *http.Request) {
	identity, projectID, err := callerAndProject(r)
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	msID, err := milestoneID(r)
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}

	if err := h.service.Remove(r.Context(), identity, projectID, msID); err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	respond(w, http.StatusOK, "milestone removed", nil)
}

func (h *MilestoneHandler) CompleteMilestone(w http.ResponseWriter, r *http.Request) {
	identity, projectID, err := callerAndProject(r)
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	msID, err := milestoneID(r)
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}

	var req struct {
		CompletionNotes string `json:"completion_notes"`
	}
	if r.Body != nil {
		// Notes are optional; an empty body is fine.
		json.NewDecoder(r.Body).Decode(&req)
	}

	if err := h.service.Complete(r.Context(), identity, projectID, msID, req.CompletionNotes); err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	respond(w, http.StatusOK, "milestone completed", nil)
}

func (h *MilestoneHandler) ListMilestones(w http.ResponseWriter, r *http.Request) {
	identity, projectID, err := callerAndProject(r)
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}

	list, err := h.service.List(r.Context(), identity, projectID)
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	respond(w, http.StatusOK, "milestones", list)
}
