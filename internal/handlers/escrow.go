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

type EscrowHandler struct {
	service *services.EscrowService
	logger  *zap.Logger
}

func NewEscrowHandler(service *services.EscrowService, logger *zap.Logger) *EscrowHandler {
	return &EscrowHandler{service: service, logger: logger}
}

func callerAndProject(r *http.Request) (auth.Identity, primitive.ObjectID, error) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		return auth.Identity{}, primitive.NilObjectID, apperr.Unauthenticated("missing caller identity")
	}
	projectID, err := primitive.ObjectIDFromHex(mux.Vars(r)["projectID"])
	if err != nil {
		return auth.Identity{}, primitive.NilObjectID, apperr.InvalidArgument("invalid project id")
	}
	return identity, projectID, nil
}

func (h *EscrowHandler) CreateEscrow(w http.ResponseWriter, r *http.Request) {
	identity, projectID, err := callerAndProject(r)
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}

	var req struct {
		FinalAmount float64 `json:"final_amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(h.logger, w, r, apperr.InvalidArgument("invalid request body"))
		return
	}

	order, err := h.service.CreateEscrowPayment(r.Context(), identity, projectID, req.FinalAmount)
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	respond(w, http.StatusCreated, "escrow payment created", order)
}

func (h *EscrowHandler) VerifyEscrow(w http.ResponseWriter, r *http.Request) {
	identity, projectID, err := callerAndProject(r)
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}

	var req struct {
		PaymentID string `json:"payment_id"`
		Signature string `json:"signature"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(h.logger, w, r, apperr.InvalidArgument("invalid request body"))
		return
	}

	if err := h.service.VerifyEscrowPayment(r.Context(), identity, projectID, req.PaymentID, req.Signature); err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	respond(w, http.StatusOK, "escrow payment verified", nil)
}

func (h *EscrowHandler) ReleaseMilestonePayment(w http.ResponseWriter, r *http.Request) {
	identity, projectID, err := callerAndProject(r)
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	milestoneID, err := primitive.ObjectIDFromHex(mux.Vars(r)["milestoneID"])
	if err != nil {
		respondError(h.logger, w, r, apperr.InvalidArgument("invalid milestone id"))
		return
	}

	result, err := h.service.ReleaseMilestonePayment(r.Context(), identity, projectID, milestoneID)
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	respond(w, http.StatusOK, "milestone payment released", result)
}

func (h *EscrowHandler) GetEscrowStatus(w http.ResponseWriter, r *http.Request) {
	identity, projectID, err := callerAndProject(r)
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}

	view, err := h.service.GetEscrowStatus(r.Context(), identity, projectID)
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	respond(w, http.StatusOK, "escrow status", view)
}

func (h *EscrowHandler) ResetEscrowStatus(w http.ResponseWriter, r *http.Request) {
	identity, projectID, err := callerAndProject(r)
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}

	if err := h.service.ResetEscrowStatus(r.Context(), identity, projectID); err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	respond(w, http.StatusOK, "escrow reset to failed", nil)
}
