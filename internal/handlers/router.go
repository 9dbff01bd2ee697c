package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/taskbridge/taskbridge-gobackend/internal/auth"
	"github.com/taskbridge/taskbridge-gobackend/internal/metrics"
)

// NewRouter wires all handlers. Everything under /api except register,
// login, and the gateway webhook requires a bearer token.
func NewRouter(
	authManager *auth.Manager,
	userHandler *UserHandler,
	projectHandler *ProjectHandler,
	milestoneHandler *MilestoneHandler,
	escrowHandler *EscrowHandler,
	webhookHandler *WebhookHandler,
) *mux.Router {
	router := mux.NewRouter()
	router.Use(metrics.Middleware)

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET", "HEAD")
	router.Handle("/metrics", metrics.Handler()).Methods("GET")

	router.HandleFunc("/api/register", userHandler.Register).Methods("POST")
	router.HandleFunc("/api/login", userHandler.Login).Methods("POST")
	router.HandleFunc("/api/gateway/webhook", webhookHandler.HandleGatewayEvent).Methods("POST")

	api := router.PathPrefix("/api").Subrouter()
	api.Use(authManager.Middleware)

	api.HandleFunc("/bank-accounts", userHandler.AddBankAccount).Methods("POST")

	api.HandleFunc("/projects", projectHandler.CreateProject).Methods("POST")
	api.HandleFunc("/projects/{projectID}/bids", projectHandler.SubmitBid).Methods("POST")
	api.HandleFunc("/projects/{projectID}/bids/{bidID}/accept", projectHandler.AcceptBid).Methods("POST")

	api.HandleFunc("/projects/{projectID}/milestones", milestoneHandler.AddMilestone).Methods("POST")
	api.HandleFunc("/projects/{projectID}/milestones", milestoneHandler.ListMilestones).Methods("GET")
	api.HandleFunc("/projects/{projectID}/milestones/{milestoneID}", milestoneHandler.ModifyMilestone).Methods("PATCH")
	api.HandleFunc("/projects/{projectID}/milestones/{milestoneID}", milestoneHandler.RemoveMilestone).Methods("DELETE")
	api.HandleFunc("/projects/{projectID}/milestones/{milestoneID}/complete", milestoneHandler.CompleteMilestone).Methods("POST")

	api.HandleFunc("/projects/{projectID}/escrow", escrowHandler.CreateEscrow).Methods("POST")
	api.HandleFunc("/projects/{projectID}/escrow", escrowHandler.GetEscrowStatus).Methods("GET")
	api.HandleFunc("/projects/{projectID}/escrow/verify", escrowHandler.VerifyEscrow).Methods("POST")
	api.HandleFunc("/projects/{projectID}/escrow/reset", escrowHandler.ResetEscrowStatus).Methods("POST")
	api.HandleFunc("/projects/{projectID}/milestones/{milestoneID}/release", escrowHandler.ReleaseMilestonePayment).Methods("POST")

	return router
}
