package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/taskbridge/taskbridge-gobackend/internal/apperr"
	"github.com/taskbridge/taskbridge-gobackend/internal/auth"
	"github.com/taskbridge/taskbridge-gobackend/internal/models"
)

// EscrowService coordinates the escrow account with the payment gateway:
// open a hold, verify it was paid, release per-milestone payouts. Every
// guard runs before the first gateway call so a validation failure never
// leaves gateway-side state behind.
type EscrowService struct {
	projects     ProjectStore
	bids         BidStore
	destinations DestinationStore
	gateway      PaymentGateway
	history      HistorySink
	currency     string
	logger       *zap.Logger
}

func NewEscrowService(projects ProjectStore, bids BidStore, destinations DestinationStore, gw PaymentGateway, history HistorySink, currency string, logger *zap.Logger) *EscrowService {
	return &EscrowService{
		projects:     projects,
		bids:         bids,
		destinations: destinations,
		gateway:      gw,
		history:      history,
		currency:     currency,
		logger:       logger,
	}
}

// EscrowOrder is returned on escrow creation; the client pays the gateway
// order and then calls VerifyEscrowPayment.
type EscrowOrder struct {
	OrderID  string  `json:"order_id"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Status   string  `json:"status"`
}

// ReleaseResult reports a successful milestone payout.
type ReleaseResult struct {
	MilestoneID string  `json:"milestone_id"`
	Amount      float64 `json:"amount"`
	PayoutID    string  `json:"payout_id"`
}

// EscrowStatusView is the read model for GetEscrowStatus.
type EscrowStatusView struct {
	EscrowStatus       models.EscrowStatus `json:"escrow_status"`
	EscrowAmount       float64             `json:"escrow_amount"`
	FinalProjectAmount float64             `json:"final_project_amount"`
	EscrowOrderID      string              `json:"escrow_order_id,omitempty"`
	MilestoneCount     int                 `json:"milestone_count"`
	CompletedCount     int                 `json:"completed_count"`
	ReleasedCount      int                 `json:"released_count"`
	ReleasedAmount     float64             `json:"released_amount"`
}

func (s *EscrowService) ownedProject(ctx context.Context, identity auth.Identity, projectID primitive.ObjectID) (*models.Project, error) {
	project, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.OwnerID != identity.UserID {
		return nil, apperr.Forbidden("only the project owner can manage escrow")
	}
	return project, nil
}

// CreateEscrowPayment opens a funds-hold order with the gateway and moves
// the escrow account to pending. The four escrow fields are persisted in a
// single store update; on gateway failure nothing is persisted.
func (s *EscrowService) CreateEscrowPayment(ctx context.Context, identity auth.Identity, projectID primitive.ObjectID, finalAmount float64) (*EscrowOrder, error) {
	if finalAmount <= 0 {
		return nil, apperr.InvalidArgument("final amount must be positive")
	}

	project, err := s.ownedProject(ctx, identity, projectID)
	if err != nil {
		return nil, err
	}
	if !project.HasAcceptedBid() {
		return nil, apperr.FailedPrecondition("project has no accepted bid")
	}
	switch project.Status() {
	case models.EscrowPending, models.EscrowCompleted:
		return nil, apperr.Conflict("escrow already %s", project.Status())
	}

	bid, err := s.bids.GetBid(ctx, project.AcceptedBidID)
	if err != nil {
		return nil, err
	}
	destination, err := s.destinations.PrimaryVerifiedDestination(ctx, bid.FreelancerID)
	if err != nil {
		return nil, err
	}
	if destination == nil {
		return nil, apperr.FailedPrecondition("freelancer has no verified payout destination")
	}

	receipt := "escrow-" + uuid.NewString()
	orderID, err := s.gateway.CreateOrder(ctx, finalAmount, s.currency, receipt, map[string]string{
		"project_id": projectID.Hex(),
	})
	if err != nil {
		return nil, apperr.Unavailable(err, "payment gateway order creation failed")
	}

	if err := s.projects.OpenEscrow(ctx, projectID, finalAmount, orderID); err != nil {
		// The hold exists gateway-side but was never acknowledged locally;
		// keep the order id in the log for reconciliation.
		s.logger.Error("escrow order persisted nowhere",
			zap.String("project_id", projectID.Hex()),
			zap.String("order_id", orderID),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("escrow created",
		zap.String("project_id", projectID.Hex()),
		zap.String("order_id", orderID),
		zap.Float64("amount", finalAmount),
	)
	return &EscrowOrder{
		OrderID:  orderID,
		Amount:   finalAmount,
		Currency: s.currency,
		Status:   string(models.EscrowPending),
	}, nil
}

// VerifyEscrowPayment checks the gateway signature for the pending hold and
// flips the escrow account to completed.
func (s *EscrowService) VerifyEscrowPayment(ctx context.Context, identity auth.Identity, projectID primitive.ObjectID, paymentID, signature string) error {
	if paymentID == "" || signature == "" {
		return apperr.InvalidArgument("payment_id and signature are required")
	}

	project, err := s.ownedProject(ctx, identity, projectID)
	if err != nil {
		return err
	}
	if project.Status() != models.EscrowPending || project.EscrowOrderID == "" {
		return apperr.Conflict("no pending escrow to verify")
	}

	if !s.gateway.VerifySignature(project.EscrowOrderID, paymentID, signature) {
		return apperr.InvalidArgument("payment signature mismatch")
	}

	now := time.Now()
	if err := s.projects.MarkEscrowCompleted(ctx, projectID, paymentID, now); err != nil {
		return err
	}

	s.recordHistory(ctx, &models.PaymentRecord{
		UserID:    identity.UserID,
		ProjectID: projectID,
		OrderID:   project.EscrowOrderID,
		PaymentID: paymentID,
		Amount:    project.EscrowAmount,
		Currency:  s.currency,
		Status:    models.PaymentEscrowFunded,
	})

	s.logger.Info("escrow verified",
		zap.String("project_id", projectID.Hex()),
		zap.String("order_id", project.EscrowOrderID),
	)
	return nil
}

// ReleaseMilestonePayment pays out the allocator's share for a completed,
// unreleased milestone. The store write is a compare-and-set on the
// payment_released flag, so a concurrent duplicate request cannot pay twice.
func (s *EscrowService) ReleaseMilestonePayment(ctx context.Context, identity auth.Identity, projectID, milestoneID primitive.ObjectID) (*ReleaseResult, error) {
	project, err := s.ownedProject(ctx, identity, projectID)
	if err != nil {
		return nil, err
	}
	if project.Status() != models.EscrowCompleted {
		return nil, apperr.Conflict("escrow is not funded")
	}
	if !project.HasAcceptedBid() {
		return nil, apperr.NotFound("project has no accepted bid")
	}

	bid, err := s.bids.GetBid(ctx, project.AcceptedBidID)
	if err != nil {
		return nil, err
	}
	idx := bid.MilestoneIndex(milestoneID)
	if idx < 0 {
		return nil, apperr.NotFound("milestone not found")
	}
	milestone := bid.Milestones[idx]
	if !milestone.IsCompleted {
		return nil, apperr.Conflict("milestone is not completed")
	}
	if milestone.PaymentReleased {
		return nil, apperr.Conflict("milestone payment already released")
	}

	amount, err := PayoutAmountFor(idx, len(bid.Milestones), project.FinalProjectAmount)
	if err != nil {
		return nil, err
	}

	destination, err := s.destinations.PrimaryVerifiedDestination(ctx, bid.FreelancerID)
	if err != nil {
		return nil, err
	}
	if destination == nil {
		return nil, apperr.FailedPrecondition("freelancer has no verified payout destination")
	}

	reference := "ms-" + milestoneID.Hex()
	payoutID, err := s.gateway.CreatePayout(ctx, destination.FundAccountID, amount, s.currency, reference)
	if err != nil {
		return nil, apperr.Unavailable(err, "payment gateway payout failed")
	}

	now := time.Now()
	if err := s.bids.ReleaseMilestone(ctx, bid.ID, milestoneID, amount, payoutID, now); err != nil {
		// Payout succeeded but the flag write did not; surface the payout id
		// so the duplicate risk can be reconciled against the gateway.
		s.logger.Error("payout executed but not recorded",
			zap.String("project_id", projectID.Hex()),
			zap.String("milestone_id", milestoneID.Hex()),
			zap.String("payout_id", payoutID),
			zap.Error(err),
		)
		return nil, err
	}

	s.recordHistory(ctx, &models.PaymentRecord{
		UserID:    bid.FreelancerID,
		ProjectID: projectID,
		OrderID:   project.EscrowOrderID,
		PaymentID: payoutID,
		Amount:    amount,
		Currency:  s.currency,
		Status:    models.PaymentMilestoneReleased,
	})

	s.logger.Info("milestone payment released",
		zap.String("project_id", projectID.Hex()),
		zap.String("milestone_id", milestoneID.Hex()),
		zap.String("payout_id", payoutID),
		zap.Float64("amount", amount),
	)
	return &ReleaseResult{
		MilestoneID: milestoneID.Hex(),
		Amount:      amount,
		PayoutID:    payoutID,
	}, nil
}

// GetEscrowStatus returns funding status plus milestone aggregates for the
// owner, the assigned freelancer, or an admin.
func (s *EscrowService) GetEscrowStatus(ctx context.Context, identity auth.Identity, projectID primitive.ObjectID) (*EscrowStatusView, error) {
	project, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	var bid *models.Bid
	if project.HasAcceptedBid() {
		bid, err = s.bids.GetBid(ctx, project.AcceptedBidID)
		if err != nil {
			return nil, err
		}
	}

	allowed := project.OwnerID == identity.UserID || identity.IsAdmin()
	if !allowed && bid != nil && bid.FreelancerID == identity.UserID {
		allowed = true
	}
	if !allowed {
		return nil, apperr.Forbidden("not a participant of this project")
	}

	view := &EscrowStatusView{
		EscrowStatus:       project.Status(),
		EscrowAmount:       project.EscrowAmount,
		FinalProjectAmount: project.FinalProjectAmount,
		EscrowOrderID:      project.EscrowOrderID,
	}
	if bid != nil {
		summary := summarize(bid.Milestones)
		view.MilestoneCount = len(bid.Milestones)
		view.CompletedCount = summary.CompletedCount
		view.ReleasedAmount = summary.ReleasedAmount
		for i := range bid.Milestones {
			if bid.Milestones[i].PaymentReleased {
				view.ReleasedCount++
			}
		}
	}
	return view, nil
}

// ResetEscrowStatus moves a pending hold to failed so a fresh escrow can be
// created. Completed escrows can never be reset through this path.
func (s *EscrowService) ResetEscrowStatus(ctx context.Context, identity auth.Identity, projectID primitive.ObjectID) error {
	project, err := s.ownedProject(ctx, identity, projectID)
	if err != nil {
		return err
	}
	if project.Status() != models.EscrowPending {
		return apperr.Conflict("only a pending escrow can be reset")
	}

	if err := s.projects.MarkEscrowFailed(ctx, projectID); err != nil {
		return err
	}

	s.logger.Info("escrow reset",
		zap.String("project_id", projectID.Hex()),
		zap.String("order_id", project.EscrowOrderID),
	)
	return nil
}

// recordHistory is best-effort: the audit log must never fail a money
// operation that already succeeded.
func (s *EscrowService) recordHistory(ctx context.Context, record *models.PaymentRecord) {
	if err := s.history.Record(ctx, record); err != nil {
		s.logger.Warn("payment history record failed",
			zap.String("project_id", record.ProjectID.Hex()),
			zap.String("payment_id", record.PaymentID),
			zap.Error(err),
		)
	}
}
