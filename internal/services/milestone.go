package services

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/taskbridge/taskbridge-gobackend/internal/apperr"
	"github.com/taskbridge/taskbridge-gobackend/internal/auth"
	"github.com/taskbridge/taskbridge-gobackend/internal/models"
)

// MilestoneService is the ledger over the milestone list embedded in a
// project's accepted bid. Mutations are freelancer-only; reads are open to
// the project owner, the assigned freelancer, and admins.
type MilestoneService struct {
	projects ProjectStore
	bids     BidStore
	logger   *zap.Logger
}

func NewMilestoneService(projects ProjectStore, bids BidStore, logger *zap.Logger) *MilestoneService {
	return &MilestoneService{projects: projects, bids: bids, logger: logger}
}

type AddMilestoneInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Amount      float64    `json:"amount"`
	DueDate     *time.Time `json:"due_date"`
}

// MilestoneList is the ledger view with its computed aggregates.
type MilestoneList struct {
	Milestones     []models.Milestone `json:"milestones"`
	TotalAmount    float64            `json:"total_amount"`
	ReleasedAmount float64            `json:"released_amount"`
	CompletedCount int                `json:"completed_count"`
}

func (s *MilestoneService) acceptedBid(ctx context.Context, projectID primitive.ObjectID) (*models.Project, *models.Bid, error) {
	project, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, nil, err
	}
	if !project.HasAcceptedBid() {
		return nil, nil, apperr.NotFound("project has no accepted bid")
	}
	bid, err := s.bids.GetBid(ctx, project.AcceptedBidID)
	if err != nil {
		return nil, nil, err
	}
	return project, bid, nil
}

// Add appends a milestone to the accepted bid of the project.
func (s *MilestoneService) Add(ctx context.Context, identity auth.Identity, projectID primitive.ObjectID, input AddMilestoneInput) (*models.Milestone, error) {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return nil, apperr.InvalidArgument("title is required")
	}
	if input.Amount <= 0 {
		return nil, apperr.InvalidArgument("amount must be positive")
	}

	_, bid, err := s.acceptedBid(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if bid.FreelancerID != identity.UserID {
		return nil, apperr.Forbidden("only the assigned freelancer can add milestones")
	}

	milestone := models.Milestone{
		ID:          primitive.NewObjectID(),
		Title:       input.Title,
		Description: strings.TrimSpace(input.Description),
		Amount:      input.Amount,
		DueDate:     input.DueDate,
	}
	if err := s.bids.AppendMilestone(ctx, bid.ID, milestone); err != nil {
		return nil, err
	}

	s.logger.Info("milestone added",
		zap.String("project_id", projectID.Hex()),
		zap.String("milestone_id", milestone.ID.Hex()),
	)
	return &milestone, nil
}

// Modify edits an uncompleted milestone's content fields.
func (s *MilestoneService) Modify(ctx context.Context, identity auth.Identity, projectID, milestoneID primitive.ObjectID, patch models.MilestonePatch) error {
	if patch.IsEmpty() {
		return apperr.InvalidArgument("no fields to update")
	}
	if patch.Amount != nil && *patch.Amount <= 0 {
		return apperr.InvalidArgument("amount must be positive")
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return apperr.InvalidArgument("title cannot be empty")
	}

	_, bid, err := s.acceptedBid(ctx, projectID)
	if err != nil {
		return err
	}
	if bid.FreelancerID != identity.UserID {
		return apperr.Forbidden("only the assigned freelancer can edit milestones")
	}

	idx := bid.MilestoneIndex(milestoneID)
	if idx < 0 {
		return apperr.NotFound("milestone not found")
	}
	if bid.Milestones[idx].IsCompleted {
		return apperr.Conflict("completed milestones cannot be edited")
	}

	return s.bids.UpdateMilestone(ctx, bid.ID, milestoneID, patch)
}

// Remove deletes a milestone that is neither completed nor paid.
func (s *MilestoneService) Remove(ctx context.Context, identity auth.Identity, projectID, milestoneID primitive.ObjectID) error {
	_, bid, err := s.acceptedBid(ctx, projectID)
	if err != nil {
		return err
	}
	if bid.FreelancerID != identity.UserID {
		return apperr.Forbidden("only the assigned freelancer can remove milestones")
	}

	idx := bid.MilestoneIndex(milestoneID)
	if idx < 0 {
		return apperr.NotFound("milestone not found")
	}
	milestone := bid.Milestones[idx]
	if milestone.IsCompleted || milestone.PaymentReleased {
		return apperr.Conflict("completed or paid milestones cannot be removed")
	}

	return s.bids.RemoveMilestone(ctx, bid.ID, milestoneID)
}

// Complete marks a milestone done on behalf of the assigned freelancer.
func (s *MilestoneService) Complete(ctx context.Context, identity auth.Identity, projectID, milestoneID primitive.ObjectID, notes string) error {
	_, bid, err := s.acceptedBid(ctx, projectID)
	if err != nil {
		return err
	}
	if bid.FreelancerID != identity.UserID {
		return apperr.Forbidden("only the assigned freelancer can complete milestones")
	}

	idx := bid.MilestoneIndex(milestoneID)
	if idx < 0 {
		return apperr.NotFound("milestone not found")
	}
	if bid.Milestones[idx].IsCompleted {
		return apperr.Conflict("milestone already completed")
	}

	now := time.Now()
	if err := s.bids.CompleteMilestone(ctx, bid.ID, milestoneID, strings.TrimSpace(notes), now); err != nil {
		return err
	}

	s.logger.Info("milestone completed",
		zap.String("project_id", projectID.Hex()),
		zap.String("milestone_id", milestoneID.Hex()),
	)
	return nil
}

// List returns the ledger with aggregates for the owner, the assigned
// freelancer, or an admin.
func (s *MilestoneService) List(ctx context.Context, identity auth.Identity, projectID primitive.ObjectID) (*MilestoneList, error) {
	project, bid, err := s.acceptedBid(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.OwnerID != identity.UserID && bid.FreelancerID != identity.UserID && !identity.IsAdmin() {
		return nil, apperr.Forbidden("not a participant of this project")
	}

	return summarize(bid.Milestones), nil
}

func summarize(milestones []models.Milestone) *MilestoneList {
	total := decimal.Zero
	released := decimal.Zero
	completed := 0
	for i := range milestones {
		total = total.Add(decimal.NewFromFloat(milestones[i].Amount))
		if milestones[i].PaymentReleased {
			released = released.Add(decimal.NewFromFloat(milestones[i].PaymentAmount))
		}
		if milestones[i].IsCompleted {
			completed++
		}
	}
	return &MilestoneList{
		Milestones:     milestones,
		TotalAmount:    total.InexactFloat64(),
		ReleasedAmount: released.InexactFloat64(),
		CompletedCount: completed,
	}
}
