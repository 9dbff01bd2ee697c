package services

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/taskbridge/taskbridge-gobackend/internal/apperr"
	"github.com/taskbridge/taskbridge-gobackend/internal/auth"
	"github.com/taskbridge/taskbridge-gobackend/internal/models"
)

// ProjectService covers the setup flow that leads into escrow: a client
// posts a project, freelancers bid, the owner accepts one bid. Accepting is
// the point where the milestone ledger and escrow become available.
type ProjectService struct {
	projects ProjectStore
	bids     BidStore
	logger   *zap.Logger
}

func NewProjectService(projects ProjectStore, bids BidStore, logger *zap.Logger) *ProjectService {
	return &ProjectService{projects: projects, bids: bids, logger: logger}
}

// Create posts a new project owned by the calling client.
func (s *ProjectService) Create(ctx context.Context, identity auth.Identity, title string) (*models.Project, error) {
	if identity.Role != models.RoleClient {
		return nil, apperr.Forbidden("only clients can post projects")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperr.InvalidArgument("title is required")
	}

	project := &models.Project{OwnerID: identity.UserID, Title: title}
	if _, err := s.projects.CreateProject(ctx, project); err != nil {
		return nil, err
	}

	s.logger.Info("project created",
		zap.String("project_id", project.ID.Hex()),
		zap.String("owner_id", identity.UserID.Hex()),
	)
	return project, nil
}

// SubmitBid registers a freelancer's bid on an open project.
func (s *ProjectService) SubmitBid(ctx context.Context, identity auth.Identity, projectID primitive.ObjectID) (*models.Bid, error) {
	if identity.Role != models.RoleFreelancer {
		return nil, apperr.Forbidden("only freelancers can bid")
	}

	project, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.HasAcceptedBid() {
		return nil, apperr.Conflict("project already has an accepted bid")
	}
	if project.OwnerID == identity.UserID {
		return nil, apperr.Forbidden("cannot bid on your own project")
	}

	bid := &models.Bid{
		ProjectID:    projectID,
		FreelancerID: identity.UserID,
		Status:       models.BidPending,
	}
	if _, err := s.bids.CreateBid(ctx, bid); err != nil {
		return nil, err
	}
	return bid, nil
}

// AcceptBid assigns a pending bid to the project. The accepted_bid_id write
// is conditional on no bid being accepted yet, so two concurrent accepts
// cannot both win.
func (s *ProjectService) AcceptBid(ctx context.Context, identity auth.Identity, projectID, bidID primitive.ObjectID) error {
	project, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return err
	}
	if project.OwnerID != identity.UserID {
		return apperr.Forbidden("only the project owner can accept bids")
	}
	if project.HasAcceptedBid() {
		return apperr.Conflict("project already has an accepted bid")
	}

	bid, err := s.bids.GetBid(ctx, bidID)
	if err != nil {
		return err
	}
	if bid.ProjectID != projectID {
		return apperr.InvalidArgument("bid does not belong to this project")
	}
	if bid.Status != models.BidPending {
		return apperr.Conflict("bid is not pending")
	}

	if err := s.projects.SetAcceptedBid(ctx, projectID, bidID); err != nil {
		return err
	}
	// The pointer on the project is what the ledger and escrow key off; the
	// bid's own status field is informational.
	if err := s.bids.MarkBidAccepted(ctx, bidID); err != nil {
		s.logger.Warn("accepted bid status not updated",
			zap.String("bid_id", bidID.Hex()),
			zap.Error(err),
		)
	}

	s.logger.Info("bid accepted",
		zap.String("project_id", projectID.Hex()),
		zap.String("bid_id", bidID.Hex()),
	)
	return nil
}
