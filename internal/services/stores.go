package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/taskbridge/taskbridge-gobackend/internal/models"
)

// ProjectStore is the persistence surface for projects and their embedded
// escrow account. The escrow transitions are conditional updates: the store
// reports Conflict when the guard no longer holds, which makes it the
// serialization point for concurrent requests.
type ProjectStore interface {
	GetProject(ctx context.Context, id primitive.ObjectID) (*models.Project, error)
	CreateProject(ctx context.Context, project *models.Project) (primitive.ObjectID, error)
	SetAcceptedBid(ctx context.Context, projectID, bidID primitive.ObjectID) error
	OpenEscrow(ctx context.Context, id primitive.ObjectID, amount float64, orderID string) error
	MarkEscrowCompleted(ctx context.Context, id primitive.ObjectID, paymentID string, at time.Time) error
	MarkEscrowFailed(ctx context.Context, id primitive.ObjectID) error
}

// BidStore persists bids and their embedded milestone list. Milestone
// mutations are conditional on the completion/release guard flags.
type BidStore interface {
	GetBid(ctx context.Context, id primitive.ObjectID) (*models.Bid, error)
	CreateBid(ctx context.Context, bid *models.Bid) (primitive.ObjectID, error)
	MarkBidAccepted(ctx context.Context, id primitive.ObjectID) error
	AppendMilestone(ctx context.Context, bidID primitive.ObjectID, milestone models.Milestone) error
	UpdateMilestone(ctx context.Context, bidID, milestoneID primitive.ObjectID, patch models.MilestonePatch) error
	RemoveMilestone(ctx context.Context, bidID, milestoneID primitive.ObjectID) error
	CompleteMilestone(ctx context.Context, bidID, milestoneID primitive.ObjectID, notes string, at time.Time) error
	ReleaseMilestone(ctx context.Context, bidID, milestoneID primitive.ObjectID, amount float64, payoutID string, at time.Time) error
}

// PaymentGateway is the external payment collaborator.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amount float64, currency, receipt string, notes map[string]string) (string, error)
	VerifySignature(orderID, paymentID, signature string) bool
	CreatePayout(ctx context.Context, fundAccountID string, amount float64, currency, reference string) (string, error)
}

// DestinationStore looks up a recipient's verified primary payout
// destination; (nil, nil) means none on file.
type DestinationStore interface {
	PrimaryVerifiedDestination(ctx context.Context, userID primitive.ObjectID) (*models.BankAccount, error)
}

// HistorySink receives append-only payment audit records.
type HistorySink interface {
	Record(ctx context.Context, record *models.PaymentRecord) error
}
