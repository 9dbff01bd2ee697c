package services

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/taskbridge/taskbridge-gobackend/internal/apperr"
	"github.com/taskbridge/taskbridge-gobackend/internal/models"
)

// Common test errors
var (
	ErrMockGateway = errors.New("mock gateway error")
	ErrMockStore   = errors.New("mock store error")
)

// MockProjectStore implements ProjectStore in memory with the same
// conditional-update semantics as the Mongo repository.
type MockProjectStore struct {
	Projects      map[primitive.ObjectID]*models.Project
	OpenEscrowErr error
}

func NewMockProjectStore() *MockProjectStore {
	return &MockProjectStore{Projects: make(map[primitive.ObjectID]*models.Project)}
}

func (m *MockProjectStore) GetProject(ctx context.Context, id primitive.ObjectID) (*models.Project, error) {
	project, ok := m.Projects[id]
	if !ok {
		return nil, apperr.NotFound("project not found")
	}
	copied := *project
	return &copied, nil
}

func (m *MockProjectStore) CreateProject(ctx context.Context, project *models.Project) (primitive.ObjectID, error) {
	project.ID = primitive.NewObjectID()
	m.Projects[project.ID] = project
	return project.ID, nil
}

func (m *MockProjectStore) SetAcceptedBid(ctx context.Context, projectID, bidID primitive.ObjectID) error {
	project, ok := m.Projects[projectID]
	if !ok {
		return apperr.NotFound("project not found")
	}
	if !project.AcceptedBidID.IsZero() {
		return apperr.Conflict("project already has an accepted bid")
	}
	project.AcceptedBidID = bidID
	return nil
}

func (m *MockProjectStore) OpenEscrow(ctx context.Context, id primitive.ObjectID, amount float64, orderID string) error {
	if m.OpenEscrowErr != nil {
		return m.OpenEscrowErr
	}
	project, ok := m.Projects[id]
	if !ok {
		return apperr.NotFound("project not found")
	}
	if project.EscrowStatus == models.EscrowPending || project.EscrowStatus == models.EscrowCompleted {
		return apperr.Conflict("escrow already pending or completed")
	}
	project.EscrowAmount = amount
	project.EscrowOrderID = orderID
	project.EscrowStatus = models.EscrowPending
	project.FinalProjectAmount = amount
	project.EscrowPaymentID = ""
	return nil
}

func (m *MockProjectStore) MarkEscrowCompleted(ctx context.Context, id primitive.ObjectID, paymentID string, at time.Time) error {
	project, ok := m.Projects[id]
	if !ok {
		return apperr.NotFound("project not found")
	}
	if project.EscrowStatus != models.EscrowPending {
		return apperr.Conflict("escrow is not pending")
	}
	project.EscrowStatus = models.EscrowCompleted
	project.EscrowPaymentID = paymentID
	project.EscrowVerifiedAt = &at
	return nil
}

func (m *MockProjectStore) MarkEscrowFailed(ctx context.Context, id primitive.ObjectID) error {
	project, ok := m.Projects[id]
	if !ok {
		return apperr.NotFound("project not found")
	}
	if project.EscrowStatus != models.EscrowPending {
		return apperr.Conflict("escrow is not pending")
	}
	project.EscrowStatus = models.EscrowFailed
	return nil
}

// MockBidStore implements BidStore in memory, mirroring the repository's
// guard conditions.
type MockBidStore struct {
	Bids map[primitive.ObjectID]*models.Bid
}

func NewMockBidStore() *MockBidStore {
	return &MockBidStore{Bids: make(map[primitive.ObjectID]*models.Bid)}
}

func (m *MockBidStore) GetBid(ctx context.Context, id primitive.ObjectID) (*models.Bid, error) {
	bid, ok := m.Bids[id]
	if !ok {
		return nil, apperr.NotFound("bid not found")
	}
	copied := *bid
	copied.Milestones = append([]models.Milestone(nil), bid.Milestones...)
	return &copied, nil
}

func (m *MockBidStore) CreateBid(ctx context.Context, bid *models.Bid) (primitive.ObjectID, error) {
	bid.ID = primitive.NewObjectID()
	if bid.Milestones == nil {
		bid.Milestones = []models.Milestone{}
	}
	m.Bids[bid.ID] = bid
	return bid.ID, nil
}

func (m *MockBidStore) MarkBidAccepted(ctx context.Context, id primitive.ObjectID) error {
	bid, ok := m.Bids[id]
	if !ok {
		return apperr.NotFound("bid not found")
	}
	if bid.Status != models.BidPending {
		return apperr.Conflict("bid is not pending")
	}
	bid.Status = models.BidAccepted
	return nil
}

func (m *MockBidStore) AppendMilestone(ctx context.Context, bidID primitive.ObjectID, milestone models.Milestone) error {
	bid, ok := m.Bids[bidID]
	if !ok {
		return apperr.NotFound("bid not found")
	}
	bid.Milestones = append(bid.Milestones, milestone)
	return nil
}

func (m *MockBidStore) UpdateMilestone(ctx context.Context, bidID, milestoneID primitive.ObjectID, patch models.MilestonePatch) error {
	bid, ok := m.Bids[bidID]
	if !ok {
		return apperr.NotFound("bid not found")
	}
	for i := range bid.Milestones {
		if bid.Milestones[i].ID == milestoneID && !bid.Milestones[i].IsCompleted {
			if patch.Title != nil {
				bid.Milestones[i].Title = *patch.Title
			}
			if patch.Description != nil {
				bid.Milestones[i].Description = *patch.Description
			}
			if patch.Amount != nil {
				bid.Milestones[i].Amount = *patch.Amount
			}
			if patch.DueDate != nil {
				bid.Milestones[i].DueDate = patch.DueDate
			}
			return nil
		}
	}
	return apperr.Conflict("milestone is completed or missing")
}

func (m *MockBidStore) RemoveMilestone(ctx context.Context, bidID, milestoneID primitive.ObjectID) error {
	bid, ok := m.Bids[bidID]
	if !ok {
		return apperr.NotFound("bid not found")
	}
	for i := range bid.Milestones {
		if bid.Milestones[i].ID == milestoneID {
			if bid.Milestones[i].IsCompleted || bid.Milestones[i].PaymentReleased {
				return apperr.Conflict("milestone is completed, released, or missing")
			}
			bid.Milestones = append(bid.Milestones[:i], bid.Milestones[i+1:]...)
			return nil
		}
	}
	return apperr.Conflict("milestone is completed, released, or missing")
}

func (m *MockBidStore) CompleteMilestone(ctx context.Context, bidID, milestoneID primitive.ObjectID, notes string, at time.Time) error {
	bid, ok := m.Bids[bidID]
	if !ok {
		return apperr.NotFound("bid not found")
	}
	for i := range bid.Milestones {
		if bid.Milestones[i].ID == milestoneID && !bid.Milestones[i].IsCompleted {
			bid.Milestones[i].IsCompleted = true
			bid.Milestones[i].CompletedAt = &at
			bid.Milestones[i].CompletionNotes = notes
			return nil
		}
	}
	return apperr.Conflict("milestone already completed or missing")
}

func (m *MockBidStore) ReleaseMilestone(ctx context.Context, bidID, milestoneID primitive.ObjectID, amount float64, payoutID string, at time.Time) error {
	bid, ok := m.Bids[bidID]
	if !ok {
		return apperr.NotFound("bid not found")
	}
	for i := range bid.Milestones {
		if bid.Milestones[i].ID == milestoneID && bid.Milestones[i].IsCompleted && !bid.Milestones[i].PaymentReleased {
			bid.Milestones[i].PaymentReleased = true
			bid.Milestones[i].PaymentAmount = amount
			bid.Milestones[i].PaymentID = payoutID
			bid.Milestones[i].PaymentReleasedAt = &at
			return nil
		}
	}
	return apperr.Conflict("milestone not completed or already released")
}

// MockGateway implements PaymentGateway for testing.
type MockGateway struct {
	CreateOrderCalls  int
	CreateOrderErr    error
	NextOrderID       string
	LastOrderAmount   float64
	CreatePayoutCalls int
	CreatePayoutErr   error
	NextPayoutID      string
	LastPayoutAmount  float64
	LastDestination   string
	ValidSignature    string
	VerifyCalls       int
}

func (m *MockGateway) CreateOrder(ctx context.Context, amount float64, currency, receipt string, notes map[string]string) (string, error) {
	m.CreateOrderCalls++
	m.LastOrderAmount = amount
	if m.CreateOrderErr != nil {
		return "", m.CreateOrderErr
	}
	return m.NextOrderID, nil
}

func (m *MockGateway) VerifySignature(orderID, paymentID, signature string) bool {
	m.VerifyCalls++
	return signature == m.ValidSignature
}

func (m *MockGateway) CreatePayout(ctx context.Context, fundAccountID string, amount float64, currency, reference string) (string, error) {
	m.CreatePayoutCalls++
	m.LastPayoutAmount = amount
	m.LastDestination = fundAccountID
	if m.CreatePayoutErr != nil {
		return "", m.CreatePayoutErr
	}
	return m.NextPayoutID, nil
}

// MockDestinationStore implements DestinationStore for testing.
type MockDestinationStore struct {
	Accounts map[primitive.ObjectID]*models.BankAccount
}

func NewMockDestinationStore() *MockDestinationStore {
	return &MockDestinationStore{Accounts: make(map[primitive.ObjectID]*models.BankAccount)}
}

func (m *MockDestinationStore) PrimaryVerifiedDestination(ctx context.Context, userID primitive.ObjectID) (*models.BankAccount, error) {
	return m.Accounts[userID], nil
}

// MockHistorySink implements HistorySink for testing.
type MockHistorySink struct {
	Records []*models.PaymentRecord
	Err     error
}

func (m *MockHistorySink) Record(ctx context.Context, record *models.PaymentRecord) error {
	if m.Err != nil {
		return m.Err
	}
	m.Records = append(m.Records, record)
	return nil
}
