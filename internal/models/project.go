package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EscrowStatus tracks funding of a project's escrow hold. Transitions are
// monotonic except pending->failed (explicit reset) and failed->pending
// (recreation); completed is terminal.
type EscrowStatus string

const (
	EscrowNotCreated EscrowStatus = "not_created"
	EscrowPending    EscrowStatus = "pending"
	EscrowCompleted  EscrowStatus = "completed"
	EscrowFailed     EscrowStatus = "failed"
)

type BidStatus string

const (
	BidPending  BidStatus = "pending"
	BidAccepted BidStatus = "accepted"
	BidRejected BidStatus = "rejected"
)

// Project embeds its escrow account fields. FinalProjectAmount is fixed at
// escrow creation and is the sole basis for milestone payout math.
type Project struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID            primitive.ObjectID `bson:"owner_id" json:"owner_id"`
	Title              string             `bson:"title" json:"title"`
	AcceptedBidID      primitive.ObjectID `bson:"accepted_bid_id,omitempty" json:"accepted_bid_id,omitempty"`
	EscrowAmount       float64            `bson:"escrow_amount,omitempty" json:"escrow_amount,omitempty"`
	EscrowOrderID      string             `bson:"escrow_order_id,omitempty" json:"escrow_order_id,omitempty"`
	EscrowPaymentID    string             `bson:"escrow_payment_id,omitempty" json:"escrow_payment_id,omitempty"`
	EscrowStatus       EscrowStatus       `bson:"escrow_status,omitempty" json:"escrow_status,omitempty"`
	EscrowVerifiedAt   *time.Time         `bson:"escrow_verified_at,omitempty" json:"escrow_verified_at,omitempty"`
	FinalProjectAmount float64            `bson:"final_project_amount,omitempty" json:"final_project_amount,omitempty"`
	CreatedAt          time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt          time.Time          `bson:"updated_at" json:"updated_at"`
}

// HasAcceptedBid reports whether a bid has been accepted for this project.
func (p *Project) HasAcceptedBid() bool {
	return !p.AcceptedBidID.IsZero()
}

// Status returns the escrow status, mapping an unset field to not_created.
func (p *Project) Status() EscrowStatus {
	if p.EscrowStatus == "" {
		return EscrowNotCreated
	}
	return p.EscrowStatus
}

// Milestone is an element of Bid.Milestones. The ObjectID is its stable
// identity; array position determines the payout share. Amount is the
// freelancer's own estimate and never feeds payout math; PaymentAmount is
// what was actually paid out.
type Milestone struct {
	ID                primitive.ObjectID `bson:"_id" json:"id"`
	Title             string             `bson:"title" json:"title"`
	Description       string             `bson:"description,omitempty" json:"description,omitempty"`
	Amount            float64            `bson:"amount" json:"amount"`
	DueDate           *time.Time         `bson:"due_date,omitempty" json:"due_date,omitempty"`
	IsCompleted       bool               `bson:"is_completed" json:"is_completed"`
	CompletedAt       *time.Time         `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
	CompletionNotes   string             `bson:"completion_notes,omitempty" json:"completion_notes,omitempty"`
	PaymentReleased   bool               `bson:"payment_released" json:"payment_released"`
	PaymentAmount     float64            `bson:"payment_amount,omitempty" json:"payment_amount,omitempty"`
	PaymentID         string             `bson:"payment_id,omitempty" json:"payment_id,omitempty"`
	PaymentReleasedAt *time.Time         `bson:"payment_released_at,omitempty" json:"payment_released_at,omitempty"`
}

// Bid owns the ordered milestone list once accepted.
type Bid struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProjectID    primitive.ObjectID `bson:"project_id" json:"project_id"`
	FreelancerID primitive.ObjectID `bson:"freelancer_id" json:"freelancer_id"`
	Status       BidStatus          `bson:"status" json:"status"`
	Milestones   []Milestone        `bson:"milestones" json:"milestones"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// MilestoneIndex returns the array position of the milestone with the given
// id, or -1 when absent.
func (b *Bid) MilestoneIndex(id primitive.ObjectID) int {
	for i := range b.Milestones {
		if b.Milestones[i].ID == id {
			return i
		}
	}
	return -1
}

// MilestonePatch carries the editable milestone fields; nil means leave
// unchanged.
type MilestonePatch struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Amount      *float64   `json:"amount,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p MilestonePatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Amount == nil && p.DueDate == nil
}
