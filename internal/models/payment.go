package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Payment history entry statuses.
const (
	PaymentEscrowFunded      = "ESCROW_FUNDED"
	PaymentMilestoneReleased = "MILESTONE_RELEASED"
	PaymentWebhookEvent      = "WEBHOOK_EVENT"
)

// PaymentRecord is an append-only audit entry; nothing in the escrow flow
// reads it back.
type PaymentRecord struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user_id,omitempty" json:"user_id,omitempty"`
	ProjectID primitive.ObjectID `bson:"project_id,omitempty" json:"project_id,omitempty"`
	OrderID   string             `bson:"order_id,omitempty" json:"order_id,omitempty"`
	PaymentID string             `bson:"payment_id,omitempty" json:"payment_id,omitempty"`
	Amount    float64            `bson:"amount" json:"amount"`
	Currency  string             `bson:"currency" json:"currency"`
	Status    string             `bson:"status" json:"status"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
