package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role determines which side of the marketplace an account belongs to.
type Role string

const (
	RoleClient     Role = "client"
	RoleFreelancer Role = "freelancer"
	RoleAdmin      Role = "admin"
)

// User model
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName  string             `bson:"fullname" json:"fullname"`
	Email     string             `bson:"email" json:"email"`
	Role      Role               `bson:"role" json:"role"`
	HPassword string             `bson:"password" json:"-"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// BankAccount is a freelancer's payout destination. FundAccountID is the
// gateway-side handle payouts are addressed to; the raw account number is
// never stored here.
type BankAccount struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID        primitive.ObjectID `bson:"user_id" json:"user_id"`
	AccountHolder string             `bson:"account_holder" json:"account_holder"`
	FundAccountID string             `bson:"fund_account_id" json:"fund_account_id"`
	IsVerified    bool               `bson:"is_verified" json:"is_verified"`
	IsPrimary     bool               `bson:"is_primary" json:"is_primary"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
}
