package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/taskbridge/taskbridge-gobackend/internal/apperr"
	"github.com/taskbridge/taskbridge-gobackend/internal/models"
)

type UserRepository struct {
	users        *mongo.Collection
	bankAccounts *mongo.Collection
	logger       *zap.Logger
}

func NewUserRepository(database *mongo.Database, logger *zap.Logger) *UserRepository {
	return &UserRepository{
		users:        database.Collection("users"),
		bankAccounts: database.Collection("bank_accounts"),
		logger:       logger,
	}
}

func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) (primitive.ObjectID, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now()
	if _, err := r.users.InsertOne(ctx, user); err != nil {
		return primitive.NilObjectID, apperr.Internal(err, "failed to save user")
	}
	return user.ID, nil
}

func (r *UserRepository) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var user models.User
	if err := r.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Internal(err, "failed to fetch user")
	}
	return &user, nil
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var user models.User
	if err := r.users.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Internal(err, "failed to fetch user")
	}
	return &user, nil
}

func (r *UserRepository) CreateBankAccount(ctx context.Context, account *models.BankAccount) (primitive.ObjectID, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	account.ID = primitive.NewObjectID()
	account.CreatedAt = time.Now()
	if _, err := r.bankAccounts.InsertOne(ctx, account); err != nil {
		return primitive.NilObjectID, apperr.Internal(err, "failed to save bank account")
	}
	return account.ID, nil
}

// PrimaryVerifiedDestination returns the payout destination for a recipient,
// or (nil, nil) when none is on file.
func (r *UserRepository) PrimaryVerifiedDestination(ctx context.Context, userID primitive.ObjectID) (*models.BankAccount, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"user_id": userID, "is_verified": true, "is_primary": true}
	var account models.BankAccount
	if err := r.bankAccounts.FindOne(ctx, filter).Decode(&account); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, apperr.Internal(err, "failed to fetch bank account")
	}
	return &account, nil
}
