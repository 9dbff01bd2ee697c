package services

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskbridge/taskbridge-gobackend/internal/apperr"
	"github.com/taskbridge/taskbridge-gobackend/internal/auth"
	"github.com/taskbridge/taskbridge-gobackend/internal/models"
)

// UserStore persists accounts and their payout destinations.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) (primitive.ObjectID, error)
	GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateBankAccount(ctx context.Context, account *models.BankAccount) (primitive.ObjectID, error)
	PrimaryVerifiedDestination(ctx context.Context, userID primitive.ObjectID) (*models.BankAccount, error)
}

type UserService struct {
	users  UserStore
	tokens *auth.Manager
	logger *zap.Logger
}

func NewUserService(users UserStore, tokens *auth.Manager, logger *zap.Logger) *UserService {
	return &UserService{users: users, tokens: tokens, logger: logger}
}

type RegisterInput struct {
	FullName string `json:"fullname"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Register creates a client or freelancer account.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	input.FullName = strings.TrimSpace(input.FullName)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	if input.FullName == "" || input.Email == "" {
		return nil, apperr.InvalidArgument("fullname and email are required")
	}
	if len(input.Password) < 8 {
		return nil, apperr.InvalidArgument("password must be at least 8 characters")
	}
	role := models.Role(input.Role)
	if role != models.RoleClient && role != models.RoleFreelancer {
		return nil, apperr.InvalidArgument("role must be client or freelancer")
	}

	if existing, err := s.users.GetUserByEmail(ctx, input.Email); err == nil && existing != nil {
		return nil, apperr.Conflict("email already registered")
	} else if err != nil && !apperr.IsCode(err, apperr.CodeNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Internal(err, "failed to hash password")
	}

	user := &models.User{
		FullName:  input.FullName,
		Email:     input.Email,
		Role:      role,
		HPassword: string(hashed),
	}
	if _, err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		zap.String("user_id", user.ID.Hex()),
		zap.String("role", string(role)),
	)
	return user, nil
}

// Login verifies credentials and issues a session token.
func (s *UserService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if apperr.IsCode(err, apperr.CodeNotFound) {
			return "", nil, apperr.Unauthenticated("invalid email or password")
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HPassword), []byte(password)); err != nil {
		return "", nil, apperr.Unauthenticated("invalid email or password")
	}

	token, err := s.tokens.IssueToken(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

type AddBankAccountInput struct {
	AccountHolder string `json:"account_holder"`
	FundAccountID string `json:"fund_account_id"`
	IsPrimary     bool   `json:"is_primary"`
}

// AddBankAccount registers a payout destination for a freelancer. Accounts
// start unverified; verification is an out-of-band operations concern.
func (s *UserService) AddBankAccount(ctx context.Context, identity auth.Identity, input AddBankAccountInput) (*models.BankAccount, error) {
	if identity.Role != models.RoleFreelancer {
		return nil, apperr.Forbidden("only freelancers can register payout destinations")
	}
	input.AccountHolder = strings.TrimSpace(input.AccountHolder)
	input.FundAccountID = strings.TrimSpace(input.FundAccountID)
	if input.AccountHolder == "" || input.FundAccountID == "" {
		return nil, apperr.InvalidArgument("account_holder and fund_account_id are required")
	}

	account := &models.BankAccount{
		UserID:        identity.UserID,
		AccountHolder: input.AccountHolder,
		FundAccountID: input.FundAccountID,
		IsPrimary:     input.IsPrimary,
	}
	if _, err := s.users.CreateBankAccount(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}
