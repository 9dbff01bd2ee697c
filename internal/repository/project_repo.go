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

// ProjectRepository owns the projects collection. Every escrow state
// transition is a conditional UpdateOne so the document store is the
// serialization point for concurrent requests.
type ProjectRepository struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

func NewProjectRepository(database *mongo.Database, logger *zap.Logger) *ProjectRepository {
	return &ProjectRepository{collection: database.Collection("projects"), logger: logger}
}

func (r *ProjectRepository) GetProject(ctx context.Context, id primitive.ObjectID) (*models.Project, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var project models.Project
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&project); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFound("project not found")
		}
		return nil, apperr.Internal(err, "failed to fetch project")
	}
	return &project, nil
}

func (r *ProjectRepository) CreateProject(ctx context.Context, project *models.Project) (primitive.ObjectID, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	project.ID = primitive.NewObjectID()
	project.CreatedAt = time.Now()
	project.UpdatedAt = project.CreatedAt
	if _, err := r.collection.InsertOne(ctx, project); err != nil {
		return primitive.NilObjectID, apperr.Internal(err, "failed to save project")
	}
	return project.ID, nil
}

// SetAcceptedBid writes the accepted bid pointer only if none is set yet, so
// concurrent accepts resolve to a single winner.
func (r *ProjectRepository) SetAcceptedBid(ctx context.Context, projectID, bidID primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"_id": projectID,
		"$or": []bson.M{
			{"accepted_bid_id": bson.M{"$exists": false}},
			{"accepted_bid_id": primitive.NilObjectID},
		},
	}
	update := bson.M{"$set": bson.M{
		"accepted_bid_id": bidID,
		"updated_at":      time.Now(),
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return apperr.Internal(err, "failed to accept bid")
	}
	if result.MatchedCount == 0 {
		return apperr.Conflict("project already has an accepted bid")
	}
	return nil
}

// OpenEscrow persists the four escrow fields in one update, guarded so a
// pending or completed escrow can never be overwritten.
func (r *ProjectRepository) OpenEscrow(ctx context.Context, id primitive.ObjectID, amount float64, orderID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"_id":           id,
		"escrow_status": bson.M{"$nin": []models.EscrowStatus{models.EscrowPending, models.EscrowCompleted}},
	}
	update := bson.M{"$set": bson.M{
		"escrow_amount":        amount,
		"escrow_order_id":      orderID,
		"escrow_status":        models.EscrowPending,
		"final_project_amount": amount,
		"escrow_payment_id":    "",
		"updated_at":           time.Now(),
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return apperr.Internal(err, "failed to open escrow")
	}
	if result.MatchedCount == 0 {
		return apperr.Conflict("escrow already pending or completed")
	}
	return nil
}

// MarkEscrowCompleted flips pending to completed; completed is terminal.
func (r *ProjectRepository) MarkEscrowCompleted(ctx context.Context, id primitive.ObjectID, paymentID string, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"_id": id, "escrow_status": models.EscrowPending}
	update := bson.M{"$set": bson.M{
		"escrow_status":      models.EscrowCompleted,
		"escrow_payment_id":  paymentID,
		"escrow_verified_at": at,
		"updated_at":         at,
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return apperr.Internal(err, "failed to mark escrow completed")
	}
	if result.MatchedCount == 0 {
		return apperr.Conflict("escrow is not pending")
	}
	return nil
}

// MarkEscrowFailed is the reset path; only a pending escrow can fail.
func (r *ProjectRepository) MarkEscrowFailed(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"_id": id, "escrow_status": models.EscrowPending}
	update := bson.M{"$set": bson.M{
		"escrow_status": models.EscrowFailed,
		"updated_at":    time.Now(),
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return apperr.Internal(err, "failed to reset escrow")
	}
	if result.MatchedCount == 0 {
		return apperr.Conflict("escrow is not pending")
	}
	return nil
}
