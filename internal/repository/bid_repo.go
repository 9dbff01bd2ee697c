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

// BidRepository owns the bids collection and the milestone array embedded in
// each bid. Milestone mutations filter on $elemMatch by milestone id plus
// the guard flags, so completed or released milestones can never be touched
// by a racing request.
type BidRepository struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

func NewBidRepository(database *mongo.Database, logger *zap.Logger) *BidRepository {
	return &BidRepository{collection: database.Collection("bids"), logger: logger}
}

func (r *BidRepository) GetBid(ctx context.Context, id primitive.ObjectID) (*models.Bid, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var bid models.Bid
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&bid); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFound("bid not found")
		}
		return nil, apperr.Internal(err, "failed to fetch bid")
	}
	return &bid, nil
}

func (r *BidRepository) CreateBid(ctx context.Context, bid *models.Bid) (primitive.ObjectID, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	bid.ID = primitive.NewObjectID()
	bid.CreatedAt = time.Now()
	bid.UpdatedAt = bid.CreatedAt
	if bid.Milestones == nil {
		bid.Milestones = []models.Milestone{}
	}
	if _, err := r.collection.InsertOne(ctx, bid); err != nil {
		return primitive.NilObjectID, apperr.Internal(err, "failed to save bid")
	}
	return bid.ID, nil
}

func (r *BidRepository) MarkBidAccepted(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"_id": id, "status": models.BidPending}
	update := bson.M{"$set": bson.M{
		"status":     models.BidAccepted,
		"updated_at": time.Now(),
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return apperr.Internal(err, "failed to mark bid accepted")
	}
	if result.MatchedCount == 0 {
		return apperr.Conflict("bid is not pending")
	}
	return nil
}

func (r *BidRepository) AppendMilestone(ctx context.Context, bidID primitive.ObjectID, milestone models.Milestone) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{
		"$push": bson.M{"milestones": milestone},
		"$set":  bson.M{"updated_at": time.Now()},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": bidID}, update)
	if err != nil {
		return apperr.Internal(err, "failed to append milestone")
	}
	if result.MatchedCount == 0 {
		return apperr.NotFound("bid not found")
	}
	return nil
}

func (r *BidRepository) UpdateMilestone(ctx context.Context, bidID, milestoneID primitive.ObjectID, patch models.MilestonePatch) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	set := bson.M{"updated_at": time.Now()}
	if patch.Title != nil {
		set["milestones.$.title"] = *patch.Title
	}
	if patch.Description != nil {
		set["milestones.$.description"] = *patch.Description
	}
	if patch.Amount != nil {
		set["milestones.$.amount"] = *patch.Amount
	}
	if patch.DueDate != nil {
		set["milestones.$.due_date"] = *patch.DueDate
	}

	filter := bson.M{
		"_id": bidID,
		"milestones": bson.M{"$elemMatch": bson.M{
			"_id":          milestoneID,
			"is_completed": false,
		}},
	}
	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return apperr.Internal(err, "failed to update milestone")
	}
	if result.MatchedCount == 0 {
		return apperr.Conflict("milestone is completed or missing")
	}
	return nil
}

func (r *BidRepository) RemoveMilestone(ctx context.Context, bidID, milestoneID primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{
		"$pull": bson.M{"milestones": bson.M{
			"_id":              milestoneID,
			"is_completed":     false,
			"payment_released": false,
		}},
		"$set": bson.M{"updated_at": time.Now()},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": bidID}, update)
	if err != nil {
		return apperr.Internal(err, "failed to remove milestone")
	}
	if result.MatchedCount == 0 {
		return apperr.NotFound("bid not found")
	}
	if result.ModifiedCount == 0 {
		return apperr.Conflict("milestone is completed, released, or missing")
	}
	return nil
}

func (r *BidRepository) CompleteMilestone(ctx context.Context, bidID, milestoneID primitive.ObjectID, notes string, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"_id": bidID,
		"milestones": bson.M{"$elemMatch": bson.M{
			"_id":          milestoneID,
			"is_completed": false,
		}},
	}
	update := bson.M{"$set": bson.M{
		"milestones.$.is_completed":     true,
		"milestones.$.completed_at":     at,
		"milestones.$.completion_notes": notes,
		"updated_at":                    at,
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return apperr.Internal(err, "failed to complete milestone")
	}
	if result.MatchedCount == 0 {
		return apperr.Conflict("milestone already completed or missing")
	}
	return nil
}

// ReleaseMilestone is the compare-and-set the release flow depends on: the
// payment fields are written only if payment_released is still false.
func (r *BidRepository) ReleaseMilestone(ctx context.Context, bidID, milestoneID primitive.ObjectID, amount float64, payoutID string, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"_id": bidID,
		"milestones": bson.M{"$elemMatch": bson.M{
			"_id":              milestoneID,
			"is_completed":     true,
			"payment_released": false,
		}},
	}
	update := bson.M{"$set": bson.M{
		"milestones.$.payment_released":    true,
		"milestones.$.payment_amount":      amount,
		"milestones.$.payment_id":          payoutID,
		"milestones.$.payment_released_at": at,
		"updated_at":                       at,
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return apperr.Internal(err, "failed to record milestone release")
	}
	if result.MatchedCount == 0 {
		return apperr.Conflict("milestone not completed or already released")
	}
	return nil
}
