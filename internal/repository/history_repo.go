package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/taskbridge/taskbridge-gobackend/internal/apperr"
	"github.com/taskbridge/taskbridge-gobackend/internal/models"
)

// HistoryRepository is the append-only payment audit log.
type HistoryRepository struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

func NewHistoryRepository(database *mongo.Database, logger *zap.Logger) *HistoryRepository {
	return &HistoryRepository{collection: database.Collection("payment_history"), logger: logger}
}

func (r *HistoryRepository) Record(ctx context.Context, record *models.PaymentRecord) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	record.CreatedAt = time.Now()
	if _, err := r.collection.InsertOne(ctx, record); err != nil {
		return apperr.Internal(err, "failed to record payment history")
	}
	return nil
}
