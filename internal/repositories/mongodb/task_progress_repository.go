package mongodb

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/carvfi/carvfi-backend/internal/models"
	"github.com/carvfi/carvfi-backend/internal/repositories"
)

// Compile-time check to ensure TaskProgressRepository implements the interface
var _ repositories.TaskProgressRepository = (*TaskProgressRepository)(nil)

// TaskProgressRepository handles MongoDB operations for task progress,
// keyed by the composite (walletAddress, taskId).
type TaskProgressRepository struct {
	collection *mongo.Collection
}

// NewTaskProgressRepository creates a new TaskProgressRepository
func NewTaskProgressRepository(db *mongo.Database) *TaskProgressRepository {
	return &TaskProgressRepository{
		collection: db.Collection("task_progress"),
	}
}

// Find returns the progress record for one (wallet, task) pair
func (r *TaskProgressRepository) Find(ctx context.Context, wallet, taskID string) (*models.TaskProgress, error) {
	var progress models.TaskProgress
	filter := bson.M{"walletAddress": wallet, "taskId": taskID}
	err := r.collection.FindOne(ctx, filter).Decode(&progress)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &progress, nil
}

// FindByWallet returns all progress records for a user
func (r *TaskProgressRepository) FindByWallet(ctx context.Context, wallet string) ([]*models.TaskProgress, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"walletAddress": wallet})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []*models.TaskProgress
	if err = cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []*models.TaskProgress{}
	}
	return records, nil
}

// Upsert writes the progress record for a (wallet, task) pair, creating
// it on first claim
func (r *TaskProgressRepository) Upsert(ctx context.Context, progress *models.TaskProgress) error {
	now := time.Now().UTC()
	filter := bson.M{"walletAddress": progress.WalletAddress, "taskId": progress.TaskID}
	update := bson.M{
		"$set": bson.M{
			"status":        progress.Status,
			"completedAt":   progress.CompletedAt,
			"lastClaimedAt": progress.LastClaimedAt,
			"updatedAt":     now,
		},
		"$setOnInsert": bson.M{
			"_id":       primitive.NewObjectID(),
			"createdAt": now,
		},
	}
	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}
