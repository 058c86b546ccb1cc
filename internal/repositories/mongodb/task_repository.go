package mongodb

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/carvfi/carvfi-backend/internal/models"
	"github.com/carvfi/carvfi-backend/internal/repositories"
)

// Compile-time check to ensure TaskRepository implements the interface
var _ repositories.TaskRepository = (*TaskRepository)(nil)

// TaskRepository handles MongoDB operations for task configs
type TaskRepository struct {
	collection *mongo.Collection
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *mongo.Database) *TaskRepository {
	return &TaskRepository{
		collection: db.Collection("tasks"),
	}
}

// Upsert inserts or replaces a task config by its slug ID
func (r *TaskRepository) Upsert(ctx context.Context, task *models.Task) error {
	now := time.Now().UTC()
	task.UpdatedAt = now

	update := bson.M{
		"$set": bson.M{
			"title":       task.Title,
			"description": task.Description,
			"type":        task.Type,
			"platform":    task.Platform,
			"action":      task.Action,
			"url":         task.URL,
			"icon":        task.Icon,
			"points":      task.Points,
			"frequency":   task.Frequency,
			"isActive":    task.IsActive,
			"updatedAt":   now,
		},
		"$setOnInsert": bson.M{"createdAt": now},
	}

	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": task.ID}, update, options.Update().SetUpsert(true))
	return err
}

// FindByID finds a task config by its slug ID
func (r *TaskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	var task models.Task
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&task)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &task, nil
}

// FindAllActive retrieves all task configs that are not soft-deleted
func (r *TaskRepository) FindAllActive(ctx context.Context) ([]*models.Task, error) {
	return r.find(ctx, bson.M{"isActive": true})
}

// FindAll retrieves every task config, including inactive ones
func (r *TaskRepository) FindAll(ctx context.Context) ([]*models.Task, error) {
	return r.find(ctx, bson.M{})
}

func (r *TaskRepository) find(ctx context.Context, filter bson.M) ([]*models.Task, error) {
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var tasks []*models.Task
	if err = cursor.All(ctx, &tasks); err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []*models.Task{}
	}
	return tasks, nil
}

// SetActive soft-deletes or re-activates a task config
func (r *TaskRepository) SetActive(ctx context.Context, id string, active bool) error {
	update := bson.M{"$set": bson.M{"isActive": active, "updatedAt": time.Now().UTC()}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// Count returns the number of task configs
func (r *TaskRepository) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}
