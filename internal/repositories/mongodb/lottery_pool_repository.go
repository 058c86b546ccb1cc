package mongodb

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/carvfi/carvfi-backend/internal/models"
	"github.com/carvfi/carvfi-backend/internal/repositories"
)

// Compile-time check to ensure LotteryPoolRepository implements the interface
var _ repositories.LotteryPoolRepository = (*LotteryPoolRepository)(nil)

// LotteryPoolRepository handles MongoDB operations for lottery pools.
// Every mutation is conditional on pool status, which is what keeps
// completed pools immutable and settlement single-shot under concurrent
// triggers.
type LotteryPoolRepository struct {
	collection *mongo.Collection
}

// NewLotteryPoolRepository creates a new LotteryPoolRepository
func NewLotteryPoolRepository(db *mongo.Database) *LotteryPoolRepository {
	return &LotteryPoolRepository{
		collection: db.Collection("lottery_pools"),
	}
}

// Create inserts a new open pool
func (r *LotteryPoolRepository) Create(ctx context.Context, pool *models.LotteryPool) error {
	now := time.Now().UTC()
	pool.CreatedAt = now
	pool.UpdatedAt = now
	if pool.Participants == nil {
		pool.Participants = []string{}
	}
	_, err := r.collection.InsertOne(ctx, pool)
	return err
}

// FindByID finds a pool by its period-derived ID
func (r *LotteryPoolRepository) FindByID(ctx context.Context, id string) (*models.LotteryPool, error) {
	var pool models.LotteryPool
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&pool)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &pool, nil
}

// FindByStatus retrieves all pools in the given lifecycle state
func (r *LotteryPoolRepository) FindByStatus(ctx context.Context, status models.PoolStatus) ([]*models.LotteryPool, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"status": status})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var pools []*models.LotteryPool
	if err = cursor.All(ctx, &pools); err != nil {
		return nil, err
	}
	if pools == nil {
		pools = []*models.LotteryPool{}
	}
	return pools, nil
}

// AddEntries appends one participant entry per ticket and grows the prize
// pool by the purchase amount in a single write, gated on the pool being
// open
func (r *LotteryPoolRepository) AddEntries(ctx context.Context, poolID string, wallets []string, amount int) error {
	filter := bson.M{"_id": poolID, "status": models.PoolStatusOpen}
	update := bson.M{
		"$inc":  bson.M{"prizePool": amount},
		"$push": bson.M{"participants": bson.M{"$each": wallets}},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repositories.ErrConditionFailed
	}
	return nil
}

// AddToPrizePool grows an open pool's fund without adding participants
func (r *LotteryPoolRepository) AddToPrizePool(ctx context.Context, poolID string, amount int) error {
	filter := bson.M{"_id": poolID, "status": models.PoolStatusOpen}
	update := bson.M{
		"$inc": bson.M{"prizePool": amount},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repositories.ErrConditionFailed
	}
	return nil
}

// TransitionStatus atomically flips a pool between lifecycle states
func (r *LotteryPoolRepository) TransitionStatus(ctx context.Context, poolID string, from, to models.PoolStatus) error {
	filter := bson.M{"_id": poolID, "status": from}
	update := bson.M{"$set": bson.M{"status": to, "updatedAt": time.Now().UTC()}}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repositories.ErrConditionFailed
	}
	return nil
}

// FinalizeDraw records winners and drawnAt and completes the pool
func (r *LotteryPoolRepository) FinalizeDraw(ctx context.Context, pool *models.LotteryPool) error {
	filter := bson.M{"_id": pool.ID}
	update := bson.M{"$set": bson.M{
		"status":    models.PoolStatusCompleted,
		"winners":   pool.Winners,
		"drawnAt":   pool.DrawnAt,
		"updatedAt": time.Now().UTC(),
	}}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}
