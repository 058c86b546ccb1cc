package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/carvfi/carvfi-backend/internal/models"
	"github.com/carvfi/carvfi-backend/internal/repositories"
)

// Compile-time check to ensure PointTransactionRepository implements the interface
var _ repositories.PointTransactionRepository = (*PointTransactionRepository)(nil)

// PointTransactionRepository handles MongoDB operations for the GEM ledger
type PointTransactionRepository struct {
	collection *mongo.Collection
}

// NewPointTransactionRepository creates a new PointTransactionRepository
func NewPointTransactionRepository(db *mongo.Database) *PointTransactionRepository {
	return &PointTransactionRepository{
		collection: db.Collection("point_transactions"),
	}
}

// Create appends a new ledger entry
func (r *PointTransactionRepository) Create(ctx context.Context, txn *models.PointTransaction) error {
	txn.ID = primitive.NewObjectID()
	txn.CreatedAt = time.Now().UTC()
	_, err := r.collection.InsertOne(ctx, txn)
	return err
}

// FindByWallet returns a user's full transaction history, newest first
func (r *PointTransactionRepository) FindByWallet(ctx context.Context, wallet string) ([]*models.PointTransaction, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{"walletAddress": wallet}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var transactions []*models.PointTransaction
	if err = cursor.All(ctx, &transactions); err != nil {
		return nil, err
	}
	if transactions == nil {
		transactions = []*models.PointTransaction{}
	}
	return transactions, nil
}

// ExistsByTxRef reports whether an entry with the given idempotency
// reference already exists for the wallet
func (r *PointTransactionRepository) ExistsByTxRef(ctx context.Context, wallet, txRef string) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"walletAddress": wallet, "txRef": txRef})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// SumByWallet aggregates the signed amounts of a wallet's history
func (r *PointTransactionRepository) SumByWallet(ctx context.Context, wallet string) (int, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"walletAddress": wallet}}},
		bson.D{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$amount"}}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var results []struct {
		Total int `bson:"total"`
	}
	if err = cursor.All(ctx, &results); err != nil {
		return 0, err
	}
	if len(results) == 0 {
		return 0, nil
	}
	return results[0].Total, nil
}
