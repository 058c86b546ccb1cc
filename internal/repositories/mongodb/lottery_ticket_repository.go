package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/carvfi/carvfi-backend/internal/models"
	"github.com/carvfi/carvfi-backend/internal/repositories"
)

// Compile-time check to ensure LotteryTicketRepository implements the interface
var _ repositories.LotteryTicketRepository = (*LotteryTicketRepository)(nil)

// LotteryTicketRepository handles MongoDB operations for ticket receipts
type LotteryTicketRepository struct {
	collection *mongo.Collection
}

// NewLotteryTicketRepository creates a new LotteryTicketRepository
func NewLotteryTicketRepository(db *mongo.Database) *LotteryTicketRepository {
	return &LotteryTicketRepository{
		collection: db.Collection("lottery_tickets"),
	}
}

// CreateMany inserts one receipt per purchased ticket
func (r *LotteryTicketRepository) CreateMany(ctx context.Context, tickets []*models.LotteryTicket) error {
	if len(tickets) == 0 {
		return nil
	}
	docs := make([]interface{}, len(tickets))
	for i, t := range tickets {
		docs[i] = t
	}
	_, err := r.collection.InsertMany(ctx, docs)
	return err
}

// FindByWallet returns a user's receipts, newest first
func (r *LotteryTicketRepository) FindByWallet(ctx context.Context, wallet string, limit int) ([]*models.LotteryTicket, error) {
	findOptions := options.Find().
		SetSort(bson.D{{Key: "purchasedAt", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{"walletAddress": wallet}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var tickets []*models.LotteryTicket
	if err = cursor.All(ctx, &tickets); err != nil {
		return nil, err
	}
	if tickets == nil {
		tickets = []*models.LotteryTicket{}
	}
	return tickets, nil
}

// FindByPool returns all receipts issued against one pool
func (r *LotteryTicketRepository) FindByPool(ctx context.Context, poolID string) ([]*models.LotteryTicket, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"poolId": poolID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var tickets []*models.LotteryTicket
	if err = cursor.All(ctx, &tickets); err != nil {
		return nil, err
	}
	if tickets == nil {
		tickets = []*models.LotteryTicket{}
	}
	return tickets, nil
}
