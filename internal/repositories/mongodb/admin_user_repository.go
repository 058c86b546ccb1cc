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

// Compile-time check to ensure AdminUserRepository implements the interface
var _ repositories.AdminUserRepository = (*AdminUserRepository)(nil)

// AdminUserRepository handles MongoDB operations for operator accounts
type AdminUserRepository struct {
	collection *mongo.Collection
}

// NewAdminUserRepository creates a new AdminUserRepository
func NewAdminUserRepository(db *mongo.Database) *AdminUserRepository {
	return &AdminUserRepository{
		collection: db.Collection("admin_users"),
	}
}

// Upsert inserts or updates an operator account by email
func (r *AdminUserRepository) Upsert(ctx context.Context, admin *models.AdminUser) error {
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"passwordHash": admin.PasswordHash,
			"role":         admin.Role,
			"updatedAt":    now,
		},
		"$setOnInsert": bson.M{
			"_id":       primitive.NewObjectID(),
			"createdAt": now,
		},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"email": admin.Email}, update, options.Update().SetUpsert(true))
	return err
}

// FindByEmail finds an operator account by email
func (r *AdminUserRepository) FindByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	var admin models.AdminUser
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&admin)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &admin, nil
}
