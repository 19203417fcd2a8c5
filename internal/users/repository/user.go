package repository

import (
	userserrors "abclisting/internal/users/errors"
	"abclisting/pkg/config"
	mongotx "abclisting/pkg/db/mongo"
	"abclisting/pkg/model"
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Users"
)

type UserRepository interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	// Upsert creates the user or refreshes the profile fields of an existing one.
	// Income, bookings, listings and wallet are left untouched.
	Upsert(ctx context.Context, user *model.User) (*model.User, error)
	IncrementIncome(ctx context.Context, id string, amount int64) error
	AppendBooking(ctx context.Context, id string, bookingID string) error
	AppendListing(ctx context.Context, id string, listingID string) error
	SetWallet(ctx context.Context, id string, walletID string) (*model.User, error)
}

type mongoUserRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoUserRepository(cfg *config.Config) UserRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoUserRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var user model.User
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, userserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

func (r *mongoUserRepository) Upsert(ctx context.Context, user *model.User) (*model.User, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"name":    user.Name,
			"avatar":  user.Avatar,
			"contact": user.Contact,
		},
		"$setOnInsert": bson.M{
			"income":   int64(0),
			"bookings": []string{},
			"listings": []string{},
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stored model.User
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": user.ID}, update, opts).Decode(&stored); err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return &stored, nil
}

func (r *mongoUserRepository) IncrementIncome(ctx context.Context, id string, amount int64) error {
	return r.updateOne(ctx, id, bson.M{"$inc": bson.M{"income": amount}}, "increment income")
}

func (r *mongoUserRepository) AppendBooking(ctx context.Context, id string, bookingID string) error {
	return r.updateOne(ctx, id, bson.M{"$push": bson.M{"bookings": bookingID}}, "append booking")
}

func (r *mongoUserRepository) AppendListing(ctx context.Context, id string, listingID string) error {
	return r.updateOne(ctx, id, bson.M{"$push": bson.M{"listings": listingID}}, "append listing")
}

// SetWallet stores walletID, or removes the wallet when walletID is empty.
func (r *mongoUserRepository) SetWallet(ctx context.Context, id string, walletID string) (*model.User, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{"wallet_id": walletID}}
	if walletID == "" {
		update = bson.M{"$unset": bson.M{"wallet_id": ""}}
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user model.User
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, userserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update wallet: %w", err)
	}
	return &user, nil
}

func (r *mongoUserRepository) updateOne(ctx context.Context, id string, update bson.M, op string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if result.MatchedCount == 0 {
		return userserrors.ErrNotFound
	}
	return nil
}
