package repository

import (
	"abclisting/pkg/config"
	mongotx "abclisting/pkg/db/mongo"
	"abclisting/pkg/model"
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	CollectionName = "Reconciliations"
)

var ErrNotFound = errors.New("reconciliation not found")

type ReconciliationRepository interface {
	// Insert stores rec unless a record with the same intent id exists.
	// created is false when the record was already there.
	Insert(ctx context.Context, rec *model.Reconciliation) (created bool, err error)
	FindByIntentID(ctx context.Context, intentID string) (*model.Reconciliation, error)
}

type mongoReconciliationRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoReconciliationRepository(cfg *config.Config) ReconciliationRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoReconciliationRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoReconciliationRepository) Insert(ctx context.Context, rec *model.Reconciliation) (bool, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	// The intent id is the _id, so a replay fails on the primary index and
	// leaves the first record untouched.
	if _, err := r.collection.InsertOne(ctx, rec); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to store reconciliation: %w", err)
	}
	return true, nil
}

func (r *mongoReconciliationRepository) FindByIntentID(ctx context.Context, intentID string) (*model.Reconciliation, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var rec model.Reconciliation
	err := r.collection.FindOne(ctx, bson.M{"_id": intentID}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find reconciliation: %w", err)
	}
	return &rec, nil
}
