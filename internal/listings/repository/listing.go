package repository

import (
	listingserrors "abclisting/internal/listings/errors"
	"abclisting/pkg/availability"
	"abclisting/pkg/config"
	mongotx "abclisting/pkg/db/mongo"
	"abclisting/pkg/model"
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Listings"
)

type ListingRepository interface {
	Create(ctx context.Context, listing *model.Listing) error
	FindByID(ctx context.Context, id string) (*model.Listing, error)
	// AppendBooking stores index as the listing's bookings index and records
	// bookingID. It refuses the write if the stored index already holds any
	// of newDays, so two writers can never book the same day.
	AppendBooking(ctx context.Context, id string, index availability.Index, newDays []availability.Date, bookingID string) error
	FindAll(ctx context.Context, filter Filter, limit int, offset int64) ([]*model.Listing, error)
	Count(ctx context.Context, filter Filter) (int64, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type SortOrder string

const (
	SortNewest       SortOrder = ""
	SortPriceLowHigh SortOrder = "price_asc"
	SortPriceHighLow SortOrder = "price_desc"
)

// Filter narrows listing searches. City and Country match case-insensitively
// on the whole value.
type Filter struct {
	City    string
	Country string
	Host    string
	Sort    SortOrder
}

type mongoListingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoListingRepository(cfg *config.Config) ListingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoListingRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo, cfg.Log),
	}
}

func (r *mongoListingRepository) Create(ctx context.Context, listing *model.Listing) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	listing.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	if listing.Bookings == nil {
		listing.Bookings = []string{}
	}

	result, err := r.collection.InsertOne(ctx, listing)
	if err != nil {
		return fmt.Errorf("failed to create listing: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		listing.ID = oid.Hex()
	}
	return nil
}

func (r *mongoListingRepository) FindByID(ctx context.Context, id string) (*model.Listing, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", listingserrors.ErrInvalidID, id)
	}

	var listing model.Listing
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&listing)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, listingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find listing: %w", err)
	}

	return &listing, nil
}

func (r *mongoListingRepository) AppendBooking(ctx context.Context, id string, index availability.Index, newDays []availability.Date, bookingID string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", listingserrors.ErrInvalidID, id)
	}

	keys := make([]string, 0, len(newDays))
	for _, d := range newDays {
		keys = append(keys, d.String())
	}

	filter := bson.M{
		"_id":            objectID,
		"bookings_index": bson.M{"$nin": keys},
	}
	update := bson.M{
		"$set":  bson.M{"bookings_index": index},
		"$push": bson.M{"bookings": bookingID},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update listing bookings: %w", err)
	}
	if result.MatchedCount == 0 {
		count, err := r.collection.CountDocuments(ctx, bson.M{"_id": objectID})
		if err != nil {
			return fmt.Errorf("failed to check listing existence: %w", err)
		}
		if count == 0 {
			return listingserrors.ErrNotFound
		}
		return listingserrors.ErrIndexChanged
	}
	return nil
}

func (r *mongoListingRepository) FindAll(ctx context.Context, filter Filter, limit int, offset int64) ([]*model.Listing, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(sortFor(filter.Sort)).
		SetLimit(int64(limit)).
		SetSkip(offset).
		SetProjection(bson.M{"bookings_index": 0})

	cursor, err := r.collection.Find(ctx, buildFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find listings: %w", err)
	}
	defer cursor.Close(ctx)

	listings := []*model.Listing{}
	if err = cursor.All(ctx, &listings); err != nil {
		return nil, fmt.Errorf("failed to decode listings: %w", err)
	}
	return listings, nil
}

func (r *mongoListingRepository) Count(ctx context.Context, filter Filter) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count listings: %w", err)
	}
	return count, nil
}

func (r *mongoListingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}

func buildFilter(f Filter) bson.M {
	query := bson.M{}
	if f.City != "" {
		query["city"] = exactInsensitive(f.City)
	}
	if f.Country != "" {
		query["country"] = exactInsensitive(f.Country)
	}
	if f.Host != "" {
		query["host"] = f.Host
	}
	return query
}

// exactInsensitive quotes the value so user input never runs as a pattern.
func exactInsensitive(value string) primitive.Regex {
	return primitive.Regex{Pattern: "^" + regexp.QuoteMeta(value) + "$", Options: "i"}
}

func sortFor(order SortOrder) bson.D {
	switch order {
	case SortPriceLowHigh:
		return bson.D{{Key: "price", Value: 1}, {Key: "_id", Value: 1}}
	case SortPriceHighLow:
		return bson.D{{Key: "price", Value: -1}, {Key: "_id", Value: 1}}
	default:
		return bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}
	}
}
