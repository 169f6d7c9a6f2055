package mongodb

import (
	"context"
	"errors"
	"fmt"
	"gw-teller-ledger/internal/custom_err"
	"gw-teller-ledger/internal/models"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type AuditStore struct {
	client     *mongo.Client
	database   *mongo.Database
	collection *mongo.Collection
}

func NewAuditStore(ctx context.Context, uri, database, collection string, timeout time.Duration) (*AuditStore, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	ctxPing, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(ctxPing, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(database)
	coll := db.Collection(collection)

	// event_id уникален: повторная доставка из kafka не создаёт дубликат
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "event_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}},
		},
	}

	ctxIndex, cancelIndex := context.WithTimeout(ctx, timeout)
	defer cancelIndex()

	if _, err := coll.Indexes().CreateMany(ctxIndex, indexes); err != nil {
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	return &AuditStore{
		client:     client,
		database:   db,
		collection: coll,
	}, nil
}

func (s *AuditStore) SaveAuditRecord(ctx context.Context, record *models.AuditRecord) error {
	if record.ProcessedAt.IsZero() {
		record.ProcessedAt = time.Now()
	}

	_, err := s.collection.InsertOne(ctx, record)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("failed to save audit record: %w", err)
	}

	return nil
}

func (s *AuditStore) GetByEventID(ctx context.Context, eventID string) (*models.AuditRecord, error) {
	var record models.AuditRecord

	filter := bson.M{"event_id": eventID}
	err := s.collection.FindOne(ctx, filter).Decode(&record)

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, custom_err.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get audit record: %w", err)
	}

	return &record, nil
}

// ListByUser последние события оператора, новые первыми
func (s *AuditStore) ListByUser(ctx context.Context, userID string, limit int64) ([]*models.AuditRecord, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit)

	cursor, err := s.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit records: %w", err)
	}
	defer cursor.Close(ctx)

	records := make([]*models.AuditRecord, 0)
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode audit records: %w", err)
	}
	return records, nil
}

func (s *AuditStore) Close() error {
	if s.client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.client.Disconnect(ctx)
}
