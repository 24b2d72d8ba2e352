// internal/output/mongodb.go
package output

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/valpere/FAQScrapexter/pkg/types"
)

// DefaultCollection is used when no collection is configured
const DefaultCollection = "faq_records"

// MongoDBOptions configures the MongoDB record writer
type MongoDBOptions struct {
	ConnectionString string
	Database         string
	Collection       string
	RunID            string
	Timeout          time.Duration
}

// mongoRecord is the stored document: the record inlined with run metadata.
type mongoRecord struct {
	types.Record `bson:",inline"`

	RunID     string    `bson:"run_id"`
	CreatedAt time.Time `bson:"created_at"`
}

// MongoDBWriter inserts one document per record
type MongoDBWriter struct {
	client     *mongo.Client
	collection *mongo.Collection
	runID      string
	timeout    time.Duration
}

// NewMongoDBWriter connects and pings the server
func NewMongoDBWriter(opts MongoDBOptions) (*MongoDBWriter, error) {
	if opts.ConnectionString == "" {
		return nil, fmt.Errorf("MongoDB connection string is required")
	}
	if opts.Database == "" {
		return nil, fmt.Errorf("MongoDB database name is required")
	}
	if opts.Collection == "" {
		opts.Collection = DefaultCollection
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.ConnectionString))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	coll := client.Database(opts.Database).Collection(opts.Collection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "run_id", Value: 1}, {Key: "question", Value: 1}},
	})
	if err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &MongoDBWriter{
		client:     client,
		collection: coll,
		runID:      opts.RunID,
		timeout:    opts.Timeout,
	}, nil
}

// mongoDocuments converts records to insertable documents
func mongoDocuments(runID string, records []types.Record, createdAt time.Time) []interface{} {
	docs := make([]interface{}, len(records))
	for i, r := range records {
		docs[i] = mongoRecord{RunID: runID, Record: r.Normalized(), CreatedAt: createdAt}
	}
	return docs
}

// Write inserts records in order
func (w *MongoDBWriter) Write(records []types.Record) error {
	if len(records) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	docs := mongoDocuments(w.runID, records, time.Now().UTC())
	if _, err := w.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true)); err != nil {
		return fmt.Errorf("failed to insert records: %w", err)
	}
	return nil
}

// Close disconnects the client
func (w *MongoDBWriter) Close() error {
	if w.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	err := w.client.Disconnect(ctx)
	w.client = nil
	return err
}
