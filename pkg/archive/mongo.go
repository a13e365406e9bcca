package archive

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoArchive stores payloads in a MongoDB collection, one document
// per (note, kind) pair, upserted so a re-fetch replaces the old
// capture.
type MongoArchive struct {
	mongoClient *mongo.Client
	collection  *mongo.Collection
}

// NewMongoArchive creates a Mongo-backed archive.
func NewMongoArchive(connectionString, databaseName, collectionName string) *MongoArchive {
	clientOptions := options.Client().ApplyURI(connectionString)
	mongoClient, err := mongo.Connect(context.Background(), clientOptions)
	if err != nil {
		// Error surfaces in Connect().
		return &MongoArchive{}
	}

	collection := mongoClient.Database(databaseName).Collection(collectionName)
	return &MongoArchive{
		mongoClient: mongoClient,
		collection:  collection,
	}
}

// Connect verifies the MongoDB connection.
func (a *MongoArchive) Connect(ctx context.Context) error {
	if a.mongoClient == nil {
		return fmt.Errorf("mongo client not initialized")
	}
	return a.mongoClient.Ping(ctx, nil)
}

// Close closes the MongoDB connection.
func (a *MongoArchive) Close(ctx context.Context) error {
	if a.mongoClient == nil {
		return nil
	}
	return a.mongoClient.Disconnect(ctx)
}

// Save upserts the payload keyed by note ID and kind.
func (a *MongoArchive) Save(ctx context.Context, noteID string, kind Kind, payload []byte) error {
	if a.collection == nil {
		return fmt.Errorf("collection not initialized")
	}

	doc := record{
		NoteID:     noteID,
		Kind:       string(kind),
		Payload:    string(payload),
		CapturedAt: time.Now().UTC(),
	}
	filter := bson.M{"note_id": noteID, "kind": string(kind)}
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)

	_, err := a.collection.UpdateOne(ctx, filter, update, opts)
	return err
}

// Load fetches the most recent payload for a note, for inspection.
func (a *MongoArchive) Load(ctx context.Context, noteID string, kind Kind) ([]byte, error) {
	if a.collection == nil {
		return nil, fmt.Errorf("collection not initialized")
	}

	var doc record
	filter := bson.M{"note_id": noteID, "kind": string(kind)}
	if err := a.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, fmt.Errorf("load %s/%s: %w", kind, noteID, err)
	}
	return []byte(doc.Payload), nil
}
