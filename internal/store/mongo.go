package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"made/internal/types"
)

// Collection names inside the configured database. Exported so the health
// check can report where records live without holding a store reference.
const (
	RecordCollection = "ocean_scores"
	TaskCollection   = "tasks"
)

// MongoStore is the production Store backed by the bigfive database.
// Construction does not verify reachability; Ping does, so a down database
// surfaces through the health check rather than preventing startup.
type MongoStore struct {
	client  *mongo.Client
	records *mongo.Collection
	tasks   *mongo.Collection
	logger  *zap.Logger
}

var _ Store = (*MongoStore)(nil)

// NewMongoStore connects a client for the given URL and database.
func NewMongoStore(ctx context.Context, url, database string, logger *zap.Logger) (*MongoStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(url))
	if err != nil {
		return nil, fmt.Errorf("connect document store: %w", err)
	}

	db := client.Database(database)
	logger.Info("document store configured",
		zap.String("url", url),
		zap.String("database", database))

	return &MongoStore{
		client:  client,
		records: db.Collection(RecordCollection),
		tasks:   db.Collection(TaskCollection),
		logger:  logger,
	}, nil
}

// cognitiveDoc pairs the driver-owned identifier with the domain record.
type cognitiveDoc struct {
	ID                    primitive.ObjectID `bson:"_id,omitempty"`
	types.CognitiveRecord `bson:",inline"`
}

func (d cognitiveDoc) record() types.CognitiveRecord {
	rec := d.CognitiveRecord
	rec.StoreID = d.ID.Hex()
	return rec
}

func (m *MongoStore) Put(ctx context.Context, rec types.CognitiveRecord) (string, error) {
	res, err := m.records.InsertOne(ctx, cognitiveDoc{CognitiveRecord: rec})
	if err != nil {
		return "", fmt.Errorf("insert cognitive record: %w", err)
	}

	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("insert cognitive record: unexpected id type %T", res.InsertedID)
	}

	m.logger.Debug("cognitive record stored",
		zap.String("report_id", rec.ReportID),
		zap.String("store_id", id.Hex()))
	return id.Hex(), nil
}

func (m *MongoStore) GetByReport(ctx context.Context, reportID string) (types.CognitiveRecord, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})

	var doc cognitiveDoc
	err := m.records.FindOne(ctx, bson.M{"report_id": reportID}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return types.CognitiveRecord{}, ErrNotFound
	}
	if err != nil {
		return types.CognitiveRecord{}, fmt.Errorf("find cognitive record: %w", err)
	}
	return doc.record(), nil
}

func (m *MongoStore) ListAll(ctx context.Context) ([]types.CognitiveRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := m.records.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list cognitive records: %w", err)
	}

	var docs []cognitiveDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode cognitive records: %w", err)
	}

	records := make([]types.CognitiveRecord, 0, len(docs))
	for _, doc := range docs {
		records = append(records, doc.record())
	}
	return records, nil
}

// DeleteByReport removes the newest record for the report, the same one
// GetByReport resolves, so a delete always targets the visible record even
// when a report ID was assessed more than once.
func (m *MongoStore) DeleteByReport(ctx context.Context, reportID string) error {
	opts := options.FindOneAndDelete().SetSort(bson.D{{Key: "created_at", Value: -1}})

	err := m.records.FindOneAndDelete(ctx, bson.M{"report_id": reportID}, opts).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete cognitive record: %w", err)
	}

	m.logger.Debug("cognitive record deleted", zap.String("report_id", reportID))
	return nil
}

func (m *MongoStore) Latest(ctx context.Context) (types.CognitiveRecord, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})

	var doc cognitiveDoc
	err := m.records.FindOne(ctx, bson.M{}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return types.CognitiveRecord{}, ErrEmpty
	}
	if err != nil {
		return types.CognitiveRecord{}, fmt.Errorf("find latest cognitive record: %w", err)
	}
	return doc.record(), nil
}

// UpdateUtterance rewrites the utterance field group on one record. The
// single-document $set keeps the group atomic for readers.
func (m *MongoStore) UpdateUtterance(ctx context.Context, storeID string, state types.UtteranceState) error {
	id, err := primitive.ObjectIDFromHex(storeID)
	if err != nil {
		return ErrNotFound
	}

	res, err := m.records.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": state})
	if err != nil {
		return fmt.Errorf("update utterance fields: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}

	m.logger.Debug("utterance group updated", zap.String("store_id", storeID))
	return nil
}

func (m *MongoStore) PutTask(ctx context.Context, task types.TaskRecord) error {
	if _, err := m.tasks.InsertOne(ctx, task); err != nil {
		return fmt.Errorf("insert task: %w", err)
	}

	m.logger.Debug("task stored",
		zap.String("task_id", task.TaskID),
		zap.String("report_id", task.ReportID))
	return nil
}

func (m *MongoStore) ListTasks(ctx context.Context, reportID string) ([]types.TaskRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := m.tasks.Find(ctx, bson.M{"report_id": reportID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	var tasks []types.TaskRecord
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}
	return tasks, nil
}

func (m *MongoStore) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

func (m *MongoStore) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
