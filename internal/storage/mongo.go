package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"

	"quizbuilder/internal/domain"
	"quizbuilder/internal/history"
)

type mongoDocument struct {
	ID         string    `bson:"_id"`
	Name       string    `bson:"name"`
	Body       string    `bson:"body"`
	LastEdited time.Time `bson:"last_edited"`
}

type mongoEntry struct {
	ID          string    `bson:"_id"`
	DocumentID  string    `bson:"document_id"`
	Seq         int64     `bson:"seq"`
	Description string    `bson:"description"`
	BatchID     string    `bson:"batch_id"`
	Snapshot    string    `bson:"snapshot"`
	CreatedAt   time.Time `bson:"created_at"`
}

// MongoStore implements domain.DocumentStore and Journal on MongoDB. The
// document body is kept as a JSON string so it decodes exactly like the SQL
// backends.
type MongoStore struct {
	client  *mongo.Client
	docs    *mongo.Collection
	journal *mongo.Collection
	limit   int
	log     *zap.Logger
}

// OpenMongo connects to uri and uses the named database.
func OpenMongo(ctx context.Context, uri, database string, journalLimit int, log *zap.Logger) (*MongoStore, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if journalLimit <= 0 {
		journalLimit = DefaultJournalLimit
	}
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(database)
	s := &MongoStore{
		client:  client,
		docs:    db.Collection("documents"),
		journal: db.Collection("journal_entries"),
		limit:   journalLimit,
		log:     log.Named("mongo"),
	}
	_, err = s.journal.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "document_id", Value: 1}, {Key: "seq", Value: 1}},
	})
	if err != nil {
		s.log.Warn("Unable to create journal index", zap.Error(err))
	}
	s.log.Debug("Connected", zap.String("database", database))
	return s, nil
}

func (s *MongoStore) Save(ctx context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return errors.New("save document: missing id")
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	rec := mongoDocument{ID: doc.ID, Name: doc.Name, Body: string(body), LastEdited: doc.LastEdited}
	_, err = s.docs.ReplaceOne(ctx, bson.M{"_id": doc.ID}, rec, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}

func (s *MongoStore) Load(ctx context.Context, id string) (*domain.Document, error) {
	var rec mongoDocument
	err := s.docs.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("load document %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	doc := &domain.Document{}
	if err := json.Unmarshal([]byte(rec.Body), doc); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", id, err)
	}
	return doc, nil
}

func (s *MongoStore) List(ctx context.Context) ([]domain.DocumentSummary, error) {
	opts := options.Find().
		SetProjection(bson.M{"body": 0}).
		SetSort(bson.D{{Key: "last_edited", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := s.docs.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	var recs []mongoDocument
	if err := cur.All(ctx, &recs); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	out := make([]domain.DocumentSummary, 0, len(recs))
	for _, r := range recs {
		out = append(out, domain.DocumentSummary{ID: r.ID, Name: r.Name, LastEdited: r.LastEdited.UTC()})
	}
	return out, nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := s.docs.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("delete document %s: %w", id, domain.ErrNotFound)
	}
	return s.Clear(ctx, id)
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// ── Journal ───────────────────────────────────────────────────────────────

func (s *MongoStore) Append(ctx context.Context, documentID string, e history.Entry, keep []string) error {
	snap, err := json.Marshal(e.Snapshot)
	if err != nil {
		return fmt.Errorf("encode journal snapshot: %w", err)
	}
	if keep != nil {
		ids := append([]string{e.ID}, keep...)
		if _, err := s.journal.DeleteMany(ctx, bson.M{"document_id": documentID, "_id": bson.M{"$nin": ids}}); err != nil {
			return fmt.Errorf("drop discarded journal entries: %w", err)
		}
	}
	var last mongoEntry
	seq := int64(0)
	err = s.journal.FindOne(ctx, bson.M{"document_id": documentID},
		options.FindOne().SetSort(bson.D{{Key: "seq", Value: -1}})).Decode(&last)
	switch {
	case err == nil:
		seq = last.Seq
	case !errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("journal sequence: %w", err)
	}

	rec := mongoEntry{
		ID:          e.ID,
		DocumentID:  documentID,
		Seq:         seq + 1,
		Description: e.Description,
		BatchID:     e.BatchID,
		Snapshot:    string(snap),
		CreatedAt:   e.Timestamp,
	}
	if _, err := s.journal.ReplaceOne(ctx, bson.M{"_id": e.ID}, rec, options.Replace().SetUpsert(true)); err != nil {
		return fmt.Errorf("insert journal entry: %w", err)
	}
	return s.prune(ctx, documentID)
}

func (s *MongoStore) Entries(ctx context.Context, documentID string) ([]history.Entry, error) {
	cur, err := s.journal.Find(ctx, bson.M{"document_id": documentID},
		options.Find().SetSort(bson.D{{Key: "seq", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("load journal: %w", err)
	}
	var recs []mongoEntry
	if err := cur.All(ctx, &recs); err != nil {
		return nil, fmt.Errorf("load journal: %w", err)
	}
	entries := make([]history.Entry, 0, len(recs))
	for _, r := range recs {
		snap := &domain.Document{}
		if err := json.Unmarshal([]byte(r.Snapshot), snap); err != nil {
			s.log.Warn("Skipping unreadable journal entry", zap.String("id", r.ID), zap.Error(err))
			continue
		}
		entries = append(entries, history.Entry{
			ID:          r.ID,
			Timestamp:   r.CreatedAt,
			Snapshot:    snap,
			Description: r.Description,
			BatchID:     r.BatchID,
		})
	}
	return entries, nil
}

func (s *MongoStore) Clear(ctx context.Context, documentID string) error {
	if _, err := s.journal.DeleteMany(ctx, bson.M{"document_id": documentID}); err != nil {
		return fmt.Errorf("clear journal: %w", err)
	}
	return nil
}

func (s *MongoStore) prune(ctx context.Context, documentID string) error {
	count, err := s.journal.CountDocuments(ctx, bson.M{"document_id": documentID})
	if err != nil {
		return fmt.Errorf("count journal: %w", err)
	}
	if count <= int64(s.limit) {
		return nil
	}
	var cutoff mongoEntry
	err = s.journal.FindOne(ctx, bson.M{"document_id": documentID},
		options.FindOne().SetSort(bson.D{{Key: "seq", Value: -1}}).SetSkip(int64(s.limit))).Decode(&cutoff)
	if err != nil {
		return fmt.Errorf("journal cut-off: %w", err)
	}
	_, err = s.journal.DeleteMany(ctx, bson.M{"document_id": documentID, "seq": bson.M{"$lte": cutoff.Seq}})
	if err != nil {
		return fmt.Errorf("prune journal: %w", err)
	}
	return nil
}
