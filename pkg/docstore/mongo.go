package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore maps each collection onto a MongoDB collection keyed by _id. Batches run inside a
// multi-document transaction, which requires a replica set.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoStore constructs the store over database.
func NewMongoStore(client *mongo.Client, database string) *MongoStore {
	return &MongoStore{client: client, db: client.Database(database)}
}

// Get loads a document into dest.
func (s *MongoStore) Get(ctx context.Context, collection, id string, dest interface{}) error {
	raw, err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Raw()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		return fmt.Errorf("get document %s/%s: %w", collection, id, err)
	}
	doc, err := fromMongo(raw)
	if err != nil {
		return err
	}
	return decodeInto(doc, dest)
}

// Set writes a single document.
func (s *MongoStore) Set(ctx context.Context, collection, id string, data interface{}, opts ...SetOption) error {
	w := newWrite(collection, id, data, opts)
	if err := validateWrite(w); err != nil {
		return err
	}
	return s.apply(ctx, w)
}

// Query returns matching documents ordered by _id.
func (s *MongoStore) Query(ctx context.Context, collection string, dest interface{}, filters ...Filter) error {
	if err := validateFilters(filters); err != nil {
		return err
	}
	cursor, err := s.db.Collection(collection).Find(ctx, mongoFilter(filters), options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return fmt.Errorf("query documents %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	var docs []map[string]interface{}
	for cursor.Next(ctx) {
		doc, err := fromMongo(cursor.Current)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}
	if err := cursor.Err(); err != nil {
		return fmt.Errorf("iterate documents %s: %w", collection, err)
	}
	if docs == nil {
		docs = []map[string]interface{}{}
	}
	return decodeInto(docs, dest)
}

// Batch applies every write in one transaction, aborting on the first failure.
func (s *MongoStore) Batch(ctx context.Context, writes []Write) error {
	for _, w := range writes {
		if err := validateWrite(w); err != nil {
			return err
		}
	}

	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	if err := mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		for _, w := range writes {
			if err := s.apply(sc, w); err != nil {
				_ = sc.AbortTransaction(sc)
				return err
			}
		}
		return sc.CommitTransaction(sc)
	}); err != nil {
		return fmt.Errorf("document batch failed: %w", err)
	}
	return nil
}

func (s *MongoStore) apply(ctx context.Context, w Write) error {
	doc, err := toDocument(w.Data)
	if err != nil {
		return err
	}
	coll := s.db.Collection(w.Collection)
	filter := bson.M{"_id": w.ID}

	if w.Merge {
		paths := map[string]interface{}{}
		flattenPaths("", doc, paths)
		if len(paths) == 0 {
			return nil
		}
		if _, err := coll.UpdateOne(ctx, filter, bson.M{"$set": paths}, options.Update().SetUpsert(true)); err != nil {
			return fmt.Errorf("merge document %s/%s: %w", w.Collection, w.ID, err)
		}
		return nil
	}

	doc["_id"] = w.ID
	if _, err := coll.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true)); err != nil {
		return fmt.Errorf("replace document %s/%s: %w", w.Collection, w.ID, err)
	}
	return nil
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// fromMongo converts a raw BSON document to the generic JSON form via relaxed extended JSON.
func fromMongo(raw bson.Raw) (map[string]interface{}, error) {
	ext, err := bson.MarshalExtJSON(raw, false, false)
	if err != nil {
		return nil, fmt.Errorf("convert bson document: %w", err)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(ext, &doc); err != nil {
		return nil, fmt.Errorf("decode bson document: %w", err)
	}
	delete(doc, "_id")
	return doc, nil
}

// mongoFilter groups filters by field so that range pairs become a single clause.
func mongoFilter(filters []Filter) bson.M {
	filter := bson.M{}
	for _, f := range filters {
		clause, _ := filter[f.Field].(bson.M)
		if clause == nil {
			clause = bson.M{}
		}
		clause[mongoOperator(f.Op)] = normaliseValue(f.Value)
		filter[f.Field] = clause
	}
	return filter
}

func mongoOperator(op Operator) string {
	switch op {
	case OpLess:
		return "$lt"
	case OpLessOrEqual:
		return "$lte"
	case OpGreater:
		return "$gt"
	case OpGreaterOrEqual:
		return "$gte"
	default:
		return "$eq"
	}
}
