package analysisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	now    func() time.Time
}

type mongoRecord struct {
	ID     primitive.ObjectID `bson:"_id"`
	Record `bson:",inline"`
}

// NewMongoStore connects, pings and makes sure the per-user index exists.
func NewMongoStore(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	coll := client.Database(database).Collection(collection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &MongoStore{client: client, coll: coll, now: time.Now}, nil
}

func (s *MongoStore) Put(ctx context.Context, rec *Record) (string, error) {
	if err := validate(rec); err != nil {
		return "", errWrite(err)
	}

	doc := mongoRecord{ID: primitive.NewObjectID(), Record: *rec}
	stamp(&doc.Record, s.now())

	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return "", errWrite(err)
	}

	rec.ID = doc.ID.Hex()
	rec.CreatedAt = doc.CreatedAt
	return rec.ID, nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*Record, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var doc mongoRecord
	err = s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errRead(err)
	}

	rec := doc.Record
	rec.ID = doc.ID.Hex()
	return &rec, nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return errWrite(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) AttachAI(ctx context.Context, id string, ai AIAnalysis) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"ai_analysis": ai}})
	if err != nil {
		return errWrite(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) CountByUser(ctx context.Context, userID string) (int64, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, errRead(err)
	}
	return n, nil
}

func (s *MongoStore) AverageScoreByUser(ctx context.Context, userID string) (float64, error) {
	cursor, err := s.coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "user_id", Value: userID}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "avg", Value: bson.D{{Key: "$avg", Value: "$analysis_results.overall_score"}}},
		}}},
	})
	if err != nil {
		return 0, errRead(err)
	}

	var out []struct {
		Avg float64 `bson:"avg"`
	}
	if err := cursor.All(ctx, &out); err != nil {
		return 0, errRead(err)
	}
	if len(out) == 0 {
		return 0, nil
	}
	return out[0].Avg, nil
}

func (s *MongoStore) TopSkillsByUser(ctx context.Context, userID string, limit int) ([]SkillCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "user_id", Value: userID}}}},
		{{Key: "$unwind", Value: "$analysis_results.skills_found"}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$analysis_results.skills_found"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
	}
	if limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: limit}})
	}

	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, errRead(err)
	}

	out := []SkillCount{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, errRead(err)
	}
	return out, nil
}

func (s *MongoStore) LastAnalysisAt(ctx context.Context, userID string) (*time.Time, error) {
	opts := options.FindOne().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetProjection(bson.M{"created_at": 1})

	var doc struct {
		CreatedAt time.Time `bson:"created_at"`
	}
	err := s.coll.FindOne(ctx, bson.M{"user_id": userID}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errRead(err)
	}
	return &doc.CreatedAt, nil
}

func (s *MongoStore) ListByUser(ctx context.Context, userID string) ([]Summary, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetProjection(bson.M{"resume_id": 1, "created_at": 1, "analysis_results.overall_score": 1})

	cursor, err := s.coll.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, errRead(err)
	}

	var docs []struct {
		ID        primitive.ObjectID `bson:"_id"`
		ResumeID  string             `bson:"resume_id"`
		CreatedAt time.Time          `bson:"created_at"`
		Results   struct {
			OverallScore float64 `bson:"overall_score"`
		} `bson:"analysis_results"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, errRead(err)
	}

	out := make([]Summary, 0, len(docs))
	for _, d := range docs {
		out = append(out, Summary{
			ID:           d.ID.Hex(),
			ResumeID:     d.ResumeID,
			CreatedAt:    d.CreatedAt,
			OverallScore: d.Results.OverallScore,
		})
	}
	return out, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
