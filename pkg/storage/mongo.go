package storage

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/bcgov/mmti-sync/pkg/records"
)

const defaultMongoDatabase = "mmti-dev"

// MongoStore is the production store. One client is shared by every
// caller.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ Store = (*MongoStore)(nil)

func OpenMongo(ctx context.Context, uri string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &MongoStore{client: client, db: client.Database(databaseFromURI(uri))}, nil
}

func databaseFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return defaultMongoDatabase
	}
	if name := strings.Trim(u.Path, "/"); name != "" {
		return name
	}
	return defaultMongoDatabase
}

func (s *MongoStore) Close(ctx context.Context) error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

func mongoFilter(coll Collection, f Filter) bson.M {
	m := bson.M{}
	if f.ProjectCode != "" {
		m[codeField(coll)] = f.ProjectCode
	}
	if len(f.AnyOf) > 0 {
		or := bson.A{}
		for _, c := range f.AnyOf {
			if c.Contains != "" {
				or = append(or, bson.M{c.Field: primitive.Regex{Pattern: regexp.QuoteMeta(c.Contains)}})
				continue
			}
			or = append(or, bson.M{c.Field: c.Equals})
		}
		m["$or"] = or
	}
	return m
}

// mongoProject mirrors the projection used by ListProjects. _id is kept
// loose because imported projects may carry string ids.
type mongoProject struct {
	ID   interface{} `bson:"_id"`
	Code string      `bson:"code"`
	Name string      `bson:"name"`
}

func idString(v interface{}) string {
	switch id := v.(type) {
	case primitive.ObjectID:
		return id.Hex()
	case string:
		return id
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}

func (s *MongoStore) ListProjects(ctx context.Context, code string) ([]records.Project, error) {
	filter := bson.M{}
	if code != "" {
		filter["code"] = code
	}
	opts := options.Find().
		SetProjection(bson.M{"name": 1, "code": 1}).
		SetSort(bson.D{{Key: "code", Value: 1}})

	cur, err := s.db.Collection(string(Projects)).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find projects: %w", err)
	}
	var docs []mongoProject
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode projects: %w", err)
	}

	out := make([]records.Project, 0, len(docs))
	for _, d := range docs {
		out = append(out, records.Project{ID: idString(d.ID), Code: d.Code, Name: d.Name})
	}
	return out, nil
}

func (s *MongoStore) Find(ctx context.Context, coll Collection, f Filter, out interface{}) error {
	cur, err := s.db.Collection(string(coll)).Find(ctx, mongoFilter(coll, f))
	if err != nil {
		return fmt.Errorf("find %s: %w", coll, err)
	}
	if err := cur.All(ctx, out); err != nil {
		return fmt.Errorf("decode %s: %w", coll, err)
	}
	return nil
}

// toMongoDocument stores projectId as an ObjectID so the application can
// still join records to their project.
func toMongoDocument(doc interface{}) (bson.M, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	if hex, ok := m["projectId"].(string); ok {
		if oid, err := primitive.ObjectIDFromHex(hex); err == nil {
			m["projectId"] = oid
		}
	}
	return m, nil
}

func (s *MongoStore) InsertMany(ctx context.Context, coll Collection, docs []interface{}) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}
	converted := make([]interface{}, 0, len(docs))
	for _, d := range docs {
		m, err := toMongoDocument(d)
		if err != nil {
			return 0, fmt.Errorf("encode %s document: %w", coll, err)
		}
		converted = append(converted, m)
	}
	res, err := s.db.Collection(string(coll)).InsertMany(ctx, converted)
	if err != nil {
		return 0, fmt.Errorf("insert %s: %w", coll, err)
	}
	return len(res.InsertedIDs), nil
}

func (s *MongoStore) DeleteMany(ctx context.Context, coll Collection, f Filter) (int64, error) {
	res, err := s.db.Collection(string(coll)).DeleteMany(ctx, mongoFilter(coll, f))
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", coll, err)
	}
	return res.DeletedCount, nil
}

func (s *MongoStore) UpdateProject(ctx context.Context, code string, fields map[string]interface{}) (bool, error) {
	if len(fields) == 0 {
		return false, nil
	}
	res, err := s.db.Collection(string(Projects)).UpdateOne(ctx, bson.M{"code": code}, bson.M{"$set": fields})
	if err != nil {
		return false, fmt.Errorf("update project %q: %w", code, err)
	}
	return res.MatchedCount > 0, nil
}

func (s *MongoStore) CountByProject(ctx context.Context, coll Collection) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$" + codeField(coll)},
			{Key: "n", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cur, err := s.db.Collection(string(coll)).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("count %s: %w", coll, err)
	}
	var rows []struct {
		Code string `bson:"_id"`
		N    int64  `bson:"n"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode %s counts: %w", coll, err)
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Code] = r.N
	}
	return counts, nil
}
