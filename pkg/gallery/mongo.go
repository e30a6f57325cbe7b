package gallery

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore keeps poster metadata in a MongoDB collection so several
// service instances can share one gallery. The PNGs themselves stay on
// disk (or behind whatever static file layer fronts them); only the
// listing lives here.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects and pings within a bounded timeout.
func NewMongoStore(ctx context.Context, uri, db, collection string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(db).Collection(collection),
	}, nil
}

func (s *MongoStore) Add(ctx context.Context, p Poster) error {
	if p.Created.IsZero() {
		p.Created = time.Now()
	}
	_, err := s.coll.InsertOne(ctx, p)
	return err
}

// List returns posters newest first.
func (s *MongoStore) List(ctx context.Context) ([]Poster, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var posters []Poster
	if err := cur.All(ctx, &posters); err != nil {
		return nil, err
	}
	return posters, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
