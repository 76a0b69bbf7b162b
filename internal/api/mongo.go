package api

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/plotdeck/plotdeck/pkg/errors"
)

// MongoPersister stores document rebuild scripts in a MongoDB
// collection, one record per document id. Scripts are plain text, so
// records stay inspectable with any Mongo client.
type MongoPersister struct {
	client *mongo.Client
	col    *mongo.Collection
}

type mongoDoc struct {
	ID        string    `bson:"_id"`
	Script    string    `bson:"script"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// NewMongoPersister connects to uri and uses the "documents"
// collection of the given database. The connection is verified with a
// ping before the persister is returned.
func NewMongoPersister(ctx context.Context, uri, database string) (*MongoPersister, error) {
	if database == "" {
		database = "plotdeck"
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUnavailable, err, "connecting to mongodb")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeUnavailable, err, "pinging mongodb")
	}
	return &MongoPersister{
		client: client,
		col:    client.Database(database).Collection("documents"),
	}, nil
}

// Save upserts the script for id.
func (p *MongoPersister) Save(ctx context.Context, id, script string) error {
	doc := mongoDoc{ID: id, Script: script, UpdatedAt: time.Now().UTC()}
	_, err := p.col.ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(errors.ErrCodeUnavailable, err, "saving document %s", id)
	}
	return nil
}

// Load returns the stored script for id.
func (p *MongoPersister) Load(ctx context.Context, id string) (string, error) {
	var doc mongoDoc
	err := p.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return "", notFoundDoc(id)
	}
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeUnavailable, err, "loading document %s", id)
	}
	return doc.Script, nil
}

// Remove deletes the stored script for id.
func (p *MongoPersister) Remove(ctx context.Context, id string) error {
	res, err := p.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(errors.ErrCodeUnavailable, err, "removing document %s", id)
	}
	if res.DeletedCount == 0 {
		return notFoundDoc(id)
	}
	return nil
}

// Close disconnects from MongoDB.
func (p *MongoPersister) Close(ctx context.Context) error {
	return p.client.Disconnect(ctx)
}

// Ensure MongoPersister implements Persister.
var _ Persister = (*MongoPersister)(nil)
