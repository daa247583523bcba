// Package mongodb implements an installed-package metadata provider backed
// by a MongoDB collection, for fleets where one shared database records
// what is installed across machines. Documents have the same shape as
// [source.PackageInfo].
package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kpmtools/kpm/pkg/source"
)

// Collection serves package metadata from a MongoDB collection keyed by the
// "name" field.
type Collection struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// Connect dials MongoDB at uri and returns a source reading from
// database/collection. The connection is verified with a ping.
func Connect(ctx context.Context, uri, database, collection string) (*Collection, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return &Collection{
		client: client,
		coll:   client.Database(database).Collection(collection),
	}, nil
}

// Lookup implements [source.Source].
func (c *Collection) Lookup(ctx context.Context, name string) (*source.PackageInfo, error) {
	var info source.PackageInfo
	err := c.coll.FindOne(ctx, bson.M{"name": name}).Decode(&info)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%s: %w", name, source.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", name, err)
	}
	return &info, nil
}

// Close disconnects from MongoDB.
func (c *Collection) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

// Ensure Collection implements source.Source.
var _ source.Source = (*Collection)(nil)
