package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"staylane/internal/app/uow"
	domainproperty "staylane/internal/domain/property"
)

type PropertyRepository struct {
	col  *mongo.Collection
	unit *Unit
}

func (r *PropertyRepository) ByID(ctx context.Context, id domainproperty.PropertyID) (*domainproperty.Property, error) {
	var doc propertyDocument
	if err := r.col.FindOne(r.unit.bind(ctx), bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainproperty.ErrNotFound
		}
		return nil, wrapErr(err)
	}
	return doc.toAggregate(), nil
}

// Save upserts with an optimistic version check.
func (r *PropertyRepository) Save(ctx context.Context, p *domainproperty.Property) error {
	doc := newPropertyDocument(p)
	filter := bson.M{"_id": doc.ID, "version": p.Version}
	doc.Version = p.Version + 1
	res, err := r.col.UpdateOne(r.unit.bind(ctx), filter, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: property %s changed", uow.ErrConflict, p.ID)
		}
		return wrapErr(err)
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return fmt.Errorf("%w: property %s changed", uow.ErrConflict, p.ID)
	}
	p.Version = doc.Version
	return nil
}

func (r *PropertyRepository) List(ctx context.Context, filter domainproperty.ListFilter) ([]*domainproperty.Property, error) {
	ctx = r.unit.bind(ctx)
	query := bson.M{}
	if filter.Owner != "" {
		query["owner_id"] = string(filter.Owner)
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	if filter.Offset > 0 {
		opts.SetSkip(int64(filter.Offset))
	}
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	cur, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, wrapErr(err)
	}
	var docs []propertyDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, wrapErr(err)
	}
	out := make([]*domainproperty.Property, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toAggregate())
	}
	return out, nil
}

var _ domainproperty.Repository = (*PropertyRepository)(nil)
