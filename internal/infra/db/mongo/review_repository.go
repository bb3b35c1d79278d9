package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "staylane/internal/domain/booking"
	domainproperty "staylane/internal/domain/property"
	domainreviews "staylane/internal/domain/reviews"
)

type ReviewRepository struct {
	col  *mongo.Collection
	unit *Unit
}

func (r *ReviewRepository) ByBooking(ctx context.Context, bookingID domainbooking.BookingID) (*domainreviews.Review, error) {
	var doc reviewDocument
	if err := r.col.FindOne(r.unit.bind(ctx), bson.M{"booking_id": string(bookingID)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainreviews.ErrNotFound
		}
		return nil, wrapErr(err)
	}
	return doc.toAggregate(), nil
}

func (r *ReviewRepository) ListByProperty(ctx context.Context, propertyID domainproperty.PropertyID, limit, offset int) ([]*domainreviews.Review, error) {
	ctx = r.unit.bind(ctx)
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if offset > 0 {
		opts.SetSkip(int64(offset))
	}
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := r.col.Find(ctx, bson.M{"property_id": string(propertyID)}, opts)
	if err != nil {
		return nil, wrapErr(err)
	}
	var docs []reviewDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, wrapErr(err)
	}
	out := make([]*domainreviews.Review, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toAggregate())
	}
	return out, nil
}

func (r *ReviewRepository) CountByProperty(ctx context.Context, propertyID domainproperty.PropertyID) (int, int, error) {
	ctx = r.unit.bind(ctx)
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"property_id": string(propertyID)}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "count": bson.M{"$sum": 1}, "sum": bson.M{"$sum": "$rating"}}}},
	}
	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, 0, wrapErr(err)
	}
	var rows []struct {
		Count int `bson:"count"`
		Sum   int `bson:"sum"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return 0, 0, wrapErr(err)
	}
	if len(rows) == 0 {
		return 0, 0, nil
	}
	return rows[0].Count, rows[0].Sum, nil
}

func (r *ReviewRepository) Save(ctx context.Context, review *domainreviews.Review) error {
	doc := newReviewDocument(review)
	_, err := r.col.ReplaceOne(r.unit.bind(ctx), bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	return wrapErr(err)
}

var _ domainreviews.Repository = (*ReviewRepository)(nil)
