package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "staylane/internal/domain/booking"
	domainproperty "staylane/internal/domain/property"
	"staylane/internal/domain/shared/daterange"
)

type BookingRepository struct {
	col  *mongo.Collection
	unit *Unit
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(r.unit.bind(ctx), bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrNotFound
		}
		return nil, wrapErr(err)
	}
	return doc.toAggregate(), nil
}

func (r *BookingRepository) Insert(ctx context.Context, b *domainbooking.Booking) error {
	_, err := r.col.InsertOne(r.unit.bind(ctx), newBookingDocument(b))
	return wrapErr(err)
}

func (r *BookingRepository) Delete(ctx context.Context, id domainbooking.BookingID) error {
	res, err := r.col.DeleteOne(r.unit.bind(ctx), bson.M{"_id": string(id)})
	if err != nil {
		return wrapErr(err)
	}
	if res.DeletedCount == 0 {
		return domainbooking.ErrNotFound
	}
	return nil
}

func (r *BookingRepository) DeleteUnpaidByProfile(ctx context.Context, profile domainbooking.ProfileID) (int, error) {
	res, err := r.col.DeleteMany(r.unit.bind(ctx), bson.M{"profile_id": string(profile), "payment_status": false})
	if err != nil {
		return 0, wrapErr(err)
	}
	return int(res.DeletedCount), nil
}

// FindPaidOverlap uses half-open overlap: existing.check_in < r.CheckOut and
// existing.check_out > r.CheckIn.
func (r *BookingRepository) FindPaidOverlap(ctx context.Context, propertyID domainproperty.PropertyID, rng daterange.DateRange, exclude domainbooking.BookingID) (*domainbooking.Booking, error) {
	filter := bson.M{
		"property_id":    string(propertyID),
		"payment_status": true,
		"check_in":       bson.M{"$lt": rng.CheckOut.UTC()},
		"check_out":      bson.M{"$gt": rng.CheckIn.UTC()},
	}
	if exclude != "" {
		filter["_id"] = bson.M{"$ne": string(exclude)}
	}
	var doc bookingDocument
	opts := options.FindOne().SetSort(bson.D{{Key: "check_in", Value: 1}})
	if err := r.col.FindOne(r.unit.bind(ctx), filter, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, wrapErr(err)
	}
	return doc.toAggregate(), nil
}

// MarkPaid flips payment_status only while it is still false.
func (r *BookingRepository) MarkPaid(ctx context.Context, id domainbooking.BookingID, paidAt time.Time) (bool, error) {
	ctx = r.unit.bind(ctx)
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": string(id), "payment_status": false},
		bson.M{
			"$set": bson.M{"payment_status": true, "paid_at": paidAt.UTC(), "updated_at": paidAt.UTC()},
			"$inc": bson.M{"version": 1},
		},
	)
	if err != nil {
		return false, wrapErr(err)
	}
	if res.ModifiedCount == 1 {
		return true, nil
	}
	n, err := r.col.CountDocuments(ctx, bson.M{"_id": string(id)})
	if err != nil {
		return false, wrapErr(err)
	}
	if n == 0 {
		return false, domainbooking.ErrNotFound
	}
	return false, nil
}

func (r *BookingRepository) ListByProfile(ctx context.Context, profile domainbooking.ProfileID) ([]*domainbooking.Booking, error) {
	return r.find(ctx, bson.M{"profile_id": string(profile)}, bson.D{{Key: "created_at", Value: 1}})
}

func (r *BookingRepository) ListPaidByProperty(ctx context.Context, propertyID domainproperty.PropertyID) ([]*domainbooking.Booking, error) {
	return r.find(ctx, bson.M{"property_id": string(propertyID), "payment_status": true}, bson.D{{Key: "check_in", Value: 1}})
}

func (r *BookingRepository) find(ctx context.Context, filter bson.M, sort bson.D) ([]*domainbooking.Booking, error) {
	ctx = r.unit.bind(ctx)
	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, wrapErr(err)
	}
	var docs []bookingDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, wrapErr(err)
	}
	out := make([]*domainbooking.Booking, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toAggregate())
	}
	return out, nil
}

var _ domainbooking.Repository = (*BookingRepository)(nil)
