package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"staylane/internal/app/uow"
	domainbooking "staylane/internal/domain/booking"
	domainproperty "staylane/internal/domain/property"
	domainreviews "staylane/internal/domain/reviews"
)

const (
	codeWriteConflict = 112
	labelTransientTxn = "TransientTransactionError"
)

// Factory wires Mongo transactions into the generic UnitOfWork interface.
type Factory struct {
	DB *mongo.Database
}

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// Begin starts a session. Write units also start a snapshot transaction;
// read-only units read outside a transaction.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	unit := &Unit{db: f.DB, session: session, readOnly: opts.ReadOnly}
	if opts.ReadOnly {
		return unit, nil
	}
	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return unit, nil
}

type Unit struct {
	db       *mongo.Database
	session  mongo.Session
	readOnly bool
}

func (u *Unit) Properties() domainproperty.Repository {
	return &PropertyRepository{col: u.db.Collection(collectionProperties), unit: u}
}

func (u *Unit) Bookings() domainbooking.Repository {
	return &BookingRepository{col: u.db.Collection(collectionBookings), unit: u}
}

func (u *Unit) Reviews() domainreviews.Repository {
	return &ReviewRepository{col: u.db.Collection(collectionReviews), unit: u}
}

// LockProperty bumps the property's lock document inside the transaction, so
// two units touching the same property conflict at the server.
func (u *Unit) LockProperty(ctx context.Context, id domainproperty.PropertyID) error {
	if u.readOnly {
		return errors.New("mongo: lock in read-only unit")
	}
	_, err := u.db.Collection(collectionPropertyLocks).UpdateByID(
		u.bind(ctx),
		string(id),
		bson.M{"$inc": bson.M{"seq": 1}, "$set": bson.M{"locked_at": time.Now().UTC()}},
		options.Update().SetUpsert(true),
	)
	return wrapErr(err)
}

func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(context.Background())
	if u.readOnly {
		return nil
	}
	return wrapErr(u.session.CommitTransaction(ctx))
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(context.Background())
	if u.readOnly {
		return nil
	}
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures Mongo session is available in context for downstream repos.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}

// bind attaches the unit's session to ctx unless it already carries one.
func (u *Unit) bind(ctx context.Context) context.Context {
	if u == nil {
		return ctx
	}
	if sc := mongo.SessionFromContext(ctx); sc != nil {
		return ctx
	}
	return mongo.NewSessionContext(ctx, u.session)
}

// wrapErr reports write conflicts as uow.ErrConflict.
func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	var se mongo.ServerError
	if errors.As(err, &se) && (se.HasErrorCode(codeWriteConflict) || se.HasErrorLabel(labelTransientTxn)) {
		return fmt.Errorf("%w: %v", uow.ErrConflict, err)
	}
	return err
}

var _ uow.UoWFactory = Factory{}
var _ uow.UnitOfWork = (*Unit)(nil)
