package database

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"proshift/logger"
	logModel "proshift/models/log"
	"proshift/models/parcel"
	"proshift/models/payment"
	"proshift/models/rider"
	"proshift/models/tracking"
	"proshift/models/user"
	"proshift/types"
)

const (
	usersCollection     = "users"
	parcelsCollection   = "parcels"
	ridersCollection    = "riders"
	paymentsCollection  = "payments"
	trackingsCollection = "trackings"
	logsCollection      = "logs"
)

// MongoStore keeps every entity in its own collection of one database
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoStore connects and verifies the connection with a ping
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	logger.Success("Successfully connected to MongoDB database " + database)

	return &MongoStore{client: client, db: client.Database(database)}, nil
}

func (s *MongoStore) col(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// Migrate creates the indexes the queries rely on
func (s *MongoStore) Migrate(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		parcelsCollection: {
			{Keys: bson.D{{Key: "userEmail", Value: 1}, {Key: "creation_date", Value: -1}}},
			{Keys: bson.D{{Key: "assignedEmail", Value: 1}, {Key: "delivery_status", Value: 1}}},
			{Keys: bson.D{{Key: "delivery_status", Value: 1}}},
		},
		ridersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "work_status", Value: 1}, {Key: "district", Value: 1}}},
		},
		paymentsCollection: {
			{Keys: bson.D{{Key: "userEmail", Value: 1}, {Key: "payment_date", Value: -1}}},
		},
		trackingsCollection: {
			{Keys: bson.D{{Key: "trackingId", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		logsCollection: {
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		},
	}

	for name, models := range indexes {
		if _, err := s.col(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create %s indexes: %w", name, err)
		}
	}
	logger.Success("All indexes created successfully")
	return nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func newObjectID() string {
	return primitive.NewObjectID().Hex()
}

// idFilter matches a document id stored either as an ObjectId or as its hex string
func idFilter(id string) bson.M {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return bson.M{"_id": id}
	}
	return bson.M{"_id": bson.M{"$in": bson.A{oid, id}}}
}

func mapMongoErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicate
	default:
		return err
	}
}

func containsInsensitive(q string) bson.M {
	return bson.M{"$regex": regexp.QuoteMeta(q), "$options": "i"}
}

func findOne[T any](ctx context.Context, c *mongo.Collection, filter bson.M) (*T, error) {
	var out T
	if err := c.FindOne(ctx, filter).Decode(&out); err != nil {
		return nil, mapMongoErr(err)
	}
	return &out, nil
}

func findAll[T any](ctx context.Context, c *mongo.Collection, filter bson.M, opts *options.FindOptions) ([]T, error) {
	cursor, err := c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MongoStore) setOne(ctx context.Context, c *mongo.Collection, filter bson.M, fields map[string]interface{}) error {
	if len(fields) == 0 {
		n, err := c.CountDocuments(ctx, filter)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	}
	res, err := c.UpdateOne(ctx, filter, bson.M{"$set": fields})
	if err != nil {
		return mapMongoErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Users

func (s *MongoStore) FindUserByEmail(ctx context.Context, email string) (*user.User, error) {
	return findOne[user.User](ctx, s.col(usersCollection), bson.M{"email": email})
}

func (s *MongoStore) InsertUser(ctx context.Context, u *user.User) (string, error) {
	if u.ID == "" {
		u.ID = newObjectID()
	}
	if _, err := s.col(usersCollection).InsertOne(ctx, u); err != nil {
		return "", mapMongoErr(err)
	}
	return u.ID, nil
}

func (s *MongoStore) TouchLastLogin(ctx context.Context, email string, at time.Time) error {
	return s.setOne(ctx, s.col(usersCollection), bson.M{"email": email}, map[string]interface{}{"last_login": at})
}

func (s *MongoStore) SearchUsers(ctx context.Context, emailFragment string, limit int) ([]user.User, error) {
	opts := options.Find().SetLimit(int64(limit)).SetSort(bson.D{{Key: "email", Value: 1}})
	return findAll[user.User](ctx, s.col(usersCollection), bson.M{"email": containsInsensitive(emailFragment)}, opts)
}

func (s *MongoStore) UpdateUserRole(ctx context.Context, id, role string) error {
	return s.setOne(ctx, s.col(usersCollection), idFilter(id), map[string]interface{}{"role": role})
}

func (s *MongoStore) UpdateUserRoleByEmail(ctx context.Context, email, role string) error {
	return s.setOne(ctx, s.col(usersCollection), bson.M{"email": email}, map[string]interface{}{"role": role})
}

// Parcels

func parcelQuery(f ParcelFilter) bson.M {
	q := bson.M{}
	if f.UserEmail != "" {
		q["userEmail"] = f.UserEmail
	}
	if f.PaymentStatus != "" {
		q["payment_status"] = f.PaymentStatus
	}
	if f.AssignedRiderEmail != "" {
		q["assignedEmail"] = f.AssignedRiderEmail
	}
	if f.CashoutStatus != "" {
		q["cashout_status"] = f.CashoutStatus
	}
	switch {
	case f.DeliveryStatus != "":
		q["delivery_status"] = f.DeliveryStatus
	case len(f.DeliveryStatuses) > 0:
		q["delivery_status"] = bson.M{"$in": f.DeliveryStatuses}
	}
	return q
}

func (s *MongoStore) ListParcels(ctx context.Context, f ParcelFilter) ([]parcel.Parcel, error) {
	opts := options.Find().SetSort(bson.D{{Key: "creation_date", Value: -1}})
	return findAll[parcel.Parcel](ctx, s.col(parcelsCollection), parcelQuery(f), opts)
}

func (s *MongoStore) FindParcel(ctx context.Context, id string) (*parcel.Parcel, error) {
	return findOne[parcel.Parcel](ctx, s.col(parcelsCollection), idFilter(id))
}

func (s *MongoStore) InsertParcel(ctx context.Context, p *parcel.Parcel) (string, error) {
	if p.ID == "" {
		p.ID = newObjectID()
	}
	if _, err := s.col(parcelsCollection).InsertOne(ctx, p); err != nil {
		return "", mapMongoErr(err)
	}
	return p.ID, nil
}

func (s *MongoStore) DeleteParcel(ctx context.Context, id string) error {
	res, err := s.col(parcelsCollection).DeleteOne(ctx, idFilter(id))
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) UpdateParcel(ctx context.Context, id string, u ParcelUpdate) error {
	return s.setOne(ctx, s.col(parcelsCollection), idFilter(id), u.Fields())
}

func (s *MongoStore) CountParcelsByDeliveryStatus(ctx context.Context) ([]parcel.StatusCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$delivery_status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}

	cursor, err := s.col(parcelsCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	out := []parcel.StatusCount{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Riders

func (s *MongoStore) InsertRider(ctx context.Context, r *rider.Rider) (string, error) {
	if r.ID == "" {
		r.ID = newObjectID()
	}
	if _, err := s.col(ridersCollection).InsertOne(ctx, r); err != nil {
		return "", mapMongoErr(err)
	}
	return r.ID, nil
}

func (s *MongoStore) FindRider(ctx context.Context, id string) (*rider.Rider, error) {
	return findOne[rider.Rider](ctx, s.col(ridersCollection), idFilter(id))
}

func (s *MongoStore) FindRiderByEmail(ctx context.Context, email string) (*rider.Rider, error) {
	return findOne[rider.Rider](ctx, s.col(ridersCollection), bson.M{"email": email})
}

func (s *MongoStore) ListRiders(ctx context.Context, f RiderFilter) ([]rider.Rider, error) {
	q := bson.M{}
	if f.Status != "" {
		q["status"] = f.Status
	}
	if f.WorkStatus != "" {
		q["work_status"] = f.WorkStatus
	}
	if f.District != "" {
		q["district"] = f.District
	}
	if f.Search != "" {
		q["$or"] = bson.A{
			bson.M{"name": containsInsensitive(f.Search)},
			bson.M{"email": containsInsensitive(f.Search)},
		}
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return findAll[rider.Rider](ctx, s.col(ridersCollection), q, opts)
}

func (s *MongoStore) UpdateRider(ctx context.Context, id string, u RiderUpdate) error {
	return s.setOne(ctx, s.col(ridersCollection), idFilter(id), u.Fields())
}

func (s *MongoStore) UpdateRiderByEmail(ctx context.Context, email string, u RiderUpdate) error {
	return s.setOne(ctx, s.col(ridersCollection), bson.M{"email": email}, u.Fields())
}

// Payments

func (s *MongoStore) InsertPayment(ctx context.Context, p *payment.Payment) (string, error) {
	if p.ID == "" {
		p.ID = newObjectID()
	}
	if _, err := s.col(paymentsCollection).InsertOne(ctx, p); err != nil {
		return "", mapMongoErr(err)
	}
	return p.ID, nil
}

func (s *MongoStore) ListPayments(ctx context.Context, email string) ([]payment.Payment, error) {
	q := bson.M{}
	if email != "" {
		q["userEmail"] = email
	}
	opts := options.Find().SetSort(bson.D{{Key: "payment_date", Value: -1}})
	return findAll[payment.Payment](ctx, s.col(paymentsCollection), q, opts)
}

// Tracking

func (s *MongoStore) InsertTracking(ctx context.Context, t *tracking.Tracking) (string, error) {
	if t.ID == "" {
		t.ID = newObjectID()
	}
	if t.History == nil {
		t.History = tracking.History{}
	}
	if _, err := s.col(trackingsCollection).InsertOne(ctx, t); err != nil {
		return "", mapMongoErr(err)
	}
	return t.ID, nil
}

func (s *MongoStore) FindTracking(ctx context.Context, trackingID string) (*tracking.Tracking, error) {
	return findOne[tracking.Tracking](ctx, s.col(trackingsCollection), bson.M{"trackingId": trackingID})
}

func (s *MongoStore) AppendTracking(ctx context.Context, trackingID string, e tracking.Event) error {
	res, err := s.col(trackingsCollection).UpdateOne(ctx,
		bson.M{"trackingId": trackingID},
		bson.M{
			"$push": bson.M{"history": e},
			"$set":  bson.M{"currentStatus": e.Status, "updated_at": e.Timestamp},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Logs

func (s *MongoStore) InsertAPILog(ctx context.Context, entry types.LogEntry) error {
	doc := toLogModel(entry)
	doc.ID = newObjectID()
	_, err := s.col(logsCollection).InsertOne(ctx, doc)
	return err
}

func toLogModel(entry types.LogEntry) logModel.Log {
	return logModel.Log{
		Method:          entry.Method,
		URL:             entry.URL,
		RequestBody:     entry.RequestBody,
		ResponseBody:    entry.ResponseBody,
		RequestHeaders:  entry.RequestHeaders,
		ResponseHeaders: entry.ResponseHeaders,
		StatusCode:      entry.StatusCode,
		UserEmail:       entry.UserEmail,
		CreatedAt:       entry.CreatedAt,
	}
}
