package db

import (
	"bitwise74/diapredict/internal/model"
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
	"go.uber.org/zap"
)

const defaultDatabase = "diapredict"

type userDoc struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	model.User `bson:",inline"`
}

func (d *userDoc) toModel() *model.User {
	u := d.User
	u.ID = d.ID.Hex()
	return &u
}

type recordDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	model.Record `bson:",inline"`
}

// NewMongo connects to MongoDB and makes sure the indexes backing the
// uniqueness guarantees exist. If database is empty the one named in the
// connection string is used.
func NewMongo(ctx context.Context, uri, database string) (*Stores, error) {
	if database == "" {
		cs, err := connstring.ParseAndValidate(uri)
		if err != nil {
			return nil, fmt.Errorf("invalid mongo uri, %w", err)
		}

		database = cs.Database
		if database == "" {
			database = defaultDatabase
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo, %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo, %w", err)
	}

	db := client.Database(database)
	users := &MongoUsers{C: db.Collection("users")}
	records := &MongoRecords{C: db.Collection("results")}

	if err := ensureIndexes(ctx, users.C, records.C); err != nil {
		client.Disconnect(context.Background())
		return nil, err
	}

	zap.L().Debug("Connected to MongoDB", zap.String("database", database))

	return &Stores{
		Users:   users,
		Records: records,
		close:   client.Disconnect,
	}, nil
}

func ensureIndexes(ctx context.Context, users, records *mongo.Collection) error {
	_, err := users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "verification_token", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create user indexes, %w", err)
	}

	_, err = records.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "username", Value: 1}, {Key: "date", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create result indexes, %w", err)
	}

	return nil
}

type MongoUsers struct {
	C *mongo.Collection
}

func (s *MongoUsers) Create(ctx context.Context, u *model.User) error {
	res, err := s.C.InsertOne(ctx, userDoc{User: *u})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return err
	}

	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		u.ID = id.Hex()
	}

	return nil
}

func (s *MongoUsers) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.findOne(ctx, bson.M{"username": username})
}

func (s *MongoUsers) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *MongoUsers) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	var doc userDoc

	err := s.C.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return doc.toModel(), nil
}

func (s *MongoUsers) VerifyByToken(ctx context.Context, token string) error {
	if token == "" {
		return ErrNotFound
	}

	res, err := s.C.UpdateOne(ctx,
		bson.M{"verification_token": token},
		bson.M{"$set": bson.M{"verified": true}},
	)
	if err != nil {
		return err
	}

	if res.MatchedCount == 0 {
		return ErrNotFound
	}

	return nil
}

type MongoRecords struct {
	C *mongo.Collection
}

func (s *MongoRecords) Create(ctx context.Context, r *model.Record) error {
	res, err := s.C.InsertOne(ctx, recordDoc{Record: *r})
	if err != nil {
		return err
	}

	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		r.ID = id.Hex()
	}

	return nil
}

func (s *MongoRecords) ListByUser(ctx context.Context, username string) ([]model.Record, error) {
	cur, err := s.C.Find(ctx,
		bson.M{"username": username},
		options.Find().SetSort(bson.D{{Key: "date", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}

	var docs []recordDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	records := make([]model.Record, len(docs))
	for i, d := range docs {
		records[i] = d.Record
		records[i].ID = d.ID.Hex()
	}

	return records, nil
}

func (s *MongoRecords) DeleteOwned(ctx context.Context, id, username string) (int64, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		// Not an id we could have issued so it can't match anything
		return 0, nil
	}

	res, err := s.C.DeleteOne(ctx, bson.M{"_id": oid, "username": username})
	if err != nil {
		return 0, err
	}

	return res.DeletedCount, nil
}

func (s *MongoRecords) DeleteAllOwned(ctx context.Context, username string) (int64, error) {
	res, err := s.C.DeleteMany(ctx, bson.M{"username": username})
	if err != nil {
		return 0, err
	}

	return res.DeletedCount, nil
}
