package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const userCollection = "users"

// userDocument is the BSON shape of a user. Ids are UUID strings so they
// look the same regardless of backend.
type userDocument struct {
	ID               string    `bson:"_id"`
	Email            string    `bson:"email"`
	PasswordHash     string    `bson:"password_hash,omitempty"`
	TwoFactorSecret  *string   `bson:"two_factor_secret"`
	TwoFactorEnabled bool      `bson:"two_factor_enabled"`
	CreatedAt        time.Time `bson:"created_at"`
	UpdatedAt        time.Time `bson:"updated_at"`
}

func (d *userDocument) toModel() *models.User {
	return &models.User{
		ID:               d.ID,
		Email:            d.Email,
		PasswordHash:     d.PasswordHash,
		TwoFactorSecret:  d.TwoFactorSecret,
		TwoFactorEnabled: d.TwoFactorEnabled,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

// MongoRepository stores users in a MongoDB collection with a unique index
// on email.
type MongoRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(userCollection), now: time.Now}
}

// EnsureIndexes creates the unique email index. Uniqueness of email relies
// on it, so it must run before the repository takes writes.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("users_email_key"),
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	return nil
}

func (r *MongoRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoRepository) Create(ctx context.Context, email, passwordHash string) (*models.User, error) {
	now := r.timestamp()
	doc := &userDocument{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return nil, mapMongoErr(err)
	}
	return doc.toModel(), nil
}

func (r *MongoRepository) Update(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error) {
	return r.findOneAndSet(ctx, id, updateFields(upd, r.timestamp()))
}

func (r *MongoRepository) UpdateTwoFactor(ctx context.Context, id string, secret *string, enabled bool) (*models.User, error) {
	if enabled && (secret == nil || *secret == "") {
		return nil, fmt.Errorf("2fa secret %w", common.ErrConstraintViolated)
	}
	return r.findOneAndSet(ctx, id, twoFactorFields(secret, enabled, r.timestamp()))
}

func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mapMongoErr(err)
	}
	if res.DeletedCount == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *MongoRepository) ListAll(ctx context.Context) ([]models.UserProjection, error) {
	cursor, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(listSort).SetProjection(listProjection))
	if err != nil {
		return nil, mapMongoErr(err)
	}
	defer cursor.Close(ctx)

	out := make([]models.UserProjection, 0)
	for cursor.Next(ctx) {
		var doc userDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("mongo error: %w", err)
		}
		out = append(out, doc.toModel().Public())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("mongo error: %w", err)
	}
	return out, nil
}

// timestamp is the current time at the millisecond precision BSON dates
// keep, so returned models equal what is stored.
func (r *MongoRepository) timestamp() time.Time {
	return r.now().UTC().Truncate(time.Millisecond)
}

var (
	listSort       = bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}
	listProjection = bson.M{"password_hash": 0, "two_factor_secret": 0}
)

// updateFields is the $set document for a partial update. Absent options
// are left out so the stored values stay.
func updateFields(upd models.UserUpdate, now time.Time) bson.M {
	set := bson.M{"updated_at": now}
	if upd.Email != nil {
		set["email"] = *upd.Email
	}
	if upd.PasswordHash != nil {
		set["password_hash"] = *upd.PasswordHash
	}
	return set
}

// twoFactorFields writes secret and flag together; a nil secret is stored
// as null.
func twoFactorFields(secret *string, enabled bool, now time.Time) bson.M {
	return bson.M{
		"two_factor_secret":  secret,
		"two_factor_enabled": enabled,
		"updated_at":         now,
	}
}

func (r *MongoRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var doc userDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, mapMongoErr(err)
	}
	return doc.toModel(), nil
}

func (r *MongoRepository) findOneAndSet(ctx context.Context, id string, set bson.M) (*models.User, error) {
	var doc userDocument
	err := r.coll.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return nil, mapMongoErr(err)
	}
	return doc.toModel(), nil
}

func mapMongoErr(err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return common.ErrorNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("email %w", common.ErrConstraintViolated)
	default:
		return fmt.Errorf("mongo error: %w", err)
	}
}
