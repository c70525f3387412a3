package users

import (
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

func TestUserDocument_BSONRoundTripKeepsNullSecret(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	in := userDocument{ID: "u-1", Email: "a@x.com", PasswordHash: "h", CreatedAt: now, UpdatedAt: now}

	raw, err := bson.Marshal(in)
	require.NoError(t, err)

	var asMap bson.M
	require.NoError(t, bson.Unmarshal(raw, &asMap))
	v, present := asMap["two_factor_secret"]
	assert.True(t, present, "secret is stored as explicit null")
	assert.Nil(t, v)

	var out userDocument
	require.NoError(t, bson.Unmarshal(raw, &out))
	assert.Equal(t, models.TwoFactorDisabled, out.toModel().TwoFactorState())
	assert.Equal(t, in.ID, out.ID)
	assert.Equal(t, in.Email, out.Email)
	assert.True(t, out.CreatedAt.Equal(now))
}

func TestUserDocument_ProjectionHasNoSecrets(t *testing.T) {
	secret := "S"
	doc := userDocument{ID: "u-1", Email: "a@x.com", PasswordHash: "h", TwoFactorSecret: &secret, TwoFactorEnabled: true}

	p := doc.toModel().Public()
	assert.Equal(t, models.UserProjection{ID: "u-1", Email: "a@x.com", TwoFactorEnabled: true}, p)
}

func TestMapMongoErr(t *testing.T) {
	assert.ErrorIs(t, mapMongoErr(mongo.ErrNoDocuments), common.ErrorNotFound)

	dup := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key"}}}
	assert.ErrorIs(t, mapMongoErr(dup), common.ErrConstraintViolated)

	other := mapMongoErr(errors.New("socket closed"))
	assert.NotErrorIs(t, other, common.ErrorNotFound)
	assert.Contains(t, other.Error(), "mongo error: socket closed")
}

func TestMongoRepository_TimestampTruncatedToMillis(t *testing.T) {
	r := &MongoRepository{now: func() time.Time {
		return time.Date(2024, 1, 2, 3, 4, 5, 123456789, time.FixedZone("X", 3600))
	}}

	ts := r.timestamp()
	assert.Equal(t, time.Date(2024, 1, 2, 2, 4, 5, 123000000, time.UTC), ts)
	assert.Equal(t, time.UTC, ts.Location())
}

func TestUpdateFields(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	email, hash := "b@x.com", "h2"

	tests := []struct {
		name string
		upd  models.UserUpdate
		want bson.M
	}{
		{"touch only", models.UserUpdate{}, bson.M{"updated_at": now}},
		{"email", models.UserUpdate{Email: &email}, bson.M{"updated_at": now, "email": email}},
		{"both", models.UserUpdate{Email: &email, PasswordHash: &hash}, bson.M{"updated_at": now, "email": email, "password_hash": hash}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, updateFields(tt.upd, now))
		})
	}
}

func TestTwoFactorFields(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	secret := "S"

	set := twoFactorFields(&secret, true, now)
	assert.Equal(t, &secret, set["two_factor_secret"])
	assert.Equal(t, true, set["two_factor_enabled"])
	assert.Equal(t, now, set["updated_at"])

	// a cleared secret marshals as null, not as a missing field
	raw, err := bson.Marshal(twoFactorFields(nil, false, now))
	require.NoError(t, err)
	var back bson.M
	require.NoError(t, bson.Unmarshal(raw, &back))
	v, present := back["two_factor_secret"]
	assert.True(t, present)
	assert.Nil(t, v)
	assert.Equal(t, false, back["two_factor_enabled"])
}

func TestListProjectionExcludesSecrets(t *testing.T) {
	assert.Equal(t, bson.M{"password_hash": 0, "two_factor_secret": 0}, listProjection)
	assert.Equal(t, bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}, listSort)
}
