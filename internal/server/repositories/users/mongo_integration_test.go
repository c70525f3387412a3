package users

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// newMongoTestRepo connects to GOPHAUTH_TEST_MONGO_URI and returns a
// repository on a throwaway database. The test is skipped when the
// variable is unset.
func newMongoTestRepo(t *testing.T) *MongoRepository {
	t.Helper()

	uri := os.Getenv("GOPHAUTH_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("GOPHAUTH_TEST_MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	require.NoError(t, err)
	require.NoError(t, client.Ping(ctx, nil))

	db := client.Database("gophauth_test_" + uuid.NewString()[:8])
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})

	r := NewMongoRepository(db)
	require.NoError(t, r.EnsureIndexes(ctx))
	return r
}

func TestMongoRepository_CRUD(t *testing.T) {
	r := newMongoTestRepo(t)
	ctx := context.Background()

	a, err := r.Create(ctx, "a@x.com", "h1")
	require.NoError(t, err)

	_, err = r.Create(ctx, "a@x.com", "h2")
	assert.ErrorIs(t, err, common.ErrConstraintViolated)

	found, err := r.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, a.ID, found.ID)
	assert.True(t, a.CreatedAt.Equal(found.CreatedAt))

	email := "b@x.com"
	updated, err := r.Update(ctx, a.ID, models.UserUpdate{Email: &email})
	require.NoError(t, err)
	assert.Equal(t, "b@x.com", updated.Email)
	assert.Equal(t, "h1", updated.PasswordHash)

	stored, err := r.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, updated.UpdatedAt.Equal(stored.UpdatedAt))

	secret := "SECRET"
	u, err := r.UpdateTwoFactor(ctx, a.ID, &secret, false)
	require.NoError(t, err)
	assert.Equal(t, models.TwoFactorPendingVerification, u.TwoFactorState())

	u, err = r.UpdateTwoFactor(ctx, a.ID, nil, false)
	require.NoError(t, err)
	assert.Equal(t, models.TwoFactorDisabled, u.TwoFactorState())

	_, err = r.Create(ctx, "c@x.com", "h3")
	require.NoError(t, err)

	list, err := r.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.ElementsMatch(t, []string{"b@x.com", "c@x.com"}, []string{list[0].Email, list[1].Email})

	require.NoError(t, r.Delete(ctx, a.ID))
	assert.ErrorIs(t, r.Delete(ctx, a.ID), common.ErrorNotFound)

	_, err = r.FindByID(ctx, a.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = r.Update(ctx, "missing", models.UserUpdate{Email: &email})
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
