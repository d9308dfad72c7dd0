package sqlite

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/fieldorders/internal/domain/model"
	"github.com/ericfisherdev/fieldorders/internal/domain/port/driven"
)

func TestCredentialRepo_SetAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey(t))
	ctx := context.Background()

	err := repo.Set(ctx, "tech1", "secret")
	require.NoError(t, err)

	val, err := repo.Get(ctx, "tech1")
	require.NoError(t, err)
	assert.Equal(t, "secret", val)
}

func TestCredentialRepo_GetMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey(t))

	val, err := repo.Get(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, "", val)
}

func TestCredentialRepo_UpsertOverwrites(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey(t))
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, model.TokenKey, "old-token"))
	require.NoError(t, repo.Set(ctx, model.TokenKey, "abc123"))

	val, err := repo.Get(ctx, model.TokenKey)
	require.NoError(t, err)
	assert.Equal(t, "abc123", val)

	creds, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, creds, 1, "upsert must not duplicate the key")
}

func TestCredentialRepo_ValuesAreEncryptedAtRest(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey(t))
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "tech1", "secret"))

	var stored string
	err := db.Reader.QueryRowContext(ctx, `SELECT value FROM credentials WHERE key = ?`, "tech1").Scan(&stored)
	require.NoError(t, err)
	assert.NotContains(t, stored, "secret")

	// A second write of the same plaintext uses a fresh nonce.
	require.NoError(t, repo.Set(ctx, "tech1", "secret"))
	var again string
	err = db.Reader.QueryRowContext(ctx, `SELECT value FROM credentials WHERE key = ?`, "tech1").Scan(&again)
	require.NoError(t, err)
	assert.NotEqual(t, stored, again)
}

func TestCredentialRepo_WrongKeyFailsToDecrypt(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, NewCredentialRepo(db, testKey(t)).Set(ctx, "tech1", "secret"))

	otherKey, err := DeriveKey("another-secret")
	require.NoError(t, err)

	_, err = NewCredentialRepo(db, otherKey).Get(ctx, "tech1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrStorage))
}

func TestCredentialRepo_List(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey(t))
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, model.TokenKey, "abc123"))
	require.NoError(t, repo.Set(ctx, "tech1", "secret"))

	creds, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, creds, 2)
	// Sorted by key.
	assert.Equal(t, "tech1", creds[0].Key)
	assert.Equal(t, model.TokenKey, creds[1].Key)
	assert.False(t, creds[0].UpdatedAt.IsZero())
}

func TestCredentialRepo_ListEmpty(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey(t))

	creds, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, creds)
	assert.NotNil(t, creds)
}

func TestCredentialRepo_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey(t))
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, model.TokenKey, "abc123"))
	require.NoError(t, repo.Delete(ctx, model.TokenKey))

	val, err := repo.Get(ctx, model.TokenKey)
	require.NoError(t, err)
	assert.Equal(t, "", val)
}

func TestCredentialRepo_DeleteNonexistent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey(t))

	err := repo.Delete(context.Background(), "nonexistent")
	assert.NoError(t, err, "deleting nonexistent credential should not error")
}

func TestCredentialRepo_NoKey(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, nil)
	ctx := context.Background()

	err := repo.Set(ctx, "tech1", "secret")
	require.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)
	assert.True(t, errors.Is(err, model.ErrStorage))

	_, err = repo.Get(ctx, "tech1")
	require.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)
}

func TestDeriveKey(t *testing.T) {
	key, err := DeriveKey("s3cr3t")
	require.NoError(t, err)
	assert.Len(t, key, 32)

	again, err := DeriveKey("s3cr3t")
	require.NoError(t, err)
	assert.Equal(t, key, again, "derivation must be deterministic")

	other, err := DeriveKey(strings.Repeat("x", 64))
	require.NoError(t, err)
	assert.NotEqual(t, key, other)

	empty, err := DeriveKey("")
	require.NoError(t, err)
	assert.Nil(t, empty)
}
