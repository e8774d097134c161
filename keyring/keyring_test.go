package keyring

import (
	"chat-vault/errors"
	"context"
	"encoding/hex"
	"log/slog"
	"strings"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

var masterKey = strings.Repeat("ab", 32)

func newKeyring(t *testing.T, db *badger.DB, hexKey string) *Keyring {
	t.Helper()
	key, err := ParseMasterKey(hexKey)
	require.NoError(t, err)
	k, err := New(db, logs.GetLoggerFromLevel(slog.LevelDebug), key)
	require.NoError(t, err)
	t.Cleanup(k.Close)
	return k
}

func openDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestKeyring_Current_Creates_Version_One_Once(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	k := newKeyring(t, openDB(t), masterKey)

	first, err := k.Current(ctx, "c1")
	req.NoError(err)
	second, err := k.Current(ctx, "c1")
	req.NoError(err)

	req.Equal(uint32(1), first.Version)
	req.Len(first.Material, 32)
	req.Equal(first.Material, second.Material)
}

func TestKeyring_Keys_Are_Scoped_Per_Conversation(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	k := newKeyring(t, openDB(t), masterKey)

	one, err := k.Current(ctx, "c1")
	req.NoError(err)
	two, err := k.Current(ctx, "c2")
	req.NoError(err)

	req.NotEqual(one.Material, two.Material)
}

func TestKeyring_Rotate_Keeps_Old_Versions(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	k := newKeyring(t, openDB(t), masterKey)
	v1, err := k.Current(ctx, "c1")
	req.NoError(err)

	// When the key is rotated
	v2, err := k.Rotate(ctx, "c1")
	req.NoError(err)

	// Then the new version is active and the old one still resolves
	req.Equal(uint32(2), v2.Version)
	current, err := k.Current(ctx, "c1")
	req.NoError(err)
	req.Equal(v2.Material, current.Material)
	old, err := k.Resolve(ctx, "c1", 1)
	req.NoError(err)
	req.Equal(v1.Material, old.Material)
}

func TestKeyring_Retire(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	k := newKeyring(t, openDB(t), masterKey)
	_, err := k.Current(ctx, "c1")
	req.NoError(err)

	// The active version is protected
	req.ErrorIs(k.Retire(ctx, "c1", 1), errors.ErrInvalidArgument)

	_, err = k.Rotate(ctx, "c1")
	req.NoError(err)
	req.NoError(k.Retire(ctx, "c1", 1))

	_, err = k.Resolve(ctx, "c1", 1)
	req.ErrorIs(err, errors.ErrUnknownKeyVersion)
	_, err = k.Resolve(ctx, "c1", 2)
	req.NoError(err)
}

func TestKeyring_Resolve_Unknown_Version(t *testing.T) {
	req := require.New(t)
	k := newKeyring(t, openDB(t), masterKey)

	_, err := k.Resolve(context.Background(), "c1", 42)

	req.ErrorIs(err, errors.ErrUnknownKeyVersion)
}

func TestKeyring_Reopen_With_Same_And_Other_Master_Key(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	db := openDB(t)
	created, err := newKeyring(t, db, masterKey).Current(ctx, "c1")
	req.NoError(err)

	// Given a restarted process with the same master key
	reopened, err := newKeyring(t, db, masterKey).Resolve(ctx, "c1", 1)
	req.NoError(err)
	req.Equal(created.Material, reopened.Material)

	// Given a process configured with another master key
	_, err = newKeyring(t, db, strings.Repeat("cd", 32)).Resolve(ctx, "c1", 1)
	req.ErrorIs(err, errors.ErrDecryptionFailed)
}

func TestParseMasterKey(t *testing.T) {
	req := require.New(t)

	_, err := ParseMasterKey("not-hex")
	req.ErrorIs(err, errors.ErrInvalidMasterKey)

	_, err = ParseMasterKey(hex.EncodeToString([]byte("too short")))
	req.ErrorIs(err, errors.ErrInvalidMasterKey)

	key, err := ParseMasterKey(" " + masterKey + "\n")
	req.NoError(err)
	req.Len(key, 32)
}
