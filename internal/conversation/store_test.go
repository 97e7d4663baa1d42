package conversation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePersistence struct {
	blobs   map[string][]byte
	loadErr error
	saveErr error
}

func newFakePersistence() *fakePersistence {
	return &fakePersistence{blobs: make(map[string][]byte)}
}

func (f *fakePersistence) SaveConversation(_ context.Context, sessionID string, blob []byte, _ time.Duration) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.blobs[sessionID] = blob
	return nil
}

func (f *fakePersistence) LoadConversation(_ context.Context, sessionID string) ([]byte, bool, error) {
	if f.loadErr != nil {
		return nil, false, f.loadErr
	}
	blob, ok := f.blobs[sessionID]
	return blob, ok, nil
}

func TestStore_GetCreatesAndCaches(t *testing.T) {
	store := NewStore(nil, time.Hour)

	first := store.Get(context.Background(), "s1", "u1")
	require.NotNil(t, first)
	assert.Equal(t, "s1", first.SessionID)
	assert.Equal(t, "u1", first.UserID)

	first.Observe("tìm áo đen")

	second := store.Get(context.Background(), "s1", "u1")
	assert.Same(t, first, second)
	assert.Equal(t, 1, second.MessageCount)
}

func TestStore_SessionsAreIsolated(t *testing.T) {
	store := NewStore(nil, time.Hour)

	a := store.Get(context.Background(), "s1", "u1")
	b := store.Get(context.Background(), "s2", "u2")

	a.Observe("tìm áo đen")

	assert.Empty(t, b.Preferences.Colors)
	assert.Zero(t, b.MessageCount)
}

func TestStore_RoundTripsThroughPersistence(t *testing.T) {
	persistence := newFakePersistence()

	first := NewStore(persistence, time.Hour)
	c := first.Get(context.Background(), "s1", "u1")
	c.Observe("tìm áo đen dưới 300k")
	first.Save(context.Background(), c)

	require.Contains(t, persistence.blobs, "s1")

	// a fresh store simulates a process restart
	second := NewStore(persistence, time.Hour)
	restored := second.Get(context.Background(), "s1", "u1")

	assert.Equal(t, 1, restored.MessageCount)
	assert.Equal(t, []string{"đen"}, restored.Preferences.Colors)
	require.NotNil(t, restored.Preferences.Price)
	assert.Equal(t, int64(300000), restored.Preferences.Price.Max)
}

func TestStore_PersistenceFailuresAreSwallowed(t *testing.T) {
	persistence := newFakePersistence()
	persistence.loadErr = errors.New("connection refused")
	persistence.saveErr = errors.New("connection refused")

	store := NewStore(persistence, time.Hour)

	c := store.Get(context.Background(), "s1", "u1")
	require.NotNil(t, c)

	store.Save(context.Background(), c)
	assert.Empty(t, persistence.blobs)
}

func TestStore_CorruptBlobStartsFresh(t *testing.T) {
	persistence := newFakePersistence()
	persistence.blobs["s1"] = []byte("not json")

	store := NewStore(persistence, time.Hour)

	c := store.Get(context.Background(), "s1", "u1")
	require.NotNil(t, c)
	assert.Zero(t, c.MessageCount)
	assert.Equal(t, "u1", c.UserID)
}
