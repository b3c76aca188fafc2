package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"taskweaver/internal/task"
)

func TestComputeKeyInvariantUnderPermutation(t *testing.T) {
	a := []task.EnvVar{{Key: "A", Value: "1"}, {Key: "B", Value: "2"}}
	b := []task.EnvVar{{Key: "B", Value: "2"}, {Key: "A", Value: "1"}}
	require.Equal(t, ComputeKey("echo hi", a), ComputeKey("echo hi", b))
}

func TestComputeKeyDiffersOnCommand(t *testing.T) {
	env := []task.EnvVar{{Key: "A", Value: "1"}}
	require.NotEqual(t, ComputeKey("echo hi", env), ComputeKey("echo bye", env))
}

func TestStoreHitRoundTrip(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	key := ComputeKey("echo hi", nil)
	require.False(t, store.HasHit(key), "expected miss before record")
	require.NoError(t, store.RecordHit(key))
	require.True(t, store.HasHit(key), "expected hit after record")
}

func TestStoreEvictRemovesOldMarkers(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	key := ComputeKey("echo hi", nil)
	require.NoError(t, store.RecordHit(key))
	require.NoError(t, store.Evict(-1*time.Second))
	require.False(t, store.HasHit(key), "expected marker evicted")
}

type fakeRemote struct {
	pulled  map[string][]byte
	pushed  map[string][]byte
	pullErr error
}

func (f *fakeRemote) Pull(key string) ([]byte, bool, error) {
	if f.pullErr != nil {
		return nil, false, f.pullErr
	}
	b, ok := f.pulled[key]
	return b, ok, nil
}

func (f *fakeRemote) Push(key string, payload []byte) error {
	if f.pushed == nil {
		f.pushed = map[string][]byte{}
	}
	f.pushed[key] = payload
	return nil
}

func TestCacheLookupPromotesRemoteHit(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	remote := &fakeRemote{pulled: map[string][]byte{"k1": {}}}
	c := New(store, remote)

	hit, err := c.Lookup("k1")
	require.NoError(t, err)
	require.True(t, hit, "expected remote hit")
	require.True(t, store.HasHit("k1"), "expected remote hit promoted to local marker")
}

func TestCacheLookupMissWithNoRemote(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	c := New(store, nil)
	hit, err := c.Lookup("missing")
	require.NoError(t, err)
	require.False(t, hit, "expected miss")
}

func TestCacheRecordPushesToRemote(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	remote := &fakeRemote{}
	c := New(store, remote)
	require.NoError(t, c.Record("k2"))
	require.True(t, store.HasHit("k2"), "expected local marker recorded")

	_, ok := remote.pushed["k2"]
	require.True(t, ok, "expected remote push")
}
