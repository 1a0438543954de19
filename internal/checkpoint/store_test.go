package checkpoint

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"codenerd/internal/coreerr"
)

func TestDecodeCheckpointRejectsUnknownFields(t *testing.T) {
	raw := []byte(`{"Version":1,"Sequence":1,"Reason":"x","unexpected_field":true}`)
	_, err := decodeCheckpoint(raw)
	require.NotNil(t, err)
	require.Equal(t, coreerr.KindDeserializeFailed, err.Kind)
}

func TestDecodeCheckpointSurfacesVersionMismatch(t *testing.T) {
	raw := []byte(`{"Version":99,"Sequence":1,"Reason":"x"}`)
	_, err := decodeCheckpoint(raw)
	require.NotNil(t, err)
	require.Equal(t, coreerr.KindVersionMismatch, err.Kind)
}

func TestDecodeCheckpointAcceptsWellFormedPayload(t *testing.T) {
	raw := []byte(`{"Version":1,"Sequence":1,"Reason":"ok"}`)
	cp, err := decodeCheckpoint(raw)
	require.Nil(t, err)
	require.Equal(t, uint64(1), cp.Sequence)
	require.Equal(t, "ok", cp.Reason)
}

func TestStoreSaveAndLoadLatestRoundTrips(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	session := buildSession(1, 5)
	mgr := NewManager(10)
	cp := mgr.Checkpoint(session, nil, nil, time.Second, "routine")

	require.NoError(t, store.Save("task-1", cp))

	loaded, found, loadErr := store.LoadLatest("task-1")
	require.NoError(t, loadErr)
	require.True(t, found)
	require.Equal(t, cp.Sequence, loaded.Sequence)
	require.Equal(t, cp.Reason, loaded.Reason)
}

func TestStoreLoadLatestNotFound(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	_, found, loadErr := store.LoadLatest("no-such-task")
	require.NoError(t, loadErr)
	require.False(t, found)
}
