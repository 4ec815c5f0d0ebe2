package secret

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestServiceName(t *testing.T) {
	assert.Equal(t, "winrm:srv01.corp.local", ServiceName("srv01.corp.local"))
}

func TestDefaultUserAccount(t *testing.T) {
	assert.Equal(t, "__default_08723efe-242f-11e9-8143-7ff2638e4f3e", DefaultUserAccount)
}

func testStore(t *testing.T, s Store) {
	t.Helper()

	_, found, err := s.Get("winrm:h", "alice")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Set("winrm:h", "alice", "pw1"))
	require.NoError(t, s.Set("winrm:h", DefaultUserAccount, "alice"))
	require.NoError(t, s.Set("winrm:other", "alice", "pw2"))

	v, found, err := s.Get("winrm:h", "alice")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "pw1", v)

	v, _, _ = s.Get("winrm:h", DefaultUserAccount)
	assert.Equal(t, "alice", v)

	v, _, _ = s.Get("winrm:other", "alice")
	assert.Equal(t, "pw2", v)

	require.NoError(t, s.Set("winrm:h", "alice", "rotated"))
	v, _, _ = s.Get("winrm:h", "alice")
	assert.Equal(t, "rotated", v)
}

func TestMemory(t *testing.T) {
	testStore(t, NewMemory())
}

func TestMemory_ZeroValue(t *testing.T) {
	var m Memory

	_, ok, err := m.Get("winrm:h", "alice")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NotPanics(t, func() {
		require.NoError(t, m.Set("winrm:h", "alice", "pw"))
	})
	v, ok, err := m.Get("winrm:h", "alice")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "pw", v)
}

func TestKeyring(t *testing.T) {
	keyring.MockInit()
	testStore(t, NewKeyring())
}

func TestKeyring_BackendError(t *testing.T) {
	keyring.MockInitWithError(errors.New("dbus unavailable"))
	defer keyring.MockInit()

	_, _, err := NewKeyring().Get("winrm:h", "alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dbus unavailable")

	assert.Error(t, NewKeyring().Set("winrm:h", "alice", "pw"))
}
