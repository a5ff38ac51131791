package presence

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_CreateSessionIdempotent(t *testing.T) {
	m := NewManager()
	m.CreateSession("r1", testMap(2))
	s1, ok := m.Session("r1")
	require.True(t, ok)

	m.CreateSession("r1", testMap(5))
	s2, ok := m.Session("r1")
	require.True(t, ok)
	assert.Same(t, s1, s2)
	assert.Equal(t, 1, m.SessionCount())
}

func TestManager_SessionAbsent(t *testing.T) {
	m := NewManager()
	_, ok := m.Session("nope")
	assert.False(t, ok)
	_, ok = m.SessionForUser("nobody")
	assert.False(t, ok)
}

func TestManager_RegisterPlayer(t *testing.T) {
	m := NewManager()
	m.CreateSession("r1", testMap(1))

	p, err := m.RegisterPlayer("c1", "r1", "u1", "Alice", "009")
	require.NoError(t, err)
	assert.Equal(t, "u1", p.UID)

	sess, ok := m.SessionForUser("u1")
	require.True(t, ok)
	assert.Equal(t, "r1", sess.RealmID())
}

func TestManager_RegisterPlayerNoSession(t *testing.T) {
	m := NewManager()
	_, err := m.RegisterPlayer("c1", "r1", "u1", "Alice", "009")
	assert.Error(t, err)
}

func TestManager_LogoutUserIdempotent(t *testing.T) {
	m := NewManager()
	m.CreateSession("r1", testMap(1))
	_, err := m.RegisterPlayer("c1", "r1", "u1", "Alice", "009")
	require.NoError(t, err)

	assert.True(t, m.LogoutUser("u1"))
	assert.False(t, m.LogoutUser("u1"), "second logout must report absence")

	sess, _ := m.Session("r1")
	assert.Equal(t, 0, sess.PlayerCount())
	_, ok := m.SessionForUser("u1")
	assert.False(t, ok)
}

func TestManager_LogoutConn(t *testing.T) {
	m := NewManager()
	m.CreateSession("r1", testMap(1))
	_, err := m.RegisterPlayer("c1", "r1", "u1", "Alice", "009")
	require.NoError(t, err)

	assert.True(t, m.LogoutConn("c1"))
	assert.False(t, m.LogoutConn("c1"))
	assert.False(t, m.LogoutConn("never-registered"))
}

func TestManager_SessionSurvivesLastLogout(t *testing.T) {
	m := NewManager()
	m.CreateSession("r1", testMap(1))
	_, err := m.RegisterPlayer("c1", "r1", "u1", "Alice", "009")
	require.NoError(t, err)
	m.LogoutUser("u1")

	// Sessions persist for the life of the process.
	_, ok := m.Session("r1")
	assert.True(t, ok)
}

func TestManager_RejoinInvalidatesOldConn(t *testing.T) {
	m := NewManager()
	m.CreateSession("r1", testMap(1))
	_, err := m.RegisterPlayer("c1", "r1", "u1", "Alice", "009")
	require.NoError(t, err)

	// Same user reconnects on a new socket before the old one is torn down.
	_, err = m.RegisterPlayer("c2", "r1", "u1", "Alice", "009")
	require.NoError(t, err)

	// The stale socket's teardown must not log out the fresh player.
	assert.False(t, m.LogoutConn("c1"))
	sess, _ := m.Session("r1")
	assert.Equal(t, 1, sess.PlayerCount())

	assert.True(t, m.LogoutConn("c2"))
	assert.Equal(t, 0, sess.PlayerCount())
}

func TestManager_ConcurrentRegisterLogout(t *testing.T) {
	m := NewManager()
	m.CreateSession("r1", testMap(1))

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			uid := fmt.Sprintf("u%d", i)
			_, _ = m.RegisterPlayer("c-"+uid, "r1", uid, uid, "009")
		}(i)
	}
	wg.Wait()

	sess, _ := m.Session("r1")
	assert.Equal(t, n, sess.PlayerCount())

	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			m.LogoutUser(fmt.Sprintf("u%d", i))
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 0, sess.PlayerCount())
}
