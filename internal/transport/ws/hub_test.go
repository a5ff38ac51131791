package ws

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// chanSender collects payloads for assertions.
type chanSender struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (s *chanSender) Enqueue(payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads = append(s.payloads, payload)
}

func (s *chanSender) received() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.payloads...)
}

func TestHub_SendToConnection(t *testing.T) {
	h := NewHub()
	a := &chanSender{}
	h.Add("a", a)

	h.SendToConnection("a", []byte("hello"))
	h.SendToConnection("ghost", []byte("nope"))

	assert.Equal(t, [][]byte{[]byte("hello")}, a.received())
}

func TestHub_SendToGroup(t *testing.T) {
	h := NewHub()
	a, b, c := &chanSender{}, &chanSender{}, &chanSender{}
	h.Add("a", a)
	h.Add("b", b)
	h.Add("c", c)
	h.JoinGroup("realm_1", "a")
	h.JoinGroup("realm_1", "b")

	h.SendToGroup("realm_1", []byte("event"), "")

	assert.Len(t, a.received(), 1)
	assert.Len(t, b.received(), 1)
	assert.Empty(t, c.received(), "non-members hear nothing")
}

func TestHub_SendToGroupExcept(t *testing.T) {
	h := NewHub()
	a, b := &chanSender{}, &chanSender{}
	h.Add("a", a)
	h.Add("b", b)
	h.JoinGroup("g", "a")
	h.JoinGroup("g", "b")

	h.SendToGroup("g", []byte("event"), "a")

	assert.Empty(t, a.received())
	assert.Len(t, b.received(), 1)
}

func TestHub_RemoveDropsGroupMembership(t *testing.T) {
	h := NewHub()
	a, b := &chanSender{}, &chanSender{}
	h.Add("a", a)
	h.Add("b", b)
	h.JoinGroup("g", "a")
	h.JoinGroup("g", "b")

	h.Remove("a")
	h.SendToGroup("g", []byte("event"), "")
	h.SendToConnection("a", []byte("direct"))

	assert.Empty(t, a.received())
	assert.Len(t, b.received(), 1)
}

func TestHub_LeaveGroupUnknownIsNoOp(t *testing.T) {
	h := NewHub()
	h.LeaveGroup("missing", "a")
	h.Remove("missing")
	h.SendToGroup("missing", []byte("event"), "")
}

func TestHub_ConcurrentUse(t *testing.T) {
	h := NewHub()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := string(rune('a' + n))
			h.Add(id, &chanSender{})
			h.JoinGroup("g", id)
			h.SendToGroup("g", []byte("x"), "")
			h.LeaveGroup("g", id)
			h.Remove(id)
		}(i)
	}
	wg.Wait()
}
