package core

import (
	"sort"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"
)

// Sessions maps connection handles to sessions. Each operation is atomic on
// its own; there is no cross-operation locking.
type Sessions struct {
	m *xsync.MapOf[string, *Session]
}

// NewSessions creates an empty registry.
func NewSessions() *Sessions {
	return &Sessions{m: xsync.NewMapOf[string, *Session]()}
}

// Upsert stores sess under handle, replacing any previous session.
func (s *Sessions) Upsert(handle string, sess *Session) {
	s.m.Store(handle, sess)
}

// Get returns the session bound to handle.
func (s *Sessions) Get(handle string) (*Session, bool) {
	return s.m.Load(handle)
}

// Remove drops the session bound to handle. Returns true if one was present.
func (s *Sessions) Remove(handle string) bool {
	_, ok := s.m.LoadAndDelete(handle)
	return ok
}

// Len returns the number of registered sessions.
func (s *Sessions) Len() int {
	return s.m.Size()
}

// Snapshot returns the registered sessions ordered by handle.
func (s *Sessions) Snapshot() []*Session {
	out := make([]*Session, 0, s.m.Size())
	s.m.Range(func(_ string, sess *Session) bool {
		out = append(out, sess)
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Handle < out[j].Handle })
	return out
}

// Channel is a named member list. Membership is append-only and may hold
// the same account more than once.
type Channel struct {
	Name string

	mu      sync.Mutex
	members []int64
}

// NewChannel constructs a channel with no members.
func NewChannel(name string) *Channel {
	return &Channel{Name: name}
}

func (c *Channel) add(accountID int64) {
	c.mu.Lock()
	c.members = append(c.members, accountID)
	c.mu.Unlock()
}

// Members returns a copy of the member list in join order.
func (c *Channel) Members() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]int64, len(c.members))
	copy(out, c.members)
	return out
}

// Len returns the number of member entries, duplicates included.
func (c *Channel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.members)
}

// Channels maps channel names to channels. Entries are never removed.
type Channels struct {
	m *xsync.MapOf[string, *Channel]
}

// NewChannels creates an empty channel table.
func NewChannels() *Channels {
	return &Channels{m: xsync.NewMapOf[string, *Channel]()}
}

// JoinOrCreate appends accountID to the named channel, creating the channel
// first if needed. Creation is atomic, so racing first joins share one
// channel and both appends land in it.
func (c *Channels) JoinOrCreate(name string, accountID int64) *Channel {
	ch, _ := c.m.LoadOrCompute(name, func() *Channel {
		return NewChannel(name)
	})
	ch.add(accountID)
	return ch
}

// Get returns the named channel.
func (c *Channels) Get(name string) (*Channel, bool) {
	return c.m.Load(name)
}

// Members returns the member list of the named channel, nil if it does not exist.
func (c *Channels) Members(name string) []int64 {
	ch, ok := c.m.Load(name)
	if !ok {
		return nil
	}
	return ch.Members()
}

// Len returns the number of channels.
func (c *Channels) Len() int {
	return c.m.Size()
}

// Snapshot returns all channels ordered by name.
func (c *Channels) Snapshot() []*Channel {
	out := make([]*Channel, 0, c.m.Size())
	c.m.Range(func(_ string, ch *Channel) bool {
		out = append(out, ch)
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
