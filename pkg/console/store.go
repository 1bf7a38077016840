package console

import (
	"sort"
	"sync"
)

// Store holds the session and group records. Mutations replace the whole map
// (copy-on-write), so a snapshot handed to a reader is never mutated under
// it. Change subscribers fire after the swap, outside the lock.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	groups   map[string]*Group
	subs     []func()
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*Session),
		groups:   make(map[string]*Group),
	}
}

// Subscribe registers a change callback. Callbacks run synchronously after
// each mutation, in registration order.
func (s *Store) Subscribe(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

func (s *Store) notify() {
	s.mu.RLock()
	subs := s.subs
	s.mu.RUnlock()
	for _, fn := range subs {
		fn()
	}
}

// Session returns a copy of the session, if known.
func (s *Store) Session(id string) (*Session, bool) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return sess.Clone(), true
}

// Sessions returns all sessions ordered by creation time, oldest first.
func (s *Store) Sessions() []*Session {
	s.mu.RLock()
	out := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// SessionByTerminal returns the session owning a live terminal.
func (s *Store) SessionByTerminal(terminalID string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sess := range s.sessions {
		if sess.TerminalID == terminalID {
			return sess.Clone(), true
		}
	}
	return nil, false
}

// PutSession inserts or replaces a session.
func (s *Store) PutSession(sess *Session) {
	s.mu.Lock()
	next := make(map[string]*Session, len(s.sessions)+1)
	for id, v := range s.sessions {
		next[id] = v
	}
	next[sess.ID] = sess.Clone()
	s.sessions = next
	s.mu.Unlock()
	s.notify()
}

// UpdateSession mutates one session through fn under copy-on-write. Returns
// false when the session is unknown.
func (s *Store) UpdateSession(id string, fn func(*Session)) bool {
	s.mu.Lock()
	old, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	next := make(map[string]*Session, len(s.sessions))
	for sid, v := range s.sessions {
		next[sid] = v
	}
	updated := old.Clone()
	fn(updated)
	next[id] = updated
	s.sessions = next
	s.mu.Unlock()
	s.notify()
	return true
}

// DeleteSession removes a session. Unknown ids are a no-op.
func (s *Store) DeleteSession(id string) {
	s.mu.Lock()
	if _, ok := s.sessions[id]; !ok {
		s.mu.Unlock()
		return
	}
	next := make(map[string]*Session, len(s.sessions))
	for sid, v := range s.sessions {
		if sid != id {
			next[sid] = v
		}
	}
	s.sessions = next
	s.mu.Unlock()
	s.notify()
}

// Group returns a copy of the group, if known.
func (s *Store) Group(id string) (*Group, bool) {
	s.mu.RLock()
	g, ok := s.groups[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return g.Clone(), true
}

// Groups returns all groups ordered by creation time, oldest first.
func (s *Store) Groups() []*Group {
	s.mu.RLock()
	out := make([]*Group, 0, len(s.groups))
	for _, g := range s.groups {
		out = append(out, g.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// PutGroup inserts or replaces a group.
func (s *Store) PutGroup(g *Group) {
	s.mu.Lock()
	next := make(map[string]*Group, len(s.groups)+1)
	for id, v := range s.groups {
		next[id] = v
	}
	next[g.ID] = g.Clone()
	s.groups = next
	s.mu.Unlock()
	s.notify()
}

// UpdateGroup mutates one group through fn under copy-on-write.
func (s *Store) UpdateGroup(id string, fn func(*Group)) bool {
	s.mu.Lock()
	old, ok := s.groups[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	next := make(map[string]*Group, len(s.groups))
	for gid, v := range s.groups {
		next[gid] = v
	}
	updated := old.Clone()
	fn(updated)
	next[id] = updated
	s.groups = next
	s.mu.Unlock()
	s.notify()
	return true
}

// DeleteGroup removes a group record. Unknown ids are a no-op.
func (s *Store) DeleteGroup(id string) {
	s.mu.Lock()
	if _, ok := s.groups[id]; !ok {
		s.mu.Unlock()
		return
	}
	next := make(map[string]*Group, len(s.groups))
	for gid, v := range s.groups {
		if gid != id {
			next[gid] = v
		}
	}
	s.groups = next
	s.mu.Unlock()
	s.notify()
}

// SessionsInGroup returns the group's sessions, oldest first.
func (s *Store) SessionsInGroup(groupID string) []*Session {
	all := s.Sessions()
	out := all[:0]
	for _, sess := range all {
		if sess.GroupID == groupID {
			out = append(out, sess)
		}
	}
	return out
}
