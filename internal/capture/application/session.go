package application

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	billing "gd-invoice/internal/billing/domain"
	capture "gd-invoice/internal/capture/domain"
)

// Session is one cycle being captured. The mutex makes the session the single writer
// of its draft.
type Session struct {
	mu        sync.Mutex
	id        string
	header    capture.Header
	draft     *capture.Draft
	result    *billing.Result
	updatedAt time.Time
}

// View is a read-only copy of a session.
type View struct {
	ID        string                   `json:"id"`
	Header    capture.Header           `json:"header"`
	Fields    map[string]capture.Field `json:"fields"`
	Result    *billing.Result          `json:"result,omitempty"`
	Changed   []string                 `json:"changed,omitempty"`
	UpdatedAt time.Time                `json:"updated_at"`
}

func newSession(header capture.Header, now time.Time) *Session {
	return &Session{
		id:        uuid.NewString(),
		header:    header,
		draft:     capture.NewDraft(),
		updatedAt: now,
	}
}

// view must be called with the session lock held.
func (s *Session) view(changed []string) View {
	v := View{
		ID:        s.id,
		Header:    s.header,
		Fields:    s.draft.Snapshot(),
		Changed:   changed,
		UpdatedAt: s.updatedAt,
	}
	if s.result != nil {
		res := *s.result
		v.Result = &res
	}
	return v
}

// SessionStore keeps the open sessions in memory.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionStore constructs an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*Session)}
}

func (s *SessionStore) put(session *Session) {
	s.mu.Lock()
	s.sessions[session.id] = session
	s.mu.Unlock()
}

func (s *SessionStore) get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	return session, ok
}

func (s *SessionStore) remove(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// IDs returns the open session ids in sorted order.
func (s *SessionStore) IDs() []string {
	s.mu.RLock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Strings(ids)
	return ids
}
