// Package conversation implements the append-only, disk-backed dialog
// store (spec.md §4.8) and the deep-research state machine (§4.9).
// Grounded on the teacher's internal/contextengine (session/message
// shape, prompt-assembly-from-history style) and internal/dashboard's
// chat.go (create-session-on-first-message pattern), adapted to
// spec.md's one-file-per-session disk format instead of the teacher's
// SQLite-backed store.
package conversation

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/repowiki/internal/indexcache"
	"github.com/ziadkadry99/repowiki/internal/logging"
)

var log = logging.New("conversation")

// Role identifies the author of a ConversationMessage.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// MaxHistoryLength bounds a session's message list (spec.md §3): when
// exceeded, the oldest messages are dropped FIFO and the tail is kept.
const MaxHistoryLength = 50

// Source records one retrieved document cited alongside an assistant
// message.
type Source struct {
	FilePath   string
	LineStart  int
	LineEnd    int
	Similarity float32
}

// Message is one turn in a ConversationSession.
type Message struct {
	ID          string
	Role        Role
	Content     string
	Timestamp   time.Time
	Sources     []Source
	ProjectTags []string
}

// Session is the full on-disk representation of one conversation,
// persisted as a single JSON file under <repoRoot>/.deepwiki/conversations/.
type Session struct {
	ID        string
	Title     string
	Messages  []Message
	CreatedAt time.Time
	UpdatedAt time.Time
	Metadata  map[string]string
}

func (s *Session) deepCopy() *Session {
	cp := *s
	cp.Messages = append([]Message(nil), s.Messages...)
	for i, m := range cp.Messages {
		cp.Messages[i].Sources = append([]Source(nil), m.Sources...)
		cp.Messages[i].ProjectTags = append([]string(nil), m.ProjectTags...)
	}
	cp.Metadata = make(map[string]string, len(s.Metadata))
	for k, v := range s.Metadata {
		cp.Metadata[k] = v
	}
	return &cp
}

// Manager is the in-memory, disk-backed collection of sessions for one
// repo's cache directory. All mutation is synchronous in-memory;
// persistence is fire-and-forget write-through, tolerant of failures
// (spec.md §4.8).
type Manager struct {
	cache *indexcache.Cache

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager loads every session file already present in cache's
// conversations directory into memory. A file that fails to parse is
// skipped, per spec.md §4.8.
func NewManager(cache *indexcache.Cache) *Manager {
	m := &Manager{cache: cache, sessions: make(map[string]*Session)}
	for _, id := range cache.ListSessionIDs() {
		var s Session
		if !cache.LoadSession(id, &s) {
			log.Warnf("skipping unreadable session file %s", id)
			continue
		}
		m.sessions[id] = &s
	}
	return m
}

func newSessionID() string { return uuid.NewString() }

func newSession() *Session {
	now := time.Now()
	return &Session{
		ID:        newSessionID(),
		Title:     "Conversation " + now.Format("2006-01-02 15:04:05"),
		CreatedAt: now,
		UpdatedAt: now,
		Metadata:  make(map[string]string),
	}
}

// AppendMessage appends one message to sessionID, implicitly creating
// the session if sessionID is empty or unknown. Returns the session id
// actually used (which may differ from the argument when a new session
// was created) and the appended message's id.
func (m *Manager) AppendMessage(sessionID string, role Role, content string, sources []Source, tags []string) (string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[sessionID]
	if sessionID == "" || !ok {
		sess = newSession()
		m.sessions[sess.ID] = sess
		sessionID = sess.ID
	}

	msg := Message{
		ID:          uuid.NewString(),
		Role:        role,
		Content:     content,
		Timestamp:   time.Now(),
		Sources:     append([]Source(nil), sources...),
		ProjectTags: append([]string(nil), tags...),
	}
	sess.Messages = append(sess.Messages, msg)
	if len(sess.Messages) > MaxHistoryLength {
		sess.Messages = sess.Messages[len(sess.Messages)-MaxHistoryLength:]
	}
	sess.UpdatedAt = msg.Timestamp

	if err := m.cache.SaveSession(sess.ID, sess); err != nil {
		log.Warnf("persist session %s: %v", sess.ID, err)
	}

	return sessionID, msg.ID, nil
}

// GetSession returns a deep copy of the named session, if present.
func (m *Manager) GetSession(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	return sess.deepCopy(), true
}

// ListSessions returns deep copies of every known session.
func (m *Manager) ListSessions() []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		out = append(out, sess.deepCopy())
	}
	return out
}

// DeleteSession removes a session from memory and disk.
func (m *Manager) DeleteSession(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	if err := m.cache.DeleteSession(id); err != nil {
		return fmt.Errorf("conversation: delete session %s: %w", id, err)
	}
	return nil
}

// ExportSession returns a deep copy of a session for external storage
// or transfer.
func (m *Manager) ExportSession(id string) (*Session, bool) {
	return m.GetSession(id)
}

// ImportSession stores s as a new session, regenerating its id if it
// collides with an existing one (spec.md §4.8).
func (m *Manager) ImportSession(s *Session) (*Session, error) {
	m.mu.Lock()
	imported := s.deepCopy()
	if _, collides := m.sessions[imported.ID]; collides || imported.ID == "" {
		imported.ID = newSessionID()
	}
	m.sessions[imported.ID] = imported
	m.mu.Unlock()

	if err := m.cache.SaveSession(imported.ID, imported); err != nil {
		log.Warnf("persist imported session %s: %v", imported.ID, err)
	}
	return imported.deepCopy(), nil
}
