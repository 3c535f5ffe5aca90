package session

import (
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/askblob/askblob/internal/ask"
	"github.com/askblob/askblob/internal/dataset"
	"github.com/askblob/askblob/internal/omni"
)

var ErrNotFound = errors.New("session not found")

// assistantNames feed the per-session random title, one picked at session
// creation and kept for the session's lifetime.
var assistantNames = []string{
	"Bloberta",
	"Blobby",
	"Bloberton",
	"Blobsworth",
	"Sir Blobsalot",
	"Blobzilla",
	"Professor Blob",
	"Blobinator",
	"Captain Blob",
	"Blob Ross",
	"Blobastian",
	"Bloberto",
	"Lady Blobington",
	"Dr. Blob, PhD",
	"Blob Marley",
}

// Session is the per-conversation mutable state: the selected dataset, the
// conversational query context, and the last normalized result. It is
// created at session start, mutated only by submissions and dataset
// switches, and destroyed with the process. The ask flow within one
// session is sequential; the store only guards its own map.
type Session struct {
	ID         string
	Title      string
	Dataset    dataset.Descriptor
	Tracker    ask.ContextTracker
	LastResult *omni.Table
	CreatedAt  time.Time
}

// LuckyPrompt picks a random example prompt from the active dataset.
func (s *Session) LuckyPrompt() string {
	prompts := s.Dataset.ExamplePrompts
	if len(prompts) == 0 {
		return ""
	}
	return prompts[rand.IntN(len(prompts))]
}

// SwitchDataset makes descriptor the active dataset and invalidates
// everything tied to the previous one: the query context and the last
// result.
func (s *Session) SwitchDataset(descriptor dataset.Descriptor) {
	s.Dataset = descriptor
	s.Tracker.Reset()
	s.LastResult = nil
}

type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	registry *dataset.Registry
}

func NewStore(registry *dataset.Registry) *Store {
	return &Store{
		sessions: map[string]*Session{},
		registry: registry,
	}
}

func (s *Store) Create() *Session {
	sess := &Session{
		ID:        uuid.NewString(),
		Title:     assistantNames[rand.IntN(len(assistantNames))],
		Dataset:   s.registry.Default(),
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess
}

func (s *Store) Get(id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return sess, nil
}

func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
