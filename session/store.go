package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const DEFAULT_TTL = 2 * time.Hour

// Store holds live sessions in memory; idle ones are dropped by Sweep.
type Store struct {
	TTL          time.Duration
	FilterColumn string
	Logger       *zerolog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewStore(ttl time.Duration, filterColumn string, logger *zerolog.Logger) *Store {
	if ttl <= 0 {
		ttl = DEFAULT_TTL
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Store{
		TTL:          ttl,
		FilterColumn: filterColumn,
		Logger:       logger,
		sessions:     make(map[string]*Session),
	}
}

func (st *Store) Create() *Session {
	s := New(uuid.NewString(), st.FilterColumn, st.Logger)
	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	st.Logger.Debug().Str("session", s.ID).Msg("created")
	return s
}

func (st *Store) Get(id string) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	return s, ok
}

func (st *Store) Delete(id string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	_, ok := st.sessions[id]
	delete(st.sessions, id)
	return ok
}

func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Sweep removes sessions idle for longer than TTL and returns how many went.
func (st *Store) Sweep(now time.Time) int {
	st.mu.Lock()
	defer st.mu.Unlock()
	n := 0
	for id, s := range st.sessions {
		s.mu.Lock()
		idle := now.Sub(s.UpdatedAt)
		s.mu.Unlock()
		if idle > st.TTL {
			delete(st.sessions, id)
			n++
		}
	}
	if n > 0 {
		st.Logger.Info().Msgf("expired %d sessions", n)
	}
	return n
}
