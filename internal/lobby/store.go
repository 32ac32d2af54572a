// Package lobby owns the live games of a server. A Store maps lobby IDs to
// lobbies; each Lobby serializes its own operations and drives its bots on a
// quartz clock, so different lobbies progress fully in parallel.
package lobby

import (
	"io"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/oblech/internal/gameid"
	"github.com/lox/oblech/internal/randutil"
)

// Store is the registry of open lobbies.
type Store struct {
	cfg    Config
	clock  quartz.Clock
	bus    EventBus
	logger *log.Logger

	mu      sync.RWMutex
	lobbies map[string]*Lobby
	rng     *rand.Rand
	ids     *gameid.Generator
}

// NewStore creates an empty store. A nil clock uses the real clock and a nil
// bus drops events.
func NewStore(cfg Config, clock quartz.Clock, bus EventBus, rng *rand.Rand, logger *log.Logger) *Store {
	if rng == nil {
		panic("rng is required for the lobby store")
	}
	if clock == nil {
		clock = quartz.NewReal()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Store{
		cfg:     cfg.withDefaults(),
		clock:   clock,
		bus:     bus,
		logger:  logger.WithPrefix("lobby"),
		lobbies: make(map[string]*Lobby),
		rng:     rng,
		ids:     gameid.NewGenerator(randutil.Derive(rng)),
	}
}

// Create opens a lobby led by playerID.
func (s *Store) Create(playerID, name string) (*Lobby, error) {
	s.mu.Lock()
	id := s.ids.Generate()
	for s.lobbies[id] != nil {
		id = s.ids.Generate()
	}
	l := newLobby(id, s.cfg, s.clock, s.bus, randutil.Derive(s.rng), s.logger)
	s.lobbies[id] = l
	s.mu.Unlock()

	s.logger.Info("Lobby created", "lobby", id, "leader", name)
	if err := l.Join(playerID, name); err != nil {
		s.remove(id)
		return nil, err
	}
	return l, nil
}

// Get returns an open lobby.
func (s *Store) Get(id string) (*Lobby, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.lobbies[id]
	if !ok {
		return nil, ErrLobbyNotFound
	}
	return l, nil
}

// Join seats playerID in lobby id.
func (s *Store) Join(id, playerID, name string) (*Lobby, error) {
	l, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := l.Join(playerID, name); err != nil {
		return nil, err
	}
	return l, nil
}

// Leave removes playerID from lobby id and drops the lobby once it closes.
func (s *Store) Leave(id, playerID string) error {
	l, err := s.Get(id)
	if err != nil {
		return err
	}
	closed, err := l.Leave(playerID)
	if closed {
		s.remove(id)
	}
	return err
}

// List returns every open lobby ordered by ID.
func (s *Store) List() []Info {
	s.mu.RLock()
	lobbies := make([]*Lobby, 0, len(s.lobbies))
	for _, l := range s.lobbies {
		lobbies = append(lobbies, l)
	}
	s.mu.RUnlock()

	infos := make([]Info, 0, len(lobbies))
	for _, l := range lobbies {
		infos = append(infos, l.Info())
	}
	slices.SortFunc(infos, func(a, b Info) int { return strings.Compare(a.ID, b.ID) })
	return infos
}

// Len returns the number of open lobbies.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.lobbies)
}

func (s *Store) remove(id string) {
	s.mu.Lock()
	delete(s.lobbies, id)
	s.mu.Unlock()
}
